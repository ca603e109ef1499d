package model

import (
	"time"

	"github.com/lk2023060901/querydesk-go/pkg/serde"
)

// Driver 为连接使用的数据库驱动名。
type Driver string

const (
	DriverPostgres   Driver = "postgres"
	DriverMySQL      Driver = "mysql"
	DriverSQLite     Driver = "sqlite"
	DriverClickHouse Driver = "clickhouse"
	DriverMSSQL      Driver = "mssql"
)

// Drivers 为所有支持的驱动。
var Drivers = []Driver{DriverPostgres, DriverMySQL, DriverSQLite, DriverClickHouse, DriverMSSQL}

// DefaultPort 返回驱动的默认端口，SQLite 等文件型驱动返回 0。
func DefaultPort(d Driver) int {
	switch d {
	case DriverPostgres:
		return 5432
	case DriverMySQL:
		return 3306
	case DriverClickHouse:
		return 9000
	case DriverMSSQL:
		return 1433
	}
	return 0
}

type ConnectionAuth struct {
	Username string
	Password string
}

type ConnectionOptions struct {
	Host     string
	Port     int
	Database string
	SSL      bool
	Params   map[string]any
	Auth     *ConnectionAuth
}

type Connection struct {
	ID        string
	Name      string
	Driver    Driver
	Options   *ConnectionOptions
	Tags      []string
	Folder    string
	CreatedAt time.Time
}

func driverNames() []string {
	names := make([]string, len(Drivers))
	for i, d := range Drivers {
		names[i] = string(d)
	}
	return names
}

// decodeOptions 解码连接参数，未指定端口时按已解码的 Driver 填入默认端口。
func decodeOptions(target any, v any) (string, any, error) {
	if v == nil {
		return "Options", nil, nil
	}
	opts, err := serde.Decode[ConnectionOptions](nil, v, "")
	if err != nil {
		return "", nil, err
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort(target.(*Connection).Driver)
	}
	return "Options", opts, nil
}

func init() {
	serde.MustRegister[ConnectionAuth](serde.Default,
		serde.Field("Username", serde.String, serde.Name("username"), serde.Required(), serde.MaxLength(128),
			serde.Format(`^[^\s]+$`)),
		serde.Field("Password", serde.String, serde.Name("password"), serde.OmitEmpty()),
	)
	serde.MustRegister[ConnectionOptions](serde.Default,
		serde.Field("Host", serde.String, serde.Name("host"), serde.Required(), serde.Trim(), serde.MinLength(1)),
		serde.Field("Port", serde.Integer, serde.Name("port"), serde.Min(1), serde.Max(65535), serde.OmitEmpty()),
		serde.Field("Database", serde.String, serde.Name("database"), serde.OmitEmpty()),
		serde.Field("SSL", serde.Boolean, serde.Name("ssl"), serde.OmitEmpty()),
		serde.Field("Params", serde.Any, serde.Name("params")),
		serde.Field("Auth", serde.Object, serde.Name("auth"), serde.WithFactory(serde.New[ConnectionAuth]())),
	)
	serde.MustRegister[Connection](serde.Default,
		serde.Field("ID", serde.Identifier, serde.Name("id"), serde.Required()),
		serde.Field("Name", serde.String, serde.Name("name"), serde.Required(), serde.Trim(),
			serde.MinLength(1), serde.MaxLength(128)),
		serde.Field("Driver", serde.String, serde.Name("driver"), serde.Required(), serde.OneOf(driverNames()...)),
		serde.Field("Options", serde.Object, serde.Name("options"), serde.DependsOn("Driver"),
			serde.WithFactory(serde.New[ConnectionOptions]()), serde.WithDeserializer(decodeOptions)),
		serde.Field("Tags", serde.Array, serde.Name("tags"), serde.Items(serde.String, serde.MinLength(1))),
		serde.Field("Folder", serde.String, serde.Name("folder"), serde.OmitEmpty()),
		timeField("CreatedAt", "createdAt"),
	)
}
