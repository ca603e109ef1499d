package model

import (
	"github.com/lk2023060901/querydesk-go/pkg/serde"
)

// ServerInfo 为后端 /api/info 的响应。
type ServerInfo struct {
	Name    string
	Version string
	Drivers []string
}

func init() {
	serde.MustRegister[ServerInfo](serde.Default,
		serde.Field("Name", serde.String, serde.Name("name"), serde.OmitEmpty()),
		serde.Field("Version", serde.String, serde.Name("version"), serde.Required(), serde.MinLength(1)),
		serde.Field("Drivers", serde.Array, serde.Name("drivers"), serde.Items(serde.String)),
	)
}
