package config

import (
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/querydesk-go/internal/compressor"
	"github.com/lk2023060901/querydesk-go/internal/serializer"
	"github.com/lk2023060901/querydesk-go/pkg/log"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
	zviper "github.com/lk2023060901/querydesk-go/pkg/util/viper"
)

// EnvPrefix 为环境变量前缀，例如 QUERYDESK_SERVER_BASE_URL 覆盖 server.base-url。
const EnvPrefix = "QUERYDESK"

const (
	minAttempts uint = 1
	maxAttempts uint = 10
)

// ServerConfig 描述后端 REST/WebSocket 服务。
type ServerConfig struct {
	// BaseURL 为 API 根地址，例如 http://localhost:8080/api。
	BaseURL string `mapstructure:"base-url" json:"base-url"`
	// Token 非空时以 Bearer 方式附加到每个请求。
	Token       string        `mapstructure:"token" json:"token"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	MaxAttempts uint          `mapstructure:"max-attempts" json:"max-attempts"`
	RetrySleep  time.Duration `mapstructure:"retry-sleep" json:"retry-sleep"`
	// MinVersion 为要求的最低后端版本，留空表示不检查。
	MinVersion string `mapstructure:"min-version" json:"min-version"`
}

// HistoryConfig 描述本地查询历史存储。
type HistoryConfig struct {
	Path string `mapstructure:"path" json:"path"`
	// CacheSize 为 diskv 内存缓存上限，单位字节。
	CacheSize  uint64 `mapstructure:"cache-size" json:"cache-size"`
	Limit      int    `mapstructure:"limit" json:"limit"`
	Serializer string `mapstructure:"serializer" json:"serializer"`
	Compressor string `mapstructure:"compressor" json:"compressor"`
	Workers    int    `mapstructure:"workers" json:"workers"`
	// EncryptionKey 非空时以 AES-GCM + HMAC 加密落盘记录。
	EncryptionKey string `mapstructure:"encryption-key" json:"-"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server" json:"server"`
	History HistoryConfig `mapstructure:"history" json:"history"`
	Log     log.Config    `mapstructure:"log" json:"log"`
	// Logging 为按名称区分的模块日志配置，见 application.Logger。
	Logging map[string]log.Config `mapstructure:"logging" json:"logging"`
}

func defaultHistoryPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "querydesk", "history")
}

func setDefaults(v *zviper.Config) {
	v.SetDefault("server.base-url", "http://localhost:8080/api")
	v.SetDefault("server.token", "")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.max-attempts", 3)
	v.SetDefault("server.retry-sleep", 200*time.Millisecond)
	v.SetDefault("server.min-version", "")

	v.SetDefault("history.path", defaultHistoryPath())
	v.SetDefault("history.cache-size", 4<<20)
	v.SetDefault("history.limit", 1000)
	v.SetDefault("history.serializer", serializer.NameJSON)
	v.SetDefault("history.compressor", compressor.NameZstd)
	v.SetDefault("history.workers", 0)
	v.SetDefault("history.encryption-key", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.stdout", false)
	v.SetDefault("log.file.rootpath", "")
	v.SetDefault("log.file.filename", "")
}

// Load 按 默认值 < 配置文件 < 环境变量 的优先级构造配置。path 为空时只使用默认值与环境变量。
func Load(path string) (*Config, error) {
	v := zviper.New(EnvPrefix)
	setDefaults(v)
	if path != "" {
		if err := v.LoadFile(path); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %q", path)
		}
	}
	return build(v)
}

// LoadOptional 与 Load 相同，但 path 指向的文件不存在时退化为默认配置。
func LoadOptional(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	return Load(path)
}

func build(v *zviper.Config) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return merr.WrapErrParameterInvalidMsg("server.base-url must be an absolute http(s) URL, got %q", c.Server.BaseURL)
	}
	if c.Server.Timeout <= 0 {
		return merr.WrapErrParameterInvalidMsg("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Server.MaxAttempts < minAttempts || c.Server.MaxAttempts > maxAttempts {
		return merr.WrapErrParameterInvalidRange(minAttempts, maxAttempts, c.Server.MaxAttempts, "server.max-attempts")
	}
	if c.History.Limit < 0 {
		return merr.WrapErrParameterInvalidMsg("history.limit must not be negative, got %d", c.History.Limit)
	}
	if _, err := serializer.New(c.History.Serializer); err != nil {
		return err
	}
	if _, err := compressor.New(c.History.Compressor); err != nil {
		return err
	}
	return nil
}
