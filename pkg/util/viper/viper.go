package viper

import (
	"path/filepath"
	"strings"

	spfviper "github.com/spf13/viper"
)

// Config 封装 spf13/viper 实例，对外提供精简的 YAML/JSON 配置加载接口。
type Config struct {
	v *spfviper.Viper
}

// New 创建一个空的 Config。
// envPrefix 非空时启用环境变量覆盖，例如 QUERYDESK_SERVER_BASE_URL 覆盖 server.base-url。
func New(envPrefix string) *Config {
	v := spfviper.New()
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()
	}
	return &Config{v: v}
}

// SetDefault 为 key 设置缺省值，优先级最低。
func (c *Config) SetDefault(key string, value any) {
	c.v.SetDefault(key, value)
}

// LoadFile 将 YAML 或 JSON 配置文件加载到 Config 中。
// 文件类型通过扩展名（.yaml/.yml/.json）推断。
func (c *Config) LoadFile(path string) error {
	c.v.SetConfigFile(path)

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		c.v.SetConfigType("yaml")
	case ".json":
		c.v.SetConfigType("json")
	default:
		// 让 viper 自行推断类型，或在读取时返回清晰的错误信息。
	}

	return c.v.ReadInConfig()
}

// IsSet 判断 key 是否在任一来源（文件、环境变量、缺省值）中出现。
func (c *Config) IsSet(key string) bool {
	return c.v.IsSet(key)
}

// GetString 返回 key 对应的字符串值。
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// Unmarshal 将完整配置反序列化到 dst。
// dst 应为结构体或 map 的指针。
func (c *Config) Unmarshal(dst interface{}) error {
	return c.v.Unmarshal(dst)
}

// UnmarshalKey 将指定 key 对应的子配置反序列化到 dst。
// dst 应为结构体或 map 的指针。
func (c *Config) UnmarshalKey(key string, dst interface{}) error {
	return c.v.UnmarshalKey(key, dst)
}
