package transport

import (
	"net/http"
	"time"

	"github.com/lk2023060901/querydesk-go/pkg/serde"
)

type clientOption struct {
	httpClient *http.Client
	registry   *serde.Registry
	header     http.Header
	timeout    time.Duration
	attempts   uint
	sleep      time.Duration
	minVersion string
	stream     StreamConfig
}

func defaultClientOption() *clientOption {
	return &clientOption{
		registry: serde.Default,
		header:   http.Header{},
		timeout:  30 * time.Second,
		attempts: 3,
		sleep:    200 * time.Millisecond,
		stream:   defaultStreamConfig(),
	}
}

// Option 为 Client 的可选配置。
type Option func(*clientOption)

func WithHTTPClient(c *http.Client) Option {
	return func(opt *clientOption) {
		opt.httpClient = c
	}
}

// WithRegistry 指定模型注册表，默认使用 serde.Default。
func WithRegistry(r *serde.Registry) Option {
	return func(opt *clientOption) {
		opt.registry = r
	}
}

func WithHeader(key, value string) Option {
	return func(opt *clientOption) {
		opt.header.Add(key, value)
	}
}

// WithTimeout 设置单次请求超时，重试会重新计时。
func WithTimeout(d time.Duration) Option {
	return func(opt *clientOption) {
		opt.timeout = d
	}
}

// WithRetry 设置最大尝试次数与初始退避间隔。
func WithRetry(attempts uint, sleep time.Duration) Option {
	return func(opt *clientOption) {
		opt.attempts = attempts
		opt.sleep = sleep
	}
}

// WithMinVersion 设置 CheckServerVersion 要求的最低后端版本。
func WithMinVersion(v string) Option {
	return func(opt *clientOption) {
		opt.minVersion = v
	}
}

func WithStreamConfig(cfg StreamConfig) Option {
	return func(opt *clientOption) {
		opt.stream = cfg
	}
}
