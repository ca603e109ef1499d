package application

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/querydesk-go/internal/compressor"
	"github.com/lk2023060901/querydesk-go/internal/config"
	"github.com/lk2023060901/querydesk-go/internal/crypto"
	"github.com/lk2023060901/querydesk-go/internal/history"
	"github.com/lk2023060901/querydesk-go/internal/notify"
	"github.com/lk2023060901/querydesk-go/internal/serializer"
	"github.com/lk2023060901/querydesk-go/internal/transport"
	zlog "github.com/lk2023060901/querydesk-go/pkg/log"
	"github.com/lk2023060901/querydesk-go/pkg/metrics"
	"github.com/lk2023060901/querydesk-go/pkg/serde"
)

const (
	// DefaultConfigPath 为默认配置文件路径，文件不存在时使用内置默认值。
	DefaultConfigPath = "./querydesk.yaml"
	// ConfigPathEnv 覆盖默认配置文件路径。
	ConfigPathEnv = "QUERYDESK_CONFIG_FILE_PATH"
)

// Application 为 querydesk 进程的运行时容器，持有配置与公共依赖。
type Application struct {
	cfg      *config.Config
	loggers  map[string]*zlog.MLogger
	notifier *notify.LogNotifier

	clientOnce sync.Once
	client     *transport.Client
	clientErr  error

	historyOnce sync.Once
	history     *history.Cache
	historyErr  error
}

func New() *Application {
	return &Application{}
}

// ResolveConfigPath 按以下优先级确定配置文件路径：
//  1. 默认值 ./querydesk.yaml（不存在时忽略）
//  2. 环境变量 QUERYDESK_CONFIG_FILE_PATH
//  3. 命令行 --config <path>
func ResolveConfigPath(flag string) (path string, explicit bool) {
	if flag != "" {
		return flag, true
	}
	if env := strings.TrimSpace(os.Getenv(ConfigPathEnv)); env != "" {
		return env, true
	}
	return DefaultConfigPath, false
}

// Run 加载配置并初始化日志、指标与模型声明错误的通知。
func (a *Application) Run(configFlag string) error {
	path, explicit := ResolveConfigPath(configFlag)
	var (
		cfg *config.Config
		err error
	)
	if explicit {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOptional(path)
	}
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}
	metrics.Register(metrics.GetRegisterer())
	a.notifier = notify.Install(serde.Default)
	return nil
}

// Config 返回已加载的配置，Run 之前为 nil。
func (a *Application) Config() *config.Config {
	return a.cfg
}

// Notifier 返回安装在 serde.Default 上的声明错误通知器。
func (a *Application) Notifier() *notify.LogNotifier {
	return a.notifier
}

// Logger 返回配置中声明的具名日志器，未知名称回退到全局日志器。
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return &zlog.MLogger{Logger: zlog.L()}
}

// Client 按配置惰性构造后端客户端。
func (a *Application) Client() (*transport.Client, error) {
	a.clientOnce.Do(func() {
		if a.cfg == nil {
			a.clientErr = errors.New("application is not running")
			return
		}
		sc := a.cfg.Server
		opts := []transport.Option{
			transport.WithTimeout(sc.Timeout),
			transport.WithRetry(sc.MaxAttempts, sc.RetrySleep),
			transport.WithMinVersion(sc.MinVersion),
		}
		if sc.Token != "" {
			opts = append(opts, transport.WithHeader("Authorization", "Bearer "+sc.Token))
		}
		a.client, a.clientErr = transport.NewClient(sc.BaseURL, opts...)
		if a.clientErr == nil {
			a.client.SetLogger(a.Logger("transport"))
		}
	})
	return a.client, a.clientErr
}

// History 按配置惰性打开本地查询历史并加载已有记录。
func (a *Application) History(ctx context.Context) (*history.Cache, error) {
	a.historyOnce.Do(func() {
		if a.cfg == nil {
			a.historyErr = errors.New("application is not running")
			return
		}
		hc := a.cfg.History
		ser, err := serializer.New(hc.Serializer)
		if err != nil {
			a.historyErr = err
			return
		}
		comp, err := compressor.New(hc.Compressor)
		if err != nil {
			a.historyErr = err
			return
		}
		enc, err := crypto.New(hc.EncryptionKey)
		if err != nil {
			a.historyErr = err
			return
		}
		store, err := history.NewStore(history.StoreOptions{
			BasePath:     hc.Path,
			CacheSizeMax: hc.CacheSize,
			Serializer:   ser,
			Compressor:   comp,
			Encryptor:    enc,
			Workers:      hc.Workers,
		})
		if err != nil {
			a.historyErr = err
			return
		}
		cache := history.NewCache(store, hc.Limit)
		cache.SetLogger(a.Logger("history"))
		if err := cache.Load(ctx); err != nil {
			a.historyErr = err
			return
		}
		a.history = cache
	})
	return a.history, a.historyErr
}

// initLogging 初始化全局日志器与模块日志器。
//
// 全局日志器取自配置的 log 段，环境变量 QUERYDESK_LOG_LEVEL、QUERYDESK_LOG_FORMAT、
// QUERYDESK_LOG_STDOUT 等可覆盖对应字段。
func (a *Application) initLogging() error {
	lc := a.cfg.Log
	logger, props, err := zlog.InitLogger(&lc)
	if err != nil {
		return errors.Wrap(err, "init global logger")
	}
	zlog.ReplaceGlobals(logger, props)
	zlog.SetRateLimit(lc.RateLimit)

	if len(a.cfg.Logging) == 0 {
		return nil
	}
	a.loggers = make(map[string]*zlog.MLogger, len(a.cfg.Logging))
	for name, mc := range a.cfg.Logging {
		cfgCopy := mc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return errors.Wrapf(err, "init module logger %q", name)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger.With(zap.String(zlog.FieldNameModule, name))}
	}
	return nil
}

// Close 刷新日志缓冲。
func (a *Application) Close() error {
	return zlog.Sync()
}
