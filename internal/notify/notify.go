// Package notify 汇报 serde 模型声明错误：写日志、计数，并对重复错误去重。
package notify

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lk2023060901/querydesk-go/pkg/log"
	"github.com/lk2023060901/querydesk-go/pkg/metrics"
	"github.com/lk2023060901/querydesk-go/pkg/serde"
	"github.com/lk2023060901/querydesk-go/pkg/util/typeutil"
)

// LogNotifier 将声明错误输出到日志。
//
// 同一模型属性上的同一错误只记录一次日志，计数器每次都会累加。
type LogNotifier struct {
	seen   *typeutil.ConcurrentSet[string]
	logger *log.MLogger

	mu       sync.Mutex
	handlers []func(*serde.Error)
}

var _ serde.Notifier = (*LogNotifier)(nil)

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{
		seen:   typeutil.NewConcurrentSet[string](),
		logger: log.With(log.FieldComponent("serde")),
	}
}

// OnError 追加一个回调，在每次收到声明错误时调用。
func (n *LogNotifier) OnError(fn func(*serde.Error)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = append(n.handlers, fn)
}

func (n *LogNotifier) NotifyConfigError(err *serde.Error) {
	metrics.SerdeConfigErrors.WithLabelValues(err.Model).Inc()

	if n.seen.Insert(err.Error()) {
		n.logger.Error("serde model declaration error",
			log.FieldModel(err.Model),
			zap.String("property", err.Property),
			zap.String("reason", err.Reason))
	}

	n.mu.Lock()
	handlers := append([]func(*serde.Error){}, n.handlers...)
	n.mu.Unlock()
	for _, fn := range handlers {
		fn(err)
	}
}

// Seen 返回已记录过的错误数量。
func (n *LogNotifier) Seen() int {
	return n.seen.Len()
}

// Install 为 registry 安装一个新的 LogNotifier，registry 为 nil 时使用 serde.Default。
func Install(registry *serde.Registry) *LogNotifier {
	if registry == nil {
		registry = serde.Default
	}
	n := NewLogNotifier()
	registry.SetNotifier(n)
	return n
}
