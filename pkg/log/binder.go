package log

import "go.uber.org/atomic"

// Binder 嵌入到组件中，为组件提供可替换的 Logger。
//
// 未绑定时 Logger 返回全局 Logger，因此零值可直接使用。
type Binder struct {
	logger atomic.Pointer[MLogger]
}

func (b *Binder) SetLogger(logger *MLogger) {
	b.logger.Store(logger)
}

func (b *Binder) Logger() *MLogger {
	if l := b.logger.Load(); l != nil {
		return l
	}
	return With()
}
