package transport

import (
	"fmt"
	"net/http"

	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

// Stage 表示请求或订阅链路中的处理阶段，用于在回调与日志中标记错误发生的位置。
type Stage string

const (
	StageDial     Stage = "dial"     // 建立 WebSocket 连接
	StageRecvRaw  Stage = "recv_raw" // 读取底层帧
	StageDecode   Stage = "decode"   // 字节 -> 通用 JSON 值
	StageDispatch Stage = "dispatch" // 投递给订阅方
	StageEncode   Stage = "encode"   // 模型 -> 字节
	StageSend     Stage = "send"     // 写出帧
)

// APIError 表示后端返回的 4xx 响应，不会被重试。
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Body       any
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// Unwrap 使 errors.Is(err, merr.ErrTransportStatus) 与 merr.Code 生效。
func (e *APIError) Unwrap() error {
	return merr.ErrTransportStatus
}

func newAPIError(method, path string, status int, body any) *APIError {
	e := &APIError{Method: method, Path: path, StatusCode: status, Body: body}
	switch v := body.(type) {
	case string:
		e.Message = v
	case map[string]any:
		for _, key := range []string{"message", "error"} {
			if msg, ok := v[key].(string); ok && msg != "" {
				e.Message = msg
				break
			}
		}
	}
	return e
}
