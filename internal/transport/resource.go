package transport

import (
	"net/http"

	"github.com/lk2023060901/querydesk-go/pkg/serde"
)

// Resource 包装一次响应（或一条推送消息）的通用 JSON 值，按需反序列化为模型。
//
// Resource 只读，可被多个调用方共享。
type Resource struct {
	status int
	header http.Header
	path   string
	body   any
	reg    *serde.Registry
}

func newResource(reg *serde.Registry, path string, status int, header http.Header, body any) *Resource {
	return &Resource{status: status, header: header, path: path, body: body, reg: reg}
}

func (r *Resource) Status() int {
	return r.status
}

func (r *Resource) Header() http.Header {
	return r.header
}

// Raw 返回解码后的通用 JSON 值，204 等空响应返回 nil。
func (r *Resource) Raw() any {
	return r.body
}

// As 将对象响应反序列化为 factory 创建的模型实例。
func (r *Resource) As(factory serde.Factory) (any, error) {
	if _, ok := r.body.(map[string]any); !ok {
		return nil, newShapeError(r.path, "object", r.body)
	}
	return r.reg.Deserialize(r.body, factory, r.path)
}

// AsArray 将数组响应反序列化为模型实例切片，保持元素顺序。
func (r *Resource) AsArray(factory serde.Factory) ([]any, error) {
	if _, ok := r.body.([]any); !ok {
		return nil, newShapeError(r.path, "array", r.body)
	}
	out, err := r.reg.Deserialize(r.body, factory, r.path)
	if err != nil {
		return nil, err
	}
	return out.([]any), nil
}

func newShapeError(path, want string, body any) error {
	got := "null"
	switch body.(type) {
	case map[string]any:
		got = "object"
	case []any:
		got = "array"
	case nil:
	default:
		got = "scalar"
	}
	return serde.NewValidationError("expected %s response, got %s", want, got).AddContext(path)
}

// As 将 Resource 反序列化为 *T。
func As[T any](r *Resource) (*T, error) {
	return serde.Decode[T](r.reg, r.body, r.path)
}

// AsArray 将 Resource 反序列化为 []*T。
func AsArray[T any](r *Resource) ([]*T, error) {
	return serde.DecodeSlice[T](r.reg, r.body, r.path)
}
