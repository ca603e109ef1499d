package serializer

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/lk2023060901/querydesk-go/internal/json"
)

// JSONSerializer 使用 internal/json（基于 bytedance/sonic）实现 JSON 编解码。
type JSONSerializer struct{}

// 编译期断言：确保 JSONSerializer 实现了 Serializer 接口。
var _ Serializer = (*JSONSerializer)(nil)

func (JSONSerializer) Name() string {
	return NameJSON
}

func (JSONSerializer) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal 解码到 *any 时保留数字精度。
func (JSONSerializer) Unmarshal(data []byte, v any) error {
	if p, ok := v.(*any); ok {
		out, err := json.UnmarshalAny(data)
		if err != nil {
			return err
		}
		*p = out
		return nil
	}
	return json.Unmarshal(data, v)
}

var jsoniterAPI = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// JSONIterSerializer 使用 json-iterator 实现 JSON 编解码，数字解码为 json.Number。
type JSONIterSerializer struct{}

var _ Serializer = (*JSONIterSerializer)(nil)

func (JSONIterSerializer) Name() string {
	return NameJSONIter
}

func (JSONIterSerializer) Marshal(v any) ([]byte, error) {
	return jsoniterAPI.Marshal(v)
}

func (JSONIterSerializer) Unmarshal(data []byte, v any) error {
	return jsoniterAPI.Unmarshal(data, v)
}
