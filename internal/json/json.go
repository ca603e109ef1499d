// Package json 封装 bytedance/sonic，统一项目内的 JSON 编解码入口。
package json

import (
	stdjson "encoding/json"

	"github.com/bytedance/sonic"
)

// Number 为解码时保留原始数字文本的类型，与 encoding/json 兼容。
type Number = stdjson.Number

var (
	std = sonic.ConfigStd

	// numberAPI 在解码到 any 时保留 Number，避免大整数经 float64 丢失精度。
	numberAPI = sonic.Config{
		EscapeHTML:       true,
		SortMapKeys:      true,
		CompactMarshaler: true,
		CopyString:       true,
		ValidateString:   true,
		UseNumber:        true,
	}.Froze()
)

func Marshal(v any) ([]byte, error) {
	return std.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return std.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return std.Unmarshal(data, v)
}

// UnmarshalAny 将 data 解码为 map[string]any / []any / 标量组成的通用结构，数字保留为 Number。
func UnmarshalAny(data []byte) (any, error) {
	var v any
	if err := numberAPI.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Valid 判断 data 是否为合法 JSON。
func Valid(data []byte) bool {
	return std.Valid(data)
}
