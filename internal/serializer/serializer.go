package serializer

import (
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

// Serializer 抽象了“通用值 <-> 字节流”的序列化能力。
//
// 输入通常是 serde.Serialize 的输出（map[string]any / []any / 标量），
// 解码目标为 *any 时得到同样形态的通用结构，可直接交给 serde 反序列化。
type Serializer interface {
	// Name 返回编码名称，用于配置与存储元数据。
	Name() string

	// Marshal 将任意对象编码为字节序列。
	Marshal(v any) ([]byte, error)

	// Unmarshal 将字节序列解码到目标对象。
	//
	// v 通常为指针类型，用于接收解码结果。
	Unmarshal(data []byte, v any) error
}

const (
	NameJSON     = "json"
	NameJSONIter = "jsoniter"
	NameProto    = "proto"
)

// New 按名称创建 Serializer，名称为空时使用 JSON。
func New(name string) (Serializer, error) {
	switch name {
	case "", NameJSON:
		return JSONSerializer{}, nil
	case NameJSONIter:
		return JSONIterSerializer{}, nil
	case NameProto:
		return ProtoSerializer{}, nil
	}
	return nil, merr.WrapErrParameterInvalidMsg("unknown serializer %q", name)
}
