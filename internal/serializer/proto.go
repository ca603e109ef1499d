package serializer

import (
	"fmt"
	"reflect"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lk2023060901/querydesk-go/internal/json"
)

// ProtoSerializer 使用 Protobuf 进行二进制序列化。
//
// proto.Message 按原样编解码；其余通用结构经 structpb.Value 表示，
// 此时数字统一为 float64，解码目标必须是 *any。
type ProtoSerializer struct{}

// 编译期断言：确保 ProtoSerializer 实现了 Serializer 接口。
var _ Serializer = (*ProtoSerializer)(nil)

func (ProtoSerializer) Name() string {
	return NameProto
}

func (ProtoSerializer) Marshal(v any) ([]byte, error) {
	if msg, ok := v.(proto.Message); ok {
		return proto.Marshal(msg)
	}
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}
	value, err := structpb.NewValue(normalized)
	if err != nil {
		return nil, fmt.Errorf("serializer: ProtoSerializer cannot encode %T: %w", v, err)
	}
	return proto.Marshal(value)
}

func (ProtoSerializer) Unmarshal(data []byte, v any) error {
	switch target := v.(type) {
	case proto.Message:
		return proto.Unmarshal(data, target)
	case *any:
		value := &structpb.Value{}
		if err := proto.Unmarshal(data, value); err != nil {
			return err
		}
		*target = value.AsInterface()
		return nil
	}
	return fmt.Errorf("serializer: ProtoSerializer requires proto.Message or *any, got %T", v)
}

// normalize 将 structpb 不支持的值（json.Number、具名类型、类型化切片与 map）转换为基础类型。
func normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, float64, int64:
		return x, nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		return x.Float64()
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			n, err := normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			n, err := normalize(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = n
		}
		return out, nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return normalize(rv.Elem().Interface())
	}
	return nil, fmt.Errorf("serializer: ProtoSerializer cannot encode %T", v)
}
