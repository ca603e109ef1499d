package model

import (
	"reflect"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/querydesk-go/internal/json"
	"github.com/lk2023060901/querydesk-go/pkg/serde"
)

// timeField 声明一个 time.Time 属性：线上为 RFC3339 字符串，解码时也接受 Unix 毫秒整数。
func timeField(property, name string, opts ...serde.FieldOption) serde.FieldSpec {
	opts = append([]serde.FieldOption{
		serde.Name(name),
		serde.OmitEmpty(),
		serde.WithDeserializer(decodeTime(property)),
		serde.WithSerializer(encodeTime(name)),
	}, opts...)
	return serde.Field(property, serde.String, opts...)
}

func decodeTime(property string) serde.DeserializeFunc {
	return func(_ any, v any) (string, any, error) {
		switch x := v.(type) {
		case nil:
			return property, nil, nil
		case string:
			t, err := time.Parse(time.RFC3339Nano, x)
			if err != nil {
				return "", nil, errors.Newf("value %q is not an RFC3339 timestamp", x)
			}
			return property, t, nil
		case json.Number:
			ms, err := x.Int64()
			if err != nil {
				return "", nil, errors.Newf("value %q is not a unix millisecond timestamp", x.String())
			}
			return property, time.UnixMilli(ms).UTC(), nil
		}
		rv := reflect.ValueOf(v)
		if rv.CanInt() {
			return property, time.UnixMilli(rv.Int()).UTC(), nil
		}
		if t, ok := v.(time.Time); ok {
			return property, t, nil
		}
		return "", nil, errors.Newf("expected timestamp, got %T", v)
	}
}

func encodeTime(name string) serde.SerializeFunc {
	return func(_ any, v any) (string, any, error) {
		t, ok := v.(time.Time)
		if !ok {
			return "", nil, errors.Newf("expected time.Time, got %T", v)
		}
		return name, t.UTC().Format(time.RFC3339Nano), nil
	}
}
