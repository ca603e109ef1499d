package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lk2023060901/querydesk-go/internal/json"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

func sample() map[string]any {
	return map[string]any{
		"id":     "q1",
		"rows":   int64(42),
		"ok":     true,
		"tags":   []any{"a", "b"},
		"params": map[string]any{"ratio": 0.5, "n": json.Number("7")},
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", NameJSON, NameJSONIter, NameProto} {
		s, err := New(name)
		require.NoError(t, err)
		if name != "" {
			assert.Equal(t, name, s.Name())
		}
	}
	_, err := New("xml")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestJSONSerializers(t *testing.T) {
	for _, s := range []Serializer{JSONSerializer{}, JSONIterSerializer{}} {
		t.Run(s.Name(), func(t *testing.T) {
			data, err := s.Marshal(sample())
			require.NoError(t, err)

			var out any
			require.NoError(t, s.Unmarshal(data, &out))
			obj := out.(map[string]any)
			assert.Equal(t, json.Number("42"), obj["rows"])
			assert.Equal(t, []any{"a", "b"}, obj["tags"])
			assert.Equal(t, true, obj["ok"])
		})
	}
}

func TestProtoSerializer(t *testing.T) {
	s := ProtoSerializer{}
	data, err := s.Marshal(sample())
	require.NoError(t, err)

	var out any
	require.NoError(t, s.Unmarshal(data, &out))
	obj := out.(map[string]any)
	assert.Equal(t, float64(42), obj["rows"])
	assert.Equal(t, map[string]any{"ratio": 0.5, "n": float64(7)}, obj["params"])

	msg, err := structpb.NewStruct(map[string]any{"a": "b"})
	require.NoError(t, err)
	data, err = s.Marshal(msg)
	require.NoError(t, err)
	decoded := &structpb.Struct{}
	require.NoError(t, s.Unmarshal(data, decoded))
	assert.Equal(t, "b", decoded.Fields["a"].GetStringValue())

	var wrong string
	assert.Error(t, s.Unmarshal(data, &wrong))
	_, err = s.Marshal(make(chan int))
	assert.Error(t, err)
}
