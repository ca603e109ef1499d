package serde

import (
	"reflect"

	"github.com/lk2023060901/querydesk-go/internal/json"
	"github.com/lk2023060901/querydesk-go/pkg/metrics"
)

// Deserialize 将通用 JSON 值解码为模型实例。
//
// input 为数组时逐个元素解码并保持顺序，返回 []any；为对象时返回 factory 创建的单个实例。
// name 非空时作为错误路径最外层的一段。
func (r *Registry) Deserialize(input any, factory Factory, name string) (any, error) {
	if factory == nil {
		return nil, r.notify(newConfigError("<nil>", "", "factory must not be nil")).AddContext(name)
	}
	model := typeName(reflect.TypeOf(factory()))
	out, err := r.deserialize(input, factory)
	observe(metrics.DecodeLabel, model, err)
	if err != nil {
		return nil, toError(err).AddContext(name)
	}
	return out, nil
}

func (r *Registry) deserialize(input any, factory Factory) (any, error) {
	switch v := input.(type) {
	case []any:
		out := make([]any, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, newValidationError("expected object, got %s", jsonKind(item)).AddIndex(i)
			}
			inst, err := r.decodeNew(obj, factory)
			if err != nil {
				return nil, withIndex(err, i)
			}
			out = append(out, inst)
		}
		return out, nil
	case map[string]any:
		return r.decodeNew(v, factory)
	}
	return nil, newValidationError("expected object or array, got %s", jsonKind(input))
}

// decodeNew 用 factory 创建实例并按 Schema 填充。
func (r *Registry) decodeNew(obj map[string]any, factory Factory) (any, error) {
	target := factory()
	s, cerr := r.schemaOf(reflect.TypeOf(target))
	if cerr != nil {
		return nil, cerr
	}
	if err := r.decodeInto(s, obj, target); err != nil {
		return nil, err
	}
	return target, nil
}

func (r *Registry) decodeInto(s *Schema, obj map[string]any, target any) error {
	for _, name := range s.required {
		if v, ok := obj[name]; !ok || v == nil {
			return newValidationError("missing required field %q", name)
		}
	}

	tv := reflect.ValueOf(target).Elem()
	for _, f := range s.order {
		if f.deserialize == nil {
			continue
		}
		raw, ok := obj[f.name]
		if !ok {
			continue
		}
		property, value, err := f.deserialize(target, raw)
		if err != nil {
			return withContext(err, f.name)
		}
		dst, ok := s.byProperty[property]
		if !ok {
			return r.notify(newConfigError(s.name, f.property, "deserializer returned undeclared property %q", property)).AddContext(f.name)
		}
		if err := assign(tv.FieldByIndex(dst.index), value); err != nil {
			return newValidationError("%v", err).AddContext(f.name)
		}
	}
	return nil
}

// Decode 将 input 解码为 *T，r 为 nil 时使用 Default。
func Decode[T any](r *Registry, input any, name string) (*T, error) {
	r = orDefault(r)
	s, cerr := r.schemaOf(reflect.TypeOf((*T)(nil)))
	if cerr != nil {
		return nil, cerr.AddContext(name)
	}
	obj, ok := input.(map[string]any)
	if !ok {
		err := newValidationError("expected object, got %s", jsonKind(input)).AddContext(name)
		observe(metrics.DecodeLabel, s.typ.String(), err)
		return nil, err
	}
	out, err := r.Deserialize(obj, s.factory, name)
	if err != nil {
		return nil, err
	}
	return out.(*T), nil
}

// DecodeSlice 将数组 input 逐个解码为 []*T，保持元素顺序。
func DecodeSlice[T any](r *Registry, input any, name string) ([]*T, error) {
	r = orDefault(r)
	s, cerr := r.schemaOf(reflect.TypeOf((*T)(nil)))
	if cerr != nil {
		return nil, cerr.AddContext(name)
	}
	items, ok := input.([]any)
	if !ok {
		err := newValidationError("expected array, got %s", jsonKind(input)).AddContext(name)
		observe(metrics.DecodeLabel, s.typ.String(), err)
		return nil, err
	}
	out, err := r.Deserialize(items, s.factory, name)
	if err != nil {
		return nil, err
	}
	insts := out.([]any)
	result := make([]*T, len(insts))
	for i, inst := range insts {
		result[i] = inst.(*T)
	}
	return result, nil
}

// Unmarshal 解析 JSON 字节并解码为 *T，数字以 json.Number 保留精度。
func Unmarshal[T any](r *Registry, data []byte, name string) (*T, error) {
	v, err := json.UnmarshalAny(data)
	if err != nil {
		return nil, newValidationError("malformed JSON: %v", err).AddContext(name)
	}
	return Decode[T](r, v, name)
}

func UnmarshalSlice[T any](r *Registry, data []byte, name string) ([]*T, error) {
	v, err := json.UnmarshalAny(data)
	if err != nil {
		return nil, newValidationError("malformed JSON: %v", err).AddContext(name)
	}
	return DecodeSlice[T](r, v, name)
}
