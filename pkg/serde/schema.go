package serde

import (
	"reflect"

	"github.com/samber/lo"
)

// field 为编译后的字段描述。
type field struct {
	property string
	name     string
	typ      FieldType
	index    []int
	goType   reflect.Type
	required bool
	deps     []string
	skip     SkipMode
	omit     bool

	serialize   SerializeFunc
	deserialize DeserializeFunc
}

// Schema 是某个模型类型注册后的不可变字段集合。
type Schema struct {
	name    string
	typ     reflect.Type
	factory Factory

	fields       []*field
	byProperty   map[string]*field
	byName       map[string]*field
	required     []string
	dependencies map[string][]string

	// order 为拓扑排序后的解码顺序，output 为结构体声明顺序。
	order  []*field
	output []*field
}

// FieldInfo 为字段描述的只读视图。
type FieldInfo struct {
	Property     string
	Name         string
	Type         FieldType
	Required     bool
	Dependencies []string
	Skip         SkipMode
}

func (s *Schema) Name() string {
	return s.name
}

func (s *Schema) Type() reflect.Type {
	return s.typ
}

// New 创建一个新的空实例。
func (s *Schema) New() any {
	return s.factory()
}

func (s *Schema) Factory() Factory {
	return s.factory
}

// Required 返回必填字段的线上名，按声明顺序。
func (s *Schema) Required() []string {
	return append([]string(nil), s.required...)
}

// Dependencies 返回属性到其依赖属性的映射副本。
func (s *Schema) Dependencies() map[string][]string {
	out := make(map[string][]string, len(s.dependencies))
	for k, v := range s.dependencies {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// DecodeOrder 返回解码时的属性顺序。
func (s *Schema) DecodeOrder() []string {
	return lo.Map(s.order, func(f *field, _ int) string { return f.property })
}

func (s *Schema) Fields() []FieldInfo {
	return lo.Map(s.fields, func(f *field, _ int) FieldInfo {
		return FieldInfo{
			Property:     f.property,
			Name:         f.name,
			Type:         f.typ,
			Required:     f.required,
			Dependencies: append([]string(nil), f.deps...),
			Skip:         f.skip,
		}
	})
}
