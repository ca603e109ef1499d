package serde

import (
	"regexp"
)

// FieldType 为字段的类型标签，决定默认生成的编解码函数。
type FieldType string

const (
	String     FieldType = "string"
	Boolean    FieldType = "boolean"
	Integer    FieldType = "integer"
	Float      FieldType = "float"
	Object     FieldType = "object"
	Array      FieldType = "array"
	Identifier FieldType = "identifier"
	Any        FieldType = "any"
)

func (t FieldType) valid() bool {
	switch t {
	case String, Boolean, Integer, Float, Object, Array, Identifier, Any:
		return true
	}
	return false
}

// SkipMode 控制是否为字段生成序列化或反序列化函数。
type SkipMode int

const (
	SkipNone SkipMode = iota
	SkipSerialize
	SkipDeserialize
	SkipBoth
)

func (m SkipMode) skipSerialize() bool {
	return m == SkipSerialize || m == SkipBoth
}

func (m SkipMode) skipDeserialize() bool {
	return m == SkipDeserialize || m == SkipBoth
}

// Factory 创建一个新的、空的模型实例（指向结构体的指针）。
type Factory func() any

// New 返回构造 *T 的 Factory。
func New[T any]() Factory {
	return func() any { return new(T) }
}

// DeserializeFunc 将线上值转换为模型属性值。
//
// target 为正在填充的模型实例，声明了 DependsOn 的字段可以从 target 上读取已解码的兄弟字段。
// 返回值中的 property 为要写入的结构体字段名。
type DeserializeFunc func(target any, value any) (property string, out any, err error)

// SerializeFunc 将模型属性值转换为线上值，返回线上字段名与 JSON 兼容的值。
type SerializeFunc func(source any, value any) (name string, out any, err error)

// ItemSpec 描述数组元素的类型与选项。
type ItemSpec struct {
	Type    FieldType
	Options FieldOptions
}

// FieldOptions 为字段选项集合，通过 FieldOption 填充。
type FieldOptions struct {
	Name         string
	Required     bool
	Dependencies []string
	Skip         SkipMode
	OmitEmpty    bool
	Serializer   SerializeFunc
	Deserializer DeserializeFunc
	Factory      Factory
	Items        *ItemSpec

	Format    string
	Trim      bool
	MinLength *int
	MaxLength *int
	Min       *float64
	Max       *float64
	Enum      []string

	pattern *regexp.Regexp
	check   FormatFunc
}

type FieldOption func(*FieldOptions)

// Name 覆盖线上字段名，默认与属性名相同。
func Name(name string) FieldOption {
	return func(o *FieldOptions) {
		o.Name = name
	}
}

// Required 标记字段为必填：输入中缺失或为 null 时反序列化失败。
func Required() FieldOption {
	return func(o *FieldOptions) {
		o.Required = true
	}
}

// DependsOn 声明自定义反序列化函数会读取的兄弟属性，这些属性将先于本字段解码。
func DependsOn(properties ...string) FieldOption {
	return func(o *FieldOptions) {
		o.Dependencies = append(o.Dependencies, properties...)
	}
}

func Skip(mode SkipMode) FieldOption {
	return func(o *FieldOptions) {
		o.Skip = mode
	}
}

// OmitEmpty 序列化时跳过零值（空字符串、0、false 等），nil 值总是被跳过。
func OmitEmpty() FieldOption {
	return func(o *FieldOptions) {
		o.OmitEmpty = true
	}
}

func WithSerializer(fn SerializeFunc) FieldOption {
	return func(o *FieldOptions) {
		o.Serializer = fn
	}
}

func WithDeserializer(fn DeserializeFunc) FieldOption {
	return func(o *FieldOptions) {
		o.Deserializer = fn
	}
}

// WithFactory 指定 object 字段（或 object 数组元素）的构造函数。
func WithFactory(factory Factory) FieldOption {
	return func(o *FieldOptions) {
		o.Factory = factory
	}
}

// Items 描述 array 字段的元素类型。
func Items(typ FieldType, opts ...FieldOption) FieldOption {
	return func(o *FieldOptions) {
		o.Items = &ItemSpec{Type: typ, Options: applyOptions(opts)}
	}
}

// Format 指定字符串格式：已注册的格式名，或正则表达式。
func Format(format string) FieldOption {
	return func(o *FieldOptions) {
		o.Format = format
	}
}

func Trim() FieldOption {
	return func(o *FieldOptions) {
		o.Trim = true
	}
}

func MinLength(n int) FieldOption {
	return func(o *FieldOptions) {
		o.MinLength = &n
	}
}

func MaxLength(n int) FieldOption {
	return func(o *FieldOptions) {
		o.MaxLength = &n
	}
}

func Min(n float64) FieldOption {
	return func(o *FieldOptions) {
		o.Min = &n
	}
}

func Max(n float64) FieldOption {
	return func(o *FieldOptions) {
		o.Max = &n
	}
}

// OneOf 限定字符串取值范围。
func OneOf(values ...string) FieldOption {
	return func(o *FieldOptions) {
		o.Enum = append(o.Enum, values...)
	}
}

func applyOptions(opts []FieldOption) FieldOptions {
	var o FieldOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FieldSpec 为注册前的字段声明。
type FieldSpec struct {
	Property string
	Type     FieldType
	Options  FieldOptions
}

// Field 声明结构体属性 property 的类型与选项。
func Field(property string, typ FieldType, opts ...FieldOption) FieldSpec {
	return FieldSpec{
		Property: property,
		Type:     typ,
		Options:  applyOptions(opts),
	}
}

func (s FieldSpec) wireName() string {
	if s.Options.Name != "" {
		return s.Options.Name
	}
	return s.Property
}
