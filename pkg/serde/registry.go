package serde

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/lk2023060901/querydesk-go/pkg/log"
)

// Notifier 接收模型声明错误（programmer error），用于告警或遥测。
type Notifier interface {
	NotifyConfigError(err *Error)
}

type logNotifier struct{}

func (logNotifier) NotifyConfigError(err *Error) {
	log.Error("serde model declaration error",
		log.FieldModel(err.Model),
		zap.String("property", err.Property),
		zap.Error(err))
}

// Default 为进程级注册表，模型通常在 init 中注册到这里。
var Default = NewRegistry()

// Registry 保存模型类型到 Schema 的映射。
type Registry struct {
	mu       sync.RWMutex
	schemas  map[reflect.Type]*Schema
	byName   map[string]*Schema
	notifier Notifier
}

func NewRegistry() *Registry {
	return &Registry{
		schemas:  make(map[reflect.Type]*Schema),
		byName:   make(map[string]*Schema),
		notifier: logNotifier{},
	}
}

func orDefault(r *Registry) *Registry {
	if r == nil {
		return Default
	}
	return r
}

// SetNotifier 替换声明错误的接收者，n 为 nil 时恢复为日志输出。
func (r *Registry) SetNotifier(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n == nil {
		n = logNotifier{}
	}
	r.notifier = n
}

func (r *Registry) notify(err *Error) *Error {
	r.mu.RLock()
	n := r.notifier
	r.mu.RUnlock()
	n.NotifyConfigError(err)
	return err
}

// Register 为模型 T 注册字段声明，实例由 new(T) 创建。
func Register[T any](r *Registry, fields ...FieldSpec) (*Schema, error) {
	return orDefault(r).RegisterFactory(New[T](), fields...)
}

// MustRegister 与 Register 相同，声明有误时 panic。
func MustRegister[T any](r *Registry, fields ...FieldSpec) *Schema {
	s, err := Register[T](r, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// RegisterFactory 使用自定义 factory 注册模型，factory 必须返回指向结构体的指针。
func (r *Registry) RegisterFactory(factory Factory, fields ...FieldSpec) (*Schema, error) {
	s, err := r.compile(factory, fields)
	if err != nil {
		return nil, r.notify(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schemas[s.typ]; ok {
		return nil, r.notifyLocked(newConfigError(s.name, "", "model already registered"))
	}
	r.schemas[s.typ] = s
	r.byName[strings.ToLower(s.name)] = s
	return s, nil
}

func (r *Registry) notifyLocked(err *Error) *Error {
	r.notifier.NotifyConfigError(err)
	return err
}

// Lookup 按模型名（不区分大小写）查找 Schema。
func (r *Registry) Lookup(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[strings.ToLower(name)]
	return s, ok
}

// Models 返回已注册的模型名，按字母序排列。
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := lo.Map(lo.Values(r.schemas), func(s *Schema, _ int) string { return s.name })
	sort.Strings(names)
	return names
}

// schemaOf 返回类型 t（*T）的 Schema，未注册时返回声明错误并通知。
func (r *Registry) schemaOf(t reflect.Type) (*Schema, *Error) {
	r.mu.RLock()
	s, ok := r.schemas[t]
	r.mu.RUnlock()
	if !ok {
		name := "<nil>"
		if t != nil {
			name = t.String()
		}
		return nil, r.notify(newConfigError(name, "", "model is not registered"))
	}
	return s, nil
}

// compile 校验字段声明并生成 Schema。
func (r *Registry) compile(factory Factory, specs []FieldSpec) (*Schema, *Error) {
	if factory == nil {
		return nil, newConfigError("<nil>", "", "factory must not be nil")
	}
	inst := factory()
	rt := reflect.TypeOf(inst)
	if rt == nil || rt.Kind() != reflect.Pointer || rt.Elem().Kind() != reflect.Struct {
		return nil, newConfigError(typeName(rt), "", "factory must return a pointer to a struct, got %s", typeName(rt))
	}

	s := &Schema{
		name:         rt.Elem().Name(),
		typ:          rt,
		factory:      factory,
		byProperty:   make(map[string]*field, len(specs)),
		byName:       make(map[string]*field, len(specs)),
		dependencies: make(map[string][]string),
	}
	for _, spec := range specs {
		f, err := r.compileField(s, spec)
		if err != nil {
			return nil, err
		}
		if _, ok := s.byProperty[f.property]; ok {
			return nil, newConfigError(s.name, f.property, "property declared twice")
		}
		if other, ok := s.byName[f.name]; ok {
			return nil, newConfigError(s.name, f.property, "wire name %q already used by %s", f.name, other.property)
		}
		s.fields = append(s.fields, f)
		s.byProperty[f.property] = f
		s.byName[f.name] = f
		if f.required {
			s.required = append(s.required, f.name)
		}
		if len(f.deps) > 0 {
			s.dependencies[f.property] = f.deps
		}
	}

	for _, f := range s.fields {
		for _, dep := range f.deps {
			if _, ok := s.byProperty[dep]; !ok {
				return nil, newConfigError(s.name, f.property, "dependency %q is not a declared property", dep)
			}
		}
	}
	order, err := decodeOrder(s)
	if err != nil {
		return nil, err
	}
	s.order = order

	s.output = append([]*field(nil), s.fields...)
	sort.SliceStable(s.output, func(i, j int) bool {
		return lessIndex(s.output[i].index, s.output[j].index)
	})
	return s, nil
}

func (r *Registry) compileField(s *Schema, spec FieldSpec) (*field, *Error) {
	sf, ok := s.typ.Elem().FieldByName(spec.Property)
	if !ok {
		return nil, newConfigError(s.name, spec.Property, "no such struct field")
	}
	if !sf.IsExported() {
		return nil, newConfigError(s.name, spec.Property, "struct field is not exported")
	}

	opts := spec.Options
	c, err := r.newCodec(s.name, spec.Property, spec.Type, opts)
	if err != nil {
		return nil, toError(err)
	}

	f := &field{
		property: spec.Property,
		name:     spec.wireName(),
		typ:      spec.Type,
		index:    sf.Index,
		goType:   sf.Type,
		required: opts.Required,
		deps:     lo.Uniq(opts.Dependencies),
		skip:     opts.Skip,
		omit:     opts.OmitEmpty,
	}
	for _, dep := range f.deps {
		if dep == f.property {
			return nil, newConfigError(s.name, f.property, "field depends on itself")
		}
	}

	if !opts.Skip.skipDeserialize() {
		if opts.Deserializer != nil {
			f.deserialize = opts.Deserializer
		} else {
			if !c.accepts(sf.Type) {
				return nil, newConfigError(s.name, f.property, "%s field cannot hold %s values", sf.Type, spec.Type)
			}
			property := f.property
			f.deserialize = func(_ any, value any) (string, any, error) {
				out, err := c.decode(value)
				return property, out, err
			}
		}
	}
	if !opts.Skip.skipSerialize() {
		if opts.Serializer != nil {
			f.serialize = opts.Serializer
		} else {
			if !c.accepts(sf.Type) {
				return nil, newConfigError(s.name, f.property, "%s field cannot hold %s values", sf.Type, spec.Type)
			}
			name, required := f.name, f.required
			f.serialize = func(_ any, value any) (string, any, error) {
				rv := reflect.ValueOf(value)
				out, err := c.encode(rv)
				if err != nil && !required && rv.IsValid() && rv.IsZero() {
					return name, nil, errAbsent
				}
				return name, out, err
			}
		}
	}
	return f, nil
}

// decodeOrder 按依赖关系拓扑排序：被依赖的字段先解码，其余保持声明顺序；存在环时报错。
func decodeOrder(s *Schema) ([]*field, *Error) {
	placed := make(map[string]bool, len(s.fields))
	order := make([]*field, 0, len(s.fields))
	for len(order) < len(s.fields) {
		progressed := false
		for _, f := range s.fields {
			if placed[f.property] {
				continue
			}
			if lo.EveryBy(f.deps, func(dep string) bool { return placed[dep] }) {
				placed[f.property] = true
				order = append(order, f)
				progressed = true
				break
			}
		}
		if !progressed {
			cycle := lo.FilterMap(s.fields, func(f *field, _ int) (string, bool) {
				return f.property, !placed[f.property]
			})
			return nil, newConfigError(s.name, "", "dependency cycle among [%s]", strings.Join(cycle, ", "))
		}
	}
	return order, nil
}

func lessIndex(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
