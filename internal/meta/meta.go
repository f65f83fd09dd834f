// Package meta is the host-side view of the guest object model.
//
// A Meta is created once per session. It resolves guest types into Klass
// descriptors, looks up Method and Field descriptors by exact signature,
// binds them to guest instances, and converts values across the host/guest
// boundary.
//
// Programming errors (a null handle where an instance is required, a
// static member bound to an instance, a wrong argument count) panic with a
// *Failure, the way package reflect does. Guard converts such a panic into
// an error at an operation boundary. Everything else is reported through
// returned errors; guest exceptions are *vm.GuestException values.
package meta

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/logs"
	"github.com/funvibe/jmeta/internal/typesystem"
	"github.com/funvibe/jmeta/internal/vm"
)

// TypeRegistry resolves type descriptors on behalf of a loader. A nil
// loader is the boot loader.
type TypeRegistry interface {
	Resolve(desc string, loader *vm.Object) (*vm.Klass, error)
}

// ObjectStorage allocates guest objects and arrays and gives typed access to
// their fields. Each field kind has its own accessor pair.
type ObjectStorage interface {
	NewObject(k *vm.Klass) *vm.Object
	NewArray(component *vm.Klass, n int) any
	StoreElement(array any, i int, v any)

	GetFieldBoolean(obj *vm.Object, f *vm.FieldInfo) bool
	GetFieldByte(obj *vm.Object, f *vm.FieldInfo) int8
	GetFieldChar(obj *vm.Object, f *vm.FieldInfo) uint16
	GetFieldShort(obj *vm.Object, f *vm.FieldInfo) int16
	GetFieldInt(obj *vm.Object, f *vm.FieldInfo) int32
	GetFieldFloat(obj *vm.Object, f *vm.FieldInfo) float32
	GetFieldLong(obj *vm.Object, f *vm.FieldInfo) int64
	GetFieldDouble(obj *vm.Object, f *vm.FieldInfo) float64
	GetFieldObject(obj *vm.Object, f *vm.FieldInfo) any

	SetFieldBoolean(obj *vm.Object, f *vm.FieldInfo, v bool)
	SetFieldByte(obj *vm.Object, f *vm.FieldInfo, v int8)
	SetFieldChar(obj *vm.Object, f *vm.FieldInfo, v uint16)
	SetFieldShort(obj *vm.Object, f *vm.FieldInfo, v int16)
	SetFieldInt(obj *vm.Object, f *vm.FieldInfo, v int32)
	SetFieldFloat(obj *vm.Object, f *vm.FieldInfo, v float32)
	SetFieldLong(obj *vm.Object, f *vm.FieldInfo, v int64)
	SetFieldDouble(obj *vm.Object, f *vm.FieldInfo, v float64)
	SetFieldObject(obj *vm.Object, f *vm.FieldInfo, v any)
}

// WellKnown holds the types a session cannot run without. It is filled
// once by New and never changes.
type WellKnown struct {
	Object *Klass
	String *Klass
	Class  *Klass

	Boolean *Klass
	Byte    *Klass
	Char    *Klass
	Short   *Klass
	Float   *Klass
	Int     *Klass
	Double  *Klass
	Long    *Klass

	Throwable          *Klass
	StackOverflowError *Klass
	OutOfMemoryError   *Klass
}

// Meta is the context root of a session.
type Meta struct {
	WellKnown

	registry TypeRegistry
	storage  ObjectStorage
	logger   *slog.Logger
	session  string

	klasses sync.Map // *vm.Klass -> *Klass
}

// Option configures a Meta.
type Option func(*Meta)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Meta) { m.logger = logger }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(m *Meta) { m.session = id }
}

// New creates a Meta and resolves the well-known types through the boot
// loader. A type that cannot be resolved makes the whole session unusable;
// all such failures are reported together in a *BootstrapError.
func New(registry TypeRegistry, storage ObjectStorage, opts ...Option) (*Meta, error) {
	m := &Meta{registry: registry, storage: storage}
	for _, opt := range opts {
		opt(m)
	}
	if m.session == "" {
		m.session = uuid.NewString()
	}
	if m.logger == nil {
		m.logger = logs.Discard()
	}
	m.logger = m.logger.With("session", m.session)

	boot := []struct {
		dst  **Klass
		name string
	}{
		{&m.Object, config.ObjectClassName},
		{&m.String, config.StringClassName},
		{&m.Class, config.ClassClassName},
		{&m.Boolean, "boolean"},
		{&m.Byte, "byte"},
		{&m.Char, "char"},
		{&m.Short, "short"},
		{&m.Float, "float"},
		{&m.Int, "int"},
		{&m.Double, "double"},
		{&m.Long, "long"},
		{&m.Throwable, config.ThrowableClassName},
		{&m.StackOverflowError, config.StackOverflowErrorClassName},
		{&m.OutOfMemoryError, config.OutOfMemoryErrorClassName},
	}
	var failed BootstrapError
	for _, b := range boot {
		raw, err := registry.Resolve(typesystem.ToInternalName(b.name), nil)
		if err != nil {
			failed.Missing = append(failed.Missing, b.name)
			failed.Errs = append(failed.Errs, err)
			continue
		}
		*b.dst = m.KlassOf(raw)
	}
	if len(failed.Missing) > 0 {
		m.logger.Error("bootstrap failed", "missing", failed.Missing)
		return nil, &failed
	}
	m.logger.Debug("well-known types resolved", "count", len(boot))
	return m, nil
}

// SessionID identifies the session in log records.
func (m *Meta) SessionID() string { return m.session }

func (m *Meta) Logger() *slog.Logger { return m.logger }

// KnownKlass resolves a boot library type by Java or internal name
// ("java.lang.String", "java/lang/String", "int[]").
func (m *Meta) KnownKlass(name string) (*Klass, error) {
	k, err := m.LoadKlass(name, nil)
	if err != nil {
		return nil, err
	}
	contract(k.raw.Loader() == nil, "%s is not a boot library type", name)
	return k, nil
}

// LoadKlass resolves a type on behalf of loader.
func (m *Meta) LoadKlass(name string, loader *vm.Object) (*Klass, error) {
	raw, err := m.registry.Resolve(typesystem.ToInternalName(name), loader)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return m.KlassOf(raw), nil
}

// ThrowableKlass resolves a boot library exception type.
func (m *Meta) ThrowableKlass(name string) (*Klass, error) {
	k, err := m.KnownKlass(name)
	if err != nil {
		return nil, err
	}
	contract(!k.IsPrimitive() && m.Throwable.IsAssignableFrom(k), "%s is not a throwable", name)
	return k, nil
}

// KlassOf wraps a resolved type. Wrappers are cached, so the same raw type
// always yields the same *Klass.
func (m *Meta) KlassOf(raw *vm.Klass) *Klass {
	if raw == nil {
		return nil
	}
	if k, ok := m.klasses.Load(raw); ok {
		return k.(*Klass)
	}
	k, _ := m.klasses.LoadOrStore(raw, &Klass{meta: m, raw: raw})
	return k.(*Klass)
}

// MethodOf wraps a resolved method.
func (m *Meta) MethodOf(raw *vm.MethodInfo) *Method {
	if raw == nil {
		return nil
	}
	return &Method{meta: m, raw: raw}
}

// FieldOf wraps a resolved field.
func (m *Meta) FieldOf(raw *vm.FieldInfo) *Field {
	if raw == nil {
		return nil
	}
	return &Field{meta: m, raw: raw}
}

// Instance binds a guest handle to the descriptor of its own type.
func (m *Meta) Instance(obj *vm.Object) *KlassInstance {
	return m.TypeOf(obj).WithInstance(obj)
}

// TypeOf returns the type of a guest value: an object handle or a host
// slice standing for a primitive array. Any other shape is a failure.
func (m *Meta) TypeOf(v any) *Klass {
	switch v := v.(type) {
	case *vm.Object:
		contract(v != nil && v != vm.Null && v != vm.Void, "no type for %v", v)
		return m.KlassOf(v.Klass())
	case []bool:
		return m.Boolean.Array()
	case []int8:
		return m.Byte.Array()
	case []int16:
		return m.Short.Array()
	case []uint16:
		return m.Char.Array()
	case []int32:
		return m.Int.Array()
	case []float32:
		return m.Float.Array()
	case []int64:
		return m.Long.Array()
	case []float64:
		return m.Double.Array()
	}
	shouldNotReachHere("%s is not a guest value", describe(v))
	return nil
}
