package vm

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"unicode/utf16"

	"github.com/funvibe/jmeta/internal/classdef"
	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/logs"
)

//go:embed boot.yaml
var bootLibrary []byte

// Runtime bundles the registry, the heap and the native method table.
type Runtime struct {
	Registry *Registry
	Heap     *Heap

	logger  *slog.Logger
	mu      sync.RWMutex
	natives map[string]NativeFunc
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used by the runtime and its registry.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) { rt.logger = logger }
}

// NewRuntime creates a runtime with the boot class library defined.
func NewRuntime(opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		Heap:    NewHeap(),
		natives: make(map[string]NativeFunc),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.logger == nil {
		rt.logger = logs.Discard()
	}
	rt.Registry = NewRegistry(rt.link, rt.logger)

	maps.Copy(rt.natives, bootNatives)
	defs, err := classdef.Parse(bootLibrary)
	if err != nil {
		return nil, fmt.Errorf("boot library: %w", err)
	}
	if _, err := rt.Registry.DefineAll(nil, defs); err != nil {
		return nil, fmt.Errorf("boot library: %w", err)
	}
	rt.logger.Debug("boot library loaded", "classes", len(defs))
	return rt, nil
}

func (rt *Runtime) link(m *MethodInfo) CallTarget {
	return &nativeTarget{rt: rt, method: m}
}

func (rt *Runtime) native(key string) NativeFunc {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.natives[key]
}

// RegisterNative binds a host implementation to a native key. Rebinding a
// key replaces the previous implementation.
func (rt *Runtime) RegisterNative(key string, fn NativeFunc) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.natives[key] = fn
}

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *slog.Logger { return rt.logger }

// NewLoader creates a fresh loader token with its own namespace.
func (rt *Runtime) NewLoader() (*Object, error) {
	k, err := rt.Registry.Lookup(config.ClassLoaderClassName, nil)
	if err != nil {
		return nil, err
	}
	return rt.Heap.NewObject(k), nil
}

// LoadClasses defines user classes into the namespace of loader.
func (rt *Runtime) LoadClasses(loader *Object, defs []classdef.Class) ([]*Klass, error) {
	return rt.Registry.DefineAll(loader, defs)
}

// LoadDir defines every class file found in dir.
func (rt *Runtime) LoadDir(loader *Object, dir string) ([]*Klass, error) {
	defs, err := classdef.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	klasses, err := rt.LoadClasses(loader, defs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	rt.logger.Info("classpath loaded", "dir", dir, "classes", len(klasses))
	return klasses, nil
}

// LoadCatalog defines every class stored in a catalog.
func (rt *Runtime) LoadCatalog(ctx context.Context, loader *Object, cat *classdef.Catalog) ([]*Klass, error) {
	defs, err := cat.Load(ctx)
	if err != nil {
		return nil, err
	}
	klasses, err := rt.LoadClasses(loader, defs)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	rt.logger.Info("catalog loaded", "classes", len(klasses))
	return klasses, nil
}

// Throw builds a throwable of the named boot class with msg as its detail
// message and returns it as an error. An empty msg leaves the message null.
func (rt *Runtime) Throw(className, msg string) error {
	k, err := rt.Registry.Lookup(className, nil)
	if err != nil {
		return fmt.Errorf("throw %s: %w", className, err)
	}
	if !k.isThrowable() {
		return fmt.Errorf("throw %s: not a throwable", className)
	}
	ex := rt.Heap.NewObject(k)
	if msg != "" {
		f := k.LookupField(config.ThrowableMessageField)
		rt.Heap.SetFieldObject(ex, f, rt.NewString(msg))
	}
	return &GuestException{Exception: ex}
}

// NewGuestString allocates a String whose value is a copy of units. The
// hash field is left to be computed on first use.
func (rt *Runtime) NewGuestString(units []uint16) *Object {
	k, err := rt.Registry.Lookup(config.StringClassName, nil)
	if err != nil {
		panic(fmt.Sprintf("vm: %v", err))
	}
	s := rt.Heap.NewObject(k)
	value := make([]uint16, len(units))
	copy(value, units)
	rt.Heap.SetFieldObject(s, k.LookupField(config.StringValueField), value)
	return s
}

// NewString allocates a String holding the UTF-16 encoding of s.
func (rt *Runtime) NewString(s string) *Object {
	return rt.NewGuestString(utf16.Encode([]rune(s)))
}

// StringUnits returns the backing array of a guest String. The slice is
// shared with the heap.
func (rt *Runtime) StringUnits(obj *Object) ([]uint16, bool) {
	return stringUnits(obj)
}
