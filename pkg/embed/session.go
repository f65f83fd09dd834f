package jmeta

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/funvibe/jmeta/internal/classdef"
	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/logs"
	"github.com/funvibe/jmeta/internal/meta"
	"github.com/funvibe/jmeta/internal/typesystem"
	"github.com/funvibe/jmeta/internal/vm"
)

// Session owns a runtime with its boot library, the classes of one
// configuration and the Meta that describes them.
type Session struct {
	rt         *vm.Runtime
	meta       *meta.Meta
	loader     *vm.Object
	marshaller *Marshaller
	catalog    *classdef.Catalog
	logger     *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// New creates a session. Classpath directories are loaded in order, then
// the catalog, all into one application loader.
func New(cfg config.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logs.New(logs.Options{
			Writer:  os.Stderr,
			Level:   cfg.Level(),
			Journal: cfg.Journal,
		})
	}

	rt, err := vm.NewRuntime(vm.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.rt = rt
	if s.loader, err = rt.NewLoader(); err != nil {
		return nil, err
	}
	for _, dir := range cfg.Classpath {
		if _, err := rt.LoadDir(s.loader, dir); err != nil {
			return nil, err
		}
	}
	if cfg.Catalog != "" {
		ctx := context.Background()
		if s.catalog, err = classdef.OpenCatalog(ctx, cfg.Catalog); err != nil {
			return nil, err
		}
		if _, err := rt.LoadCatalog(ctx, s.loader, s.catalog); err != nil {
			s.catalog.Close()
			return nil, err
		}
	}

	if s.meta, err = meta.New(rt.Registry, rt.Heap, meta.WithLogger(s.logger)); err != nil {
		s.Close()
		return nil, err
	}
	s.marshaller = NewMarshaller(s.meta, s.loader)
	s.logger.Debug("session started", "session", s.meta.SessionID(), "classpath", cfg.Classpath)
	return s, nil
}

func (s *Session) Meta() *meta.Meta        { return s.meta }
func (s *Session) Runtime() *vm.Runtime    { return s.rt }
func (s *Session) Loader() *vm.Object      { return s.loader }
func (s *Session) Logger() *slog.Logger    { return s.logger }
func (s *Session) Marshaller() *Marshaller { return s.marshaller }

// Close releases the catalog.
func (s *Session) Close() error {
	if s.catalog == nil {
		return nil
	}
	err := s.catalog.Close()
	s.catalog = nil
	return err
}

// Klass resolves a class of the session by Java or internal name.
func (s *Session) Klass(name string) (*meta.Klass, error) {
	return s.meta.LoadKlass(name, s.loader)
}

// Bind registers the body of a native method. key is the native key,
// "<class>.<name><descriptor>". fn is either a vm.NativeFunc, which sees
// guest values, or any Go function whose parameters and results are
// marshalled according to the descriptor. A Go function may return a
// trailing error; it is raised in the guest as a RuntimeException.
func (s *Session) Bind(key string, fn any) error {
	if native, ok := fn.(vm.NativeFunc); ok {
		s.rt.RegisterNative(key, native)
		return nil
	}
	if native, ok := fn.(func(*vm.Runtime, []any) (any, error)); ok {
		s.rt.RegisterNative(key, native)
		return nil
	}

	i := strings.IndexByte(key, '(')
	if i < 0 {
		return fmt.Errorf("bind %s: key has no descriptor", key)
	}
	sig, err := typesystem.ParseMethodDescriptor(key[i:])
	if err != nil {
		return fmt.Errorf("bind %s: %w", key, err)
	}
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return fmt.Errorf("bind %s: %T is not a function", key, fn)
	}
	if err := checkBinding(fv.Type(), sig); err != nil {
		return fmt.Errorf("bind %s: %w", key, err)
	}
	s.rt.RegisterNative(key, func(rt *vm.Runtime, args []any) (any, error) {
		return s.hostCall(fv, sig, args)
	})
	return nil
}

var errorType = reflect.TypeFor[error]()

func checkBinding(ft reflect.Type, sig typesystem.Signature) error {
	if ft.IsVariadic() {
		return fmt.Errorf("variadic functions cannot be bound")
	}
	// An instance method receives its receiver first.
	if n := ft.NumIn(); n != len(sig.Params) && n != len(sig.Params)+1 {
		return fmt.Errorf("expected %d arguments, function takes %d", len(sig.Params), n)
	}
	out := ft.NumOut()
	if out > 0 && ft.Out(out-1) == errorType {
		out--
	}
	want := 1
	if sig.ResultKind() == typesystem.Void {
		want = 0
	}
	if out != want {
		return fmt.Errorf("expected %d results, function returns %d", want, out)
	}
	return nil
}

func (s *Session) hostCall(fn reflect.Value, sig typesystem.Signature, args []any) (any, error) {
	ft := fn.Type()
	// Static natives get exactly their parameters; drop a receiver the
	// function does not declare.
	if ft.NumIn() < len(args) {
		args = args[len(args)-ft.NumIn():]
	}
	if ft.NumIn() > len(args) {
		return nil, fmt.Errorf("expected %d arguments, got %d", ft.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		target := ft.In(i)
		val, err := s.marshaller.FromGuest(arg, target)
		if err != nil {
			return nil, fmt.Errorf("argument %d conversion failed: %w", i, err)
		}
		if val == nil {
			in[i] = reflect.Zero(target)
			continue
		}
		rv := reflect.ValueOf(val)
		if !rv.Type().AssignableTo(target) {
			if !rv.Type().ConvertibleTo(target) {
				return nil, fmt.Errorf("argument %d: cannot use %s as %s", i, rv.Type(), target)
			}
			rv = rv.Convert(target)
		}
		in[i] = rv
	}

	results := fn.Call(in)
	if n := len(results); n > 0 && ft.Out(n-1) == errorType {
		if err, _ := results[n-1].Interface().(error); err != nil {
			return nil, s.rt.Throw(config.RuntimeExceptionName, err.Error())
		}
		results = results[:n-1]
	}
	if len(results) == 0 {
		return vm.Void, nil
	}
	return s.marshaller.ToGuestStack(results[0].Interface(), sig.Result)
}

// CallStatic initializes class and calls one of its static methods. Go
// arguments are marshalled according to descriptor and the result is
// marshalled back.
func (s *Session) CallStatic(class, name, descriptor string, args ...any) (any, error) {
	return meta.GuardValue(func() (any, error) {
		k, err := s.Klass(class)
		if err != nil {
			return nil, err
		}
		m, err := s.method(k, name, descriptor)
		if err != nil {
			return nil, err
		}
		if !m.IsStatic() {
			return nil, fmt.Errorf("%s is not static", m)
		}
		if err := k.EnsureInitialized(); err != nil {
			return nil, err
		}
		return s.invoke(m, nil, args)
	})
}

// Call calls an instance method on obj.
func (s *Session) Call(obj *vm.Object, name, descriptor string, args ...any) (any, error) {
	return meta.GuardValue(func() (any, error) {
		m, err := s.method(s.meta.TypeOf(obj), name, descriptor)
		if err != nil {
			return nil, err
		}
		if m.IsStatic() {
			return nil, fmt.Errorf("%s is static", m)
		}
		return s.invoke(m, obj, args)
	})
}

// NewObject initializes class, allocates an instance and runs the
// constructor with the given descriptor.
func (s *Session) NewObject(class, descriptor string, args ...any) (*vm.Object, error) {
	return meta.GuardValue(func() (*vm.Object, error) {
		k, err := s.Klass(class)
		if err != nil {
			return nil, err
		}
		ctor, err := s.method(k, config.ConstructorName, descriptor)
		if err != nil {
			return nil, err
		}
		if ctor.DeclaringClass() != k {
			return nil, fmt.Errorf("%s declares no constructor %s", k, descriptor)
		}
		if err := k.EnsureInitialized(); err != nil {
			return nil, err
		}
		obj := k.AllocateInstance()
		if _, err := s.invoke(ctor, obj, args); err != nil {
			return nil, err
		}
		return obj, nil
	})
}

func (s *Session) method(k *meta.Klass, name, descriptor string) (*meta.Method, error) {
	m, err := k.MethodByDescriptor(name, descriptor)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%s has no method %s%s", k, name, descriptor)
	}
	return m, nil
}

func (s *Session) invoke(m *meta.Method, self *vm.Object, args []any) (any, error) {
	sig := m.Signature()
	if len(args) != len(sig.Params) {
		return nil, fmt.Errorf("%s: expected %d arguments, got %d", m, len(sig.Params), len(args))
	}
	guest := make([]any, len(args))
	for i, arg := range args {
		g, err := s.marshaller.ToGuestStack(arg, sig.Params[i])
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", m, i, err)
		}
		guest[i] = g
	}
	var recv any
	if self != nil {
		recv = self
	}
	result, err := m.InvokeDirect(recv, guest...)
	if err != nil {
		return nil, err
	}
	return s.marshaller.FromGuestKind(result, sig.Result)
}
