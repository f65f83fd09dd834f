package meta

import (
	"errors"
	"testing"

	"github.com/funvibe/jmeta/internal/classdef"
	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/typesystem"
	"github.com/funvibe/jmeta/internal/vm"
)

// demoClasses is a small hierarchy used across the package tests:
//
//	demo/Named            interface
//	demo/Labeled          interface extends demo/Named
//	demo/Shape            interface
//	demo/Base             implements demo/Labeled
//	demo/Derived          extends demo/Base implements demo/Shape
//	demo/Broken           <clinit> throws
var demoClasses = []classdef.Class{
	{Name: "demo/Named", Modifiers: []string{"public", "interface"}, Methods: []classdef.Method{
		{Name: "name", Descriptor: "()Ljava/lang/String;", Modifiers: []string{"public", "abstract"}},
	}},
	{Name: "demo/Labeled", Modifiers: []string{"public", "interface"}, Interfaces: []string{"demo/Named"}},
	{Name: "demo/Shape", Modifiers: []string{"public", "interface"}},
	{
		Name:       "demo/Base",
		Super:      "java/lang/Object",
		Interfaces: []string{"demo/Labeled"},
		Modifiers:  []string{"public"},
		Fields: []classdef.Field{
			{Name: "id", Type: "I"},
			{Name: "flag", Type: "Z"},
			{Name: "label", Type: "Ljava/lang/String;"},
			{Name: "count", Type: "I", Modifiers: []string{"static"}},
		},
		Methods: []classdef.Method{
			{Name: "<clinit>", Descriptor: "()V", Modifiers: []string{"static"}},
			{Name: "<init>", Descriptor: "()V", Modifiers: []string{"public"}},
			{Name: "name", Descriptor: "()Ljava/lang/String;", Modifiers: []string{"public"}},
			{Name: "isBig", Descriptor: "()Z", Modifiers: []string{"public"}},
			{Name: "initial", Descriptor: "()C", Modifiers: []string{"public"}},
			{Name: "twice", Descriptor: "(I)I", Modifiers: []string{"public", "static"}},
		},
	},
	{
		Name:       "demo/Derived",
		Super:      "demo/Base",
		Interfaces: []string{"demo/Shape"},
		Modifiers:  []string{"public"},
		Fields:     []classdef.Field{{Name: "area", Type: "D"}},
		Methods: []classdef.Method{
			{Name: "area", Descriptor: "()D", Modifiers: []string{"public"}},
		},
	},
	{Name: "demo/Broken", Super: "java/lang/Object", Methods: []classdef.Method{
		{Name: "<clinit>", Descriptor: "()V", Modifiers: []string{"static"}},
	}},
}

type fixture struct {
	rt   *vm.Runtime
	meta *Meta

	clinitRuns int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rt, err := vm.NewRuntime()
	if err != nil {
		t.Fatalf("NewRuntime failed: %v", err)
	}
	if _, err := rt.LoadClasses(nil, demoClasses); err != nil {
		t.Fatalf("load demo classes: %v", err)
	}
	m, err := New(rt.Registry, rt.Heap)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	fx := &fixture{rt: rt, meta: m}
	fx.registerNatives()
	return fx
}

func (fx *fixture) registerNatives() {
	rt := fx.rt
	field := func(obj *vm.Object, name string) *vm.FieldInfo {
		return obj.Klass().LookupField(name)
	}
	rt.RegisterNative("demo/Base.<clinit>()V", func(rt *vm.Runtime, args []any) (any, error) {
		fx.clinitRuns++
		base, err := rt.Registry.Lookup("demo/Base", nil)
		if err != nil {
			return nil, err
		}
		rt.Heap.SetFieldInt(base.Statics(), base.LookupField("count"), 7)
		return vm.Void, nil
	})
	rt.RegisterNative("demo/Base.<init>()V", func(rt *vm.Runtime, args []any) (any, error) {
		obj := args[0].(*vm.Object)
		rt.Heap.SetFieldInt(obj, field(obj, "id"), 1)
		return vm.Void, nil
	})
	rt.RegisterNative("demo/Base.name()Ljava/lang/String;", func(rt *vm.Runtime, args []any) (any, error) {
		obj := args[0].(*vm.Object)
		return rt.Heap.GetFieldObject(obj, field(obj, "label")), nil
	})
	rt.RegisterNative("demo/Base.isBig()Z", func(rt *vm.Runtime, args []any) (any, error) {
		obj := args[0].(*vm.Object)
		if rt.Heap.GetFieldInt(obj, field(obj, "id")) > 100 {
			return int32(1), nil
		}
		return int32(0), nil
	})
	rt.RegisterNative("demo/Base.initial()C", func(rt *vm.Runtime, args []any) (any, error) {
		return int32(65), nil
	})
	rt.RegisterNative("demo/Base.twice(I)I", func(rt *vm.Runtime, args []any) (any, error) {
		return 2 * args[0].(int32), nil
	})
	rt.RegisterNative("demo/Derived.area()D", func(rt *vm.Runtime, args []any) (any, error) {
		obj := args[0].(*vm.Object)
		return rt.Heap.GetFieldDouble(obj, field(obj, "area")), nil
	})
	rt.RegisterNative("demo/Broken.<clinit>()V", func(rt *vm.Runtime, args []any) (any, error) {
		return nil, rt.Throw("java/lang/RuntimeException", "broken")
	})
}

func (fx *fixture) klass(t *testing.T, name string) *Klass {
	t.Helper()
	k, err := fx.meta.KnownKlass(name)
	if err != nil {
		t.Fatalf("KnownKlass(%s): %v", name, err)
	}
	return k
}

func expectFailure(t *testing.T, kind FailureKind, fn func()) {
	t.Helper()
	err := Guard(func() error {
		fn()
		return nil
	})
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected a %s failure, got %v", kind, err)
	}
	if f.Kind != kind {
		t.Fatalf("expected a %s failure, got %v", kind, f)
	}
}

// ============================================================================
// Bootstrap
// ============================================================================

func TestWellKnownTypes(t *testing.T) {
	fx := newFixture(t)
	m := fx.meta

	tests := []struct {
		k    *Klass
		name string
	}{
		{m.Object, "java.lang.Object"},
		{m.String, "java.lang.String"},
		{m.Class, "java.lang.Class"},
		{m.Boolean, "boolean"},
		{m.Byte, "byte"},
		{m.Char, "char"},
		{m.Short, "short"},
		{m.Float, "float"},
		{m.Int, "int"},
		{m.Double, "double"},
		{m.Long, "long"},
		{m.Throwable, "java.lang.Throwable"},
		{m.StackOverflowError, "java.lang.StackOverflowError"},
		{m.OutOfMemoryError, "java.lang.OutOfMemoryError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.k == nil {
				t.Fatalf("%s not resolved", tt.name)
			}
			if tt.k.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", tt.k.Name(), tt.name)
			}
		})
	}
	if m.SessionID() == "" {
		t.Errorf("session id must be generated")
	}
}

type missingRegistry struct {
	inner   *vm.Registry
	missing map[string]bool
}

func (r *missingRegistry) Resolve(desc string, loader *vm.Object) (*vm.Klass, error) {
	if r.missing[desc] {
		return nil, typesystem.NewClassNotFoundError(desc)
	}
	return r.inner.Resolve(desc, loader)
}

func TestBootstrapError(t *testing.T) {
	rt, err := vm.NewRuntime()
	if err != nil {
		t.Fatal(err)
	}
	reg := &missingRegistry{inner: rt.Registry, missing: map[string]bool{
		"Ljava/lang/Class;": true,
		"J":                 true,
	}}

	_, err = New(reg, rt.Heap, WithSessionID("boot-test"))
	var be *BootstrapError
	if !errors.As(err, &be) {
		t.Fatalf("expected *BootstrapError, got %v", err)
	}
	if len(be.Missing) != 2 {
		t.Errorf("Missing = %v, want both failures", be.Missing)
	}
	var cnf *typesystem.ClassNotFoundError
	if !errors.As(err, &cnf) {
		t.Errorf("bootstrap error must wrap the resolution errors")
	}
}

func TestSessionID(t *testing.T) {
	rt, err := vm.NewRuntime()
	if err != nil {
		t.Fatal(err)
	}
	m, err := New(rt.Registry, rt.Heap, WithSessionID("fixed"))
	if err != nil {
		t.Fatal(err)
	}
	if m.SessionID() != "fixed" {
		t.Errorf("SessionID() = %q", m.SessionID())
	}
	other, err := New(rt.Registry, rt.Heap)
	if err != nil {
		t.Fatal(err)
	}
	third, _ := New(rt.Registry, rt.Heap)
	if other.SessionID() == third.SessionID() {
		t.Errorf("generated session ids must differ")
	}
}

// ============================================================================
// Lookup and dispatch
// ============================================================================

func TestKnownKlass(t *testing.T) {
	fx := newFixture(t)

	for _, name := range []string{"java.lang.String", "java/lang/String", "Ljava/lang/String;"} {
		k, err := fx.meta.KnownKlass(name)
		if err != nil {
			t.Fatalf("KnownKlass(%q): %v", name, err)
		}
		if k != fx.meta.String {
			t.Errorf("KnownKlass(%q) must return the cached String descriptor", name)
		}
	}

	_, err := fx.meta.KnownKlass("demo.Missing")
	var cnf *typesystem.ClassNotFoundError
	if !errors.As(err, &cnf) {
		t.Errorf("expected ClassNotFoundError, got %v", err)
	}
}

func TestLoadKlassWithLoader(t *testing.T) {
	fx := newFixture(t)
	loader, err := fx.rt.NewLoader()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fx.rt.LoadClasses(loader, []classdef.Class{{Name: "app/Main", Super: "java/lang/Object"}}); err != nil {
		t.Fatal(err)
	}

	k, err := fx.meta.LoadKlass("app.Main", loader)
	if err != nil {
		t.Fatalf("LoadKlass: %v", err)
	}
	if k.Raw().Loader() != loader {
		t.Errorf("app.Main must belong to its loader")
	}
	if _, err := fx.meta.LoadKlass("app.Main", nil); err == nil {
		t.Errorf("app.Main must not be visible to the boot loader")
	}
	if _, err := fx.meta.KnownKlass("app.Main"); err == nil {
		t.Errorf("KnownKlass must only see boot library types")
	}
}

func TestThrowableKlass(t *testing.T) {
	fx := newFixture(t)
	k, err := fx.meta.ThrowableKlass("java.lang.NullPointerException")
	if err != nil {
		t.Fatal(err)
	}
	if !fx.meta.Throwable.IsAssignableFrom(k) {
		t.Errorf("NullPointerException must be a Throwable")
	}
	expectFailure(t, ContractViolation, func() {
		fx.meta.ThrowableKlass("java.lang.String")
	})
	expectFailure(t, ContractViolation, func() {
		fx.meta.ThrowableKlass("int")
	})
}

func TestKlassOfCaching(t *testing.T) {
	fx := newFixture(t)
	raw, err := fx.rt.Registry.Lookup(config.StringClassName, nil)
	if err != nil {
		t.Fatal(err)
	}
	if fx.meta.KlassOf(raw) != fx.meta.String {
		t.Errorf("KlassOf must return the cached wrapper")
	}
	if fx.meta.KlassOf(nil) != nil || fx.meta.MethodOf(nil) != nil || fx.meta.FieldOf(nil) != nil {
		t.Errorf("nil raw descriptors map to nil")
	}
}

func TestTypeOf(t *testing.T) {
	fx := newFixture(t)
	m := fx.meta

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"bool", []bool{true}, "boolean[]"},
		{"byte", []int8{1}, "byte[]"},
		{"short", []int16{1}, "short[]"},
		{"char", []uint16{'a'}, "char[]"},
		{"int", []int32{1}, "int[]"},
		{"float", []float32{1}, "float[]"},
		{"long", []int64{1}, "long[]"},
		{"double", []float64{1}, "double[]"},
		{"string", m.ToGuestString("x"), "java.lang.String"},
		{"object array", m.Object.AllocateArray(2), "java.lang.Object[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.TypeOf(tt.value).Name(); got != tt.want {
				t.Errorf("TypeOf = %s, want %s", got, tt.want)
			}
		})
	}

	expectFailure(t, ShouldNotReachHere, func() { m.TypeOf("host string") })
	expectFailure(t, ShouldNotReachHere, func() { m.TypeOf(42) })
	expectFailure(t, ContractViolation, func() { m.TypeOf(vm.Null) })
}

func TestInstance(t *testing.T) {
	fx := newFixture(t)
	s := fx.meta.ToGuestString("hello")
	ki := fx.meta.Instance(s)
	if ki.Klass() != fx.meta.String || ki.Instance() != s {
		t.Errorf("Instance must bind the handle to its own type")
	}
	expectFailure(t, ContractViolation, func() { fx.meta.Instance(vm.Null) })
}

// ============================================================================
// Guard
// ============================================================================

func TestGuard(t *testing.T) {
	sentinel := errors.New("plain")
	if err := Guard(func() error { return sentinel }); err != sentinel {
		t.Errorf("Guard must return fn's error, got %v", err)
	}

	err := Guard(func() error {
		contract(false, "broken %d", 1)
		return nil
	})
	var f *Failure
	if !errors.As(err, &f) || f.Kind != ContractViolation || f.Message != "broken 1" {
		t.Errorf("Guard must recover contract failures, got %v", err)
	}
	if err.Error() != "meta: contract violation: broken 1" {
		t.Errorf("Error() = %q", err.Error())
	}

	v, err := GuardValue(func() (int, error) { return 3, nil })
	if v != 3 || err != nil {
		t.Errorf("GuardValue = %v, %v", v, err)
	}

	defer func() {
		if r := recover(); r != "other" {
			t.Errorf("foreign panics must not be recovered, got %v", r)
		}
	}()
	Guard(func() error { panic("other") })
}
