package vm

import (
	"errors"
	"testing"

	"github.com/funvibe/jmeta/internal/classdef"
	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/typesystem"
)

func call(t *testing.T, rt *Runtime, class, name, desc string, args ...any) (any, error) {
	t.Helper()
	k, err := rt.Registry.Lookup(class, nil)
	if err != nil {
		t.Fatal(err)
	}
	sig, err := typesystem.ParseMethodDescriptor(desc)
	if err != nil {
		t.Fatal(err)
	}
	m := k.LookupMethod(name, sig)
	if m == nil {
		t.Fatalf("%s.%s%s not found", class, name, desc)
	}
	return m.CallTarget().Call(args...)
}

func TestStringNatives(t *testing.T) {
	rt := newTestRuntime(t)
	ab := rt.NewString("ab")

	tests := []struct {
		name string
		desc string
		args []any
		want any
	}{
		{"hashCode", "()I", []any{ab}, int32(3105)},
		{"length", "()I", []any{ab}, int32(2)},
		{"charAt", "(I)C", []any{ab, int32(1)}, int32('b')},
		{"equals", "(Ljava/lang/Object;)Z", []any{ab, rt.NewString("ab")}, int32(1)},
		{"equals", "(Ljava/lang/Object;)Z", []any{ab, Null}, int32(0)},
		{"compareTo", "(Ljava/lang/String;)I", []any{ab, rt.NewString("ac")}, int32(-1)},
		{"compareTo", "(Ljava/lang/String;)I", []any{ab, rt.NewString("a")}, int32(1)},
		{"toString", "()Ljava/lang/String;", []any{ab}, ab},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(t, rt, config.StringClassName, tt.name, tt.desc, tt.args...)
			if err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	hash := ab.Klass().LookupField(config.StringHashField)
	if rt.Heap.GetFieldInt(ab, hash) != 3105 {
		t.Errorf("hashCode must cache the hash")
	}
}

func TestStringCharAtOutOfBounds(t *testing.T) {
	rt := newTestRuntime(t)
	_, err := call(t, rt, config.StringClassName, "charAt", "(I)C", rt.NewString("ab"), int32(2))
	var ge *GuestException
	if !errors.As(err, &ge) || ge.Klass().ClassName() != config.IndexOutOfBoundsName {
		t.Fatalf("expected IndexOutOfBoundsException, got %v", err)
	}
}

func TestNativesRejectBadReceivers(t *testing.T) {
	rt := newTestRuntime(t)
	obj := rt.Heap.NewObject(mustResolve(t, rt, "Ljava/lang/Object;"))
	statics := mustResolve(t, rt, "Ljava/lang/String;").Statics()

	tests := []struct {
		name  string
		class string
		desc  string
		args  []any
	}{
		{"hashCode", config.StringClassName, "()I", []any{[]int32{1, 2}}},
		{"hashCode", config.ObjectClassName, "()I", []any{Null}},
		{"length", config.StringClassName, "()I", []any{obj}},
		{"charAt", config.StringClassName, "(I)C", []any{statics, int32(0)}},
		{"equals", config.StringClassName, "(Ljava/lang/Object;)Z", []any{obj, obj}},
		{"compareTo", config.StringClassName, "(Ljava/lang/String;)I", []any{Void, rt.NewString("a")}},
		{"toString", config.ObjectClassName, "()Ljava/lang/String;", []any{int32(3)}},
		{"getMessage", config.ThrowableClassName, "()Ljava/lang/String;", []any{obj}},
		{"toString", config.ThrowableClassName, "()Ljava/lang/String;", []any{rt.NewString("x")}},
	}
	for _, tt := range tests {
		t.Run(tt.class+"."+tt.name, func(t *testing.T) {
			_, err := call(t, rt, tt.class, tt.name, tt.desc, tt.args...)
			var re *ReceiverError
			if !errors.As(err, &re) {
				t.Fatalf("expected a ReceiverError, got %v", err)
			}
		})
	}
}

func TestObjectNatives(t *testing.T) {
	rt := newTestRuntime(t)
	obj := rt.Heap.NewObject(mustResolve(t, rt, "Ljava/lang/Object;"))

	h, err := call(t, rt, config.ObjectClassName, "hashCode", "()I", obj)
	if err != nil || h != obj.IdentityHash() {
		t.Errorf("hashCode = %v, %v", h, err)
	}
	eq, _ := call(t, rt, config.ObjectClassName, "equals", "(Ljava/lang/Object;)Z", obj, obj)
	if eq != int32(1) {
		t.Errorf("equals(self) = %v", eq)
	}
	s, _ := call(t, rt, config.ObjectClassName, "toString", "()Ljava/lang/String;", obj)
	units, ok := rt.StringUnits(s.(*Object))
	if !ok || len(units) == 0 {
		t.Errorf("toString must return a guest string")
	}
}

func TestThrowableNatives(t *testing.T) {
	rt := newTestRuntime(t)
	k := mustResolve(t, rt, "Ljava/lang/StackOverflowError;")
	ex := rt.Heap.NewObject(k)

	r, err := call(t, rt, "java/lang/StackOverflowError", "<init>", "(Ljava/lang/String;)V", ex, rt.NewString("deep"))
	if err != nil || r != Void {
		t.Fatalf("<init> = %v, %v", r, err)
	}
	msg, _ := call(t, rt, config.ThrowableClassName, "getMessage", "()Ljava/lang/String;", ex)
	if units, _ := rt.StringUnits(msg.(*Object)); string(rune(units[0])) != "d" {
		t.Errorf("getMessage = %v", units)
	}
	s, _ := call(t, rt, config.ThrowableClassName, "toString", "()Ljava/lang/String;", ex)
	if got := (&GuestException{Exception: ex}).Error(); got != "java.lang.StackOverflowError: deep" {
		t.Errorf("Error() = %q", got)
	}
	if units, _ := rt.StringUnits(s.(*Object)); len(units) != len("java.lang.StackOverflowError: deep") {
		t.Errorf("toString length = %d", len(units))
	}
}

func TestUnlinkedNatives(t *testing.T) {
	rt := newTestRuntime(t)
	klasses, err := rt.LoadClasses(nil, []classdef.Class{{
		Name:      "demo/Tool",
		Super:     "java/lang/Object",
		Modifiers: []string{"abstract"},
		Methods: []classdef.Method{
			{Name: "run", Descriptor: "()V", Modifiers: []string{"static"}},
			{Name: "plan", Descriptor: "()V", Modifiers: []string{"abstract"}},
			{Name: "twice", Descriptor: "(I)I", Modifiers: []string{"static"}, Native: "demo.twice"},
		},
	}})
	if err != nil {
		t.Fatal(err)
	}
	tool := klasses[0]

	_, err = tool.FindDeclaredMethod("run", typesystem.NewSignature("V")).CallTarget().Call()
	var ge *GuestException
	if !errors.As(err, &ge) || ge.Klass().ClassName() != config.UnsatisfiedLinkErrorName {
		t.Errorf("unbound native must throw UnsatisfiedLinkError, got %v", err)
	}

	_, err = tool.FindDeclaredMethod("plan", typesystem.NewSignature("V")).CallTarget().Call(rt.Heap.NewObject(tool))
	var le *LinkError
	if !errors.As(err, &le) {
		t.Errorf("abstract method must fail with LinkError, got %v", err)
	}

	twice := tool.FindDeclaredMethod("twice", typesystem.NewSignature("I", "I"))
	rt.RegisterNative("demo.twice", func(rt *Runtime, args []any) (any, error) {
		return args[0].(int32) * 2, nil
	})
	if got, err := twice.CallTarget().Call(int32(21)); err != nil || got != int32(42) {
		t.Errorf("twice(21) = %v, %v", got, err)
	}
	if _, err := twice.CallTarget().Call(); err == nil {
		t.Errorf("arity mismatch must fail")
	}
}
