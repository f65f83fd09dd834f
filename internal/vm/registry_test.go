package vm

import (
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/jmeta/internal/classdef"
	"github.com/funvibe/jmeta/internal/typesystem"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := NewRuntime()
	if err != nil {
		t.Fatalf("NewRuntime failed: %v", err)
	}
	return rt
}

func mustResolve(t *testing.T, rt *Runtime, desc string) *Klass {
	t.Helper()
	k, err := rt.Registry.Resolve(desc, nil)
	if err != nil {
		t.Fatalf("Resolve(%s) failed: %v", desc, err)
	}
	return k
}

// ============================================================================
// Boot library
// ============================================================================

func TestBootLibrary(t *testing.T) {
	rt := newTestRuntime(t)

	object := mustResolve(t, rt, "Ljava/lang/Object;")
	if object.Superclass() != nil {
		t.Errorf("Object must have no superclass")
	}

	str := mustResolve(t, rt, "Ljava/lang/String;")
	if str.Superclass() != object {
		t.Errorf("String superclass = %v", str.Superclass())
	}
	if !str.Modifiers().IsFinal() {
		t.Errorf("String must be final")
	}
	if len(str.Interfaces()) != 3 {
		t.Errorf("String interfaces = %v", str.Interfaces())
	}

	soe := mustResolve(t, rt, "Ljava/lang/StackOverflowError;")
	if !soe.isThrowable() {
		t.Errorf("StackOverflowError must be throwable")
	}
	if m := soe.FindDeclaredMethod("<init>", typesystem.NewSignature("V", "Ljava/lang/String;")); m == nil {
		t.Errorf("StackOverflowError must declare its own message constructor")
	}

	serializable := mustResolve(t, rt, "Ljava/io/Serializable;")
	if !serializable.IsInterface() || serializable.Superclass() != nil {
		t.Errorf("Serializable must be an interface without superclass")
	}
}

func TestResolvePrimitives(t *testing.T) {
	rt := newTestRuntime(t)
	for _, kind := range typesystem.Kinds {
		if kind == typesystem.Object {
			continue
		}
		k := mustResolve(t, rt, string(kind.TypeChar()))
		if !k.IsPrimitive() || k.Kind() != kind {
			t.Errorf("%s: IsPrimitive=%v Kind=%s", kind, k.IsPrimitive(), k.Kind())
		}
		if k.Superclass() != nil || k.IsArray() {
			t.Errorf("%s must have no superclass and no component", kind)
		}
	}
}

func TestResolveArrays(t *testing.T) {
	rt := newTestRuntime(t)

	ints := mustResolve(t, rt, "[I")
	if ints.ComponentType() != mustResolve(t, rt, "I") {
		t.Errorf("[I component = %v", ints.ComponentType())
	}
	if again := mustResolve(t, rt, "[I"); again != ints {
		t.Errorf("array types must be cached")
	}
	if ints.Superclass() != mustResolve(t, rt, "Ljava/lang/Object;") {
		t.Errorf("arrays extend Object")
	}
	if len(ints.Interfaces()) != 2 {
		t.Errorf("arrays implement Cloneable and Serializable, got %v", ints.Interfaces())
	}

	matrix := mustResolve(t, rt, "[[Ljava/lang/String;")
	if matrix.ElementalType() != mustResolve(t, rt, "Ljava/lang/String;") {
		t.Errorf("elemental type = %v", matrix.ElementalType())
	}
	if matrix.String() != "java.lang.String[][]" {
		t.Errorf("String() = %s", matrix.String())
	}
}

func TestResolveNotFound(t *testing.T) {
	rt := newTestRuntime(t)
	for _, desc := range []string{"Ldemo/Missing;", "[Ldemo/Missing;", "[V", "Q", ""} {
		_, err := rt.Registry.Resolve(desc, nil)
		var cnf *typesystem.ClassNotFoundError
		if !errors.As(err, &cnf) {
			t.Errorf("Resolve(%q) error = %v", desc, err)
		}
	}
}

// ============================================================================
// Definition and loaders
// ============================================================================

func TestDefineLayout(t *testing.T) {
	rt := newTestRuntime(t)
	defs := []classdef.Class{
		{Name: "demo/Point3", Super: "demo/Point", Fields: []classdef.Field{{Name: "z", Type: "I"}}},
		{Name: "demo/Point", Super: "java/lang/Object", Fields: []classdef.Field{
			{Name: "x", Type: "I"},
			{Name: "y", Type: "I"},
			{Name: "count", Type: "J", Modifiers: []string{"static"}},
		}},
	}
	klasses, err := rt.LoadClasses(nil, defs)
	if err != nil {
		t.Fatalf("LoadClasses failed: %v", err)
	}
	if len(klasses) != 2 || klasses[0].ClassName() != "demo/Point" {
		t.Fatalf("definitions must be sorted, got %v", klasses)
	}

	p3 := klasses[1]
	if f := p3.LookupField("z"); f == nil || f.Slot() != 2 {
		t.Errorf("z must follow inherited slots, got %v", f)
	}
	if f := p3.LookupField("count"); f == nil || !f.IsStatic() || f.Slot() != 0 {
		t.Errorf("count must be static slot 0, got %v", f)
	}
	if p3.FindDeclaredField("x") != nil {
		t.Errorf("x is declared by Point, not Point3")
	}
}

func TestDefineErrors(t *testing.T) {
	tests := []struct {
		name string
		def  classdef.Class
		want string
	}{
		{"missing super", classdef.Class{Name: "demo/A", Super: "demo/Missing"}, "superclass"},
		{"interface super", classdef.Class{Name: "demo/A", Super: "java/lang/CharSequence"}, "is an interface"},
		{"final super", classdef.Class{Name: "demo/A", Super: "java/lang/String"}, "final class"},
		{"class as interface", classdef.Class{Name: "demo/A", Super: "java/lang/Object", Interfaces: []string{"java/lang/Object"}}, "not an interface"},
		{"redefine", classdef.Class{Name: "java/lang/Object"}, "already defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := newTestRuntime(t)
			_, err := rt.Registry.Define(nil, tt.def)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoaderNamespaces(t *testing.T) {
	rt := newTestRuntime(t)
	a, err := rt.NewLoader()
	if err != nil {
		t.Fatal(err)
	}
	b, err := rt.NewLoader()
	if err != nil {
		t.Fatal(err)
	}

	def := classdef.Class{Name: "demo/Plugin", Super: "java/lang/Object"}
	ka, err := rt.Registry.Define(a, def)
	if err != nil {
		t.Fatal(err)
	}
	kb, err := rt.Registry.Define(b, def)
	if err != nil {
		t.Fatal(err)
	}
	if ka == kb {
		t.Fatalf("each loader defines its own class")
	}
	if ka.Loader() != a || kb.Loader() != b {
		t.Errorf("defining loaders not recorded")
	}
	if _, err := rt.Registry.Lookup("demo/Plugin", nil); err == nil {
		t.Errorf("boot loader must not see loader-defined classes")
	}
	if got, _ := rt.Registry.Lookup("java/lang/String", a); got != mustResolve(t, rt, "Ljava/lang/String;") {
		t.Errorf("resolution must delegate to the boot loader first")
	}
	if arr, _ := rt.Registry.Resolve("[Ldemo/Plugin;", a); arr == nil || arr.Loader() != a {
		t.Errorf("array of a loader class belongs to that loader")
	}
}

func TestClassInitializerState(t *testing.T) {
	rt := newTestRuntime(t)
	klasses, err := rt.LoadClasses(nil, []classdef.Class{
		{Name: "demo/Plain", Super: "java/lang/Object"},
		{Name: "demo/Init", Super: "java/lang/Object", Methods: []classdef.Method{
			{Name: "<clinit>", Descriptor: "()V", Modifiers: []string{"static"}},
		}},
		{Name: "demo/InitChild", Super: "demo/Init"},
	})
	if err != nil {
		t.Fatal(err)
	}
	plain, withInit, child := klasses[0], klasses[1], klasses[2]
	if !plain.IsInitialized() {
		t.Errorf("classes without <clinit> start initialized")
	}
	if withInit.InitState() != Uninitialized {
		t.Errorf("classes with <clinit> start uninitialized")
	}
	if child.InitState() != Uninitialized {
		t.Errorf("subclasses of an uninitialized class start uninitialized")
	}

	if !withInit.BeginInitialization() || withInit.BeginInitialization() {
		t.Errorf("BeginInitialization must succeed exactly once")
	}
	if withInit.InitState() != BeingInitialized || withInit.IsInitialized() {
		t.Errorf("state = %v, want BeingInitialized", withInit.InitState())
	}
	withInit.FinishInitialization(true)
	if !withInit.IsInitialized() {
		t.Errorf("a successful initialization leaves the class initialized")
	}

	child.BeginInitialization()
	child.FinishInitialization(false)
	if child.InitState() != Erroneous || child.BeginInitialization() {
		t.Errorf("a failed initialization leaves the class erroneous for good")
	}
	child.FinishInitialization(true)
	if child.InitState() != Erroneous {
		t.Errorf("FinishInitialization only applies to a class being initialized")
	}
}
