package vm

import (
	"sync/atomic"

	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/typesystem"
)

// Klass is a resolved guest type: a class, an interface, a primitive type
// or an array type. Klass values are created by the Registry and are
// referentially stable: one Klass per descriptor and defining loader.
type Klass struct {
	name       string // type descriptor
	kind       typesystem.Kind
	modifiers  typesystem.Modifiers
	super      *Klass
	interfaces []*Klass
	component  *Klass
	methods    []*MethodInfo
	fields     []*FieldInfo
	layout     []typesystem.Kind // instance slot kinds including inherited ones
	statics    *Object
	loader     *Object
	reg        *Registry

	array     atomic.Pointer[Klass]
	initState atomic.Int32
}

// InitState is the progress of a class through its initialization.
type InitState int32

const (
	Uninitialized InitState = iota
	BeingInitialized
	Initialized
	Erroneous // the class initializer, or a superclass one, failed
)

// Name returns the type descriptor ("Ljava/lang/String;", "[I", "I").
func (k *Klass) Name() string { return k.name }

// ClassName returns the slash-separated binary name for class types and
// the descriptor otherwise.
func (k *Klass) ClassName() string { return typesystem.ClassNameOf(k.name) }

func (k *Klass) Kind() typesystem.Kind            { return k.kind }
func (k *Klass) Modifiers() typesystem.Modifiers { return k.modifiers }
func (k *Klass) IsArray() bool                    { return k.component != nil }
func (k *Klass) IsPrimitive() bool                { return k.kind != typesystem.Object }
func (k *Klass) IsInterface() bool                { return k.modifiers.IsInterface() }

// Superclass is nil for java/lang/Object, interfaces and primitives.
func (k *Klass) Superclass() *Klass { return k.super }

// Interfaces returns the directly implemented (or extended) interfaces.
func (k *Klass) Interfaces() []*Klass { return k.interfaces }

// ComponentType is nil unless k is an array type.
func (k *Klass) ComponentType() *Klass { return k.component }

// ElementalType returns the innermost element type of an array, or nil.
func (k *Klass) ElementalType() *Klass {
	if !k.IsArray() {
		return nil
	}
	e := k.component
	for e.IsArray() {
		e = e.component
	}
	return e
}

func (k *Klass) DeclaredMethods() []*MethodInfo { return k.methods }
func (k *Klass) DeclaredFields() []*FieldInfo   { return k.fields }

// Statics returns the static storage handle of the class.
func (k *Klass) Statics() *Object { return k.statics }

// Loader returns the defining loader, nil for the boot loader.
func (k *Klass) Loader() *Object { return k.loader }

// FindDeclaredMethod looks up a method declared by k itself.
func (k *Klass) FindDeclaredMethod(name string, sig typesystem.Signature) *MethodInfo {
	for _, m := range k.methods {
		if m.name == name && m.sig.Equal(sig) {
			return m
		}
	}
	return nil
}

// FindDeclaredField looks up a field declared by k itself.
func (k *Klass) FindDeclaredField(name string) *FieldInfo {
	for _, f := range k.fields {
		if f.name == name {
			return f
		}
	}
	return nil
}

// LookupField searches k and its superclasses.
func (k *Klass) LookupField(name string) *FieldInfo {
	for c := k; c != nil; c = c.super {
		if f := c.FindDeclaredField(name); f != nil {
			return f
		}
	}
	return nil
}

// LookupMethod searches k and its superclasses.
func (k *Klass) LookupMethod(name string, sig typesystem.Signature) *MethodInfo {
	for c := k; c != nil; c = c.super {
		if m := c.FindDeclaredMethod(name, sig); m != nil {
			return m
		}
	}
	return nil
}

// ArrayClass returns the type of arrays of k, creating it on first use.
func (k *Klass) ArrayClass() *Klass {
	if a := k.array.Load(); a != nil {
		return a
	}
	a := k.reg.newArrayClass(k)
	if k.array.CompareAndSwap(nil, a) {
		return a
	}
	return k.array.Load()
}

func (k *Klass) InitState() InitState { return InitState(k.initState.Load()) }
func (k *Klass) IsInitialized() bool  { return k.InitState() == Initialized }

// BeginInitialization moves an uninitialized class to BeingInitialized.
// It reports false when initialization was already started.
func (k *Klass) BeginInitialization() bool {
	return k.initState.CompareAndSwap(int32(Uninitialized), int32(BeingInitialized))
}

// FinishInitialization records the outcome of a started initialization.
func (k *Klass) FinishInitialization(ok bool) {
	state := Erroneous
	if ok {
		state = Initialized
	}
	k.initState.CompareAndSwap(int32(BeingInitialized), int32(state))
}

// IsSubclassOf walks the superclass chain only.
func (k *Klass) IsSubclassOf(other *Klass) bool {
	for c := k; c != nil; c = c.super {
		if c == other {
			return true
		}
	}
	return false
}

func (k *Klass) isThrowable() bool {
	for c := k; c != nil; c = c.super {
		if c.name == "L"+config.ThrowableClassName+";" {
			return true
		}
	}
	return false
}

func (k *Klass) String() string {
	return typesystem.InternalNameToJava(k.name, true, true)
}
