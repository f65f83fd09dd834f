package meta

import (
	"fmt"
	"iter"
	"slices"

	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/typesystem"
	"github.com/funvibe/jmeta/internal/vm"
)

// Klass describes a resolved guest type: a class, an interface, a
// primitive type or an array type.
type Klass struct {
	meta *Meta
	raw  *vm.Klass
}

func (k *Klass) Raw() *vm.Klass { return k.raw }
func (k *Klass) Meta() *Meta    { return k.meta }

// Name returns the Java name ("java.lang.String", "int[]").
func (k *Klass) Name() string {
	return typesystem.InternalNameToJava(k.raw.Name(), true, true)
}

// Descriptor returns the internal name ("Ljava/lang/String;", "[I").
func (k *Klass) Descriptor() string { return k.raw.Name() }

func (k *Klass) String() string { return k.Name() }

func (k *Klass) Modifiers() typesystem.Modifiers { return k.raw.Modifiers() }
func (k *Klass) IsArray() bool                   { return k.raw.IsArray() }
func (k *Klass) IsPrimitive() bool               { return k.raw.IsPrimitive() }
func (k *Klass) IsInterface() bool               { return k.raw.IsInterface() }

// Kind is Object for classes, interfaces and arrays.
func (k *Klass) Kind() typesystem.Kind { return k.raw.Kind() }

// ComponentType returns the element type of an array, or nil.
func (k *Klass) ComponentType() *Klass {
	return k.meta.KlassOf(k.raw.ComponentType())
}

// ElementalType returns the innermost element type of an array, or nil.
func (k *Klass) ElementalType() *Klass {
	return k.meta.KlassOf(k.raw.ElementalType())
}

// Superclass is nil for java.lang.Object, interfaces and primitives.
func (k *Klass) Superclass() *Klass {
	return k.meta.KlassOf(k.raw.Superclass())
}

// Supertype returns the next type on the subtype chain. Arrays of
// primitives and Object[] lead to Object, other arrays to the array of
// their component's supertype; interfaces lead to Object.
func (k *Klass) Supertype() *Klass {
	if k.IsArray() {
		component := k.ComponentType()
		if k.raw == k.meta.Object.raw.ArrayClass() || component.IsPrimitive() {
			return k.meta.Object
		}
		return component.Supertype().Array()
	}
	if k.IsInterface() {
		return k.meta.Object
	}
	return k.Superclass()
}

// Supertypes yields k followed by its chain of supertypes.
func (k *Klass) Supertypes() iter.Seq[*Klass] {
	return func(yield func(*Klass) bool) {
		for t := k; t != nil; t = t.Supertype() {
			if !yield(t) {
				return
			}
		}
	}
}

// IsAssignableFrom reports whether a value of type other may be used where
// a value of type k is expected. Neither type may be primitive.
func (k *Klass) IsAssignableFrom(other *Klass) bool {
	contract(!k.IsPrimitive() && !other.IsPrimitive(),
		"assignability between %s and %s is not defined", k, other)
	if k.raw == other.raw {
		return true
	}
	if k.IsArray() && other.IsArray() {
		c, oc := k.ComponentType(), other.ComponentType()
		if c.IsPrimitive() || oc.IsPrimitive() {
			return false
		}
		return c.IsAssignableFrom(oc)
	}
	if k.IsInterface() {
		for i := range other.interfaces(true) {
			if i.raw == k.raw {
				return true
			}
		}
		return false
	}
	if !k.isPrimaryType() {
		// An array of interfaces; other is not an array.
		return false
	}
	for t := range other.Supertypes() {
		if t.raw == k.raw {
			return true
		}
	}
	return false
}

// isPrimaryType reports whether k is a class or an array whose elemental
// type is not an interface.
func (k *Klass) isPrimaryType() bool {
	if k.IsArray() {
		return !k.ElementalType().IsInterface()
	}
	return !k.IsInterface()
}

// Methods returns the declared methods, followed by those of every
// superclass when includeInherited is set.
func (k *Klass) Methods(includeInherited bool) []*Method {
	var methods []*Method
	for c := k; c != nil; c = c.Superclass() {
		for _, mi := range c.raw.DeclaredMethods() {
			methods = append(methods, k.meta.MethodOf(mi))
		}
		if !includeInherited {
			break
		}
	}
	return methods
}

// Fields returns the fields declared by k.
func (k *Klass) Fields() []*Field {
	fields := make([]*Field, 0, len(k.raw.DeclaredFields()))
	for _, fi := range k.raw.DeclaredFields() {
		fields = append(fields, k.meta.FieldOf(fi))
	}
	return fields
}

// Interfaces returns the interfaces k implements, each followed by its
// super-interfaces. With includeSuperclasses set the interfaces of every
// superclass follow. Duplicates are kept.
func (k *Klass) Interfaces(includeSuperclasses bool) []*Klass {
	return slices.Collect(k.interfaces(includeSuperclasses))
}

func (k *Klass) interfaces(includeSuperclasses bool) iter.Seq[*Klass] {
	return func(yield func(*Klass) bool) {
		k.walkInterfaces(includeSuperclasses, yield)
	}
}

func (k *Klass) walkInterfaces(includeSuperclasses bool, yield func(*Klass) bool) bool {
	for _, raw := range k.raw.Interfaces() {
		i := k.meta.KlassOf(raw)
		if !yield(i) || !i.walkInterfaces(false, yield) {
			return false
		}
	}
	if s := k.Superclass(); includeSuperclasses && s != nil {
		return s.walkInterfaces(true, yield)
	}
	return true
}

// Method looks up a method by exact signature in k and then in its
// superclasses. Types are Java names ("int", "java.lang.String", "int[]").
// It returns nil when no class in the chain declares the method.
func (k *Klass) Method(name string, result string, params ...string) *Method {
	sig := typesystem.Signature{Result: typesystem.ToInternalName(result)}
	for _, p := range params {
		sig.Params = append(sig.Params, typesystem.ToInternalName(p))
	}
	return k.lookupMethod(name, sig)
}

// MethodByDescriptor looks up a method by JVM descriptor ("(I)V").
func (k *Klass) MethodByDescriptor(name, desc string) (*Method, error) {
	sig, err := typesystem.ParseMethodDescriptor(desc)
	if err != nil {
		return nil, err
	}
	return k.lookupMethod(name, sig), nil
}

func (k *Klass) lookupMethod(name string, sig typesystem.Signature) *Method {
	for c := k; c != nil; c = c.Superclass() {
		if mi := c.raw.FindDeclaredMethod(name, sig); mi != nil {
			return k.meta.MethodOf(mi)
		}
	}
	return nil
}

// Field looks up a field by name in k and then in its superclasses.
func (k *Klass) Field(name string) *Field {
	return k.meta.FieldOf(k.raw.LookupField(name))
}

// StaticMethod looks up a static method and binds it to the static
// storage of its declaring class. It returns nil when there is no such
// method.
func (k *Klass) StaticMethod(name string, result string, params ...string) *MethodInstance {
	m := k.Method(name, result, params...)
	if m == nil {
		return nil
	}
	contract(m.IsStatic(), "%s is not static", m)
	return m.AsStatic()
}

// StaticField binds a static field to the static storage of its declaring
// class. The class must be initialized or running its initializer.
func (k *Klass) StaticField(name string) *FieldInstance {
	state := k.raw.InitState()
	contract(state == vm.Initialized || state == vm.BeingInitialized, "%s is not initialized", k)
	f := k.Field(name)
	if f == nil {
		return nil
	}
	return f.WithInstance(f.raw.DeclaringClass().Statics())
}

// AllocateInstance returns a zero-initialized instance of k.
func (k *Klass) AllocateInstance() *vm.Object {
	contract(!k.IsArray() && !k.IsPrimitive(), "cannot instantiate %s", k)
	return k.meta.storage.NewObject(k.raw)
}

// AllocateArray returns a new array of k with n elements.
func (k *Klass) AllocateArray(n int) any {
	contract(n >= 0, "negative array length %d", n)
	contract(k.raw.Kind() != typesystem.Void, "array of void")
	return k.meta.storage.NewArray(k.raw, n)
}

// AllocateArrayFunc returns a new array of k whose element i is gen(i).
// Elements must be guest-shaped. Each element is checked against k: a
// reference must be null or assignable to k, a primitive must have the
// boxed representation of k.
func (k *Klass) AllocateArrayFunc(n int, gen func(i int) any) (any, error) {
	arr := k.AllocateArray(n)
	for i := range n {
		v := gen(i)
		if err := k.checkStore(i, v); err != nil {
			return nil, err
		}
		k.meta.storage.StoreElement(arr, i, v)
	}
	return arr, nil
}

func (k *Klass) checkStore(i int, v any) error {
	if k.IsPrimitive() {
		if kind, ok := typesystem.IsBoxedValue(v); ok && kind == k.Kind() {
			return nil
		}
	} else if v == vm.Null {
		return nil
	} else if vm.IsReference(v) && v != vm.Void {
		if t := k.meta.TypeOf(v); k.IsAssignableFrom(t) {
			return nil
		}
	}
	return &ArrayStoreError{Index: i, Value: describe(v), Component: k.Name()}
}

// Array returns the type of arrays of k.
func (k *Klass) Array() *Klass {
	return k.meta.KlassOf(k.raw.ArrayClass())
}

// ClassInitializer returns the class initializer of k bound to its static
// storage, or nil when k declares none.
func (k *Klass) ClassInitializer() *MethodInstance {
	mi := k.raw.FindDeclaredMethod(config.ClassInitializerName, typesystem.NewSignature("V"))
	if mi == nil {
		return nil
	}
	m := k.meta.MethodOf(mi)
	contract(m.IsClassInitializer(), "%s is not a class initializer", m)
	return m.AsStatic()
}

// EnsureInitialized initializes the superclasses of k and then runs its
// own class initializer, unless initialization already started. A class
// whose initialization failed stays erroneous and every later call
// returns a NoClassDefFoundError.
func (k *Klass) EnsureInitialized() error {
	switch k.raw.InitState() {
	case vm.Initialized, vm.BeingInitialized:
		return nil
	case vm.Erroneous:
		return k.noClassDefFound()
	}
	if !k.raw.BeginInitialization() {
		return k.EnsureInitialized()
	}
	err := k.initialize()
	k.raw.FinishInitialization(err == nil)
	if err != nil {
		k.meta.logger.Debug("class initialization failed", "class", k.Name(), "err", err)
		return err
	}
	k.meta.logger.Debug("class initialized", "class", k.Name())
	return nil
}

func (k *Klass) initialize() error {
	if s := k.Superclass(); s != nil {
		if err := s.EnsureInitialized(); err != nil {
			return err
		}
	}
	clinit := k.ClassInitializer()
	if clinit == nil {
		return nil
	}
	if _, err := clinit.InvokeDirect(); err != nil {
		return fmt.Errorf("initialize %s: %w", k, err)
	}
	return nil
}

func (k *Klass) noClassDefFound() error {
	ex, err := k.meta.ThrowableKlass(config.NoClassDefFoundErrorName)
	if err != nil {
		return err
	}
	return k.meta.ThrowExMessage(ex, "Could not initialize class "+k.Name())
}

// WithInstance binds k to a guest instance.
func (k *Klass) WithInstance(obj *vm.Object) *KlassInstance {
	return newKlassInstance(k, obj)
}

// MetaNew allocates an instance of k and binds it. No constructor runs.
func (k *Klass) MetaNew() *KlassInstance {
	return k.WithInstance(k.AllocateInstance())
}
