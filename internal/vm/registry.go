package vm

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/funvibe/jmeta/internal/classdef"
	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/logs"
	"github.com/funvibe/jmeta/internal/typesystem"
)

// Registry resolves type descriptors to Klass values. Classes live in
// namespaces keyed by their defining loader; nil is the boot loader.
// Resolution is parent-first: the boot namespace is searched before the
// loader's own.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[*Object]map[string]*Klass
	primitives map[string]*Klass
	link       Linker
	logger     *slog.Logger

	// Boot types every array type refers to.
	object       atomic.Pointer[Klass]
	cloneable    atomic.Pointer[Klass]
	serializable atomic.Pointer[Klass]
}

// NewRegistry creates a registry holding only the primitive types. A nil
// linker leaves every method without a body.
func NewRegistry(link Linker, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logs.Discard()
	}
	r := &Registry{
		namespaces: map[*Object]map[string]*Klass{nil: {}},
		primitives: make(map[string]*Klass),
		link:       link,
		logger:     logger,
	}
	for _, kind := range typesystem.Kinds {
		if kind == typesystem.Object {
			continue
		}
		desc := string(kind.TypeChar())
		k := &Klass{
			name:      desc,
			kind:      kind,
			modifiers: typesystem.AccPublic | typesystem.AccFinal | typesystem.AccAbstract,
			reg:       r,
		}
		k.statics = &Object{klass: k, static: true, id: newObjectID()}
		k.initState.Store(int32(Initialized))
		r.primitives[desc] = k
	}
	return r
}

// Resolve returns the type named by a descriptor as seen from loader.
func (r *Registry) Resolve(desc string, loader *Object) (*Klass, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(desc, loader)
}

func (r *Registry) resolveLocked(desc string, loader *Object) (*Klass, error) {
	if k, ok := r.primitives[desc]; ok {
		return k, nil
	}
	if strings.HasPrefix(desc, "[") {
		if desc == "[V" {
			return nil, typesystem.NewClassNotFoundError(desc)
		}
		component, err := r.resolveLocked(desc[1:], loader)
		if err != nil {
			return nil, typesystem.NewClassNotFoundError(desc)
		}
		return component.ArrayClass(), nil
	}
	if err := typesystem.ValidateFieldDescriptor(desc); err != nil {
		return nil, typesystem.NewClassNotFoundError(desc)
	}
	if k, ok := r.namespaces[nil][desc]; ok {
		return k, nil
	}
	if loader != nil {
		if k, ok := r.namespaces[loader][desc]; ok {
			return k, nil
		}
	}
	return nil, typesystem.NewClassNotFoundError(desc)
}

// Lookup resolves a slash-separated class name.
func (r *Registry) Lookup(name string, loader *Object) (*Klass, error) {
	return r.Resolve("L"+name+";", loader)
}

// Classes returns the classes and interfaces defined by loader.
func (r *Registry) Classes(loader *Object) []*Klass {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ns := r.namespaces[loader]
	classes := make([]*Klass, 0, len(ns))
	for _, k := range ns {
		classes = append(classes, k)
	}
	return classes
}

// Define links a class definition into the namespace of loader. The
// superclass and interfaces must already be resolvable from loader.
func (r *Registry) Define(loader *Object, def classdef.Class) (*Klass, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	mods, _ := typesystem.ParseModifiers(def.Modifiers)
	if def.IsInterface() {
		mods |= typesystem.AccAbstract
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	desc := "L" + def.Name + ";"
	if _, err := r.resolveLocked(desc, loader); err == nil {
		return nil, fmt.Errorf("class %s already defined", def.Name)
	}

	k := &Klass{
		name:      desc,
		kind:      typesystem.Object,
		modifiers: mods,
		loader:    loader,
		reg:       r,
	}

	if def.Super != "" && !def.IsInterface() {
		super, err := r.resolveLocked("L"+def.Super+";", loader)
		if err != nil {
			return nil, fmt.Errorf("class %s: superclass: %w", def.Name, err)
		}
		if super.IsInterface() {
			return nil, fmt.Errorf("class %s: superclass %s is an interface", def.Name, def.Super)
		}
		if super.modifiers.IsFinal() {
			return nil, fmt.Errorf("class %s: cannot extend final class %s", def.Name, def.Super)
		}
		k.super = super
		k.layout = append(k.layout, super.layout...)
	}
	for _, name := range def.Interfaces {
		iface, err := r.resolveLocked("L"+name+";", loader)
		if err != nil {
			return nil, fmt.Errorf("class %s: interface: %w", def.Name, err)
		}
		if !iface.IsInterface() {
			return nil, fmt.Errorf("class %s: %s is not an interface", def.Name, name)
		}
		k.interfaces = append(k.interfaces, iface)
	}

	var statics []any
	for _, fd := range def.Fields {
		fmods, _ := typesystem.ParseModifiers(fd.Modifiers)
		f := &FieldInfo{
			name:      fd.Name,
			desc:      fd.Type,
			kind:      typesystem.KindFromDescriptor(fd.Type),
			modifiers: fmods,
			declaring: k,
		}
		if f.IsStatic() {
			f.slot = len(statics)
			statics = append(statics, zeroSlot(f.kind))
		} else {
			f.slot = len(k.layout)
			k.layout = append(k.layout, f.kind)
		}
		k.fields = append(k.fields, f)
	}
	k.statics = &Object{klass: k, fields: statics, static: true, id: newObjectID()}

	for _, md := range def.Methods {
		mmods, _ := typesystem.ParseModifiers(md.Modifiers)
		sig, _ := typesystem.ParseMethodDescriptor(md.Descriptor)
		m := &MethodInfo{
			name:      md.Name,
			sig:       sig,
			modifiers: mmods,
			declaring: k,
			nativeKey: md.NativeKey(def.Name),
		}
		if r.link != nil {
			m.target = r.link(m)
		} else {
			m.target = unlinkedTarget{method: m}
		}
		k.methods = append(k.methods, m)
	}

	if k.FindDeclaredMethod(config.ClassInitializerName, typesystem.NewSignature("V")) == nil &&
		(k.super == nil || k.super.IsInitialized()) {
		k.initState.Store(int32(Initialized))
	}

	ns := r.namespaces[loader]
	if ns == nil {
		ns = make(map[string]*Klass)
		r.namespaces[loader] = ns
	}
	ns[desc] = k
	if loader == nil {
		switch def.Name {
		case config.ObjectClassName:
			r.object.Store(k)
		case config.CloneableClassName:
			r.cloneable.Store(k)
		case config.SerializableClassName:
			r.serializable.Store(k)
		}
	}
	r.logger.Debug("class defined",
		"class", def.Name,
		"loader", loaderName(loader),
		"fields", len(k.fields),
		"methods", len(k.methods))
	return k, nil
}

// DefineAll defines a set of classes in dependency order.
func (r *Registry) DefineAll(loader *Object, defs []classdef.Class) ([]*Klass, error) {
	sorted, err := classdef.Sort(defs)
	if err != nil {
		return nil, err
	}
	klasses := make([]*Klass, 0, len(sorted))
	for _, def := range sorted {
		k, err := r.Define(loader, def)
		if err != nil {
			return klasses, err
		}
		klasses = append(klasses, k)
	}
	return klasses, nil
}

// newArrayClass builds the array type of elem. Callers cache the result
// on elem. It must not take r.mu: it runs inside resolveLocked.
func (r *Registry) newArrayClass(elem *Klass) *Klass {
	a := &Klass{
		name:      "[" + elem.name,
		kind:      typesystem.Object,
		modifiers: typesystem.AccFinal | typesystem.AccAbstract | (elem.modifiers & typesystem.AccPublic),
		super:     r.object.Load(),
		component: elem,
		loader:    elem.loader,
		reg:       r,
	}
	for _, iface := range []*Klass{r.cloneable.Load(), r.serializable.Load()} {
		if iface != nil {
			a.interfaces = append(a.interfaces, iface)
		}
	}
	a.statics = &Object{klass: a, static: true, id: newObjectID()}
	a.initState.Store(int32(Initialized))
	return a
}

func zeroSlot(kind typesystem.Kind) any {
	if kind == typesystem.Object {
		return Null
	}
	return kind.ZeroValue()
}

func loaderName(loader *Object) string {
	if loader == nil {
		return "boot"
	}
	return loader.String()
}
