package typesystem

import "fmt"

// Access and property flags of classes, methods and fields, as in the
// class file format.
const (
	AccPublic       = 0x0001
	AccPrivate      = 0x0002
	AccProtected    = 0x0004
	AccStatic       = 0x0008
	AccFinal        = 0x0010
	AccSynchronized = 0x0020
	AccNative       = 0x0100
	AccInterface    = 0x0200
	AccAbstract     = 0x0400
	AccSynthetic    = 0x1000
)

// Modifiers is a set of access flags.
type Modifiers int

func (m Modifiers) Has(flag int) bool { return int(m)&flag != 0 }

func (m Modifiers) IsPublic() bool    { return m.Has(AccPublic) }
func (m Modifiers) IsPrivate() bool   { return m.Has(AccPrivate) }
func (m Modifiers) IsProtected() bool { return m.Has(AccProtected) }
func (m Modifiers) IsStatic() bool    { return m.Has(AccStatic) }
func (m Modifiers) IsFinal() bool     { return m.Has(AccFinal) }
func (m Modifiers) IsNative() bool    { return m.Has(AccNative) }
func (m Modifiers) IsInterface() bool { return m.Has(AccInterface) }
func (m Modifiers) IsAbstract() bool  { return m.Has(AccAbstract) }
func (m Modifiers) IsSynthetic() bool { return m.Has(AccSynthetic) }

var modifierNames = []struct {
	name string
	flag int
}{
	{"public", AccPublic},
	{"private", AccPrivate},
	{"protected", AccProtected},
	{"static", AccStatic},
	{"final", AccFinal},
	{"synchronized", AccSynchronized},
	{"native", AccNative},
	{"interface", AccInterface},
	{"abstract", AccAbstract},
	{"synthetic", AccSynthetic},
}

// ParseModifiers converts modifier keywords ("public", "static") to flags.
func ParseModifiers(names []string) (Modifiers, error) {
	var m Modifiers
outer:
	for _, name := range names {
		for _, mn := range modifierNames {
			if mn.name == name {
				m |= Modifiers(mn.flag)
				continue outer
			}
		}
		return 0, fmt.Errorf("unknown modifier %q", name)
	}
	return m, nil
}

// Names returns the modifier keywords set in m, in canonical order.
func (m Modifiers) Names() []string {
	var out []string
	for _, mn := range modifierNames {
		if m.Has(mn.flag) {
			out = append(out, mn.name)
		}
	}
	return out
}
