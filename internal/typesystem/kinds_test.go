package typesystem

import (
	"testing"
)

func TestKindTable(t *testing.T) {
	tests := []struct {
		kind      Kind
		name      string
		typeChar  byte
		stack     Kind
		primitive bool
	}{
		{Boolean, "boolean", 'Z', Int, true},
		{Byte, "byte", 'B', Int, true},
		{Short, "short", 'S', Int, true},
		{Char, "char", 'C', Int, true},
		{Int, "int", 'I', Int, true},
		{Float, "float", 'F', Float, true},
		{Long, "long", 'J', Long, true},
		{Double, "double", 'D', Double, true},
		{Object, "Object", 'L', Object, false},
		{Void, "void", 'V', Void, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.name {
				t.Errorf("String() = %s, want %s", got, tt.name)
			}
			if got := tt.kind.TypeChar(); got != tt.typeChar {
				t.Errorf("TypeChar() = %c, want %c", got, tt.typeChar)
			}
			if got := tt.kind.StackKind(); got != tt.stack {
				t.Errorf("StackKind() = %s, want %s", got, tt.stack)
			}
			if got := tt.kind.IsPrimitive(); got != tt.primitive {
				t.Errorf("IsPrimitive() = %v, want %v", got, tt.primitive)
			}
			if tt.kind != Object && KindFromTypeChar(tt.typeChar) != tt.kind {
				t.Errorf("KindFromTypeChar(%c) != %s", tt.typeChar, tt.kind)
			}
		})
	}
}

func TestBoxedTypes(t *testing.T) {
	values := map[Kind]any{
		Boolean: true,
		Byte:    int8(1),
		Short:   int16(1),
		Char:    uint16('A'),
		Int:     int32(1),
		Float:   float32(1),
		Long:    int64(1),
		Double:  float64(1),
	}
	for kind, v := range values {
		got, ok := IsBoxedValue(v)
		if !ok || got != kind {
			t.Errorf("IsBoxedValue(%T) = %s, %v; want %s", v, got, ok, kind)
		}
		if zero := kind.ZeroValue(); zero == nil {
			t.Errorf("%s has no zero value", kind)
		} else if k, _ := IsBoxedValue(zero); k != kind {
			t.Errorf("zero value of %s boxes as %s", kind, k)
		}
	}

	for _, v := range []any{nil, 1, "s", uint32(1), []int32{1}} {
		if _, ok := IsBoxedValue(v); ok {
			t.Errorf("IsBoxedValue(%T) should be false", v)
		}
	}
}

func TestKindFromName(t *testing.T) {
	if k, ok := KindFromName("int"); !ok || k != Int {
		t.Errorf("KindFromName(int) = %s, %v", k, ok)
	}
	if k, ok := KindFromName("void"); !ok || k != Void {
		t.Errorf("KindFromName(void) = %s, %v", k, ok)
	}
	if _, ok := KindFromName("Object"); ok {
		t.Errorf("Object is not a primitive name")
	}
	if _, ok := KindFromName("java.lang.String"); ok {
		t.Errorf("class names are not kinds")
	}
}

func TestModifiers(t *testing.T) {
	m, err := ParseModifiers([]string{"public", "static", "final"})
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsPublic() || !m.IsStatic() || !m.IsFinal() || m.IsInterface() {
		t.Errorf("unexpected flags %#x", int(m))
	}
	names := m.Names()
	if len(names) != 3 || names[0] != "public" || names[1] != "static" || names[2] != "final" {
		t.Errorf("Names() = %v", names)
	}
	if _, err := ParseModifiers([]string{"volatile-ish"}); err == nil {
		t.Errorf("expected error for unknown modifier")
	}
}
