package typesystem

import (
	"errors"
	"testing"
)

func TestParseMethodDescriptor(t *testing.T) {
	tests := []struct {
		desc   string
		params []string
		result string
	}{
		{"()V", nil, "V"},
		{"()I", nil, "I"},
		{"(Ljava/lang/String;)V", []string{"Ljava/lang/String;"}, "V"},
		{"(I[JLjava/lang/Object;[[Ljava/lang/String;)Z", []string{"I", "[J", "Ljava/lang/Object;", "[[Ljava/lang/String;"}, "Z"},
		{"(C)[C", []string{"C"}, "[C"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			sig, err := ParseMethodDescriptor(tt.desc)
			if err != nil {
				t.Fatalf("ParseMethodDescriptor(%q): %v", tt.desc, err)
			}
			want := NewSignature(tt.result, tt.params...)
			if !sig.Equal(want) {
				t.Errorf("got %s, want %s", sig, want)
			}
			if sig.String() != tt.desc {
				t.Errorf("String() = %s, want %s", sig.String(), tt.desc)
			}
			if sig.ParameterCount(false) != len(tt.params) || sig.ParameterCount(true) != len(tt.params)+1 {
				t.Errorf("bad parameter counts for %s", tt.desc)
			}
		})
	}
}

func TestParseMethodDescriptorErrors(t *testing.T) {
	for _, desc := range []string{"", "V", "(", "(I", "(Q)V", "(Ljava/lang/String)V", "()", "()X", "()II"} {
		_, err := ParseMethodDescriptor(desc)
		var de *DescriptorError
		if !errors.As(err, &de) {
			t.Errorf("ParseMethodDescriptor(%q) error = %v, want DescriptorError", desc, err)
		}
	}
}

func TestSignatureKinds(t *testing.T) {
	sig, err := ParseMethodDescriptor("(ZBCSIFJD[ILjava/lang/Object;)C")
	if err != nil {
		t.Fatal(err)
	}
	want := []Kind{Boolean, Byte, Char, Short, Int, Float, Long, Double, Object, Object}
	got := sig.ParameterKinds()
	if len(got) != len(want) {
		t.Fatalf("got %d kinds, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("param %d kind = %s, want %s", i, got[i], want[i])
		}
	}
	if sig.ResultKind() != Char {
		t.Errorf("ResultKind() = %s", sig.ResultKind())
	}
}

func TestInternalNames(t *testing.T) {
	tests := []struct {
		java     string
		internal string
	}{
		{"java.lang.String", "Ljava/lang/String;"},
		{"java/lang/String", "Ljava/lang/String;"},
		{"Ljava/lang/String;", "Ljava/lang/String;"},
		{"int", "I"},
		{"boolean", "Z"},
		{"void", "V"},
		{"[I", "[I"},
		{"[Ljava.lang.Object;", "[Ljava/lang/Object;"},
		{"int[][]", "[[I"},
		{"java.lang.String[]", "[Ljava/lang/String;"},
	}
	for _, tt := range tests {
		if got := ToInternalName(tt.java); got != tt.internal {
			t.Errorf("ToInternalName(%q) = %q, want %q", tt.java, got, tt.internal)
		}
	}

	back := []struct {
		desc      string
		qualified bool
		suffix    bool
		want      string
	}{
		{"Ljava/lang/String;", true, true, "java.lang.String"},
		{"Ljava/lang/String;", false, true, "String"},
		{"[[I", true, true, "int[][]"},
		{"[[I", true, false, "[[I"},
		{"[Ljava/lang/Object;", true, false, "[Ljava.lang.Object;"},
		{"J", true, true, "long"},
	}
	for _, tt := range back {
		if got := InternalNameToJava(tt.desc, tt.qualified, tt.suffix); got != tt.want {
			t.Errorf("InternalNameToJava(%q, %v, %v) = %q, want %q", tt.desc, tt.qualified, tt.suffix, got, tt.want)
		}
	}
}

func TestComponentDescriptor(t *testing.T) {
	if ComponentDescriptor("[[I") != "[I" || ComponentDescriptor("I") != "" {
		t.Errorf("ComponentDescriptor broken")
	}
	if ArrayDescriptor("Ljava/lang/String;") != "[Ljava/lang/String;" {
		t.Errorf("ArrayDescriptor broken")
	}
	if !IsPrimitiveDescriptor("V") || !IsPrimitiveDescriptor("I") || IsPrimitiveDescriptor("[I") {
		t.Errorf("IsPrimitiveDescriptor broken")
	}
}
