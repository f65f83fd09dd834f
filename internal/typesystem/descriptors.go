package typesystem

import (
	"slices"
	"strings"
)

// Signature is a parsed method descriptor: ordered parameter type
// descriptors and a result type descriptor.
type Signature struct {
	Params []string
	Result string
}

// ParseMethodDescriptor parses a descriptor such as "(ILjava/lang/String;)V".
func ParseMethodDescriptor(desc string) (Signature, error) {
	if len(desc) < 3 || desc[0] != '(' {
		return Signature{}, &DescriptorError{Descriptor: desc, Reason: "missing parameter list"}
	}
	var sig Signature
	i := 1
	for i < len(desc) && desc[i] != ')' {
		n, err := fieldDescriptorLen(desc[i:])
		if err != nil {
			return Signature{}, &DescriptorError{Descriptor: desc, Reason: err.Error()}
		}
		sig.Params = append(sig.Params, desc[i:i+n])
		i += n
	}
	if i >= len(desc) {
		return Signature{}, &DescriptorError{Descriptor: desc, Reason: "unterminated parameter list"}
	}
	result := desc[i+1:]
	if result != "V" {
		if err := ValidateFieldDescriptor(result); err != nil {
			return Signature{}, &DescriptorError{Descriptor: desc, Reason: "bad result type"}
		}
	}
	sig.Result = result
	return sig, nil
}

// NewSignature builds a signature from a result and parameter descriptors.
func NewSignature(result string, params ...string) Signature {
	return Signature{Params: slices.Clone(params), Result: result}
}

func (s Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range s.Params {
		b.WriteString(p)
	}
	b.WriteByte(')')
	b.WriteString(s.Result)
	return b.String()
}

// ParameterCount returns the number of argument slots, counting the
// receiver when withReceiver is set.
func (s Signature) ParameterCount(withReceiver bool) int {
	if withReceiver {
		return len(s.Params) + 1
	}
	return len(s.Params)
}

func (s Signature) ResultKind() Kind { return KindFromDescriptor(s.Result) }

func (s Signature) ParameterKinds() []Kind {
	kinds := make([]Kind, len(s.Params))
	for i, p := range s.Params {
		kinds[i] = KindFromDescriptor(p)
	}
	return kinds
}

func (s Signature) Equal(o Signature) bool {
	return s.Result == o.Result && slices.Equal(s.Params, o.Params)
}

// ValidateFieldDescriptor checks that desc is exactly one field type
// descriptor ("I", "[J", "Ljava/lang/Object;").
func ValidateFieldDescriptor(desc string) error {
	n, err := fieldDescriptorLen(desc)
	if err != nil {
		return &DescriptorError{Descriptor: desc, Reason: err.Error()}
	}
	if n != len(desc) {
		return &DescriptorError{Descriptor: desc, Reason: "trailing characters"}
	}
	return nil
}

func fieldDescriptorLen(s string) (int, error) {
	dims := 0
	for dims < len(s) && s[dims] == '[' {
		dims++
	}
	if dims == len(s) {
		return 0, errTruncated
	}
	switch s[dims] {
	case 'Z', 'B', 'S', 'C', 'I', 'F', 'J', 'D':
		return dims + 1, nil
	case 'L':
		end := strings.IndexByte(s[dims:], ';')
		if end <= 1 {
			return 0, errTruncated
		}
		return dims + end + 1, nil
	}
	return 0, errBadTypeChar
}

// ComponentDescriptor returns the element descriptor of an array
// descriptor, or "" when desc is not an array.
func ComponentDescriptor(desc string) string {
	if strings.HasPrefix(desc, "[") {
		return desc[1:]
	}
	return ""
}

// ArrayDescriptor returns the descriptor of an array of desc.
func ArrayDescriptor(desc string) string { return "[" + desc }

// IsPrimitiveDescriptor reports whether desc names a primitive type or void.
func IsPrimitiveDescriptor(desc string) bool {
	if len(desc) != 1 {
		return false
	}
	k := KindFromTypeChar(desc[0])
	return k.IsPrimitive() || k == Void
}
