package typesystem

import "strings"

// ToInternalName converts a Java type name into a type descriptor.
//
//	"java.lang.String"    -> "Ljava/lang/String;"
//	"int"                 -> "I"
//	"[Ljava.lang.Object;" -> "[Ljava/lang/Object;"
//	"int[][]"             -> "[[I"
//
// Descriptors and slash-separated class names are accepted as they are.
func ToInternalName(name string) string {
	dims := 0
	for strings.HasSuffix(name, "[]") {
		name = name[:len(name)-2]
		dims++
	}
	prefix := strings.Repeat("[", dims)

	if k, ok := KindFromName(name); ok {
		return prefix + string(k.TypeChar())
	}
	if strings.HasPrefix(name, "[") {
		return prefix + strings.ReplaceAll(name, ".", "/")
	}
	if strings.HasPrefix(name, "L") && strings.HasSuffix(name, ";") && strings.Contains(name, "/") {
		return prefix + name
	}
	return prefix + "L" + strings.ReplaceAll(name, ".", "/") + ";"
}

// InternalNameToJava converts a descriptor back to a Java name. With
// qualified unset the package is dropped; with arraySuffix set arrays are
// written as "int[]" instead of "[I".
func InternalNameToJava(desc string, qualified, arraySuffix bool) string {
	if strings.HasPrefix(desc, "[") {
		if !arraySuffix {
			return strings.ReplaceAll(desc, "/", ".")
		}
		return InternalNameToJava(desc[1:], qualified, true) + "[]"
	}
	if len(desc) == 1 {
		if k := KindFromTypeChar(desc[0]); k != Illegal && k != Object {
			return k.String()
		}
	}
	name := desc
	if strings.HasPrefix(name, "L") && strings.HasSuffix(name, ";") {
		name = name[1 : len(name)-1]
	}
	if !qualified {
		if i := strings.LastIndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
	}
	return strings.ReplaceAll(name, "/", ".")
}

// ClassNameOf returns the slash-separated class name of an object type
// descriptor ("Ljava/lang/String;" -> "java/lang/String").
func ClassNameOf(desc string) string {
	if strings.HasPrefix(desc, "L") && strings.HasSuffix(desc, ";") {
		return desc[1 : len(desc)-1]
	}
	return desc
}
