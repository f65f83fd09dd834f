package config

import "strings"

// DefaultConfigFile is the session configuration looked up by the CLI.
const DefaultConfigFile = "jmeta.yaml"

// ClassFileExtensions are all recognized class definition file extensions
var ClassFileExtensions = []string{".yaml", ".yml"}

// IsClassFile checks if a file has a recognized class definition extension
func IsClassFile(path string) bool {
	for _, ext := range ClassFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Well-known class names (slash-separated binary names)
const (
	ObjectClassName             = "java/lang/Object"
	StringClassName             = "java/lang/String"
	ClassClassName              = "java/lang/Class"
	CloneableClassName          = "java/lang/Cloneable"
	SerializableClassName       = "java/io/Serializable"
	ThrowableClassName          = "java/lang/Throwable"
	StackOverflowErrorClassName = "java/lang/StackOverflowError"
	OutOfMemoryErrorClassName   = "java/lang/OutOfMemoryError"
	ArrayStoreExceptionName     = "java/lang/ArrayStoreException"
	UnsatisfiedLinkErrorName    = "java/lang/UnsatisfiedLinkError"
	NoClassDefFoundErrorName    = "java/lang/NoClassDefFoundError"
	IndexOutOfBoundsName        = "java/lang/IndexOutOfBoundsException"
	NullPointerExceptionName    = "java/lang/NullPointerException"
	ClassLoaderClassName        = "java/lang/ClassLoader"
	RuntimeExceptionName        = "java/lang/RuntimeException"
)

// Special method names
const (
	ConstructorName      = "<init>"
	ClassInitializerName = "<clinit>"
)

// Field names of the guest String layout
const (
	StringValueField = "value"
	StringHashField  = "hash"
)

// ThrowableMessageField holds the detail message of a guest throwable.
const ThrowableMessageField = "detailMessage"
