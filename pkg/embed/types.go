package jmeta

import (
	"strings"

	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/meta"
	"github.com/funvibe/jmeta/internal/typesystem"
	"github.com/funvibe/jmeta/internal/vm"
)

// Object model aliases
type Object = vm.Object
type Runtime = vm.Runtime
type NativeFunc = vm.NativeFunc
type GuestException = vm.GuestException
type Klass = meta.Klass
type Method = meta.Method
type Field = meta.Field
type KlassInstance = meta.KlassInstance
type MethodInstance = meta.MethodInstance
type FieldInstance = meta.FieldInstance
type Failure = meta.Failure
type ConversionError = meta.ConversionError
type Config = config.Config
type Kind = typesystem.Kind

// Re-export sentinels
var (
	Null = vm.Null
	Void = vm.Void
)

// LoadConfig reads a session configuration file.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// DefaultConfig is the configuration of a session with only the boot
// library.
func DefaultConfig() Config {
	return config.Default()
}

// NativeKey returns the default native key of a method,
// "<class>.<name><descriptor>" with a slash-separated class name.
func NativeKey(class, name, descriptor string) string {
	return strings.ReplaceAll(class, ".", "/") + "." + name + descriptor
}
