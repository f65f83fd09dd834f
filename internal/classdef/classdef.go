// Package classdef describes guest classes declaratively.
//
// A class definition names the class, its superclass and interfaces, its
// fields and its methods. Method bodies are not part of a definition: a
// method refers to a native implementation by key, which the runtime binds
// when the class is linked.
//
// Definitions come from YAML class files:
//
//	classes:
//	  - name: demo/Point
//	    super: java/lang/Object
//	    modifiers: [public]
//	    fields:
//	      - {name: x, type: I}
//	    methods:
//	      - {name: length, descriptor: "()D", native: demo/Point.length()D}
//
// or from an SQLite class catalog (see Catalog).
package classdef

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/typesystem"
	"gopkg.in/yaml.v3"
)

// File is the top-level layout of a YAML class file.
type File struct {
	Classes []Class `yaml:"classes"`
}

// Class is the definition of one guest class or interface.
type Class struct {
	// Name is the slash-separated binary name, e.g. "java/lang/String".
	Name string `yaml:"name"`

	// Super is the superclass name. Empty only for java/lang/Object and
	// for interfaces (which implicitly extend Object).
	Super string `yaml:"super,omitempty"`

	Interfaces []string `yaml:"interfaces,omitempty"`

	// Modifiers are keywords: public, final, abstract, interface...
	Modifiers []string `yaml:"modifiers,omitempty"`

	Fields  []Field  `yaml:"fields,omitempty"`
	Methods []Method `yaml:"methods,omitempty"`
}

// Field is a declared field.
type Field struct {
	Name string `yaml:"name"`
	// Type is a field descriptor: "I", "[C", "Ljava/lang/String;".
	Type      string   `yaml:"type"`
	Modifiers []string `yaml:"modifiers,omitempty"`
}

// Method is a declared method.
type Method struct {
	Name       string   `yaml:"name"`
	Descriptor string   `yaml:"descriptor"`
	Modifiers  []string `yaml:"modifiers,omitempty"`
	// Native is the key of the host implementation. Defaults to
	// "<class>.<name><descriptor>" when empty.
	Native string `yaml:"native,omitempty"`
}

// NativeKey returns the key the runtime uses to bind the method body.
func (m Method) NativeKey(owner string) string {
	if m.Native != "" {
		return m.Native
	}
	return owner + "." + m.Name + m.Descriptor
}

// IsInterface reports whether the definition declares an interface.
func (c Class) IsInterface() bool {
	return slices.Contains(c.Modifiers, "interface")
}

// Validate checks names, descriptors and member uniqueness.
func (c Class) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("class without name")
	}
	if strings.ContainsAny(c.Name, ".;[") {
		return fmt.Errorf("class %s: name must be slash-separated", c.Name)
	}
	if _, err := typesystem.ParseModifiers(c.Modifiers); err != nil {
		return fmt.Errorf("class %s: %w", c.Name, err)
	}
	if c.Super == "" && c.Name != config.ObjectClassName && !c.IsInterface() {
		return fmt.Errorf("class %s: missing superclass", c.Name)
	}

	fields := make(map[string]bool)
	for _, f := range c.Fields {
		if f.Name == "" {
			return fmt.Errorf("class %s: field without name", c.Name)
		}
		if fields[f.Name] {
			return fmt.Errorf("class %s: duplicate field %s", c.Name, f.Name)
		}
		fields[f.Name] = true
		if err := typesystem.ValidateFieldDescriptor(f.Type); err != nil {
			return fmt.Errorf("class %s: field %s: %w", c.Name, f.Name, err)
		}
		if _, err := typesystem.ParseModifiers(f.Modifiers); err != nil {
			return fmt.Errorf("class %s: field %s: %w", c.Name, f.Name, err)
		}
	}

	methods := make(map[string]bool)
	for _, m := range c.Methods {
		if m.Name == "" {
			return fmt.Errorf("class %s: method without name", c.Name)
		}
		key := m.Name + m.Descriptor
		if methods[key] {
			return fmt.Errorf("class %s: duplicate method %s", c.Name, key)
		}
		methods[key] = true
		if _, err := typesystem.ParseMethodDescriptor(m.Descriptor); err != nil {
			return fmt.Errorf("class %s: method %s: %w", c.Name, m.Name, err)
		}
		if _, err := typesystem.ParseModifiers(m.Modifiers); err != nil {
			return fmt.Errorf("class %s: method %s: %w", c.Name, m.Name, err)
		}
	}
	return nil
}

// Parse decodes a YAML class file and validates every class in it.
func Parse(data []byte) ([]Class, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse class file: %w", err)
	}
	for _, c := range file.Classes {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return file.Classes, nil
}

// LoadFile reads one YAML class file.
func LoadFile(path string) ([]Class, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	classes, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return classes, nil
}

// LoadDir reads every class file in dir in lexical order. Subdirectories
// are not descended.
func LoadDir(dir string) ([]Class, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var all []Class
	for _, entry := range entries {
		if entry.IsDir() || !config.IsClassFile(entry.Name()) {
			continue
		}
		classes, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		all = append(all, classes...)
	}
	return all, nil
}

// Marshal encodes classes as a YAML class file.
func Marshal(classes []Class) ([]byte, error) {
	return yaml.Marshal(File{Classes: classes})
}

// Sort orders definitions so that every class comes after its superclass
// and interfaces when those are part of the same set. References to classes
// outside the set are assumed to be already defined.
func Sort(classes []Class) ([]Class, error) {
	byName := make(map[string]Class, len(classes))
	for _, c := range classes {
		if _, dup := byName[c.Name]; dup {
			return nil, fmt.Errorf("class %s defined twice", c.Name)
		}
		byName[c.Name] = c
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(classes))
	sorted := make([]Class, 0, len(classes))

	var visit func(name string) error
	visit = func(name string) error {
		c, ok := byName[name]
		if !ok {
			return nil
		}
		switch state[name] {
		case visiting:
			return fmt.Errorf("class hierarchy cycle at %s", name)
		case done:
			return nil
		}
		state[name] = visiting
		deps := append([]string{c.Super}, c.Interfaces...)
		for _, dep := range deps {
			if dep == "" {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		sorted = append(sorted, c)
		return nil
	}

	// Visit in input order for stable output.
	for _, c := range classes {
		if err := visit(c.Name); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}

// Names returns the sorted class names of a definition set.
func Names(classes []Class) []string {
	set := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		set[c.Name] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}
