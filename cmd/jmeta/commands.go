package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/funvibe/jmeta/internal/classdef"
	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/logs"
	"github.com/funvibe/jmeta/internal/meta"
	jmeta "github.com/funvibe/jmeta/pkg/embed"
)

// Commands runs one CLI command against a session built from cfg.
type Commands struct {
	cfg    config.Config
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
	styles Styles
}

// usageError reports wrong arguments; it holds the expected synopsis.
type usageError string

func (e usageError) Error() string { return "usage: " + appName + " " + string(e) }

var errHashMismatch = errors.New("guest hash differs from host hash")

// Run executes args[0] with the remaining arguments and returns the exit
// status.
func (c Commands) Run(args []string) int {
	name, rest := args[0], args[1:]
	ctx := logs.WithOperation(context.Background(), name)

	var err error
	switch name {
	case "hierarchy":
		err = c.withClass(ctx, "hierarchy <class>", rest, c.hierarchy)
	case "interfaces":
		err = c.withClass(ctx, "interfaces <class>", rest, c.interfaces)
	case "methods":
		err = c.methods(ctx, rest)
	case "fields":
		err = c.withClass(ctx, "fields <class>", rest, c.fields)
	case "assignable":
		err = c.assignable(ctx, rest)
	case "import":
		err = c.importDir(ctx, rest)
	case "hash":
		err = c.hash(ctx, rest)
	case "help":
		usage(c.out)
		return 0
	default:
		fmt.Fprintf(c.errOut, "%s: unknown command %q\n", appName, name)
		usage(c.errOut)
		return 2
	}

	if err == nil {
		return 0
	}
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(c.errOut, ue.Error())
		return 2
	}
	c.logger.DebugContext(ctx, "command failed", "err", err)
	fmt.Fprintf(c.errOut, "%s: %s\n", appName, c.styles.Bad(err.Error()))
	return 1
}

func (c Commands) session(ctx context.Context) (*jmeta.Session, error) {
	s, err := jmeta.New(c.cfg, jmeta.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "session ready", "session", s.Meta().SessionID())
	return s, nil
}

func (c Commands) withClass(ctx context.Context, synopsis string, args []string, fn func(*meta.Klass) error) error {
	if len(args) != 1 {
		return usageError(synopsis)
	}
	s, err := c.session(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	k, err := s.Klass(args[0])
	if err != nil {
		return err
	}
	return meta.Guard(func() error { return fn(k) })
}

func (c Commands) hierarchy(k *meta.Klass) error {
	fmt.Fprintln(c.out, c.styles.Heading("hierarchy of "+k.Name()))
	depth := 0
	for t := range k.Supertypes() {
		fmt.Fprintf(c.out, "%s%s\n", strings.Repeat("  ", depth), t.Name())
		depth++
	}
	return nil
}

func (c Commands) interfaces(k *meta.Klass) error {
	fmt.Fprintln(c.out, c.styles.Heading("interfaces of "+k.Name()))
	seen := make(map[*meta.Klass]bool)
	for _, i := range k.Interfaces(true) {
		if seen[i] {
			continue
		}
		seen[i] = true
		fmt.Fprintln(c.out, i.Name())
	}
	return nil
}

func (c Commands) methods(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("methods", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	inherited := fs.Bool("inherited", false, "include methods of superclasses")
	if err := fs.Parse(args); err != nil {
		return usageError("methods [-inherited] <class>")
	}
	rest := fs.Args()
	if len(rest) > 1 {
		// Flags may follow the class name.
		class := rest[0]
		if err := fs.Parse(rest[1:]); err != nil {
			return usageError("methods [-inherited] <class>")
		}
		rest = append([]string{class}, fs.Args()...)
	}
	return c.withClass(ctx, "methods [-inherited] <class>", rest, func(k *meta.Klass) error {
		fmt.Fprintln(c.out, c.styles.Heading("methods of "+k.Name()))
		for _, m := range k.Methods(*inherited) {
			fmt.Fprintf(c.out, "%s%s%s\n", modifierPrefix(m.Modifiers().Names()), m.Name(), m.Signature())
			if m.DeclaringClass() != k {
				fmt.Fprintln(c.out, c.styles.Muted("    from "+m.DeclaringClass().Name()))
			}
		}
		return nil
	})
}

func (c Commands) fields(k *meta.Klass) error {
	fmt.Fprintln(c.out, c.styles.Heading("fields of "+k.Name()))
	for _, f := range k.Fields() {
		fmt.Fprintf(c.out, "%s%s %s\n", modifierPrefix(f.Modifiers().Names()), f.Name(), f.Descriptor())
	}
	return nil
}

func modifierPrefix(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return strings.Join(names, " ") + " "
}

func (c Commands) assignable(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("assignable <to> <from>")
	}
	s, err := c.session(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	to, err := s.Klass(args[0])
	if err != nil {
		return err
	}
	from, err := s.Klass(args[1])
	if err != nil {
		return err
	}
	return meta.Guard(func() error {
		if to.IsAssignableFrom(from) {
			fmt.Fprintln(c.out, c.styles.Good("true"))
		} else {
			fmt.Fprintln(c.out, c.styles.Bad("false"))
		}
		return nil
	})
}

// importDir checks that the class files of a directory resolve against the
// session classpath before writing them to the catalog.
func (c Commands) importDir(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("import <dir> <catalog>")
	}
	dir, path := args[0], args[1]
	defs, err := classdef.LoadDir(dir)
	if err != nil {
		return err
	}

	s, err := c.session(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	if _, err := s.Runtime().LoadClasses(s.Loader(), defs); err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}

	cat, err := classdef.OpenCatalog(ctx, path)
	if err != nil {
		return err
	}
	if err := cat.Put(ctx, defs...); err != nil {
		cat.Close()
		return err
	}
	if err := cat.Close(); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "classes imported", "dir", dir, "catalog", path, "classes", len(defs))
	fmt.Fprintf(c.out, "imported %d classes into %s\n", len(defs), path)
	return nil
}

func (c Commands) hash(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("hash <string>")
	}
	s, err := c.session(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	m := s.Meta()

	host := meta.StringHash(meta.StringValue(args[0]))
	guest, err := meta.GuardValue(func() (any, error) {
		return m.String.Method("hashCode", "int").InvokeDirect(m.ToGuestString(args[0]))
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %d\n", c.styles.Heading("host "), host)
	fmt.Fprintf(c.out, "%s %d\n", c.styles.Heading("guest"), guest)
	if guest != host {
		return errHashMismatch
	}
	return nil
}
