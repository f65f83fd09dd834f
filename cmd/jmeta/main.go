package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/funvibe/jmeta/internal/config"
	"github.com/reusee/dscope"
)

const appName = "jmeta"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// pathList collects a repeatable flag. A single value may also hold
// several entries separated by the OS list separator.
type pathList []string

func (p *pathList) String() string { return strings.Join(*p, string(os.PathListSeparator)) }

func (p *pathList) Set(v string) error {
	for _, entry := range strings.Split(v, string(os.PathListSeparator)) {
		if entry != "" {
			*p = append(*p, entry)
		}
	}
	return nil
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "configuration `file` (default ./"+config.DefaultConfigFile+" if present)")
	var classpath pathList
	fs.Var(&classpath, "classpath", "`dir` of class files, may be repeated")
	catalog := fs.String("catalog", "", "SQLite class catalog `file`")
	verbose := fs.Bool("v", false, "log debug output")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		usage(stderr)
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 1
	}
	cfg.Classpath = append(cfg.Classpath, classpath...)
	if *catalog != "" {
		cfg.Catalog = *catalog
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}

	code := 0
	dscope.New(
		new(Module),
		dscope.Provide(cfg),
		func() Stdout { return stdout },
		func() Stderr { return stderr },
	).Call(func(cmds Commands) {
		code = cmds.Run(fs.Args())
	})
	return code
}

// loadConfig reads path, or the default file when it exists in the
// working directory.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigFile); err != nil {
			return config.Default(), nil
		}
		path = config.DefaultConfigFile
	}
	return config.Load(path)
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `Usage:
  %s [-config file] [-classpath dir] [-catalog db] [-v] <command> [args]

Commands:
  hierarchy <class>               Print the supertype chain.
  interfaces <class>              Print every implemented interface.
  methods [-inherited] <class>    Print declared (or all) methods.
  fields <class>                  Print declared fields.
  assignable <to> <from>          Report whether <from> is assignable to <to>.
  import <dir> <catalog>          Store the class files of dir in a catalog.
  hash <string>                   Compare host and guest String hash codes.
`, appName)
}
