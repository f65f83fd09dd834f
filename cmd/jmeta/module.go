package main

import (
	"io"
	"log/slog"

	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/logs"
	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
}

type (
	Stdout io.Writer
	Stderr io.Writer
)

func (Module) Logger(
	cfg config.Config,
	stderr Stderr,
) *slog.Logger {
	return logs.New(logs.Options{
		Writer:  stderr,
		Level:   cfg.Level(),
		Journal: cfg.Journal,
	})
}

func (Module) Styles(
	stdout Stdout,
) Styles {
	return detectStyles(stdout)
}

func (Module) Commands(
	cfg config.Config,
	logger *slog.Logger,
	stdout Stdout,
	stderr Stderr,
	styles Styles,
) Commands {
	return Commands{
		cfg:    cfg,
		logger: logger,
		out:    stdout,
		errOut: stderr,
		styles: styles,
	}
}
