package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

type Options struct {
	Name   string
	Level  string
	Format string
	Output io.Writer
}

// New builds the process logger. Format "json" emits one JSON object per line.
func New(opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Level:      level,
		Output:     out,
		JSONFormat: strings.EqualFold(opts.Format, "json"),
	})
}

// Discard is used by tests and by commands that never log.
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}
