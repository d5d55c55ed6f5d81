// Package logger builds the process logger: everything at the file level goes
// to a rotating file, INFO and above also goes to the console.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configure the file sink.
type Options struct {
	Level      string // level for the file sink: trace, debug, info, warn, error
	File       string // empty disables the file sink
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns the logger and a closer for the file sink. console is usually os.Stdout.
func New(opts Options, console io.Writer) (zerolog.Logger, io.Closer, error) {
	fileLevel := zerolog.DebugLevel
	if opts.Level != "" {
		lvl, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("invalid log level: %w", err)
		}
		fileLevel = lvl
	}
	zerolog.TimeFieldFormat = time.RFC3339

	if console == nil {
		console = os.Stdout
	}
	consoleSink := zerolog.FilteredLevelWriter{
		Writer: zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"}},
		Level:  zerolog.InfoLevel,
	}
	writers := []io.Writer{&consoleSink}
	rootLevel := zerolog.InfoLevel

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: rotating},
			Level:  fileLevel,
		})
		closer = rotating
		if fileLevel < rootLevel {
			rootLevel = fileLevel
		}
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(rootLevel).
		With().
		Timestamp().
		Logger()
	return log, closer, nil
}
