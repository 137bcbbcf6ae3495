package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the message sink handed to every component.
type Logger interface {
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

type Options struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type zeroLogger struct {
	zl zerolog.Logger
}

// New builds a zerolog backed Logger writing to console and, optionally, a
// rotated log file. The returned closer releases the file.
func New(console io.Writer, opts Options) (Logger, func() error, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	var out io.Writer = console
	switch opts.Format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05", NoColor: !isTerminal(console)}
	case "json":
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	closer := func() error { return nil }
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, err
		}
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		out = zerolog.MultiLevelWriter(out, rotated)
		closer = rotated.Close
	}

	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &zeroLogger{zl: zl}, closer, nil
}

// NewWriter returns a JSON Logger over w, used by tests to capture output.
func NewWriter(w io.Writer) Logger {
	return &zeroLogger{zl: zerolog.New(w)}
}

func Nop() Logger {
	return &zeroLogger{zl: zerolog.Nop()}
}

func (l *zeroLogger) Info(msg string, keyvals ...any) {
	l.zl.Info().Fields(keyvals).Msg(msg)
}

func (l *zeroLogger) Warn(msg string, keyvals ...any) {
	l.zl.Warn().Fields(keyvals).Msg(msg)
}

func (l *zeroLogger) Error(msg string, keyvals ...any) {
	l.zl.Error().Fields(keyvals).Msg(msg)
}

func (l *zeroLogger) With(keyvals ...any) Logger {
	return &zeroLogger{zl: l.zl.With().Fields(keyvals).Logger()}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
