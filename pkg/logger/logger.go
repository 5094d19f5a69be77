package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/annweb/mailroom"
)

const (
	maxSize = 10
	maxBack = 5
	maxAge  = 30
)

// New returns the service logger. It writes to stdout and, when config.Log.File is set,
// to a rotated file as well.
func New(config *mailroom.Config, service string) zerolog.Logger {
	return NewWithWriter(os.Stdout, config, service)
}

func NewWithWriter(out io.Writer, config *mailroom.Config, service string) zerolog.Logger {
	if config.Log.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	writers := []io.Writer{out}
	if config.Log.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   config.Log.File,
			MaxSize:    maxSize,
			MaxBackups: maxBack,
			MaxAge:     maxAge,
			Compress:   true,
		})
	}

	level, err := zerolog.ParseLevel(config.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).With().
		Timestamp().
		Str("service", service).
		Logger().
		Level(level)
}
