// Package logging builds the application's logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction
type Options struct {
	Level  string
	Format string // "text" or "json"
	File   string // rotated log file; stdout when empty
}

// New creates a logger writing to stdout or to a rotating file
func New(opts Options) (*logrus.Logger, error) {
	log := logrus.New()

	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format: %s", opts.Format)
	}

	var out io.Writer = os.Stdout
	if opts.File != "" {
		out = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	log.SetOutput(out)

	return log, nil
}

// Close releases the rotating file writer, if any
func Close(log *logrus.Logger) error {
	if rotator, ok := log.Out.(*lumberjack.Logger); ok {
		return rotator.Close()
	}
	return nil
}

// Discard returns a logger that drops everything, for tests and optional collaborators
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// parseLevel maps the configured level onto logrus levels.
// Trace and panic are not used.
func parseLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel, nil
	case "", "info":
		return logrus.InfoLevel, nil
	case "warning", "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	case "fatal":
		return logrus.FatalLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("bad log level string: %q", level)
	}
}
