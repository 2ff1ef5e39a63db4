// Package logging is the process-wide structured logger, backed by bolt.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/felixgeelhaar/bolt/v3"
)

// Config selects level, encoding and destination.
type Config struct {
	// Level is trace, debug, info, warn or error.
	Level string
	// Format is json or console.
	Format string
	// Output defaults to stderr.
	Output io.Writer
}

var current atomic.Pointer[bolt.Logger]

var levels = map[string]bolt.Level{
	"trace": bolt.TRACE,
	"debug": bolt.DEBUG,
	"info":  bolt.INFO,
	"warn":  bolt.WARN,
	"error": bolt.ERROR,
}

// ParseLevel maps a level name to a bolt level. Names are case-insensitive.
func ParseLevel(name string) (bolt.Level, error) {
	if lvl, ok := levels[strings.ToLower(name)]; ok {
		return lvl, nil
	}
	return bolt.INFO, fmt.Errorf("unknown log level %q", name)
}

// New builds a logger from cfg without installing it.
func New(cfg Config) (*bolt.Logger, error) {
	lvl := bolt.INFO
	if cfg.Level != "" {
		var err error
		if lvl, err = ParseLevel(cfg.Level); err != nil {
			return nil, err
		}
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var handler bolt.Handler
	switch cfg.Format {
	case "json":
		handler = bolt.NewJSONHandler(out)
	case "", "console":
		handler = bolt.NewConsoleHandler(out)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return bolt.New(handler).SetLevel(lvl), nil
}

// Init installs a logger built from cfg as the process logger.
func Init(cfg Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	current.Store(l)
	return nil
}

// Get returns the process logger. Until Init runs it logs warnings and
// errors to stderr.
func Get() *bolt.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	l, _ := New(Config{Level: "warn"})
	current.CompareAndSwap(nil, l)
	return current.Load()
}

// LogEvent collects Fields before the message is written.
type LogEvent struct {
	event *bolt.Event
}

func (l *LogEvent) Add(f Field) *LogEvent {
	l.event = f(l.event)
	return l
}

func (l *LogEvent) Msg(msg string) { l.event.Msg(msg) }

func Trace() *LogEvent { return &LogEvent{event: Get().Trace()} }
func Debug() *LogEvent { return &LogEvent{event: Get().Debug()} }
func Info() *LogEvent { return &LogEvent{event: Get().Info()} }
func Warn() *LogEvent { return &LogEvent{event: Get().Warn()} }
func Error() *LogEvent { return &LogEvent{event: Get().Error()} }
