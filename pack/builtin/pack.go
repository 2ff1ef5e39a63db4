// Package builtin provides the builtin tools, skill and sub-worker.
package builtin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dokkiitech/LinkDeck-sub000/domain/capability"
	"github.com/dokkiitech/LinkDeck-sub000/infrastructure/planner"
)

// Builtin capability names.
const (
	ToolEcho           = "echo"
	ToolReadFile       = "read_file"
	ToolWriteFile      = "write_file"
	ToolListDirectory  = "list_directory"
	ToolWatchDirectory = "watch_directory"
	SkillContextDigest = "context-digest"
	WorkerSummarizer   = "summarizer"
)

// ErrUnknownBuiltin indicates a name that is not a builtin capability.
var ErrUnknownBuiltin = errors.New("unknown builtin capability")

// Config configures the builtin capabilities.
type Config struct {
	// Root confines file tools to this directory. Empty means the working directory.
	Root string

	// MaxFileSize limits reads (bytes).
	MaxFileSize int64

	// AllowSymlinks allows following symbolic links below Root.
	AllowSymlinks bool

	// WatchBufferSize caps the events one watch returns.
	WatchBufferSize int

	// MaxWatch caps how long one watch may block.
	MaxWatch time.Duration

	// Provider lets the summarizer ask a model; nil gives a local digest.
	Provider planner.Provider
}

// Option configures the builtin capabilities.
type Option func(*Config)

// WithRoot confines file tools to dir.
func WithRoot(dir string) Option {
	return func(c *Config) {
		c.Root = dir
	}
}

// WithMaxFileSize sets the maximum file size for reads.
func WithMaxFileSize(size int64) Option {
	return func(c *Config) {
		c.MaxFileSize = size
	}
}

// WithSymlinks enables following symbolic links.
func WithSymlinks() Option {
	return func(c *Config) {
		c.AllowSymlinks = true
	}
}

// WithProvider lets the summarizer delegate to a reasoning provider.
func WithProvider(p planner.Provider) Option {
	return func(c *Config) {
		c.Provider = p
	}
}

// newConfig applies opts and resolves the root directory.
func newConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		MaxFileSize:     10 * 1024 * 1024,
		WatchBufferSize: 100,
		MaxWatch:        60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	root := cfg.Root
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("root directory does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, errors.New("root path is not a directory")
	}
	cfg.Root = abs
	return cfg, nil
}

// Names lists every builtin capability name.
func Names() []string {
	return []string{
		ToolEcho, ToolReadFile, ToolWriteFile, ToolListDirectory, ToolWatchDirectory,
		SkillContextDigest, WorkerSummarizer,
	}
}

// Register adds the named builtins to r. An empty list registers the echo tool only.
func Register(r capability.Registry, names []string, opts ...Option) error {
	if len(names) == 0 {
		names = []string{ToolEcho}
	}

	var cfg *Config
	fsConfig := func() (*Config, error) {
		if cfg != nil {
			return cfg, nil
		}
		c, err := newConfig(opts...)
		if err != nil {
			return nil, err
		}
		cfg = c
		return cfg, nil
	}

	for _, name := range names {
		var err error
		switch name {
		case ToolEcho:
			err = r.RegisterTool(Echo())
		case ToolReadFile, ToolWriteFile, ToolListDirectory, ToolWatchDirectory:
			c, cerr := fsConfig()
			if cerr != nil {
				return cerr
			}
			err = r.RegisterTool(fileTool(name, c))
		case SkillContextDigest:
			err = r.RegisterSkill(ContextDigest())
		case WorkerSummarizer:
			c, cerr := fsConfig()
			if cerr != nil {
				return cerr
			}
			err = r.RegisterSubworker(Summarizer(c.Provider))
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownBuiltin, name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func fileTool(name string, cfg *Config) capability.Tool {
	switch name {
	case ToolReadFile:
		return readTool(cfg)
	case ToolWriteFile:
		return writeTool(cfg)
	case ToolListDirectory:
		return listTool(cfg)
	default:
		return watchTool(cfg)
	}
}
