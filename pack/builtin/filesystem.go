package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dokkiitech/LinkDeck-sub000/domain/capability"
)

// Path errors.
var (
	ErrPathEscapesRoot = errors.New("path escapes root directory")
	ErrSymlink         = errors.New("symbolic links not allowed")
)

// resolvePath maps a tool path onto an absolute path below the root.
// Relative paths are taken relative to the root.
func resolvePath(cfg *Config, path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Root, path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	rel, err := filepath.Rel(cfg.Root, absPath)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, path)
	}

	if !cfg.AllowSymlinks && rel != "." {
		current := cfg.Root
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			current = filepath.Join(current, part)
			info, err := os.Lstat(current)
			if err != nil {
				if os.IsNotExist(err) {
					break
				}
				return "", err
			}
			if info.Mode()&fs.ModeSymlink != 0 {
				return "", fmt.Errorf("%w: %s", ErrSymlink, current)
			}
		}
	}

	return absPath, nil
}

func pathSchema() *capability.Schema {
	return capability.NewSchema().
		Field("path", capability.Required(), capability.TypeOf(capability.TypeString), capability.MaxLength(4096))
}

func intParam(params map[string]any, key string) int64 {
	switch v := params[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}

// ReadResult is returned by read_file.
type ReadResult struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Size      int64  `json:"size"`
	Truncated bool   `json:"truncated,omitempty"`
	ModTime   string `json:"mod_time"`
}

func readTool(cfg *Config) capability.Tool {
	return capability.NewTool(ToolReadFile).
		WithDescription("Read a text file below the workspace root").
		WithCategory(capability.CategoryBuiltin).
		WithSchema(pathSchema().Field("length", capability.TypeOf(capability.TypeNumber))).
		WithHandler(func(_ context.Context, params map[string]any) (any, error) {
			absPath, err := resolvePath(cfg, params["path"].(string))
			if err != nil {
				return nil, err
			}

			info, err := os.Stat(absPath)
			if err != nil {
				return nil, err
			}
			if info.IsDir() {
				return nil, errors.New("cannot read directory")
			}

			f, err := os.Open(absPath) // #nosec G304 -- path validated above
			if err != nil {
				return nil, err
			}
			defer f.Close()

			limit := cfg.MaxFileSize
			if n := intParam(params, "length"); n > 0 && n < limit {
				limit = n
			}

			// One extra byte detects truncation.
			data, err := io.ReadAll(io.LimitReader(f, limit+1))
			if err != nil {
				return nil, err
			}
			truncated := int64(len(data)) > limit
			if truncated {
				data = data[:limit]
			}

			return ReadResult{
				Path:      absPath,
				Content:   string(data),
				Size:      int64(len(data)),
				Truncated: truncated,
				ModTime:   info.ModTime().Format(time.RFC3339),
			}, nil
		}).
		MustBuild()
}

// WriteResult is returned by write_file.
type WriteResult struct {
	Path    string `json:"path"`
	Bytes   int    `json:"bytes"`
	Created bool   `json:"created"`
}

func writeTool(cfg *Config) capability.Tool {
	return capability.NewTool(ToolWriteFile).
		WithDescription("Write or append text to a file below the workspace root").
		WithCategory(capability.CategoryBuiltin).
		WithSchema(pathSchema().
			Field("content", capability.Required(), capability.TypeOf(capability.TypeString)).
			Field("append", capability.TypeOf(capability.TypeBoolean))).
		WithHandler(func(_ context.Context, params map[string]any) (any, error) {
			absPath, err := resolvePath(cfg, params["path"].(string))
			if err != nil {
				return nil, err
			}

			_, statErr := os.Stat(absPath)
			created := os.IsNotExist(statErr)

			if err := os.MkdirAll(filepath.Dir(absPath), 0750); err != nil { // #nosec G301 -- restrictive permissions
				return nil, err
			}

			flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			if appendMode, _ := params["append"].(bool); appendMode {
				flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
			}

			f, err := os.OpenFile(absPath, flags, 0600) // #nosec G304 -- path validated above
			if err != nil {
				return nil, err
			}
			defer f.Close()

			n, err := f.WriteString(params["content"].(string))
			if err != nil {
				return nil, err
			}
			return WriteResult{Path: absPath, Bytes: n, Created: created}, nil
		}).
		MustBuild()
}

// Entry is one directory entry.
type Entry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

// ListResult is returned by list_directory.
type ListResult struct {
	Path      string  `json:"path"`
	Entries   []Entry `json:"entries"`
	Count     int     `json:"count"`
	Truncated bool    `json:"truncated,omitempty"`
}

const maxListEntries = 1000

func listTool(cfg *Config) capability.Tool {
	return capability.NewTool(ToolListDirectory).
		WithDescription("List a directory below the workspace root").
		WithCategory(capability.CategoryBuiltin).
		WithSchema(capability.NewSchema().
			Field("path", capability.TypeOf(capability.TypeString)).
			Field("pattern", capability.TypeOf(capability.TypeString))).
		WithHandler(func(ctx context.Context, params map[string]any) (any, error) {
			path, _ := params["path"].(string)
			if path == "" {
				path = "."
			}
			absPath, err := resolvePath(cfg, path)
			if err != nil {
				return nil, err
			}

			dirEntries, err := os.ReadDir(absPath)
			if err != nil {
				return nil, err
			}

			pattern, _ := params["pattern"].(string)
			entries := make([]Entry, 0, len(dirEntries))
			truncated := false
			for _, d := range dirEntries {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				if pattern != "" {
					if matched, _ := filepath.Match(pattern, d.Name()); !matched {
						continue
					}
				}
				if len(entries) >= maxListEntries {
					truncated = true
					break
				}
				var size int64
				if info, err := d.Info(); err == nil {
					size = info.Size()
				}
				entries = append(entries, Entry{Name: d.Name(), IsDir: d.IsDir(), Size: size})
			}

			return ListResult{Path: absPath, Entries: entries, Count: len(entries), Truncated: truncated}, nil
		}).
		MustBuild()
}

// WatchEvent is one filesystem change.
type WatchEvent struct {
	Name      string `json:"name"`
	Operation string `json:"operation"`
}

// WatchResult is returned by watch_directory.
type WatchResult struct {
	Path   string       `json:"path"`
	Events []WatchEvent `json:"events"`
	Count  int          `json:"count"`
}

func watchTool(cfg *Config) capability.Tool {
	return capability.NewTool(ToolWatchDirectory).
		WithDescription("Collect changes to a directory below the workspace root for a few seconds").
		WithCategory(capability.CategoryBuiltin).
		WithSchema(capability.NewSchema().
			Field("path", capability.TypeOf(capability.TypeString)).
			Field("duration_ms", capability.TypeOf(capability.TypeNumber))).
		WithHandler(func(ctx context.Context, params map[string]any) (any, error) {
			path, _ := params["path"].(string)
			if path == "" {
				path = "."
			}
			absPath, err := resolvePath(cfg, path)
			if err != nil {
				return nil, err
			}

			duration := time.Duration(intParam(params, "duration_ms")) * time.Millisecond
			if duration <= 0 {
				duration = 5 * time.Second
			}
			if duration > cfg.MaxWatch {
				duration = cfg.MaxWatch
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return nil, fmt.Errorf("failed to create watcher: %w", err)
			}
			defer watcher.Close()

			if err := watcher.Add(absPath); err != nil {
				return nil, fmt.Errorf("failed to watch path: %w", err)
			}

			events := make([]WatchEvent, 0)
			timer := time.NewTimer(duration)
			defer timer.Stop()

			for len(events) < cfg.WatchBufferSize {
				select {
				case <-ctx.Done():
					return WatchResult{Path: absPath, Events: events, Count: len(events)}, nil
				case <-timer.C:
					return WatchResult{Path: absPath, Events: events, Count: len(events)}, nil
				case event, ok := <-watcher.Events:
					if !ok {
						return WatchResult{Path: absPath, Events: events, Count: len(events)}, nil
					}
					rel, err := filepath.Rel(cfg.Root, event.Name)
					if err != nil {
						rel = event.Name
					}
					events = append(events, WatchEvent{Name: rel, Operation: event.Op.String()})
				case err, ok := <-watcher.Errors:
					if !ok {
						return WatchResult{Path: absPath, Events: events, Count: len(events)}, nil
					}
					return nil, fmt.Errorf("watch failed: %w", err)
				}
			}
			return WatchResult{Path: absPath, Events: events, Count: len(events)}, nil
		}).
		MustBuild()
}
