package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileSource reads secrets from a directory holding one file per secret,
// the layout Kubernetes uses for mounted secrets. Values are trimmed of
// surrounding whitespace. Files must be mode 0600 or 0400.
//
// With watching enabled the cache is dropped whenever a file in the
// directory is written, created, renamed or removed, so rotated keys are
// picked up without a restart.
type FileSource struct {
	dir string

	mu      sync.RWMutex
	values  map[string]string
	watcher *fsnotify.Watcher
	done    chan struct{}
	changed func(name string)
}

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// OnChange registers a callback invoked with the base name of every file
// the watcher reports.
func OnChange(fn func(name string)) FileOption {
	return func(s *FileSource) {
		s.changed = fn
	}
}

// NewFileSource opens dir. When watch is true an fsnotify watcher is
// started; call Close to stop it.
func NewFileSource(dir string, watch bool, opts ...FileOption) (*FileSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat secrets directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("secrets path is not a directory: %s", dir)
	}

	s := &FileSource{
		dir:    dir,
		values: make(map[string]string),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to watch secrets directory: %w", err)
		}
		s.watcher = watcher
		go s.watch()
	}

	slog.Debug("file secret source opened", "dir", dir, "watch", watch)
	return s, nil
}

// Lookup reads <dir>/<name>.
func (s *FileSource) Lookup(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	value, ok := s.values[name]
	s.mu.RUnlock()
	if ok {
		return value, nil
	}

	path, err := s.path(name)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat secret file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret %s is not a regular file", name)
	}
	if perm := info.Mode().Perm(); perm != 0600 && perm != 0400 {
		return "", fmt.Errorf("insecure permissions on secret %s: %o (expected 0600 or 0400)", name, perm)
	}

	// #nosec G304 - path is confined to dir above
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}
	value = strings.TrimSpace(string(data))

	s.mu.Lock()
	s.values[name] = value
	s.mu.Unlock()

	return value, nil
}

// path joins name onto dir, rejecting names that escape it.
func (s *FileSource) path(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, os.PathSeparator) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid secret name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

// Name returns "file".
func (s *FileSource) Name() string {
	return "file"
}

// List returns the names of the regular files in the directory.
func (s *FileSource) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Refresh drops every cached value.
func (s *FileSource) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.values = make(map[string]string)
	s.mu.Unlock()
	return nil
}

// Close stops the watcher, if any.
func (s *FileSource) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	return s.watcher.Close()
}

func (s *FileSource) watch() {
	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&relevant == 0 {
				continue
			}

			name := filepath.Base(event.Name)
			slog.Debug("secret file changed", "file", name, "op", event.Op.String())

			_ = s.Refresh(context.Background())
			if s.changed != nil {
				s.changed(name)
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("secret file watcher error", "error", err)

		case <-s.done:
			return
		}
	}
}
