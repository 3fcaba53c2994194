// Package tempfs tracks the intermediate files of one run so they can be
// purged together on every exit path.
package tempfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// ErrReleased indicates the registry was used after ReleaseAll.
var ErrReleased = errors.New("temp registry already released")

// Registry owns a run-scoped directory and every path produced inside it.
// It is safe for concurrent use.
type Registry struct {
	dir string

	mu       sync.Mutex
	paths    []string
	released bool
	once     sync.Once
	onErr    func(path string, err error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithReleaseErrorHandler sets a callback for removal failures during
// ReleaseAll. Failures are otherwise silent.
func WithReleaseErrorHandler(fn func(path string, err error)) Option {
	return func(r *Registry) { r.onErr = fn }
}

// New creates <baseDir>/run-<uuid> and returns a registry rooted there.
// The directory path is absolute.
func New(baseDir string, opts ...Option) (*Registry, error) {
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve temp dir: %w", err)
	}
	dir := filepath.Join(base, "run-"+uuid.NewString())
	// #nosec G301 -- scratch space, same permissions as the cache
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}

	r := &Registry{dir: dir}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Dir returns the run directory.
func (r *Registry) Dir() string {
	return r.dir
}

// Path returns the path of name inside the run directory without tracking it.
func (r *Registry) Path(name string) string {
	return filepath.Join(r.dir, filepath.Base(name))
}

// Track records path for removal by ReleaseAll.
// Paths are recorded before the file exists so a crash mid-write still
// leaves nothing behind.
func (r *Registry) Track(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	r.paths = append(r.paths, path)
	return nil
}

// Tracked returns a snapshot of the tracked paths in registration order.
func (r *Registry) Tracked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.paths)
}

// Create tracks and returns Path(name), for files produced by subprocesses.
func (r *Registry) Create(name string) (string, error) {
	p := r.Path(name)
	if err := r.Track(p); err != nil {
		return "", err
	}
	return p, nil
}

// WriteFile writes data to Path(name) and tracks it.
func (r *Registry) WriteFile(name string, data []byte) (string, error) {
	p, err := r.Create(name)
	if err != nil {
		return "", err
	}
	// #nosec G306 -- intermediate audio, removed at end of run
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return p, nil
}

// CopyFile copies src to Path(name) and tracks the copy.
func (r *Registry) CopyFile(src, name string) (string, error) {
	p, err := r.Create(name)
	if err != nil {
		return "", err
	}
	if err := copyFile(src, p); err != nil {
		return "", fmt.Errorf("copy %s to %s: %w", filepath.Base(src), name, err)
	}
	return p, nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src) // #nosec G304 -- path produced by this run
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst) // #nosec G304 -- path inside the run dir
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// ReleaseAll removes every tracked path, then the run directory.
// Only the first call has an effect. Errors are reported to the release
// error handler, never returned.
func (r *Registry) ReleaseAll() {
	r.once.Do(func() {
		r.mu.Lock()
		r.released = true
		paths := r.paths
		r.paths = nil
		r.mu.Unlock()

		for _, p := range paths {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				r.report(p, err)
			}
		}
		if err := os.RemoveAll(r.dir); err != nil {
			r.report(r.dir, err)
		}
	})
}

func (r *Registry) report(path string, err error) {
	if r.onErr != nil {
		r.onErr(path, err)
	}
}
