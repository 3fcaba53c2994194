// Package cache persists synthesized narration audio across runs,
// keyed by (topic id, text id).
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/alnah/lingocast/internal/logging"
)

// Ext is the file extension of cached entries.
const Ext = ".mp3"

const (
	lockDirName    = ".locks"
	lockRetryDelay = 20 * time.Millisecond
)

// Cache is a directory of narration files. It is safe for concurrent use
// by goroutines and by separate processes sharing the directory.
// Writers of the same key are serialized; the last writer wins.
type Cache struct {
	dir    string
	ledger *Ledger
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLedger records puts and hits in l. Ledger errors are logged only.
func WithLedger(l *Ledger) Option {
	return func(c *Cache) { c.ledger = l }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New returns a cache rooted at dir. The directory is created on first Put.
func New(dir string, opts ...Option) *Cache {
	c := &Cache{dir: dir, logger: logging.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Close releases the ledger, if any.
func (c *Cache) Close() error {
	if c.ledger == nil {
		return nil
	}
	return c.ledger.Close()
}

// Path returns the file that holds the entry for (topicID, textID).
// Path separators inside identifiers are replaced by "_" so an entry
// can never escape the cache directory.
func (c *Cache) Path(topicID, textID string) string {
	return filepath.Join(c.dir, fileName(topicID, textID))
}

func fileName(topicID, textID string) string {
	return sanitize(topicID) + "_" + sanitize(textID) + Ext
}

var separatorReplacer = strings.NewReplacer("/", "_", `\`, "_")

func sanitize(id string) string {
	id = separatorReplacer.Replace(id)
	if id == "." || id == ".." {
		return strings.Repeat("_", len(id))
	}
	return id
}

// Get returns the cached audio for the key. A missing, unreadable or empty
// entry is reported as absent. Get never synthesizes.
func (c *Cache) Get(ctx context.Context, topicID, textID string) ([]byte, bool) {
	path := c.Path(topicID, textID)
	data, err := os.ReadFile(path) // #nosec G304 -- path confined to cache dir
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Debug("cache entry unreadable", "path", path, "error", err)
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	if c.ledger != nil {
		if err := c.ledger.RecordHit(ctx, fileName(topicID, textID)); err != nil {
			c.logger.Warn("ledger hit not recorded", "path", path, "error", err)
		}
	}
	return data, true
}

// Put stores audio for the key, replacing any previous entry atomically.
func (c *Cache) Put(ctx context.Context, topicID, textID string, audio []byte) error {
	if topicID == "" || textID == "" {
		return fmt.Errorf("%w: %w", ErrCacheWrite, ErrEmptyKey)
	}
	name := fileName(topicID, textID)

	unlock, err := c.lock(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCacheWrite, err)
	}
	defer unlock()

	if err := writeAtomic(c.Path(topicID, textID), audio); err != nil {
		return fmt.Errorf("%w: %w", ErrCacheWrite, err)
	}

	if c.ledger != nil {
		if err := c.ledger.RecordPut(ctx, name, topicID, textID, int64(len(audio))); err != nil {
			c.logger.Warn("ledger put not recorded", "entry", name, "error", err)
		}
	}
	return nil
}

// lock takes the per-key advisory lock shared with other processes.
func (c *Cache) lock(ctx context.Context, name string) (func(), error) {
	lockDir := filepath.Join(c.dir, lockDirName)
	// #nosec G301 -- shared cache directory
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	fl := flock.New(filepath.Join(lockDir, name+".lock"))
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", name, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock %s: not acquired", name)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			c.logger.Debug("cache unlock failed", "entry", name, "error", err)
		}
	}, nil
}

// writeAtomic writes data to a temp file in the target directory and renames
// it into place, so readers never observe a partial entry.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	// #nosec G302 -- cached audio is not sensitive
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	committed = true
	return nil
}

// Entry describes one cached narration.
type Entry struct {
	TopicID  string
	TextID   string
	Path     string
	Size     int64
	Modified time.Time
	Hits     int64
	LastHit  time.Time
}

// Entries lists cached narrations sorted by file name.
// Keys come from the ledger when known; otherwise the file name is split
// at its first "_".
func (c *Cache) Entries(ctx context.Context) ([]Entry, error) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache dir: %w", err)
	}

	var stats map[string]LedgerStat
	if c.ledger != nil {
		stats, err = c.ledger.Stats(ctx)
		if err != nil {
			c.logger.Warn("ledger stats unavailable", "error", err)
		}
	}

	var entries []Entry
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, Ext) || strings.HasPrefix(name, ".") {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}

		e := Entry{
			Path:     filepath.Join(c.dir, name),
			Size:     info.Size(),
			Modified: info.ModTime(),
		}
		if st, ok := stats[name]; ok {
			e.TopicID, e.TextID = st.TopicID, st.TextID
			e.Hits, e.LastHit = st.Hits, st.LastHit
		} else {
			e.TopicID, e.TextID, _ = strings.Cut(strings.TrimSuffix(name, Ext), "_")
		}
		entries = append(entries, e)
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(filepath.Base(a.Path), filepath.Base(b.Path))
	})
	return entries, nil
}

// Remove deletes the entry for the key.
func (c *Cache) Remove(ctx context.Context, topicID, textID string) error {
	name := fileName(topicID, textID)
	if err := os.Remove(c.Path(topicID, textID)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s/%s", ErrNotCached, topicID, textID)
		}
		return fmt.Errorf("remove %s: %w", name, err)
	}
	if c.ledger != nil {
		if err := c.ledger.Forget(ctx, name); err != nil {
			c.logger.Warn("ledger entry not removed", "entry", name, "error", err)
		}
	}
	return nil
}

// Clear deletes every entry and returns how many were removed.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	entries, err := c.Entries(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	var errs []error
	for _, e := range entries {
		if err := os.Remove(e.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if c.ledger != nil {
		if err := c.ledger.Reset(ctx); err != nil {
			c.logger.Warn("ledger not reset", "error", err)
		}
	}
	return removed, errors.Join(errs...)
}
