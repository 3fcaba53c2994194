package content

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/alnah/lingocast/internal/logging"
)

// DirStore reads topics from the *.md files of a directory.
// Files are re-read on every call so edits show up without a restart.
type DirStore struct {
	fsys   fs.FS
	logger *slog.Logger
}

// DirOption configures a DirStore.
type DirOption func(*DirStore)

// WithDirLogger sets the logger.
func WithDirLogger(logger *slog.Logger) DirOption {
	return func(s *DirStore) { s.logger = logger }
}

// NewDirStore returns a store over dir.
func NewDirStore(dir string, opts ...DirOption) *DirStore {
	return NewFSStore(os.DirFS(dir), opts...)
}

// NewFSStore returns a store over the root of fsys.
func NewFSStore(fsys fs.FS, opts ...DirOption) *DirStore {
	s := &DirStore{fsys: fsys, logger: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Topics parses every markdown file, sorted by file name.
// Files without a title are skipped; an unreadable file is skipped with a
// warning. An unreadable directory is an error.
func (s *DirStore) Topics(ctx context.Context) ([]Topic, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	topics := make([]Topic, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(s.fsys, name)
		if err != nil {
			s.logger.Warn("content file unreadable", "file", name, "error", err)
			continue
		}
		topic, ok := Parse(strings.TrimSuffix(path.Base(name), ".md"), string(data))
		if !ok {
			s.logger.Debug("content file has no title", "file", name)
			continue
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

var (
	_ Store = (*DirStore)(nil)
	_ Store = StaticStore(nil)
)
