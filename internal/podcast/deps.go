package podcast

import (
	"context"

	"github.com/alnah/lingocast/internal/audio"
	"github.com/alnah/lingocast/internal/cache"
	"github.com/alnah/lingocast/internal/id3"
)

// NarrationCache stores synthesized narrations across runs.
// *cache.Cache implements this.
type NarrationCache interface {
	Get(ctx context.Context, topicID, textID string) ([]byte, bool)
	Put(ctx context.Context, topicID, textID string, audio []byte) error
}

// AudioProcessor produces, measures and joins segment files.
// *audio.Processor implements this.
type AudioProcessor interface {
	MakeCue(ctx context.Context, out string) error
	MakeSilence(ctx context.Context, out string, seconds float64) error
	Normalize(ctx context.Context, in, out string) error
	Probe(ctx context.Context, path string) int64
	Concatenate(ctx context.Context, manifestPath string, inputs []string, out string) error
}

// TagFunc writes metadata into the MP3 file at path.
type TagFunc func(path string, tags id3.Tags) error

// Compile-time interface checks.
var (
	_ NarrationCache = (*cache.Cache)(nil)
	_ AudioProcessor = (*audio.Processor)(nil)
	_ TagFunc        = id3.Write
)
