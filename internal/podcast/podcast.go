// Package podcast assembles narrated episodes from text selections.
//
// For every selection the episode contains, in order: a spoken
// announcement, a short pause, a cue tone, a second pause, and the narration
// of the full text. Each selection becomes one chapter.
package podcast

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alnah/lingocast/internal/chapter"
	"github.com/alnah/lingocast/internal/content"
	"github.com/alnah/lingocast/internal/id3"
	"github.com/alnah/lingocast/internal/logging"
	"github.com/alnah/lingocast/internal/speech"
	"github.com/alnah/lingocast/internal/tempfs"
)

// DefaultTempDir is where run directories are created unless configured.
const DefaultTempDir = ".cache/temp"

// Selection references one text to include in an episode.
type Selection struct {
	TopicID string `json:"topicId"`
	TextID  string `json:"textId"`
}

// String returns "topic/text".
func (s Selection) String() string {
	return s.TopicID + "/" + s.TextID
}

// ParseSelection parses "topic/text".
func ParseSelection(ref string) (Selection, error) {
	topicID, textID, ok := strings.Cut(ref, "/")
	if !ok || topicID == "" || textID == "" {
		return Selection{}, fmt.Errorf("invalid selection %q: want topic/text", ref)
	}
	return Selection{TopicID: topicID, TextID: textID}, nil
}

// Result is an assembled episode.
type Result struct {
	Audio    []byte
	Chapters []chapter.Info
}

// Assembler builds episodes. It is safe for concurrent use; concurrent runs
// are isolated in separate temp directories and share the narration cache.
type Assembler struct {
	store   content.Store
	synth   speech.Synthesizer
	cache   NarrationCache
	proc    AudioProcessor
	tag     TagFunc
	tempDir string
	tags    id3.Tags
	logger  *slog.Logger

	flight singleflight.Group
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithTempDir sets the parent of the per-run temp directories.
func WithTempDir(dir string) Option {
	return func(a *Assembler) {
		if dir != "" {
			a.tempDir = dir
		}
	}
}

// WithAlbumTags overrides the episode title, artist and album.
// Empty values keep the defaults.
func WithAlbumTags(title, artist, album string) Option {
	return func(a *Assembler) {
		a.tags.Title = title
		a.tags.Artist = artist
		a.tags.Album = album
	}
}

// WithTagger replaces the ID3 writer.
func WithTagger(fn TagFunc) Option {
	return func(a *Assembler) {
		if fn != nil {
			a.tag = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logging.Component(logger, "podcast")
	}
}

// New creates an Assembler.
func New(store content.Store, synth speech.Synthesizer, narrations NarrationCache, proc AudioProcessor, opts ...Option) *Assembler {
	a := &Assembler{
		store:   store,
		synth:   synth,
		cache:   narrations,
		proc:    proc,
		tag:     id3.Write,
		tempDir: DefaultTempDir,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IntroText is the announcement spoken before a text.
func IntroText(topicTitle, textTitle string) string {
	return fmt.Sprintf("New text: %s. Topic: %s.", textTitle, topicTitle)
}

// ChapterTitle names the chapter of a text.
func ChapterTitle(topicTitle, textTitle string) string {
	return topicTitle + " — " + textTitle
}

// Assemble builds an episode and returns its MP3 bytes.
func (a *Assembler) Assemble(ctx context.Context, selections []Selection) ([]byte, error) {
	res, err := a.AssembleWithChapters(ctx, selections)
	if err != nil {
		return nil, err
	}
	return res.Audio, nil
}

// resolved is a selection found in the content store.
type resolved struct {
	topic content.Topic
	text  content.Text
}

// AssembleWithChapters builds an episode and returns it with its chapters.
// Unknown selections are skipped. Every intermediate file is removed before
// returning, whatever the outcome.
func (a *Assembler) AssembleWithChapters(ctx context.Context, selections []Selection) (*Result, error) {
	start := time.Now()
	items := a.resolve(ctx, selections)
	if len(items) == 0 {
		return nil, ErrNoContentGenerated
	}

	reg, err := tempfs.New(a.tempDir, tempfs.WithReleaseErrorHandler(func(path string, err error) {
		a.logger.Warn("temp file not removed", "path", path, "error", err)
	}))
	if err != nil {
		return nil, err
	}
	defer reg.ReleaseAll()
	a.logger.Debug("run started", "dir", reg.Dir(), "selections", len(selections), "resolved", len(items))

	tpl, err := a.makeTemplates(ctx, reg)
	if err != nil {
		return nil, err
	}

	groups := make([]chapter.Group, 0, len(items))
	for i, it := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g, err := a.buildGroup(ctx, reg, tpl, i, it)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	chapters := chapter.Compute(groups)
	data, err := a.render(ctx, reg, groups, chapters)
	if err != nil {
		return nil, err
	}

	a.logger.Info("episode assembled",
		"chapters", len(chapters),
		"duration_ms", chapters[len(chapters)-1].EndMs,
		"bytes", len(data),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return &Result{Audio: data, Chapters: chapters}, nil
}

// resolve reads the content store once and keeps the selections it knows.
// A store failure is logged and resolves nothing.
func (a *Assembler) resolve(ctx context.Context, selections []Selection) []resolved {
	if len(selections) == 0 {
		return nil
	}
	topics, err := a.store.Topics(ctx)
	if err != nil {
		a.logger.Error("content store unavailable", "error", err)
		return nil
	}

	items := make([]resolved, 0, len(selections))
	for _, sel := range selections {
		topic, text, ok := content.Lookup(topics, sel.TopicID, sel.TextID)
		if !ok {
			a.logger.Debug("selection skipped", "selection", sel.String())
			continue
		}
		items = append(items, resolved{topic: topic, text: text})
	}
	return items
}

// buildGroup materializes the five segment files of one selection.
func (a *Assembler) buildGroup(ctx context.Context, reg *tempfs.Registry, tpl templates, idx int, it resolved) (chapter.Group, error) {
	name := func(part string) string { return fmt.Sprintf("%03d_%s.mp3", idx, part) }
	ref := it.topic.ID + "/" + it.text.ID

	intro, err := a.synth.Synthesize(ctx, IntroText(it.topic.Title, it.text.Title))
	if err != nil {
		return chapter.Group{}, fmt.Errorf("%w: intro for %s: %w", ErrSynthesisFailure, ref, err)
	}
	if len(intro) == 0 {
		return chapter.Group{}, fmt.Errorf("%w: intro for %s: no audio", ErrSynthesisFailure, ref)
	}
	introPath, err := a.normalized(ctx, reg, intro, name("intro_raw"), name("intro"))
	if err != nil {
		return chapter.Group{}, err
	}

	copies := make([]chapter.Segment, 0, 3)
	for _, seg := range []chapter.Segment{tpl.pauseAfterIntro, tpl.cue, tpl.pauseAfterCue} {
		p, err := reg.CopyFile(seg.Path, name(seg.Kind.String()))
		if err != nil {
			return chapter.Group{}, err
		}
		copies = append(copies, chapter.Segment{Kind: seg.Kind, Path: p, Duration: seg.Duration})
	}

	narration, err := a.narration(ctx, it.topic, it.text)
	if err != nil {
		return chapter.Group{}, err
	}
	// Long narrations are several MP3 bodies joined byte-wise; re-encoding
	// is what makes them a single clean stream.
	contentPath, err := a.normalized(ctx, reg, narration, name("content_raw"), name("content"))
	if err != nil {
		return chapter.Group{}, err
	}

	segments := []chapter.Segment{{Kind: chapter.Intro, Path: introPath, Duration: a.proc.Probe(ctx, introPath)}}
	segments = append(segments, copies...)
	segments = append(segments, chapter.Segment{Kind: chapter.Content, Path: contentPath, Duration: a.proc.Probe(ctx, contentPath)})

	for _, s := range segments {
		a.logger.Debug("segment ready", "selection", ref, "kind", s.Kind.String(), "duration_ms", s.Duration)
	}
	return chapter.Group{Title: ChapterTitle(it.topic.Title, it.text.Title), Segments: segments}, nil
}

// normalized writes raw audio and re-encodes it to the common format.
func (a *Assembler) normalized(ctx context.Context, reg *tempfs.Registry, data []byte, rawName, outName string) (string, error) {
	raw, err := reg.WriteFile(rawName, data)
	if err != nil {
		return "", err
	}
	out, err := reg.Create(outName)
	if err != nil {
		return "", err
	}
	if err := a.proc.Normalize(ctx, raw, out); err != nil {
		return "", err
	}
	return out, nil
}

// render concatenates the segments, tags a copy and reads it back.
func (a *Assembler) render(ctx context.Context, reg *tempfs.Registry, groups []chapter.Group, chapters []chapter.Info) ([]byte, error) {
	manifest, err := reg.Create("concat.txt")
	if err != nil {
		return nil, err
	}
	combined, err := reg.Create("combined.mp3")
	if err != nil {
		return nil, err
	}
	if err := a.proc.Concatenate(ctx, manifest, chapter.Paths(groups), combined); err != nil {
		return nil, err
	}

	tagged, err := reg.CopyFile(combined, "tagged.mp3")
	if err != nil {
		return nil, err
	}
	tags := a.tags
	tags.Chapters = chapters
	if err := a.tag(tagged, tags); err != nil {
		return nil, fmt.Errorf("tag episode: %w", err)
	}

	data, err := os.ReadFile(tagged) // #nosec G304 -- path inside the run dir
	if err != nil {
		return nil, fmt.Errorf("read episode: %w", err)
	}
	return data, nil
}
