package podcast_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/lingocast/internal/audio"
	"github.com/alnah/lingocast/internal/cache"
	"github.com/alnah/lingocast/internal/content"
	"github.com/alnah/lingocast/internal/ffmpeg"
	"github.com/alnah/lingocast/internal/podcast"
)

// ---------------------------------------------------------------------------
// Fake FFmpeg
// ---------------------------------------------------------------------------

// fakeFFmpeg emulates the tools on plain files where one byte is one
// millisecond of audio: the cue is 600 bytes, a silence of s seconds is
// s*1000 bytes, normalize copies, concat joins, and ffprobe reports
// len/1000 seconds.
type fakeFFmpeg struct {
	// FailOn makes the call fail when it returns true.
	FailOn func(tool string, args []string) bool

	mu    sync.Mutex
	calls [][]string
}

var fakeTools = ffmpeg.Tools{FFmpeg: "ffmpeg", FFprobe: "ffprobe"}

func (f *fakeFFmpeg) Run(ctx context.Context, tool string, args []string) (ffmpeg.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{tool}, args...))
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return ffmpeg.Result{ExitCode: -1}, err
	}
	if f.FailOn != nil && f.FailOn(tool, args) {
		return ffmpeg.Result{ExitCode: 1}, &ffmpeg.SubprocessError{
			Tool: tool, Args: args, ExitCode: 1, Output: "simulated failure", Err: errors.New("exit status 1"),
		}
	}

	last := args[len(args)-1]
	if tool == fakeTools.FFprobe {
		data, err := os.ReadFile(last)
		if err != nil {
			return ffmpeg.Result{ExitCode: 1}, err
		}
		return ffmpeg.Result{Stdout: strconv.FormatFloat(float64(len(data))/1000, 'f', 6, 64) + "\n"}, nil
	}

	var out []byte
	switch {
	case slices.Contains(args, "concat"):
		manifest, err := os.ReadFile(argAfter(args, "-i"))
		if err != nil {
			return ffmpeg.Result{ExitCode: 1}, err
		}
		for _, p := range audio.ParseManifest(string(manifest)) {
			data, err := os.ReadFile(p)
			if err != nil {
				return ffmpeg.Result{ExitCode: 1}, err
			}
			out = append(out, data...)
		}
	case strings.HasPrefix(argAfter(args, "-i"), "sine="):
		out = bytes.Repeat([]byte{'B'}, 600)
	case strings.HasPrefix(argAfter(args, "-i"), "anullsrc"):
		sec, err := strconv.ParseFloat(argAfter(args, "-t"), 64)
		if err != nil {
			return ffmpeg.Result{ExitCode: 1}, err
		}
		out = bytes.Repeat([]byte{'.'}, int(sec*1000+0.5))
	default:
		data, err := os.ReadFile(argAfter(args, "-i"))
		if err != nil {
			return ffmpeg.Result{ExitCode: 1}, err
		}
		out = data
	}
	if err := os.WriteFile(last, out, 0o644); err != nil {
		return ffmpeg.Result{ExitCode: 1}, err
	}
	return ffmpeg.Result{}, nil
}

func (f *fakeFFmpeg) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func argAfter(args []string, flag string) string {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

// ---------------------------------------------------------------------------
// Mock Synthesizer
// ---------------------------------------------------------------------------

// mockSynth returns len(text) scaled audio: intros are 2000 bytes,
// narrations 10000 bytes, unless SynthesizeFunc overrides.
type mockSynth struct {
	SynthesizeFunc func(ctx context.Context, text string) ([]byte, error)

	mu    sync.Mutex
	texts []string
}

func (m *mockSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	return defaultAudio(text), nil
}

func defaultAudio(text string) []byte {
	if strings.HasPrefix(text, "New text: ") {
		return bytes.Repeat([]byte{'I'}, 2000)
	}
	return bytes.Repeat([]byte{'N'}, 10000)
}

func (m *mockSynth) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.texts)
}

func (m *mockSynth) NarrationCalls() int {
	n := 0
	for _, t := range m.Texts() {
		if !strings.HasPrefix(t, "New text: ") {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Mock NarrationCache
// ---------------------------------------------------------------------------

type failingCache struct {
	*cache.Cache
	putErr error
}

func (c *failingCache) Put(context.Context, string, string, []byte) error {
	return c.putErr
}

// watchedCache reports every Get on gets.
type watchedCache struct {
	*cache.Cache
	gets chan<- struct{}
}

func (c *watchedCache) Get(ctx context.Context, topicID, textID string) ([]byte, bool) {
	c.gets <- struct{}{}
	return c.Cache.Get(ctx, topicID, textID)
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

var testTopics = content.StaticStore{
	{
		ID:    "berlin",
		Title: "Berlin",
		Texts: []content.Text{
			{ID: "intro", Title: "Intro", Content: []string{"Berlin ist groß.", "Es hat viele Parks."}},
			{ID: "mauer", Title: "Die Mauer", Content: []string{"1961 wurde die Mauer gebaut."}},
		},
	},
	{
		ID:    "wien",
		Title: "Wien",
		Texts: []content.Text{
			{ID: "prater", Title: "Prater", Content: []string{"Das Riesenrad."}},
		},
	},
}

type fixture struct {
	assembler *podcast.Assembler
	ffmpeg    *fakeFFmpeg
	synth     *mockSynth
	cache     *cache.Cache
	tempDir   string
	cacheDir  string
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	store     content.Store
	opts      []podcast.Option
	ffmpeg    *fakeFFmpeg
	synth     *mockSynth
	cacheDir  string
	wrapCache func(*cache.Cache) podcast.NarrationCache
}

func withStore(s content.Store) fixtureOption {
	return func(c *fixtureConfig) { c.store = s }
}

func withSynth(s *mockSynth) fixtureOption {
	return func(c *fixtureConfig) { c.synth = s }
}

func withFFmpeg(f *fakeFFmpeg) fixtureOption {
	return func(c *fixtureConfig) { c.ffmpeg = f }
}

func withCacheDir(dir string) fixtureOption {
	return func(c *fixtureConfig) { c.cacheDir = dir }
}

func withCacheWrapper(fn func(*cache.Cache) podcast.NarrationCache) fixtureOption {
	return func(c *fixtureConfig) { c.wrapCache = fn }
}

func withAssemblerOptions(opts ...podcast.Option) fixtureOption {
	return func(c *fixtureConfig) { c.opts = append(c.opts, opts...) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	cfg := fixtureConfig{
		store:    testTopics,
		ffmpeg:   &fakeFFmpeg{},
		synth:    &mockSynth{},
		cacheDir: t.TempDir(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := cache.New(cfg.cacheDir)
	var narrations podcast.NarrationCache = c
	if cfg.wrapCache != nil {
		narrations = cfg.wrapCache(c)
	}

	tempDir := t.TempDir()
	proc := audio.NewProcessor(cfg.ffmpeg, fakeTools)
	a := podcast.New(cfg.store, cfg.synth, narrations, proc,
		append([]podcast.Option{podcast.WithTempDir(tempDir)}, cfg.opts...)...)

	return &fixture{
		assembler: a,
		ffmpeg:    cfg.ffmpeg,
		synth:     cfg.synth,
		cache:     c,
		tempDir:   tempDir,
		cacheDir:  cfg.cacheDir,
	}
}

// assertNoTempFiles fails if any run directory or file survived.
func (f *fixture) assertNoTempFiles(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.tempDir)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", f.tempDir, err)
	}
	if len(entries) != 0 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("temp files left behind: %v", names)
	}
}

func sel(ref string) podcast.Selection {
	s, err := podcast.ParseSelection(ref)
	if err != nil {
		panic(fmt.Sprintf("bad test selection %q: %v", ref, err))
	}
	return s
}
