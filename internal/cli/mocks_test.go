package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/alnah/lingocast/internal/audio"
	"github.com/alnah/lingocast/internal/cache"
	"github.com/alnah/lingocast/internal/config"
	"github.com/alnah/lingocast/internal/content"
	"github.com/alnah/lingocast/internal/ffmpeg"
	"github.com/alnah/lingocast/internal/speech"
)

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc func(ctx context.Context) (ffmpeg.Tools, error)

	mu            sync.Mutex
	resolveCalls  int
	versionChecks []string
}

func (m *mockFFmpegResolver) Resolve(ctx context.Context) (ffmpeg.Tools, error) {
	m.mu.Lock()
	m.resolveCalls++
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx)
	}
	return ffmpeg.Tools{FFmpeg: "ffmpeg", FFprobe: "ffprobe"}, nil
}

func (m *mockFFmpegResolver) CheckVersion(_ context.Context, ffmpegPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versionChecks = append(m.versionChecks, ffmpegPath)
}

func (m *mockFFmpegResolver) ResolveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls
}

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	return m.LoadFunc()
}

// ---------------------------------------------------------------------------
// Mock RunnerFactory + fake ffmpeg
// ---------------------------------------------------------------------------

type mockRunnerFactory struct {
	runner *fakeRunner
}

func (m *mockRunnerFactory) NewRunner() ffmpeg.Runner {
	return m.runner
}

// fakeRunner emulates ffmpeg on plain files where one byte is one
// millisecond: cue 600 bytes, silence s*1000 bytes, normalize copies,
// concat joins and ffprobe reports len/1000 seconds.
type fakeRunner struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRunner) Run(ctx context.Context, tool string, args []string) (ffmpeg.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return ffmpeg.Result{ExitCode: -1}, err
	}

	last := args[len(args)-1]
	if tool == "ffprobe" {
		data, err := os.ReadFile(last)
		if err != nil {
			return ffmpeg.Result{ExitCode: 1}, err
		}
		return ffmpeg.Result{Stdout: strconv.FormatFloat(float64(len(data))/1000, 'f', 6, 64)}, nil
	}

	var out []byte
	input := argAfter(args, "-i")
	switch {
	case slices.Contains(args, "concat"):
		manifest, err := os.ReadFile(input)
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
	case strings.HasPrefix(input, "sine="):
		out = bytes.Repeat([]byte{'B'}, 600)
	case strings.HasPrefix(input, "anullsrc"):
		sec, err := strconv.ParseFloat(argAfter(args, "-t"), 64)
		if err != nil {
			return ffmpeg.Result{ExitCode: 1}, err
		}
		out = bytes.Repeat([]byte{'.'}, int(sec*1000+0.5))
	default:
		data, err := os.ReadFile(input)
		if err != nil {
			return ffmpeg.Result{ExitCode: 1}, err
		}
		out = data
	}
	return ffmpeg.Result{}, os.WriteFile(last, out, 0o644)
}

func (f *fakeRunner) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func argAfter(args []string, flag string) string {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

// ---------------------------------------------------------------------------
// Mock SynthesizerFactory + Synthesizer
// ---------------------------------------------------------------------------

type mockSynthesizerFactory struct {
	synth *mockSynth

	mu      sync.Mutex
	apiKeys []string
}

func (m *mockSynthesizerFactory) NewSynthesizer(apiKey string, _ config.Config, _ *slog.Logger) speech.Synthesizer {
	m.mu.Lock()
	m.apiKeys = append(m.apiKeys, apiKey)
	m.mu.Unlock()
	return m.synth
}

func (m *mockSynthesizerFactory) APIKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.apiKeys)
}

// mockSynth returns 2000 bytes for introductions and 10000 for narrations.
type mockSynth struct {
	mu    sync.Mutex
	texts []string
}

func (m *mockSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if strings.HasPrefix(text, "New text:") {
		return bytes.Repeat([]byte{'I'}, 2000), nil
	}
	return bytes.Repeat([]byte{'N'}, 10000), nil
}

func (m *mockSynth) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

// ---------------------------------------------------------------------------
// Mock StoreFactory and CacheFactory
// ---------------------------------------------------------------------------

type mockStoreFactory struct {
	store content.Store

	mu   sync.Mutex
	dirs []string
}

func (m *mockStoreFactory) NewStore(dir string, _ *slog.Logger) content.Store {
	m.mu.Lock()
	m.dirs = append(m.dirs, dir)
	m.mu.Unlock()
	return m.store
}

type mockCacheFactory struct {
	OpenFunc func(ctx context.Context, dir string) (*cache.Cache, error)
}

func (m *mockCacheFactory) OpenCache(ctx context.Context, dir string, _ *slog.Logger) (*cache.Cache, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, dir)
	}
	return cache.New(dir), nil
}

// Compile-time interface checks.
var (
	_ FFmpegResolver     = (*mockFFmpegResolver)(nil)
	_ ConfigLoader       = (*mockConfigLoader)(nil)
	_ RunnerFactory      = (*mockRunnerFactory)(nil)
	_ SynthesizerFactory = (*mockSynthesizerFactory)(nil)
	_ StoreFactory       = (*mockStoreFactory)(nil)
	_ CacheFactory       = (*mockCacheFactory)(nil)
)
