package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/lingocast/internal/config"
	"github.com/alnah/lingocast/internal/content"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

var testTopics = content.StaticStore{
	{
		ID:    "berlin",
		Title: "Berlin",
		Texts: []content.Text{
			{ID: "intro", Title: "Intro", Content: []string{"Berlin ist die Hauptstadt.", "Sie hat viele Museen."}},
			{ID: "mauer", Title: "Die Mauer", Content: []string{"Die Mauer fiel 1989."}},
		},
	},
	{
		ID:    "wien",
		Title: "Wien",
		Texts: []content.Text{{ID: "prater", Title: "Der Prater", Content: []string{"Der Prater ist ein Park."}}},
	},
}

type testMocks struct {
	ffmpeg *mockFFmpegResolver
	runner *fakeRunner
	synth  *mockSynth
	synths *mockSynthesizerFactory
	stores *mockStoreFactory
	caches *mockCacheFactory
	cfg    config.Config
	stdout *syncBuffer
	stderr *syncBuffer
}

// testEnv creates an Env with every dependency mocked and every directory
// under t.TempDir(). Returns the Env and the mocks for assertions.
func testEnv(t *testing.T, opts ...func(*Env, *testMocks)) (*Env, *testMocks) {
	t.Helper()
	root := t.TempDir()

	m := &testMocks{
		ffmpeg: &mockFFmpegResolver{},
		runner: &fakeRunner{},
		synth:  &mockSynth{},
		stores: &mockStoreFactory{store: testTopics},
		caches: &mockCacheFactory{},
		cfg: config.Config{
			ContentDir: filepath.Join(root, "content"),
			CacheDir:   filepath.Join(root, "cache"),
			TempDir:    filepath.Join(root, "temp"),
			OutputDir:  filepath.Join(root, "out"),
			LogLevel:   "error",
			LogFormat:  "console",
			ListenAddr: "127.0.0.1:0",
		},
		stdout: &syncBuffer{},
		stderr: &syncBuffer{},
	}
	m.synths = &mockSynthesizerFactory{synth: m.synth}

	env := &Env{
		Stdout:             m.stdout,
		Stderr:             m.stderr,
		Getenv:             staticEnv(map[string]string{EnvOpenAIAPIKey: "test-openai-key"}),
		Now:                fixedTime(time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)),
		StdoutIsTerminal:   func() bool { return false },
		FFmpegResolver:     m.ffmpeg,
		RunnerFactory:      &mockRunnerFactory{runner: m.runner},
		SynthesizerFactory: m.synths,
		StoreFactory:       m.stores,
		CacheFactory:       m.caches,
	}
	for _, opt := range opts {
		opt(env, m)
	}
	env.ConfigLoader = &mockConfigLoader{LoadFunc: func() (config.Config, error) { return m.cfg, nil }}
	return env, m
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func staticEnv(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

// newTestCmd returns a bare command carrying ctx, as RunE receives it.
func newTestCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	return cmd
}
