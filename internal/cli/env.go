package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/lingocast/internal/cache"
	"github.com/alnah/lingocast/internal/config"
	"github.com/alnah/lingocast/internal/content"
	"github.com/alnah/lingocast/internal/ffmpeg"
	"github.com/alnah/lingocast/internal/speech"
)

// EnvOpenAIAPIKey is the environment variable holding the OpenAI API key.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

// Env holds injectable dependencies for CLI commands.
//
// All fields have production defaults via DefaultEnv(). Tests override
// specific fields with the With* options or by building an Env directly.
type Env struct {
	// I/O and environment
	Stdout           io.Writer
	Stderr           io.Writer
	Getenv           func(string) string
	Now              func() time.Time
	StdoutIsTerminal func() bool

	// Factories for domain objects
	FFmpegResolver     FFmpegResolver
	ConfigLoader       ConfigLoader
	RunnerFactory      RunnerFactory
	SynthesizerFactory SynthesizerFactory
	StoreFactory       StoreFactory
	CacheFactory       CacheFactory
}

// FFmpegResolver locates ffmpeg and ffprobe.
type FFmpegResolver interface {
	Resolve(ctx context.Context) (ffmpeg.Tools, error)
	CheckVersion(ctx context.Context, ffmpegPath string)
}

// ConfigLoader loads effective configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// RunnerFactory creates subprocess runners.
type RunnerFactory interface {
	NewRunner() ffmpeg.Runner
}

// SynthesizerFactory creates speech synthesizers.
type SynthesizerFactory interface {
	NewSynthesizer(apiKey string, cfg config.Config, logger *slog.Logger) speech.Synthesizer
}

// StoreFactory creates content stores.
type StoreFactory interface {
	NewStore(dir string, logger *slog.Logger) content.Store
}

// CacheFactory opens the narration cache.
type CacheFactory interface {
	OpenCache(ctx context.Context, dir string, logger *slog.Logger) (*cache.Cache, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) { e.Now = fn }
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) { e.FFmpegResolver = r }
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) { e.ConfigLoader = l }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Getenv:             os.Getenv,
		Now:                time.Now,
		StdoutIsTerminal:   stdoutIsTerminal,
		FFmpegResolver:     &defaultFFmpegResolver{},
		ConfigLoader:       &defaultConfigLoader{},
		RunnerFactory:      &defaultRunnerFactory{},
		SynthesizerFactory: &defaultSynthesizerFactory{},
		StoreFactory:       &defaultStoreFactory{},
		CacheFactory:       &defaultCacheFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(ctx context.Context) (ffmpeg.Tools, error) {
	return ffmpeg.Resolve(ctx)
}

func (defaultFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	ffmpeg.NewVersionChecker().Check(ctx, ffmpegPath)
}

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

type defaultRunnerFactory struct{}

func (defaultRunnerFactory) NewRunner() ffmpeg.Runner {
	return ffmpeg.NewExecutor()
}

type defaultSynthesizerFactory struct{}

func (defaultSynthesizerFactory) NewSynthesizer(apiKey string, cfg config.Config, logger *slog.Logger) speech.Synthesizer {
	opts := []speech.Option{
		speech.WithModel(cfg.TTSModel),
		speech.WithVoice(cfg.TTSVoice),
		speech.WithLogger(logger),
	}
	if cfg.TTSSpeed != 0 {
		opts = append(opts, speech.WithSpeed(cfg.TTSSpeed))
	}
	return speech.NewOpenAI(openai.NewClient(apiKey), opts...)
}

type defaultStoreFactory struct{}

func (defaultStoreFactory) NewStore(dir string, logger *slog.Logger) content.Store {
	return content.NewDirStore(dir, content.WithDirLogger(logger))
}

type defaultCacheFactory struct{}

// OpenCache opens the cache at dir with its ledger.
func (defaultCacheFactory) OpenCache(ctx context.Context, dir string, logger *slog.Logger) (*cache.Cache, error) {
	ledger, err := cache.OpenLedger(ctx, filepath.Join(dir, cache.LedgerFile))
	if err != nil {
		return nil, fmt.Errorf("open cache ledger: %w", err)
	}
	return cache.New(dir, cache.WithLedger(ledger), cache.WithLogger(logger)), nil
}

// Compile-time interface verification.
var (
	_ FFmpegResolver     = (*defaultFFmpegResolver)(nil)
	_ ConfigLoader       = (*defaultConfigLoader)(nil)
	_ RunnerFactory      = (*defaultRunnerFactory)(nil)
	_ SynthesizerFactory = (*defaultSynthesizerFactory)(nil)
	_ StoreFactory       = (*defaultStoreFactory)(nil)
	_ CacheFactory       = (*defaultCacheFactory)(nil)
)
