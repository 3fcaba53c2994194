package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alnah/lingocast/internal/audio"
	"github.com/alnah/lingocast/internal/cache"
	"github.com/alnah/lingocast/internal/config"
	"github.com/alnah/lingocast/internal/logging"
	"github.com/alnah/lingocast/internal/podcast"
)

// setup loads configuration and builds the logger.
func setup(env *Env) (config.Config, *slog.Logger, error) {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Writer: env.Stderr,
	})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// pipeline is a fully wired assembler and the cache it owns.
type pipeline struct {
	assembler *podcast.Assembler
	cache     *cache.Cache
}

func (p *pipeline) Close() error {
	return p.cache.Close()
}

// newPipeline wires every dependency of an Assembler.
// Validation order: API key -> ffmpeg -> cache.
func newPipeline(ctx context.Context, env *Env, cfg config.Config, logger *slog.Logger) (*pipeline, error) {
	apiKey := env.Getenv(EnvOpenAIAPIKey)
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	tools, err := env.FFmpegResolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	env.FFmpegResolver.CheckVersion(ctx, tools.FFmpeg)

	narrations, err := env.CacheFactory.OpenCache(ctx, cfg.CacheDir, logging.Component(logger, "cache"))
	if err != nil {
		return nil, err
	}

	store := env.StoreFactory.NewStore(cfg.ContentDir, logging.Component(logger, "content"))
	synth := env.SynthesizerFactory.NewSynthesizer(apiKey, cfg, logging.Component(logger, "speech"))
	proc := audio.NewProcessor(env.RunnerFactory.NewRunner(), tools)

	asm := podcast.New(store, synth, narrations, proc,
		podcast.WithTempDir(cfg.TempDir),
		podcast.WithAlbumTags(cfg.AlbumTitle, cfg.AlbumArtist, cfg.AlbumName),
		podcast.WithLogger(logger),
	)
	return &pipeline{assembler: asm, cache: narrations}, nil
}
