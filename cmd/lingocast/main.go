package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/lingocast/internal/apierr"
	"github.com/alnah/lingocast/internal/audio"
	"github.com/alnah/lingocast/internal/cache"
	"github.com/alnah/lingocast/internal/cli"
	"github.com/alnah/lingocast/internal/config"
	"github.com/alnah/lingocast/internal/ffmpeg"
	"github.com/alnah/lingocast/internal/id3"
	"github.com/alnah/lingocast/internal/interrupt"
	"github.com/alnah/lingocast/internal/podcast"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitSynthesis  = 5
	ExitAssembly   = 6
	ExitInterrupt  = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// First Ctrl+C cancels the run and lets temp files be released;
	// a second one exits immediately.
	handler, ctx := interrupt.NewHandler(context.Background())

	env := cli.DefaultEnv()
	rootCmd := newRootCmd(env)

	err := rootCmd.ExecuteContext(ctx)
	handler.Stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd(env *cli.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lingocast",
		Short: "Assemble chaptered German-learning podcast episodes",
		Long: `lingocast turns texts from the content directory into MP3 episodes:
each selected text is introduced, cued and narrated, and becomes a chapter.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.BuildCmd(env))
	rootCmd.AddCommand(cli.TopicsCmd(env))
	rootCmd.AddCommand(cli.CacheCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))
	rootCmd.AddCommand(cli.ServeCmd(env))

	return rootCmd
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	switch {
	case errors.Is(err, ffmpeg.ErrNotFound), errors.Is(err, cli.ErrAPIKeyMissing):
		return ExitSetup

	case errors.Is(err, cli.ErrInvalidSelection), errors.Is(err, cli.ErrNoSelections),
		errors.Is(err, cli.ErrFileNotFound), errors.Is(err, cli.ErrOutputExists),
		errors.Is(err, cli.ErrTerminalOutput), errors.Is(err, config.ErrUnknownKey),
		errors.Is(err, config.ErrInvalidValue), errors.Is(err, cache.ErrNotCached):
		return ExitValidation

	case errors.Is(err, podcast.ErrSynthesisFailure), errors.Is(err, apierr.ErrRateLimit),
		errors.Is(err, apierr.ErrQuotaExceeded), errors.Is(err, apierr.ErrTimeout),
		errors.Is(err, apierr.ErrAuthFailed), errors.Is(err, apierr.ErrServer),
		errors.Is(err, apierr.ErrBadRequest):
		return ExitSynthesis

	case errors.Is(err, podcast.ErrNoContentGenerated), errors.Is(err, audio.ErrConcatenationFailure),
		errors.Is(err, ffmpeg.ErrSubprocess), errors.Is(err, id3.ErrTag),
		errors.Is(err, id3.ErrTooManyChapters):
		return ExitAssembly
	}

	// Cobra doesn't expose typed errors, so we check for known message
	// patterns, after domain sentinels whose messages may quote tool output.
	if isCobraUsageError(err) {
		return ExitUsage
	}
	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// These patterns are stable across Cobra versions (tested with v1.8+).
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"accepts ",
	"requires at least",
	"requires at most",
}

func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
