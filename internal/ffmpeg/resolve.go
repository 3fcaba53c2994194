package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Environment variables for custom tool paths.
const (
	EnvFFmpegPath  = "FFMPEG_PATH"
	EnvFFprobePath = "FFPROBE_PATH"
)

// minFFmpegMajorVersion is the minimum supported ffmpeg version.
// Older builds lack the anullsrc channel-layout syntax used for silences.
const minFFmpegMajorVersion = 4

// Tools holds resolved paths to the FFmpeg binaries used by the pipeline.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// ---------------------------------------------------------------------------
// Resolver - testable tool resolution with dependency injection
// ---------------------------------------------------------------------------

// Resolver finds ffmpeg and ffprobe.
type Resolver struct {
	stat fileStatter
	env  envProvider
	goos string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFileStatter sets the file statter implementation.
func WithFileStatter(s fileStatter) ResolverOption {
	return func(res *Resolver) { res.stat = s }
}

// WithEnvProvider sets the environment provider implementation.
func WithEnvProvider(e envProvider) ResolverOption {
	return func(res *Resolver) { res.env = e }
}

// WithPlatform sets the target OS (for testing install hints and .exe suffixes).
func WithPlatform(goos string) ResolverOption {
	return func(res *Resolver) { res.goos = goos }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		stat: osFileStatter{},
		env:  osEnvProvider{},
		goos: runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds both binaries.
//
// ffmpeg precedence:
//  1. FFMPEG_PATH environment variable (error if set but invalid)
//  2. System PATH
//
// ffprobe precedence:
//  1. FFPROBE_PATH environment variable (error if set but invalid)
//  2. Next to the resolved ffmpeg binary
//  3. System PATH
func (r *Resolver) Resolve(ctx context.Context) (Tools, error) {
	if err := ctx.Err(); err != nil {
		return Tools{}, err
	}

	ffmpegPath, err := r.lookup(EnvFFmpegPath, "ffmpeg", "")
	if err != nil {
		return Tools{}, err
	}
	ffprobePath, err := r.lookup(EnvFFprobePath, "ffprobe", filepath.Dir(ffmpegPath))
	if err != nil {
		return Tools{}, err
	}
	return Tools{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

func (r *Resolver) lookup(envKey, name, siblingDir string) (string, error) {
	if envPath := r.env.Getenv(envKey); envPath != "" {
		if _, err := r.stat.Stat(envPath); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but binary not found", ErrNotFound, envKey, envPath)
		}
		return envPath, nil
	}

	bin := name
	if r.goos == "windows" {
		bin += ".exe"
	}
	if siblingDir != "" && siblingDir != "." {
		candidate := filepath.Join(siblingDir, bin)
		if _, err := r.stat.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if p, err := r.env.LookPath(name); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s is not on PATH\n\n%s", ErrNotFound, name, r.installInstructions())
}

func (r *Resolver) installInstructions() string {
	switch r.goos {
	case "darwin":
		return `To install FFmpeg:
  brew install ffmpeg

Or set FFMPEG_PATH and FFPROBE_PATH to your binaries.`
	case "linux":
		return `To install FFmpeg:
  Ubuntu/Debian: sudo apt install ffmpeg
  Fedora:        sudo dnf install ffmpeg
  Arch:          sudo pacman -S ffmpeg

Or set FFMPEG_PATH and FFPROBE_PATH to your binaries.`
	case "windows":
		return `To install FFmpeg:
  winget install ffmpeg

Or set FFMPEG_PATH and FFPROBE_PATH to your ffmpeg.exe and ffprobe.exe.`
	default:
		return `Download FFmpeg from https://ffmpeg.org/download.html
Or set FFMPEG_PATH and FFPROBE_PATH to your binaries.`
	}
}

// Resolve finds the tools using a resolver with production defaults.
func Resolve(ctx context.Context) (Tools, error) {
	return NewResolver().Resolve(ctx)
}

// ---------------------------------------------------------------------------
// VersionChecker
// ---------------------------------------------------------------------------

// VersionChecker verifies FFmpeg version requirements.
type VersionChecker struct {
	runner Runner
	stderr io.Writer
}

// VersionCheckerOption configures a VersionChecker.
type VersionCheckerOption func(*VersionChecker)

// WithVersionRunner sets the runner used to invoke ffmpeg -version.
func WithVersionRunner(r Runner) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.runner = r }
}

// WithVersionStderr sets the writer for warning messages.
func WithVersionStderr(w io.Writer) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.stderr = w }
}

// NewVersionChecker creates a VersionChecker with the given options.
func NewVersionChecker(opts ...VersionCheckerOption) *VersionChecker {
	vc := &VersionChecker{
		runner: NewExecutor(),
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// Check prints a warning if ffmpeg is older than the supported minimum.
// Returns true if the version line could be parsed.
func (vc *VersionChecker) Check(ctx context.Context, ffmpegPath string) bool {
	res, err := vc.runner.Run(ctx, ffmpegPath, []string{"-version"})
	if err != nil && res.Stdout == "" {
		return false
	}

	first, _, _ := strings.Cut(res.Stdout, "\n")
	if first == "" {
		return false
	}

	var major int
	if _, err := fmt.Sscanf(first, "ffmpeg version %d", &major); err != nil {
		// Git builds print "ffmpeg version n6.1.1-...".
		if _, err := fmt.Sscanf(first, "ffmpeg version n%d", &major); err != nil {
			return false
		}
	}

	if major < minFFmpegMajorVersion {
		_, _ = fmt.Fprintf(vc.stderr, "Warning: ffmpeg version %d detected, version %d+ recommended\n",
			major, minFFmpegMajorVersion)
	}
	return true
}
