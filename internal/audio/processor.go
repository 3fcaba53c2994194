package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alnah/lingocast/internal/ffmpeg"
)

// DefaultFallbackMs is returned by Probe when a file's duration cannot be read.
// Durations only drive chapter offsets, so a wrong guess degrades chapter
// accuracy but never breaks the output.
const DefaultFallbackMs int64 = 3000

// Processor produces and joins segment files with FFmpeg.
// All methods block until the subprocess exits.
type Processor struct {
	runner     ffmpeg.Runner
	tools      ffmpeg.Tools
	writer     fileWriter
	fallbackMs int64
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithFallbackMs overrides the duration reported for unreadable files.
func WithFallbackMs(ms int64) ProcessorOption {
	return func(p *Processor) {
		if ms > 0 {
			p.fallbackMs = ms
		}
	}
}

// withFileWriter sets the manifest writer (for testing).
func withFileWriter(w fileWriter) ProcessorOption {
	return func(p *Processor) { p.writer = w }
}

// NewProcessor creates a Processor that invokes tools through runner.
func NewProcessor(runner ffmpeg.Runner, tools ffmpeg.Tools, opts ...ProcessorOption) *Processor {
	p := &Processor{
		runner:     runner,
		tools:      tools,
		writer:     osFileWriter{},
		fallbackMs: DefaultFallbackMs,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MakeCue writes the transition tone to out.
func (p *Processor) MakeCue(ctx context.Context, out string) error {
	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=%d:duration=%s", CueFrequencyHz, formatSeconds(CueSeconds)),
		"-af", cueFadeFilter,
	}
	args = append(args, encodeArgs()...)
	args = append(args, out)

	if _, err := p.runner.Run(ctx, p.tools.FFmpeg, args); err != nil {
		return fmt.Errorf("generate cue %s: %w", filepath.Base(out), err)
	}
	return nil
}

// MakeSilence writes seconds of stereo silence to out.
func (p *Processor) MakeSilence(ctx context.Context, out string, seconds float64) error {
	if seconds <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSilence, seconds)
	}
	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=stereo", SampleRate),
		"-t", formatSeconds(seconds),
	}
	args = append(args, encodeArgs()...)
	args = append(args, out)

	if _, err := p.runner.Run(ctx, p.tools.FFmpeg, args); err != nil {
		return fmt.Errorf("generate silence %s: %w", filepath.Base(out), err)
	}
	return nil
}

// Normalize re-encodes in to the common format at out.
func (p *Processor) Normalize(ctx context.Context, in, out string) error {
	args := []string{"-y", "-i", in}
	args = append(args, encodeArgs()...)
	args = append(args, out)

	if _, err := p.runner.Run(ctx, p.tools.FFmpeg, args); err != nil {
		return fmt.Errorf("normalize %s: %w", filepath.Base(in), err)
	}
	return nil
}

// Probe returns the playback duration of path in milliseconds, read from
// container metadata. Only stdout is parsed: ffprobe may log demuxer errors
// on stderr and still report a duration. Any failure yields the fallback.
func (p *Processor) Probe(ctx context.Context, path string) int64 {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	res, err := p.runner.Run(ctx, p.tools.FFprobe, args)
	if err != nil {
		return p.fallbackMs
	}
	ms, ok := parseDurationMs(res.Stdout)
	if !ok {
		return p.fallbackMs
	}
	return ms
}

// parseDurationMs parses ffprobe's bare "12.345678" output.
// The first non-empty line wins; "N/A" and non-positive values are rejected.
func parseDurationMs(output string) (int64, bool) {
	for line := range strings.Lines(output) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sec, err := strconv.ParseFloat(line, 64)
		if err != nil || sec <= 0 {
			return 0, false
		}
		return int64(sec*1000 + 0.5), true
	}
	return 0, false
}

// Concatenate joins inputs, in order, into out. The manifest listing the
// inputs is written to manifestPath; the caller owns its cleanup.
func (p *Processor) Concatenate(ctx context.Context, manifestPath string, inputs []string, out string) error {
	if len(inputs) == 0 {
		return ErrNoInputs
	}

	manifest, err := buildManifest(inputs)
	if err != nil {
		return err
	}
	// #nosec G306 -- temp manifest in the run directory
	if err := p.writer.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		return fmt.Errorf("write concat manifest: %w", err)
	}

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
	}
	args = append(args, encodeArgs()...)
	args = append(args, out)

	if _, err := p.runner.Run(ctx, p.tools.FFmpeg, args); err != nil {
		return fmt.Errorf("%w: %w", ErrConcatenationFailure, err)
	}
	return nil
}

// buildManifest renders the concat demuxer input list.
// Paths are made absolute because the demuxer resolves relative entries
// against the manifest's own directory.
func buildManifest(inputs []string) (string, error) {
	var b strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", in, err)
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String(), nil
}

// ParseManifest is the inverse of the manifest rendering, used by tools that
// need to inspect a concat list.
func ParseManifest(manifest string) []string {
	var paths []string
	for line := range strings.Lines(manifest) {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "file '") || !strings.HasSuffix(line, "'") {
			continue
		}
		quoted := strings.TrimSuffix(strings.TrimPrefix(line, "file '"), "'")
		paths = append(paths, strings.ReplaceAll(quoted, `'\''`, "'"))
	}
	return paths
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
