package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates the ffmpeg or ffprobe binary could not be located.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrSubprocess is matched by every *SubprocessError via errors.Is.
var ErrSubprocess = errors.New("subprocess failed")

// maxDiagnosticBytes bounds the captured output kept in a SubprocessError.
// FFmpeg prints its banner and stream info before the actual failure, so the
// tail is kept.
const maxDiagnosticBytes = 4096

// SubprocessError reports an external tool that exited non-zero or could not
// be started. ExitCode is -1 when the process never ran.
type SubprocessError struct {
	Tool     string
	Args     []string
	ExitCode int
	Output   string // stderr, or stdout when stderr was empty
	Err      error
}

func (e *SubprocessError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s exited with code %d", e.Tool, e.ExitCode)
	if e.Err != nil && e.ExitCode < 0 {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		b.WriteString("\nOutput: ")
		b.WriteString(tail(out, maxDiagnosticBytes))
	}
	return b.String()
}

// Unwrap exposes the underlying exec error (e.g. *exec.ExitError, context.Canceled).
func (e *SubprocessError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrSubprocess) true for any SubprocessError.
func (e *SubprocessError) Is(target error) bool { return target == ErrSubprocess }

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
