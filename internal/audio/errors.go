package audio

import "errors"

// ErrConcatenationFailure indicates FFmpeg could not join the segment files.
// The wrapped *ffmpeg.SubprocessError carries the captured diagnostics.
var ErrConcatenationFailure = errors.New("audio concatenation failed")

// ErrInvalidSilence indicates a non-positive silence duration was requested.
var ErrInvalidSilence = errors.New("silence duration must be positive")

// ErrNoInputs indicates Concatenate was called with an empty file list.
var ErrNoInputs = errors.New("no input files to concatenate")
