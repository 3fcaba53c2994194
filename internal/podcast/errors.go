package podcast

import "errors"

// ErrSynthesisFailure indicates the speech service produced no audio for an
// intro or a narration. The run is aborted.
var ErrSynthesisFailure = errors.New("speech synthesis failed")

// ErrNoContentGenerated indicates none of the selections resolved to a text.
var ErrNoContentGenerated = errors.New("no content generated")

// ErrNotFound indicates a single-episode request named an unknown text.
var ErrNotFound = errors.New("text not found")
