package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates OPENAI_API_KEY environment variable is not set.
	ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

	// ErrInvalidSelection indicates a selection that is not "topic/text".
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrNoSelections indicates a build without any selection.
	ErrNoSelections = errors.New("no selections given")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")

	// ErrTerminalOutput indicates binary output was requested on a terminal.
	ErrTerminalOutput = errors.New("refusing to write audio to a terminal")
)
