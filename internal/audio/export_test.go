package audio

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// ParseDurationMs exports parseDurationMs for testing.
var ParseDurationMs = parseDurationMs

// BuildManifest exports buildManifest for testing.
var BuildManifest = buildManifest

// WithFileWriter exports withFileWriter for testing.
var WithFileWriter = withFileWriter

// FileWriterFunc adapts a function to the internal fileWriter interface.
type FileWriterFunc = fileWriterFunc
