package audio

import "os"

// fileWriter abstracts the filesystem writes the processor performs itself
// (the concat manifest). Everything else is written by FFmpeg.
type fileWriter interface {
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// osFileWriter implements fileWriter using os.WriteFile.
type osFileWriter struct{}

func (osFileWriter) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// fileWriterFunc adapts a function to fileWriter.
type fileWriterFunc func(name string, data []byte, perm os.FileMode) error

func (f fileWriterFunc) WriteFile(name string, data []byte, perm os.FileMode) error {
	return f(name, data, perm)
}

// Compile-time interface checks.
var (
	_ fileWriter = osFileWriter{}
	_ fileWriter = fileWriterFunc(nil)
)
