package id3

import "errors"

// ErrTooManyChapters indicates the chapter count exceeds what a CTOC frame
// can list (its entry count is a single byte).
var ErrTooManyChapters = errors.New("too many chapters for table of contents")

// ErrTag indicates the tag could not be read from or written to the file.
var ErrTag = errors.New("id3 tag error")
