package cache

import "errors"

// ErrCacheWrite indicates narration audio could not be persisted.
// Callers treat it as non-fatal: the in-memory audio is still usable.
var ErrCacheWrite = errors.New("cache write failed")

// ErrNotCached indicates no entry exists for the requested key.
var ErrNotCached = errors.New("entry not cached")

// ErrEmptyKey indicates a topic or text identifier is empty.
var ErrEmptyKey = errors.New("cache key must have topic and text ids")
