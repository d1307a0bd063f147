package core

import "errors"

// Sentinel errors. Their text carries the patterns MapError looks for, so a
// wrapped error keeps its user-facing code.
var (
	ErrMissingColumn     = errors.New("address column not found")
	ErrUnreadableFile    = errors.New("unreadable file")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("empty file")
	ErrNoInput           = errors.New("no input loaded")
	ErrRunNotFound       = errors.New("run not found")
)

// ErrUnknownCategory is returned for a download of a category that does not exist.
var ErrUnknownCategory = errors.New("unknown category")
