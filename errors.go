package ext2

import "errors"

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// ErrNotFound is returned when a path component does not exist.
	ErrNotFound = errors.New("no such file or directory")

	// ErrNotDirectory is returned when an interior path component is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrIsDirectory is returned when a directory is opened without the directory flag.
	ErrIsDirectory = errors.New("is a directory")

	// ErrReadOnly is returned by every mutating operation; the filesystem never accepts writes.
	ErrReadOnly = errors.New("read-only file system")
)
