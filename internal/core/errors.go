package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match with errors.Is; FileError and CountError wrap them.
var (
	// ErrInvalidExtension means a supplied file name does not end in .csv.
	ErrInvalidExtension = errors.New("invalid file extension")

	// ErrFileCountExceeded means a batch would take a session past its file limit.
	ErrFileCountExceeded = errors.New("file count exceeded")

	// ErrReadFailure means a file's content could not be read as text.
	ErrReadFailure = errors.New("read failure")

	// ErrFileTooLarge means a file is bigger than the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrFileNotFound means no registered file has the given ID.
	ErrFileNotFound = errors.New("file not found")

	// ErrSessionNotFound means no live session has the given ID.
	ErrSessionNotFound = errors.New("session not found")
)

// FileErrorKind classifies a per-file failure.
type FileErrorKind string

const (
	InvalidExtension FileErrorKind = "invalid_extension"
	ReadFailure      FileErrorKind = "read_failure"
)

// FileError reports why one file of a batch was not registered.
// It never aborts the rest of the batch.
type FileError struct {
	FileName string
	Kind     FileErrorKind
	Err      error // underlying cause, nil for InvalidExtension
}

func (e *FileError) Error() string {
	switch e.Kind {
	case InvalidExtension:
		return fmt.Sprintf("%s: only .csv files are accepted", e.FileName)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: %v", e.FileName, ErrReadFailure, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.FileName, ErrReadFailure)
	}
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *FileError) Unwrap() []error {
	errs := []error{e.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *FileError) sentinel() error {
	if e.Kind == InvalidExtension {
		return ErrInvalidExtension
	}
	return ErrReadFailure
}

// CountError is returned when a batch is rejected for exceeding the file limit.
type CountError struct {
	Registered int
	Supplied   int
	Max        int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("%v: %d registered + %d supplied exceeds limit of %d",
		ErrFileCountExceeded, e.Registered, e.Supplied, e.Max)
}

func (e *CountError) Unwrap() error {
	return ErrFileCountExceeded
}
