package ingest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInputFormat is matched by every error caused by a malformed export.
	ErrInputFormat = errors.New("input format")

	// ErrNoMatches is returned by Join when no URL appears in both exports.
	ErrNoMatches = errors.New("no matching URLs between the two exports")
)

// InputFormatError describes an export that cannot be read as a table.
type InputFormatError struct {
	Reason string
	Err    error
}

func (e *InputFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *InputFormatError) Is(target error) bool {
	return target == ErrInputFormat
}

func (e *InputFormatError) Unwrap() error {
	return e.Err
}

// MissingColumnsError lists the logical fields whose columns could not be
// found in the export header.
type MissingColumnsError struct {
	Schema  string
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s export is missing required columns: %s", e.Schema, strings.Join(e.Missing, "; "))
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrInputFormat
}
