package normalizer

import (
	"errors"
	"fmt"
)

// Feed-level parse errors. These abort a run.
var (
	ErrInvalidJSON     = errors.New("invalid JSON document")
	ErrUnexpectedShape = errors.New("unexpected top-level shape: expected array or object")
	ErrNoRecordList    = errors.New("no list of site records found")
)

// Record-level errors. These are recovered by skipping the record.
var (
	ErrNotAnObject = errors.New("record is not an object")
	ErrMissingName = errors.New("record has no name field")
	ErrMissingURL  = errors.New("record has no api/url field")
	ErrInvalidURL  = errors.New("record url is not an absolute http(s) URL")
)

// ParseError reports a feed that cannot be read as a list of site records.
type ParseError struct {
	Err    error
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("parse feed: %v", e.Err)
	}

	return fmt.Sprintf("parse feed: %v: %s", e.Err, e.Detail)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RecordError reports a single record that was skipped.
type RecordError struct {
	Err   error
	Path  string
	Value string
	Index int
}

func (e *RecordError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("record %d at %s: %v", e.Index, e.Path, e.Err)
	}

	return fmt.Sprintf("record %d at %s: %v (%q)", e.Index, e.Path, e.Err, e.Value)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
