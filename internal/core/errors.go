package core

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// FileReadError reports that the source CSV could not be opened or read.
// errors.Is(err, fs.ErrNotExist) holds when the file is missing.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// NotFound reports whether the file does not exist.
func (e *FileReadError) NotFound() bool {
	return errors.Is(e.Err, fs.ErrNotExist)
}

// ParseError reports structurally malformed input: a missing header row, a
// missing required column, or an address conflict under ConflictFail.
// Line and Record are 1-based and zero when not known.
type ParseError struct {
	Line   int
	Record int
	Column string
	Msg    string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("invalid csv")
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Record > 0 {
		fmt.Fprintf(&b, ": record %d", e.Record)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %q", e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	return b.String()
}

// LoadError reports a failed bulk load. The transaction has already been
// rolled back when a LoadError is returned. Row is the 1-based index of the
// record whose insert failed, or zero for begin/commit failures.
type LoadError struct {
	Row int
	Err error
}

func (e *LoadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("load failed at record %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("load failed: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// AggregateError reports a failed age distribution query.
type AggregateError struct {
	Err error
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("aggregate failed: %v", e.Err)
}

func (e *AggregateError) Unwrap() error { return e.Err }
