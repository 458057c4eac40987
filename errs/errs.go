// Package errs holds the error values shared by the wsjson packages.
//
// Configuration errors are plain sentinels. Errors that carry a location
// (syntax errors, duplicate keys, malformed selections) are typed and match
// their sentinel with errors.Is, so callers can test the category without
// caring about the details:
//
//	if errors.Is(err, errs.ErrDuplicateKey) { ... }
package errs

import (
	"errors"
	"fmt"
)

// Configuration errors.
var (
	ErrInvalidBufferSize  = errors.New("invalid buffer size")
	ErrEmptyInput         = errors.New("data must be at least 1 byte / char")
	ErrUnsupportedInput   = errors.New("only text, bytes, file and tree inputs are allowed")
	ErrTrustedSubRoot     = errors.New("root is inside contained object, cannot set trusted whole JSON")
	ErrMalformedSelection = errors.New("malformed selection")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// Input errors.
var (
	ErrSyntax       = errors.New("syntax error")
	ErrDuplicateKey = errors.New("duplicated key")
	ErrRootNotFound = errors.New("root path not found")
)

// Resource limit errors.
var (
	ErrKeyMemoryExceeded = errors.New("memory for keys exceeded")
	ErrSubsetTooLarge    = errors.New("subset exceeds maximum size")
)

// SyntaxError reports malformed JSON. Offset is the byte offset of the
// offending byte. Line and Col are 1-based and only set by the token decoder,
// which tracks them; the canonicalizer works on raw offsets and leaves them 0.
type SyntaxError struct {
	Offset int64
	Line   int
	Col    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at L%d,C%d (offset %d): %s", e.Line, e.Col, e.Offset, e.Msg)
	}
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Msg)
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// Syntaxf builds a *SyntaxError at the given offset.
func Syntaxf(offset int64, format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// DuplicateKeyError is returned when an object has two members with the same
// key and duplicates are not being skipped.
type DuplicateKeyError struct {
	Key    string
	Offset int64
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicated key %q at offset %d", e.Key, e.Offset)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// SelectionError reports a selection that does not fit the document or the
// selection grammar. Path is the slash-separated location in the document
// ("/" for the root).
type SelectionError struct {
	Path string
	Msg  string
}

func (e *SelectionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed selection: %s", e.Msg)
	}
	return fmt.Sprintf("malformed selection at %s: %s", e.Path, e.Msg)
}

func (e *SelectionError) Is(target error) bool {
	return target == ErrMalformedSelection
}

// Selectionf builds a *SelectionError at the given path.
func Selectionf(path string, format string, args ...any) *SelectionError {
	return &SelectionError{Path: path, Msg: fmt.Sprintf(format, args...)}
}
