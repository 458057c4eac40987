// Package stream opens a token stream over a JSON document held as text, as a
// byte slice, in a file or as an already parsed value tree.
//
// Whatever the input, the stream is consumed through the same methods, so
// callers such as the extractor never need to know where the tokens come
// from. When the document is known to be valid JSON, the stream can copy it
// out verbatim instead of re-encoding its tokens.
package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	wsjson "github.com/arnodel/wsjson/encoding/json"
	"github.com/arnodel/wsjson/errs"
	"github.com/arnodel/wsjson/source"
	"github.com/arnodel/wsjson/token"
	"github.com/arnodel/wsjson/tree"
)

const (
	// DefaultCopyBufferSize is the default size of the chunks moved by
	// verbatim copies and of the output buffer of WriteJSON.
	DefaultCopyBufferSize = source.CopyBufferSize

	// MinCopyBufferSize is the smallest CopyBufferSize accepted.
	MinCopyBufferSize = 10

	// DefaultReadBufferSize is the default size of the decoder's read buffer.
	DefaultReadBufferSize = 8192
)

// An Input is a document to stream. It is one of Text, Bytes, File or Tree.
type Input interface {
	input()
}

// Text is a document held in a string.
type Text string

// Bytes is a document held in a byte slice.
type Bytes []byte

// File is the path of a document on disk.
type File string

// Tree is a document already parsed into a value tree (see package tree).
type Tree struct {
	Value any
}

func (Text) input()  {}
func (Bytes) input() {}
func (File) input()  {}
func (Tree) input()  {}

// Options configure a Stream.
type Options struct {
	// Size of the chunks moved by verbatim copies.
	CopyBufferSize int

	// The document is known to be valid JSON, so it may be copied out
	// byte for byte. Incompatible with a non-empty Root.
	TrustedWholeJSON bool

	// Path of field names to the value to stream. Empty means the whole
	// document.
	Root []string

	// Size of the decoder's read buffer.
	ReadBufferSize int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		CopyBufferSize: DefaultCopyBufferSize,
		ReadBufferSize: DefaultReadBufferSize,
	}
}

// WithRoot returns a copy of o streaming only the value at path. A non-empty
// path means the document is not streamed as a whole, so TrustedWholeJSON is
// cleared.
func (o Options) WithRoot(path ...string) Options {
	o.Root = path
	if len(path) > 0 {
		o.TrustedWholeJSON = false
	}
	return o
}

// Validate checks o without opening anything.
func (o Options) Validate() error {
	if o.CopyBufferSize < MinCopyBufferSize {
		return fmt.Errorf("%w: copy buffer of %d bytes, minimum is %d", errs.ErrInvalidBufferSize, o.CopyBufferSize, MinCopyBufferSize)
	}
	if o.ReadBufferSize < wsjson.MinBufferSize {
		return fmt.Errorf("%w: read buffer of %d bytes", errs.ErrInvalidBufferSize, o.ReadBufferSize)
	}
	if len(o.Root) > 0 && o.TrustedWholeJSON {
		return errs.ErrTrustedSubRoot
	}
	return nil
}

// A Stream returns the tokens of a document one at a time. It is not safe
// for concurrent use.
type Stream struct {
	in   Input
	opts Options

	// nil for tree inputs
	src source.Source

	tokens   token.Reader
	cur      token.Token
	consumed bool
	copied   bool
}

var _ token.Reader = &Stream{}

// Open returns a Stream over in. Empty text, bytes or files are rejected with
// errs.ErrEmptyInput.
func Open(in Input, opts Options) (*Stream, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s := &Stream{in: in, opts: opts}
	var err error
	switch x := in.(type) {
	case Text:
		s.src, err = source.NewString(string(x))
	case Bytes:
		s.src, err = source.NewMemory(x)
	case File:
		s.src, err = source.OpenFile(string(x))
	case Tree:
	default:
		return nil, errs.ErrUnsupportedInput
	}
	if err != nil {
		return nil, err
	}
	if err := s.Reset(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Options returns the options the stream was opened with.
func (s *Stream) Options() Options {
	return s.opts
}

// Reset rewinds the stream to the start of the document.
func (s *Stream) Reset() error {
	s.cur = nil
	s.consumed = false
	s.copied = false
	if t, ok := s.in.(Tree); ok {
		s.tokens = tree.NewReader(t.Value)
	} else {
		if _, err := s.src.Seek(0, io.SeekStart); err != nil {
			return err
		}
		d, err := wsjson.NewDecoderSize(s.src, s.opts.ReadBufferSize)
		if err != nil {
			return err
		}
		s.tokens = d
	}
	if len(s.opts.Root) > 0 {
		s.tokens = &rootReader{in: s.tokens, path: s.opts.Root}
	}
	return nil
}

// Close releases the file of a File input.
func (s *Stream) Close() error {
	if s.src == nil {
		return nil
	}
	return s.src.Close()
}

// Next returns the next token, or io.EOF at the end of the stream.
func (s *Stream) Next() (token.Token, error) {
	if s.copied {
		return nil, io.EOF
	}
	tok, err := s.tokens.Next()
	if err != nil {
		return nil, err
	}
	s.cur = tok
	s.consumed = true
	return tok, nil
}

// Current returns the last token returned by Next.
func (s *Stream) Current() token.Token {
	return s.cur
}

var errNotScalar = errors.New("current token is not a scalar")

func (s *Stream) scalar() (*token.Scalar, error) {
	sc, ok := s.cur.(*token.Scalar)
	if !ok {
		return nil, errNotScalar
	}
	return sc, nil
}

// Text returns the text of the current token: the decoded string of a string
// or field name, the literal of any other scalar.
func (s *Stream) Text() (string, error) {
	sc, err := s.scalar()
	if err != nil {
		return "", err
	}
	return sc.Text(), nil
}

// Int64 returns the value of the current token, which must be an integer.
func (s *Stream) Int64() (int64, error) {
	sc, err := s.scalar()
	if err != nil {
		return 0, err
	}
	return sc.Int64()
}

// Float64 returns the value of the current token, which must be a number.
func (s *Stream) Float64() (float64, error) {
	sc, err := s.scalar()
	if err != nil {
		return 0, err
	}
	return sc.Float64()
}

// Number returns the literal of the current token, which must be a number.
func (s *Stream) Number() (json.Number, error) {
	sc, err := s.scalar()
	if err != nil {
		return "", err
	}
	if sc.Type() != token.Number {
		return "", fmt.Errorf("%s is not a number", sc)
	}
	return json.Number(sc.Bytes), nil
}

// WriteTokens puts all the remaining tokens into sink. If the whole document
// is trusted, nothing has been read yet and sink is a token.RawSink, the
// document is passed on verbatim instead.
func (s *Stream) WriteTokens(sink token.Sink) error {
	if raw, ok := sink.(token.RawSink); ok && s.canCopy() {
		return s.copyTo(rawWriter{raw})
	}
	_, err := token.Copy(sink, s)
	return err
}

// WriteJSON writes the remaining tokens to w as compact JSON text. If the
// whole document is trusted and nothing has been read yet, the document is
// copied verbatim.
func (s *Stream) WriteJSON(w io.Writer) error {
	if s.canCopy() {
		return s.copyTo(w)
	}
	bw := bufio.NewWriterSize(w, s.opts.CopyBufferSize)
	if _, err := token.Copy(wsjson.NewEncoder(bw), s); err != nil {
		return err
	}
	return bw.Flush()
}

func (s *Stream) canCopy() bool {
	return s.opts.TrustedWholeJSON && s.src != nil && !s.consumed && !s.copied
}

func (s *Stream) copyTo(w io.Writer) error {
	if _, err := s.src.Seek(0, io.SeekStart); err != nil {
		return err
	}
	s.copied = true
	_, err := source.CopyChunks(w, s.src, s.opts.CopyBufferSize)
	return err
}

type rawWriter struct {
	sink token.RawSink
}

func (w rawWriter) Write(p []byte) (int, error) {
	if err := w.sink.PutRaw(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
