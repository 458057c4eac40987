package token

import (
	"errors"
	"io"
)

// Reader is a pull source of tokens. Next returns io.EOF once the document is
// exhausted, and keeps returning it.
type Reader interface {
	Next() (Token, error)
}

// Sink receives tokens in document order.
type Sink interface {
	Put(Token) error
}

// RawSink is a Sink that can also take a fragment of JSON text verbatim, in
// place of the tokens that fragment encodes.
type RawSink interface {
	Sink
	PutRaw([]byte) error
}

// SliceReader reads tokens from a slice.
type SliceReader struct {
	toks []Token
}

var _ Reader = &SliceReader{}

func NewSliceReader(toks []Token) *SliceReader {
	return &SliceReader{toks: toks}
}

func (r *SliceReader) Next() (Token, error) {
	if len(r.toks) == 0 {
		return nil, io.EOF
	}
	tok := r.toks[0]
	r.toks = r.toks[1:]
	return tok, nil
}

// Accumulator is a Sink that keeps all the tokens it is given.
type Accumulator struct {
	toks []Token
}

var _ Sink = &Accumulator{}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (w *Accumulator) Put(tok Token) error {
	w.toks = append(w.toks, tok)
	return nil
}

func (w *Accumulator) Tokens() []Token {
	return w.toks
}

// Copy puts every token of r into sink, until r is exhausted. It returns the
// number of tokens copied.
func Copy(sink Sink, r Reader) (int, error) {
	n := 0
	for {
		tok, err := r.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := sink.Put(tok); err != nil {
			return n, err
		}
		n++
	}
}

// ReadAll returns all the tokens of r.
func ReadAll(r Reader) ([]Token, error) {
	acc := NewAccumulator()
	_, err := Copy(acc, r)
	return acc.Tokens(), err
}
