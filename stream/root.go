package stream

import (
	"fmt"
	"io"
	"strings"

	"github.com/arnodel/wsjson/errs"
	"github.com/arnodel/wsjson/token"
)

// rootReader returns only the tokens of the value found by following path
// from the top of the document. The rest of the document is not read.
type rootReader struct {
	in    token.Reader
	path  []string
	found bool
	done  bool
	depth int
}

func (r *rootReader) Next() (token.Token, error) {
	if r.done {
		return nil, io.EOF
	}
	if !r.found {
		if err := r.find(); err != nil {
			return nil, err
		}
		r.found = true
	}
	tok, err := r.in.Next()
	if err != nil {
		return nil, err
	}
	switch tok.(type) {
	case *token.StartObject, *token.StartArray:
		r.depth++
	case *token.EndObject, *token.EndArray:
		r.depth--
	}
	if r.depth == 0 {
		r.done = true
	}
	return tok, nil
}

// find reads up to the key of the last path element.
func (r *rootReader) find() error {
	for i, name := range r.path {
		notFound := fmt.Errorf("%w: /%s", errs.ErrRootNotFound, strings.Join(r.path[:i+1], "/"))
		tok, err := r.in.Next()
		if err != nil {
			return err
		}
		if _, ok := tok.(*token.StartObject); !ok {
			return notFound
		}
		for {
			tok, err := r.in.Next()
			if err != nil {
				return err
			}
			key, ok := tok.(*token.Scalar)
			if !ok {
				return notFound
			}
			if key.EqualsString(name) {
				break
			}
			if err := skipValue(r.in); err != nil {
				return err
			}
		}
	}
	return nil
}

// skipValue reads the next value of r and drops it.
func skipValue(r token.Reader) error {
	depth := 0
	for {
		tok, err := r.Next()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case *token.StartObject, *token.StartArray:
			depth++
		case *token.EndObject, *token.EndArray:
			depth--
		}
		if depth == 0 {
			return nil
		}
	}
}
