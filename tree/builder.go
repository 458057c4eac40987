package tree

import (
	"errors"
	"fmt"

	"github.com/arnodel/wsjson/errs"
	"github.com/arnodel/wsjson/token"
)

// A Builder is a token.Sink that assembles the tokens it is given into a
// value tree. Numbers become json.Number. Of duplicated keys in an object,
// the first is kept.
//
// If MaxSize is positive, the Builder fails with errs.ErrSubsetTooLarge as
// soon as the compact JSON text of the tree would exceed MaxSize bytes.
type Builder struct {
	MaxSize int64

	size  int64
	stack []buildFrame
	value any
	done  bool
}

type buildFrame struct {
	obj    map[string]any
	arr    []any
	key    string
	hasKey bool
}

var _ token.Sink = &Builder{}

var (
	errNoKey        = errors.New("object value without a key")
	errKeyOutside   = errors.New("key outside of an object")
	errTwoKeys      = errors.New("two keys in a row")
	errExtraValue   = errors.New("more than one top level value")
	errMismatchEnd  = errors.New("end token does not match the open container")
	errUnknownToken = errors.New("unknown token")
)

// NewBuilder returns a Builder with no size limit.
func NewBuilder() *Builder {
	return &Builder{}
}

// Put adds tok to the tree.
func (b *Builder) Put(tok token.Token) error {
	if err := b.grow(tok); err != nil {
		return err
	}
	switch t := tok.(type) {
	case *token.StartObject:
		b.stack = append(b.stack, buildFrame{obj: map[string]any{}})
	case *token.StartArray:
		b.stack = append(b.stack, buildFrame{arr: []any{}})
	case *token.EndObject:
		return b.end(true)
	case *token.EndArray:
		return b.end(false)
	case *token.Scalar:
		if t.IsKey() {
			if len(b.stack) == 0 || b.stack[len(b.stack)-1].obj == nil {
				return errKeyOutside
			}
			top := &b.stack[len(b.stack)-1]
			if top.hasKey {
				return errTwoKeys
			}
			top.key = t.Text()
			top.hasKey = true
			return nil
		}
		return b.add(t.ToGo())
	default:
		return errUnknownToken
	}
	return nil
}

// Value returns the tree built so far. It is only complete once Done returns
// true.
func (b *Builder) Value() any {
	return b.value
}

// Done reports whether a whole value has been built.
func (b *Builder) Done() bool {
	return b.done
}

// Size returns the size in bytes of the compact JSON text of the tokens
// received so far, not counting separators.
func (b *Builder) Size() int64 {
	return b.size
}

func (b *Builder) grow(tok token.Token) error {
	if s, ok := tok.(*token.Scalar); ok {
		b.size += int64(len(s.Bytes))
		if s.IsKey() {
			b.size++
		}
	} else {
		b.size++
	}
	if b.MaxSize > 0 && b.size > b.MaxSize {
		return fmt.Errorf("%w: more than %d bytes", errs.ErrSubsetTooLarge, b.MaxSize)
	}
	return nil
}

func (b *Builder) end(object bool) error {
	n := len(b.stack)
	if n == 0 || (b.stack[n-1].obj != nil) != object {
		return errMismatchEnd
	}
	top := b.stack[n-1]
	if top.hasKey {
		return errNoKey
	}
	b.stack = b.stack[:n-1]
	if object {
		return b.add(top.obj)
	}
	return b.add(top.arr)
}

func (b *Builder) add(v any) error {
	n := len(b.stack)
	if n == 0 {
		if b.done {
			return errExtraValue
		}
		b.value = v
		b.done = true
		return nil
	}
	top := &b.stack[n-1]
	if top.obj != nil {
		if !top.hasKey {
			return errNoKey
		}
		if _, dup := top.obj[top.key]; !dup {
			top.obj[top.key] = v
		}
		top.hasKey = false
		return nil
	}
	top.arr = append(top.arr, v)
	return nil
}

// Build reads all the tokens of r into a value tree.
func Build(r token.Reader) (any, error) {
	b := NewBuilder()
	if _, err := token.Copy(b, r); err != nil {
		return nil, err
	}
	if !b.done || len(b.stack) > 0 {
		return nil, errors.New("incomplete value")
	}
	return b.value, nil
}
