// Package tree converts between token streams and trees of Go values.
//
// A value tree is made of map[string]any, []any, string, bool, nil and
// numbers. Numbers may be any Go integer or float type, json.Number or
// *big.Int; the Builder always produces json.Number so that no precision is
// lost.
package tree

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"slices"
	"strconv"

	"github.com/arnodel/wsjson/token"
)

// A Reader returns the tokens of a value tree. Object members are returned in
// ascending key order, so the token sequence of a tree is always the same.
type Reader struct {
	value   any
	started bool
	stack   []readFrame
	err     error
}

type readFrame struct {
	m         map[string]any
	keys      []string
	arr       []any
	i         int
	needValue bool
}

var _ token.Reader = &Reader{}

// NewReader returns a Reader over the tree rooted at v.
func NewReader(v any) *Reader {
	return &Reader{value: v}
}

// Depth returns the number of containers currently open.
func (r *Reader) Depth() int {
	return len(r.stack)
}

// Next returns the next token of the tree, or io.EOF after the last one. A
// value of an unsupported type is an error.
func (r *Reader) Next() (token.Token, error) {
	if r.err != nil {
		return nil, r.err
	}
	tok, err := r.next()
	if err != nil {
		r.err = err
	}
	return tok, err
}

func (r *Reader) next() (token.Token, error) {
	if !r.started {
		r.started = true
		return r.open(r.value)
	}
	if len(r.stack) == 0 {
		return nil, io.EOF
	}
	top := &r.stack[len(r.stack)-1]
	if top.keys != nil {
		if top.needValue {
			top.needValue = false
			v := top.m[top.keys[top.i]]
			top.i++
			return r.open(v)
		}
		if top.i == len(top.keys) {
			r.stack = r.stack[:len(r.stack)-1]
			return token.EndObjectToken, nil
		}
		top.needValue = true
		return token.KeyScalar(top.keys[top.i]), nil
	}
	if top.i == len(top.arr) {
		r.stack = r.stack[:len(r.stack)-1]
		return token.EndArrayToken, nil
	}
	v := top.arr[top.i]
	top.i++
	return r.open(v)
}

// open returns the first token of v, pushing a frame if v is a container.
func (r *Reader) open(v any) (token.Token, error) {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		r.stack = append(r.stack, readFrame{m: x, keys: keys})
		return token.StartObjectToken, nil
	case []any:
		r.stack = append(r.stack, readFrame{arr: x})
		return token.StartArrayToken, nil
	}
	return ScalarOf(v)
}

// ScalarOf returns the token for a scalar Go value.
func ScalarOf(v any) (*token.Scalar, error) {
	switch x := v.(type) {
	case nil:
		return token.NullScalar, nil
	case bool:
		return token.BoolScalar(x), nil
	case string:
		return token.StringScalar(x), nil
	case []byte:
		return token.StringScalar(base64.StdEncoding.EncodeToString(x)), nil
	case json.Number:
		if !isNumber(string(x)) {
			return nil, fmt.Errorf("invalid number literal %q", string(x))
		}
		return token.NumberScalar(string(x)), nil
	case float64:
		return floatScalar(x)
	case float32:
		return floatScalar(float64(x))
	case int:
		return token.Int64Scalar(int64(x)), nil
	case int8:
		return token.Int64Scalar(int64(x)), nil
	case int16:
		return token.Int64Scalar(int64(x)), nil
	case int32:
		return token.Int64Scalar(int64(x)), nil
	case int64:
		return token.Int64Scalar(x), nil
	case uint:
		return token.Uint64Scalar(uint64(x)), nil
	case uint8:
		return token.Uint64Scalar(uint64(x)), nil
	case uint16:
		return token.Uint64Scalar(uint64(x)), nil
	case uint32:
		return token.Uint64Scalar(uint64(x)), nil
	case uint64:
		return token.Uint64Scalar(x), nil
	case *big.Int:
		return token.NumberScalar(x.String()), nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T in tree", v)
	}
}

func floatScalar(x float64) (*token.Scalar, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil, fmt.Errorf("%s cannot be represented in JSON", strconv.FormatFloat(x, 'g', -1, 64))
	}
	return token.Float64Scalar(x), nil
}

// isNumber reports whether s is a valid JSON number literal.
func isNumber(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	switch {
	case i < len(s) && s[i] == '0':
		i++
	case i < len(s) && s[i] >= '1' && s[i] <= '9':
		i = digits(s, i)
	default:
		return false
	}
	if i < len(s) && s[i] == '.' {
		j := digits(s, i+1)
		if j == i+1 {
			return false
		}
		i = j
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		j := digits(s, i)
		if j == i {
			return false
		}
		i = j
	}
	return i == len(s)
}

func digits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}
