// Package json converts between JSON text and token streams.
package json

import (
	"fmt"
	"io"

	"github.com/arnodel/wsjson/errs"
	"github.com/arnodel/wsjson/internal/scanner"
	"github.com/arnodel/wsjson/token"
)

// MinBufferSize is the smallest read buffer a Decoder accepts. The scanner
// needs room for one byte of look back on top of the byte being read.
const MinBufferSize = 2

// A Decoder reads JSON input and returns its tokens one at a time.
//
// Unless Multiple is set, the input must contain exactly one JSON value,
// optionally surrounded by whitespace.
type Decoder struct {
	scanr *scanner.Scanner

	// Accept a sequence of values such as JSON lines.
	Multiple bool

	// One frame per open container
	stack   []frame
	started bool
	err     error
}

type frameState uint8

const (
	afterOpen frameState = iota // just after '{' or '['
	afterKey                    // a key was returned, ':' and a value come next
	afterItem                   // a complete item was returned
)

type frame struct {
	object bool
	state  frameState
}

var _ token.Reader = &Decoder{}

// NewDecoder sets up a new Decoder instance to read from the given input.
func NewDecoder(in io.Reader) *Decoder {
	return &Decoder{scanr: scanner.NewScanner(in)}
}

// NewDecoderSize is like NewDecoder but uses a read buffer of the given size.
func NewDecoderSize(in io.Reader, size int) (*Decoder, error) {
	if size < MinBufferSize {
		return nil, fmt.Errorf("%w: decoder buffer of %d bytes", errs.ErrInvalidBufferSize, size)
	}
	return &Decoder{scanr: scanner.NewScannerSize(in, size)}, nil
}

// Offset returns the byte offset in the input just after the last token
// returned.
func (d *Decoder) Offset() int64 {
	return d.scanr.Offset()
}

// Depth returns the number of containers currently open.
func (d *Decoder) Depth() int {
	return len(d.stack)
}

// Next returns the next token of the input, or io.EOF after the last one.
// Invalid input yields a *errs.SyntaxError. Errors are sticky: once Next has
// failed it keeps returning the same error.
func (d *Decoder) Next() (token.Token, error) {
	if d.err != nil {
		return nil, d.err
	}
	tok, err := d.next()
	if err != nil {
		d.err = err
	}
	return tok, err
}

func (d *Decoder) next() (token.Token, error) {
	if len(d.stack) == 0 {
		b, err := d.scanr.SkipSpaceAndPeek()
		if err != nil {
			return nil, err
		}
		if b == scanner.EOF && (d.started || d.Multiple) {
			return nil, io.EOF
		}
		if d.started {
			if !d.Multiple {
				return nil, UnexpectedByte(d.scanr, "unexpected data after the document")
			}
		}
		d.started = true
		return d.parseValue()
	}
	top := &d.stack[len(d.stack)-1]
	switch top.state {
	case afterOpen:
		b, err := d.scanr.SkipSpaceAndPeek()
		if err != nil {
			return nil, err
		}
		if closer := d.closer(top); b == closer {
			d.scanr.Read()
			return d.pop(top), nil
		}
		return d.item(top)
	case afterKey:
		b, err := d.scanr.SkipSpaceAndPeek()
		if err != nil {
			return nil, err
		}
		if b != ':' {
			return nil, UnexpectedByte(d.scanr, "expected ':', got")
		}
		d.scanr.Read()
		top.state = afterItem
		return d.parseValue()
	default:
		b, err := d.scanr.SkipSpaceAndPeek()
		if err != nil {
			return nil, err
		}
		switch b {
		case d.closer(top):
			d.scanr.Read()
			return d.pop(top), nil
		case ',':
			d.scanr.Read()
			return d.item(top)
		}
		if top.object {
			return nil, UnexpectedByte(d.scanr, "expected '}' or ',', got")
		}
		return nil, UnexpectedByte(d.scanr, "expected ']' or ',', got")
	}
}

// item reads the first token of the next member (a key) or element.
func (d *Decoder) item(top *frame) (token.Token, error) {
	if top.object {
		if _, err := d.scanr.SkipSpaceAndPeek(); err != nil {
			return nil, err
		}
		key, err := ParseString(d.scanr)
		if err != nil {
			return nil, err
		}
		key.TypeAndFlags |= token.KeyMask
		top.state = afterKey
		return key, nil
	}
	top.state = afterItem
	return d.parseValue()
}

func (d *Decoder) closer(f *frame) byte {
	if f.object {
		return '}'
	}
	return ']'
}

func (d *Decoder) pop(f *frame) token.Token {
	d.stack = d.stack[:len(d.stack)-1]
	if f.object {
		return token.EndObjectToken
	}
	return token.EndArrayToken
}

// parseValue reads the first token of a JSON value. If it opens a container,
// a frame is pushed for it.
func (d *Decoder) parseValue() (token.Token, error) {
	b, err := d.scanr.SkipSpaceAndPeek()
	if err != nil {
		return nil, err
	}
	switch b {
	case scanner.EOF:
		return nil, UnexpectedByte(d.scanr, "unexpected end of input")
	case '"':
		return ParseString(d.scanr)
	case '[':
		d.scanr.Read()
		d.stack = append(d.stack, frame{})
		return token.StartArrayToken, nil
	case '{':
		d.scanr.Read()
		d.stack = append(d.stack, frame{object: true})
		return token.StartObjectToken, nil
	case 't':
		if err := checkBytes(d.scanr, trueBytes); err != nil {
			return nil, err
		}
		return token.TrueScalar, nil
	case 'f':
		if err := checkBytes(d.scanr, falseBytes); err != nil {
			return nil, err
		}
		return token.FalseScalar, nil
	case 'n':
		if err := checkBytes(d.scanr, nullBytes); err != nil {
			return nil, err
		}
		return token.NullScalar, nil
	default:
		if b == '-' || b >= '0' && b <= '9' {
			return ParseNumber(d.scanr)
		}
		return nil, UnexpectedByte(d.scanr, "unexpected")
	}
}

func ExpectByte(scanr *scanner.Scanner, xb byte) error {
	b, err := scanr.Read()
	if err != nil {
		return err
	}
	if b != xb {
		scanr.Back()
		return UnexpectedByte(scanr, "expected %q, got", xb)
	}
	return nil
}

// UnexpectedByte returns a *errs.SyntaxError about the next byte in the
// scanner.
func UnexpectedByte(scanr *scanner.Scanner, expected string, args ...interface{}) error {
	pos := scanr.CurrentPos()
	offset := scanr.Offset()
	b, err := scanr.Read()
	if err != nil {
		return err
	}
	serr := &errs.SyntaxError{Offset: offset, Line: pos.Line + 1, Col: pos.Col + 1}
	if b == scanner.EOF {
		serr.Msg = fmt.Sprintf("%s: <EOF>", fmt.Sprintf(expected, args...))
	} else {
		serr.Msg = fmt.Sprintf("%s: %q", fmt.Sprintf(expected, args...), b)
	}
	return serr
}

func ParseString(scanr *scanner.Scanner) (*token.Scalar, error) {
	scanr.StartToken()
	err := ExpectByte(scanr, '"')
	if err != nil {
		scanr.EndToken()
		return nil, err
	}
	isAlnum := true
	isUnescaped := true
	firstChar := true
	for {
		b, err := scanr.Read()
		if err != nil {
			return nil, err
		}
		switch b {
		case scanner.EOF:
			scanr.Back()
			scanr.EndToken()
			return nil, UnexpectedByte(scanr, "unterminated string")
		case '\\':
			isUnescaped = false
			x, err := scanr.Read()
			if err != nil {
				return nil, err
			}
			switch x {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				continue
			case 'u':
				for i := 0; i < 4; i++ {
					b, err = scanr.Read()
					if err != nil {
						return nil, err
					}
					if !(b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F') {
						scanr.Back()
						scanr.EndToken()
						return nil, UnexpectedByte(scanr, "expected hex, got")
					}
				}
			default:
				scanr.Back()
				scanr.EndToken()
				return nil, UnexpectedByte(scanr, "invalid escape")
			}
		case '"':
			stringBytes := scanr.EndToken()
			scalar := token.NewScalar(token.String, stringBytes)
			if isAlnum {
				scalar.TypeAndFlags |= token.AlnumMask
			}
			if isUnescaped {
				scalar.TypeAndFlags |= token.UnescapedMask
			}
			return scalar, nil
		default:
			if scanner.IsCtrl(b) {
				scanr.Back()
				scanr.EndToken()
				return nil, UnexpectedByte(scanr, "invalid control character in string")
			}
			if isAlnum {
				if firstChar {
					isAlnum = scanner.IsAlpha(b)
					firstChar = false
				} else {
					isAlnum = scanner.IsAlnum(b)
				}
			}
		}
	}
}

// ParseNumber parses a JSON number from the scanner.
func ParseNumber(scanr *scanner.Scanner) (*token.Scalar, error) {
	scanr.StartToken()
	var n int
	b, err := scanr.Read()

	// Sign part
	if b == '-' {
		b, err = scanr.Read()
	}
	if err != nil {
		return nil, err
	}

	// Integer part
	if b == '0' {
		b, err = scanr.Read()
		if err != nil {
			return nil, err
		}
	} else if b >= '1' && b <= '9' {
		b, _, err = ReadDigits(scanr)
		if err != nil {
			return nil, err
		}
	} else {
		scanr.Back()
		scanr.EndToken()
		return nil, UnexpectedByte(scanr, "expected digit, got")
	}

	// Fraction part
	if b == '.' {
		b, n, err = ReadDigits(scanr)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			scanr.Back()
			scanr.EndToken()
			return nil, UnexpectedByte(scanr, "expected digit, got")
		}
	}

	// Exponent part
	if b == 'e' || b == 'E' {
		b, err = scanr.Peek()
		if err != nil {
			return nil, err
		}
		if b == '-' || b == '+' {
			scanr.Read()
		}
		_, n, err = ReadDigits(scanr)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			scanr.Back()
			scanr.EndToken()
			return nil, UnexpectedByte(scanr, "expected digit, got")
		}
	}
	scanr.Back()
	return token.NewScalar(token.Number, scanr.EndToken()), nil
}

func ReadDigits(scanr *scanner.Scanner) (byte, int, error) {
	var n int
	for {
		b, err := scanr.Read()
		if err != nil {
			return 0, n, err
		}
		if !scanner.IsDigit(b) {
			return b, n, nil
		}
		n++
	}
}

func checkBytes(scanr *scanner.Scanner, expected []byte) error {
	for _, xb := range expected {
		if err := ExpectByte(scanr, xb); err != nil {
			return err
		}
	}
	return nil
}

var (
	trueBytes  = []byte("true")
	falseBytes = []byte("false")
	nullBytes  = []byte("null")
)
