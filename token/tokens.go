package token

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// A Token is one item of the flat sequence a JSON document is read as.
// The document
//
//	{"name": "run-7", "sizes": [12, 4.5e3], "done": null}
//
// is the sequence
//
//	StartObject
//	Key("name") Scalar("run-7")
//	Key("sizes") StartArray Scalar(12) Scalar(4.5e3) EndArray
//	Key("done") Scalar(null)
//	EndObject
//
// Decoders of JSON text and readers of value trees both produce this
// sequence, so the extractor and the encoders handle a single shape.
type Token interface {
	fmt.Stringer
}

// StartObject is '{'.
type StartObject struct{}

// EndObject is '}'.
type EndObject struct{}

// StartArray is '['.
type StartArray struct{}

// EndArray is ']'.
type EndArray struct{}

func (*StartObject) String() string { return "StartObject" }
func (*EndObject) String() string   { return "EndObject" }
func (*StartArray) String() string  { return "StartArray" }
func (*EndArray) String() string    { return "EndArray" }

var (
	_ Token = &StartObject{}
	_ Token = &EndObject{}
	_ Token = &StartArray{}
	_ Token = &EndArray{}
	_ Token = &Scalar{}
)

// Scalar is a string, number, boolean or null, or an object key (a String
// with KeyMask set).
type Scalar struct {
	// The literal as it appears in JSON text: quotes and escapes included
	// for strings, digits as written for numbers.
	Bytes []byte

	// ScalarType in the low bits, then the Key, Alnum and Unescaped flags.
	TypeAndFlags uint8
}

// EqualsString reports whether s is a string (or key) decoding to str.
func (s *Scalar) EqualsString(str string) bool {
	if s.Type() != String {
		return false
	}
	if s.IsUnescaped() {
		return string(s.Bytes[1:len(s.Bytes)-1]) == str
	}
	return s.ToString() == str
}

// NewScalar returns a value token of type tp with literal lit.
func NewScalar(tp ScalarType, lit []byte) *Scalar {
	return &Scalar{Bytes: lit, TypeAndFlags: uint8(tp)}
}

// NewKey returns an object key token with literal lit.
func NewKey(tp ScalarType, lit []byte) *Scalar {
	return &Scalar{Bytes: lit, TypeAndFlags: uint8(tp) | KeyMask}
}

func (s *Scalar) Type() ScalarType { return ScalarType(s.TypeAndFlags & TypeMask) }
func (s *Scalar) IsKey() bool      { return s.TypeAndFlags&KeyMask != 0 }

// IsAlnum reports whether the string is a plain identifier.
func (s *Scalar) IsAlnum() bool { return s.TypeAndFlags&AlnumMask != 0 }

// IsUnescaped reports whether the string literal has no escape sequence, so
// its text is the literal without quotes.
func (s *Scalar) IsUnescaped() bool { return s.TypeAndFlags&UnescapedMask != 0 }

// IsInteger reports whether s is a number without fraction or exponent.
func (s *Scalar) IsInteger() bool {
	if s.Type() != Number {
		return false
	}
	for _, b := range s.Bytes {
		if b == '.' || b == 'e' || b == 'E' {
			return false
		}
	}
	return true
}

func (s *Scalar) String() string {
	kind := "Scalar"
	if s.IsKey() {
		kind = "Key"
	}
	return kind + "(" + string(s.Bytes) + ")"
}

// AsValue returns s as a value rather than an object key.
func (s *Scalar) AsValue() *Scalar {
	if !s.IsKey() {
		return s
	}
	return &Scalar{Bytes: s.Bytes, TypeAndFlags: s.TypeAndFlags &^ KeyMask}
}

// ToString returns the decoded value of a string scalar. It panics if s is
// not a string or if it was not produced from valid JSON.
func (s *Scalar) ToString() string {
	if s.Type() != String {
		panic("not a string scalar")
	}
	if s.IsUnescaped() {
		return string(s.Bytes[1 : len(s.Bytes)-1])
	}
	str, err := Unquote(s.Bytes)
	if err != nil {
		panic(err)
	}
	return str
}

// Text returns the textual representation of the value: the decoded
// string for strings and keys, the literal for numbers, booleans and null.
func (s *Scalar) Text() string {
	if s.Type() == String {
		return s.ToString()
	}
	return string(s.Bytes)
}

// Int64 returns the value of an integer number.
func (s *Scalar) Int64() (int64, error) {
	if s.Type() != Number {
		return 0, fmt.Errorf("%s is not a number", s)
	}
	return strconv.ParseInt(string(s.Bytes), 10, 64)
}

// Float64 returns the value of a number.
func (s *Scalar) Float64() (float64, error) {
	if s.Type() != Number {
		return 0, fmt.Errorf("%s is not a number", s)
	}
	return strconv.ParseFloat(string(s.Bytes), 64)
}

// ToGo converts s to the Go value used in value trees: string, json.Number,
// bool or nil.
func (s *Scalar) ToGo() any {
	switch s.Type() {
	case String:
		return s.ToString()
	case Number:
		return json.Number(s.Bytes)
	case Boolean:
		return s.Bytes[0] == 't'
	default:
		return nil
	}
}

// ScalarType encodes the four possible JSON scalar types.
type ScalarType uint8

const (
	Null               = 0x0 // the type of JSON null
	Boolean            = 0x1 // a JSON boolean
	Number             = 0x2 // a JSON number
	String  ScalarType = 0x3 // a JSON string
)

const (
	TypeMask      = 0b00011
	KeyMask       = 0b00100
	AlnumMask     = 0b01000
	UnescapedMask = 0b10000
)

// Shared literal tokens. They must not be modified.
var (
	TrueScalar  = NewScalar(Boolean, []byte("true"))
	FalseScalar = NewScalar(Boolean, []byte("false"))
	NullScalar  = NewScalar(Null, []byte("null"))
)

// StringScalar returns the string token for s.
func StringScalar(s string) *Scalar {
	return NewScalar(String, Quote(s))
}

// KeyScalar returns the object key token for s.
func KeyScalar(s string) *Scalar {
	return NewKey(String, Quote(s))
}

// Float64Scalar returns the shortest number literal for x, which must be
// finite.
func Float64Scalar(x float64) *Scalar {
	return NewScalar(Number, strconv.AppendFloat(nil, x, 'g', -1, 64))
}

func Int64Scalar(n int64) *Scalar {
	return NewScalar(Number, strconv.AppendInt(nil, n, 10))
}

func Uint64Scalar(n uint64) *Scalar {
	return NewScalar(Number, strconv.AppendUint(nil, n, 10))
}

// NumberScalar returns a number token with the given literal. The literal
// is not validated.
func NumberScalar(literal string) *Scalar {
	return NewScalar(Number, []byte(literal))
}

func BoolScalar(b bool) *Scalar {
	if b {
		return TrueScalar
	}
	return FalseScalar
}

// Singletons for structural tokens; they carry no data so they can be
// shared.
var (
	StartObjectToken = &StartObject{}
	EndObjectToken   = &EndObject{}
	StartArrayToken  = &StartArray{}
	EndArrayToken    = &EndArray{}
)
