package json

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/arnodel/wsjson/internal/format"
	"github.com/arnodel/wsjson/token"
)

// TestEncoderCompact tests compact encoding of token sequences
func TestEncoderCompact(t *testing.T) {
	tests := []struct {
		name     string
		tokens   []token.Token
		expected string
	}{
		{"true", []token.Token{token.TrueScalar}, "true"},
		{"integer", []token.Token{token.Int64Scalar(-123)}, "-123"},
		{"string", []token.Token{token.StringScalar("a<b")}, `"a<b"`},
		{
			"empty containers",
			[]token.Token{token.StartArrayToken, token.StartObjectToken, token.EndObjectToken, token.StartArrayToken, token.EndArrayToken, token.EndArrayToken},
			"[{},[]]",
		},
		{
			"object",
			[]token.Token{
				token.StartObjectToken,
				token.KeyScalar("a"), token.Int64Scalar(1),
				token.KeyScalar("b"), token.StartArrayToken, token.NullScalar, token.FalseScalar, token.EndArrayToken,
				token.EndObjectToken,
			},
			`{"a":1,"b":[null,false]}`,
		},
		{
			"multiple values",
			[]token.Token{token.Int64Scalar(1), token.StartArrayToken, token.EndArrayToken},
			"1\n[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			enc := NewEncoder(&buf)
			for _, tok := range tt.tokens {
				if err := enc.Put(tok); err != nil {
					t.Fatal(err)
				}
			}
			if buf.String() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, buf.String())
			}
		})
	}
}

// TestEncoderIndent tests indented output
func TestEncoderIndent(t *testing.T) {
	var buf bytes.Buffer
	enc := NewIndentEncoder(&buf, 2, nil)
	toks := decodeString(t, `{"a": [1, 2], "b": {}, "c": {"d": "e"}}`)
	for _, tok := range toks {
		if err := enc.Put(tok); err != nil {
			t.Fatal(err)
		}
	}
	expected := `{
  "a": [
    1,
    2
  ],
  "b": {},
  "c": {
    "d": "e"
  }
}`
	if buf.String() != expected {
		t.Errorf("expected\n%s\ngot\n%s", expected, buf.String())
	}
}

// TestEncoderColors tests that scalars are colorized
func TestEncoderColors(t *testing.T) {
	var buf bytes.Buffer
	enc := NewIndentEncoder(&buf, -1, &format.DefaultColorizer)
	for _, tok := range []token.Token{token.StartObjectToken, token.KeyScalar("k"), token.TrueScalar, token.EndObjectToken} {
		if err := enc.Put(tok); err != nil {
			t.Fatal(err)
		}
	}
	expected := "{\033[34;1m\"k\"\033[0m:\033[33mtrue\033[0m}"
	if buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}
}

// TestEncoderRaw tests verbatim fragments
func TestEncoderRaw(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	steps := []func() error{
		func() error { return enc.Put(token.StartArrayToken) },
		func() error { return enc.Put(token.Int64Scalar(1)) },
		func() error { return enc.PutRaw([]byte(`{"x":`)) },
		func() error { return enc.PutRaw([]byte(` [2]}`)) },
		func() error { return enc.Put(token.StringScalar("y")) },
		func() error { return enc.Put(token.EndArrayToken) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			t.Fatal(err)
		}
	}
	if expected := `[1,{"x": [2]},"y"]`; buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}
}

// TestEncoderUnbalanced tests that mismatched end tokens are rejected
func TestEncoderUnbalanced(t *testing.T) {
	tests := [][]token.Token{
		{token.EndArrayToken},
		{token.StartArrayToken, token.EndObjectToken},
		{token.StartObjectToken, token.KeyScalar("k"), token.EndObjectToken},
	}
	for i, toks := range tests {
		enc := NewEncoder(&bytes.Buffer{})
		var err error
		for _, tok := range toks {
			if err = enc.Put(tok); err != nil {
				break
			}
		}
		if !errors.Is(err, errUnbalanced) {
			t.Errorf("case %d: expected errUnbalanced, got %v", i, err)
		}
	}
}

type closedWriter struct{}

var errClosed = errors.New("closed")

func (closedWriter) Write([]byte) (int, error) {
	return 0, errClosed
}

// TestEncoderWriteError tests that output errors are returned, not panicked
func TestEncoderWriteError(t *testing.T) {
	enc := NewEncoder(closedWriter{})
	err := enc.Put(token.NullScalar)
	var perr *format.PrinterError
	if !errors.As(err, &perr) || !errors.Is(err, errClosed) {
		t.Fatalf("expected a PrinterError wrapping errClosed, got %v", err)
	}
}

// TestRoundtrip tests decoding then encoding documents
func TestRoundtrip(t *testing.T) {
	tests := []string{
		`42`,
		`"hello \"world\"\n"`,
		`[]`,
		`[1,"hello",true,null,-0.5e-3]`,
		`{"a":{"b":[{"c":"d"},[]]},"e":"\u00e9\ud834\udd1e"}`,
		"\"日本語 \U0001D120\"",
	}
	for _, input := range tests {
		var buf bytes.Buffer
		if _, err := token.Copy(NewEncoder(&buf), NewDecoder(strings.NewReader(input))); err != nil {
			t.Fatalf("%s: %s", input, err)
		}
		if buf.String() != input {
			t.Errorf("roundtrip mismatch:\ninput:  %s\noutput: %s", input, buf.String())
		}
	}
}
