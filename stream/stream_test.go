package stream

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	wsjson "github.com/arnodel/wsjson/encoding/json"
	"github.com/arnodel/wsjson/errs"
	"github.com/arnodel/wsjson/token"
	"github.com/arnodel/wsjson/tree"
)

// Characters of 4 bytes placed so that fixed size chunks split some of them.
const longChars = `{"k1":"𐌐","k2":"a𝄠b","k3":"ab𐌐𐌐c","k4":["𝄠","x𝄠","xy𝄠"]}`

type chunkRecorder struct {
	bytes.Buffer
	chunks [][]byte
}

func (c *chunkRecorder) Write(p []byte) (int, error) {
	c.chunks = append(c.chunks, append([]byte(nil), p...))
	return c.Buffer.Write(p)
}

func (c *chunkRecorder) PutRaw(p []byte) error {
	_, err := c.Write(p)
	return err
}

func (c *chunkRecorder) Put(token.Token) error {
	panic("tokens are not expected")
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 100_000, opts.CopyBufferSize)
	assert.False(t, opts.TrustedWholeJSON)

	opts.TrustedWholeJSON = true
	assert.True(t, opts.WithRoot().TrustedWholeJSON)
	assert.True(t, opts.WithRoot([]string{}...).TrustedWholeJSON)
	rooted := opts.WithRoot("foo")
	assert.False(t, rooted.TrustedWholeJSON)
	assert.Equal(t, []string{"foo"}, rooted.Root)
	assert.True(t, opts.TrustedWholeJSON)

	rooted.TrustedWholeJSON = true
	_, err := Open(Text(`{}`), rooted)
	require.ErrorIs(t, err, errs.ErrTrustedSubRoot)

	opts = DefaultOptions()
	opts.CopyBufferSize = MinCopyBufferSize
	_, err = Open(Text(`{}`), opts)
	require.NoError(t, err)
	opts.CopyBufferSize = MinCopyBufferSize - 1
	_, err = Open(Text(`{}`), opts)
	require.ErrorIs(t, err, errs.ErrInvalidBufferSize)

	opts = DefaultOptions()
	opts.ReadBufferSize = 1
	_, err = Open(Text(`{}`), opts)
	require.ErrorIs(t, err, errs.ErrInvalidBufferSize)
}

func TestOpenInputs(t *testing.T) {
	_, err := Open(nil, DefaultOptions())
	require.ErrorIs(t, err, errs.ErrUnsupportedInput)

	for _, in := range []Input{Text(""), Bytes(nil), Bytes{}, File(writeTemp(t, ""))} {
		_, err := Open(in, DefaultOptions())
		require.ErrorIs(t, err, errs.ErrEmptyInput, "%#v", in)
	}

	_, err = Open(File(filepath.Join(t.TempDir(), "missing.json")), DefaultOptions())
	require.ErrorIs(t, err, os.ErrNotExist)

	s, err := Open(Tree{}, DefaultOptions())
	require.NoError(t, err)
	tok, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, token.NullScalar, tok)
}

func TestAllInputsGiveTheSameTokens(t *testing.T) {
	const doc = `{"a": [1, 2.5, "x"], "b": {"c": null, "d": true}}`
	var value any
	require.NoError(t, json.Unmarshal([]byte(doc), &value))
	inputs := []Input{Text(doc), Bytes(doc), File(writeTemp(t, doc)), Tree{Value: value}}

	var expected []string
	for _, in := range inputs {
		s, err := Open(in, DefaultOptions())
		require.NoError(t, err)
		toks, err := token.ReadAll(s)
		require.NoError(t, err)
		require.NoError(t, s.Close())
		var got []string
		for _, tok := range toks {
			got = append(got, tok.String())
		}
		if expected == nil {
			expected = got
			continue
		}
		assert.Equal(t, expected, got, "%T", in)
	}
	assert.Len(t, expected, 15)
}

func TestAccessors(t *testing.T) {
	s, err := Open(Text(`{"name": "café", "n": 42, "f": 0.5}`), DefaultOptions())
	require.NoError(t, err)

	_, err = s.Text()
	assert.Error(t, err, "no current token")

	next := func() {
		_, err := s.Next()
		require.NoError(t, err)
	}
	next()
	_, err = s.Text()
	assert.Error(t, err, "start of object")

	next()
	text, err := s.Text()
	require.NoError(t, err)
	assert.Equal(t, "name", text)
	next()
	text, err = s.Text()
	require.NoError(t, err)
	assert.Equal(t, "café", text)
	_, err = s.Number()
	assert.Error(t, err)

	next()
	next()
	n, err := s.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	num, err := s.Number()
	require.NoError(t, err)
	assert.Equal(t, json.Number("42"), num)

	next()
	next()
	f, err := s.Float64()
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)
	assert.Equal(t, "Scalar(0.5)", s.Current().String())
	_, err = s.Int64()
	assert.Error(t, err)
}

func TestWriteJSONRoundTrip(t *testing.T) {
	const doc = "{\n  \"a\" : [1, 2.50, \"x\\ty\"],\n  \"b\" : {\"c\" : null, \"d\" : true}\n}\n"
	s, err := Open(Text(doc), DefaultOptions())
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, s.WriteJSON(&out))
	assert.Equal(t, `{"a":[1,2.50,"x\ty"],"b":{"c":null,"d":true}}`, out.String())
	assert.JSONEq(t, doc, out.String())

	// Exhausted
	_, err = s.Next()
	assert.Equal(t, io.EOF, err)

	require.NoError(t, s.Reset())
	out.Reset()
	require.NoError(t, s.WriteJSON(&out))
	assert.Equal(t, `{"a":[1,2.50,"x\ty"],"b":{"c":null,"d":true}}`, out.String())
}

func TestTrustedCopyIsVerbatim(t *testing.T) {
	const doc = "{ \"b\" : 1,\n\t\"a\" : [ ] }"
	opts := DefaultOptions()
	opts.TrustedWholeJSON = true
	s, err := Open(Bytes(doc), opts)
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, s.WriteJSON(&out))
	assert.Equal(t, doc, out.String())
	_, err = s.Next()
	assert.Equal(t, io.EOF, err)

	// Once a token is read, the rest comes as tokens
	require.NoError(t, s.Reset())
	_, err = s.Next()
	require.NoError(t, err)
	acc := token.NewAccumulator()
	require.NoError(t, s.WriteTokens(acc))
	assert.Len(t, acc.Tokens(), 6)
}

func TestUTF8SafeCopy(t *testing.T) {
	var value any
	require.NoError(t, json.Unmarshal([]byte(longChars), &value))
	path := writeTemp(t, longChars)

	for size := 10; size <= 20; size++ {
		opts := DefaultOptions()
		opts.TrustedWholeJSON = true
		opts.CopyBufferSize = size
		for _, in := range []Input{Text(longChars), Bytes(longChars), File(path), Tree{Value: value}} {
			s, err := Open(in, opts)
			require.NoError(t, err)

			var out chunkRecorder
			require.NoError(t, s.WriteJSON(&out))
			require.NoError(t, s.Close())
			assert.Equal(t, longChars, out.String(), "size %d, %T", size, in)
			if _, ok := in.(Tree); ok {
				continue
			}
			for _, chunk := range out.chunks {
				assert.True(t, utf8.Valid(chunk), "size %d, %T: chunk %q", size, in, chunk)
				assert.LessOrEqual(t, len(chunk), size)
			}
		}
	}
}

func TestWriteTokensRaw(t *testing.T) {
	opts := DefaultOptions()
	opts.TrustedWholeJSON = true
	opts.CopyBufferSize = 11
	s, err := Open(Text(longChars), opts)
	require.NoError(t, err)

	var sink chunkRecorder
	require.NoError(t, s.WriteTokens(&sink))
	assert.Equal(t, longChars, sink.String())
	assert.Greater(t, len(sink.chunks), 1)

	// An encoder takes the raw chunks as one value
	require.NoError(t, s.Reset())
	var out bytes.Buffer
	enc := wsjson.NewEncoder(&out)
	require.NoError(t, enc.Put(token.StartArrayToken))
	require.NoError(t, s.WriteTokens(enc))
	require.NoError(t, enc.Put(token.TrueScalar))
	require.NoError(t, enc.Put(token.EndArrayToken))
	assert.Equal(t, "["+longChars+",true]", out.String())
}

func TestWriteTokensIntoTree(t *testing.T) {
	opts := DefaultOptions()
	opts.TrustedWholeJSON = true
	s, err := Open(Text(`{"a":[1,{"b":"c"}]}`), opts)
	require.NoError(t, err)
	b := tree.NewBuilder()
	require.NoError(t, s.WriteTokens(b))
	assert.Equal(t, map[string]any{
		"a": []any{json.Number("1"), map[string]any{"b": "c"}},
	}, b.Value())
}

func TestRoot(t *testing.T) {
	const doc = `{"skip": {"a": [1, {"b": 2}]}, "data": {"x": {"y": [true, "z"]}, "w": 0}, "after": 1}`
	tests := []struct {
		root     []string
		expected string
	}{
		{[]string{"data"}, `{"x":{"y":[true,"z"]},"w":0}`},
		{[]string{"data", "x"}, `{"y":[true,"z"]}`},
		{[]string{"data", "x", "y"}, `[true,"z"]`},
		{[]string{"data", "w"}, `0`},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.root, "/"), func(t *testing.T) {
			s, err := Open(Text(doc), DefaultOptions().WithRoot(tt.root...))
			require.NoError(t, err)
			var out bytes.Buffer
			require.NoError(t, s.WriteJSON(&out))
			assert.Equal(t, tt.expected, out.String())
		})
	}

	for _, root := range [][]string{{"missing"}, {"data", "w", "deeper"}, {"data", "nope"}} {
		s, err := Open(Text(doc), DefaultOptions().WithRoot(root...))
		require.NoError(t, err)
		_, err = s.Next()
		require.ErrorIs(t, err, errs.ErrRootNotFound, "%v", root)
	}
}

func TestRootEscapedKey(t *testing.T) {
	const doc = `{"\u00e9":{"k":[1]},"é":{"k":[2]}}`
	var value any
	require.NoError(t, json.Unmarshal([]byte(`{"é":{"k":[1]}}`), &value))
	for _, in := range []Input{Text(doc), Tree{Value: value}} {
		s, err := Open(in, DefaultOptions().WithRoot("é", "k"))
		require.NoError(t, err)
		var out bytes.Buffer
		require.NoError(t, s.WriteJSON(&out))
		assert.Equal(t, "1", gjson.Get(out.String(), "0").Raw)
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		doc string
		msg string
	}{
		{`{"a": [1, 2}`, "expected ']' or ','"},
		{`{"a": "abc`, "unterminated string"},
		{`[1, 2`, "<EOF>"},
		{`{} x`, "unexpected data after the document"},
	}
	for _, tt := range tests {
		s, err := Open(Text(tt.doc), DefaultOptions())
		require.NoError(t, err)
		err = s.WriteJSON(io.Discard)
		require.ErrorIs(t, err, errs.ErrSyntax, tt.doc)
		assert.Contains(t, err.Error(), tt.msg)
	}
}
