package tree

import (
	"encoding/json"
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnodel/wsjson/errs"
	"github.com/arnodel/wsjson/token"
)

func tokenStrings(t *testing.T, r token.Reader) []string {
	t.Helper()
	toks, err := token.ReadAll(r)
	require.NoError(t, err)
	var out []string
	for _, tok := range toks {
		out = append(out, tok.String())
	}
	return out
}

func TestReaderSortsKeys(t *testing.T) {
	v := map[string]any{
		"b": []any{1, "x", nil},
		"a": map[string]any{"d": true, "c": 1.5},
	}
	assert.Equal(t, []string{
		"StartObject",
		`Key("a")`, "StartObject", `Key("c")`, "Scalar(1.5)", `Key("d")`, "Scalar(true)", "EndObject",
		`Key("b")`, "StartArray", "Scalar(1)", `Scalar("x")`, "Scalar(null)", "EndArray",
		"EndObject",
	}, tokenStrings(t, NewReader(v)))
}

func TestReaderScalars(t *testing.T) {
	tests := []struct {
		value    any
		expected string
	}{
		{nil, "Scalar(null)"},
		{false, "Scalar(false)"},
		{"é\n", `Scalar("é\n")`},
		{json.Number("1e10"), "Scalar(1e10)"},
		{int8(-3), "Scalar(-3)"},
		{uint64(math.MaxUint64), "Scalar(18446744073709551615)"},
		{float32(0.5), "Scalar(0.5)"},
		{new(big.Int).Lsh(big.NewInt(1), 70), "Scalar(1180591620717411303424)"},
		{[]byte("hi"), `Scalar("aGk=")`},
	}
	for _, tt := range tests {
		assert.Equal(t, []string{tt.expected}, tokenStrings(t, NewReader(tt.value)))
	}
}

func TestReaderErrors(t *testing.T) {
	for _, v := range []any{
		math.NaN(),
		math.Inf(1),
		json.Number("01"),
		json.Number("1."),
		struct{}{},
		[]any{map[string]any{"k": make(chan int)}},
	} {
		_, err := token.ReadAll(NewReader(v))
		assert.Error(t, err, "%#v", v)
	}
}

func TestIsNumber(t *testing.T) {
	for _, s := range []string{"0", "-0", "12", "1.5", "-1.5e-3", "2E+10"} {
		assert.True(t, isNumber(s), s)
	}
	for _, s := range []string{"", "-", "01", ".5", "1.", "1e", "+1", "1x"} {
		assert.False(t, isNumber(s), s)
	}
}

func TestBuildRoundTrip(t *testing.T) {
	v := map[string]any{
		"list": []any{json.Number("1"), json.Number("2.5"), "three", nil, false},
		"obj":  map[string]any{"k": map[string]any{}},
		"arr":  []any{},
	}
	got, err := Build(NewReader(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestBuilderKeepsFirstDuplicate(t *testing.T) {
	v, err := Build(token.NewSliceReader([]token.Token{
		token.StartObjectToken,
		token.KeyScalar("a"), token.TrueScalar,
		token.KeyScalar("a"), token.FalseScalar,
		token.EndObjectToken,
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": true}, v)
}

func TestBuilderMaxSize(t *testing.T) {
	b := &Builder{MaxSize: 10}
	_, err := token.Copy(b, NewReader(map[string]any{"a": "b"}))
	require.NoError(t, err)
	// '{' + `"a"` + ':' + `"b"` + '}'
	assert.Equal(t, int64(9), b.Size())

	b = &Builder{MaxSize: 10}
	_, err = token.Copy(b, NewReader(map[string]any{"a": strings.Repeat("x", 10)}))
	require.ErrorIs(t, err, errs.ErrSubsetTooLarge)
}

func TestBuilderErrors(t *testing.T) {
	tests := []struct {
		name string
		toks []token.Token
	}{
		{"key outside object", []token.Token{token.KeyScalar("a")}},
		{"two keys", []token.Token{token.StartObjectToken, token.KeyScalar("a"), token.KeyScalar("b")}},
		{"value without key", []token.Token{token.StartObjectToken, token.TrueScalar}},
		{"mismatched end", []token.Token{token.StartArrayToken, token.EndObjectToken}},
		{"dangling key", []token.Token{token.StartObjectToken, token.KeyScalar("a"), token.EndObjectToken}},
		{"two values", []token.Token{token.TrueScalar, token.FalseScalar}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := token.Copy(NewBuilder(), token.NewSliceReader(tt.toks))
			assert.Error(t, err)
		})
	}

	_, err := Build(token.NewSliceReader([]token.Token{token.StartArrayToken}))
	assert.Error(t, err)
}

func TestDecodeCBOR(t *testing.T) {
	data, err := cbor.Marshal(map[string]any{
		"name":  "sample",
		"count": 3,
		"neg":   -7,
		"ratio": 0.25,
		"tags":  []string{"x", "y"},
		"inner": map[string]any{"ok": true, "none": nil},
	})
	require.NoError(t, err)

	v, err := DecodeCBOR(data)
	require.NoError(t, err)
	got, err := Build(NewReader(v))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":  "sample",
		"count": json.Number("3"),
		"neg":   json.Number("-7"),
		"ratio": json.Number("0.25"),
		"tags":  []any{"x", "y"},
		"inner": map[string]any{"ok": true, "none": nil},
	}, got)

	v, err = ReadCBOR(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Contains(t, v, "tags")

	_, err = DecodeCBOR([]byte{0xff})
	assert.Error(t, err)
}
