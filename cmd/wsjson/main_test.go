package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/arnodel/wsjson/codec"
	"github.com/arnodel/wsjson/config"
	"github.com/arnodel/wsjson/errs"
)

// runWSJSON runs the command in process with the given stdin.
func runWSJSON(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	var outBuf, errBuf bytes.Buffer
	a := &app{
		stdin:  strings.NewReader(stdin),
		stdout: &outBuf,
		stderr: &errBuf,
	}
	err = a.run(args)
	return outBuf.String(), errBuf.String(), err
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func compressed(t *testing.T, data string, f codec.Format) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := codec.NewWriter(&buf, f)
	require.NoError(t, err)
	_, err = io.WriteString(w, data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestCanonicalize(t *testing.T) {
	out, _, err := runWSJSON(t, `{"b":1,"a":[{"d":1,"c":2}]}`, "canonicalize")
	require.NoError(t, err)
	assert.Equal(t, `{"a":[{"c":2,"d":1}],"b":1}`, out)
}

func TestCanonicalizeDuplicates(t *testing.T) {
	_, _, err := runWSJSON(t, `{"a":1,"a":2}`, "canonicalize")
	require.ErrorIs(t, err, errs.ErrDuplicateKey)
	assert.Contains(t, err.Error(), `"a"`)

	out, _, err := runWSJSON(t, `{"a":1,"a":2}`, "canonicalize", "--skip-duplicates")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
}

func TestCanonicalizeCompressed(t *testing.T) {
	const doc = `{"z":{"y":[true,null]},"m":"é","a":0.5}`
	const want = `{"a":0.5,"m":"é","z":{"y":[true,null]}}`
	dir := t.TempDir()
	for _, f := range []codec.Format{codec.Zstd, codec.S2, codec.LZ4, codec.Gzip} {
		in := writeFile(t, dir, "in."+f.String(), compressed(t, doc, f))
		outPath := filepath.Join(dir, "out."+f.String())

		_, _, err := runWSJSON(t, "", "canonicalize", "--compress", f.String(), "-o", outPath, in)
		require.NoError(t, err)

		data, err := os.ReadFile(outPath)
		require.NoError(t, err)
		assert.Equal(t, f, codec.Detect(data))
		r, err := codec.NewReader(bytes.NewReader(data), f)
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, want, string(got), f.String())
	}
}

func TestCanonicalizeRemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.json")
	_, _, err := runWSJSON(t, `{"b":{"x":1,"x":2},"a":1}`, "canonicalize", "-o", outPath)
	require.ErrorIs(t, err, errs.ErrDuplicateKey)
	_, err = os.Stat(outPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestChecksum(t *testing.T) {
	dir := t.TempDir()
	one := writeFile(t, dir, "one.json", []byte(`{"a":1,"b":{"c":[1,2],"d":null}}`))
	two := writeFile(t, dir, "two.json", compressed(t, `{"b":{"d":null,"c":[1,2]},"a":1}`, codec.Gzip))

	out, _, err := runWSJSON(t, "", "checksum", "--algorithm", "blake3", one, two)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	first := strings.Fields(lines[0])
	second := strings.Fields(lines[1])
	require.Len(t, first, 3)
	require.Len(t, second, 3)
	assert.Len(t, first[0], 64)
	assert.Equal(t, first[0], second[0])
	assert.Equal(t, first[1], second[1])
	assert.Equal(t, one, first[2])
	assert.Equal(t, two, second[2])
}

func TestChecksumErrors(t *testing.T) {
	_, _, err := runWSJSON(t, `{}`, "checksum", "--algorithm", "crc32")
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, _, err = runWSJSON(t, `{}`, "checksum", "--key", "zz")
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, _, err = runWSJSON(t, ``, "checksum")
	require.ErrorIs(t, err, errs.ErrEmptyInput)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "wsjson.yaml", []byte("checksum:\n  algorithm: xxh64\n"))
	out, _, err := runWSJSON(t, `{"a":1}`, "--config", cfg, "checksum")
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{16}  7  -\n$`, out)

	bad := writeFile(t, dir, "bad.yaml", []byte("checksum:\n  algorithm: crc32\n"))
	_, _, err = runWSJSON(t, `{"a":1}`, "--config", bad, "checksum")
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	fields := writeFile(t, dir, "fields.jsonc", []byte(`{"b": {}} // copy b`))
	keys := writeFile(t, dir, "keys.jsonc", []byte(`{"c": {},}`))
	meta := writeFile(t, dir, "meta.jsonc", []byte(`{"count": "length(list)", "name": "name"}`))
	const doc = `{"a":1,"b":[1,2,3],"c":{"y":2,"x":1},"list":[1,2,3,4],"name":"wsjson"}`

	out, _, err := runWSJSON(t, doc, "extract", "--compact",
		"--fields", fields, "--keys", keys, "--metadata", meta)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"b":[1,2,3],"c":["y","x"]}`, lines[0])
	assert.Equal(t, `{"count":"4","name":"wsjson"}`, lines[1])
}

func TestExtractIndented(t *testing.T) {
	dir := t.TempDir()
	fields := writeFile(t, dir, "fields.jsonc", []byte(`{"b": {"*": {}}}`))
	out, _, err := runWSJSON(t, `{"a":1,"b":{"q":[true],"p":"s"}}`, "extract", "--fields", fields)
	require.NoError(t, err)
	parts := strings.SplitN(out, "\n}\n", 2)
	require.Len(t, parts, 2)
	subset := parts[0] + "\n}"
	assert.True(t, gjson.Valid(subset), subset)
	assert.Equal(t, "s", gjson.Get(subset, "b.p").String())
	assert.True(t, gjson.Get(subset, "b.q.0").Bool())
	assert.Contains(t, subset, "\n  ")
}

func TestExtractMalformedSelection(t *testing.T) {
	dir := t.TempDir()
	fields := writeFile(t, dir, "fields.jsonc", []byte(`{"*": {}, "a": {}}`))
	// The input is not valid JSON: the selection must fail first
	_, _, err := runWSJSON(t, `not json`, "extract", "--fields", fields)
	require.ErrorIs(t, err, errs.ErrMalformedSelection)
}

func TestExtractMaxSize(t *testing.T) {
	dir := t.TempDir()
	fields := writeFile(t, dir, "fields.jsonc", []byte(`{"a": {}}`))
	_, _, err := runWSJSON(t, `{"a":"a long enough string"}`, "extract", "--fields", fields, "--max-size", "10")
	require.ErrorIs(t, err, errs.ErrSubsetTooLarge)
}

func TestStream(t *testing.T) {
	const doc = `{ "z" : 0 , "a" : {"b": [1, {"c": true}]} }`
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"reencode", []string{"stream"}, `{"z":0,"a":{"b":[1,{"c":true}]}}`},
		{"trusted", []string{"stream", "--trusted"}, doc},
		{"trusted indented", []string{"stream", "--trusted", "--indent", "2"}, "{\n  \"z\": 0,\n  \"a\": {\n    \"b\": [\n      1,\n      {\n        \"c\": true\n      }\n    ]\n  }\n}"},
		{"root", []string{"stream", "--root", "a/b"}, `[1,{"c":true}]`},
		{"root with slashes", []string{"stream", "--root", "/a/"}, `{"b":[1,{"c":true}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runWSJSON(t, doc, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestStreamFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.json", []byte(`{"k":["𐌐","𝄠"]}`))
	out, _, err := runWSJSON(t, "", "stream", "--trusted", "--copy-buffer", "10", path)
	require.NoError(t, err)
	assert.Equal(t, `{"k":["𐌐","𝄠"]}`+"\n", out)
}

func TestStreamErrors(t *testing.T) {
	_, _, err := runWSJSON(t, `{"a":{}}`, "stream", "--trusted", "--root", "a")
	require.ErrorIs(t, err, errs.ErrTrustedSubRoot)

	_, _, err = runWSJSON(t, `{"a":{}}`, "stream", "--root", "b")
	require.ErrorIs(t, err, errs.ErrRootNotFound)

	_, _, err = runWSJSON(t, `{"a":{}}`, "stream", "--copy-buffer", "9")
	require.ErrorIs(t, err, errs.ErrInvalidBufferSize)

	_, _, err = runWSJSON(t, `{"a":}`, "stream")
	require.ErrorIs(t, err, errs.ErrSyntax)

	_, _, err = runWSJSON(t, `{}`, "stream", "--in", "xml")
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestStreamCBOR(t *testing.T) {
	data, err := cbor.Marshal(map[string]any{"b": 1, "a": []any{"x", true}})
	require.NoError(t, err)
	out, _, err := runWSJSON(t, string(data), "stream", "--in", "cbor")
	require.NoError(t, err)
	assert.Equal(t, `{"a":["x",true],"b":1}`+"\n", out)
}

func TestStreamColors(t *testing.T) {
	out, _, err := runWSJSON(t, `{"a":1}`, "stream", "--color", "always")
	require.NoError(t, err)
	assert.Contains(t, out, "\033[")
	assert.Equal(t, `{"a":1}`, stripColors(strings.TrimSuffix(out, "\n")))

	_, _, err = runWSJSON(t, `{"a":1}`, "stream", "--color", "rainbow")
	require.Error(t, err)
}

func stripColors(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' {
			for i < len(s) && s[i] != 'm' {
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func TestVerbose(t *testing.T) {
	_, stderr, err := runWSJSON(t, `{"a":1}`, "--verbose", "canonicalize")
	require.NoError(t, err)
	assert.Contains(t, stderr, "opened input")

	_, stderr, err = runWSJSON(t, `{"a":1}`, "canonicalize")
	require.NoError(t, err)
	assert.Empty(t, stderr)
}

func TestUsage(t *testing.T) {
	out, _, err := runWSJSON(t, "", "--help")
	require.NoError(t, err)
	for _, c := range commands {
		assert.Contains(t, out, c.name)
	}

	out, _, err = runWSJSON(t, "", "extract", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "--fields")

	_, _, err = runWSJSON(t, "", "frobnicate")
	require.ErrorContains(t, err, `unknown command "frobnicate"`)

	_, _, err = runWSJSON(t, "")
	require.ErrorContains(t, err, "command required")

	_, _, err = runWSJSON(t, "", "canonicalize", "--no-such-flag")
	require.ErrorContains(t, err, "no-such-flag")

	_, _, err = runWSJSON(t, "", "canonicalize", "a.json", "b.json")
	require.ErrorContains(t, err, "expected one input")
}
