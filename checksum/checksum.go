// Package checksum computes content digests of JSON documents that do not
// depend on the order of object members: the document is canonicalized and
// the canonical bytes are hashed as they are produced.
package checksum

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/arnodel/wsjson/canonical"
	"github.com/arnodel/wsjson/errs"
	"github.com/arnodel/wsjson/source"
)

// Algorithm names a digest.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	BLAKE3 Algorithm = "blake3"
	XXH64  Algorithm = "xxh64"
)

// Algorithms lists the supported digests.
var Algorithms = []Algorithm{MD5, BLAKE3, XXH64}

// ParseAlgorithm returns the Algorithm called name.
func ParseAlgorithm(name string) (Algorithm, error) {
	for _, a := range Algorithms {
		if string(a) == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: unknown checksum algorithm %q", errs.ErrInvalidConfig, name)
}

// New returns a fresh hash for a. A non-empty key selects keyed BLAKE3 and
// must be 32 bytes long; other algorithms take no key.
func (a Algorithm) New(key []byte) (hash.Hash, error) {
	if len(key) > 0 && a != BLAKE3 {
		return nil, fmt.Errorf("%w: %s does not take a key", errs.ErrInvalidConfig, a)
	}
	switch a {
	case MD5:
		return md5.New(), nil
	case BLAKE3:
		if len(key) > 0 {
			h, err := blake3.NewKeyed(key)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", errs.ErrInvalidConfig, err)
			}
			return h, nil
		}
		return blake3.New(), nil
	case XXH64:
		return xxhash.New(), nil
	}
	return nil, fmt.Errorf("%w: unknown checksum algorithm %q", errs.ErrInvalidConfig, string(a))
}

// Options configure Sum.
type Options struct {
	Algorithm Algorithm

	// Key for keyed BLAKE3.
	Key []byte

	Canonical canonical.Options
}

// DefaultOptions returns MD5 over the default canonical form.
func DefaultOptions() Options {
	return Options{Algorithm: MD5, Canonical: canonical.DefaultOptions()}
}

// A Result is the digest of a canonical document.
type Result struct {
	Algorithm Algorithm
	Sum       []byte

	// Size of the canonical document in bytes.
	Size int64
}

// Hex returns the digest in lower case hexadecimal.
func (r Result) Hex() string {
	return hex.EncodeToString(r.Sum)
}

func (r Result) String() string {
	return fmt.Sprintf("%s:%s", r.Algorithm, r.Hex())
}

// Sum canonicalizes src and returns the digest of the canonical form.
func Sum(src source.Source, opts Options) (Result, error) {
	h, err := opts.Algorithm.New(opts.Key)
	if err != nil {
		return Result{}, err
	}
	cw := &countingWriter{w: h}
	if err := canonical.Canonicalize(src, cw, opts.Canonical); err != nil {
		return Result{}, err
	}
	return Result{Algorithm: opts.Algorithm, Sum: h.Sum(nil), Size: cw.n}, nil
}

// SumBytes is Sum over a document in memory.
func SumBytes(data []byte, opts Options) (Result, error) {
	src, err := source.NewMemory(data)
	if err != nil {
		return Result{}, err
	}
	return Sum(src, opts)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
