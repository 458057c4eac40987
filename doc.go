// Package wsjson sorts, checksums and extracts from JSON documents that may be
// too large to build in memory, such as the objects of a scientific data
// store.
//
// The work is split into packages:
//
//   - source: random-access byte sources (file or memory) and a positioned,
//     buffered reader over them
//   - canonical: rewrites a document with the members of every object sorted
//     by key, seeking back and forth in the source instead of parsing it into
//     a tree
//   - checksum: digests of the canonical form, so that documents differing
//     only in member order have the same checksum
//   - token, encoding/json: the token model and the JSON decoder and encoder
//   - stream: one token stream over text, bytes, files and value trees, with
//     verbatim copies of trusted documents and streaming of a sub-root
//   - extract: copies the selected subset of a document and gathers metadata
//     in a single pass over its tokens
//   - tree: value trees (map[string]any etc.) as token readers and sinks,
//     and CBOR decoding into them
//   - codec: compressed inputs and outputs (zstd, s2, lz4, gzip)
//   - config: configuration of the wsjson command
//
// Sorting a document:
//
//	src, err := source.OpenFile("doc.json")
//	...
//	err = canonical.Canonicalize(src, os.Stdout, canonical.DefaultOptions())
//
// Extracting a subset:
//
//	s, err := stream.Open(stream.File("doc.json"), stream.DefaultOptions())
//	...
//	subset, meta, err := extract.Tree(s, nil, extract.Selection{"b": map[string]any{}}, nil, extract.Options{})
//
// The wsjson command exposes all of this on the command line:
//
//	go install github.com/arnodel/wsjson/cmd/wsjson@latest
package wsjson
