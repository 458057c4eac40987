// Package config loads the configuration of the wsjson command.
//
// Configuration comes from a single YAML file named by the --config flag or,
// failing that, the WSJSON_CONFIG environment variable. There is no automatic
// discovery: without either, the defaults apply. Command line flags override
// file values.
//
// Selections for the extractor live in their own files, written as JSON with
// comments and trailing commas allowed (JSONC).
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/arnodel/wsjson/canonical"
	"github.com/arnodel/wsjson/checksum"
	"github.com/arnodel/wsjson/codec"
	"github.com/arnodel/wsjson/errs"
	"github.com/arnodel/wsjson/extract"
	"github.com/arnodel/wsjson/stream"
)

// EnvVar names the environment variable holding the configuration path.
const EnvVar = "WSJSON_CONFIG"

// Config is the configuration of the wsjson command.
type Config struct {
	Canonical CanonicalConfig `yaml:"canonical"`
	Checksum  ChecksumConfig  `yaml:"checksum"`
	Stream    StreamConfig    `yaml:"stream"`
	Extract   ExtractConfig   `yaml:"extract"`
	Output    OutputConfig    `yaml:"output"`
	Log       LogConfig       `yaml:"log"`
}

// CanonicalConfig configures key sorting.
type CanonicalConfig struct {
	// Keep the first of two members with the same key instead of failing.
	SkipDuplicates bool `yaml:"skip_duplicates"`

	// "bytes" or "text".
	Keys string `yaml:"keys"`

	// Zero means no limit.
	MaxKeyMemory int64 `yaml:"max_key_memory"`

	BufferSize       int `yaml:"buffer_size"`
	OutputBufferSize int `yaml:"output_buffer_size"`
}

// ChecksumConfig configures content digests.
type ChecksumConfig struct {
	// md5, blake3 or xxh64.
	Algorithm string `yaml:"algorithm"`
}

// StreamConfig configures token streams.
type StreamConfig struct {
	CopyBufferSize int  `yaml:"copy_buffer_size"`
	ReadBufferSize int  `yaml:"read_buffer_size"`
	Trusted        bool `yaml:"trusted"`
}

// ExtractConfig configures subset extraction.
type ExtractConfig struct {
	// Zero means no limit.
	MaxSubsetSize int64 `yaml:"max_subset_size"`

	// Negative means compact output.
	Indent int `yaml:"indent"`
}

// OutputConfig configures how documents are written.
type OutputConfig struct {
	// Compression of canonical output: none, zstd, s2, lz4 or gzip.
	Compress string `yaml:"compress"`

	// Decompressed inputs larger than this are spooled to disk.
	SpoolMemoryLimit int64 `yaml:"spool_memory_limit"`

	// Where spooled inputs go; empty means the system default.
	TempDir string `yaml:"temp_dir"`
}

// LogConfig configures diagnostics on stderr.
type LogConfig struct {
	// debug, info, warn or error.
	Level string `yaml:"level"`

	// text or json.
	Format string `yaml:"format"`
}

// Default returns the configuration used when there is no file.
func Default() *Config {
	copts := canonical.DefaultOptions()
	sopts := stream.DefaultOptions()
	return &Config{
		Canonical: CanonicalConfig{
			Keys:             canonical.KeyBytes.String(),
			BufferSize:       copts.BufferSize,
			OutputBufferSize: copts.OutputBufferSize,
		},
		Checksum: ChecksumConfig{Algorithm: string(checksum.MD5)},
		Stream: StreamConfig{
			CopyBufferSize: sopts.CopyBufferSize,
			ReadBufferSize: sopts.ReadBufferSize,
		},
		Extract: ExtractConfig{Indent: 2},
		Output: OutputConfig{
			Compress:         codec.None.String(),
			SpoolMemoryLimit: codec.DefaultMemoryLimit,
		},
		Log: LogConfig{Level: "warn", Format: "text"},
	}
}

// Load loads the file at path, or at $WSJSON_CONFIG if path is empty. With
// neither, it returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads the file at path over the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads YAML configuration over the defaults. Unknown fields are
// errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every value can be turned into library options.
func (c *Config) Validate() error {
	if _, err := c.Canonical.Options(); err != nil {
		return err
	}
	if _, err := checksum.ParseAlgorithm(c.Checksum.Algorithm); err != nil {
		return err
	}
	if _, err := c.Stream.Options(); err != nil {
		return err
	}
	if _, err := codec.ParseFormat(c.Output.Compress); err != nil {
		return err
	}
	if c.Output.SpoolMemoryLimit < 0 {
		return fmt.Errorf("%w: negative spool_memory_limit", errs.ErrInvalidConfig)
	}
	if _, err := c.Log.Handler(io.Discard); err != nil {
		return err
	}
	return nil
}

// Options returns the canonicalizer options described by c.
func (c CanonicalConfig) Options() (canonical.Options, error) {
	opts := canonical.DefaultOptions()
	if c.SkipDuplicates {
		opts.Duplicates = canonical.DuplicateSkip
	}
	switch c.Keys {
	case "", "bytes":
		opts.Keys = canonical.KeyBytes
	case "text":
		opts.Keys = canonical.KeyText
	default:
		return opts, fmt.Errorf("%w: unknown key storage %q", errs.ErrInvalidConfig, c.Keys)
	}
	opts.MaxKeyMemory = c.MaxKeyMemory
	opts.BufferSize = c.BufferSize
	opts.OutputBufferSize = c.OutputBufferSize
	if _, err := canonical.New(opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// Options returns the stream options described by c.
func (c StreamConfig) Options() (stream.Options, error) {
	opts := stream.DefaultOptions()
	opts.CopyBufferSize = c.CopyBufferSize
	opts.ReadBufferSize = c.ReadBufferSize
	opts.TrustedWholeJSON = c.Trusted
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// Options returns the extractor options described by c.
func (c ExtractConfig) Options() extract.Options {
	return extract.Options{MaxSubsetSize: c.MaxSubsetSize}
}

// SpoolOptions returns the options for decompressing inputs.
func (c OutputConfig) SpoolOptions() codec.SpoolOptions {
	return codec.SpoolOptions{MemoryLimit: c.SpoolMemoryLimit, TempDir: c.TempDir}
}

// Handler returns a slog handler writing to w as described by c.
func (c LogConfig) Handler(w io.Writer) (slog.Handler, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("%w: log level %q", errs.ErrInvalidConfig, c.Level)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch c.Format {
	case "", "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	}
	return nil, fmt.Errorf("%w: log format %q", errs.ErrInvalidConfig, c.Format)
}

// LoadSelection reads a JSONC file holding a selection object. A file
// holding null is an absent selection.
func LoadSelection(path string) (extract.Selection, error) {
	var sel extract.Selection
	if err := loadJSONC(path, &sel); err != nil {
		return nil, err
	}
	return sel, nil
}

// LoadMetadata reads a JSONC file mapping metadata names to fields.
func LoadMetadata(path string) (extract.MetadataSelection, error) {
	var meta extract.MetadataSelection
	if err := loadJSONC(path, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func loadJSONC(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), v); err != nil {
		return fmt.Errorf("%s: %w: %s", path, errs.ErrMalformedSelection, err)
	}
	return nil
}
