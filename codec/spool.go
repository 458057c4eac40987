package codec

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/arnodel/wsjson/source"
)

// DefaultMemoryLimit is the largest decompressed document kept in memory.
const DefaultMemoryLimit = 64 << 20

// SpoolOptions configure OpenSource and Spool.
type SpoolOptions struct {
	// Decompressed documents up to this size stay in memory.
	MemoryLimit int64

	// Directory for temporary files; empty means os.TempDir().
	TempDir string
}

// DefaultSpoolOptions returns the options used by the command line tool.
func DefaultSpoolOptions() SpoolOptions {
	return SpoolOptions{MemoryLimit: DefaultMemoryLimit}
}

// OpenSource opens the document at path, decompressing it if its first bytes
// are the magic number of a known format. It returns the format found.
func OpenSource(path string, opts SpoolOptions) (source.Source, Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, None, err
	}
	head, _, err := readHead(f)
	if err != nil {
		f.Close()
		return nil, None, err
	}
	format := Detect(head)
	if format == None {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, None, err
		}
		src, err := source.NewFile(f)
		if err != nil {
			f.Close()
			return nil, None, err
		}
		return src, None, nil
	}
	defer f.Close()
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, None, err
	}
	src, err := Spool(f, format, opts)
	if err != nil {
		return nil, None, fmt.Errorf("%s: %w", path, err)
	}
	return src, format, nil
}

// Detecting reads the format from the first bytes of r and spools the
// decompressed stream.
func Detecting(r io.Reader, opts SpoolOptions) (source.Source, Format, error) {
	head, r, err := readHead(r)
	if err != nil {
		return nil, None, err
	}
	format := Detect(head)
	src, err := Spool(r, format, opts)
	return src, format, err
}

// Spool decompresses r, which is in format f, into a random-access source.
// Closing the source removes its temporary file, if any.
func Spool(r io.Reader, f Format, opts SpoolOptions) (source.Source, error) {
	zr, err := NewReader(r, f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var buf bytes.Buffer
	n, err := io.CopyN(&buf, zr, opts.MemoryLimit+1)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("decompress %s: %w", f, err)
	}
	if n <= opts.MemoryLimit {
		return source.NewMemory(buf.Bytes())
	}

	tmp, err := os.CreateTemp(opts.TempDir, "wsjson-*.json")
	if err != nil {
		return nil, err
	}
	fail := func(err error) (source.Source, error) {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		return fail(err)
	}
	if _, err := io.Copy(tmp, zr); err != nil {
		return fail(fmt.Errorf("decompress %s: %w", f, err))
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fail(err)
	}
	src, err := source.NewFile(tmp)
	if err != nil {
		return fail(err)
	}
	return &tempFile{File: src, path: tmp.Name()}, nil
}

// tempFile is a spooled document on disk.
type tempFile struct {
	*source.File
	path string
}

func (t *tempFile) Close() error {
	err := t.File.Close()
	if rerr := os.Remove(t.path); err == nil {
		err = rerr
	}
	return err
}
