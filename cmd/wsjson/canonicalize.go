package main

import (
	"io"
	"os"

	"github.com/arnodel/wsjson/canonical"
	"github.com/arnodel/wsjson/codec"
	"github.com/arnodel/wsjson/source"
)

func (a *app) canonicalize(args []string) error {
	cc := a.cfg.Canonical
	var textKeys bool
	var output string
	compress := a.cfg.Output.Compress

	fs := newFlagSet("canonicalize")
	fs.BoolVar(&cc.SkipDuplicates, "skip-duplicates", cc.SkipDuplicates, "keep the first of duplicated keys instead of failing")
	fs.BoolVar(&textKeys, "text-keys", false, "compare keys as text in UTF-16 order instead of as bytes")
	fs.Int64Var(&cc.MaxKeyMemory, "max-key-memory", cc.MaxKeyMemory, "memory budget for keys held at once (0 for no limit)")
	fs.IntVar(&cc.BufferSize, "buffer", cc.BufferSize, "size of the read window")
	fs.StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	fs.StringVar(&compress, "compress", compress, "compress the output: none, zstd, s2, lz4, gzip")
	if err := a.parse(fs, "[flags] [FILE]", args); err != nil {
		return err
	}
	if textKeys {
		cc.Keys = canonical.KeyText.String()
	}
	opts, err := cc.Options()
	if err != nil {
		return err
	}
	opts.Logger = a.log
	format, err := codec.ParseFormat(compress)
	if err != nil {
		return err
	}
	name, err := inputName(fs.Args())
	if err != nil {
		return err
	}

	src, err := a.openSource(name)
	if err != nil {
		return err
	}
	defer src.Close()

	if output == "" {
		return writeCanonical(a.stdout, src, opts, format)
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	err = writeCanonical(f, src, opts, format)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(output)
	}
	return err
}

func writeCanonical(w io.Writer, src source.Source, opts canonical.Options, format codec.Format) error {
	zw, err := codec.NewWriter(w, format)
	if err != nil {
		return err
	}
	if err := canonical.Canonicalize(src, zw, opts); err != nil {
		return err
	}
	return zw.Close()
}
