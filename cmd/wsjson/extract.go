package main

import (
	"github.com/arnodel/wsjson/config"
	"github.com/arnodel/wsjson/extract"
	"github.com/arnodel/wsjson/stream"
	"github.com/arnodel/wsjson/token"
	"github.com/arnodel/wsjson/tree"
)

func (a *app) extract(args []string) error {
	ec := a.cfg.Extract
	var keysPath, fieldsPath, metaPath string
	var inFormat string
	var colorMode string
	var compact bool

	fs := newFlagSet("extract")
	fs.StringVar(&keysPath, "keys", "", "JSONC selection of the objects whose keys to list")
	fs.StringVar(&fieldsPath, "fields", "", "JSONC selection of the fields to copy")
	fs.StringVar(&metaPath, "metadata", "", "JSONC object mapping metadata names to top level fields")
	fs.Int64Var(&ec.MaxSubsetSize, "max-size", ec.MaxSubsetSize, "maximum size of the subset in bytes (0 for no limit)")
	fs.IntVar(&ec.Indent, "indent", ec.Indent, "indent step (negative for compact output)")
	fs.BoolVar(&compact, "compact", false, "output each value on a single line")
	fs.StringVar(&inFormat, "in", "json", "input format: json, cbor")
	fs.StringVar(&colorMode, "color", "auto", "colorize output: auto, always, never")
	if err := a.parse(fs, "[flags] [FILE]", args); err != nil {
		return err
	}
	if compact {
		ec.Indent = -1
	}
	colorizer, err := a.colorizer(colorMode)
	if err != nil {
		return err
	}

	var keysOf, fields extract.Selection
	var meta extract.MetadataSelection
	if keysPath != "" {
		if keysOf, err = config.LoadSelection(keysPath); err != nil {
			return err
		}
	}
	if fieldsPath != "" {
		if fields, err = config.LoadSelection(fieldsPath); err != nil {
			return err
		}
	}
	if metaPath != "" {
		if meta, err = config.LoadMetadata(metaPath); err != nil {
			return err
		}
	}
	// Reject malformed selections before touching the input
	if _, err := extract.Build(keysOf, fields, meta); err != nil {
		return err
	}

	sopts, err := a.cfg.Stream.Options()
	if err != nil {
		return err
	}
	name, err := inputName(fs.Args())
	if err != nil {
		return err
	}
	in, err := a.openInput(name, inFormat)
	if err != nil {
		return err
	}
	s, err := stream.Open(in, sopts)
	if err != nil {
		return err
	}
	defer s.Close()

	subset, metadata, err := extract.Tree(s, keysOf, fields, meta, ec.Options())
	if err != nil {
		return err
	}
	a.log.Debug("extracted", "input", name, "metadata", len(metadata))

	out := a.newOutput()
	enc := out.encoder(ec.Indent, colorizer)
	if _, err := token.Copy(enc, tree.NewReader(subset)); err != nil {
		return err
	}
	if _, err := out.WriteString("\n"); err != nil {
		return err
	}
	enc = out.encoder(ec.Indent, colorizer)
	if _, err := token.Copy(enc, tree.NewReader(metadataTree(metadata))); err != nil {
		return err
	}
	if _, err := out.WriteString("\n"); err != nil {
		return err
	}
	return out.Flush()
}

func metadataTree(m extract.Metadata) map[string]any {
	t := make(map[string]any, len(m))
	for k, v := range m {
		t[k] = v
	}
	return t
}
