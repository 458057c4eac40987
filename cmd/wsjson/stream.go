package main

import (
	"strings"

	"github.com/arnodel/wsjson/stream"
	"github.com/arnodel/wsjson/token"
)

func (a *app) stream(args []string) error {
	sc := a.cfg.Stream
	var root string
	var inFormat string
	var indent int
	var colorMode string

	fs := newFlagSet("stream")
	fs.StringVar(&root, "root", "", "slash separated path of the value to stream, e.g. a/b")
	fs.BoolVar(&sc.Trusted, "trusted", sc.Trusted, "the input is valid JSON: copy it verbatim")
	fs.IntVar(&sc.CopyBufferSize, "copy-buffer", sc.CopyBufferSize, "size of the chunks moved by verbatim copies")
	fs.StringVar(&inFormat, "in", "json", "input format: json, cbor")
	fs.IntVar(&indent, "indent", -1, "indent step (negative for compact output)")
	fs.StringVar(&colorMode, "color", "auto", "colorize output: auto, always, never")
	if err := a.parse(fs, "[flags] [FILE]", args); err != nil {
		return err
	}

	opts, err := sc.Options()
	if err != nil {
		return err
	}
	if path := strings.Trim(root, "/"); path != "" {
		opts = opts.WithRoot(strings.Split(path, "/")...)
		// An explicit --trusted conflicts with a root
		opts.TrustedWholeJSON = sc.Trusted
	}
	colorizer, err := a.colorizer(colorMode)
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
	s, err := stream.Open(in, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	out := a.newOutput()
	if indent < 0 && colorizer == nil {
		err = s.WriteJSON(out)
	} else {
		// Verbatim copies would lose the indentation and colors
		_, err = token.Copy(out.encoder(indent, colorizer), s)
	}
	if err != nil {
		return err
	}
	if _, err := out.WriteString("\n"); err != nil {
		return err
	}
	a.log.Debug("streamed", "input", name, "root", root, "trusted", opts.TrustedWholeJSON)
	return out.Flush()
}
