package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/arnodel/wsjson/codec"
	"github.com/arnodel/wsjson/config"
	"github.com/arnodel/wsjson/internal/format"
	"github.com/arnodel/wsjson/source"
)

// app holds what every subcommand needs. Tests build one over buffers.
type app struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	terminal bool

	cfg *config.Config
	log *slog.Logger
}

type command struct {
	name    string
	summary string
	run     func(a *app, args []string) error
}

var commands = []command{
	{"canonicalize", "write a document with the members of every object sorted by key", (*app).canonicalize},
	{"checksum", "print digests of documents that do not depend on member order", (*app).checksum},
	{"extract", "print the selected subset of a document and its metadata", (*app).extract},
	{"stream", "re-emit a document, or the value at a root path, through the token stream", (*app).stream},
}

// errHelp is returned by parse when help was requested and printed.
var errHelp = errors.New("help requested")

func (a *app) run(args []string) error {
	var configPath string
	var verbose bool
	fs := pflag.NewFlagSet("wsjson", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	fs.StringVar(&configPath, "config", "", "configuration file (default $"+config.EnvVar+")")
	fs.BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	help := fs.BoolP("help", "h", false, "show help")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s\n\nRun 'wsjson --help' for usage.", err)
	}
	if *help {
		a.printUsage(fs)
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	handler, err := cfg.Log.Handler(a.stderr)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = slog.New(handler)

	rest := fs.Args()
	if len(rest) == 0 {
		a.printUsage(fs)
		return errors.New("command required")
	}
	for _, c := range commands {
		if c.name == rest[0] {
			err := c.run(a, rest[1:])
			if errors.Is(err, errHelp) {
				return nil
			}
			return err
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'wsjson --help' for usage.", rest[0])
}

func (a *app) printUsage(fs *pflag.FlagSet) {
	fmt.Fprintf(a.stdout, "Usage:\n  wsjson [flags] <command> [flags] [FILE...]\n\nCommands:\n")
	tw := tabwriter.NewWriter(a.stdout, 2, 0, 3, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(tw, "  %s\t%s\n", c.name, c.summary)
	}
	tw.Flush()
	fmt.Fprintf(a.stdout, "\nFlags:\n%s", fs.FlagUsages())
}

// newFlagSet returns a flag set for a subcommand with a --help flag.
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("wsjson "+name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolP("help", "h", false, "show help")
	return fs
}

// parse parses args into fs. When --help is given it prints the usage and
// returns errHelp.
func (a *app) parse(fs *pflag.FlagSet, usage string, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s\n\nRun '%s --help' for usage.", err, fs.Name())
	}
	if help, _ := fs.GetBool("help"); help {
		fmt.Fprintf(a.stdout, "Usage:\n  %s %s\n\nFlags:\n%s", fs.Name(), usage, fs.FlagUsages())
		return errHelp
	}
	return nil
}

// openSource opens a document for random access, decompressing it if needed.
func (a *app) openSource(name string) (source.Source, error) {
	opts := a.cfg.Output.SpoolOptions()
	var (
		src source.Source
		f   codec.Format
		err error
	)
	if name == "-" {
		src, f, err = codec.Detecting(a.stdin, opts)
	} else {
		src, f, err = codec.OpenSource(name, opts)
	}
	if err != nil {
		return nil, err
	}
	a.log.Debug("opened input", "name", name, "compression", f, "size", src.Size())
	return src, nil
}

// colorizer resolves the --color flag.
func (a *app) colorizer(mode string) (*format.Colorizer, error) {
	switch mode {
	case "always":
		return &format.DefaultColorizer, nil
	case "never":
		return nil, nil
	case "auto":
		if a.terminal {
			return &format.DefaultColorizer, nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("invalid --color value: %q (use auto, always, or never)", mode)
}

// inputName returns the single input named by args, "-" if there is none.
func inputName(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "-", nil
	case 1:
		return args[0], nil
	}
	return "", fmt.Errorf("expected one input, got %s", strings.Join(args, " "))
}
