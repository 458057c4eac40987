package main

import (
	"encoding/hex"
	"fmt"

	"github.com/arnodel/wsjson/checksum"
	"github.com/arnodel/wsjson/errs"
)

func (a *app) checksum(args []string) error {
	algorithm := a.cfg.Checksum.Algorithm
	var keyHex string
	cc := a.cfg.Canonical

	fs := newFlagSet("checksum")
	fs.StringVarP(&algorithm, "algorithm", "a", algorithm, "digest: md5, blake3, xxh64")
	fs.StringVar(&keyHex, "key", "", "hex encoded 32 byte key for keyed blake3")
	fs.BoolVar(&cc.SkipDuplicates, "skip-duplicates", cc.SkipDuplicates, "keep the first of duplicated keys instead of failing")
	if err := a.parse(fs, "[flags] [FILE...]", args); err != nil {
		return err
	}

	opts := checksum.DefaultOptions()
	var err error
	if opts.Algorithm, err = checksum.ParseAlgorithm(algorithm); err != nil {
		return err
	}
	if keyHex != "" {
		if opts.Key, err = hex.DecodeString(keyHex); err != nil {
			return fmt.Errorf("%w: --key: %s", errs.ErrInvalidConfig, err)
		}
	}
	if opts.Canonical, err = cc.Options(); err != nil {
		return err
	}
	opts.Canonical.Logger = a.log

	names := fs.Args()
	if len(names) == 0 {
		names = []string{"-"}
	}
	for _, name := range names {
		res, err := a.sumFile(name, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		fmt.Fprintf(a.stdout, "%s  %d  %s\n", res.Hex(), res.Size, name)
	}
	return nil
}

func (a *app) sumFile(name string, opts checksum.Options) (checksum.Result, error) {
	src, err := a.openSource(name)
	if err != nil {
		return checksum.Result{}, err
	}
	defer src.Close()
	return checksum.Sum(src, opts)
}
