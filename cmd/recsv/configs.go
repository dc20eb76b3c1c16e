package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/oleg578/recordcsv"
	"github.com/scott-cotton/cli"
)

type MainConfig struct {
	Profile  string `cli:"name=in desc='yaml profile describing the input csv'"`
	Sep      string `cli:"name=sep aliases=isep desc='input field separator'"`
	Locale   string `cli:"name=locale aliases=ilocale desc='input locale, e.g. fr-FR'"`
	Encoding string `cli:"name=enc aliases=ienc desc='input encoding, e.g. utf-16le'"`
	NoHeader bool   `cli:"name=noheader desc='the input has no header line'"`
	Verbose  bool   `cli:"name=v desc='log debug messages to stderr'"`
	Color    bool   `cli:"name=color desc='force colored output'"`

	ctx context.Context
	log *slog.Logger

	Main *cli.Command
}

// inputConfig builds the csv configuration of the input from the profile
// and the flags, flags taking precedence.
func (cfg *MainConfig) inputConfig() (*recordcsv.Configuration, error) {
	return buildConfig(cfg.Profile, cfg.Locale, cfg.Sep, cfg.Encoding, cfg.logger())
}

func buildConfig(profile, locale, sep, enc string, log *slog.Logger) (*recordcsv.Configuration, error) {
	c := recordcsv.NewConfiguration()
	if profile != "" {
		var err error
		c, err = recordcsv.LoadConfiguration(profile)
		if err != nil {
			return nil, err
		}
	}
	if locale != "" {
		if err := c.SetLocaleName(locale); err != nil {
			return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
	}
	if sep != "" {
		if err := c.SetSeparator(unescape(sep)); err != nil {
			return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
	}
	if enc != "" {
		e, err := recordcsv.LookupEncoding(enc)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		if err := c.SetEncoding(e); err != nil {
			return nil, err
		}
	}
	c.SetLogger(log)
	return c, nil
}

// unescape lets separators be given as `\t`.
func unescape(sep string) string {
	switch sep {
	case `\t`, "tab":
		return "\t"
	}
	return sep
}

func (cfg *MainConfig) context() context.Context {
	if cfg.ctx == nil {
		return context.Background()
	}
	return cfg.ctx
}

func (cfg *MainConfig) logger() *slog.Logger {
	if cfg.log != nil {
		return cfg.log
	}
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	cfg.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return cfg.log
}

// useColor reports whether w gets colored output.
func (cfg *MainConfig) useColor(w io.Writer) bool {
	if cfg.Color {
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type ConvertConfig struct {
	*MainConfig
	OutProfile  string `cli:"name=out desc='yaml profile describing the output csv'"`
	OutSep      string `cli:"name=osep desc='output field separator'"`
	OutLocale   string `cli:"name=olocale desc='output locale'"`
	OutEncoding string `cli:"name=oenc desc='output encoding'"`
	Where       string `cli:"name=where desc='keep rows matching an expr boolean expression over header names'"`
	Output      string `cli:"name=o desc='output file (default stdout)'"`

	Convert *cli.Command
}

func (cfg *ConvertConfig) outputConfig() (*recordcsv.Configuration, error) {
	return buildConfig(cfg.OutProfile, cfg.OutLocale, cfg.OutSep, cfg.OutEncoding, cfg.logger())
}

type FmtConfig struct {
	*MainConfig
	Diff bool `cli:"name=d desc='print a diff against the canonical form instead of it'"`
	CRLF  bool `cli:"name=crlf desc='terminate lines with CRLF'"`
	Quote bool `cli:"name=quote desc='quote every field'"`

	Fmt *cli.Command
}

func (cfg *FmtConfig) style() rowStyle {
	return rowStyle{crlf: cfg.CRLF, quote: cfg.Quote}
}

type StatConfig struct {
	*MainConfig

	Stat *cli.Command
}

type DumpConfig struct {
	*MainConfig
	Typed bool `cli:"name=typed desc='dump numbers and times as typed values'"`

	Dump *cli.Command
}
