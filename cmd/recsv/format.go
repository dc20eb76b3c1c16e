package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/oleg578/recordcsv"
	"github.com/scott-cotton/cli"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

func format(cfg *FmtConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Fmt.Parse(cc, args)
	if err != nil {
		return err
	}
	csvCfg, err := cfg.inputConfig()
	if err != nil {
		return err
	}
	in, name, err := openInput(cc, args)
	if err != nil {
		return err
	}
	defer in.Close()

	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", name, err)
	}
	// Decode once so that the diff compares text, not bytes.
	orig, err := decodeAll(raw, csvCfg)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", name, err)
	}
	canon, err := canonicalize(orig, csvCfg.Separator(), cfg.style())
	if err != nil {
		return fmt.Errorf("error reading %s: %w", name, err)
	}
	if !cfg.Diff {
		_, err := io.WriteString(cc.Out, canon)
		return err
	}
	lines := lineDiff(orig, canon)
	if len(lines) == 0 {
		return nil
	}
	if err := writeDiff(cc.Out, name, lines, cfg.useColor(cc.Out)); err != nil {
		return err
	}
	return cli.ExitCodeErr(1)
}

// decodeAll returns raw as text per csvCfg's encoding, without a byte-order-mark.
func decodeAll(raw []byte, csvCfg *recordcsv.Configuration) (string, error) {
	text, err := io.ReadAll(csvCfg.Encoding().NewDecoder(bytes.NewReader(raw)))
	if err != nil {
		return "", err
	}
	return string(text), nil
}

// rowStyle is the output layout of fmt beyond the separator.
type rowStyle struct {
	crlf  bool
	quote bool
}

// canonicalize parses text and writes it back, quoting only the fields that
// need it unless style.quote is set.
func canonicalize(text, sep string, style rowStyle) (string, error) {
	rr := recordcsv.NewRowReader(strings.NewReader(text))
	rr.Separator = sep
	rr.FieldsPerRecord = -1
	rows, err := rr.ReadAll()
	if err != nil {
		return "", err
	}
	var out strings.Builder
	rw := recordcsv.RowWriter{Separator: sep, UseCRLF: style.crlf, AlwaysQuote: style.quote}
	rw.Reset(&out)
	if err := rw.WriteAll(rows); err != nil {
		return "", err
	}
	if err := rw.Flush(); err != nil {
		return "", err
	}
	return out.String(), nil
}

type diffLine struct {
	op   diffpatch.Operation
	text string
}

// lineDiff returns the line-level differences between a and b, or nil when
// they are equal.
func lineDiff(a, b string) []diffLine {
	if a == b {
		return nil
	}
	dmp := diffpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
	var out []diffLine
	for _, d := range diffs {
		for _, l := range strings.SplitAfter(d.Text, "\n") {
			if l == "" {
				continue
			}
			out = append(out, diffLine{op: d.Type, text: strings.TrimRight(l, "\r\n")})
		}
	}
	return out
}

func writeDiff(w io.Writer, name string, lines []diffLine, useColor bool) error {
	del := color.New(color.FgRed)
	ins := color.New(color.FgGreen)
	hdr := color.New(color.Bold)
	if !useColor {
		del.DisableColor()
		ins.DisableColor()
		hdr.DisableColor()
	}
	if _, err := hdr.Fprintf(w, "--- %s\n+++ %s (formatted)\n", name, name); err != nil {
		return err
	}
	for _, l := range lines {
		var err error
		switch l.op {
		case diffpatch.DiffDelete:
			_, err = del.Fprintf(w, "-%s\n", l.text)
		case diffpatch.DiffInsert:
			_, err = ins.Fprintf(w, "+%s\n", l.text)
		default:
			_, err = fmt.Fprintf(w, " %s\n", l.text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
