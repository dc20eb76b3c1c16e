package main

import (
	"fmt"
	"io"
	"math"

	"github.com/fatih/color"
	"github.com/oleg578/recordcsv"
	"github.com/scott-cotton/cli"
)

func stat(cfg *StatConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Stat.Parse(cc, args)
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

	t, err := readTable(in, csvCfg, !cfg.NoHeader)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", name, err)
	}
	stats := columnStats(t, csvCfg.Converter())
	return writeStats(cc.Out, name, len(t.rows), stats, cfg.useColor(cc.Out))
}

type colStat struct {
	name     string
	filled   int
	numeric  int
	min, max float64
}

func columnStats(t *table, cv *recordcsv.Converter) []colStat {
	stats := make([]colStat, t.width())
	for i := range stats {
		stats[i] = colStat{name: t.name(i), min: math.Inf(1), max: math.Inf(-1)}
	}
	for _, row := range t.rows {
		for i, f := range row {
			if i >= len(stats) || f == "" {
				continue
			}
			s := &stats[i]
			s.filled++
			v, ok := recordcsv.Parse[float64](cv, f)
			if !ok || math.IsNaN(v) {
				continue
			}
			s.numeric++
			s.min = min(s.min, v)
			s.max = max(s.max, v)
		}
	}
	return stats
}

func writeStats(w io.Writer, name string, rows int, stats []colStat, useColor bool) error {
	title := color.New(color.Bold)
	col := color.New(color.FgCyan)
	num := color.New(color.FgYellow)
	if !useColor {
		title.DisableColor()
		col.DisableColor()
		num.DisableColor()
	}
	if _, err := title.Fprintf(w, "%s: %d rows, %d columns\n", name, rows, len(stats)); err != nil {
		return err
	}
	for _, s := range stats {
		if _, err := fmt.Fprintf(w, "  %s  filled %d/%d", col.Sprint(s.name), s.filled, rows); err != nil {
			return err
		}
		if s.numeric > 0 && s.numeric == s.filled {
			if _, err := fmt.Fprintf(w, "  range %s", num.Sprintf("[%g, %g]", s.min, s.max)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
