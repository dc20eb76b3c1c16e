package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/oleg578/recordcsv"
	"github.com/scott-cotton/cli"
)

func dump(cfg *DumpConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Dump.Parse(cc, args)
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
	var cv *recordcsv.Converter
	if cfg.Typed {
		cv = csvCfg.Converter()
	}
	return dumpTable(cc.Out, t, cv)
}

// dumpTable writes t as a yaml sequence of maps keeping the column order.
// A non-nil cv turns numbers and times into typed values.
func dumpTable(w io.Writer, t *table, cv *recordcsv.Converter) error {
	docs := make([]yaml.MapSlice, 0, len(t.rows))
	for _, row := range t.rows {
		m := make(yaml.MapSlice, 0, len(row))
		for i, f := range row {
			var v any = f
			if cv != nil {
				v = localize(cv, f)
			}
			m = append(m, yaml.MapItem{Key: t.name(i), Value: v})
		}
		docs = append(docs, m)
	}
	out, err := yaml.Marshal(docs)
	if err != nil {
		return fmt.Errorf("error encoding yaml: %w", err)
	}
	_, err = w.Write(out)
	return err
}
