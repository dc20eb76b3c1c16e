package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oleg578/recordcsv"
	"github.com/scott-cotton/cli"
)

func recsvMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

// openInput opens the single file argument, or the command input when there
// is none or it is "-".
func openInput(cc *cli.Context, args []string) (io.ReadCloser, string, error) {
	switch {
	case len(args) > 1:
		return nil, "", fmt.Errorf("%w: expected at most one file, got %v", cli.ErrUsage, args)
	case len(args) == 0 || args[0] == "-":
		return io.NopCloser(cc.In), "-", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("could not open %q: %w", args[0], err)
	}
	return f, args[0], nil
}

// table is a csv read in full: the header line, when there is one, and the rows.
type table struct {
	header []string
	rows   [][]string
}

func readTable(r io.Reader, csvCfg *recordcsv.Configuration, hasHeader bool) (*table, error) {
	rows, err := recordcsv.NewRowReaderWith(r, csvCfg).ReadAll()
	if err != nil {
		return nil, err
	}
	t := &table{rows: rows}
	if hasHeader && len(rows) > 0 {
		t.header, t.rows = rows[0], rows[1:]
	}
	return t, nil
}

// name returns the header of column i, or its 1-based position.
func (t *table) name(i int) string {
	if i < len(t.header) {
		return t.header[i]
	}
	return fmt.Sprintf("#%d", i+1)
}

func (t *table) width() int {
	if len(t.header) > 0 {
		return len(t.header)
	}
	if len(t.rows) > 0 {
		return len(t.rows[0])
	}
	return 0
}
