package main

import (
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/oleg578/recordcsv"
	"github.com/scott-cotton/cli"
)

func convert(cfg *ConvertConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Convert.Parse(cc, args)
	if err != nil {
		return err
	}
	inCfg, err := cfg.inputConfig()
	if err != nil {
		return err
	}
	outCfg, err := cfg.outputConfig()
	if err != nil {
		return err
	}
	var where *vm.Program
	if cfg.Where != "" {
		where, err = compileWhere(cfg.Where)
		if err != nil {
			return fmt.Errorf("%w: -where: %w", cli.ErrUsage, err)
		}
	}

	in, name, err := openInput(cc, args)
	if err != nil {
		return err
	}
	defer in.Close()

	rows := recordcsv.NewRowReaderWith(in, inCfg)
	first, err := rows.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading %s: %w", name, err)
	}

	var names []string
	var pending []string
	if cfg.NoHeader {
		pending = first
		for i := range first {
			names = append(names, fmt.Sprintf("c%d", i+1))
		}
	} else {
		names = first
	}

	cv := inCfg.Converter()
	src := func(yield func([]any, error) bool) {
		next := func() ([]string, error) {
			if pending != nil {
				fields := pending
				pending = nil
				return fields, nil
			}
			return rows.Read()
		}
		for {
			fields, err := next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("error reading %s: %w", name, err))
				return
			}
			values := localizeRow(cv, fields)
			if where != nil {
				keep, err := matches(where, names, values)
				if err != nil {
					yield(nil, fmt.Errorf("%s: line %d: -where: %w", name, rows.Line(), err))
					return
				}
				if !keep {
					continue
				}
			}
			if !yield(values, nil) {
				return
			}
		}
	}

	w := convertWriter(iter.Seq2[[]any, error](src), outCfg, names, !cfg.NoHeader)
	if cfg.Output != "" {
		return w.ToFile(cfg.context(), cfg.Output)
	}
	return w.ToWriter(cfg.context(), cc.Out)
}

// convertWriter writes rows of values, one column per name. Without a
// header line the columns are positional.
func convertWriter(src iter.Seq2[[]any, error], outCfg *recordcsv.Configuration, names []string, header bool) *recordcsv.Writer[[]any] {
	w := recordcsv.NewWriter(recordcsv.FromStream(src), outCfg)
	for i, n := range names {
		get := func(row []any) any {
			if i < len(row) {
				return row[i]
			}
			return nil
		}
		if header {
			w.Columns.Add(recordcsv.WriteHeader(n, get))
		} else {
			w.AddFunc(get)
		}
	}
	return w
}

func localizeRow(cv *recordcsv.Converter, fields []string) []any {
	values := make([]any, len(fields))
	for i, f := range fields {
		values[i] = localize(cv, f)
	}
	return values
}

// localize parses text as an integer, a number or a time under the
// converter's locale. Anything else stays text, as do integers with leading
// zeros and numbers in exponent form, which are usually codes.
func localize(cv *recordcsv.Converter, text string) any {
	if !strings.ContainsAny(text, "0123456789") {
		return text
	}
	if n, ok := recordcsv.Parse[int64](cv, text); ok {
		if hasLeadingZero(text) {
			return text
		}
		return n
	}
	if !strings.ContainsAny(text, "eE") {
		if f, ok := recordcsv.Parse[float64](cv, text); ok {
			return f
		}
	}
	if t, ok := recordcsv.Parse[time.Time](cv, text); ok {
		return t
	}
	return text
}

func hasLeadingZero(text string) bool {
	text = strings.TrimLeft(text, "+-")
	return len(text) > 1 && text[0] == '0'
}

func compileWhere(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.AsBool())
}

// matches evaluates prg with every name bound to its value and row bound to
// the map of all of them.
func matches(prg *vm.Program, names []string, values []any) (bool, error) {
	env := make(map[string]any, len(names)+1)
	row := make(map[string]any, len(names))
	for i, n := range names {
		if i >= len(values) {
			break
		}
		env[n] = values[i]
		row[n] = values[i]
	}
	env["row"] = row
	out, err := expr.Run(prg, env)
	if err != nil {
		return false, err
	}
	keep, _ := out.(bool)
	return keep, nil
}
