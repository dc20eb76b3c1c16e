package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func MainCommand(ctx context.Context) *cli.Command {
	cfg := &MainConfig{ctx: ctx}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "recsv").
		WithSynopsis("recsv [opts] command [opts] [file]").
		WithDescription("recsv is a tool for working with localized csv files.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return recsvMain(cfg, cc, args)
		}).
		WithSubs(
			ConvertCommand(cfg),
			FmtCommand(cfg),
			StatCommand(cfg),
			DumpCommand(cfg))
}

func ConvertCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ConvertConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Convert, "convert").
		WithAliases("c", "conv").
		WithSynopsis("convert [-out profile] [-osep s] [-olocale tag] [-oenc name] [-where expr] [-o file] [file]").
		WithDescription(convertDescription).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return convert(cfg, cc, args)
		})
}

const convertDescription = `convert rewrites a csv with a header line for another separator, locale or encoding.

Numbers and times are parsed with the input locale and formatted with the
output locale; other fields are copied as is.

-where keeps the rows for which an expr expression is true. Each header name
is a variable, and row maps every header to its value:

  recsv -sep ';' -locale fr-FR convert -olocale en-US -where 'Price > 10' in.csv
  recsv convert -where 'row["Unit price"] < 2.5' in.csv`

func FmtCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &FmtConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Fmt, "fmt").
		WithAliases("f").
		WithSynopsis("fmt [-d] [-crlf] [file]").
		WithDescription("fmt rewrites a csv with canonical quoting; with -d it prints the differences and exits 1 if there are any").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return format(cfg, cc, args)
		})
}

func StatCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &StatConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Stat, "stat").
		WithAliases("s").
		WithSynopsis("stat [file]").
		WithDescription("stat prints the columns of a csv with their fill rate and numeric range").
		WithRun(func(cc *cli.Context, args []string) error {
			return stat(cfg, cc, args)
		})
}

func DumpCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DumpConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Dump, "dump").
		WithSynopsis("dump [-typed] [file]").
		WithDescription("dump prints the rows of a csv as a yaml sequence of maps").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return dump(cfg, cc, args)
		})
}
