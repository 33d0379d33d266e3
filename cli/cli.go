package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/loreleva/Bbo-functions/cli/cmd"
	"github.com/loreleva/Bbo-functions/pkg"
)

// baseConfig is the base name of the configuration files in
// [pkg.ConfigDir]. The JSON file is read first, then the YAML file.
const baseConfig = "config"

// CLI is the top-level command-line interface for bbo.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Catalog string `help:"Function catalog file (.json, .yaml or .toml)" short:"c" type:"path"`

	Init  cmd.Init  `cmd:"" help:"Initialize configuration file"`
	Fmt   cmd.Fmt   `cmd:"" help:"Format programs"`
	Check cmd.Check `cmd:"" help:"Compile every function of a catalog"`
	Info  cmd.Info  `cmd:"" help:"Show catalog functions"`
	Bench cmd.Bench `cmd:"" help:"Measure evaluation throughput of a catalog function"`
	Repl  cmd.Repl  `cmd:"" help:"Start an interactive evaluator"`

	Eval cmd.Eval `cmd:"" default:"withargs" help:"Evaluate a program at a point"`
}

// Run executes the bbo CLI with the given context and arguments. The exit
// function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := pkg.MkdirAll()
	if err != nil {
		return err
	}

	configPath := filepath.Join(pkg.ConfigDir(), baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configPath + ".yaml",
		cmd.CacheIdentifier:  pkg.CacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Logger flags are applied before parsing so that parse errors are
	// already logged in the requested format.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.BindTo(io.Writer(os.Stdout), (*io.Writer)(nil)),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configPath+".json"),
		kong.Configuration(resolve(ctx, cmd.ConfigIdentifier), configPath+".yaml"),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithCatalogPath(ctx, cli.Catalog)

	cli.Log.start(ctx)

	// No-op unless built with tag pprof and a mode is selected.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
