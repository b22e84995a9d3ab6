package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"svcdeck/build"
	"svcdeck/config"
	"svcdeck/misc"
	"svcdeck/state"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// save complete processed configuration if external configuration was provided
		if len(configFile) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 && env.Log != nil {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if er := env.Close(); er != nil {
		err = multierr.Append(err, fmt.Errorf("unable to close plan store: %w", er))
	}

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	// close logging
	env.RestoreStdLog()

	// log is synced now and result can be used in report if necessary, errors
	// must be reported directly to stderr from now on
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// reporting is closed now - remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Subcommands return regular errors, cli.Exit() is never used. Error is
// logged once here and main only sets exit code.
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {

	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// do nothing special, error is reported either by exitErrHandler or on
	// exit directly to stderr.
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func main() {

	// cleanup loop runs until interrupted, so context must follow signals
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "assembles worship service slide decks from service plans",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "build",
				Usage:        "Builds presentation deck for every service plan",
				OnUsageError: usageErrorHandler,
				Action:       build.Run,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exits, overwrite files"},
					&cli.StringFlag{Name: "date", Usage: "service `DATE` (YYYY-MM-DD) shown on preview slide, today if absent"},
					&cli.StringFlag{Name: "template", Usage: "presentation template `FILE`, overrides configuration"},
					&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Usage: "build at most `N` decks concurrently, configured value if absent"},
				},
				ArgsUsage: "PLAN... [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
PLAN:
    either path to plan file (YAML or JSON) or id of a stored plan

DESTINATION:
    always a path, output file name(s) will be derived from service date and plan
    if absent (single PLAN) - configured output directory
`, cli.CommandHelpTemplate),
			},
			{
				Name:            "plan",
				Usage:           "Manages stored service plans",
				OnUsageError:    usageErrorHandler,
				HideHelpCommand: true,
				Commands: []*cli.Command{
					{
						Name:         "init",
						Usage:        "Creates new plan and prints its id",
						OnUsageError: usageErrorHandler,
						Action:       planInit,
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "praise", Required: true, Usage: "number of praise songs `N` (1-20)"},
							&cli.StringFlag{Name: "prayer", Usage: "prayer slide `TEXT`, configured default if absent"},
							&cli.StringFlag{Name: "title", Usage: "sermon `TITLE`"},
							&cli.StringFlag{Name: "phrases", Usage: "sermon phrases, one per line, scripture references or free `TEXT`"},
							&cli.BoolFlag{Name: "no-offering", Usage: "service has no offering song"},
							&cli.BoolFlag{Name: "no-closing", Usage: "service has no closing song"},
						},
					},
					{
						Name:         "songs",
						Usage:        "Sets songs of stored plan",
						OnUsageError: usageErrorHandler,
						Action:       planSongs,
						Flags: []cli.Flag{
							&cli.StringSliceFlag{Name: "praise", Usage: "praise song `TITLE[|ARTIST]`, repeat in service order"},
							&cli.StringFlag{Name: "offering", Usage: "offering song `TITLE[|ARTIST]`"},
							&cli.StringFlag{Name: "closing", Usage: "closing song `TITLE[|ARTIST]`"},
						},
						ArgsUsage: "ID",
					},
					{
						Name:         "show",
						Usage:        "Prints stored plan (YAML)",
						OnUsageError: usageErrorHandler,
						Action:       planShow,
						ArgsUsage:    "ID",
					},
					{
						Name:         "import",
						Usage:        "Stores plan file and prints its id",
						OnUsageError: usageErrorHandler,
						Action:       planImport,
						ArgsUsage:    "FILE",
					},
					{
						Name:         "list",
						Usage:        "Lists stored plans",
						OnUsageError: usageErrorHandler,
						Action:       planList,
					},
					{
						Name:         "delete",
						Usage:        "Removes stored plan",
						OnUsageError: usageErrorHandler,
						Action:       planDelete,
						ArgsUsage:    "ID",
					},
				},
			},
			{
				Name:         "lyrics",
				Usage:        "Looks up lyrics of stored plan songs",
				OnUsageError: usageErrorHandler,
				Action:       fetchLyrics,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "replace lyrics already present in plan"},
					&cli.IntFlag{Name: "song", Aliases: []string{"s"}, Usage: "look up only `N`th song of the plan (1-based, plan order)"},
				},
				ArgsUsage: "ID",
			},
			{
				Name:         "cleanup",
				Usage:        "Removes old decks and stored plans",
				OnUsageError: usageErrorHandler,
				Action:       runCleanup,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "loop", Usage: "repeat cleanup every configured interval until interrupted"},
				},
			},
			{
				Name:         "inspect",
				Usage:        "Lists slides of presentation with their layouts and texts",
				OnUsageError: usageErrorHandler,
				Action:       inspectDeck,
				ArgsUsage:    "FILE",
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values wich is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deffered functions after that
	defer func() {
		stop()
		if err != nil {
			// It may happen that log is either not set yet (argument parsing) or already closed,
			// report errors to stderr directly
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		state string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()

	}

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Info("Outputing configuration", zap.String("state", state), zap.String("file", fname))

	_, err = out.Write(data)
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
