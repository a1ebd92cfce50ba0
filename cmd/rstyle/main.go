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

	"rstyle/config"
	"rstyle/misc"
	"rstyle/state"
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
		if data, err := config.Dump(env.Cfg); err == nil {
			env.Rpt.StoreData("config/effective.yaml", data)
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
	if len(configFile) == 0 {
		env.Log.Info("Using defaults (no configuration file)")
	}

	if err := env.OpenStyles(); err != nil {
		return ctx, fmt.Errorf("unable to open stylesheet store: %w", err)
	}
	if env.Rpt != nil && env.Cfg.Styles.Store == config.StoreFS {
		// sources as they were at start, they may change while we run
		if err := env.Rpt.StoreCopy("styles", env.Cfg.Styles.Root); err != nil {
			env.Log.Debug("Unable to copy stylesheet sources to report", zap.Error(err))
		}
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if er := env.CloseStyles(); er != nil {
		err = multierr.Append(err, fmt.Errorf("unable to close stylesheet store: %w", er))
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
		debug.SetCrashOutput(nil, debug.CrashOptions{}) //nolint:errcheck
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Errors are returned from subcommands as is and logged once here instead of
// going through cli.Exit.
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
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	if log := state.EnvFromContext(ctx).Log; log != nil {
		log.Warn("Unknown command, nothing to do", zap.String("command", name))
	}
}

func main() {
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "style cascade engine for user interface stylesheets",
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
				Name:         "resolve",
				Usage:        "Resolves style of a widget context (YAML)",
				OnUsageError: usageErrorHandler,
				Action:       resolveContext,
				Flags:        keyFlags(),
				ArgsUsage:    "CONTEXT",
				CustomHelpTemplate: fmt.Sprintf(`%s
CONTEXT:
    widget path from root to leaf written as a descendant selector, for example:
        "Window Dialog#confirm Button.primary[role=ok]"
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "explain",
				Usage:        "Shows rules matching a widget context in cascade order",
				OnUsageError: usageErrorHandler,
				Action:       explainContext,
				Flags:        keyFlags(),
				ArgsUsage:    "CONTEXT",
			},
			{
				Name:         "dump",
				Usage:        "Prints merged stylesheet",
				OnUsageError: usageErrorHandler,
				Action:       dumpStylesheet,
				Flags:        keyFlags(),
			},
			{
				Name:         "probe",
				Usage:        "Checks whether any rule targets a widget type or matches a context",
				OnUsageError: usageErrorHandler,
				Action:       probeType,
				Flags: append(keyFlags(),
					&cli.StringFlag{Name: "context", Usage: "also check rules matching `CONTEXT`"},
				),
				ArgsUsage: "TYPE",
			},
			{
				Name:         "sources",
				Usage:        "Lists stylesheet sources",
				OnUsageError: usageErrorHandler,
				Action:       listSources,
				Flags: append(keyFlags(),
					&cli.BoolFlag{Name: "all", Usage: "list every stored source instead of those contributing to a key"},
				),
			},
			{
				Name:         "put",
				Usage:        "Stores stylesheet source",
				OnUsageError: usageErrorHandler,
				Action:       putSource,
				Flags: append(keyFlags(),
					&cli.StringFlag{Name: "kind", Value: "tenant", Usage: "source `KIND` (base, env, scope, tenant)"},
				),
				ArgsUsage: "FILE",
				CustomHelpTemplate: fmt.Sprintf(`%s
FILE:
    CSS file to store, if absent - STDIN
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "export",
				Usage:        "Writes all stored stylesheet sources into a bundle (ZIP)",
				OnUsageError: usageErrorHandler,
				Action:       exportSources,
				ArgsUsage:    "BUNDLE",
			},
			{
				Name:         "import",
				Usage:        "Stores stylesheet sources from a bundle (ZIP)",
				OnUsageError: usageErrorHandler,
				Action:       importSources,
				ArgsUsage:    "BUNDLE",
				CustomHelpTemplate: fmt.Sprintf(`%s
BUNDLE:
    archive with sources named as in the stylesheet directory, for example:
        base.css, scopes/admin.report.css, tenants/acme/_.css
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "watch",
				Usage:        "Watches stylesheet directory and prints merged stylesheet on every change",
				OnUsageError: usageErrorHandler,
				Action:       watchSources,
				Flags:        keyFlags(),
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

Produces file with actual "active" configuration values which is composition of
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
