package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"vpui/pkg/config"
)

const appName = "vpui"

// initializeAppContext loads configuration and prepares logging after the
// command line has been parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	env := envFromContext(ctx)

	var err error
	configFile := cmd.String("config")
	if env.Cfg, err = config.Load(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		env.Cfg.Logging.Console.Level = "debug"
	}
	if cmd.Bool("quiet") {
		env.Cfg.Logging.Console.Level = "none"
	}
	if env.Log, err = env.Cfg.Logging.Prepare(); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("runtime", runtime.Version()))
	if configFile == "" {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	env.Log.Debug("Program ended", zap.Duration("elapsed", env.uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	_ = env.Log.Sync()
	return nil
}

var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	if env := envFromContext(ctx); env.Cfg != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            appName,
		Usage:           "styles, lays out and renders HTML/CSS element trees",
		Version:         "0.1.0 (" + runtime.Version() + ")",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log at debug level to the console"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "disable console logging"},
		},
		Commands: []*cli.Command{
			{
				Name:      "render",
				Usage:     "Renders an HTML file to PNG",
				ArgsUsage: "SOURCE [DESTINATION]",
				Action:    renderPage,
				Flags: append(pageFlags(),
					&cli.BoolFlag{Name: "keep-going", Usage: "render even when stylesheets or scripts fail"},
				),
			},
			{
				Name:      "dump",
				Usage:     "Prints the element tree with its layout",
				ArgsUsage: "SOURCE",
				Action:    dumpPage,
				Flags:     pageFlags(),
			},
			{
				Name:      "check",
				Usage:     "Parses stylesheets and reports errors and skipped rules",
				ArgsUsage: "FILE...",
				Action:    checkStylesheets,
			},
			{
				Name:      "compare",
				Usage:     "Compares two renderings pixel by pixel",
				ArgsUsage: "ACTUAL EXPECTED",
				Action:    compareImages,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "tolerance", Value: 2, Usage: "largest per-channel difference counted as equal"},
					&cli.IntFlag{Name: "fuzz", Usage: "match pixels within `RADIUS` of their position"},
					&cli.FloatFlag{Name: "max-percent", Usage: "accept when at most `PERCENT` of pixels differ"},
					&cli.StringFlag{Name: "diff", Usage: "write the difference image to `FILE`"},
				},
			},
			{
				Name:      "dumpconfig",
				Usage:     "Dumps either default or actual configuration (YAML)",
				ArgsUsage: "[DESTINATION]",
				Action:    outputConfiguration,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
			},
		},
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{Name: "width", Aliases: []string{"W"}, Usage: "viewport width, overrides configuration"},
		&cli.FloatFlag{Name: "height", Aliases: []string{"H"}, Usage: "viewport height, overrides configuration"},
		&cli.StringSliceFlag{Name: "script", Aliases: []string{"s"}, Usage: "run `FILE` after the page scripts (repeatable)"},
		&cli.DurationFlag{Name: "timeout", Value: defaultTimeout, Usage: "limit for scripts and image loading"},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	var err error
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = newApp().Run(ctx, os.Args)
}
