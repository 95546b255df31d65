package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"vpui/pkg/config"
	"vpui/pkg/css"
	"vpui/pkg/render"
	"vpui/pkg/resource"
)

const defaultTimeout = 10 * time.Second

var errNoSource = errors.New("no SOURCE given")

// openPage loads the page named by the first argument, runs its scripts and
// waits for images. Partial failures are returned along with the page.
func openPage(ctx context.Context, cmd *cli.Command) (*resource.Page, error) {
	env := envFromContext(ctx)
	if cmd.NArg() < 1 {
		return nil, errNoSource
	}
	cfg := *env.Cfg
	if w := cmd.Float("width"); w > 0 {
		cfg.Viewport.Width = w
	}
	if h := cmd.Float("height"); h > 0 {
		cfg.Viewport.Height = h
	}

	src := cmd.Args().First()
	page, errs := resource.Open(&cfg, src, env.Log)
	if page == nil {
		return nil, errs
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()
	errs = multierr.Append(errs, page.RunScripts(ctx, cmd.StringSlice("script")...))
	if err := page.Settle(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("waiting for images: %w", err))
	}
	for _, err := range multierr.Errors(errs) {
		env.Log.Warn("Page problem", zap.String("source", src), zap.Error(err))
	}
	return page, errs
}

func renderPage(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	page, err := openPage(ctx, cmd)
	if page == nil {
		return err
	}
	defer page.Close()
	if err != nil && !cmd.Bool("keep-going") {
		return err
	}

	dst := cmd.Args().Get(1)
	if dst == "" {
		src := cmd.Args().First()
		dst = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".png"
	}
	page.Paint()
	if err := page.Painter.SavePNG(dst); err != nil {
		return fmt.Errorf("unable to save image: %w", err)
	}
	stats := page.Doc.Pipeline().Stats()
	env.Log.Info("Rendered",
		zap.String("destination", dst),
		zap.Int("elements", page.Doc.Len()),
		zap.Any("pipeline", stats))
	return nil
}

func dumpPage(ctx context.Context, cmd *cli.Command) error {
	page, err := openPage(ctx, cmd)
	if page == nil {
		return err
	}
	defer page.Close()
	return multierr.Append(err, page.Doc.Dump(cmd.Root().Writer))
}

// checkStylesheets parses each file and reports fatal errors and skipped
// rule sets. Any problem fails the command.
func checkStylesheets(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.NArg() == 0 {
		return errors.New("no FILE given")
	}
	out := cmd.Root().Writer
	var errs error
	for _, name := range cmd.Args().Slice() {
		data, err := os.ReadFile(name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		res, err := css.NewParser(env.Log).Parse(string(data))
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", name, err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		skipped := multierr.Errors(res.Skipped)
		fmt.Fprintf(out, "%s: %d rule sets, %d skipped\n", name, len(res.RuleSets), len(skipped))
		for _, s := range skipped {
			fmt.Fprintf(out, "  %v\n", s)
		}
		if len(skipped) > 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s: %d rule sets skipped", name, len(skipped)))
		}
	}
	return errs
}

var errMismatch = errors.New("images differ")

func compareImages(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.NArg() != 2 {
		return errors.New("need ACTUAL and EXPECTED")
	}
	actual, err := imaging.Open(cmd.Args().Get(0))
	if err != nil {
		return fmt.Errorf("unable to read actual image: %w", err)
	}
	expected, err := imaging.Open(cmd.Args().Get(1))
	if err != nil {
		return fmt.Errorf("unable to read expected image: %w", err)
	}
	res, diff, err := render.Compare(actual, expected, render.CompareOptions{
		Tolerance:           int(cmd.Int("tolerance")),
		FuzzyRadius:         int(cmd.Int("fuzz")),
		MaxDifferentPercent: cmd.Float("max-percent"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "%d of %d pixels differ, max channel difference %d\n",
		res.DifferentPixels, res.TotalPixels, res.MaxDifference)
	if name := cmd.String("diff"); name != "" && !res.Match {
		if err := imaging.Save(diff, name); err != nil {
			return fmt.Errorf("unable to save difference image: %w", err)
		}
		env.Log.Info("Difference image written", zap.String("file", name))
	}
	if !res.Match {
		return errMismatch
	}
	return nil
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)

	var out io.Writer = cmd.Root().Writer
	fname := cmd.Args().Get(0)
	if fname != "" {
		f, err := os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer f.Close()
		out = f
	}

	cfg, state := env.Cfg, "actual"
	if cmd.Bool("default") {
		cfg, state = config.Default(), "default"
	}
	data, err := config.Dump(cfg)
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}
	if fname == "" {
		fname = "STDOUT"
	}
	env.Log.Debug("Outputting configuration", zap.String("state", state), zap.String("file", fname))
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
