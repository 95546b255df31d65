package resource

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"vpui/pkg/config"
	"vpui/pkg/images"
	"vpui/pkg/render"
	"vpui/pkg/script"
	"vpui/pkg/text"
	"vpui/pkg/ui"
)

// Page is a document loaded from markup together with everything needed to
// keep it painted: fonts, an image loader, a painter and a script engine.
type Page struct {
	Doc      *ui.Document
	Painter  *render.Painter
	Images   *images.Loader
	Measurer *text.GGMeasurer
	Script   *script.Engine

	fetcher Fetcher
	scripts []source
	log     *zap.Logger
}

type source struct {
	name string
	text string
}

// Open loads the HTML file at path. Stylesheets linked with
// <link rel="stylesheet"> and external scripts are read relative to the
// file. Scripts are collected but not run; see RunScripts.
func Open(cfg *config.Config, path string, log *zap.Logger) (*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	return New(cfg, data, NewFileFetcher(filepath.Dir(path)), log)
}

// New builds a page from markup. Parse problems in individual stylesheets,
// attributes or linked files are returned together with a usable page.
func New(cfg *config.Config, markup []byte, fetcher Fetcher, log *zap.Logger) (*Page, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	p := &Page{
		Measurer: text.NewGGMeasurer(cfg.Fonts, log),
		fetcher:  fetcher,
		log:      log.Named("page"),
	}
	var opts []images.Option
	opts = append(opts, images.WithWorkers(cfg.Images.Workers))
	if cfg.Images.BaseDir != "" {
		opts = append(opts, images.WithBaseDir(cfg.Images.BaseDir))
	} else if ff, ok := fetcher.(*FileFetcher); ok {
		opts = append(opts, images.WithBaseDir(ff.baseDir))
	}
	p.Images = images.NewLoader(log, opts...)
	p.Painter = render.NewPainter(int(cfg.Viewport.Width), int(cfg.Viewport.Height), p.Measurer, p.Images, log)

	doc, err := ui.NewDocument(
		ui.WithLogger(log),
		ui.WithMeasurer(p.Measurer),
		ui.WithImages(p.Images),
		ui.WithRenderer(p.Painter),
		ui.WithViewport(cfg.Viewport.Width, cfg.Viewport.Height),
		ui.WithMaxRestarts(cfg.Pipeline.MaxRestarts))
	if err != nil {
		_ = p.Images.Close()
		return nil, err
	}
	p.Doc = doc
	p.Script = script.New(doc, log)

	errs := p.scan(markup)
	errs = multierr.Append(errs, ui.BuildHTML(doc, doc.Body(), bytes.NewReader(markup)))
	doc.Update()
	return p, errs
}

// scan loads linked stylesheets and collects scripts in document order.
func (p *Page) scan(markup []byte) error {
	root, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		return fmt.Errorf("parsing markup: %w", err)
	}
	var errs error
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Link:
				if strings.EqualFold(attr(n, "rel"), "stylesheet") && attr(n, "href") != "" {
					errs = multierr.Append(errs, p.linkStylesheet(attr(n, "href")))
				}
			case atom.Script:
				if src := attr(n, "src"); src != "" {
					data, err := p.fetch(src)
					if err != nil {
						errs = multierr.Append(errs, err)
					} else {
						p.scripts = append(p.scripts, source{name: src, text: string(data)})
					}
				} else if n.FirstChild != nil {
					name := fmt.Sprintf("inline-script-%d", len(p.scripts)+1)
					p.scripts = append(p.scripts, source{name: name, text: n.FirstChild.Data})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return errs
}

func (p *Page) linkStylesheet(href string) error {
	data, err := p.fetch(href)
	if err != nil {
		return err
	}
	if err := p.Doc.LoadStylesheet(string(data)); err != nil {
		return fmt.Errorf("stylesheet %s: %w", href, err)
	}
	return nil
}

func (p *Page) fetch(uri string) ([]byte, error) {
	if p.fetcher == nil {
		return nil, fmt.Errorf("no fetcher for %s", uri)
	}
	data, err := p.fetcher.Fetch(uri)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", uri, err)
	}
	return data, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Scripts returns the names of the collected scripts.
func (p *Page) Scripts() []string {
	names := make([]string, len(p.scripts))
	for i, s := range p.scripts {
		names[i] = s.name
	}
	return names
}

// RunScripts runs the page scripts followed by extra files in order and
// updates the document. A failing script is logged and does not stop the
// others; all failures are returned.
func (p *Page) RunScripts(ctx context.Context, extra ...string) error {
	all := append([]source(nil), p.scripts...)
	var errs error
	for _, path := range extra {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reading script: %w", err))
			continue
		}
		all = append(all, source{name: path, text: string(data)})
	}
	for _, s := range all {
		if err := p.Script.RunContext(ctx, s.name, s.text); err != nil {
			p.log.Warn("Script failed", zap.String("name", s.name), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	p.Doc.Update()
	return errs
}

// Settle waits for pending images and updates the document until nothing
// is pending or ctx is done.
func (p *Page) Settle(ctx context.Context) error {
	p.Doc.Update()
	for p.Doc.Pending() {
		done := make(chan struct{})
		go func() {
			p.Images.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		p.Doc.Update()
	}
	return nil
}

// Paint redraws the damaged region and reports whether anything changed.
func (p *Page) Paint() bool { return p.Painter.Paint(p.Doc) }

// Resize changes the viewport and the canvas together.
func (p *Page) Resize(width, height int) {
	p.Painter.Resize(width, height)
	p.Doc.SetViewport(float64(width), float64(height))
	p.Doc.Update()
}

// Close waits for background image loads.
func (p *Page) Close() error { return p.Images.Close() }
