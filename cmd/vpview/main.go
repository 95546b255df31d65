package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"vpui/pkg/config"
	"vpui/pkg/resource"
)

// viewer shows a page and repaints it as scripts and images change it.
type viewer struct {
	path   string
	cfg    *config.Config
	log    *zap.Logger
	page   *resource.Page
	img    *canvas.Image
	status *widget.Label
}

func (v *viewer) load() {
	if v.page != nil {
		_ = v.page.Close()
	}
	page, err := resource.Open(v.cfg, v.path, v.log)
	if page == nil {
		v.status.SetText("Error: " + err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = multierr.Append(err, page.RunScripts(ctx))
	v.page = page
	v.img.Image = page.Painter.Image()
	v.repaint()
	if err != nil {
		v.status.SetText(fmt.Sprintf("Loaded with %d problem(s): %v", len(multierr.Errors(err)), err))
		return
	}
	v.status.SetText(fmt.Sprintf("%s: %d elements", filepath.Base(v.path), page.Doc.Len()))
}

func (v *viewer) repaint() {
	v.page.Doc.Update()
	if v.page.Paint() {
		v.img.Refresh()
	}
}

func (v *viewer) run(src string) {
	if v.page == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := v.page.Script.RunContext(ctx, "console", src); err != nil {
		v.status.SetText("Script error: " + err.Error())
	} else {
		v.status.SetText("OK")
	}
	v.repaint()
}

func main() {
	configFile := flag.String("config", "", "load configuration from `FILE` (YAML)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vpview [flags] <page.html>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := cfg.Logging.Prepare()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing logs: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	a := app.New()
	w := a.NewWindow("vpview")
	w.Resize(fyne.NewSize(float32(cfg.Viewport.Width), float32(cfg.Viewport.Height)+80))

	v := &viewer{
		path:   flag.Arg(0),
		cfg:    cfg,
		log:    log,
		status: widget.NewLabel(""),
	}
	v.img = canvas.NewImageFromImage(nil)
	v.img.FillMode = canvas.ImageFillOriginal
	v.load()

	// A line of JavaScript run against the page, e.g.
	// document.body.classList.toggle("dark")
	entry := widget.NewEntry()
	entry.SetPlaceHolder(`document.getElementById("x").textContent = "hi"`)
	entry.OnSubmitted = v.run
	reload := widget.NewButton("Reload", v.load)

	top := container.NewBorder(nil, nil, nil, reload, entry)
	w.SetContent(container.NewBorder(top, v.status, nil, nil, container.NewScroll(v.img)))
	w.Canvas().Focus(entry)

	// Images decode in the background; pick them up as they arrive.
	stop := make(chan struct{})
	go func() {
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				fyne.Do(func() {
					if v.page != nil && v.page.Doc.Pending() {
						v.repaint()
					}
				})
			case <-stop:
				return
			}
		}
	}()

	w.ShowAndRun()
	close(stop)
	if v.page != nil {
		_ = v.page.Close()
	}
}
