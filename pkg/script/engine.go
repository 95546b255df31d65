package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"vpui/pkg/ui"
)

// ErrInterrupted is returned when a script was stopped by its context.
var ErrInterrupted = errors.New("script: interrupted")

// Engine runs JavaScript that mutates a ui.Document through a small DOM
// binding. It is not safe for concurrent use.
type Engine struct {
	vm  *goja.Runtime
	doc *ui.Document
	log *zap.Logger
	dom *domContext
}

// New creates an engine with "document" and "console" bound to doc.
func New(doc *ui.Document, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{vm: goja.New(), doc: doc, log: log.Named("script")}
	registerConsole(e.vm, e.log)
	e.dom = registerDocument(e.vm, doc)
	return e
}

// Run executes src. Mutations are applied to the document but not cleaned;
// call Document.Update afterwards, or document.update() from the script.
func (e *Engine) Run(name, src string) error {
	return e.RunContext(context.Background(), name, src)
}

// RunContext executes src and interrupts it when ctx is done.
func (e *Engine) RunContext(ctx context.Context, name, src string) error {
	stop := context.AfterFunc(ctx, func() { e.vm.Interrupt(ErrInterrupted) })
	defer func() {
		stop()
		e.vm.ClearInterrupt()
	}()

	_, err := e.vm.RunScript(name, src)
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("%s: %w", name, ErrInterrupted)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Set binds a Go value to a global name.
func (e *Engine) Set(name string, v any) error { return e.vm.Set(name, v) }
