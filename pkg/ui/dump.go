package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/xlab/treeprint"
)

// Dump writes the element tree with selectors and border boxes, one node per
// line. Generated text runs are shown quoted.
func (d *Document) Dump(w io.Writer) error {
	body := d.Body()
	tree := treeprint.NewWithRoot(describe(body))
	d.dumpChildren(tree, body)
	_, err := io.WriteString(w, tree.String())
	return err
}

func (d *Document) dumpChildren(tree treeprint.Tree, e *Element) {
	for _, id := range e.all {
		c := d.nodes[id]
		if len(c.all) == 0 {
			tree.AddNode(describe(c))
			continue
		}
		d.dumpChildren(tree.AddBranch(describe(c)), c)
	}
}

func describe(e *Element) string {
	var b strings.Builder
	switch e.kind {
	case kindRun:
		fmt.Fprintf(&b, "%q", e.text)
	case kindPseudo:
		b.WriteString("::" + e.pseudo)
	default:
		b.WriteString(e.part().String())
	}
	g := e.box.Geometry().Border
	fmt.Fprintf(&b, " [%g,%g %gx%g]", g.X, g.Y, g.Width, g.Height)
	if e.IsDirty() {
		b.WriteString(" dirty")
	}
	return b.String()
}
