package ui

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BuildHTML parses a markup fragment and appends the resulting elements to
// parent. <style> contents are loaded into the document stylesheet; scripts
// and comments are skipped. Whitespace-only text between elements is
// dropped. Errors from individual attributes or stylesheets are collected
// and returned together; the elements are still built.
func BuildHTML(doc *Document, parent *Element, r io.Reader) error {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, ctx)
	if err != nil {
		return fmt.Errorf("parsing markup: %w", err)
	}
	b := &builder{doc: doc}
	for _, n := range nodes {
		b.build(parent, n)
	}
	return b.errs
}

type builder struct {
	doc  *Document
	errs error
}

func (b *builder) build(parent *Element, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			return
		}
		b.append(parent, b.doc.CreateText(n.Data))
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.Script:
		return
	case atom.Style:
		var css strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			css.WriteString(c.Data)
		}
		if err := b.doc.LoadStylesheet(css.String()); err != nil {
			b.errs = multierr.Append(b.errs, fmt.Errorf("<style>: %w", err))
		}
		return
	}

	e := b.doc.CreateElement(n.Data)
	for _, a := range n.Attr {
		switch a.Key {
		case "id":
			e.SetID(a.Val)
		case "class":
			for _, c := range strings.Fields(a.Val) {
				e.AddClass(c)
			}
		case "style":
			if err := e.SetStyle(a.Val); err != nil {
				b.errs = multierr.Append(b.errs, fmt.Errorf("<%s style>: %w", n.Data, err))
			}
		case "src":
			e.SetImage(a.Val)
			e.SetAttribute(a.Key, a.Val)
		default:
			e.SetAttribute(a.Key, a.Val)
		}
	}
	b.append(parent, e)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.build(e, c)
	}
}

func (b *builder) append(parent, e *Element) {
	if err := parent.AppendChild(e); err != nil {
		b.errs = multierr.Append(b.errs, err)
	}
}
