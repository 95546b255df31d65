package layout

import (
	"math"

	"vpui/pkg/style"
	"vpui/pkg/text"
)

// isInline reports whether a box joins the line flow of its siblings.
func isInline(st *style.Computed) bool {
	switch st.Display() {
	case "inline", "inline-block", "table-cell":
		return true
	}
	return false
}

// GroupBlocks splits children into blocks: a run of consecutive inline or
// table-cell children forms one wrappable block, every other child gets a
// block of its own. Children with display none are left out.
func GroupBlocks(children []*Box) []Block {
	var blocks []Block
	for _, c := range children {
		if c.Style.Display() == "none" {
			continue
		}
		if !isInline(c.Style) {
			blocks = append(blocks, Block{Boxes: []*Box{c}})
			continue
		}
		if n := len(blocks); n > 0 && blocks[n-1].Inline {
			blocks[n-1].Boxes = append(blocks[n-1].Boxes, c)
			continue
		}
		blocks = append(blocks, Block{Inline: true, Boxes: []*Box{c}})
	}
	return blocks
}

// flow places the children of b line by line and returns the content
// extent.
func (e *Engine) flow(b *Box, avail, inner Size, origin Point) Size {
	blocks := b.Blocks
	if blocks == nil {
		blocks = GroupBlocks(b.Children)
	}
	wraps := text.Wraps(b.Style.WhiteSpace())
	b.Lines = b.Lines[:0]

	var extent Size
	y := 0.0
	for _, blk := range blocks {
		if !blk.Inline {
			child := blk.Boxes[0]
			remaining := math.Inf(1)
			if finite(avail.Height) {
				remaining = max(0, avail.Height-y)
			}
			sz := e.Layout(child, Size{avail.Width, remaining}, Point{origin.X, origin.Y + y}, inner)
			b.Pending = b.Pending || child.Pending
			b.Lines = append(b.Lines, Line{Y: y, Width: sz.Width, Height: sz.Height, Boxes: []*Box{child}})
			extent.Width = max(extent.Width, sz.Width)
			y += sz.Height
			continue
		}

		line := Line{Y: y, Inline: true}
		closeLine := func(last bool) {
			line.Last = last
			b.Lines = append(b.Lines, line)
			extent.Width = max(extent.Width, line.Width)
			y += line.Height
			line = Line{Y: y, Inline: true}
		}
		for _, child := range blk.Boxes {
			sz := e.Layout(child, Size{avail.Width, math.Inf(1)}, Point{origin.X, origin.Y + y}, inner)
			b.Pending = b.Pending || child.Pending
			gap := 0.0
			if n := len(line.Boxes); n > 0 && (child.Space || line.Boxes[n-1].SpaceAfter) {
				gap = e.spaceWidth(child)
			}
			// At least one box per line, so a narrow line never loops.
			if len(line.Boxes) > 0 {
				switch {
				case child.Newline:
					closeLine(true)
					gap = 0
				case wraps && line.Width+gap+sz.Width > avail.Width:
					closeLine(false)
					b.wrapped = true
					gap = 0
				}
			}
			x := line.Width + gap
			child.shift(origin.X+x-child.X, origin.Y+line.Y-child.Y)
			line.Boxes = append(line.Boxes, child)
			line.Width = x + sz.Width
			line.Height = max(line.Height, sz.Height)
		}
		if len(line.Boxes) > 0 {
			closeLine(true)
		}
	}
	extent.Height = y
	return extent
}

// align shifts the boxes of every inline line of b according to
// text-align, using text-align-last on final lines. Justified lines spread
// the free space over the gaps between their boxes.
func (e *Engine) align(b *Box) {
	width := b.Width
	if !finite(width) {
		return
	}
	textAlign := b.Style.TextAlign()
	alignLast := b.Style.TextAlignLast()
	for i := range b.Lines {
		line := &b.Lines[i]
		if !line.Inline {
			continue
		}
		mode := textAlign
		if line.Last {
			switch {
			case alignLast != "auto":
				mode = alignLast
			case mode == "justify":
				mode = "left"
			}
		}
		free := width - line.Width
		if free <= 0 {
			continue
		}
		switch mode {
		case "right", "end":
			line.X = free
			shiftAll(line.Boxes, free)
		case "center":
			line.X = free / 2
			shiftAll(line.Boxes, free/2)
		case "justify":
			n := len(line.Boxes)
			if n < 2 {
				continue
			}
			for j, c := range line.Boxes {
				c.shift(free*float64(j)/float64(n-1), 0)
			}
			line.Width = width
		}
	}
}

func shiftAll(boxes []*Box, dx float64) {
	for _, c := range boxes {
		c.shift(dx, 0)
	}
}
