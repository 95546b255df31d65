package layout

import (
	"go.uber.org/zap"
)

type tableRow struct {
	box   *Box // nil for an anonymous row
	group *Box // innermost row group, if any
	cells []*Box
}

// collectRows builds the row/cell grid of a table. Cells outside a row
// share an anonymous row until the next explicit row; any non-row child is
// treated as a cell. Row groups are flattened and remembered on their rows.
func collectRows(children []*Box, rows []tableRow) []tableRow {
	anon := -1
	for _, c := range children {
		switch c.Style.Display() {
		case "none":
		case "table-row":
			anon = -1
			row := tableRow{box: c}
			for _, cell := range c.Children {
				if cell.Style.Display() != "none" {
					row.cells = append(row.cells, cell)
				}
			}
			rows = append(rows, row)
		case "table-row-group", "table-header-group", "table-footer-group":
			anon = -1
			first := len(rows)
			rows = collectRows(c.Children, rows)
			for i := first; i < len(rows); i++ {
				if rows[i].group == nil {
					rows[i].group = c
				}
			}
		default:
			if anon < 0 {
				rows = append(rows, tableRow{})
				anon = len(rows) - 1
			}
			rows[anon].cells = append(rows[anon].cells, c)
		}
	}
	return rows
}

// table sizes columns to the widest cell and rows to the tallest cell, then
// places cells at the running sums. Placement waits until no cell is
// pending.
func (e *Engine) table(b *Box, inner Size, origin Point) Size {
	rows := collectRows(b.Children, nil)
	b.Lines = b.Lines[:0]

	var cols []float64
	heights := make([]float64, len(rows))
	for r, row := range rows {
		for c, cell := range row.cells {
			sz := e.Layout(cell, Unbounded, origin, Size{Width: inner.Width, Height: inner.Height})
			if cell.Pending {
				b.Pending = true
			}
			if c >= len(cols) {
				cols = append(cols, 0)
			}
			cols[c] = max(cols[c], sz.Width)
			heights[r] = max(heights[r], sz.Height)
		}
	}
	if b.Pending {
		e.log.Debug("Table deferred on pending cell", zap.String("box", b.Name))
		return Size{}
	}

	total := 0.0
	for _, w := range cols {
		total += w
	}
	y := 0.0
	tops := make([]float64, len(rows))
	for r, row := range rows {
		tops[r] = y
		x := 0.0
		for c, cell := range row.cells {
			stretch(cell, cols[c], heights[r])
			cell.shift(origin.X+x-cell.X, origin.Y+y-cell.Y)
			x += cols[c]
		}
		if row.box != nil {
			e.placeRow(row.box, Rect{origin.X, origin.Y + y, total, heights[r]})
		}
		b.Lines = append(b.Lines, Line{Y: y, Width: total, Height: heights[r], Boxes: row.cells})
		y += heights[r]
	}
	for r := 0; r < len(rows); {
		g, end := rows[r].group, r+1
		for end < len(rows) && rows[end].group == g {
			end++
		}
		if g != nil {
			e.placeRow(g, Rect{origin.X, origin.Y + tops[r], total, tops[end-1] + heights[end-1] - tops[r]})
		}
		r = end
	}
	return Size{total, y}
}

// stretch grows the content box of cell so its margin box fills w by h.
func stretch(cell *Box, w, h float64) {
	m := cell.mbp()
	cell.Width = max(cell.Width, w-m.Width)
	cell.Height = max(cell.Height, h-m.Height)
}

// placeRow gives a row or row group the rectangle r without margins,
// borders or padding.
func (e *Engine) placeRow(row *Box, r Rect) {
	row.X, row.Y = r.X, r.Y
	row.Margin, row.Border, row.Padding = Edges{}, Edges{}, Edges{}
	row.Width, row.Height = r.Width, r.Height
	row.Content = Size{r.Width, r.Height}
	row.Pending = false
	row.Lines = row.Lines[:0]
}
