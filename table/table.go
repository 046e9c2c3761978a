package table

import (
	"errors"

	"codeberg.org/go-pdf/fpdf"
)

// ColumnDef defines the properties of a table column.
type ColumnDef struct {
	Width    float64 // Fixed width. 0 means auto/fill.
	MinWidth float64 // Minimum width for auto columns.
	Align    string  // Default alignment for this column ("L", "C", "R").
}

// Table is a line-item table builder bound to one fpdf document.
type Table struct {
	pdf        *fpdf.Fpdf
	columns    []ColumnDef
	rows       []*Row
	style      TableStyle
	x, y       float64 // starting position (0,0 means current)
	tableWidth float64 // total table width (0 means page width minus margins)
	font       FontSpec // font body cells use and rows restore after drawing
}

// ErrNoColumns is returned by Render when neither columns nor rows define
// how many columns the table has.
var ErrNoColumns = errors.New("table: no columns")

// New creates a new Table associated with the given PDF document.
// The table starts with Helvetica at the document's current size; use
// SetFont or a style with CellFont to change it.
func New(pdf *fpdf.Fpdf) *Table {
	size, _ := pdf.GetFontSize()
	return &Table{
		pdf: pdf,
		style: TableStyle{
			CellPadding: UniformPadding(1),
		},
		font: FontSpec{Family: "Helvetica", Size: size},
	}
}

// SetFont sets the font body cells are drawn with. The document font is
// left as this font after Render.
func (t *Table) SetFont(family, style string, size float64) *Table {
	t.font = FontSpec{Family: family, Style: style, Size: size}
	return t
}

// SetColumns sets column definitions for the table.
func (t *Table) SetColumns(cols ...ColumnDef) *Table {
	t.columns = cols
	return t
}

// SetColumnWidths is a convenience method to set column widths directly.
// A width of 0 means the column will auto-fill remaining space.
func (t *Table) SetColumnWidths(widths ...float64) *Table {
	t.columns = make([]ColumnDef, len(widths))
	for i, w := range widths {
		t.columns[i] = ColumnDef{Width: w}
	}
	return t
}

// SetStyle sets the table-wide style.
func (t *Table) SetStyle(s TableStyle) *Table {
	t.style = s
	if s.CellFont != nil {
		t.font = *s.CellFont
	}
	return t
}

// SetPosition sets the starting position for the table.
// If not called, the table starts at the current PDF cursor position.
func (t *Table) SetPosition(x, y float64) *Table {
	t.x = x
	t.y = y
	return t
}

// SetWidth sets the total table width. If not called, uses page width minus margins.
func (t *Table) SetWidth(w float64) *Table {
	t.tableWidth = w
	return t
}

// AddHeaderRow adds a header row. Header rows are drawn first and repeated
// at the top of each new page.
func (t *Table) AddHeaderRow() *Row {
	return t.add(headerRow)
}

// AddRow adds a new body row to the table and returns it for chaining.
func (t *Table) AddRow() *Row {
	return t.add(bodyRow)
}

// AddFooterRow adds a row drawn after all body rows, typically a total.
func (t *Table) AddFooterRow() *Row {
	return t.add(footerRow)
}

func (t *Table) add(kind rowKind) *Row {
	r := &Row{kind: kind}
	t.rows = append(t.rows, r)
	return r
}

// Rows returns the body rows in insertion order.
func (t *Table) Rows() []*Row {
	return t.byKind(bodyRow)
}

func (t *Table) byKind(kind rowKind) []*Row {
	var out []*Row
	for _, r := range t.rows {
		if r.kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// Height returns the height the table would occupy if drawn without page
// breaks, using the document's current font.
func (t *Table) Height() float64 {
	widths := t.calculateWidths()
	h := 0.0
	for _, r := range t.rows {
		h += t.withRowFont(r, func() float64 { return t.calculateRowHeight(r, widths) })
	}
	return h
}

// Render draws the table to the PDF document.
func (t *Table) Render() error {
	if t.pdf.Err() {
		return t.pdf.Error()
	}

	widths := t.calculateWidths()
	if len(widths) == 0 {
		return ErrNoColumns
	}
	t.pdf.SetFont(t.font.Family, t.font.Style, t.font.Size)

	startX := t.x
	if startX == 0 {
		startX = t.pdf.GetX()
	}
	if t.y != 0 {
		t.pdf.SetY(t.y)
	}

	headers := t.byKind(headerRow)
	for _, r := range headers {
		t.renderRow(r, widths, startX)
	}

	_, pageH := t.pdf.GetPageSize()
	_, _, _, bMargin := t.pdf.GetMargins()

	trailing := append(t.byKind(bodyRow), t.byKind(footerRow)...)
	for _, r := range trailing {
		rowH := t.withRowFont(r, func() float64 { return t.calculateRowHeight(r, widths) })
		if t.pdf.GetY()+rowH > pageH-bMargin {
			t.pdf.AddPage()
			for _, hr := range headers {
				t.renderRow(hr, widths, startX)
			}
		}
		t.renderRow(r, widths, startX)
	}

	return t.pdf.Error()
}

// calculateWidths computes final column widths based on definitions and available space.
func (t *Table) calculateWidths() []float64 {
	totalWidth := t.tableWidth
	if totalWidth == 0 {
		pageW, _ := t.pdf.GetPageSize()
		lMargin, _, rMargin, _ := t.pdf.GetMargins()
		totalWidth = pageW - lMargin - rMargin
	}

	numCols := len(t.columns)
	if numCols == 0 {
		for _, r := range t.rows {
			n := 0
			for _, c := range r.cells {
				n += c.colspan
			}
			numCols = max(numCols, n)
		}
		if numCols == 0 {
			return nil
		}
		t.columns = make([]ColumnDef, numCols)
	}

	widths := make([]float64, numCols)
	fixedTotal := 0.0
	autoCount := 0

	for i, col := range t.columns {
		if col.Width > 0 {
			widths[i] = col.Width
			fixedTotal += col.Width
		} else {
			autoCount++
		}
	}

	if autoCount > 0 {
		autoWidth := max(totalWidth-fixedTotal, 0) / float64(autoCount)
		for i, col := range t.columns {
			if col.Width == 0 {
				widths[i] = max(autoWidth, col.MinWidth)
			}
		}
	}

	return widths
}

// calculateRowHeight computes the height needed for a row based on cell
// content. The row's font must already be selected.
func (t *Table) calculateRowHeight(r *Row, widths []float64) float64 {
	_, fontSize := t.pdf.GetFontSize()
	lineH := fontSize * t.lineHeight()
	padding := t.style.CellPadding

	maxH := max(r.minH, lineH+padding.Top+padding.Bottom)

	col := 0
	for _, cell := range r.cells {
		if col >= len(widths) {
			break
		}
		cellW := spanWidth(widths, col, cell.colspan)
		col += cell.colspan

		contentW := max(cellW-padding.Left-padding.Right, 1)
		lines := t.pdf.SplitLines([]byte(cell.text), contentW)
		cellH := float64(max(len(lines), 1))*lineH + padding.Top + padding.Bottom
		maxH = max(maxH, cellH)
	}

	return maxH
}

func (t *Table) lineHeight() float64 {
	if t.style.LineHeight > 0 {
		return t.style.LineHeight
	}
	return 1.4
}

func spanWidth(widths []float64, col, span int) float64 {
	w := 0.0
	for j := 0; j < span && col+j < len(widths); j++ {
		w += widths[col+j]
	}
	return w
}

// withRowFont selects the font a row is drawn with, runs fn, and restores
// the previous font.
func (t *Table) withRowFont(r *Row, fn func() float64) float64 {
	family, style, size := t.currentFont()
	if f := t.rowStyle(r).Font; f != nil {
		t.pdf.SetFont(f.Family, f.Style, f.Size)
	}
	v := fn()
	t.pdf.SetFont(family, style, size)
	return v
}

func (t *Table) currentFont() (family, style string, size float64) {
	return t.font.Family, t.font.Style, t.font.Size
}

// renderRow renders a single row to the PDF.
func (t *Table) renderRow(r *Row, widths []float64, startX float64) {
	rowH := t.withRowFont(r, func() float64 { return t.calculateRowHeight(r, widths) })
	padding := t.style.CellPadding
	family, fontStyle, fontSize := t.currentFont()

	t.pdf.SetX(startX)
	y := t.pdf.GetY()

	if b := t.style.Border; b != nil {
		t.pdf.SetDrawColor(b.Color.R, b.Color.G, b.Color.B)
		if b.Width > 0 {
			t.pdf.SetLineWidth(b.Width)
		}
	}

	col := 0
	x := startX
	for _, cell := range r.cells {
		if col >= len(widths) {
			break
		}
		cellW := spanWidth(widths, col, cell.colspan)

		style := t.rowStyle(r)
		if cell.style != nil {
			mergeStyle(&style, cell.style)
		}

		if style.FillColor != nil {
			t.pdf.SetFillColor(style.FillColor.R, style.FillColor.G, style.FillColor.B)
			t.pdf.Rect(x, y, cellW, rowH, "F")
		}
		if b := t.style.Border; b != nil && !b.Rules {
			t.pdf.Rect(x, y, cellW, rowH, "D")
		}

		if style.TextColor != nil {
			t.pdf.SetTextColor(style.TextColor.R, style.TextColor.G, style.TextColor.B)
		}
		if style.Font != nil {
			t.pdf.SetFont(style.Font.Family, style.Font.Style, style.Font.Size)
		}

		align := "L"
		if style.Align != "" {
			align = style.Align
		} else if col < len(t.columns) && t.columns[col].Align != "" {
			align = t.columns[col].Align
		}

		_, unitSize := t.pdf.GetFontSize()
		contentW := cellW - padding.Left - padding.Right
		t.pdf.SetXY(x+padding.Left, y+padding.Top)
		t.pdf.MultiCell(contentW, unitSize*t.lineHeight(), cell.text, "", align, false)

		t.pdf.SetTextColor(0, 0, 0)
		t.pdf.SetFont(family, fontStyle, fontSize)

		col += cell.colspan
		x += cellW
	}

	if b := t.style.Border; b != nil && b.Rules {
		tableW := spanWidth(widths, 0, len(widths))
		if r.kind == headerRow || r.kind == footerRow {
			t.pdf.Line(startX, y, startX+tableW, y)
		}
		t.pdf.Line(startX, y+rowH, startX+tableW, y+rowH)
	}

	t.pdf.SetDrawColor(0, 0, 0)
	t.pdf.SetFillColor(255, 255, 255)

	t.pdf.SetXY(startX, y+rowH)
}

// rowStyle merges table, header/footer and row-level styles for r.
func (t *Table) rowStyle(r *Row) CellStyle {
	var result CellStyle
	if t.style.CellFont != nil {
		result.Font = t.style.CellFont
	}
	switch {
	case r.kind == headerRow && t.style.HeaderStyle != nil:
		mergeStyle(&result, t.style.HeaderStyle)
	case r.kind == footerRow && t.style.FooterStyle != nil:
		mergeStyle(&result, t.style.FooterStyle)
	}
	if r.style != nil {
		mergeStyle(&result, r.style)
	}
	return result
}

// mergeStyle copies non-nil fields from src to dst.
func mergeStyle(dst, src *CellStyle) {
	if src.FillColor != nil {
		dst.FillColor = src.FillColor
	}
	if src.TextColor != nil {
		dst.TextColor = src.TextColor
	}
	if src.Font != nil {
		dst.Font = src.Font
	}
	if src.Align != "" {
		dst.Align = src.Align
	}
}
