// Package table draws line-item tables onto an fpdf page: a header row,
// body rows that break across pages with the header repeated, and footer
// rows for totals.
package table

// RGBColor represents an RGB color value.
type RGBColor struct {
	R, G, B int
}

// FontSpec defines font properties for text rendering.
type FontSpec struct {
	Family string
	Style  string  // "", "B", "I", "BI"
	Size   float64 // in points
}

// Padding defines spacing inside a cell.
type Padding struct {
	Top, Right, Bottom, Left float64
}

// UniformPadding creates a Padding with the same value on all sides.
func UniformPadding(v float64) Padding {
	return Padding{Top: v, Right: v, Bottom: v, Left: v}
}

// BorderStyle defines the appearance of cell borders. A nil *BorderStyle on
// TableStyle draws no borders at all.
type BorderStyle struct {
	Width float64
	Color RGBColor
	Rules bool // horizontal rules between rows only, no vertical lines
}

// CellStyle defines the visual appearance of a cell.
type CellStyle struct {
	FillColor *RGBColor
	TextColor *RGBColor
	Font      *FontSpec
	Align     string // "L", "C", "R"
}

// TableStyle defines the overall appearance of a table.
type TableStyle struct {
	Border      *BorderStyle
	HeaderStyle *CellStyle
	FooterStyle *CellStyle
	CellPadding Padding
	CellFont    *FontSpec
	LineHeight  float64 // multiple of the font size per text line (default 1.4)
}

// ReceiptStyle is the plain ruled look used on receipts: bold header with a
// light fill, hairline rules between rows and a bold footer.
func ReceiptStyle(family string, size float64) TableStyle {
	return TableStyle{
		Border:      &BorderStyle{Width: 0.2, Color: RGBColor{R: 120, G: 120, B: 120}, Rules: true},
		HeaderStyle: &CellStyle{FillColor: &RGBColor{R: 240, G: 240, B: 240}, Font: &FontSpec{Family: family, Style: "B", Size: size}},
		FooterStyle: &CellStyle{Font: &FontSpec{Family: family, Style: "B", Size: size}},
		CellPadding: UniformPadding(1.5),
		CellFont:    &FontSpec{Family: family, Size: size},
	}
}
