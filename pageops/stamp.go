package pageops

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
)

// TextWatermark defines a text-based watermark.
type TextWatermark struct {
	Text     string   // watermark text, e.g. "DUPLICATE"
	FontSize float64  // font size in points (default: 60)
	Color    RGBColor // text color (default: light gray)
	Opacity  float64  // 0.0 to 1.0 (default: 0.3)
	Angle    float64  // rotation angle in degrees (default: 45)
	Pages    []int    // 1-based pages to mark; nil means all
}

// RGBColor represents an RGB color value.
type RGBColor struct {
	R, G, B int
}

// PageNumberStyle defines the appearance and position of page numbers.
type PageNumberStyle struct {
	Format   string   // fmt format string, receives pageNum and totalPages (default: "Page %d of %d")
	Position Position // where to place the number (default: BottomCenter)
	FontSize float64  // font size in points (default: 10)
	Color    RGBColor // text color (default: black)
	Margin   float64  // margin from page edge in points (default: 30)
}

// NumberPages returns a copy of src with a page number drawn on every page.
//
// Pages are imported as form templates and redrawn, so unlike Merge the
// output page content is not byte-for-byte that of src.
func NumberPages(src []byte, style PageNumberStyle) ([]byte, error) {
	if style.Format == "" {
		style.Format = "Page %d of %d"
	}
	if style.FontSize == 0 {
		style.FontSize = 10
	}
	if style.Margin == 0 {
		style.Margin = 30
	}

	return overlay(src, "page numbers", func(pdf *fpdf.Fpdf, page, total int, pw, ph float64) {
		text := fmt.Sprintf(style.Format, page, total)
		pdf.SetFont("Helvetica", "", style.FontSize)
		pdf.SetTextColor(style.Color.R, style.Color.G, style.Color.B)

		x, y := calculatePosition(style.Position, pw, ph, pdf.GetStringWidth(text), style.FontSize, style.Margin)
		pdf.Text(x, y, text)
	})
}

// Watermark returns a copy of src with wm drawn diagonally across the
// selected pages.
func Watermark(src []byte, wm TextWatermark) ([]byte, error) {
	if wm.Text == "" {
		return nil, fmt.Errorf("pageops: watermark: empty text")
	}
	if wm.FontSize == 0 {
		wm.FontSize = 60
	}
	if wm.Opacity == 0 {
		wm.Opacity = 0.3
	}
	if wm.Angle == 0 {
		wm.Angle = 45
	}
	if wm.Color == (RGBColor{}) {
		wm.Color = RGBColor{200, 200, 200}
	}

	marked := make(map[int]bool, len(wm.Pages))
	for _, p := range wm.Pages {
		marked[p] = true
	}

	return overlay(src, "watermark", func(pdf *fpdf.Fpdf, page, _ int, pw, ph float64) {
		if len(marked) > 0 && !marked[page] {
			return
		}
		drawTextWatermark(pdf, wm, pw, ph)
	})
}

// drawTextWatermark renders the watermark text centered on the current page.
func drawTextWatermark(pdf *fpdf.Fpdf, wm TextWatermark, pageW, pageH float64) {
	pdf.SetFont("Helvetica", "B", wm.FontSize)
	pdf.SetTextColor(wm.Color.R, wm.Color.G, wm.Color.B)
	pdf.SetAlpha(wm.Opacity, "Normal")

	textW := pdf.GetStringWidth(wm.Text)
	cx := pageW / 2
	cy := pageH / 2

	pdf.TransformBegin()
	pdf.TransformRotate(wm.Angle, cx, cy)
	pdf.Text(cx-textW/2, cy+wm.FontSize/3, wm.Text)
	pdf.TransformEnd()

	pdf.SetAlpha(1.0, "Normal")
}

type drawFunc func(pdf *fpdf.Fpdf, page, total int, pw, ph float64)

// overlay imports every page of src, lets draw add to it and serializes the
// result. src is validated with pdfcpu first because the importer panics on
// input it cannot parse.
func overlay(src []byte, op string, draw drawFunc) (out []byte, err error) {
	info, err := Inspect(src)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("pageops: %s: importing pages: %v", op, r)
		}
	}()

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(src))

	for _, page := range info.Pages {
		pw, ph := page.Width, page.Height
		if pw == 0 || ph == 0 {
			pw, ph = defaultPageWidth, defaultPageHeight
		}

		tplID := imp.ImportPageFromStream(pdf, &rs, page.Number, "/MediaBox")
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: pw, Ht: ph})
		imp.UseImportedTemplate(pdf, tplID, 0, 0, pw, ph)

		draw(pdf, page.Number, info.PageCount, pw, ph)
	}

	if pdf.Err() {
		return nil, fmt.Errorf("pageops: %s: %w", op, pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pageops: %s: %w", op, err)
	}
	return buf.Bytes(), nil
}
