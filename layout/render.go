package layout

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"github.com/lvillar/drivepay/table"
)

// Page pairs a layout with the data it is rendered against.
type Page struct {
	Layout *Layout
	Data   Data
}

// Option configures rendering.
type Option func(*renderConfig)

type renderConfig struct {
	family   string
	size     float64
	margin   float64
	border   bool
	footer   string
	title    string
	author   string
	imageBox [2]float64
}

func defaultConfig() renderConfig {
	return renderConfig{
		family:   "Times",
		size:     12,
		margin:   20,
		border:   true,
		imageBox: [2]float64{48, 28},
	}
}

// WithFont sets the base font family and size in points.
func WithFont(family string, size float64) Option {
	return func(c *renderConfig) {
		if family != "" {
			c.family = family
		}
		if size > 0 {
			c.size = size
		}
	}
}

// WithoutBorder omits the double frame drawn around each page.
func WithoutBorder() Option {
	return func(c *renderConfig) { c.border = false }
}

// WithFooter prints text centered at the bottom of every page.
func WithFooter(text string) Option {
	return func(c *renderConfig) { c.footer = text }
}

// WithMetadata sets the document title and author.
func WithMetadata(title, author string) Option {
	return func(c *renderConfig) {
		c.title = title
		c.author = author
	}
}

// Render draws l against data onto a single A4 page and writes the PDF to w.
func Render(w io.Writer, l *Layout, data Data, opts ...Option) error {
	return RenderPages(w, []Page{{Layout: l, Data: data}}, opts...)
}

// RenderPages draws each page's layout on its own A4 page of one document.
func RenderPages(w io.Writer, pages []Page, opts ...Option) error {
	b, err := RenderBytes(pages, opts...)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// RenderBytes is RenderPages returning the document bytes.
func RenderBytes(pages []Page, opts ...Option) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("layout: nothing to render")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	for i, p := range pages {
		if err := Validate(p.Layout); err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(cfg.margin, cfg.margin, cfg.margin)
	pdf.SetAutoPageBreak(true, cfg.margin)
	pdf.SetCreator("drivepay", true)
	if cfg.title != "" {
		pdf.SetTitle(cfg.title, true)
	}
	if cfg.author != "" {
		pdf.SetAuthor(cfg.author, true)
	}
	if cfg.border || cfg.footer != "" {
		pdf.SetHeaderFunc(func() { decoratePage(pdf, cfg) })
	}

	r := &renderer{pdf: pdf, cfg: cfg, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	for i, p := range pages {
		r.data = p.Data
		if r.data == nil {
			r.data = Map{}
		}
		pdf.AddPage()
		if err := r.renderLayout(p.Layout); err != nil {
			return nil, fmt.Errorf("layout: page %d: %w", i+1, err)
		}
	}

	if pdf.Err() {
		return nil, fmt.Errorf("layout: %w", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return buf.Bytes(), nil
}

// decoratePage draws the double frame and footer. It runs as the header
// callback so it sits under the page content.
func decoratePage(pdf *fpdf.Fpdf, cfg renderConfig) {
	pageW, pageH := pdf.GetPageSize()
	x, y := pdf.GetXY()
	if cfg.border {
		pdf.SetDrawColor(200, 200, 200)
		pdf.SetLineWidth(0.8)
		pdf.Rect(8, 8, pageW-16, pageH-16, "D")
		pdf.SetLineWidth(0.3)
		pdf.Rect(10, 10, pageW-20, pageH-20, "D")
		pdf.SetDrawColor(0, 0, 0)
		pdf.SetLineWidth(0.2)
	}
	if cfg.footer != "" {
		pdf.SetFont("Helvetica", "", 7)
		pdf.SetTextColor(150, 150, 150)
		tw := pdf.GetStringWidth(cfg.footer)
		pdf.Text((pageW-tw)/2, pageH-13, cfg.footer)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.SetXY(x, y)
}

type renderer struct {
	pdf    *fpdf.Fpdf
	cfg    renderConfig
	data   Data
	images int
	tr     func(string) string // UTF-8 to the core fonts' cp1252
}

const ptToMM = 25.4 / 72

func (r *renderer) lineH() float64 {
	return r.cfg.size * ptToMM * 1.5
}

func (r *renderer) contentBox() (left, width float64) {
	pageW, _ := r.pdf.GetPageSize()
	lm, _, rm, _ := r.pdf.GetMargins()
	return lm, pageW - lm - rm
}

func (r *renderer) renderLayout(l *Layout) error {
	for si, s := range l.Sections {
		if err := r.renderSection(s); err != nil {
			return fmt.Errorf("section %d (%s): %w", si+1, sectionName(s), err)
		}
		if r.pdf.Err() {
			return r.pdf.Error()
		}
	}
	return nil
}

func (r *renderer) renderSection(s Section) error {
	if s.Title != "" {
		r.renderTitle(s.Title)
	}

	left, width := r.contentBox()
	switch s.LayoutHint {
	case HintTwoColumns:
		return r.renderRow(s.Elements, left, width, r.pdf.GetY())
	case HintBottomAuth:
		_, pageH := r.pdf.GetPageSize()
		_, _, _, bm := r.pdf.GetMargins()
		h := 0.0
		for _, e := range s.Elements {
			h = max(h, r.elementHeight(e, width/float64(max(len(s.Elements), 1))))
		}
		y := max(r.pdf.GetY(), pageH-bm-h-4)
		return r.renderRow(s.Elements, left, width, y)
	default:
		for ei, e := range s.Elements {
			align := e.Alignment
			if s.LayoutHint == HintRightAlign {
				align = "right"
			}
			end, err := r.renderElement(e, left, r.pdf.GetY(), width, align)
			if err != nil {
				return fmt.Errorf("element %d: %w", ei+1, err)
			}
			r.pdf.SetXY(left, end+r.lineH()*0.6)
		}
		r.pdf.Ln(r.lineH() * 0.6)
		return nil
	}
}

// renderRow spreads elements across the row in equal columns. The first
// column hugs the left edge and the last the right edge.
func (r *renderer) renderRow(elements []Element, left, width, y float64) error {
	if len(elements) == 0 {
		return nil
	}
	colW := width / float64(len(elements))
	bottom := y
	for i, e := range elements {
		align := e.Alignment
		if align == "" {
			switch {
			case len(elements) == 1:
				align = "left"
			case i == 0:
				align = "left"
			case i == len(elements)-1:
				align = "right"
			default:
				align = "center"
			}
		}
		end, err := r.renderElement(e, left+float64(i)*colW, y, colW, align)
		if err != nil {
			return fmt.Errorf("element %d: %w", i+1, err)
		}
		bottom = max(bottom, end)
	}
	r.pdf.SetXY(left, bottom+r.lineH())
	return nil
}

func (r *renderer) renderTitle(title string) {
	left, width := r.contentBox()
	size := r.cfg.size * 1.8
	r.pdf.SetFont(r.cfg.family, "B", size)
	text := r.tr(strings.ToUpper(title))
	tw := r.pdf.GetStringWidth(text)

	r.pdf.Ln(r.lineH() * 0.5)
	y := r.pdf.GetY()
	_, unit := r.pdf.GetFontSize()
	r.pdf.SetXY(left, y)
	r.pdf.CellFormat(width, unit*1.4, text, "", 1, "C", false, 0, "")

	ruleY := y + unit*1.4 + 1.5
	ruleW := tw + 16
	r.pdf.SetLineWidth(0.6)
	r.pdf.Line(left+(width-ruleW)/2, ruleY, left+(width+ruleW)/2, ruleY)
	r.pdf.SetLineWidth(0.2)

	r.pdf.SetXY(left, ruleY+r.lineH()*1.5)
	r.pdf.SetFont(r.cfg.family, "", r.cfg.size)
}

// renderElement draws e inside the column [x, x+w) starting at y and
// returns the y coordinate of its bottom edge.
func (r *renderer) renderElement(e Element, x, y, w float64, align string) (float64, error) {
	r.pdf.SetFont(r.cfg.family, "", r.cfg.size)
	switch e.Type {
	case TypeText, TypeAmount, TypeDate:
		return r.renderField(e, x, y, w, align), nil
	case TypeParagraph:
		return r.renderParagraph(e, x, y, w), nil
	case TypeImage:
		return r.renderImage(e, x, y, w, align)
	case TypeTable:
		return r.renderTable(e, x, y, w)
	case TypeBarcode:
		return r.renderBarcode(e, x, y, w, align)
	default:
		return y, fmt.Errorf("unknown element type %q", e.Type)
	}
}

func (r *renderer) elementHeight(e Element, w float64) float64 {
	switch e.Type {
	case TypeImage:
		return r.cfg.imageBox[1] + r.lineH()*2
	case TypeBarcode:
		_, h := BarcodeSize(e.Symbology)
		return h + r.lineH()
	default:
		return r.lineH() * 1.5
	}
}

// fieldValue returns the display value for a bound field.
func (r *renderer) fieldValue(e Element) string {
	v, ok := r.data.Lookup(e.Key)
	if !ok {
		return ""
	}
	return FormatValue(v, e.Type)
}

func alignedX(x, w, contentW float64, align string) float64 {
	switch align {
	case "right":
		return x + w - contentW
	case "center":
		return x + (w-contentW)/2
	default:
		return x
	}
}

func (r *renderer) renderField(e Element, x, y, w float64, align string) float64 {
	label := ""
	if e.Label != "" {
		label = r.tr(e.Label + ":")
	}
	value := r.tr(r.fieldValue(e))
	lineH := r.lineH() * 1.5

	r.pdf.SetFont(r.cfg.family, "B", r.cfg.size+1)
	labelW := r.pdf.GetStringWidth(label)
	if label != "" {
		labelW += 2
	}

	valueStyle := ""
	if e.Emphasize {
		valueStyle = "B"
	}
	r.pdf.SetFont(r.cfg.family, valueStyle, r.cfg.size+1)
	valueW := max(r.pdf.GetStringWidth(value)+4, 35)
	valueW = min(valueW, max(w-labelW, 10))

	startX := alignedX(x, w, labelW+valueW, align)
	baseline := y + lineH*0.7

	if label != "" {
		r.pdf.SetFont(r.cfg.family, "B", r.cfg.size+1)
		r.pdf.Text(startX, baseline, label)
	}

	vx := startX + labelW
	r.pdf.SetFont(r.cfg.family, valueStyle, r.cfg.size+1)
	r.pdf.Text(vx+2, baseline, value)

	ruleY := baseline + 1.2
	if e.Emphasize {
		r.pdf.SetLineWidth(0.5)
		r.pdf.Line(vx, ruleY, vx+valueW, ruleY)
	} else {
		r.pdf.SetDrawColor(150, 150, 150)
		r.pdf.SetDashPattern([]float64{0.4, 0.8}, 0)
		r.pdf.Line(vx, ruleY, vx+valueW, ruleY)
		r.pdf.SetDashPattern([]float64{}, 0)
		r.pdf.SetDrawColor(0, 0, 0)
	}
	r.pdf.SetLineWidth(0.2)
	r.pdf.SetFont(r.cfg.family, "", r.cfg.size)
	return y + lineH
}

// renderParagraph draws justified text with an indented first line.
func (r *renderer) renderParagraph(e Element, x, y, w float64) float64 {
	text := r.tr(strings.Join(strings.Fields(Expand(e.Content, r.data)), " "))
	lineH := r.lineH() * 1.3
	indent := 12.0

	r.pdf.SetFont(r.cfg.family, "", r.cfg.size+1)
	words := strings.Fields(text)
	space := r.pdf.GetStringWidth(" ")

	// Fill the indented first line.
	n, used := 0, 0.0
	for n < len(words) {
		ww := r.pdf.GetStringWidth(words[n])
		next := used + ww
		if n > 0 {
			next += space
		}
		if next > w-indent && n > 0 {
			break
		}
		used = next
		n++
	}

	baseline := y + lineH*0.7
	first, rest := words[:n], words[n:]
	gap := space
	if len(rest) > 0 && len(first) > 1 {
		gap = space + (w-indent-used)/float64(len(first)-1)
	}
	cx := x + indent
	for _, word := range first {
		r.pdf.Text(cx, baseline, word)
		cx += r.pdf.GetStringWidth(word) + gap
	}

	end := y + lineH
	if len(rest) > 0 {
		r.pdf.SetXY(x, end)
		r.pdf.MultiCell(w, lineH, strings.Join(rest, " "), "", "J", false)
		end = r.pdf.GetY()
	}
	r.pdf.SetFont(r.cfg.family, "", r.cfg.size)
	return end + lineH*0.4
}

func (r *renderer) renderImage(e Element, x, y, w float64, align string) (float64, error) {
	boxW, boxH := r.cfg.imageBox[0], r.cfg.imageBox[1]
	boxW = min(boxW, w)
	bx := alignedX(x, w, boxW, align)

	var img *Image
	if v, ok := r.data.Lookup(e.Key); ok {
		if s := FormatValue(v, ""); s != "" {
			var err error
			img, err = DecodeDataURI(s)
			if err != nil {
				return y, fmt.Errorf("image %q: %w", e.Key, err)
			}
		}
	}

	label := r.tr(strings.ToUpper(e.Label))
	if img == nil {
		// Placeholder box for a stamp or signature to be added by hand.
		r.pdf.Line(bx, y, bx+boxW, y)
		phW, phH := boxW*0.85, boxH*0.7
		phX := bx + (boxW-phW)/2
		r.pdf.SetDrawColor(190, 190, 190)
		r.pdf.SetDashPattern([]float64{1, 1}, 0)
		r.pdf.Rect(phX, y+2, phW, phH, "D")
		r.pdf.SetDashPattern([]float64{}, 0)
		r.pdf.SetDrawColor(0, 0, 0)

		r.pdf.SetFont("Helvetica", "", 7)
		r.pdf.SetTextColor(150, 150, 150)
		ph := r.tr(strings.TrimSpace(e.Label + " Space"))
		r.pdf.Text(phX+(phW-r.pdf.GetStringWidth(ph))/2, y+2+phH/2+1, ph)
		r.pdf.SetTextColor(0, 0, 0)

		labelY := y + 2 + phH + r.lineH()
		r.drawLabel(label, bx, boxW, labelY)
		return labelY + 1, nil
	}

	r.images++
	name := fmt.Sprintf("%s-%d", e.Key, r.images)
	info := r.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: img.Type}, bytes.NewReader(img.Data))
	if r.pdf.Err() || info == nil {
		return y, fmt.Errorf("image %q: %w", e.Key, r.pdf.Error())
	}

	iw, ih := fit(info.Width(), info.Height(), boxW, boxH)
	r.pdf.ImageOptions(name, bx+(boxW-iw)/2, y+(boxH-ih), iw, ih, false,
		fpdf.ImageOptions{ImageType: img.Type}, 0, "")

	ruleY := y + boxH + 2
	r.pdf.Line(bx, ruleY, bx+boxW, ruleY)
	labelY := ruleY + r.lineH()
	r.drawLabel(label, bx, boxW, labelY)
	return labelY + 1, nil
}

func (r *renderer) drawLabel(label string, x, w, baseline float64) {
	if label == "" {
		return
	}
	r.pdf.SetFont(r.cfg.family, "B", r.cfg.size-1)
	r.pdf.Text(x+(w-r.pdf.GetStringWidth(label))/2, baseline, label)
	r.pdf.SetFont(r.cfg.family, "", r.cfg.size)
}

// fit scales w x h to fit inside boxW x boxH keeping the aspect ratio.
func fit(w, h, boxW, boxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return boxW, boxH
	}
	scale := min(boxW/w, boxH/h)
	return w * scale, h * scale
}

func (r *renderer) renderTable(e Element, x, y, w float64) (float64, error) {
	key := e.Key
	if key == "" {
		key = "salaryBreakdown"
	}
	v, _ := r.data.Lookup(key)
	items, ok := lineItems(v, e.KeyMapping)
	if !ok && v != nil {
		return y, fmt.Errorf("table %q: unsupported rows %T", key, v)
	}

	headers := e.Headers
	if len(headers) < 2 {
		headers = []string{"Item", "Amount"}
	}

	r.pdf.SetXY(x, y)
	if e.Title != "" {
		r.pdf.SetFont(r.cfg.family, "B", r.cfg.size)
		r.pdf.CellFormat(w, r.lineH()*1.4, r.tr(e.Title), "", 1, "L", false, 0, "")
		r.pdf.SetX(x)
	}

	r.pdf.SetFont(r.cfg.family, "", r.cfg.size)
	tb := table.New(r.pdf).
		SetWidth(w).
		SetPosition(x, r.pdf.GetY()).
		SetColumns(table.ColumnDef{}, table.ColumnDef{Width: w * 0.35, Align: "R"}).
		SetStyle(table.ReceiptStyle(r.cfg.family, r.cfg.size))

	hr := tb.AddHeaderRow()
	hr.AddCell(r.tr(headers[0]))
	hr.AddCell(r.tr(headers[1])).SetAlign("R")

	total := 0.0
	for _, it := range items {
		row := tb.AddRow()
		row.AddCell(r.tr(it.Item))
		row.AddCell(FormatCurrency(it.Amount, 0))
		total += it.Amount
	}
	fr := tb.AddFooterRow()
	fr.AddCell("Total")
	fr.AddCell(FormatCurrency(total, 0))

	if err := tb.Render(); err != nil {
		return y, fmt.Errorf("table %q: %w", key, err)
	}
	return r.pdf.GetY(), nil
}

func (r *renderer) renderBarcode(e Element, x, y, w float64, align string) (float64, error) {
	code, err := r.barcodeValue(e)
	if err != nil {
		return y, err
	}
	bw, bh := BarcodeSize(e.Symbology)
	bx := alignedX(x, w, min(bw, w), align)
	DrawBarcode(r.pdf, e.Symbology, code, bx, y)
	if r.pdf.Err() {
		return y, fmt.Errorf("barcode %q: %w", code, r.pdf.Error())
	}
	end := y + bh
	if e.Label != "" {
		r.pdf.SetFont("Helvetica", "", 7)
		label := r.tr(e.Label)
		r.pdf.Text(bx+(bw-r.pdf.GetStringWidth(label))/2, end+3, label)
		r.pdf.SetFont(r.cfg.family, "", r.cfg.size)
		end += 4
	}
	return end, nil
}
