package receipt

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"codeberg.org/go-pdf/fpdf"

	"github.com/lvillar/drivepay/layout"
	"github.com/lvillar/drivepay/table"
)

// BookItem is one ordered book.
type BookItem struct {
	Title    string  `json:"title" yaml:"title"`
	Seller   string  `json:"seller" yaml:"seller"`
	Price    float64 `json:"price" yaml:"price"`
	ImageURL string  `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
}

// Address is a shipping address.
type Address struct {
	Name         string `json:"name" yaml:"name"`
	AddressLine1 string `json:"addressLine1" yaml:"addressLine1"`
	AddressLine2 string `json:"addressLine2" yaml:"addressLine2"`
	City         string `json:"city" yaml:"city"`
	State        string `json:"state" yaml:"state"`
	ZipCode      string `json:"zipCode" yaml:"zipCode"`
	Country      string `json:"country" yaml:"country"`
}

// PaymentMethod identifies the card an order was paid with.
type PaymentMethod struct {
	CardType string `json:"cardType" yaml:"cardType"`
	LastFour string `json:"lastFour" yaml:"lastFour"`
}

// OrderSummary holds the order charges. Subtotal is informational only:
// the printed subtotal is always the sum of the item prices.
type OrderSummary struct {
	Subtotal float64 `json:"subtotal" yaml:"subtotal"`
	Shipping float64 `json:"shipping" yaml:"shipping"`
}

// BookBillInput holds everything printed on a book order summary.
type BookBillInput struct {
	OrderDate     Date          `json:"orderDate" yaml:"orderDate"`
	OrderNumber   string        `json:"orderNumber" yaml:"orderNumber"`
	ShipTo        Address       `json:"shipTo" yaml:"shipTo"`
	PaymentMethod PaymentMethod `json:"paymentMethod" yaml:"paymentMethod"`
	Summary       OrderSummary  `json:"summary" yaml:"summary"`
	Items         []BookItem    `json:"items" yaml:"items"`
}

// Subtotal returns the sum of the item prices.
func (in BookBillInput) Subtotal() float64 {
	total := 0.0
	for _, it := range in.Items {
		total += it.Price
	}
	return total
}

// GrandTotal is the subtotal plus shipping.
func (in BookBillInput) GrandTotal() float64 {
	return in.Subtotal() + in.Summary.Shipping
}

// Normalize returns a copy with markup stripped from free text and
// Summary.Subtotal recomputed from the items.
func (in BookBillInput) Normalize() BookBillInput {
	out := in
	out.OrderNumber = clean(in.OrderNumber)
	out.ShipTo = Address{
		Name:         clean(in.ShipTo.Name),
		AddressLine1: clean(in.ShipTo.AddressLine1),
		AddressLine2: clean(in.ShipTo.AddressLine2),
		City:         clean(in.ShipTo.City),
		State:        clean(in.ShipTo.State),
		ZipCode:      clean(in.ShipTo.ZipCode),
		Country:      clean(in.ShipTo.Country),
	}
	out.PaymentMethod = PaymentMethod{
		CardType: clean(in.PaymentMethod.CardType),
		LastFour: clean(in.PaymentMethod.LastFour),
	}
	out.Items = make([]BookItem, len(in.Items))
	for i, it := range in.Items {
		out.Items[i] = BookItem{
			Title:    clean(it.Title),
			Seller:   clean(it.Seller),
			Price:    it.Price,
			ImageURL: strings.TrimSpace(it.ImageURL),
		}
	}
	out.Summary.Subtotal = out.Subtotal()
	return out
}

// Validate reports every missing or inconsistent field. It returns nil or
// a *ValidationError.
func (in BookBillInput) Validate() error {
	v := &ValidationError{Kind: "book bill"}
	if in.OrderDate.IsZero() {
		v.add("orderDate", "is required")
	}
	if strings.TrimSpace(in.OrderNumber) == "" {
		v.add("orderNumber", "is required")
	}
	if strings.TrimSpace(in.ShipTo.Name) == "" {
		v.add("shipTo.name", "is required")
	}
	if lf := in.PaymentMethod.LastFour; lf != "" && (len(lf) != 4 || strings.IndexFunc(lf, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0) {
		v.add("paymentMethod.lastFour", "must be 4 digits")
	}
	if msg := amountProblem(in.Summary.Shipping); msg != "" {
		v.add("summary.shipping", msg)
	}
	if len(in.Items) == 0 {
		v.add("items", "needs at least one book")
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.Title) == "" {
			v.add(fmt.Sprintf("items[%d].title", i), "is required")
		}
		if msg := amountProblem(it.Price); msg != "" {
			v.add(fmt.Sprintf("items[%d].price", i), msg)
		}
	}
	return v.orNil()
}

// RenderBookBill writes the order summary for in to w.
func RenderBookBill(w io.Writer, in BookBillInput) error {
	b, err := RenderBookBillBytes(in)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

const (
	billFont   = "Helvetica"
	billMargin = 15.0
)

// RenderBookBillBytes renders the order summary for in and returns the PDF.
func RenderBookBillBytes(in BookBillInput) ([]byte, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(billMargin, billMargin, billMargin)
	pdf.SetAutoPageBreak(true, billMargin)
	pdf.SetCreator("drivepay", true)
	pdf.SetTitle("Order Summary "+in.OrderNumber, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	width := pageW - 2*billMargin

	pdf.SetFont(billFont, "", 22)
	pdf.CellFormat(width, 11, "Order Summary", "", 1, "L", false, 0, "")
	pdf.SetFont(billFont, "", 10)
	pdf.SetTextColor(86, 89, 89)
	placed := fmt.Sprintf("Order placed %s  |  Order number %s", in.OrderDate.Format(layout.LongDate), in.OrderNumber)
	pdf.CellFormat(width, 6, tr(placed), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	drawDetailsBox(pdf, tr, in, billMargin, pdf.GetY(), width)
	pdf.Ln(6)

	if err := drawItems(pdf, tr, in.Items, width); err != nil {
		return nil, fmt.Errorf("receipt: items: %w", err)
	}

	bw, bh := layout.BarcodeSize(layout.SymbologyCode128)
	y := pdf.GetY() + 8
	_, pageH := pdf.GetPageSize()
	if y+bh+6 > pageH-billMargin {
		pdf.AddPage()
		y = billMargin
	}
	x := billMargin + (width-bw)/2
	layout.DrawBarcode(pdf, layout.SymbologyCode128, in.OrderNumber, x, y)
	pdf.SetFont(billFont, "", 8)
	pdf.SetXY(billMargin, y+bh+1)
	pdf.CellFormat(width, 4, tr(in.OrderNumber), "", 1, "C", false, 0, "")

	if pdf.Err() {
		return nil, fmt.Errorf("receipt: rendering book bill: %w", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("receipt: rendering book bill: %w", err)
	}
	return buf.Bytes(), nil
}

// drawDetailsBox draws the Ship to, Payment method and Order Summary
// columns inside one rounded box.
func drawDetailsBox(pdf *fpdf.Fpdf, tr func(string) string, in BookBillInput, x, y, width float64) {
	const (
		pad   = 5.0
		lineH = 5.0
		headH = 7.0
	)
	colW := (width - 2*pad) / 3

	shipTo := []string{in.ShipTo.Name, in.ShipTo.AddressLine1, in.ShipTo.AddressLine2}
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(in.ShipTo.City, in.ShipTo.State), ", ") + " " + in.ShipTo.ZipCode)
	shipTo = append(shipTo, cityLine, in.ShipTo.Country)
	shipTo = nonEmpty(shipTo...)

	payment := fmt.Sprintf("%s ending in %s", in.PaymentMethod.CardType, in.PaymentMethod.LastFour)
	paymentLines := pdf.SplitLines([]byte(tr(payment)), colW-pad)

	rows := max(len(shipTo), len(paymentLines), 4)
	boxH := 2*pad + headH + float64(rows)*lineH

	pdf.SetDrawColor(210, 210, 210)
	pdf.SetLineWidth(0.3)
	pdf.RoundedRect(x, y, width, boxH, 2, "1234", "D")
	pdf.SetDrawColor(0, 0, 0)

	heading := func(cx float64, text string) {
		pdf.SetFont(billFont, "B", 11)
		pdf.SetXY(cx, y+pad)
		pdf.CellFormat(colW, headH, text, "", 0, "L", false, 0, "")
	}
	line := func(cx float64, i int, text, style string) {
		pdf.SetFont(billFont, style, 10)
		pdf.SetXY(cx, y+pad+headH+float64(i)*lineH)
		pdf.CellFormat(colW-pad, lineH, tr(text), "", 0, "L", false, 0, "")
	}

	col1 := x + pad
	heading(col1, "Ship to")
	for i, l := range shipTo {
		style := ""
		if i == 0 {
			style = "B"
		}
		line(col1, i, l, style)
	}

	col2 := col1 + colW
	heading(col2, "Payment method")
	pdf.SetFont(billFont, "", 10)
	for i, l := range paymentLines {
		pdf.SetXY(col2, y+pad+headH+float64(i)*lineH)
		pdf.CellFormat(colW-pad, lineH, string(l), "", 0, "L", false, 0, "")
	}

	col3 := col2 + colW
	heading(col3, "Order Summary")
	amounts := []struct {
		label  string
		amount float64
		style  string
	}{
		{"Item(s) Subtotal:", in.Subtotal(), ""},
		{"Shipping:", in.Summary.Shipping, ""},
		{"Grand Total:", in.GrandTotal(), "B"},
	}
	for i, a := range amounts {
		ly := y + pad + headH + float64(i)*lineH
		if a.style == "B" {
			ly += 1.5
			pdf.SetLineWidth(0.2)
			pdf.Line(col3, ly-0.5, col3+colW-pad, ly-0.5)
		}
		pdf.SetFont(billFont, a.style, 10)
		pdf.SetXY(col3, ly)
		pdf.CellFormat(colW-pad, lineH, a.label, "", 0, "L", false, 0, "")
		pdf.SetXY(col3, ly)
		pdf.CellFormat(colW-pad, lineH, layout.FormatCurrency(a.amount, 2), "", 0, "R", false, 0, "")
	}

	pdf.SetXY(x, y+boxH)
}

func drawItems(pdf *fpdf.Fpdf, tr func(string) string, items []BookItem, width float64) error {
	pdf.SetFont(billFont, "", 10)
	style := table.ReceiptStyle(billFont, 10)
	style.CellPadding = table.UniformPadding(3)
	style.LineHeight = 1.5

	tb := table.New(pdf).
		SetWidth(width).
		SetPosition(billMargin, pdf.GetY()).
		SetColumns(table.ColumnDef{}, table.ColumnDef{Width: 40, Align: "R"}).
		SetStyle(style)

	hr := tb.AddHeaderRow()
	hr.AddCell("Item")
	hr.AddCell("Price").SetAlign("R")

	for _, it := range items {
		text := it.Title
		if it.Seller != "" {
			text += "\nSold by: " + it.Seller
		}
		row := tb.AddRow()
		row.AddCell(tr(text))
		row.AddCell(layout.FormatCurrency(it.Price, 2)).SetStyle(table.CellStyle{
			Font: &table.FontSpec{Family: billFont, Style: "B", Size: 10},
		})
	}
	return tb.Render()
}

func nonEmpty(s ...string) []string {
	out := s[:0:0]
	for _, v := range s {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
