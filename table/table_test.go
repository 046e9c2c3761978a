package table_test

import (
	"bytes"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/drivepay/table"
)

func newTestPDF() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.AddPage()
	return pdf
}

func output(t *testing.T, pdf *fpdf.Fpdf) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestLineItemTable(t *testing.T) {
	pdf := newTestPDF()

	tb := table.New(pdf)
	tb.SetColumns(table.ColumnDef{}, table.ColumnDef{Width: 40, Align: "R"})
	tb.SetStyle(table.ReceiptStyle("Helvetica", 10))

	h := tb.AddHeaderRow()
	h.AddCell("Item")
	h.AddCell("Amount")

	for _, item := range []struct{ name, amount string }{
		{"Basic Salary", "Rs. 10,000"},
		{"Overtime", "Rs. 2,000"},
	} {
		r := tb.AddRow()
		r.AddCell(item.name)
		r.AddCell(item.amount)
	}

	f := tb.AddFooterRow()
	f.AddCell("Total")
	f.AddCell("Rs. 12,000")

	require.NoError(t, tb.Render())
	assert.NotEmpty(t, output(t, pdf))

	rows := tb.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Overtime", "Rs. 2,000"}, rows[1].Texts())
}

func TestAutoWidthColumns(t *testing.T) {
	pdf := newTestPDF()

	tb := table.New(pdf)
	tb.SetColumnWidths(0, 0, 0)

	r := tb.AddRow()
	r.AddCell("Auto 1")
	r.AddCell("Auto 2")
	r.AddCell("Auto 3")

	require.NoError(t, tb.Render())
	output(t, pdf)
}

func TestColumnsInferredFromRows(t *testing.T) {
	pdf := newTestPDF()

	tb := table.New(pdf)
	r := tb.AddRow()
	r.AddCell("Spanning").SetColspan(2)
	r.AddCell("Last")

	require.NoError(t, tb.Render())
}

func TestRenderWithoutColumns(t *testing.T) {
	tb := table.New(newTestPDF())
	assert.ErrorIs(t, tb.Render(), table.ErrNoColumns)
}

func TestPageBreakRepeatsHeader(t *testing.T) {
	pdf := newTestPDF()

	tb := table.New(pdf)
	tb.SetColumnWidths(100, 50)
	tb.SetStyle(table.ReceiptStyle("Helvetica", 10))
	h := tb.AddHeaderRow()
	h.AddCell("Title")
	h.AddCell("Price")
	for i := 0; i < 80; i++ {
		r := tb.AddRow()
		r.AddCellf("Book %d", i+1)
		r.AddCellf("Rs. %d.00", 100+i)
	}

	require.NoError(t, tb.Render())
	assert.Greater(t, pdf.PageCount(), 1)
}

func TestHeightGrowsWithRows(t *testing.T) {
	pdf := newTestPDF()

	tb := table.New(pdf)
	tb.SetColumnWidths(80, 40)
	tb.AddRow().AddCell("one")
	h1 := tb.Height()
	tb.AddRow().AddCell("two")
	h2 := tb.Height()

	assert.Greater(t, h1, 0.0)
	assert.InDelta(t, 2*h1, h2, 0.01)
}

func TestWrappedCellIsTaller(t *testing.T) {
	pdf := newTestPDF()

	short := table.New(pdf).SetColumnWidths(30)
	short.AddRow().AddCell("short")

	long := table.New(pdf).SetColumnWidths(30)
	long.AddRow().AddCell("a much longer description that has to wrap onto several lines")

	assert.Greater(t, long.Height(), short.Height())
}

func TestCellStyles(t *testing.T) {
	pdf := newTestPDF()

	tb := table.New(pdf)
	tb.SetColumnWidths(60, 60)
	tb.SetStyle(table.TableStyle{
		Border:      &table.BorderStyle{Width: 0.3},
		CellPadding: table.UniformPadding(2),
	})
	r := tb.AddRow().SetMinHeight(12)
	r.AddCell("left")
	r.AddCell("right").SetAlign("R").SetStyle(table.CellStyle{
		FillColor: &table.RGBColor{R: 250, G: 240, B: 200},
		Font:      &table.FontSpec{Family: "Helvetica", Style: "B", Size: 12},
		Align:     "R",
	})

	require.NoError(t, tb.Render())
	assert.False(t, pdf.Err())
}

func TestRenderRestoresTableFont(t *testing.T) {
	pdf := newTestPDF()

	tb := table.New(pdf).SetFont("Courier", "", 9)
	tb.SetStyle(table.TableStyle{
		CellPadding: table.UniformPadding(1),
		HeaderStyle: &table.CellStyle{Font: &table.FontSpec{Family: "Helvetica", Style: "B", Size: 12}},
	})
	h := tb.AddHeaderRow()
	h.AddCell("Item")
	tb.AddRow().AddCell("Basic Salary")
	require.NoError(t, tb.Render())

	size, _ := pdf.GetFontSize()
	assert.Equal(t, 9.0, size)

	out := string(output(t, pdf))
	assert.Contains(t, out, "/BaseFont /Courier")
	assert.Contains(t, out, "/BaseFont /Helvetica-Bold")
}
