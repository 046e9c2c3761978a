package layout

import (
	"fmt"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/barcode"
	"github.com/boombuler/barcode/qr"
)

// BarcodeSize returns the drawn width and height in mm for a symbology.
func BarcodeSize(symbology string) (w, h float64) {
	switch strings.ToLower(symbology) {
	case SymbologyCode128:
		return 60, 12
	case SymbologyPDF417:
		return 60, 20
	default:
		return 25, 25
	}
}

// DrawBarcode registers code in the given symbology and draws it at x, y
// with its natural size. Registration errors are recorded on pdf.
func DrawBarcode(pdf *fpdf.Fpdf, symbology, code string, x, y float64) (w, h float64) {
	var key string
	switch strings.ToLower(symbology) {
	case SymbologyCode128:
		key = barcode.RegisterCode128(pdf, code)
	case SymbologyPDF417:
		key = barcode.RegisterPdf417(pdf, code, 10, 2)
	default:
		key = barcode.RegisterQR(pdf, code, qr.M, qr.Auto)
	}
	if pdf.Err() {
		return 0, 0
	}
	w, h = BarcodeSize(symbology)
	barcode.Barcode(pdf, key, x, y, w, h, false)
	return w, h
}

func (r *renderer) barcodeValue(e Element) (string, error) {
	if e.Key != "" {
		v, ok := r.data.Lookup(e.Key)
		if ok {
			if s := FormatValue(v, ""); s != "" {
				return s, nil
			}
		}
	}
	if e.Content != "" {
		return Expand(e.Content, r.data), nil
	}
	return "", fmt.Errorf("no value for barcode %q", e.Key)
}
