// Package pageops provides operations on existing PDF documents: merging an
// ordered list of documents into one, inspecting page structure, and stamping
// page numbers or watermarks onto every page.
//
// Parsing, page copying and serialization are delegated to pdfcpu. Stamping
// imports pages as templates with gofpdi and draws on top of them with fpdf.
package pageops

import (
	"bytes"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Position specifies where to place an element on a page.
type Position int

const (
	BottomCenter Position = iota
	Center
	TopLeft
	TopCenter
	TopRight
	BottomLeft
	BottomRight
)

// A4 in points, used when an imported page reports no MediaBox.
const (
	defaultPageWidth  = 595.28
	defaultPageHeight = 841.89
)

// headerWindow is how far into a file the %PDF- marker may appear.
const headerWindow = 1024

var disableConfigDir sync.Once

// newConfiguration returns a fresh pdfcpu configuration. pdfcpu mutates the
// configuration it is handed, so every parse gets its own.
func newConfiguration(strict bool) *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if strict {
		conf.ValidationMode = model.ValidationStrict
	}
	// Classic xref tables keep the output readable by the stamping importer.
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}

// hasPDFHeader reports whether data carries a %PDF- marker near its start.
func hasPDFHeader(data []byte) bool {
	window := data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	return bytes.Contains(window, []byte("%PDF-"))
}

// calculatePosition returns x, y coordinates for text placement.
func calculatePosition(pos Position, pageW, pageH, textW, textH, margin float64) (x, y float64) {
	switch pos {
	case TopLeft:
		return margin, margin + textH
	case TopCenter:
		return (pageW - textW) / 2, margin + textH
	case TopRight:
		return pageW - textW - margin, margin + textH
	case BottomLeft:
		return margin, pageH - margin
	case BottomRight:
		return pageW - textW - margin, pageH - margin
	case Center:
		return (pageW - textW) / 2, pageH / 2
	default:
		return (pageW - textW) / 2, pageH - margin
	}
}

var positionSeparators = strings.NewReplacer("-", "", "_", "", " ", "")

// ParsePosition maps names like "bottom-right" or "topLeft" to a Position.
// Unknown names give BottomCenter.
func ParsePosition(s string) Position {
	switch positionSeparators.Replace(strings.ToLower(strings.TrimSpace(s))) {
	case "topleft":
		return TopLeft
	case "topcenter":
		return TopCenter
	case "topright":
		return TopRight
	case "bottomleft":
		return BottomLeft
	case "bottomright":
		return BottomRight
	case "center":
		return Center
	default:
		return BottomCenter
	}
}
