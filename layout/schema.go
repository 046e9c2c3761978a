// Package layout renders declarative receipt layouts onto printable pages.
//
// A Layout is an ordered list of sections, each holding elements that are
// either static (paragraphs) or bound to a value of the data being rendered
// (fields, images, tables, barcodes). Layouts are plain data: they can be
// produced in code, read from JSON or YAML, and rendered against any Data.
//
// Example JSON:
//
//	{
//	  "sections": [
//	    {"layoutHint": "right-align", "elements": [
//	      {"type": "date", "key": "billDate", "label": "Date"}
//	    ]},
//	    {"title": "Driver Salary Receipt", "elements": [
//	      {"type": "paragraph", "content": "Paid {{totalSalary|amount}} to {{driverName}}."}
//	    ]}
//	  ]
//	}
package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Element types.
const (
	TypeText      = "text"
	TypeAmount    = "amount"
	TypeDate      = "date"
	TypeParagraph = "paragraph"
	TypeImage     = "image"
	TypeTable     = "salaryBreakdownTable"
	TypeBarcode   = "barcode"
)

// Section layout hints. Any other hint renders stacked.
const (
	HintStacked    = ""
	HintRightAlign = "right-align"
	HintTwoColumns = "two columns"
	HintBottomAuth = "bottom-auth"
)

// Barcode symbologies.
const (
	SymbologyQR      = "qr"
	SymbologyCode128 = "code128"
	SymbologyPDF417  = "pdf417"
)

// Layout is an ordered list of sections rendered top to bottom on a page.
type Layout struct {
	Sections          []Section `json:"sections" yaml:"sections"`
	OverallDesignGoal string    `json:"overallDesignGoal,omitempty" yaml:"overallDesignGoal,omitempty"`
}

// Section groups elements under an optional title. LayoutHint decides how
// the elements share the row.
type Section struct {
	Title      string    `json:"title,omitempty" yaml:"title,omitempty"`
	LayoutHint string    `json:"layoutHint,omitempty" yaml:"layoutHint,omitempty"`
	Elements   []Element `json:"elements" yaml:"elements"`
}

// Element is one visual element. Type selects which fields are used.
type Element struct {
	Type         string      `json:"type" yaml:"type"`
	Key          string      `json:"key,omitempty" yaml:"key,omitempty"`
	Label        string      `json:"label,omitempty" yaml:"label,omitempty"`
	Content      string      `json:"content,omitempty" yaml:"content,omitempty"`
	Emphasize    bool        `json:"emphasize,omitempty" yaml:"emphasize,omitempty"`
	Alignment    string      `json:"alignment,omitempty" yaml:"alignment,omitempty"` // left, center, right
	PositionHint string      `json:"positionHint,omitempty" yaml:"positionHint,omitempty"`
	Title        string      `json:"title,omitempty" yaml:"title,omitempty"`
	Headers      []string    `json:"headers,omitempty" yaml:"headers,omitempty"`
	KeyMapping   *KeyMapping `json:"keyMapping,omitempty" yaml:"keyMapping,omitempty"`
	Symbology    string      `json:"symbology,omitempty" yaml:"symbology,omitempty"`
}

// KeyMapping names the item and amount fields of breakdown rows supplied as
// maps.
type KeyMapping struct {
	Item   string `json:"item" yaml:"item"`
	Amount string `json:"amount" yaml:"amount"`
}

// ErrInvalidLayout is wrapped by every error Validate returns.
var ErrInvalidLayout = errors.New("layout: invalid layout")

// Validate checks that every element has a known type and the fields that
// type needs.
func Validate(l *Layout) error {
	if l == nil || len(l.Sections) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidLayout)
	}
	for si, s := range l.Sections {
		for ei, e := range s.Elements {
			if err := validateElement(e); err != nil {
				return fmt.Errorf("%w: section %d (%s) element %d: %s",
					ErrInvalidLayout, si+1, sectionName(s), ei+1, err)
			}
		}
	}
	return nil
}

func validateElement(e Element) error {
	switch e.Type {
	case TypeText, TypeAmount, TypeDate, TypeImage:
		if e.Key == "" {
			return fmt.Errorf("%s element needs a key", e.Type)
		}
	case TypeParagraph:
		if strings.TrimSpace(e.Content) == "" {
			return errors.New("paragraph element needs content")
		}
	case TypeTable:
	case TypeBarcode:
		if e.Key == "" && e.Content == "" {
			return errors.New("barcode element needs a key or content")
		}
		switch strings.ToLower(e.Symbology) {
		case "", SymbologyQR, SymbologyCode128, SymbologyPDF417:
		default:
			return fmt.Errorf("unknown symbology %q", e.Symbology)
		}
	default:
		return fmt.Errorf("unknown element type %q", e.Type)
	}
	return nil
}

func sectionName(s Section) string {
	if s.Title != "" {
		return s.Title
	}
	if s.LayoutHint != "" {
		return s.LayoutHint
	}
	return "untitled"
}

// Parse decodes a JSON layout and validates it.
func Parse(b []byte) (*Layout, error) {
	var l Layout
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("layout: parsing: %w", err)
	}
	if err := Validate(&l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Load reads a layout file. Files ending in .yaml or .yml are decoded as
// YAML, anything else as JSON.
func Load(path string) (*Layout, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("layout: reading %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var l Layout
		if err := yaml.Unmarshal(b, &l); err != nil {
			return nil, fmt.Errorf("layout: parsing %s: %w", path, err)
		}
		if err := Validate(&l); err != nil {
			return nil, err
		}
		return &l, nil
	default:
		return Parse(b)
	}
}
