package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lvillar/drivepay"
	"github.com/lvillar/drivepay/config"
	"github.com/lvillar/drivepay/layout"
	"github.com/lvillar/drivepay/pageops"
	"github.com/lvillar/drivepay/receipt"
)

// MergePDFsInput is the input of merge_pdfs.
type MergePDFsInput struct {
	InputPaths  []string `json:"inputPaths" jsonschema:"paths of the PDF files to merge, in order (at least 2)"`
	OutputPath  string   `json:"outputPath" jsonschema:"path for the merged PDF"`
	NumberPages bool     `json:"numberPages,omitempty" jsonschema:"stamp 'Page i of n' on the merged pages"`
}

// FileOutput describes a PDF a tool wrote.
type FileOutput struct {
	OutputPath string `json:"outputPath"`
	PageCount  int    `json:"pageCount"`
	Bytes      int    `json:"bytes"`
}

func (s *Service) MergePDFs(
	ctx context.Context,
	_ *gomcp.CallToolRequest,
	input MergePDFsInput,
) (*gomcp.CallToolResult, FileOutput, error) {
	if input.OutputPath == "" {
		return nil, FileOutput{}, fmt.Errorf("outputPath is required")
	}
	docs, err := pageops.LoadFiles(input.InputPaths...)
	if err != nil {
		return nil, FileOutput{}, err
	}
	doc, err := s.combiner.Merge(ctx, docs...)
	if err != nil {
		return nil, FileOutput{}, errors.New(drivepay.Describe(err))
	}

	out := doc.Bytes
	if input.NumberPages {
		if out, err = pageops.NumberPages(out, pageops.PageNumberStyle{}); err != nil {
			return nil, FileOutput{}, err
		}
	}
	return writePDF(input.OutputPath, out, doc.PageCount)
}

// PDFInfoInput is the input of pdf_info.
type PDFInfoInput struct {
	Path string `json:"path" jsonschema:"path of the PDF file"`
}

func (s *Service) PDFInfo(
	_ context.Context,
	_ *gomcp.CallToolRequest,
	input PDFInfoInput,
) (*gomcp.CallToolResult, pageops.Info, error) {
	b, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, pageops.Info{}, fmt.Errorf("reading %s: %w", input.Path, err)
	}
	info, err := pageops.Inspect(b)
	if err != nil {
		return nil, pageops.Info{}, err
	}
	return nil, *info, nil
}

// WatermarkInput is the input of add_watermark.
type WatermarkInput struct {
	InputPath  string `json:"inputPath" jsonschema:"path of the PDF to mark"`
	OutputPath string `json:"outputPath" jsonschema:"path for the marked PDF"`
	Text       string `json:"text" jsonschema:"watermark text, e.g. DUPLICATE"`
	Pages      []int  `json:"pages,omitempty" jsonschema:"1-based pages to mark (default: all)"`
}

func (s *Service) AddWatermark(
	_ context.Context,
	_ *gomcp.CallToolRequest,
	input WatermarkInput,
) (*gomcp.CallToolResult, FileOutput, error) {
	src, err := os.ReadFile(input.InputPath)
	if err != nil {
		return nil, FileOutput{}, fmt.Errorf("reading %s: %w", input.InputPath, err)
	}
	out, err := pageops.Watermark(src, pageops.TextWatermark{Text: input.Text, Pages: input.Pages})
	if err != nil {
		return nil, FileOutput{}, err
	}
	return writePDF(input.OutputPath, out, 0)
}

// PageNumbersInput is the input of add_page_numbers.
type PageNumbersInput struct {
	InputPath  string `json:"inputPath" jsonschema:"path of the PDF to number"`
	OutputPath string `json:"outputPath" jsonschema:"path for the numbered PDF"`
	Position   string `json:"position,omitempty" jsonschema:"bottom-center (default), bottom-right, top-center and so on"`
}

func (s *Service) AddPageNumbers(
	_ context.Context,
	_ *gomcp.CallToolRequest,
	input PageNumbersInput,
) (*gomcp.CallToolResult, FileOutput, error) {
	src, err := os.ReadFile(input.InputPath)
	if err != nil {
		return nil, FileOutput{}, fmt.Errorf("reading %s: %w", input.InputPath, err)
	}
	out, err := pageops.NumberPages(src, pageops.PageNumberStyle{Position: pageops.ParsePosition(input.Position)})
	if err != nil {
		return nil, FileOutput{}, err
	}
	return writePDF(input.OutputPath, out, 0)
}

// SalarySlipInput is the input of render_salary_slip and salary_slip_layout.
type SalarySlipInput struct {
	InputPath            string `json:"inputPath" jsonschema:"path of a .json, .yaml or .xlsx file with the salary slip data"`
	OutputPath           string `json:"outputPath,omitempty" jsonschema:"path for the rendered PDF"`
	ShowBreakdown        bool   `json:"showBreakdown,omitempty" jsonschema:"add the itemised salary table"`
	OmitVerificationCode bool   `json:"omitVerificationCode,omitempty" jsonschema:"leave out the QR verification code"`
}

func (in SalarySlipInput) generator() receipt.StaticLayout {
	return receipt.StaticLayout{ShowBreakdown: in.ShowBreakdown, OmitVerificationCode: in.OmitVerificationCode}
}

func (s *Service) RenderSalarySlip(
	ctx context.Context,
	_ *gomcp.CallToolRequest,
	input SalarySlipInput,
) (*gomcp.CallToolResult, FileOutput, error) {
	if input.OutputPath == "" {
		return nil, FileOutput{}, fmt.Errorf("outputPath is required")
	}

	if strings.EqualFold(filepath.Ext(input.InputPath), ".xlsx") {
		f, err := os.Open(input.InputPath)
		if err != nil {
			return nil, FileOutput{}, err
		}
		defer f.Close()
		inputs, err := receipt.ReadSalarySheet(f)
		if err != nil {
			return nil, FileOutput{}, err
		}
		doc, err := receipt.RenderSlipBatch(ctx, inputs, input.generator(), s.parallelism)
		if err != nil {
			return nil, FileOutput{}, err
		}
		return writePDF(input.OutputPath, doc.Bytes, doc.PageCount)
	}

	slip := s.defaults.NewSalarySlip()
	if err := loadInput(input.InputPath, &slip); err != nil {
		return nil, FileOutput{}, err
	}
	b, err := receipt.RenderSlipBytes(ctx, slip, input.generator())
	if err != nil {
		return nil, FileOutput{}, err
	}
	return writePDF(input.OutputPath, b, 0)
}

// LayoutOutput is the result of salary_slip_layout.
type LayoutOutput struct {
	Layout layout.Layout `json:"layout"`
}

func (s *Service) SalarySlipLayout(
	ctx context.Context,
	_ *gomcp.CallToolRequest,
	input SalarySlipInput,
) (*gomcp.CallToolResult, LayoutOutput, error) {
	slip := s.defaults.NewSalarySlip()
	if err := loadInput(input.InputPath, &slip); err != nil {
		return nil, LayoutOutput{}, err
	}
	slip, err := receipt.Prepare(slip)
	if err != nil {
		return nil, LayoutOutput{}, err
	}
	l, err := input.generator().Generate(ctx, slip)
	if err != nil {
		return nil, LayoutOutput{}, err
	}
	return nil, LayoutOutput{Layout: *l}, nil
}

// BookBillInput is the input of render_book_bill.
type BookBillInput struct {
	InputPath  string `json:"inputPath" jsonschema:"path of a .json or .yaml file with the order"`
	OutputPath string `json:"outputPath" jsonschema:"path for the rendered PDF"`
}

func (s *Service) RenderBookBill(
	_ context.Context,
	_ *gomcp.CallToolRequest,
	input BookBillInput,
) (*gomcp.CallToolResult, FileOutput, error) {
	if input.OutputPath == "" {
		return nil, FileOutput{}, fmt.Errorf("outputPath is required")
	}
	bill := s.defaults.NewBookBill()
	if err := loadInput(input.InputPath, &bill); err != nil {
		return nil, FileOutput{}, err
	}
	b, err := receipt.RenderBookBillBytes(bill)
	if err != nil {
		return nil, FileOutput{}, err
	}
	return writePDF(input.OutputPath, b, 0)
}

func loadInput(path string, v any) error {
	if path == "" {
		return fmt.Errorf("inputPath is required")
	}
	return config.DecodeFile(path, v)
}

// writePDF saves b and reports it. A zero pages is filled in by counting.
func writePDF(path string, b []byte, pages int) (*gomcp.CallToolResult, FileOutput, error) {
	if path == "" {
		return nil, FileOutput{}, fmt.Errorf("outputPath is required")
	}
	if pages == 0 {
		n, err := pageops.PageCount(b)
		if err != nil {
			return nil, FileOutput{}, err
		}
		pages = n
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return nil, FileOutput{}, fmt.Errorf("writing %s: %w", path, err)
	}
	return nil, FileOutput{OutputPath: path, PageCount: pages, Bytes: len(b)}, nil
}
