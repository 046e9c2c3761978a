// Package mcp exposes merging, inspection and receipt rendering as Model
// Context Protocol tools.
//
// Tools read and write files by path, so a client drives them the same way
// a user drives the CLI:
//
//	merge_pdfs          merge PDFs in order, optionally numbering pages
//	pdf_info            version, page count and page sizes
//	add_watermark       stamp text such as "DUPLICATE" across pages
//	add_page_numbers    stamp "Page i of n" on every page
//	render_salary_slip  render a receipt from a JSON, YAML or xlsx input file
//	salary_slip_layout  return the layout a receipt would be rendered with
//	render_book_bill    render a book order summary from a JSON or YAML file
package mcp

import (
	"context"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lvillar/drivepay/config"
	"github.com/lvillar/drivepay/pageops"
)

// version is set by the linker at build time.
var version = "dev"

// Service holds what the tool handlers share.
type Service struct {
	defaults    *config.Defaults
	combiner    *pageops.Combiner
	parallelism int
}

// NewService creates a Service. A nil defaults uses config.BuiltinDefaults.
func NewService(defaults *config.Defaults, parallelism int) *Service {
	if defaults == nil {
		defaults = config.BuiltinDefaults()
	}
	if parallelism < 1 {
		parallelism = 1
	}
	return &Service{
		defaults:    defaults,
		combiner:    pageops.NewCombiner(pageops.WithParallelism(parallelism)),
		parallelism: parallelism,
	}
}

// NewServer creates an MCP server with every tool and resource registered.
func NewServer(svc *Service) *gomcp.Server {
	server := gomcp.NewServer(&gomcp.Implementation{
		Name:    "drivepay",
		Version: version,
	}, nil)

	gomcp.AddTool(server, &gomcp.Tool{
		Name:        "merge_pdfs",
		Description: "Merge two or more PDF files into one, keeping every page of each input in the order given. Page content is copied, not re-rendered.",
	}, svc.MergePDFs)

	gomcp.AddTool(server, &gomcp.Tool{
		Name:        "pdf_info",
		Description: "Return the PDF version, page count and the size of every page of a PDF file.",
	}, svc.PDFInfo)

	gomcp.AddTool(server, &gomcp.Tool{
		Name:        "add_watermark",
		Description: "Draw a diagonal text watermark such as DUPLICATE across all or selected pages of a PDF.",
	}, svc.AddWatermark)

	gomcp.AddTool(server, &gomcp.Tool{
		Name:        "add_page_numbers",
		Description: "Stamp 'Page i of n' on every page of a PDF.",
	}, svc.AddPageNumbers)

	gomcp.AddTool(server, &gomcp.Tool{
		Name:        "render_salary_slip",
		Description: "Render a driver salary receipt. The input file is JSON or YAML holding one salary slip, or an xlsx sheet with one slip per row. Quarterly periods give one page per quarter.",
	}, svc.RenderSalarySlip)

	gomcp.AddTool(server, &gomcp.Tool{
		Name:        "salary_slip_layout",
		Description: "Return the layout description a salary receipt would be rendered with, as JSON.",
	}, svc.SalarySlipLayout)

	gomcp.AddTool(server, &gomcp.Tool{
		Name:        "render_book_bill",
		Description: "Render a book order summary from a JSON or YAML input file.",
	}, svc.RenderBookBill)

	registerResources(server, svc)
	return server
}

// Run serves the tools over stdio until ctx is cancelled or the client
// disconnects.
func Run(ctx context.Context, svc *Service) error {
	return NewServer(svc).Run(ctx, &gomcp.StdioTransport{})
}
