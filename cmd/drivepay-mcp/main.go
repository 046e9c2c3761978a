// Command drivepay-mcp is an MCP (Model Context Protocol) server that exposes
// PDF merging and receipt rendering to AI assistants over stdio.
//
// # Installation
//
//	go install github.com/lvillar/drivepay/cmd/drivepay-mcp@latest
//
// # Configuration
//
// Add to the client's MCP server list:
//
//	{
//	  "mcpServers": {
//	    "drivepay": {
//	      "command": "drivepay-mcp",
//	      "env": {"DEFAULTS_FILE": "/path/to/drivepay.yml"}
//	    }
//	  }
//	}
//
// # Available Tools
//
//   - merge_pdfs: Merge two or more PDFs in order
//   - pdf_info: Get version, page count and page sizes
//   - add_watermark: Add text watermarks
//   - add_page_numbers: Add page numbers
//   - render_salary_slip: Render driver salary receipts
//   - salary_slip_layout: Get the layout a receipt is rendered with
//   - render_book_bill: Render a book order summary
//
// # Available Resources
//
//   - drivepay://defaults : Default form values
//   - drivepay://layouts/salary-slip : The standard receipt layout
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lvillar/drivepay/config"
	"github.com/lvillar/drivepay/mcp"
)

func main() {
	cfg := config.Load()
	defaults, err := config.LoadDefaults(cfg.DefaultsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "drivepay-mcp: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcp.Run(ctx, mcp.NewService(defaults, cfg.MergeParallelism)); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "drivepay-mcp: %v\n", err)
		os.Exit(1)
	}
}
