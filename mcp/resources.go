package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lvillar/drivepay/receipt"
)

const (
	defaultsURI = "drivepay://defaults"
	layoutURI   = "drivepay://layouts/salary-slip"
)

// registerResources adds read-only JSON documents clients can use as
// starting points for tool input files.
func registerResources(server *gomcp.Server, svc *Service) {
	server.AddResource(&gomcp.Resource{
		URI:         defaultsURI,
		Name:        "Form defaults",
		Description: "Default salary slip and book bill values. Save either part as a JSON file and edit it to build a tool input.",
		MIMEType:    "application/json",
	}, func(context.Context, *gomcp.ReadResourceRequest) (*gomcp.ReadResourceResult, error) {
		return jsonResource(defaultsURI, svc.defaults)
	})

	server.AddResource(&gomcp.Resource{
		URI:         layoutURI,
		Name:        "Salary slip layout",
		Description: "The standard salary receipt layout description.",
		MIMEType:    "application/json",
	}, func(ctx context.Context, _ *gomcp.ReadResourceRequest) (*gomcp.ReadResourceResult, error) {
		l, err := receipt.StaticLayout{}.Generate(ctx, svc.defaults.SalarySlip)
		if err != nil {
			return nil, err
		}
		return jsonResource(layoutURI, l)
	})
}

func jsonResource(uri string, v any) (*gomcp.ReadResourceResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return &gomcp.ReadResourceResult{
		Contents: []*gomcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		}},
	}, nil
}
