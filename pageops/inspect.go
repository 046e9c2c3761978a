package pageops

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Info summarises the structure of a PDF document.
type Info struct {
	Version   string     `json:"version"`
	PageCount int        `json:"pageCount"`
	Pages     []PageSize `json:"pages"`
}

// PageSize is the media box of one page in points.
type PageSize struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Inspect parses b and reports its version, page count and page sizes.
func Inspect(b []byte) (*Info, error) {
	ctx, err := readContext(b)
	if err != nil {
		return nil, err
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("pageops: page dimensions: %w", err)
	}

	info := &Info{PageCount: ctx.PageCount, Pages: make([]PageSize, 0, len(dims))}
	if ctx.HeaderVersion != nil {
		info.Version = ctx.HeaderVersion.String()
	}
	for i, d := range dims {
		info.Pages = append(info.Pages, PageSize{Number: i + 1, Width: d.Width, Height: d.Height})
	}
	return info, nil
}

// PageCount returns the number of pages in b.
func PageCount(b []byte) (int, error) {
	if !hasPDFHeader(b) {
		return 0, fmt.Errorf("pageops: missing %%PDF- header")
	}
	n, err := api.PageCount(bytes.NewReader(b), newConfiguration(false))
	if err != nil {
		return 0, fmt.Errorf("pageops: counting pages: %w", err)
	}
	return n, nil
}

// PageContents returns the decoded content stream of every page in order.
// A page without content yields an empty slice.
func PageContents(b []byte) ([][]byte, error) {
	ctx, err := readContext(b)
	if err != nil {
		return nil, err
	}

	contents := make([][]byte, ctx.PageCount)
	for i := 1; i <= ctx.PageCount; i++ {
		r, err := pdfcpu.ExtractPageContent(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("pageops: content of page %d: %w", i, err)
		}
		if r == nil {
			contents[i-1] = []byte{}
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("pageops: content of page %d: %w", i, err)
		}
		contents[i-1] = data
	}
	return contents, nil
}

func readContext(b []byte) (*model.Context, error) {
	if !hasPDFHeader(b) {
		return nil, fmt.Errorf("pageops: missing %%PDF- header")
	}
	ctx, err := api.ReadAndValidate(bytes.NewReader(b), newConfiguration(false))
	if err != nil {
		return nil, fmt.Errorf("pageops: reading document: %w", err)
	}
	return ctx, nil
}
