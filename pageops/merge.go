package pageops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/lvillar/drivepay"
)

// SourceDocument is one input to a merge. Bytes is never modified.
type SourceDocument struct {
	Bytes       []byte
	DisplayName string // used in error messages
}

// MergedDocument is the result of a merge. The combiner keeps no reference
// to it once returned.
type MergedDocument struct {
	Bytes     []byte
	PageCount int
}

// Combiner merges page-oriented documents. A Combiner holds no state between
// calls and may be used from multiple goroutines.
type Combiner struct {
	cfg combinerConfig
}

var defaultCombiner = NewCombiner()

// Merge combines docs into a single PDF using the default Combiner.
func Merge(ctx context.Context, docs ...SourceDocument) (*MergedDocument, error) {
	return defaultCombiner.Merge(ctx, docs...)
}

// Merge combines docs into a single PDF. Pages are appended in order: all
// pages of the first document, then all of the second, and so on.
//
// Fewer than two documents fail with drivepay.ErrInsufficientInput. An input
// that does not parse aborts the merge with a *drivepay.MalformedDocumentError
// and no output. When several inputs are malformed, the lowest index that was
// examined is reported.
//
// Page content is copied, not re-rendered. The document ID and modification
// date written by pdfcpu differ between runs; everything else is stable.
func (c *Combiner) Merge(ctx context.Context, docs ...SourceDocument) (*MergedDocument, error) {
	if len(docs) < 2 {
		return nil, &drivepay.InsufficientInputError{Got: len(docs)}
	}

	counts, err := c.validateAll(ctx, docs)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Second pass: strictly ordered append.
	sources := make([]io.ReadSeeker, len(docs))
	want := 0
	for i, doc := range docs {
		sources[i] = bytes.NewReader(doc.Bytes)
		want += counts[i]
	}

	var out bytes.Buffer
	if err := api.MergeRaw(sources, &out, false, newConfiguration(c.cfg.strict)); err != nil {
		return nil, &drivepay.SerializationError{Err: err}
	}

	got, err := api.PageCount(bytes.NewReader(out.Bytes()), newConfiguration(false))
	if err != nil {
		return nil, &drivepay.SerializationError{Err: fmt.Errorf("re-reading output: %w", err)}
	}
	if got != want {
		return nil, &drivepay.SerializationError{Err: fmt.Errorf("output has %d pages, want %d", got, want)}
	}

	return &MergedDocument{Bytes: out.Bytes(), PageCount: got}, nil
}

// validateAll parses every document and returns its page count. Parsing may
// run concurrently; results are stored by index so the lowest failing index
// is reported no matter which goroutine finishes first.
func (c *Combiner) validateAll(ctx context.Context, docs []SourceDocument) ([]int, error) {
	counts := make([]int, len(docs))
	errs := make([]error, len(docs))

	var g errgroup.Group
	g.SetLimit(max(c.cfg.parallelism, 1))

	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			n, err := c.validate(doc)
			if err != nil {
				errs[i] = &drivepay.MalformedDocumentError{Index: i, Name: doc.DisplayName, Err: err}
				return nil
			}
			counts[i] = n
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		var malformed *drivepay.MalformedDocumentError
		if errors.As(err, &malformed) {
			return nil, malformed
		}
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return counts, nil
}

// validate parses a single document and returns its page count.
func (c *Combiner) validate(doc SourceDocument) (int, error) {
	if len(doc.Bytes) == 0 {
		return 0, errors.New("empty input")
	}
	if !hasPDFHeader(doc.Bytes) {
		return 0, errors.New("missing %PDF- header")
	}
	pdfCtx, err := api.ReadAndValidate(bytes.NewReader(doc.Bytes), newConfiguration(c.cfg.strict))
	if err != nil {
		return 0, err
	}
	if pdfCtx.PageCount < 1 {
		return 0, errors.New("document has no pages")
	}
	return pdfCtx.PageCount, nil
}

// MergeTo merges docs and writes the result to w.
func MergeTo(ctx context.Context, w io.Writer, docs ...SourceDocument) error {
	merged, err := Merge(ctx, docs...)
	if err != nil {
		return err
	}
	if _, err := w.Write(merged.Bytes); err != nil {
		return &drivepay.SerializationError{Err: err}
	}
	return nil
}

// LoadFiles reads the named files into SourceDocuments, using each file's
// base name as its display name.
func LoadFiles(paths ...string) ([]SourceDocument, error) {
	docs := make([]SourceDocument, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("pageops: reading %s: %w", path, err)
		}
		docs = append(docs, SourceDocument{Bytes: data, DisplayName: filepath.Base(path)})
	}
	return docs, nil
}

// MergeFiles combines multiple PDF files into a single output file.
// The output file is only created once the merge has succeeded.
func MergeFiles(ctx context.Context, outputPath string, inputPaths ...string) (*MergedDocument, error) {
	if len(inputPaths) < 2 {
		return nil, &drivepay.InsufficientInputError{Got: len(inputPaths)}
	}
	docs, err := LoadFiles(inputPaths...)
	if err != nil {
		return nil, err
	}
	merged, err := Merge(ctx, docs...)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(outputPath, merged.Bytes, 0o644); err != nil {
		return nil, fmt.Errorf("pageops: creating %s: %w", outputPath, err)
	}
	return merged, nil
}
