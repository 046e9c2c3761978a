// Package drivepay holds the error taxonomy shared by the document combiner,
// the receipt renderers and the outer surfaces (HTTP, MCP, CLI).
//
// The subpackages do the work:
//
//   - pageops merges page-oriented documents and stamps page numbers
//   - layout renders layout descriptions onto printable pages
//   - receipt builds salary slips and book order summaries
//   - server, mcp and cmd/drivepay expose them
package drivepay

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure kinds a merge can end in.
var (
	ErrInsufficientInput = errors.New("drivepay: at least two documents are required")
	ErrMalformedDocument = errors.New("drivepay: malformed document")
	ErrSerialization     = errors.New("drivepay: serialization failed")
)

// InsufficientInputError reports a merge request with fewer than two documents.
type InsufficientInputError struct {
	Got int // number of documents supplied
}

func (e *InsufficientInputError) Error() string {
	return fmt.Sprintf("drivepay: merge needs at least 2 documents, got %d", e.Got)
}

func (e *InsufficientInputError) Is(target error) bool {
	return target == ErrInsufficientInput
}

// MalformedDocumentError reports an input that could not be parsed as a
// valid document. Index is 0-based in request order.
type MalformedDocumentError struct {
	Index int
	Name  string
	Err   error
}

func (e *MalformedDocumentError) Error() string {
	name := e.Name
	if name == "" {
		name = fmt.Sprintf("document #%d", e.Index+1)
	}
	if e.Err != nil {
		return fmt.Sprintf("drivepay: %s is not a valid PDF: %v", name, e.Err)
	}
	return fmt.Sprintf("drivepay: %s is not a valid PDF", name)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// SerializationError reports a failure to write the accumulated output.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("drivepay: writing merged document: %v", e.Err)
	}
	return "drivepay: writing merged document: unknown error"
}

func (e *SerializationError) Unwrap() error { return e.Err }

func (e *SerializationError) Is(target error) bool {
	return target == ErrSerialization
}

// Describe returns the single user-facing message for err's failure kind.
// Unknown errors fall back to err.Error().
func Describe(err error) string {
	var malformed *MalformedDocumentError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientInput):
		return "Please select at least 2 PDF files to merge."
	case errors.As(err, &malformed):
		name := malformed.Name
		if name == "" {
			name = fmt.Sprintf("file #%d", malformed.Index+1)
		}
		return fmt.Sprintf("%s could not be read as a PDF document.", name)
	case errors.Is(err, ErrSerialization):
		return "An error occurred while merging the PDF files."
	default:
		return err.Error()
	}
}
