package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lvillar/drivepay"
	"github.com/lvillar/drivepay/pageops"
	"github.com/lvillar/drivepay/receipt"
)

const (
	headerPageCount = "X-Page-Count"
	mimePDF         = "application/pdf"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error    string               `json:"error"`
	File     string               `json:"file,omitempty"`
	Index    *int                 `json:"index,omitempty"`
	Problems []receipt.FieldError `json:"problems,omitempty"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getDefaults(c echo.Context) error {
	return c.JSON(http.StatusOK, s.defaults)
}

// merge combines the uploaded "files" in upload order.
func (s *Server) merge(c echo.Context) error {
	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		files = form.File["files"]
	}

	docs := make([]pageops.SourceDocument, 0, len(files))
	for _, fh := range files {
		b, err := readUpload(fh)
		if err != nil {
			log.Printf("[ERROR] reading upload %s: %v", fh.Filename, err)
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "Failed to read " + fh.Filename})
		}
		docs = append(docs, pageops.SourceDocument{Bytes: b, DisplayName: fh.Filename})
	}

	doc, err := s.combiner.Merge(c.Request().Context(), docs...)
	if err != nil {
		return writeError(c, err)
	}

	out := doc.Bytes
	if number, _ := strconv.ParseBool(c.FormValue("numberPages")); number {
		out, err = pageops.NumberPages(out, pageops.PageNumberStyle{})
		if err != nil {
			return writeError(c, err)
		}
	}
	c.Response().Header().Set(headerPageCount, strconv.Itoa(doc.PageCount))
	return sendPDF(c, "merged", out)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// slipGenerator builds the static layout from query flags:
// breakdown=true adds the salary table, verification=false drops the QR code.
func slipGenerator(c echo.Context) receipt.StaticLayout {
	g := receipt.StaticLayout{Title: c.QueryParam("title")}
	g.ShowBreakdown, _ = strconv.ParseBool(c.QueryParam("breakdown"))
	if v, err := strconv.ParseBool(c.QueryParam("verification")); err == nil {
		g.OmitVerificationCode = !v
	}
	return g
}

func (s *Server) salarySlipLayout(c echo.Context) error {
	var in receipt.SalarySlipInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid salary slip: " + bindMessage(err)})
	}
	in, err := receipt.Prepare(in)
	if err != nil {
		return writeError(c, err)
	}
	l, err := slipGenerator(c).Generate(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (s *Server) renderSalarySlip(c echo.Context) error {
	var in receipt.SalarySlipInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid salary slip: " + bindMessage(err)})
	}
	b, err := receipt.RenderSlipBytes(c.Request().Context(), in, slipGenerator(c))
	if err != nil {
		return writeError(c, err)
	}
	return sendPDF(c, "salary-slip", b)
}

// renderSalarySlipBatch renders one receipt per row of the uploaded "sheet".
func (s *Server) renderSalarySlipBatch(c echo.Context) error {
	fh, err := c.FormFile("sheet")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "No spreadsheet uploaded"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to open spreadsheet"})
	}
	defer f.Close()

	inputs, err := receipt.ReadSalarySheet(f)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), File: fh.Filename})
	}
	doc, err := receipt.RenderSlipBatch(c.Request().Context(), inputs, slipGenerator(c), s.cfg.MergeParallelism)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set(headerPageCount, strconv.Itoa(doc.PageCount))
	return sendPDF(c, "salary-slips", doc.Bytes)
}

func (s *Server) renderBookBill(c echo.Context) error {
	var in receipt.BookBillInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid book bill: " + bindMessage(err)})
	}
	b, err := receipt.RenderBookBillBytes(in)
	if err != nil {
		return writeError(c, err)
	}
	return sendPDF(c, "order-summary", b)
}

func sendPDF(c echo.Context, prefix string, b []byte) error {
	name := fmt.Sprintf("%s-%s.pdf", prefix, uuid.NewString()[:8])
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, mimePDF, b)
}

func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			return he.Internal.Error()
		}
		return fmt.Sprint(he.Message)
	}
	return err.Error()
}

// writeError maps each failure kind to one status and message.
func writeError(c echo.Context, err error) error {
	var (
		verr      *receipt.ValidationError
		malformed *drivepay.MalformedDocumentError
	)
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Problems: verr.Problems})
	case errors.Is(err, drivepay.ErrInsufficientInput):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: drivepay.Describe(err)})
	case errors.As(err, &malformed):
		idx := malformed.Index
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{
			Error: drivepay.Describe(err),
			File:  malformed.Name,
			Index: &idx,
		})
	case errors.Is(err, drivepay.ErrSerialization):
		log.Printf("[ERROR] %s: %v", c.Request().URL.Path, err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: drivepay.Describe(err)})
	default:
		log.Printf("[ERROR] %s: %v", c.Request().URL.Path, err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to generate document"})
	}
}
