// Package receipt builds printable driver salary receipts and book order
// summaries from form input.
//
// Inputs are plain values. Methods that change an input return a modified
// copy, so a caller's draft is never altered by rendering it.
package receipt

import (
	"errors"
	"fmt"
	"html"
	"math"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/lvillar/drivepay/layout"
)

// PeriodKind is how a salary payment period is divided into receipts.
type PeriodKind string

const (
	Monthly   PeriodKind = "Monthly"
	Quarterly PeriodKind = "Quarterly"
	Custom    PeriodKind = "Custom"
)

// Valid reports whether p is a known period kind.
func (p PeriodKind) Valid() bool {
	switch p {
	case Monthly, Quarterly, Custom:
		return true
	}
	return false
}

// SalaryItem is one line of a salary breakdown.
type SalaryItem struct {
	Item   string  `json:"item" yaml:"item"`
	Amount float64 `json:"amount" yaml:"amount"`
}

// SalarySlipInput holds everything printed on a driver salary receipt.
type SalarySlipInput struct {
	CompanyName        string       `json:"companyName" yaml:"companyName"`
	CompanyAddress     string       `json:"companyAddress" yaml:"companyAddress"`
	EmployerName       string       `json:"employerName" yaml:"employerName"`
	BillDate           Date         `json:"billDate" yaml:"billDate"`
	Period             PeriodKind   `json:"period" yaml:"period"`
	PaymentPeriodStart Date         `json:"paymentPeriodStart" yaml:"paymentPeriodStart"`
	PaymentPeriodEnd   Date         `json:"paymentPeriodEnd" yaml:"paymentPeriodEnd"`
	StartDateFY        Date         `json:"startDateFY" yaml:"startDateFY"`
	BillNumber         *string      `json:"billNumber" yaml:"billNumber"`
	DriverName         string       `json:"driverName" yaml:"driverName"`
	VehicleNumber      string       `json:"vehicleNumber" yaml:"vehicleNumber"`
	SalaryBreakdown    []SalaryItem `json:"salaryBreakdown" yaml:"salaryBreakdown"`
	TotalSalary        float64      `json:"totalSalary" yaml:"totalSalary"`
	SignatureDataURI   *string      `json:"signatureDataUri" yaml:"signatureDataUri"`
	StampDataURI       *string      `json:"stampDataUri" yaml:"stampDataUri"`
}

// Total returns the sum of the breakdown amounts.
func (in SalarySlipInput) Total() float64 {
	total := 0.0
	for _, it := range in.SalaryBreakdown {
		total += it.Amount
	}
	return total
}

var strict = bluemonday.StrictPolicy()

// clean strips markup from user-entered text.
func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

func cleanPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Normalize returns a copy with markup stripped from free text, an empty
// period treated as Custom and TotalSalary recomputed from the breakdown.
func (in SalarySlipInput) Normalize() SalarySlipInput {
	out := in
	out.CompanyName = clean(in.CompanyName)
	out.CompanyAddress = clean(in.CompanyAddress)
	out.EmployerName = clean(in.EmployerName)
	out.DriverName = clean(in.DriverName)
	out.VehicleNumber = strings.ToUpper(clean(in.VehicleNumber))
	if in.BillNumber != nil {
		bn := clean(*in.BillNumber)
		out.BillNumber = &bn
	}
	out.BillNumber = cleanPtr(out.BillNumber)
	out.SignatureDataURI = cleanPtr(in.SignatureDataURI)
	out.StampDataURI = cleanPtr(in.StampDataURI)
	if out.Period == "" {
		out.Period = Custom
	}

	out.SalaryBreakdown = make([]SalaryItem, len(in.SalaryBreakdown))
	for i, it := range in.SalaryBreakdown {
		out.SalaryBreakdown[i] = SalaryItem{Item: clean(it.Item), Amount: it.Amount}
	}
	out.TotalSalary = out.Total()
	return out
}

// WithPeriod returns a copy covering only span.
func (in SalarySlipInput) WithPeriod(span Span) SalarySlipInput {
	out := in
	out.SalaryBreakdown = slices.Clone(in.SalaryBreakdown)
	out.PaymentPeriodStart = DateOf(span.Start)
	out.PaymentPeriodEnd = DateOf(span.End)
	return out
}

// ErrInvalidInput is matched by every *ValidationError.
var ErrInvalidInput = errors.New("receipt: invalid input")

// FieldError is a problem with one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field problem found in an input.
type ValidationError struct {
	Kind     string       `json:"kind"`
	Problems []FieldError `json:"problems"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Field + " " + p.Message
	}
	return fmt.Sprintf("receipt: invalid %s: %s", e.Kind, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e *ValidationError) add(field, msg string) {
	e.Problems = append(e.Problems, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// Validate reports every missing or inconsistent field. It returns nil or
// a *ValidationError.
func (in SalarySlipInput) Validate() error {
	v := &ValidationError{Kind: "salary slip"}

	required := []struct{ field, value string }{
		{"employerName", in.EmployerName},
		{"driverName", in.DriverName},
		{"vehicleNumber", in.VehicleNumber},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			v.add(r.field, "is required")
		}
	}

	if in.Period != "" && !in.Period.Valid() {
		v.add("period", fmt.Sprintf("must be Monthly, Quarterly or Custom, got %q", in.Period))
	}
	if in.PaymentPeriodStart.IsZero() {
		v.add("paymentPeriodStart", "is required")
	}
	if in.PaymentPeriodEnd.IsZero() {
		v.add("paymentPeriodEnd", "is required")
	}
	if !in.PaymentPeriodStart.IsZero() && !in.PaymentPeriodEnd.IsZero() &&
		in.PaymentPeriodEnd.Before(in.PaymentPeriodStart.Time) {
		v.add("paymentPeriodEnd", "must not be before paymentPeriodStart")
	}
	if in.Period == Quarterly && in.StartDateFY.IsZero() {
		v.add("startDateFY", "is required for quarterly receipts")
	}

	if len(in.SalaryBreakdown) == 0 {
		v.add("salaryBreakdown", "needs at least one item")
	}
	for i, it := range in.SalaryBreakdown {
		if strings.TrimSpace(it.Item) == "" {
			v.add(fmt.Sprintf("salaryBreakdown[%d].item", i), "is required")
		}
		if msg := amountProblem(it.Amount); msg != "" {
			v.add(fmt.Sprintf("salaryBreakdown[%d].amount", i), msg)
		}
	}

	for field, uri := range map[string]*string{"signatureDataUri": in.SignatureDataURI, "stampDataUri": in.StampDataURI} {
		if uri == nil || *uri == "" {
			continue
		}
		if _, err := layout.DecodeDataURI(*uri); err != nil {
			v.add(field, "is not a usable image: "+strings.TrimPrefix(err.Error(), "layout: "))
		}
	}
	slices.SortStableFunc(v.Problems, func(a, b FieldError) int {
		return fieldOrder(a.Field) - fieldOrder(b.Field)
	})

	return v.orNil()
}

// fieldOrder keeps problems in form order regardless of check order.
// amountProblem describes why f cannot be printed as money, or returns "".
func amountProblem(f float64) string {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return "must be a number"
	case f < 0:
		return "must not be negative"
	}
	return ""
}

func fieldOrder(field string) int {
	order := []string{
		"employerName", "period", "paymentPeriodStart", "paymentPeriodEnd", "startDateFY",
		"driverName", "vehicleNumber", "salaryBreakdown", "signatureDataUri", "stampDataUri",
	}
	base, _, _ := strings.Cut(field, "[")
	if i := slices.Index(order, base); i >= 0 {
		return i
	}
	return len(order)
}

// PeriodText is the payment period as printed, e.g. "01 Apr 2025 to 30 Jun 2025".
func (in SalarySlipInput) PeriodText() string {
	return layout.FormatDate(in.PaymentPeriodStart.Time) + " to " + layout.FormatDate(in.PaymentPeriodEnd.Time)
}

// VerificationCode is the payload of the receipt's QR code.
func (in SalarySlipInput) VerificationCode() string {
	bill := ""
	if in.BillNumber != nil {
		bill = *in.BillNumber
	}
	return strings.Join([]string{
		"DRIVEPAY",
		bill,
		in.DriverName,
		in.VehicleNumber,
		in.PaymentPeriodStart.String(),
		in.PaymentPeriodEnd.String(),
		fmt.Sprintf("%.2f", in.TotalSalary),
	}, "|")
}

// Lookup implements layout.Data. The key "period" yields the printed period
// range rather than the period kind, which is available as "periodKind".
func (in SalarySlipInput) Lookup(key string) (any, bool) {
	switch key {
	case "companyName":
		return in.CompanyName, true
	case "companyAddress":
		return in.CompanyAddress, true
	case "employerName":
		return in.EmployerName, true
	case "billDate":
		return in.BillDate.Time, true
	case "period":
		return in.PeriodText(), true
	case "periodKind":
		return string(in.Period), true
	case "paymentPeriodStart":
		return in.PaymentPeriodStart.Time, true
	case "paymentPeriodEnd":
		return in.PaymentPeriodEnd.Time, true
	case "startDateFY":
		return in.StartDateFY.Time, true
	case "billNumber":
		return deref(in.BillNumber)
	case "driverName":
		return in.DriverName, true
	case "vehicleNumber":
		return in.VehicleNumber, true
	case "salaryBreakdown":
		items := make([]layout.LineItem, len(in.SalaryBreakdown))
		for i, it := range in.SalaryBreakdown {
			items[i] = layout.LineItem{Item: it.Item, Amount: it.Amount}
		}
		return items, true
	case "totalSalary":
		return in.TotalSalary, true
	case "signatureDataUri":
		return deref(in.SignatureDataURI)
	case "stampDataUri":
		return deref(in.StampDataURI)
	case "verificationCode":
		return in.VerificationCode(), true
	}
	return nil, false
}

func deref(s *string) (any, bool) {
	if s == nil || *s == "" {
		return nil, false
	}
	return *s, true
}
