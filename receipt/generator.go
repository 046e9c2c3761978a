package receipt

import (
	"context"

	"github.com/lvillar/drivepay/layout"
)

// LayoutGenerator produces the layout a salary receipt is rendered with.
// The renderer does not know or care which implementation produced it.
type LayoutGenerator interface {
	Generate(ctx context.Context, in SalarySlipInput) (*layout.Layout, error)
}

// GeneratorFunc adapts a function to LayoutGenerator.
type GeneratorFunc func(ctx context.Context, in SalarySlipInput) (*layout.Layout, error)

func (f GeneratorFunc) Generate(ctx context.Context, in SalarySlipInput) (*layout.Layout, error) {
	return f(ctx, in)
}

// FixedLayout always returns the same layout, e.g. one loaded from a file.
func FixedLayout(l *layout.Layout) LayoutGenerator {
	return GeneratorFunc(func(context.Context, SalarySlipInput) (*layout.Layout, error) {
		return l, nil
	})
}

const (
	certification = "This is to certify that Mr./Ms. {{employerName}} have paid {{totalSalary|amount}} " +
		"to driver Mr/Ms {{driverName}} towards salary of the period {{paymentPeriodStart|date}} " +
		"to {{paymentPeriodEnd|date}} (Acknowledged receipt enclosed). " +
		"I also declare that the driver is exclusively utilized for official purpose only."

	reimbursement = "Please reimburse the above amount. " +
		"I further declare that what is stated above is correct and true."
)

// StaticLayout is the standard receipt: date top right, centered title,
// certification and reimbursement paragraphs, vehicle and period, driver
// name, then revenue stamp and signature at the foot of the page.
type StaticLayout struct {
	Title string // default "Driver Salary Receipt"

	// ShowBreakdown adds the itemised salary table below the driver name.
	ShowBreakdown bool

	// OmitVerificationCode drops the QR code between stamp and signature.
	OmitVerificationCode bool
}

// Generate implements LayoutGenerator.
func (g StaticLayout) Generate(_ context.Context, in SalarySlipInput) (*layout.Layout, error) {
	title := g.Title
	if title == "" {
		title = "Driver Salary Receipt"
	}

	dateRow := []layout.Element{
		{Type: layout.TypeDate, Key: "billDate", Label: "Date", Alignment: "right"},
	}
	if in.BillNumber != nil && *in.BillNumber != "" {
		dateRow = append(dateRow, layout.Element{Type: layout.TypeText, Key: "billNumber", Label: "Bill No.", Alignment: "right"})
	}

	var sections []layout.Section
	if in.CompanyName != "" {
		company := []layout.Element{{Type: layout.TypeText, Key: "companyName", Label: "Company", Emphasize: true}}
		if in.CompanyAddress != "" {
			company = append(company, layout.Element{Type: layout.TypeText, Key: "companyAddress", Label: "Address"})
		}
		sections = append(sections, layout.Section{Elements: company})
	}

	sections = append(sections,
		layout.Section{LayoutHint: layout.HintRightAlign, Elements: dateRow},
		layout.Section{Title: title, Elements: []layout.Element{
			{Type: layout.TypeParagraph, Content: certification},
			{Type: layout.TypeParagraph, Content: reimbursement},
		}},
		layout.Section{LayoutHint: layout.HintTwoColumns, Elements: []layout.Element{
			{Type: layout.TypeText, Key: "vehicleNumber", Label: "Vehicle Number", Emphasize: true},
			{Type: layout.TypeText, Key: "period", Label: "Period"},
		}},
		layout.Section{Elements: []layout.Element{
			{Type: layout.TypeText, Key: "driverName", Label: "Driver Name", Emphasize: true},
		}},
	)

	if g.ShowBreakdown {
		sections = append(sections, layout.Section{Elements: []layout.Element{
			{Type: layout.TypeTable, Key: "salaryBreakdown", Headers: []string{"Item", "Amount"}},
		}})
	}

	auth := []layout.Element{
		{Type: layout.TypeImage, Key: "stampDataUri", Label: "Revenue Stamp", PositionHint: "bottom-left"},
	}
	if !g.OmitVerificationCode {
		auth = append(auth, layout.Element{Type: layout.TypeBarcode, Key: "verificationCode", Symbology: layout.SymbologyQR, Alignment: "center"})
	}
	auth = append(auth, layout.Element{Type: layout.TypeImage, Key: "signatureDataUri", Label: "Signature", PositionHint: "bottom-right"})
	sections = append(sections, layout.Section{LayoutHint: layout.HintBottomAuth, Elements: auth})

	return &layout.Layout{
		Sections:          sections,
		OverallDesignGoal: "Formal single-page receipt suitable for reimbursement claims.",
	}, nil
}
