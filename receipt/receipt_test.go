package receipt_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lvillar/drivepay/layout"
	"github.com/lvillar/drivepay/pageops"
	"github.com/lvillar/drivepay/receipt"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleSlip() receipt.SalarySlipInput {
	bill := "DP-7"
	return receipt.SalarySlipInput{
		EmployerName:       "A. Sharma",
		BillDate:           receipt.NewDate(2025, time.April, 1),
		Period:             receipt.Monthly,
		PaymentPeriodStart: receipt.NewDate(2025, time.April, 1),
		PaymentPeriodEnd:   receipt.NewDate(2025, time.April, 30),
		StartDateFY:        receipt.NewDate(2025, time.April, 1),
		BillNumber:         &bill,
		DriverName:         "Ravi Kumar",
		VehicleNumber:      "ka01ab1234",
		SalaryBreakdown: []receipt.SalaryItem{
			{Item: "Basic Salary", Amount: 15000},
			{Item: "Overtime", Amount: 3000},
		},
	}
}

func pageText(t *testing.T, pdf []byte) []string {
	t.Helper()
	contents, err := pageops.PageContents(pdf)
	require.NoError(t, err)
	out := make([]string, len(contents))
	for i, c := range contents {
		out[i] = string(c)
	}
	return out
}

func TestSplitQuarters(t *testing.T) {
	fy := day(2025, time.April, 1)

	tests := []struct {
		name       string
		fyStart    time.Time
		start, end time.Time
		want       []receipt.Span
	}{
		{
			name:    "full financial year",
			fyStart: fy,
			start:   day(2025, time.April, 1),
			end:     day(2026, time.March, 31),
			want: []receipt.Span{
				{Start: day(2025, time.April, 1), End: day(2025, time.June, 30), Quarter: 1},
				{Start: day(2025, time.July, 1), End: day(2025, time.September, 30), Quarter: 2},
				{Start: day(2025, time.October, 1), End: day(2025, time.December, 31), Quarter: 3},
				{Start: day(2026, time.January, 1), End: day(2026, time.March, 31), Quarter: 4},
			},
		},
		{
			name:    "partial quarters are clipped",
			fyStart: fy,
			start:   day(2025, time.May, 15),
			end:     day(2025, time.August, 10),
			want: []receipt.Span{
				{Start: day(2025, time.May, 15), End: day(2025, time.June, 30), Quarter: 1},
				{Start: day(2025, time.July, 1), End: day(2025, time.August, 10), Quarter: 2},
			},
		},
		{
			name:    "period before the financial year start",
			fyStart: fy,
			start:   day(2025, time.February, 1),
			end:     day(2025, time.April, 30),
			want: []receipt.Span{
				{Start: day(2025, time.February, 1), End: day(2025, time.March, 31), Quarter: 4},
				{Start: day(2025, time.April, 1), End: day(2025, time.April, 30), Quarter: 1},
			},
		},
		{
			name:  "zero financial year start means April",
			start: day(2025, time.June, 1),
			end:   day(2025, time.July, 31),
			want: []receipt.Span{
				{Start: day(2025, time.June, 1), End: day(2025, time.June, 30), Quarter: 1},
				{Start: day(2025, time.July, 1), End: day(2025, time.July, 31), Quarter: 2},
			},
		},
		{
			name:    "single day",
			fyStart: fy,
			start:   day(2025, time.December, 31),
			end:     day(2025, time.December, 31),
			want: []receipt.Span{
				{Start: day(2025, time.December, 31), End: day(2025, time.December, 31), Quarter: 3},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := receipt.SplitQuarters(tt.fyStart, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := receipt.SplitQuarters(fy, day(2025, time.May, 1), day(2025, time.April, 1))
	assert.ErrorIs(t, err, receipt.ErrEmptyPeriod)
}

func TestSpanString(t *testing.T) {
	s := receipt.Span{Start: day(2025, time.April, 1), End: day(2025, time.June, 30)}
	assert.Equal(t, "01 Apr 2025 to 30 Jun 2025", s.String())
}

func TestNormalize(t *testing.T) {
	in := sampleSlip()
	in.DriverName = "  <b>Ravi</b> Kumar "
	in.TotalSalary = 1
	in.Period = ""

	out := in.Normalize()
	assert.Equal(t, "Ravi Kumar", out.DriverName)
	assert.Equal(t, "KA01AB1234", out.VehicleNumber)
	assert.Equal(t, 18000.0, out.TotalSalary)
	assert.Equal(t, receipt.Custom, out.Period)

	// The original is untouched.
	assert.Equal(t, "  <b>Ravi</b> Kumar ", in.DriverName)
	assert.Equal(t, 1.0, in.TotalSalary)
}

func TestWithPeriodCopies(t *testing.T) {
	in := sampleSlip()
	span := receipt.Span{Start: day(2025, time.July, 1), End: day(2025, time.September, 30)}
	out := in.WithPeriod(span)
	out.SalaryBreakdown[0].Amount = 1

	assert.Equal(t, "2025-07-01", out.PaymentPeriodStart.String())
	assert.Equal(t, "2025-04-01", in.PaymentPeriodStart.String())
	assert.Equal(t, 15000.0, in.SalaryBreakdown[0].Amount)
}

func TestValidate(t *testing.T) {
	require.NoError(t, sampleSlip().Normalize().Validate())

	err := receipt.SalarySlipInput{Period: "Weekly"}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, receipt.ErrInvalidInput)

	var verr *receipt.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, len(verr.Problems))
	for i, p := range verr.Problems {
		fields[i] = p.Field
	}
	assert.Equal(t, []string{
		"employerName", "period", "paymentPeriodStart", "paymentPeriodEnd",
		"driverName", "vehicleNumber", "salaryBreakdown",
	}, fields)

	in := sampleSlip()
	in.PaymentPeriodEnd = receipt.NewDate(2025, time.March, 1)
	in.SalaryBreakdown = append(in.SalaryBreakdown, receipt.SalaryItem{Item: "", Amount: -5})
	bad := "data:text/plain;base64,aGk="
	in.StampDataURI = &bad
	err = in.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "paymentPeriodEnd must not be before paymentPeriodStart")
	assert.Contains(t, msg, "salaryBreakdown[2].item is required")
	assert.Contains(t, msg, "salaryBreakdown[2].amount must not be negative")
	assert.Contains(t, msg, "stampDataUri is not a usable image")

	q := sampleSlip()
	q.Period = receipt.Quarterly
	q.StartDateFY = receipt.Date{}
	assert.ErrorContains(t, q.Validate(), "startDateFY is required")
}

func TestValidateRejectsNonFiniteAmounts(t *testing.T) {
	for _, amount := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		in := sampleSlip()
		in.SalaryBreakdown[0].Amount = amount
		_, err := receipt.Prepare(in)
		assert.ErrorContains(t, err, "salaryBreakdown[0].amount must be a number", "amount %v", amount)
	}

	bill := sampleBook()
	bill.Summary.Shipping = math.NaN()
	bill.Items[0].Price = math.Inf(1)
	msg := bill.Validate().Error()
	assert.Contains(t, msg, "summary.shipping must be a number")
	assert.Contains(t, msg, "items[0].price must be a number")
}

func TestValidateRejectsBrokenImage(t *testing.T) {
	in := sampleSlip()
	broken := "data:image/png;base64,AAAA"
	in.SignatureDataURI = &broken
	assert.ErrorContains(t, in.Validate(), "signatureDataUri is not a usable image")
}

func TestLookup(t *testing.T) {
	in := sampleSlip().Normalize()

	v, ok := in.Lookup("period")
	require.True(t, ok)
	assert.Equal(t, "01 Apr 2025 to 30 Apr 2025", v)

	v, ok = in.Lookup("periodKind")
	require.True(t, ok)
	assert.Equal(t, "Monthly", v)

	v, ok = in.Lookup("salaryBreakdown")
	require.True(t, ok)
	assert.Equal(t, []layout.LineItem{{Item: "Basic Salary", Amount: 15000}, {Item: "Overtime", Amount: 3000}}, v)

	_, ok = in.Lookup("signatureDataUri")
	assert.False(t, ok)
	_, ok = in.Lookup("nope")
	assert.False(t, ok)

	v, _ = in.Lookup("verificationCode")
	assert.Equal(t, "DRIVEPAY|DP-7|Ravi Kumar|KA01AB1234|2025-04-01|2025-04-30|18000.00", v)

	assert.Equal(t, "paid Rs. 18,000 to Ravi Kumar", layout.Expand("paid {{totalSalary|amount}} to {{driverName}}", in))
}

func TestDateEncoding(t *testing.T) {
	var in struct {
		A receipt.Date `json:"a"`
		B receipt.Date `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2025-04-01","b":null}`), &in))
	assert.Equal(t, day(2025, time.April, 1), in.A.Time)
	assert.True(t, in.B.IsZero())

	out, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"2025-04-01","b":""}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"a":"01/04/2025"}`), &in))

	var y struct {
		Start receipt.Date `yaml:"start"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("start: 2026-03-31\n"), &y))
	assert.Equal(t, "2026-03-31", y.Start.String())
}

func TestStaticLayout(t *testing.T) {
	ctx := context.Background()
	in := sampleSlip().Normalize()

	l, err := receipt.StaticLayout{}.Generate(ctx, in)
	require.NoError(t, err)
	require.NoError(t, layout.Validate(l))
	assert.Equal(t, layout.HintRightAlign, l.Sections[0].LayoutHint)
	assert.Len(t, l.Sections[0].Elements, 2, "bill number shown next to the date")
	assert.Equal(t, "Driver Salary Receipt", l.Sections[1].Title)
	last := l.Sections[len(l.Sections)-1]
	assert.Equal(t, layout.HintBottomAuth, last.LayoutHint)
	require.Len(t, last.Elements, 3)
	assert.Equal(t, "Revenue Stamp", last.Elements[0].Label)
	assert.Equal(t, layout.TypeBarcode, last.Elements[1].Type)
	assert.Equal(t, "Signature", last.Elements[2].Label)

	in.BillNumber = nil
	in.CompanyName = "Acme Logistics"
	l, err = receipt.StaticLayout{Title: "Salary Receipt", ShowBreakdown: true, OmitVerificationCode: true}.Generate(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Acme Logistics", mustLookup(t, in, l.Sections[0].Elements[0].Key))
	assert.Len(t, l.Sections[1].Elements, 1)
	assert.Equal(t, "Salary Receipt", l.Sections[2].Title)

	var types []string
	for _, s := range l.Sections {
		for _, e := range s.Elements {
			types = append(types, e.Type)
		}
	}
	assert.Contains(t, types, layout.TypeTable)
	assert.NotContains(t, types, layout.TypeBarcode)
}

func mustLookup(t *testing.T, d layout.Data, key string) any {
	t.Helper()
	v, ok := d.Lookup(key)
	require.True(t, ok, key)
	return v
}

func TestRenderSlipMonthly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, receipt.RenderSlip(context.Background(), &buf, sampleSlip(), nil))

	pages := pageText(t, buf.Bytes())
	require.Len(t, pages, 1)
	for _, want := range []string{
		"DRIVER SALARY RECEIPT",
		"KA01AB1234",
		"Ravi Kumar",
		"01 Apr 2025 to 30 Apr 2025",
		"DP-7",
		"Revenue Stamp Space",
		"Signature Space",
	} {
		assert.Contains(t, pages[0], want)
	}
}

func TestRenderSlipQuarterly(t *testing.T) {
	in := sampleSlip()
	in.Period = receipt.Quarterly
	in.PaymentPeriodEnd = receipt.NewDate(2026, time.March, 31)

	var buf bytes.Buffer
	require.NoError(t, receipt.RenderSlip(context.Background(), &buf, in, nil))

	pages := pageText(t, buf.Bytes())
	require.Len(t, pages, 4)
	assert.Contains(t, pages[0], "01 Apr 2025 to 30 Jun 2025")
	assert.Contains(t, pages[1], "01 Jul 2025 to 30 Sep 2025")
	assert.Contains(t, pages[2], "01 Oct 2025 to 31 Dec 2025")
	assert.Contains(t, pages[3], "01 Jan 2026 to 31 Mar 2026")
}

func TestRenderSlipInvalid(t *testing.T) {
	var buf bytes.Buffer
	err := receipt.RenderSlip(context.Background(), &buf, receipt.SalarySlipInput{}, nil)
	assert.ErrorIs(t, err, receipt.ErrInvalidInput)
	assert.Zero(t, buf.Len())
}

func TestRenderSlipCustomGenerator(t *testing.T) {
	fixed := &layout.Layout{Sections: []layout.Section{{Elements: []layout.Element{
		{Type: layout.TypeText, Key: "driverName", Label: "Paid to"},
	}}}}
	var buf bytes.Buffer
	require.NoError(t, receipt.RenderSlip(context.Background(), &buf, sampleSlip(), receipt.FixedLayout(fixed)))
	pages := pageText(t, buf.Bytes())
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0], "Paid to:")
	assert.NotContains(t, pages[0], "DRIVER SALARY RECEIPT")

	failing := receipt.GeneratorFunc(func(context.Context, receipt.SalarySlipInput) (*layout.Layout, error) {
		return nil, errors.New("model unavailable")
	})
	err := receipt.RenderSlip(context.Background(), &buf, sampleSlip(), failing)
	assert.ErrorContains(t, err, "model unavailable")
}

func TestRenderSlipBatch(t *testing.T) {
	quarterly := sampleSlip()
	quarterly.DriverName = "Suresh"
	quarterly.Period = receipt.Quarterly
	quarterly.PaymentPeriodEnd = receipt.NewDate(2026, time.March, 31)

	inputs := []receipt.SalarySlipInput{sampleSlip(), quarterly, sampleSlip()}
	doc, err := receipt.RenderSlipBatch(context.Background(), inputs, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, doc.PageCount)

	pages := pageText(t, doc.Bytes)
	require.Len(t, pages, 6)
	assert.Contains(t, pages[0], "Ravi Kumar")
	assert.Contains(t, pages[1], "Suresh")
	assert.Contains(t, pages[4], "Suresh")
	assert.Contains(t, pages[5], "Ravi Kumar")

	single, err := receipt.RenderSlipBatch(context.Background(), inputs[:1], nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, single.PageCount)
}

func TestRenderSlipBatchReportsFirstFailure(t *testing.T) {
	bad := sampleSlip()
	bad.DriverName = ""
	inputs := []receipt.SalarySlipInput{sampleSlip(), bad, bad}

	_, err := receipt.RenderSlipBatch(context.Background(), inputs, nil, 3)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "receipt: slip 2 "), err.Error())
	assert.ErrorIs(t, err, receipt.ErrInvalidInput)

	_, err = receipt.RenderSlipBatch(context.Background(), nil, nil, 1)
	assert.Error(t, err)
}
