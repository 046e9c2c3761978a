package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/lvillar/drivepay/layout"
	"github.com/lvillar/drivepay/pageops"
)

// Prepare normalizes in and validates the result.
func Prepare(in SalarySlipInput) (SalarySlipInput, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return SalarySlipInput{}, err
	}
	return in, nil
}

// Periods returns the copies of in that each get their own page: one per
// quarter for Quarterly input, otherwise in itself.
func Periods(in SalarySlipInput) ([]SalarySlipInput, error) {
	if in.Period != Quarterly {
		return []SalarySlipInput{in}, nil
	}
	spans, err := SplitQuarters(in.StartDateFY.Time, in.PaymentPeriodStart.Time, in.PaymentPeriodEnd.Time)
	if err != nil {
		return nil, err
	}
	out := make([]SalarySlipInput, len(spans))
	for i, s := range spans {
		out[i] = in.WithPeriod(s)
	}
	return out, nil
}

// SlipPages prepares in and pairs each of its periods with the layout gen
// produces for it. A nil gen uses StaticLayout.
func SlipPages(ctx context.Context, in SalarySlipInput, gen LayoutGenerator) ([]layout.Page, error) {
	if gen == nil {
		gen = StaticLayout{}
	}
	in, err := Prepare(in)
	if err != nil {
		return nil, err
	}
	periods, err := Periods(in)
	if err != nil {
		return nil, err
	}

	pages := make([]layout.Page, 0, len(periods))
	for _, p := range periods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		l, err := gen.Generate(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("receipt: generating layout: %w", err)
		}
		pages = append(pages, layout.Page{Layout: l, Data: p})
	}
	return pages, nil
}

func slipOptions(in SalarySlipInput) []layout.Option {
	return []layout.Option{
		layout.WithMetadata("Driver Salary Receipt", clean(in.EmployerName)),
	}
}

// RenderSlipBytes renders the receipt for in and returns the PDF.
func RenderSlipBytes(ctx context.Context, in SalarySlipInput, gen LayoutGenerator) ([]byte, error) {
	pages, err := SlipPages(ctx, in, gen)
	if err != nil {
		return nil, err
	}
	return layout.RenderBytes(pages, slipOptions(in)...)
}

// RenderSlip writes the receipt for in to w. Monthly and Custom periods give
// one page; Quarterly periods give one page per quarter in the period.
func RenderSlip(ctx context.Context, w io.Writer, in SalarySlipInput, gen LayoutGenerator) error {
	b, err := RenderSlipBytes(ctx, in, gen)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// RenderSlipBatch renders every input concurrently, at most parallelism at a
// time, and merges the results in input order. The first failing input, by
// position, is reported.
func RenderSlipBatch(ctx context.Context, inputs []SalarySlipInput, gen LayoutGenerator, parallelism int) (*pageops.MergedDocument, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("receipt: no salary slips to render")
	}
	if parallelism < 1 {
		parallelism = 1
	}

	docs := make([]pageops.SourceDocument, len(inputs))
	errs := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, in := range inputs {
		g.Go(func() error {
			b, err := RenderSlipBytes(gctx, in, gen)
			if err != nil {
				if errors.Is(err, context.Canceled) && ctx.Err() == nil {
					return err // a sibling failed first
				}
				errs[i] = fmt.Errorf("receipt: slip %d (%s): %w", i+1, slipName(in), err)
				return errs[i]
			}
			docs[i] = pageops.SourceDocument{Bytes: b, DisplayName: fmt.Sprintf("slip %d", i+1)}
			return nil
		})
	}
	waitErr := g.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if waitErr != nil {
		return nil, waitErr
	}

	if len(docs) == 1 {
		n, err := pageops.PageCount(docs[0].Bytes)
		if err != nil {
			return nil, err
		}
		return &pageops.MergedDocument{Bytes: docs[0].Bytes, PageCount: n}, nil
	}
	return pageops.NewCombiner(pageops.WithParallelism(parallelism)).Merge(ctx, docs...)
}

func slipName(in SalarySlipInput) string {
	if name := clean(in.DriverName); name != "" {
		return name
	}
	return "unnamed driver"
}
