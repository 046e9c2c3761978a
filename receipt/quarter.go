package receipt

import (
	"errors"
	"fmt"
	"time"

	"github.com/lvillar/drivepay/layout"
)

// Span is an inclusive range of calendar days.
type Span struct {
	Start   time.Time
	End     time.Time
	Quarter int // 1-4 within the financial year; 0 when not a quarter
}

func (s Span) String() string {
	return layout.FormatDate(s.Start) + " to " + layout.FormatDate(s.End)
}

// ErrEmptyPeriod is returned when a period ends before it starts.
var ErrEmptyPeriod = errors.New("receipt: period ends before it starts")

// SplitQuarters divides [start, end] into financial-year quarters.
//
// Quarters are consecutive three-month windows anchored at fyStart's month
// and day, extended backwards and forwards as far as needed, so a start date
// before fyStart falls in the previous year's last quarter. Each returned
// span is one quarter intersected with [start, end], in chronological order.
// A zero fyStart anchors at 1 April, the Indian financial year.
func SplitQuarters(fyStart, start, end time.Time) ([]Span, error) {
	start, end = day(start), day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s is before %s", ErrEmptyPeriod, layout.FormatDate(end), layout.FormatDate(start))
	}

	anchor := day(fyStart)
	if fyStart.IsZero() {
		anchor = time.Date(start.Year(), time.April, 1, 0, 0, 0, 0, time.UTC)
	}
	quarterStart := func(n int) time.Time {
		return anchor.AddDate(0, 3*n, 0)
	}

	months := (start.Year()-anchor.Year())*12 + int(start.Month()-anchor.Month())
	n := floorDiv(months, 3)
	for quarterStart(n).After(start) {
		n--
	}
	for !quarterStart(n + 1).After(start) {
		n++
	}

	var spans []Span
	for ; !quarterStart(n).After(end); n++ {
		qs, qe := quarterStart(n), quarterStart(n+1).AddDate(0, 0, -1)
		s := Span{Start: qs, End: qe, Quarter: floorMod(n, 4) + 1}
		if s.Start.Before(start) {
			s.Start = start
		}
		if s.End.After(end) {
			s.End = end
		}
		spans = append(spans, s)
	}
	return spans, nil
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
