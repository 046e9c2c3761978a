package layout

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Date layouts used on printed documents.
const (
	ShortDate = "02 Jan 2006"
	LongDate  = "2 January 2006"
	ISODate   = "2006-01-02"
)

// CurrencyPrefix precedes formatted amounts. The standard PDF fonts have no
// rupee sign glyph.
const CurrencyPrefix = "Rs. "

var indianEnglish = language.MustParse("en-IN")

// FormatCurrency formats an INR amount with Indian digit grouping and the
// given number of fraction digits, e.g. "Rs. 12,000" or "Rs. 499.00".
func FormatCurrency(amount float64, fractionDigits int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	n := number.Decimal(amount,
		number.MinFractionDigits(fractionDigits),
		number.MaxFractionDigits(fractionDigits),
	)
	return sign + CurrencyPrefix + message.NewPrinter(indianEnglish).Sprint(n)
}

// FormatDate formats t as "02 Jan 2006".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(ShortDate)
}

// FormatValue formats a looked-up value for an element of type typ.
// Amounts accept any numeric value or numeric string; dates accept
// time.Time or "2006-01-02" strings.
func FormatValue(v any, typ string) string {
	if v == nil {
		return ""
	}
	switch typ {
	case TypeAmount:
		if f, ok := toFloat(v); ok {
			return FormatCurrency(f, 0)
		}
	case TypeDate:
		if t, ok := toTime(v); ok {
			return FormatDate(t)
		}
	}
	switch v := v.(type) {
	case time.Time:
		return FormatDate(v)
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch v := v.(type) {
	case time.Time:
		return v, !v.IsZero()
	case string:
		t, err := time.Parse(ISODate, strings.TrimSpace(v))
		return t, err == nil
	}
	return time.Time{}, false
}
