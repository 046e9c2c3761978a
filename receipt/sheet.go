package receipt

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// Column headers recognised by ReadSalarySheet, after normalization
// (lower case, letters and digits only).
var sheetColumns = map[string]string{
	"company":            "companyName",
	"companyname":        "companyName",
	"companyaddress":     "companyAddress",
	"address":            "companyAddress",
	"employer":           "employerName",
	"employername":       "employerName",
	"date":               "billDate",
	"billdate":           "billDate",
	"period":             "period",
	"periodkind":         "period",
	"from":               "paymentPeriodStart",
	"periodstart":        "paymentPeriodStart",
	"paymentperiodstart": "paymentPeriodStart",
	"to":                 "paymentPeriodEnd",
	"periodend":          "paymentPeriodEnd",
	"paymentperiodend":   "paymentPeriodEnd",
	"fystart":            "startDateFY",
	"startdatefy":        "startDateFY",
	"billno":             "billNumber",
	"billnumber":         "billNumber",
	"driver":             "driverName",
	"drivername":         "driverName",
	"vehicle":            "vehicleNumber",
	"vehicleno":          "vehicleNumber",
	"vehiclenumber":      "vehicleNumber",
}

// Accepted date cell formats besides Excel serial numbers.
var sheetDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"2 January 2006",
}

func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ReadSalarySheet reads one salary slip per row from the first sheet of an
// xlsx workbook. Row 1 holds the headers. Recognised headers fill the
// matching fields; any other column is a salary breakdown item named by its
// header, with the cell as amount. Empty rows are skipped.
//
// Every bad cell is reported, each prefixed with its row number. Rows are
// not validated beyond parsing; RenderSlip does that.
func ReadSalarySheet(r io.Reader) ([]SalarySlipInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("receipt: opening spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("receipt: spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("receipt: reading sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("receipt: sheet %s has no salary rows", sheets[0])
	}

	headers := rows[0]
	var (
		inputs []SalarySlipInput
		errs   []error
	)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rowNum := i + 2
		in, rowErrs := parseSalaryRow(headers, row)
		for _, e := range rowErrs {
			errs = append(errs, fmt.Errorf("row %d: %w", rowNum, e))
		}
		inputs = append(inputs, in)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("receipt: reading salary sheet: %w", errors.Join(errs...))
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("receipt: sheet %s has no salary rows", sheets[0])
	}
	return inputs, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseSalaryRow(headers, row []string) (SalarySlipInput, []error) {
	var (
		in   SalarySlipInput
		errs []error
	)
	for col, raw := range row {
		value := strings.TrimSpace(raw)
		if value == "" || col >= len(headers) {
			continue
		}
		header := strings.TrimSpace(headers[col])
		if header == "" {
			continue
		}

		field, known := sheetColumns[normalizeHeader(header)]
		if !known {
			amount, err := parseAmount(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("column %q: %w", header, err))
				continue
			}
			in.SalaryBreakdown = append(in.SalaryBreakdown, SalaryItem{Item: header, Amount: amount})
			continue
		}

		switch field {
		case "companyName":
			in.CompanyName = value
		case "companyAddress":
			in.CompanyAddress = value
		case "employerName":
			in.EmployerName = value
		case "driverName":
			in.DriverName = value
		case "vehicleNumber":
			in.VehicleNumber = value
		case "billNumber":
			in.BillNumber = &value
		case "period":
			p, err := parsePeriodKind(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("column %q: %w", header, err))
			}
			in.Period = p
		default:
			d, err := parseSheetDate(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("column %q: %w", header, err))
				continue
			}
			switch field {
			case "billDate":
				in.BillDate = d
			case "paymentPeriodStart":
				in.PaymentPeriodStart = d
			case "paymentPeriodEnd":
				in.PaymentPeriodEnd = d
			case "startDateFY":
				in.StartDateFY = d
			}
		}
	}
	return in, errs
}

func parsePeriodKind(s string) (PeriodKind, error) {
	for _, p := range []PeriodKind{Monthly, Quarterly, Custom} {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// parseAmount accepts plain numbers and amounts written with a currency
// prefix or digit grouping, e.g. "Rs. 12,000".
func parseAmount(s string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "₹", "", " ", "").Replace(s)
	cleaned = strings.TrimPrefix(strings.TrimPrefix(cleaned, "Rs."), "Rs")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not an amount", s)
	}
	return v, nil
}

// parseSheetDate accepts the text layouts above and Excel serial day numbers,
// which is what date-formatted cells hold.
func parseSheetDate(s string) (Date, error) {
	for _, l := range sheetDateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return DateOf(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%q is not a date", s)
}
