package receipt_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lvillar/drivepay/receipt"
)

func workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadSalarySheet(t *testing.T) {
	buf := workbook(t,
		[]any{"Employer Name*", "Driver", "Vehicle No.", "Period", "From", "To", "FY Start", "Bill No", "Basic Salary", "Overtime"},
		[]any{"A. Sharma", "Ravi Kumar", "KA01AB1234", "monthly", "2025-04-01", "30/04/2025", "2025-04-01", "B-1", 15000, "Rs. 3,000"},
		[]any{},
		[]any{"A. Sharma", "Suresh", "KA02CD5678", "Quarterly", 45748, "2026-03-31", 45748, "", 16000},
	)

	inputs, err := receipt.ReadSalarySheet(buf)
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	first := inputs[0]
	assert.Equal(t, "A. Sharma", first.EmployerName)
	assert.Equal(t, "Ravi Kumar", first.DriverName)
	assert.Equal(t, "KA01AB1234", first.VehicleNumber)
	assert.Equal(t, receipt.Monthly, first.Period)
	assert.Equal(t, "2025-04-01", first.PaymentPeriodStart.String())
	assert.Equal(t, "2025-04-30", first.PaymentPeriodEnd.String())
	require.NotNil(t, first.BillNumber)
	assert.Equal(t, "B-1", *first.BillNumber)
	assert.Equal(t, []receipt.SalaryItem{
		{Item: "Basic Salary", Amount: 15000},
		{Item: "Overtime", Amount: 3000},
	}, first.SalaryBreakdown)

	second := inputs[1]
	assert.Equal(t, receipt.Quarterly, second.Period)
	assert.Equal(t, receipt.NewDate(2025, time.April, 1), second.PaymentPeriodStart)
	assert.Equal(t, receipt.NewDate(2025, time.April, 1), second.StartDateFY)
	assert.Nil(t, second.BillNumber)
	assert.Equal(t, []receipt.SalaryItem{{Item: "Basic Salary", Amount: 16000}}, second.SalaryBreakdown)
	require.NoError(t, second.Normalize().Validate())
}

func TestReadSalarySheetReportsEveryBadCell(t *testing.T) {
	buf := workbook(t,
		[]any{"Employer", "Driver", "From", "Basic Salary"},
		[]any{"A. Sharma", "Ravi", "yesterday", 100},
		[]any{"A. Sharma", "Suresh", "2025-04-01", "lots"},
	)

	_, err := receipt.ReadSalarySheet(buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `row 2: column "From": "yesterday" is not a date`)
	assert.Contains(t, err.Error(), `row 3: column "Basic Salary": "lots" is not an amount`)
}

func TestReadSalarySheetRejectsNonFiniteAmounts(t *testing.T) {
	buf := workbook(t,
		[]any{"Employer", "Driver", "Basic Salary", "Overtime"},
		[]any{"A. Sharma", "Ravi", "NaN", "-Inf"},
	)

	_, err := receipt.ReadSalarySheet(buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `row 2: column "Basic Salary": "NaN" is not an amount`)
	assert.Contains(t, err.Error(), `row 2: column "Overtime": "-Inf" is not an amount`)
}

func TestReadSalarySheetEmpty(t *testing.T) {
	_, err := receipt.ReadSalarySheet(workbook(t, []any{"Employer", "Driver"}))
	assert.ErrorContains(t, err, "no salary rows")

	_, err = receipt.ReadSalarySheet(bytes.NewReader([]byte("not a workbook")))
	assert.ErrorContains(t, err, "opening spreadsheet")
}
