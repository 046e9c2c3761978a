package receipt_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/drivepay/receipt"
)

func sampleBook() receipt.BookBillInput {
	return receipt.BookBillInput{
		OrderDate:   receipt.NewDate(2025, time.April, 1),
		OrderNumber: "407-8065661-1841950",
		ShipTo: receipt.Address{
			Name:         "Siddharth Saxena",
			AddressLine1: "N 901, Great Value Sharanam",
			AddressLine2: "Sector 107",
			City:         "NOIDA",
			State:        "UTTAR PRADESH",
			ZipCode:      "201301",
			Country:      "India",
		},
		PaymentMethod: receipt.PaymentMethod{CardType: "Amazon Pay ICICI Bank Credit Card", LastFour: "4001"},
		Summary:       receipt.OrderSummary{Subtotal: 9999, Shipping: 60},
		Items: []receipt.BookItem{
			{Title: "Winsar Uttarakhand Year Book 2024", Seller: "Uttarakhand Boxx Center", Price: 270},
		},
	}
}

func TestBookTotals(t *testing.T) {
	in := sampleBook()
	in.Items = append(in.Items, receipt.BookItem{Title: "Atlas", Price: 129.5})

	assert.Equal(t, 399.5, in.Subtotal())
	assert.Equal(t, 459.5, in.GrandTotal())
	assert.Equal(t, 399.5, in.Normalize().Summary.Subtotal)
	assert.Equal(t, 9999.0, in.Summary.Subtotal)
}

func TestBookValidate(t *testing.T) {
	require.NoError(t, sampleBook().Validate())

	in := sampleBook()
	in.OrderNumber = " "
	in.PaymentMethod.LastFour = "40x1"
	in.Items = append(in.Items, receipt.BookItem{Price: -1})
	err := in.Validate()
	require.ErrorIs(t, err, receipt.ErrInvalidInput)
	msg := err.Error()
	assert.Contains(t, msg, "invalid book bill")
	assert.Contains(t, msg, "orderNumber is required")
	assert.Contains(t, msg, "paymentMethod.lastFour must be 4 digits")
	assert.Contains(t, msg, "items[1].title is required")
	assert.Contains(t, msg, "items[1].price must not be negative")

	assert.ErrorContains(t, receipt.BookBillInput{}.Validate(), "items needs at least one book")
}

func TestRenderBookBill(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, receipt.RenderBookBill(&buf, sampleBook()))

	pages := pageText(t, buf.Bytes())
	require.Len(t, pages, 1)
	for _, want := range []string{
		"Order Summary",
		"Order placed 1 April 2025  |  Order number 407-8065661-1841950",
		"Ship to",
		"Siddharth Saxena",
		"NOIDA, UTTAR PRADESH 201301",
		"Amazon Pay",
		"4001",
		"Subtotal:",
		"Rs. 270.00",
		"Rs. 60.00",
		"Grand Total:",
		"Rs. 330.00",
		"Winsar Uttarakhand Year Book 2024",
		"Sold by: Uttarakhand Boxx Center",
	} {
		assert.Contains(t, pages[0], want)
	}
}

func TestRenderBookBillInvalid(t *testing.T) {
	var buf bytes.Buffer
	err := receipt.RenderBookBill(&buf, receipt.BookBillInput{})
	assert.ErrorIs(t, err, receipt.ErrInvalidInput)
	assert.Zero(t, buf.Len())
}
