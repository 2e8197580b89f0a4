package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LineItemInput is one validated catalog line before persistence.
type LineItemInput struct {
	BookCode string
	Title    string
	Grade    string
	Subject  string
	Price    decimal.Decimal
	Quantity int
}

// Totals holds the invoice-level aggregates over a line-item sequence.
type Totals struct {
	TotalQuantity int
	GrossTotal    decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// GrossAmount is the printed per-line amount, rounded to the cent.
func (li LineItemInput) GrossAmount() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity))).Round(2)
}

// AggregateItems sums quantities and price*quantity over items. Rounding
// to 2 decimal places happens once on the final gross total, matching the
// printed document, not per line. An empty sequence yields zero totals;
// whether that is acceptable is decided by the caller (invoice creation
// rejects it with ErrEmptyInvoice).
func AggregateItems(items []LineItemInput) (Totals, error) {
	var t Totals
	gross := decimal.Zero
	for i, item := range items {
		if item.Quantity <= 0 {
			return Totals{}, fmt.Errorf("%w: line %d: quantity must be a positive integer", ErrInvalidLineItem, i+1)
		}
		if item.Price.IsNegative() {
			return Totals{}, fmt.Errorf("%w: line %d: unit price must not be negative", ErrInvalidLineItem, i+1)
		}
		t.TotalQuantity += item.Quantity
		gross = gross.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	t.GrossTotal = gross.Round(2)
	return t, nil
}

// ApplyDiscount computes the discount amount and net total for a gross
// total at percent. The discount amount is rounded to the cent and the
// net derived by subtraction, so discount + net always reconciles with
// gross exactly.
func ApplyDiscount(gross, percent decimal.Decimal) (discount, net decimal.Decimal, err error) {
	if percent.IsNegative() || percent.GreaterThan(oneHundred) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: got %s", ErrInvalidDiscount, percent.String())
	}
	discount = gross.Mul(percent).Div(oneHundred).Round(2)
	net = gross.Sub(discount)
	return discount, net, nil
}
