package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAggregateItems(t *testing.T) {
	items := []LineItemInput{
		{BookCode: "B1", Title: "Maths", Price: d("1000.00"), Quantity: 2},
		{BookCode: "B2", Title: "English", Price: d("1500.00"), Quantity: 1},
	}

	totals, err := AggregateItems(items)
	require.NoError(t, err)
	assert.Equal(t, 3, totals.TotalQuantity)
	assert.Equal(t, "3500.00", totals.GrossTotal.StringFixed(2))
}

func TestAggregateItemsRoundsOnceAtTheTotal(t *testing.T) {
	// Each line is 3 * 0.335 = 1.005; summed first (2.01), then rounded.
	items := []LineItemInput{
		{BookCode: "B1", Title: "A", Price: d("0.335"), Quantity: 3},
		{BookCode: "B2", Title: "B", Price: d("0.335"), Quantity: 3},
	}

	totals, err := AggregateItems(items)
	require.NoError(t, err)
	assert.Equal(t, "2.01", totals.GrossTotal.StringFixed(2))
}

func TestAggregateItemsEmptyYieldsZero(t *testing.T) {
	totals, err := AggregateItems(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, totals.TotalQuantity)
	assert.True(t, totals.GrossTotal.IsZero())
}

func TestAggregateItemsRejectsBadLines(t *testing.T) {
	cases := []struct {
		name string
		item LineItemInput
	}{
		{"zero quantity", LineItemInput{Price: d("10"), Quantity: 0}},
		{"negative quantity", LineItemInput{Price: d("10"), Quantity: -1}},
		{"negative price", LineItemInput{Price: d("-0.01"), Quantity: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := AggregateItems([]LineItemInput{tc.item})
			assert.True(t, errors.Is(err, ErrInvalidLineItem), "got %v", err)
		})
	}
}

func TestApplyDiscountReconcilesExactly(t *testing.T) {
	gross := d("3333.33")
	for percent := 0; percent <= 100; percent++ {
		discount, net, err := ApplyDiscount(gross, decimal.NewFromInt(int64(percent)))
		require.NoError(t, err)
		assert.True(t, discount.Add(net).Equal(gross),
			"percent %d: %s + %s != %s", percent, discount, net, gross)
	}
}

func TestApplyDiscountValues(t *testing.T) {
	discount, net, err := ApplyDiscount(d("3500.00"), d("20"))
	require.NoError(t, err)
	assert.Equal(t, "700.00", discount.StringFixed(2))
	assert.Equal(t, "2800.00", net.StringFixed(2))
}

func TestApplyDiscountRejectsOutOfRange(t *testing.T) {
	for _, percent := range []string{"-0.01", "-5", "100.01", "150"} {
		_, _, err := ApplyDiscount(d("100"), d(percent))
		assert.True(t, errors.Is(err, ErrInvalidDiscount), "percent %s: got %v", percent, err)
	}
}
