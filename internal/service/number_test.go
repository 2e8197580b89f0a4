package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewInvoiceNumberFormat(t *testing.T) {
	at := time.Date(2025, 8, 1, 12, 46, 0, 0, time.UTC)
	number := NewInvoiceNumber(at)
	assert.True(t, strings.HasPrefix(number, "HO/IN/2508011246-"), "got %s", number)
}

func TestNewInvoiceNumberDistinctWithinOneMinute(t *testing.T) {
	seen := make(map[string]struct{}, 50)
	for i := 0; i < 50; i++ {
		number := NewInvoiceNumber(time.Now())
		if _, dup := seen[number]; dup {
			t.Fatalf("duplicate invoice number %s on mint %d", number, i)
		}
		seen[number] = struct{}{}
	}
}
