package service

import (
	"fmt"
	"strconv"
	"time"
)

const invoiceNumberPrefix = "HO/IN/"

// NewInvoiceNumber mints a human-readable invoice number from wall-clock
// time: the legacy yymmddHHMM base plus a base-36 suffix derived from the
// nanosecond offset within the minute. The base alone repeats for
// invoices minted in the same minute; the suffix keeps rapid sequential
// mints distinct. True uniqueness is still enforced by the unique
// constraint on invoice_number at insert time.
func NewInvoiceNumber(now time.Time) string {
	base := now.Format("0601021504")
	nanoOfMinute := int64(now.Second())*int64(time.Second) + int64(now.Nanosecond())
	suffix := strconv.FormatInt(nanoOfMinute, 36)
	return fmt.Sprintf("%s%s-%07s", invoiceNumberPrefix, base, suffix)
}
