// Package pdf renders invoices into fixed-layout A4 documents for
// printing. Rendering is a pure function of a persisted invoice; it
// never writes back to the store, and a rendering failure has no effect
// on a completed save.
package pdf

import (
	"bytes"
	"fmt"

	"invoicing-backend/internal/model"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"
)

const (
	companyName  = "EDUWAVES PUBLISHERS LTD"
	companyLine1 = "14 Onitsha Crescent, Area 11"
	companyLine2 = "Garki, Abuja-FCT, Nigeria"
)

// money formats an amount the way the printed invoice shows it: a naira
// "N" prefix and thousands separators.
func money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	intPart, fracPart := s[:len(s)-3], s[len(s)-2:]
	var buf bytes.Buffer
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			buf.WriteByte(',')
		}
		buf.WriteRune(r)
	}
	out := "N" + buf.String() + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

// RenderInvoice produces the printable PDF for inv.
func RenderInvoice(inv *model.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 10, 12)
	pdf.AddPage()

	// Title
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(186, 12, "INVOICE", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Company block on the left, invoice metadata on the right
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(110, 5, companyName, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(76, 5, "Date: "+inv.CreatedAt.Format("02-Jan-2006"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(110, 5, companyLine1, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(76, 5, "Invoice No.: "+inv.InvoiceNumber, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(110, 5, companyLine2, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(76, 5, "Order No.: HO/OR/"+inv.CreatedAt.Format("060102"), "", 1, "L", false, 0, "")
	pdf.Ln(5)

	// Customer block
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(93, 6, "Customer: "+inv.CustomerName, "", 0, "L", false, 0, "")
	pdf.CellFormat(93, 6, "Sales Manager: "+inv.SalesManager, "", 1, "L", false, 0, "")
	if inv.CustomerPhone != "" {
		pdf.CellFormat(93, 6, "Phone: "+inv.CustomerPhone, "", 1, "L", false, 0, "")
	}
	if inv.CustomerAddress != "" {
		pdf.CellFormat(186, 6, "Address: "+inv.CustomerAddress, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Item table header
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(10, 7, "S/N", "1", 0, "C", true, 0, "")
	pdf.CellFormat(22, 7, "Code", "1", 0, "C", true, 0, "")
	pdf.CellFormat(68, 7, "Title", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Grade / Subject", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Rate", "1", 0, "C", true, 0, "")
	pdf.CellFormat(12, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(24, 7, "Amount", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for i, item := range inv.Items {
		gradeSubject := item.BookGrade
		if item.BookSubject != "" {
			if gradeSubject != "" {
				gradeSubject += " / "
			}
			gradeSubject += item.BookSubject
		}
		pdf.CellFormat(10, 6, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(22, 6, item.BookCode, "1", 0, "L", false, 0, "")
		pdf.CellFormat(68, 6, item.BookTitle, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, gradeSubject, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, money(item.Rate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(12, 6, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 6, money(item.GrossAmount), "1", 1, "R", false, 0, "")
	}

	// Totals block
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(130, 7, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(32, 7, "Total Qty: ", "", 0, "R", false, 0, "")
	pdf.CellFormat(24, 7, fmt.Sprintf("%d", inv.TotalQuantity), "", 1, "R", false, 0, "")
	pdf.CellFormat(130, 7, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(32, 7, "Gross Total:", "", 0, "R", false, 0, "")
	pdf.CellFormat(24, 7, money(inv.GrossTotal), "", 1, "R", false, 0, "")
	if inv.DiscountPercent.IsPositive() {
		pdf.CellFormat(130, 7, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(32, 7, fmt.Sprintf("Less %s%%:", inv.DiscountPercent.StringFixed(0)), "", 0, "R", false, 0, "")
		pdf.CellFormat(24, 7, money(inv.DiscountAmount), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(130, 8, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(32, 8, "Net Total:", "T", 0, "R", false, 0, "")
	pdf.CellFormat(24, 8, money(inv.NetTotal), "T", 1, "R", false, 0, "")
	pdf.Ln(6)

	// Payment details
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(186, 6, "Payment Details", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(186, 5, "Bank: "+inv.BankName, "", 1, "L", false, 0, "")
	pdf.CellFormat(186, 5, "Account Number: "+inv.AccountNumber, "", 1, "L", false, 0, "")
	pdf.Ln(12)

	// Signature line
	pdf.CellFormat(70, 5, "______________________", "", 0, "L", false, 0, "")
	pdf.CellFormat(46, 5, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(70, 5, "______________________", "", 1, "L", false, 0, "")
	pdf.CellFormat(70, 5, "Authorized Signature", "", 0, "L", false, 0, "")
	pdf.CellFormat(46, 5, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(70, 5, "Customer Signature", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}
