package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const invoiceFixture = `
	TAX INVOICE
	M/s Medico Distributors Pvt Ltd
	GSTIN: 07AAFC18134F1ZM
	Invoice No: INV-042    Invoice Date: 06 Oct 2023
	BILL TO: City Hospital Trust
	GSTIN: 07AAATL0242R2ZE
	IRN: adae2ff089948d3a94036ef818b250240ea1534043328e8e99f06c8a6481ab0f
	Description    Qty    Rate    GST
	Paracetamol 500mg 10 120.50 6.0% + 6.0%
	Cough Syrup 100ml 2 85.00 12%
	Total 1375.00
`

func TestParseInvoiceText(t *testing.T) {
	inv := ParseInvoiceText(invoiceFixture)

	// The supplier GSTIN keeps its OCR misread; repair is a separate step.
	assert.Equal(t, "07AAFC18134F1ZM", inv.StockiestGST)
	assert.Equal(t, "07AAATL0242R2ZE", inv.InstituteGST)
	assert.Equal(t, "06 Oct 2023", inv.InvoiceDate)
	assert.Equal(t, "adae2ff089948d3a94036ef818b250240ea1534043328e8e99f06c8a6481ab0f", inv.IRN)

	assert.Len(t, inv.LineItems, 2)
	assert.Equal(t, "Paracetamol 500mg", inv.LineItems[0].Description)
	assert.Equal(t, "10", inv.LineItems[0].Qty)
	assert.Equal(t, "120.50", inv.LineItems[0].Rate)
	assert.Equal(t, "6.0% + 6.0%", inv.LineItems[0].GSTPercent)
	assert.Equal(t, "Cough Syrup 100ml", inv.LineItems[1].Description)
	assert.Equal(t, "12%", inv.LineItems[1].GSTPercent)
}

func TestParseInvoiceTextRepeatedSupplierGSTIN(t *testing.T) {
	// The same GSTIN printed twice must not be mistaken for the buyer's.
	text := `
		GSTIN: 07AAFCI8134F1ZM
		GSTIN: 07AAFCI8134F1ZM
		GSTIN: 07AAATL0242R2ZE
	`
	inv := ParseInvoiceText(text)

	assert.Equal(t, "07AAFCI8134F1ZM", inv.StockiestGST)
	assert.Equal(t, "07AAATL0242R2ZE", inv.InstituteGST)
}

func TestParseInvoiceTextMissingFields(t *testing.T) {
	inv := ParseInvoiceText("handwritten note, nothing useful")

	assert.Empty(t, inv.StockiestGST)
	assert.Empty(t, inv.InstituteGST)
	assert.Empty(t, inv.InvoiceDate)
	assert.Empty(t, inv.IRN)
	assert.Empty(t, inv.LineItems)
}

func TestExtractInvoiceDateLabelled(t *testing.T) {
	assert.Equal(t, "06/10/2023", extractInvoiceDate("Invoice Date: 06/10/2023"))
	assert.Equal(t, "06-10-2023", extractInvoiceDate("Dated: 06-10-2023"))
	assert.Equal(t, "06 Oct 2023", extractInvoiceDate("dispatched 06 Oct 2023 from Delhi"))
}

func TestNormalizeGSTPercent(t *testing.T) {
	assert.Equal(t, "6.0% + 6.0%", normalizeGSTPercent("6.0%+6.0%"))
	assert.Equal(t, "6.0% + 6.0%", normalizeGSTPercent("6.0%  +  6.0%"))
	assert.Equal(t, "12%", normalizeGSTPercent(" 12% "))
}
