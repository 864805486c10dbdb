package dto

// LineItem is a single product row on a tax invoice. All values are kept
// as printed; quantities and rates are not parsed into numbers because
// downstream reconciliation wants the original text.
type LineItem struct {
	Description string `json:"Description"`
	Qty         string `json:"Qty"`
	Rate        string `json:"Rate"`
	// GSTPercent is the combined SGST+CGST percentage, e.g. "6.0% + 6.0%"
	GSTPercent string `json:"GSTPercent"`
}

// TaxInvoice is the structured field set extracted from one scanned
// invoice PDF. StockiestGST is the supplier's GSTIN, InstituteGST the
// recipient's.
type TaxInvoice struct {
	StockiestGST string     `json:"StockiestGST"`
	InstituteGST string     `json:"InstituteGST"`
	InvoiceDate  string     `json:"InvoiceDate"`
	IRN          string     `json:"IRN64Digit,omitempty"`
	LineItems    []LineItem `json:"LineItems"`
}

// Validate checks the field shapes the extraction layer promises:
// GSTINs are empty or exactly 15 characters, the IRN is at most 64
// lowercase hex characters.
func (inv *TaxInvoice) Validate() error {
	if n := len(inv.StockiestGST); n != 0 && n != 15 {
		return ErrInvalidGSTINLength
	}
	if n := len(inv.InstituteGST); n != 0 && n != 15 {
		return ErrInvalidGSTINLength
	}
	if len(inv.IRN) > 64 {
		return ErrInvalidIRNLength
	}
	for i := 0; i < len(inv.IRN); i++ {
		c := inv.IRN[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return ErrInvalidIRNCharset
		}
	}
	return nil
}

// EInvoiceQRData is the payload of the IRP-signed QR code printed on
// e-invoices. Only the fields we cross-check are mapped.
type EInvoiceQRData struct {
	SellerGSTIN string `json:"SellerGstin"`
	BuyerGSTIN  string `json:"BuyerGstin"`
	DocNo       string `json:"DocNo"`
	DocDate     string `json:"DocDt"`
	IRN         string `json:"Irn"`
}
