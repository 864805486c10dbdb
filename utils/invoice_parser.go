package utils

import (
	"regexp"
	"strings"

	"github.com/pharmatrace/ocr-invoice-extraction/dto"
)

// gstinCandidateRegex is deliberately loose: two digits followed by 13
// alphanumerics. OCR misreads stay inside [0-9A-Z], so a strict GSTIN
// pattern would drop exactly the values the corrector exists to repair.
var gstinCandidateRegex = regexp.MustCompile(`\b[0-9]{2}[A-Z0-9]{13}\b`)

// irnRegex matches the 64-character hex invoice reference number.
var irnRegex = regexp.MustCompile(`\b[0-9a-fA-F]{64}\b`)

var dateLabelRegex = regexp.MustCompile(`(?i)(?:invoice\s*date|dated?)\s*[:\-]?\s*([0-9]{1,2}[\s/\-](?:[A-Za-z]{3,9}|[0-9]{1,2})[\s/\-][0-9]{2,4})`)

var dateFallbackRegex = regexp.MustCompile(`\b([0-9]{1,2}[\s/\-](?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*[\s/\-][0-9]{2,4})\b`)

// lineItemRegex matches "description  qty  rate  gst%" rows, with an
// optional split "6.0% + 6.0%" GST column.
var lineItemRegex = regexp.MustCompile(`^(.+?)\s+(\d+(?:\.\d+)?)\s+([\d,]+(?:\.\d+)?)\s+(\d+(?:\.\d+)?\s*%(?:\s*\+\s*\d+(?:\.\d+)?\s*%)?)$`)

// ParseInvoiceText extracts structured invoice data from raw OCR text.
// It is the fallback path when the document AI service is unavailable;
// GSTINs come out uncorrected and go through the corrector afterwards.
func ParseInvoiceText(raw string) dto.TaxInvoice {
	stockiest, institute := extractGSTINs(raw)

	return dto.TaxInvoice{
		StockiestGST: stockiest,
		InstituteGST: institute,
		InvoiceDate:  extractInvoiceDate(raw),
		IRN:          strings.ToLower(irnRegex.FindString(raw)),
		LineItems:    extractLineItems(raw),
	}
}

// extractGSTINs returns the supplier and recipient GSTIN candidates. On
// Indian tax invoices the supplier's GSTIN is printed in the header
// before the buyer's, so first-by-position maps to supplier.
func extractGSTINs(text string) (string, string) {
	matches := gstinCandidateRegex.FindAllString(strings.ToUpper(text), -1)

	var stockiest, institute string
	for _, m := range matches {
		if stockiest == "" {
			stockiest = m
			continue
		}
		if m != stockiest {
			institute = m
			break
		}
	}
	return stockiest, institute
}

// extractInvoiceDate prefers a labelled invoice date and falls back to
// the first "06 Oct 2023" style date anywhere on the page.
func extractInvoiceDate(text string) string {
	if matches := dateLabelRegex.FindStringSubmatch(text); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	if matches := dateFallbackRegex.FindStringSubmatch(text); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

// extractLineItems pulls product rows from the item table.
func extractLineItems(text string) []dto.LineItem {
	var items []dto.LineItem

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isTableNoise(line) {
			continue
		}

		matches := lineItemRegex.FindStringSubmatch(line)
		if len(matches) != 5 {
			continue
		}

		desc := strings.TrimSpace(matches[1])
		if desc == "" || gstinCandidateRegex.MatchString(strings.ToUpper(desc)) {
			continue
		}

		items = append(items, dto.LineItem{
			Description: desc,
			Qty:         matches[2],
			Rate:        strings.ReplaceAll(matches[3], ",", ""),
			GSTPercent:  normalizeGSTPercent(matches[4]),
		})
	}

	return items
}

// isTableNoise filters header and footer rows that would otherwise look
// like line items.
func isTableNoise(line string) bool {
	upper := strings.ToUpper(line)
	for _, marker := range []string{"DESCRIPTION", "QTY", "TOTAL", "SUBTOTAL", "AMOUNT IN WORDS", "GRAND"} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// normalizeGSTPercent tidies spacing in the GST column, e.g.
// "6.0%+6.0%" -> "6.0% + 6.0%".
func normalizeGSTPercent(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "+") {
		return s
	}
	parts := strings.Split(s, "+")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, " + ")
}
