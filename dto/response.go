package dto

import "errors"

// Custom errors
var (
	ErrFileMissing        = errors.New("invoice file is required")
	ErrFileTooLarge       = errors.New("invoice file exceeds the size limit")
	ErrInvalidGSTINLength = errors.New("GSTIN must be exactly 15 characters or empty")
	ErrInvalidIRNLength   = errors.New("IRN must be at most 64 characters")
	ErrInvalidIRNCharset  = errors.New("IRN must contain only lowercase hexadecimal characters")
	ErrNoTextExtracted    = errors.New("no text could be extracted from the document")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// InvoiceExtractionResponse is the final response structure. Source says
// which pipeline produced the fields ("docai" or "ocr");
// CorrectedFields lists the GSTIN fields that were auto-repaired.
type InvoiceExtractionResponse struct {
	Invoice         TaxInvoice `json:"invoice"`
	Source          string     `json:"source"`
	Pages           int        `json:"pages"`
	CorrectedFields []string   `json:"corrected_fields,omitempty"`
	QRVerified      bool       `json:"qr_verified"`
	OutputFile      string     `json:"output_file,omitempty"`
	ProcessedAt     string     `json:"processed_at"`
}
