package dto

import "mime/multipart"

// InvoiceExtractionRequest represents the incoming request
type InvoiceExtractionRequest struct {
	File     *multipart.FileHeader `form:"file" binding:"required"`
	Password string                `form:"password"`
}

// Validate performs basic validation on the request
func (r *InvoiceExtractionRequest) Validate(maxFileSize int64) error {
	if r.File == nil {
		return ErrFileMissing
	}
	if r.File.Size > maxFileSize {
		return ErrFileTooLarge
	}
	return nil
}
