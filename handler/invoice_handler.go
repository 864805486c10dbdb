package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharmatrace/ocr-invoice-extraction/dto"
	"github.com/pharmatrace/ocr-invoice-extraction/service"
)

type InvoiceHandler struct {
	invoiceService *service.InvoiceService
	maxFileSize    int64
}

func NewInvoiceHandler(invoiceService *service.InvoiceService, maxFileSize int64) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		maxFileSize:    maxFileSize,
	}
}

// ExtractInvoice handles the POST /invoice/extract endpoint
func (h *InvoiceHandler) ExtractInvoice(c *gin.Context) {
	log.Println("Received invoice extraction request")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Invoice file is required", err)
		return
	}

	request := &dto.InvoiceExtractionRequest{
		File:     fileHeader,
		Password: c.PostForm("password"),
	}

	if err := request.Validate(h.maxFileSize); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to open uploaded file", err)
		return
	}
	defer file.Close()

	pdfData, err := io.ReadAll(file)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to read uploaded file", err)
		return
	}

	log.Printf("Processing invoice %s (%d bytes)", fileHeader.Filename, len(pdfData))

	response, err := h.invoiceService.ExtractInvoice(c.Request.Context(), pdfData, fileHeader.Filename, request.Password)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to extract invoice data", err)
		return
	}

	log.Println("Invoice extraction completed successfully")
	c.JSON(http.StatusOK, response)
}

// sendError sends a structured error response
func (h *InvoiceHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Printf("Error: %s - %v", message, err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: errorMsg,
		Code:    statusCode,
	})
}
