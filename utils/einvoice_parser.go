package utils

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pharmatrace/ocr-invoice-extraction/dto"
)

// ParseEInvoiceQR parses the QR code printed on IRP-registered
// e-invoices. The code carries a JWT whose payload wraps the invoice
// fields as a JSON string under "data"; some older invoices print the
// JSON directly.
func ParseEInvoiceQR(qrText string) (*dto.EInvoiceQRData, error) {
	qrText = strings.TrimSpace(qrText)
	if qrText == "" {
		return nil, fmt.Errorf("empty QR payload")
	}

	if strings.HasPrefix(qrText, "{") {
		return parseEInvoiceJSON([]byte(qrText))
	}

	parts := strings.Split(qrText, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("QR payload is neither JSON nor a JWT")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode JWT payload: %w", err)
	}

	var claims struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse JWT claims: %w", err)
	}
	if claims.Data == "" {
		return nil, fmt.Errorf("JWT payload has no data claim")
	}

	return parseEInvoiceJSON([]byte(claims.Data))
}

func parseEInvoiceJSON(raw []byte) (*dto.EInvoiceQRData, error) {
	var data dto.EInvoiceQRData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse e-invoice QR data: %w", err)
	}
	if data.SellerGSTIN == "" && data.BuyerGSTIN == "" && data.IRN == "" {
		return nil, fmt.Errorf("QR data has no invoice fields")
	}
	return &data, nil
}
