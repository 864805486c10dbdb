package utils

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const qrIRN = "adae2ff089948d3a94036ef818b250240ea1534043328e8e99f06c8a6481ab0f"

func buildSignedQRPayload(t *testing.T, data map[string]string) string {
	t.Helper()

	inner, err := json.Marshal(data)
	require.NoError(t, err)

	claims, err := json.Marshal(map[string]string{"data": string(inner)})
	require.NoError(t, err)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString(claims)

	return header + "." + payload + ".c2lnbmF0dXJl"
}

func TestParseEInvoiceQRSignedPayload(t *testing.T) {
	qrText := buildSignedQRPayload(t, map[string]string{
		"SellerGstin": "07AAFCI8134F1ZM",
		"BuyerGstin":  "07AAATL0242R2ZE",
		"DocNo":       "INV-042",
		"DocDt":       "06/10/2023",
		"Irn":         qrIRN,
	})

	data, err := ParseEInvoiceQR(qrText)
	require.NoError(t, err)

	assert.Equal(t, "07AAFCI8134F1ZM", data.SellerGSTIN)
	assert.Equal(t, "07AAATL0242R2ZE", data.BuyerGSTIN)
	assert.Equal(t, "INV-042", data.DocNo)
	assert.Equal(t, "06/10/2023", data.DocDate)
	assert.Equal(t, qrIRN, data.IRN)
}

func TestParseEInvoiceQRPlainJSON(t *testing.T) {
	data, err := ParseEInvoiceQR(`{"SellerGstin":"07AAFCI8134F1ZM","BuyerGstin":"07AAATL0242R2ZE"}`)
	require.NoError(t, err)

	assert.Equal(t, "07AAFCI8134F1ZM", data.SellerGSTIN)
	assert.Equal(t, "07AAATL0242R2ZE", data.BuyerGSTIN)
}

func TestParseEInvoiceQRRejectsGarbage(t *testing.T) {
	_, err := ParseEInvoiceQR("")
	assert.Error(t, err)

	_, err = ParseEInvoiceQR("https://example.com/not-an-invoice")
	assert.Error(t, err)

	// Valid JSON shape but no invoice fields, e.g. a UPI payment QR.
	_, err = ParseEInvoiceQR(`{"pa":"merchant@bank","pn":"Merchant"}`)
	assert.Error(t, err)
}
