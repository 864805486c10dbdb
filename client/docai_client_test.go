package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const extractedInvoiceJSON = `{
	"StockiestGST": "07AAFC18134F1ZM",
	"InstituteGST": "07AAATL0242R2ZE",
	"InvoiceDate": "06 Oct 2023",
	"IRN64Digit": "adae2ff089948d3a94036ef818b250240ea1534043328e8e99f06c8a6481ab0f",
	"LineItems": [
		{"Description": "Paracetamol 500mg", "Qty": "10", "Rate": "120.50", "GSTPercent": "6.0% + 6.0%"}
	]
}`

func newTestServer(t *testing.T, content string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req docAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "application/pdf", req.MimeType)
		assert.NotEmpty(t, req.Document)
		assert.NotEmpty(t, req.ResponseSchema)

		json.NewEncoder(w).Encode(docAIResponse{Content: content})
	}))
}

func TestExtractInvoice(t *testing.T) {
	server := newTestServer(t, extractedInvoiceJSON)
	defer server.Close()

	c := NewDocAIClient(server.URL, "test-key", "test-model")

	invoice, err := c.ExtractInvoice(context.Background(), []byte("%PDF-1.4 fake"))
	require.NoError(t, err)

	// The client hands fields over untouched; GSTIN repair is the
	// service layer's job.
	assert.Equal(t, "07AAFC18134F1ZM", invoice.StockiestGST)
	assert.Equal(t, "07AAATL0242R2ZE", invoice.InstituteGST)
	assert.Equal(t, "06 Oct 2023", invoice.InvoiceDate)
	assert.Len(t, invoice.LineItems, 1)
	assert.Equal(t, "Paracetamol 500mg", invoice.LineItems[0].Description)
}

func TestExtractInvoiceFencedContent(t *testing.T) {
	server := newTestServer(t, "```json\n"+extractedInvoiceJSON+"\n```")
	defer server.Close()

	c := NewDocAIClient(server.URL, "test-key", "test-model")

	invoice, err := c.ExtractInvoice(context.Background(), []byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	assert.Equal(t, "07AAATL0242R2ZE", invoice.InstituteGST)
}

func TestExtractInvoiceSchemaViolation(t *testing.T) {
	// Missing required fields must fail validation, not produce a
	// half-empty invoice.
	server := newTestServer(t, `{"InvoiceDate": "06 Oct 2023"}`)
	defer server.Close()

	c := NewDocAIClient(server.URL, "test-key", "test-model")

	_, err := c.ExtractInvoice(context.Background(), []byte("%PDF-1.4 fake"))
	assert.ErrorContains(t, err, "schema validation")
}

func TestExtractInvoiceNonJSONContent(t *testing.T) {
	server := newTestServer(t, "Sorry, I could not read this document.")
	defer server.Close()

	c := NewDocAIClient(server.URL, "test-key", "test-model")

	_, err := c.ExtractInvoice(context.Background(), []byte("%PDF-1.4 fake"))
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestExtractInvoiceClientErrorNotRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewDocAIClient(server.URL, "test-key", "test-model")

	_, err := c.ExtractInvoice(context.Background(), []byte("%PDF-1.4 fake"))
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestExtractInvoiceRetriesServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "temporary", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(docAIResponse{Content: extractedInvoiceJSON})
	}))
	defer server.Close()

	c := NewDocAIClient(server.URL, "test-key", "test-model")

	invoice, err := c.ExtractInvoice(context.Background(), []byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "07AAFC18134F1ZM", invoice.StockiestGST)
}

func TestExtractInvoiceUnconfigured(t *testing.T) {
	c := NewDocAIClient("", "", "test-model")

	assert.False(t, c.Configured())
	_, err := c.ExtractInvoice(context.Background(), []byte("%PDF-1.4 fake"))
	assert.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
}
