package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pharmatrace/ocr-invoice-extraction/dto"
)

// extractionPrompt instructs the model to do character-accurate OCR and
// leave uncertain fields empty instead of guessing. GSTIN repair happens
// on our side, so the model must not "helpfully" normalize characters.
const extractionPrompt = `You are an expert invoice parser. Extract text using character-accurate OCR.

CRITICAL RULES:
- Extract all alphanumeric fields EXACTLY as printed.
- Preserve every character with no corrections, assumptions, or normalizations.
- Do NOT alter or replace characters that appear visually similar.
- Do NOT guess missing or unclear characters.
- For GSTIN (15 chars) and IRN (64 digits), perform strict character-by-character extraction.
- GSTIN format: XXAAAAA0000A1Z1 (15 chars exactly)
- If a field is uncertain or doesn't match expected format, return empty string "".

Do not hallucinate or fabricate any data.

Return ONLY valid JSON matching the response schema. Empty strings for missing/uncertain fields.`

// invoiceSchema is sent to the service as the response format and used
// locally to validate whatever comes back before unmarshalling.
const invoiceSchema = `{
  "type": "object",
  "properties": {
    "StockiestGST": {"type": "string", "maxLength": 15},
    "InstituteGST": {"type": "string", "maxLength": 15},
    "InvoiceDate": {"type": "string"},
    "IRN64Digit": {"type": ["string", "null"], "maxLength": 64},
    "LineItems": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "Description": {"type": "string"},
          "Qty": {"type": "string"},
          "Rate": {"type": "string"},
          "GSTPercent": {"type": "string"}
        },
        "required": ["Description", "Qty", "Rate", "GSTPercent"]
      }
    }
  },
  "required": ["StockiestGST", "InstituteGST", "InvoiceDate", "LineItems"]
}`

const docAIRequestTimeout = 120 * time.Second

// DocAIClient calls an external document-understanding API that performs
// OCR and structured field extraction on a PDF in one shot.
type DocAIClient struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
	schema     *jsonschema.Schema
}

// NewDocAIClient creates a new document-understanding client. An empty
// apiURL or apiKey yields an unconfigured client; callers check
// Configured() and fall back to local OCR.
func NewDocAIClient(apiURL, apiKey, model string) *DocAIClient {
	return &DocAIClient{
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: docAIRequestTimeout},
		schema:     jsonschema.MustCompileString("invoice.schema.json", invoiceSchema),
	}
}

// Configured reports whether the client has enough configuration to make
// requests.
func (c *DocAIClient) Configured() bool {
	return c.apiURL != "" && c.apiKey != ""
}

type docAIRequest struct {
	RequestID      string          `json:"request_id"`
	Model          string          `json:"model"`
	Prompt         string          `json:"prompt"`
	MimeType       string          `json:"mime_type"`
	Document       string          `json:"document"`
	ResponseSchema json.RawMessage `json:"response_schema"`
	Temperature    float64         `json:"temperature"`
}

type docAIResponse struct {
	Content string `json:"content"`
}

// ExtractInvoice sends the PDF bytes to the document-understanding
// service and returns the structured invoice. Transient failures are
// retried; a payload that does not match the invoice schema is not.
func (c *DocAIClient) ExtractInvoice(ctx context.Context, pdfData []byte) (*dto.TaxInvoice, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("document AI client is not configured")
	}

	requestID := uuid.New().String()

	payload := docAIRequest{
		RequestID:      requestID,
		Model:          c.model,
		Prompt:         extractionPrompt,
		MimeType:       "application/pdf",
		Document:       base64.StdEncoding.EncodeToString(pdfData),
		ResponseSchema: json.RawMessage(invoiceSchema),
		Temperature:    0,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	var content string
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			req.Header.Set("X-Request-ID", requestID)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to call document AI service: %w", err)
			}
			defer resp.Body.Close()

			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response body: %w", err)
			}

			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return fmt.Errorf("document AI service returned status %d: %s", resp.StatusCode, respBody)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(
					fmt.Errorf("document AI service returned status %d: %s", resp.StatusCode, respBody))
			}

			var parsed docAIResponse
			if err := json.Unmarshal(respBody, &parsed); err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to decode response: %w", err))
			}
			content = parsed.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(2*time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("Document AI request %s retry %d: %v", requestID, n+1, err)
		}),
	)
	if err != nil {
		return nil, err
	}

	return c.parseInvoicePayload(content)
}

// parseInvoicePayload turns the model output into a TaxInvoice. Models
// wrap JSON in markdown fences often enough that stripping them first is
// worth it.
func (c *DocAIClient) parseInvoicePayload(content string) (*dto.TaxInvoice, error) {
	raw := strings.TrimSpace(stripCodeFences(content))
	if raw == "" {
		return nil, fmt.Errorf("document AI service returned empty content")
	}

	var generic interface{}
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, fmt.Errorf("document AI content is not valid JSON: %w", err)
	}

	if err := c.schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("document AI content failed schema validation: %w", err)
	}

	var invoice dto.TaxInvoice
	if err := json.Unmarshal([]byte(raw), &invoice); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invoice: %w", err)
	}

	if err := invoice.Validate(); err != nil {
		return nil, fmt.Errorf("extracted invoice failed validation: %w", err)
	}

	return &invoice, nil
}

// stripCodeFences removes a surrounding markdown code fence, with or
// without a language tag.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return content
	}

	trimmed = strings.TrimSuffix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		return strings.TrimSpace(trimmed[idx+1:])
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
}
