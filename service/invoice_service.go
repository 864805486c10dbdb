package service

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/pharmatrace/ocr-invoice-extraction/client"
	"github.com/pharmatrace/ocr-invoice-extraction/dto"
	"github.com/pharmatrace/ocr-invoice-extraction/utils"
	"github.com/pharmatrace/ocr-invoice-extraction/utils/gstin"
)

// minTextLayerLength is the point below which the embedded text layer is
// considered a scan artifact and the pages get rasterized for OCR.
const minTextLayerLength = 80

// minOCRConfidence is the average word confidence below which a page's
// OCR output is too unreliable to feed the field parser. Tesseract
// reports confidence on a 0-100 scale.
const minOCRConfidence = 40.0

// OCRClient runs local OCR over a rasterized page image and reports the
// average word confidence alongside the text.
type OCRClient interface {
	ExtractTextAndQuality(img image.Image) (string, float64, error)
}

type InvoiceService struct {
	docAIClient     *client.DocAIClient
	tesseractClient OCRClient
	pdfProcessor    PDFProcessor
	table           gstin.AmbiguityTable
	outputDir       string
}

func NewInvoiceService(
	docAIClient *client.DocAIClient,
	tesseractClient OCRClient,
	pdfProcessor PDFProcessor,
	outputDir string,
) *InvoiceService {
	return &InvoiceService{
		docAIClient:     docAIClient,
		tesseractClient: tesseractClient,
		pdfProcessor:    pdfProcessor,
		table:           gstin.DefaultAmbiguityTable,
		outputDir:       outputDir,
	}
}

// ExtractInvoice runs the full pipeline on one uploaded PDF: structured
// extraction (document AI first, local OCR as fallback), e-invoice QR
// backfill, GSTIN repair, validation, and JSON persistence.
func (s *InvoiceService) ExtractInvoice(ctx context.Context, pdfData []byte, filename, password string) (*dto.InvoiceExtractionResponse, error) {
	var (
		invoice *dto.TaxInvoice
		source  string
		err     error
	)

	pages, err := s.pdfProcessor.PageCount(pdfData)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	log.Printf("Document %s has %d pages", filename, pages)

	if s.docAIClient != nil && s.docAIClient.Configured() {
		log.Printf("Sending document %s to the document AI service", filename)
		invoice, err = s.docAIClient.ExtractInvoice(ctx, pdfData)
		if err != nil {
			log.Printf("Document AI extraction failed: %v. Falling back to local OCR...", err)
		} else {
			source = "docai"
		}
	}

	var pageImages []image.Image

	if invoice == nil {
		invoice, pageImages, err = s.extractViaOCR(pdfData, password)
		if err != nil {
			return nil, err
		}
		source = "ocr"
	}

	// E-invoice QR backfill for anything the primary extraction missed.
	qrVerified := false
	if invoice.StockiestGST == "" || invoice.InstituteGST == "" || invoice.IRN == "" {
		if pageImages == nil {
			pageImages, err = s.pdfProcessor.ExtractImages(pdfData, password)
			if err != nil {
				log.Printf("Image extraction for QR scan failed: %v", err)
			}
		}
		if qrData := s.decodeEInvoiceQR(pageImages); qrData != nil {
			qrVerified = s.applyQRData(invoice, qrData)
		}
	}

	corrected := s.PostProcess(invoice)
	if len(corrected) > 0 {
		log.Printf("Auto-corrected GSTIN fields: %s", strings.Join(corrected, ", "))
	}

	if err := invoice.Validate(); err != nil {
		log.Printf("Warning: extracted invoice failed validation: %v", err)
	}

	outputFile, err := s.persist(invoice, filename)
	if err != nil {
		log.Printf("Warning: failed to persist invoice JSON: %v", err)
		outputFile = ""
	}

	return &dto.InvoiceExtractionResponse{
		Invoice:         *invoice,
		Source:          source,
		Pages:           pages,
		CorrectedFields: corrected,
		QRVerified:      qrVerified,
		OutputFile:      outputFile,
		ProcessedAt:     time.Now().Format(time.RFC3339),
	}, nil
}

// extractViaOCR is the local pipeline: embedded text layer first, then
// rasterized pages through Tesseract, then the regex field parser.
func (s *InvoiceService) extractViaOCR(pdfData []byte, password string) (*dto.TaxInvoice, []image.Image, error) {
	text, err := s.pdfProcessor.ExtractText(pdfData, password)
	if err != nil {
		log.Printf("PDF text extraction failed: %v", err)
	}

	var pageImages []image.Image

	if len(strings.TrimSpace(text)) < minTextLayerLength {
		log.Println("Text layer too sparse, rasterizing pages for OCR")

		pageImages, err = s.pdfProcessor.ExtractImages(pdfData, password)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to extract images from PDF: %w", err)
		}
		if len(pageImages) == 0 {
			return nil, nil, dto.ErrNoTextExtracted
		}

		var ocrText strings.Builder
		for idx, page := range pageImages {
			pageText, confidence, err := s.tesseractClient.ExtractTextAndQuality(page)
			if err != nil {
				log.Printf("OCR failed on page %d: %v", idx+1, err)
				continue
			}
			if confidence < minOCRConfidence {
				log.Printf("Skipping page %d: OCR confidence %.1f below %.1f", idx+1, confidence, minOCRConfidence)
				continue
			}
			ocrText.WriteString(pageText)
			ocrText.WriteString("\n")
		}
		text = ocrText.String()
	}

	if strings.TrimSpace(text) == "" {
		return nil, pageImages, dto.ErrNoTextExtracted
	}

	invoice := utils.ParseInvoiceText(text)
	return &invoice, pageImages, nil
}

// decodeEInvoiceQR scans the page images for a readable e-invoice QR
// code. Absence of one is normal; only the first parseable code is used.
func (s *InvoiceService) decodeEInvoiceQR(images []image.Image) *dto.EInvoiceQRData {
	qrReader := qrcode.NewQRCodeReader()

	for idx, img := range images {
		bmp, err := gozxing.NewBinaryBitmapFromImage(img)
		if err != nil {
			continue
		}

		result, err := qrReader.Decode(bmp, nil)
		if err != nil {
			continue
		}

		qrData, err := utils.ParseEInvoiceQR(result.GetText())
		if err != nil {
			log.Printf("QR code on page image %d is not an e-invoice payload: %v", idx+1, err)
			continue
		}

		log.Printf("Decoded e-invoice QR code from page image %d", idx+1)
		return qrData
	}

	return nil
}

// applyQRData backfills fields the extraction left empty from the signed
// QR payload. QR values are digital, not OCR output, so they win over
// nothing but never overwrite a non-empty extraction.
func (s *InvoiceService) applyQRData(invoice *dto.TaxInvoice, qrData *dto.EInvoiceQRData) bool {
	applied := false

	if invoice.StockiestGST == "" && qrData.SellerGSTIN != "" {
		invoice.StockiestGST = qrData.SellerGSTIN
		applied = true
	}
	if invoice.InstituteGST == "" && qrData.BuyerGSTIN != "" {
		invoice.InstituteGST = qrData.BuyerGSTIN
		applied = true
	}
	if invoice.IRN == "" && qrData.IRN != "" {
		invoice.IRN = qrData.IRN
		applied = true
	}
	if invoice.InvoiceDate == "" && qrData.DocDate != "" {
		invoice.InvoiceDate = qrData.DocDate
		applied = true
	}

	return applied
}

// PostProcess repairs OCR misreads in the two GSTIN fields. Empty fields
// pass through untouched; the corrector is never invoked on them.
func (s *InvoiceService) PostProcess(invoice *dto.TaxInvoice) []string {
	var corrected []string

	if invoice.StockiestGST != "" {
		fixed, changed := gstin.CorrectWithReport(invoice.StockiestGST, s.table)
		invoice.StockiestGST = fixed
		if changed {
			corrected = append(corrected, "StockiestGST")
		}
	}

	if invoice.InstituteGST != "" {
		fixed, changed := gstin.CorrectWithReport(invoice.InstituteGST, s.table)
		invoice.InstituteGST = fixed
		if changed {
			corrected = append(corrected, "InstituteGST")
		}
	}

	return corrected
}

// persist writes the final record as pretty-printed JSON next to records
// from earlier runs, named after the uploaded file.
func (s *InvoiceService) persist(invoice *dto.TaxInvoice, filename string) (string, error) {
	if s.outputDir == "" {
		return "", nil
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	data, err := json.MarshalIndent(invoice, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal invoice: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." {
		base = "invoice_data"
	}
	outputFile := filepath.Join(s.outputDir, base+".json")

	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write invoice JSON: %w", err)
	}

	log.Printf("Invoice data saved to %s", outputFile)
	return outputFile, nil
}
