package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/pharmatrace/ocr-invoice-extraction/client"
	"github.com/pharmatrace/ocr-invoice-extraction/config"
	"github.com/pharmatrace/ocr-invoice-extraction/handler"
	"github.com/pharmatrace/ocr-invoice-extraction/service"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()

	// Initialize the document AI client (primary extraction path)
	docAIClient := client.NewDocAIClient(cfg.DocAIAPIURL, cfg.DocAIAPIKey, cfg.DocAIModel)
	if !docAIClient.Configured() {
		log.Println("Document AI service not configured; running with local OCR only")
	}

	// Initialize Tesseract client (fallback OCR)
	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath)
	defer tesseractClient.Close()

	// Initialize PDF processor
	pdfProcessor := service.NewPDFProcessor()

	// Initialize service layer
	invoiceService := service.NewInvoiceService(docAIClient, tesseractClient, pdfProcessor, cfg.OutputDir)

	// Initialize handler layer
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, cfg.MaxFileSize)

	// Setup Gin router
	router := gin.Default()

	// Configure max multipart memory (32 MB)
	router.MaxMultipartMemory = 32 << 20

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "GSTIN Invoice Extraction",
		})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		invoice := api.Group("/invoice")
		{
			invoice.POST("/extract", invoiceHandler.ExtractInvoice)
		}
	}

	// Start server
	log.Printf("Starting GSTIN Invoice Extraction Service on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
