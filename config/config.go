package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort        string
	DocAIAPIURL       string
	DocAIAPIKey       string
	DocAIModel        string
	TesseractDataPath string
	OutputDir         string
	MaxFileSize       int64
}

func LoadConfig() *Config {
	// Optional .env for local development; real deployments set env vars.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	docAIModel := os.Getenv("DOCAI_MODEL")
	if docAIModel == "" {
		docAIModel = "gemini-2.5-pro"
	}

	tesseractDataPath := os.Getenv("TESSDATA_PREFIX")
	if tesseractDataPath == "" {
		tesseractDataPath = "/usr/share/tesseract-ocr/5/tessdata/"
	}

	outputDir := os.Getenv("OUTPUT_DIR")
	if outputDir == "" {
		outputDir = "./output"
	}

	maxFileSize := int64(10 * 1024 * 1024) // 10 MB
	if v := os.Getenv("MAX_FILE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxFileSize = n
		}
	}

	return &Config{
		ServerPort:        serverPort,
		DocAIAPIURL:       os.Getenv("DOCAI_API_URL"),
		DocAIAPIKey:       os.Getenv("DOCAI_API_KEY"),
		DocAIModel:        docAIModel,
		TesseractDataPath: tesseractDataPath,
		OutputDir:         outputDir,
		MaxFileSize:       maxFileSize,
	}
}
