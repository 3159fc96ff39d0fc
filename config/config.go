package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all environment-sourced settings for the service. It is
// loaded once at startup and passed by reference to the components that
// need it.
type Config struct {
	// Azure OpenAI inference settings.
	AzureAPIKey         string
	AzureEndpoint       string
	AzureAPIVersion     string
	ChatDeployment      string
	EmbeddingDeployment string

	// Alternate chat backend: "azure" (default) or "gemini".
	ChatProvider string
	GeminiAPIKey string

	// Vector index settings.
	ChromaURL          string
	IndexName          string
	Namespace          string
	EmbeddingDimension int

	// Chunking parameters.
	ChunkSize    int
	ChunkOverlap int

	// HTTP server and scratch storage.
	Port      string
	UploadDir string

	// Optional drop directory; PDFs appearing here are ingested
	// automatically. Disabled when empty.
	WatchDir string

	// Timeout applied to each external call.
	RequestTimeout time.Duration
}

// Load reads configuration from the environment, loading a .env file first
// when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	cfg := &Config{
		AzureAPIKey:         os.Getenv("AZURE_OPENAI_API_KEY"),
		AzureEndpoint:       os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureAPIVersion:     getEnv("AZURE_OPENAI_API_VERSION", "2024-02-01"),
		ChatDeployment:      os.Getenv("AZURE_CHAT_DEPLOYMENT"),
		EmbeddingDeployment: os.Getenv("AZURE_EMBEDDING_DEPLOYMENT"),
		ChatProvider:        getEnv("CHAT_PROVIDER", "azure"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		ChromaURL:           getEnv("CHROMA_URL", "http://localhost:8000"),
		IndexName:           getEnv("INDEX_NAME", "pdf-rag-index"),
		Namespace:           os.Getenv("INDEX_NAMESPACE"),
		EmbeddingDimension:  getEnvInt("EMBEDDING_DIMENSION", 1536),
		ChunkSize:           getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:        getEnvInt("CHUNK_OVERLAP", 150),
		Port:                getEnv("PORT", "8080"),
		UploadDir:           getEnv("UPLOAD_DIR", "tmp_uploads"),
		WatchDir:            os.Getenv("INGEST_WATCH_DIR"),
		RequestTimeout:      time.Duration(getEnvInt("REQUEST_TIMEOUT_SECS", 60)) * time.Second,
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}
	if cfg.EmbeddingDimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", cfg.EmbeddingDimension)
	}

	switch cfg.ChatProvider {
	case "azure", "gemini":
	default:
		return nil, fmt.Errorf("unknown chat provider %q (want azure or gemini)", cfg.ChatProvider)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: invalid value %q for %s, using default %d", v, key, fallback)
		return fallback
	}
	return n
}
