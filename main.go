package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"pdfrag/config"
	"pdfrag/controller"
	"pdfrag/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chunker, err := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatalf("FATAL: Failed to create chunker: %v", err)
	}

	embedder, err := services.NewAzureEmbedder(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to create embedding client: %v", err)
	}

	chatModel, err := services.NewChatModel(ctx, cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to create chat client: %v", err)
	}
	log.Printf("Using chat provider: %s", cfg.ChatProvider)

	index, err := services.NewChromaIndex(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to create chroma client: %v", err)
	}
	defer func() {
		if err := index.Close(); err != nil {
			log.Printf("Warning: Failed to close chroma client: %v", err)
		}
	}()

	ragService := services.NewRAGService(chunker, embedder, index, chatModel)

	// Provision the index up front so the first request does not pay for
	// collection creation. The service keeps its own once-guard for the
	// lazy path.
	provisionCtx, provisionCancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	if err := index.EnsureReady(provisionCtx); err != nil {
		provisionCancel()
		log.Fatalf("FATAL: Failed to provision vector index: %v", err)
	}
	provisionCancel()

	ragController, err := controller.NewRAGController(ragService, cfg.UploadDir)
	if err != nil {
		log.Fatalf("FATAL: Failed to create controller: %v", err)
	}

	if cfg.WatchDir != "" {
		watcher := services.NewWatcherService(ragService, index)
		go watcher.WatchDirectory(ctx, cfg.WatchDir)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", ragController.Health)
	router.POST("/upload-pdf", ragController.UploadPDF)
	router.POST("/chat", ragController.Chat)

	log.Printf("PDF RAG backend starting on http://localhost:%s", cfg.Port)
	log.Printf("  POST http://localhost:%s/upload-pdf", cfg.Port)
	log.Printf("  POST http://localhost:%s/chat", cfg.Port)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}
