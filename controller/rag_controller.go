package controller

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pdfrag/models"
	"pdfrag/services"
)

// RAGController handles the HTTP requests for the RAG API. It depends on
// the RAGService to perform the actual pipeline work.
type RAGController struct {
	ragService services.RAGService
	uploadDir  string
}

// NewRAGController creates a controller writing uploads to uploadDir. The
// directory is created if missing.
func NewRAGController(service services.RAGService, uploadDir string) (*RAGController, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, err
	}
	return &RAGController{ragService: service, uploadDir: uploadDir}, nil
}

// UploadPDF is the Gin handler for POST /upload-pdf. The multipart file is
// spooled to the scratch directory, ingested, and removed whether or not
// ingestion succeeded.
func (c *RAGController) UploadPDF(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing multipart 'file' field: " + err.Error()})
		return
	}
	if fileHeader.Header.Get("Content-Type") != "application/pdf" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "File must be a PDF."})
		return
	}

	// A random prefix keeps concurrent uploads of same-named files apart.
	tempPath := filepath.Join(c.uploadDir, uuid.New().String()+"-"+filepath.Base(fileHeader.Filename))
	if err := ctx.SaveUploadedFile(fileHeader, tempPath); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store uploaded file: " + err.Error()})
		return
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil {
			log.Printf("WARN: could not remove temp upload %s: %v", tempPath, err)
		}
	}()

	log.Printf("CONTROLLER: Processing file: %s", fileHeader.Filename)
	docID, err := c.ragService.IngestPDF(ctx.Request.Context(), tempPath, "")
	if err != nil {
		log.Printf("ERROR: ingesting PDF %s: %v", fileHeader.Filename, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, models.UploadResponse{
		DocID:   docID,
		Message: "PDF processed successfully",
	})
}

// Chat is the Gin handler for POST /chat.
func (c *RAGController) Chat(ctx *gin.Context) {
	var req models.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	response, err := c.ragService.Answer(ctx.Request.Context(), req.Question, req.DocID, req.History)
	if err != nil {
		log.Printf("ERROR: answering question: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// Health is the Gin handler for GET /health.
func (c *RAGController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "PDF RAG API",
	})
}
