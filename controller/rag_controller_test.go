package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfrag/models"
)

type stubRAGService struct {
	ingestDocID  string
	ingestErr    error
	ingestedPath string

	answer    *models.ChatResponse
	answerErr error

	lastQuestion string
	lastDocID    string
	lastHistory  []models.ChatMessage
}

func (s *stubRAGService) IngestPDF(_ context.Context, path string, _ string) (string, error) {
	s.ingestedPath = path
	if s.ingestErr != nil {
		return "", s.ingestErr
	}
	return s.ingestDocID, nil
}

func (s *stubRAGService) Answer(_ context.Context, question string, docID string, history []models.ChatMessage) (*models.ChatResponse, error) {
	s.lastQuestion = question
	s.lastDocID = docID
	s.lastHistory = history
	if s.answerErr != nil {
		return nil, s.answerErr
	}
	return s.answer, nil
}

func newTestRouter(t *testing.T, svc *stubRAGService) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	uploadDir := t.TempDir()
	ctrl, err := NewRAGController(svc, uploadDir)
	require.NoError(t, err)

	router := gin.New()
	router.POST("/upload-pdf", ctrl.UploadPDF)
	router.POST("/chat", ctrl.Chat)
	router.GET("/health", ctrl.Health)
	return router, uploadDir
}

func pdfUploadRequest(t *testing.T, contentType string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="doc.pdf"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake payload"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-pdf", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadPDFSuccessReturnsDocID(t *testing.T) {
	svc := &stubRAGService{ingestDocID: "doc-42"}
	router, uploadDir := newTestRouter(t, svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, pdfUploadRequest(t, "application/pdf"))

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "doc-42", resp.DocID)
	assert.Equal(t, "PDF processed successfully", resp.Message)

	// Temp file must be gone after processing.
	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadPDFRejectsNonPDFContentType(t *testing.T) {
	svc := &stubRAGService{ingestDocID: "doc-42"}
	router, _ := newTestRouter(t, svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, pdfUploadRequest(t, "text/plain"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.ingestedPath, "service must not be called for rejected uploads")
}

func TestUploadPDFMissingFileField(t *testing.T) {
	router, _ := newTestRouter(t, &stubRAGService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload-pdf", strings.NewReader(""))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadPDFIngestionFailureReturns500AndCleansUp(t *testing.T) {
	svc := &stubRAGService{ingestErr: assert.AnError}
	router, uploadDir := newTestRouter(t, svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, pdfUploadRequest(t, "application/pdf"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be removed on failure too")
}

func TestChatForwardsRequestAndReturnsAnswer(t *testing.T) {
	svc := &stubRAGService{answer: &models.ChatResponse{
		Answer:  "Blue.",
		Sources: []models.Source{{Content: "The sky is blue."}},
	}}
	router, _ := newTestRouter(t, svc)

	body := `{"doc_id":"d1","question":"What color is the sky?","history":[{"role":"user","content":"Hi"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Blue.", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "The sky is blue.", resp.Sources[0].Content)

	assert.Equal(t, "What color is the sky?", svc.lastQuestion)
	assert.Equal(t, "d1", svc.lastDocID)
	require.Len(t, svc.lastHistory, 1)
	assert.Equal(t, "user", svc.lastHistory[0].Role)
}

func TestChatRequiresQuestion(t *testing.T) {
	router, _ := newTestRouter(t, &stubRAGService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"doc_id":"d1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatServiceFailureReturns500(t *testing.T) {
	router, _ := newTestRouter(t, &stubRAGService{answerErr: assert.AnError})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"question":"q?"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, &stubRAGService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
