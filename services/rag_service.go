package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"pdfrag/models"
)

// topK is the number of chunks retrieved per question.
const topK = 5

// RAGService exposes the two pipeline operations: ingest a PDF into the
// vector index and answer a question grounded in retrieved chunks.
type RAGService interface {
	IngestPDF(ctx context.Context, path string, docID string) (string, error)
	Answer(ctx context.Context, question string, docID string, history []models.ChatMessage) (*models.ChatResponse, error)
}

// ragServiceImpl holds the injected collaborators. All fields are set at
// construction and never mutated, so concurrent calls are safe; the index
// provisioning guard is the only local synchronization.
type ragServiceImpl struct {
	chunker  *Chunker
	embedder Embedder
	index    VectorIndex
	chat     ChatModel
	extract  func(path string) ([]models.Page, error)

	provisionOnce sync.Once
	provisionErr  error
}

// NewRAGService wires the pipelines with their collaborators.
func NewRAGService(chunker *Chunker, embedder Embedder, index VectorIndex, chat ChatModel) RAGService {
	return &ragServiceImpl{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		chat:     chat,
		extract:  ExtractPages,
	}
}

// ensureIndex provisions the vector index at most once per process. Later
// calls observe the first outcome.
func (r *ragServiceImpl) ensureIndex(ctx context.Context) error {
	r.provisionOnce.Do(func() {
		r.provisionErr = r.index.EnsureReady(ctx)
	})
	return r.provisionErr
}

// IngestPDF runs the ingestion pipeline: extract pages, tag them with the
// document id (generated when absent), chunk, batch-embed, and upsert into
// the index. On a failed upsert the already-written records for this
// document are removed best-effort before the error is returned.
func (r *ragServiceImpl) IngestPDF(ctx context.Context, path string, docID string) (string, error) {
	if err := r.ensureIndex(ctx); err != nil {
		return "", err
	}

	if docID == "" {
		docID = uuid.New().String()
	}
	log.Printf("SERVICE: Ingesting PDF %s as document %s", path, docID)

	pages, err := r.extract(path)
	if err != nil {
		return "", err
	}
	for i := range pages {
		pages[i].DocID = docID
	}

	chunks, err := r.chunker.SplitPages(pages)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		log.Printf("SERVICE: Document %s produced no chunks, nothing to index", docID)
		return docID, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := r.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("could not embed chunks for document %s: %w", docID, err)
	}

	records := make([]models.VectorRecord, len(chunks))
	for i, vec := range vectors {
		if len(vec) != r.embedder.Dimension() {
			return "", fmt.Errorf("%w: got vector of length %d, index expects %d", ErrDimensionMismatch, len(vec), r.embedder.Dimension())
		}
		records[i] = models.VectorRecord{Chunk: chunks[i], Embedding: vec}
	}

	if err := r.index.Upsert(ctx, records); err != nil {
		// Compensating cleanup: drop whatever made it in before the
		// failure so a retry does not duplicate chunks.
		if delErr := r.index.DeleteByDoc(ctx, docID); delErr != nil {
			log.Printf("WARN: could not clean up partial records for document %s: %v", docID, delErr)
		}
		return "", err
	}

	log.Printf("SERVICE: Indexed %d chunks from %d pages for document %s", len(records), len(pages), docID)
	return docID, nil
}

// Answer runs the retrieval-augmented answering pipeline: embed the
// question, retrieve the top chunks (optionally scoped to one document),
// build a grounded prompt including the rendered history, and invoke the
// chat model once.
func (r *ragServiceImpl) Answer(ctx context.Context, question string, docID string, history []models.ChatMessage) (*models.ChatResponse, error) {
	if err := r.ensureIndex(ctx); err != nil {
		return nil, err
	}
	log.Printf("SERVICE: Answering question (doc scope: %q)", docID)

	vectors, err := r.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("%w: could not embed question: %v", ErrAnswering, err)
	}

	hits, err := r.index.Query(ctx, vectors[0], topK, docID)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieval failed: %v", ErrAnswering, err)
	}

	prompt := buildPrompt(joinContext(hits), renderQuestion(question, history))
	answer, err := r.chat.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnswering, err)
	}

	sources := make([]models.Source, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, models.Source{
			Content:    previewSource(hit.Text),
			PageNumber: pageNumberOf(hit.Metadata),
		})
	}

	return &models.ChatResponse{Answer: answer, Sources: sources}, nil
}

// pageNumberOf reads the page number out of a hit's metadata bag. The JSON
// round-trip in the chroma adapter yields float64 for numeric attributes;
// zero means the record carries no page number.
func pageNumberOf(metadata map[string]interface{}) int {
	switch v := metadata["page_number"].(type) {
	case float64:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
