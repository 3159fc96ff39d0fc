package models

// Page is one physical page of extracted PDF text. The page number is
// 1-based. Text may be empty when extraction produced nothing for the page.
type Page struct {
	DocID      string
	PageNumber int
	Text       string
}

// Chunk is a bounded text window cut from a page, the unit of retrieval.
// StartIndex is the character offset of the chunk within its source page.
type Chunk struct {
	DocID      string
	PageNumber int
	StartIndex int
	Text       string
}

// VectorRecord pairs an embedded chunk with its vector, ready for upsert.
type VectorRecord struct {
	Chunk     Chunk
	Embedding []float32
}

// ScoredChunk is a retrieval hit: chunk text, its metadata bag, and the
// similarity score reported by the vector index (higher is more similar).
type ScoredChunk struct {
	Text     string
	Metadata map[string]interface{}
	Score    float32
}

// ChatMessage is a single conversation turn supplied by the caller as
// history. Turns are request-local and never persisted server-side.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
