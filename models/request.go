package models

// ChatRequest is the body of POST /chat. DocID scopes retrieval to a single
// uploaded document; when empty, retrieval runs across all documents.
type ChatRequest struct {
	DocID    string        `json:"doc_id,omitempty"`
	Question string        `json:"question" binding:"required"`
	History  []ChatMessage `json:"history,omitempty"`
}
