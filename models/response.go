package models

// UploadResponse is returned by POST /upload-pdf on success.
type UploadResponse struct {
	DocID   string `json:"doc_id"`
	Message string `json:"message"`
}

// Source is a bounded preview of a retrieved chunk, returned alongside the
// answer so callers can show where it came from. PageNumber is taken from
// the chunk's index metadata and omitted when the record carries none.
type Source struct {
	Content    string `json:"content"`
	PageNumber int    `json:"page_number,omitempty"`
}

// ChatResponse is returned by POST /chat.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
}
