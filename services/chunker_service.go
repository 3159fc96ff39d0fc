package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"pdfrag/models"
)

// Chunker splits page text into overlapping character windows using the
// recursive character splitter, which prefers paragraph, sentence and word
// boundaries before falling back to a hard cut. Splitting is deterministic
// for a fixed input and parameter pair.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

// NewChunker creates a chunker with the given window size and overlap, both
// in characters. Overlap must be smaller than size.
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", chunkOverlap, chunkSize)
	}
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}, nil
}

// SplitPages chunks each page's text and returns all chunks in page order.
// Chunks inherit the page's DocID and PageNumber and record the character
// offset of their start within the page text. Pages with no text produce no
// chunks.
func (c *Chunker) SplitPages(pages []models.Page) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		parts, err := c.splitter.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("could not split page %d: %w", page.PageNumber, err)
		}

		// The splitter returns chunk texts only. Offsets are recovered by
		// scanning forward through the source text; since successive chunks
		// start at strictly increasing positions, a moving search floor
		// keeps the lookup deterministic even when chunk texts repeat.
		searchFrom := 0
		for _, part := range parts {
			offset := locateChunk(page.Text, part, searchFrom, page.PageNumber)
			chunks = append(chunks, models.Chunk{
				DocID:      page.DocID,
				PageNumber: page.PageNumber,
				StartIndex: offset,
				Text:       part,
			})
			searchFrom = offset + 1
		}
	}
	return chunks, nil
}

// locateChunk finds the start offset of a chunk within the page text, never
// searching before searchFrom. The splitter may trim whitespace at chunk
// boundaries; when the chunk text cannot be found verbatim, the search
// floor is used as a best guess and the imprecision is logged.
func locateChunk(text, part string, searchFrom, pageNumber int) int {
	if idx := strings.Index(text[searchFrom:], part); idx >= 0 {
		return searchFrom + idx
	}
	log.Printf("WARN: chunk text not found verbatim in page %d, recording approximate start offset %d", pageNumber, searchFrom)
	return searchFrom
}
