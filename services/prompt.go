package services

import (
	"strings"

	"pdfrag/models"
)

// groundingPrompt pins the model to the retrieved context.
const groundingPrompt = "You are an AI that answers questions using the document context only. " +
	"If the answer is not in the context, say: 'I could not find that in the document.'"

// sourcePreviewLen bounds the chunk previews returned as sources.
const sourcePreviewLen = 200

// buildPrompt assembles the single grounded prompt sent to the chat model:
// instruction, retrieved context, then the effective question.
func buildPrompt(context, question string) string {
	var b strings.Builder
	b.WriteString(groundingPrompt)
	b.WriteString("\n\nContext:\n")
	b.WriteString(context)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

// renderQuestion folds the caller-supplied history into the question as
// "User:"/"Assistant:" lines, ending with the current question. History is
// request-local; nothing is stored between calls.
func renderQuestion(question string, history []models.ChatMessage) string {
	var b strings.Builder
	for _, msg := range history {
		prefix := "Assistant"
		if msg.Role == "user" {
			prefix = "User"
		}
		b.WriteString(prefix)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	b.WriteString("User: ")
	b.WriteString(question)
	return b.String()
}

// joinContext concatenates retrieved chunk texts, highest score first, with
// a blank-line separator. No re-ranking, deduplication or token-budget
// truncation is applied.
func joinContext(hits []models.ScoredChunk) string {
	texts := make([]string, 0, len(hits))
	for _, hit := range hits {
		texts = append(texts, hit.Text)
	}
	return strings.Join(texts, "\n\n")
}

// previewSource truncates a chunk text for the sources list, appending an
// ellipsis only when something was actually cut.
func previewSource(text string) string {
	runes := []rune(text)
	if len(runes) <= sourcePreviewLen {
		return text
	}
	return string(runes[:sourcePreviewLen]) + "..."
}
