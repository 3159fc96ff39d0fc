package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/genai"

	"pdfrag/config"
)

// ChatModel produces a complete text response for a rendered prompt in a
// single synchronous call. No streaming, no tool use.
type ChatModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewChatModel selects the chat backend from configuration.
func NewChatModel(ctx context.Context, cfg *config.Config) (ChatModel, error) {
	switch cfg.ChatProvider {
	case "gemini":
		return NewGeminiChatModel(ctx, cfg)
	default:
		return NewAzureChatModel(cfg)
	}
}

// AzureChatModel invokes an Azure OpenAI chat deployment.
type AzureChatModel struct {
	llm *openai.LLM
}

// NewAzureChatModel builds a chat client against the configured Azure
// OpenAI endpoint and chat deployment.
func NewAzureChatModel(cfg *config.Config) (*AzureChatModel, error) {
	llm, err := openai.New(
		openai.WithAPIType(openai.APITypeAzure),
		openai.WithToken(cfg.AzureAPIKey),
		openai.WithBaseURL(cfg.AzureEndpoint),
		openai.WithAPIVersion(cfg.AzureAPIVersion),
		openai.WithModel(cfg.ChatDeployment),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create azure chat client: %w", err)
	}
	return &AzureChatModel{llm: llm}, nil
}

// Generate sends the prompt as a single user turn and returns the full
// response text.
func (m *AzureChatModel) Generate(ctx context.Context, prompt string) (string, error) {
	answer, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("azure chat call failed: %w", err)
	}
	return answer, nil
}

// GeminiChatModel invokes Google Gemini through the genai client.
type GeminiChatModel struct {
	client *genai.Client
	model  string
}

// NewGeminiChatModel connects to the Gemini API using the configured key.
func NewGeminiChatModel(ctx context.Context, cfg *config.Config) (*GeminiChatModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create gemini client: %w", err)
	}
	return &GeminiChatModel{client: client, model: "gemini-2.5-flash"}, nil
}

// Generate sends the prompt to Gemini and concatenates the text parts of
// the first candidate.
func (m *GeminiChatModel) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var responseText strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			responseText.WriteString(p.Text)
		}
	}
	return responseText.String(), nil
}
