package refine

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Model turns a prompt into a reply that should hold one JSON object.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, prompt string) (string, error)

func (f ModelFunc) Generate(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }

// GenAIModel calls a Gemini model with deterministic sampling and a JSON
// response type.
type GenAIModel struct {
	client *genai.Client
	model  string
}

// NewGenAIModel creates a client bound to apiKey. The key is always passed
// explicitly; nothing is read from the environment here.
func NewGenAIModel(ctx context.Context, apiKey, model string) (*GenAIModel, error) {
	if apiKey == "" {
		return nil, errors.New("refine.api_key is required")
	}
	if model == "" {
		return nil, errors.New("refine.model is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create GenAI client: %w", err)
	}
	return &GenAIModel{client: client, model: model}, nil
}

// Generate sends prompt as a single user turn.
func (m *GenAIModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("generate with %s: %w", m.model, err)
	}
	return resp.Text(), nil
}

// Name identifies the backing model in logs.
func (m *GenAIModel) Name() string {
	return "genai:" + m.model
}
