package recipes

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/pantrypal-backend/pkg/errors"
	"google.golang.org/genai"
)

// Request is one completion call.
type Request struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int
}

// Generator produces recipe text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GenAIGenerator calls the Gemini API through google.golang.org/genai.
type GenAIGenerator struct {
	client *genai.Client
}

// NewGenAIGenerator creates a Gemini-backed generator.
func NewGenAIGenerator(ctx context.Context, apiKey string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenAIGenerator{client: client}, nil
}

func (g *GenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx,
		req.Model,
		[]*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)},
		cfg,
	)
	if err != nil {
		return "", fmt.Errorf("genai generate failed: %w", err)
	}
	return resp.Text(), nil
}

// unavailableGenerator is used when no model credentials are configured.
type unavailableGenerator struct{}

// UnavailableGenerator returns a generator whose every call fails with a dependency error.
func UnavailableGenerator() Generator {
	return unavailableGenerator{}
}

func (unavailableGenerator) Generate(context.Context, Request) (string, error) {
	return "", pkgerrors.New(pkgerrors.CodeDependency, "recipe generation is not configured")
}
