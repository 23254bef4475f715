package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// geminiClient implements the Client interface for the Google Gemini API.
type geminiClient struct {
	client *genai.Client
	model  string
}

// newGeminiClient creates a new Gemini client.
func newGeminiClient(ctx context.Context, cfg Config) (Client, error) {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiClient{
		client: client,
		model:  model,
	}, nil
}

// Complete sends a completion request to Gemini and returns the raw text.
func (c *geminiClient) Complete(ctx context.Context, prompt, systemInstructions string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	var genCfg *genai.GenerateContentConfig
	if systemInstructions != "" {
		genCfg = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: systemInstructions}},
			},
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return text, nil
}
