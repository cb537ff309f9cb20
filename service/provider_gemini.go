package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider is the multimodal provider. It answers text prompts and documents.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini client. Call Close when done.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Close releases the underlying client
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiProvider) generativeModel(req CompletionRequest) *genai.GenerativeModel {
	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(req.Temperature)
	model.ResponseMIMEType = "application/json"
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	return model
}

// Complete answers a text prompt
func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	resp, err := p.generativeModel(req).GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

// CompleteDocument sends the document bytes inline next to the prompt
func (p *GeminiProvider) CompleteDocument(ctx context.Context, req CompletionRequest, data []byte, mimeType string) (string, error) {
	resp, err := p.generativeModel(req).GenerateContent(ctx,
		genai.Text(req.Prompt),
		genai.Blob{MIMEType: mimeType, Data: data},
	)
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in Gemini response")
	}

	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", fmt.Errorf("empty Gemini candidate (finish reason %s)", cand.FinishReason)
	}

	var full strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			full.WriteString(string(text))
		}
	}
	if strings.TrimSpace(full.String()) == "" {
		return "", fmt.Errorf("empty Gemini response (finish reason %s)", cand.FinishReason)
	}
	return full.String(), nil
}
