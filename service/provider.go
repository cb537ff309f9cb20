package service

import "context"

// CompletionRequest is one schema-constrained call to a generative provider
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float32
}

// TextProvider answers free-text prompts with raw model output
type TextProvider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// DocumentProvider additionally accepts a binary document next to the prompt
type DocumentProvider interface {
	TextProvider
	CompleteDocument(ctx context.Context, req CompletionRequest, data []byte, mimeType string) (string, error)
}
