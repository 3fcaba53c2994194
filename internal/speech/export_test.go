package speech

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// SpeechCreatorFunc adapts a function to the internal client interface.
type SpeechCreatorFunc func(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)

func (f SpeechCreatorFunc) CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error) {
	return f(ctx, req)
}

// NewOpenAIWithClient builds an OpenAI synthesizer over a test client.
func NewOpenAIWithClient(client SpeechCreatorFunc, opts ...Option) *OpenAI {
	return newOpenAI(client, opts...)
}
