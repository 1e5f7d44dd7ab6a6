package provider

import (
	"context"

	"github.com/ZaguanLabs/transbasket"
)

// RetryingTranslator wraps a Translator with exponential backoff retry.
type RetryingTranslator struct {
	translator Translator
	config     transbasket.RetryConfig
}

// NewRetryingTranslator creates a translator that retries retryable
// provider failures.
func NewRetryingTranslator(t Translator, cfg transbasket.RetryConfig) *RetryingTranslator {
	return &RetryingTranslator{translator: t, config: cfg}
}

// Translate implements Translator with retry logic.
func (p *RetryingTranslator) Translate(ctx context.Context, req Request) (string, error) {
	return transbasket.WithRetry(ctx, p.config, func() (string, error) {
		return p.translator.Translate(ctx, req)
	})
}

// Verify RetryingTranslator implements Translator
var _ Translator = (*RetryingTranslator)(nil)
