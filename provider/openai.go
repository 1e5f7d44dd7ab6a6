package provider

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ZaguanLabs/transbasket"
)

// DefaultPromptTemplate is used when no template is configured.
const DefaultPromptTemplate = "{{PROMPT_PREFIX}} FROM {{LANGUAGE_BASE}} to {{LANGUAGE_TO}} :: {{TEXT}}"

// OpenAIConfig holds configuration for the OpenAI-compatible provider.
type OpenAIConfig struct {
	APIKey       string  // API key, passed to the client as is (no environment fallback)
	BaseURL      string  // Custom base URL for OpenAI-compatible endpoints
	Model        string  // Model to use (default: "gpt-4o-mini")
	Temperature  float32 // Temperature for generation (default: 0.3)
	PromptPrefix string  // Instruction text substituted into the template
	Template     string  // Prompt template (default: DefaultPromptTemplate)
}

// OpenAITranslator translates text through any OpenAI-compatible
// chat-completion endpoint.
type OpenAITranslator struct {
	client       *openai.Client
	model        string
	temperature  float32
	promptPrefix string
	template     string
}

// NewOpenAITranslator creates a new OpenAI-compatible translator.
func NewOpenAITranslator(cfg OpenAIConfig) *OpenAITranslator {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	template := cfg.Template
	if template == "" {
		template = DefaultPromptTemplate
	}

	return &OpenAITranslator{
		client:       openai.NewClientWithConfig(config),
		model:        model,
		temperature:  temperature,
		promptPrefix: cfg.PromptPrefix,
		template:     template,
	}
}

// Translate sends one chat completion and returns the cleaned model
// output.
func (p *OpenAITranslator) Translate(ctx context.Context, req Request) (string, error) {
	if req.Text == "" {
		return "", &transbasket.ProviderError{Message: "empty text", Retryable: false}
	}

	prompt := p.buildPrompt(req)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: p.temperature,
	})
	if err != nil {
		return "", classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &transbasket.ProviderError{
			Message:   "no choices in completion response",
			Retryable: true,
		}
	}

	translation := transbasket.CleanTranslation(resp.Choices[0].Message.Content)
	if translation == "" {
		return "", &transbasket.ProviderError{
			Message:   "empty translation in completion response",
			Retryable: false,
		}
	}

	return translation, nil
}

// buildPrompt expands the template with the prompt prefix, the
// human-readable language names and the text. In a template without a
// {{TEXT}} placeholder, everything after the first " :: " is replaced by
// the text; a template with neither gets " :: " and the text appended.
func (p *OpenAITranslator) buildPrompt(req Request) string {
	prompt := p.template
	prompt = strings.ReplaceAll(prompt, "{{PROMPT_PREFIX}}", p.promptPrefix)
	prompt = strings.ReplaceAll(prompt, "{{LANGUAGE_BASE}}", transbasket.LanguageName(req.FromLang))
	prompt = strings.ReplaceAll(prompt, "{{LANGUAGE_TO}}", transbasket.LanguageName(req.ToLang))

	if strings.Contains(prompt, "{{TEXT}}") {
		return strings.ReplaceAll(prompt, "{{TEXT}}", req.Text)
	}
	if idx := strings.Index(prompt, " :: "); idx >= 0 {
		return prompt[:idx] + " :: " + req.Text
	}
	return prompt + " :: " + req.Text
}

// classifyError maps transport and API failures onto ProviderError so
// callers can decide between 502, 503 and 504 responses.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &transbasket.ProviderError{
			Message: "request timed out", Cause: err, Retryable: true, Timeout: true,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &transbasket.ProviderError{Message: "request cancelled", Cause: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &transbasket.ProviderError{
			Message:    apiErr.Message,
			Cause:      err,
			StatusCode: apiErr.HTTPStatusCode,
			Retryable:  apiErr.HTTPStatusCode >= 500 || apiErr.HTTPStatusCode == 429,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &transbasket.ProviderError{
			Message:   "network failure",
			Cause:     err,
			Retryable: true,
			Timeout:   netErr.Timeout(),
		}
	}

	return &transbasket.ProviderError{Message: "completion request failed", Cause: err, Retryable: true}
}

// Verify OpenAITranslator implements Translator
var _ Translator = (*OpenAITranslator)(nil)
