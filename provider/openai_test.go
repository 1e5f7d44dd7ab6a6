package provider

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/ZaguanLabs/transbasket"
)

func TestBuildPrompt_DefaultTemplate(t *testing.T) {
	p := NewOpenAITranslator(OpenAIConfig{
		APIKey:       "test",
		PromptPrefix: "Translate the following text",
	})

	prompt := p.buildPrompt(Request{FromLang: "kor", ToLang: "eng", Text: "안녕하세요"})

	if !strings.Contains(prompt, "Translate the following text") {
		t.Errorf("prompt missing prefix: %q", prompt)
	}
	if !strings.Contains(prompt, "FROM Korean to English") {
		t.Errorf("prompt missing language names: %q", prompt)
	}
	if !strings.HasSuffix(prompt, ":: 안녕하세요") {
		t.Errorf("prompt missing text: %q", prompt)
	}
}

func TestBuildPrompt_TextPlaceholder(t *testing.T) {
	p := NewOpenAITranslator(OpenAIConfig{
		APIKey:   "test",
		Template: "Translate {{TEXT}} into {{LANGUAGE_TO}}",
	})

	prompt := p.buildPrompt(Request{FromLang: "eng", ToLang: "fre", Text: "water"})
	if prompt != "Translate water into French" {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestBuildPrompt_UnknownLanguageFallsBackToCode(t *testing.T) {
	p := NewOpenAITranslator(OpenAIConfig{APIKey: "test"})

	prompt := p.buildPrompt(Request{FromLang: "zul", ToLang: "eng", Text: "x"})
	if !strings.Contains(prompt, "FROM zul to English") {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestTranslate_EmptyText(t *testing.T) {
	p := NewOpenAITranslator(OpenAIConfig{APIKey: "test"})

	_, err := p.Translate(context.Background(), Request{FromLang: "kor", ToLang: "eng"})

	var pe *transbasket.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ProviderError", err)
	}
	if pe.Retryable {
		t.Error("empty-text error should not be retryable")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		timeout   bool
		status    int
	}{
		{"deadline", context.DeadlineExceeded, true, true, 0},
		{"server error", &openai.APIError{HTTPStatusCode: 503, Message: "overloaded"}, true, false, 503},
		{"rate limit", &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}, true, false, 429},
		{"bad request", &openai.APIError{HTTPStatusCode: 400, Message: "bad model"}, false, false, 400},
		{"auth", &openai.APIError{HTTPStatusCode: 401, Message: "bad key"}, false, false, 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyError(tt.err)

			var pe *transbasket.ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("classifyError(%v) = %v, want ProviderError", tt.err, err)
			}
			if pe.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", pe.Retryable, tt.retryable)
			}
			if pe.Timeout != tt.timeout {
				t.Errorf("timeout = %v, want %v", pe.Timeout, tt.timeout)
			}
			if pe.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", pe.StatusCode, tt.status)
			}
		})
	}
}

func TestMockTranslator(t *testing.T) {
	m := NewMockTranslator()

	got, err := m.Translate(context.Background(), Request{FromLang: "kor", ToLang: "eng", Text: "안녕하세요"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "Hello" {
		t.Errorf("translation = %q, want %q", got, "Hello")
	}

	got, _ = m.Translate(context.Background(), Request{Text: "unscripted"})
	if got != "[unscripted]" {
		t.Errorf("unscripted translation = %q", got)
	}

	if m.Calls() != 2 {
		t.Errorf("calls = %d, want 2", m.Calls())
	}

	m.Reset()
	if m.Calls() != 0 {
		t.Errorf("calls after reset = %d, want 0", m.Calls())
	}
}

func TestRetryingTranslator_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	flaky := translatorFunc(func(ctx context.Context, req Request) (string, error) {
		calls++
		if calls < 3 {
			return "", &transbasket.ProviderError{Message: "unavailable", Retryable: true}
		}
		return "Hello", nil
	})

	rt := NewRetryingTranslator(flaky, transbasket.RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1,
		MaxDelay:   1,
	})

	got, err := rt.Translate(context.Background(), Request{Text: "안녕하세요"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "Hello" || calls != 3 {
		t.Errorf("got %q after %d calls, want Hello after 3", got, calls)
	}
}

// translatorFunc adapts a function to the Translator interface.
type translatorFunc func(ctx context.Context, req Request) (string, error)

func (f translatorFunc) Translate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
