package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
	"github.com/brettvantil/edgar-answer-engine/internal/infrastructure/resilience"
)

func fastExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RequestsPerSecond:   1000,
		Burst:               100,
		RetryMaxAttempts:    1,
		RetryInitialBackoff: time.Millisecond,
		BreakerEnabled:      false,
	})
}

func TestGenerateAnswerBuildsExcerptPrompt(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"Acme leads on the theme."}`))
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "llama3"), fastExecutor())
	answer, err := gen.GenerateAnswer(context.Background(), "who discusses tariffs?", []domain.SearchResult{{
		Filing: domain.DiscoveredFiling{
			AccessionNumber: "a-1",
			CompanyName:     "Acme Corp",
			FormType:        "10-K",
			FiledAt:         time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		Score:   0.91,
		Snippet: "tariff exposure on imported components",
	}})
	if err != nil {
		t.Fatalf("GenerateAnswer() error = %v", err)
	}
	if answer != "Acme leads on the theme." {
		t.Fatalf("unexpected answer %q", answer)
	}
	if !strings.Contains(capturedPrompt, "who discusses tariffs?") {
		t.Fatalf("question missing from prompt: %s", capturedPrompt)
	}
	if !strings.Contains(capturedPrompt, "tariff exposure on imported components") {
		t.Fatalf("snippet missing from prompt: %s", capturedPrompt)
	}
	if !strings.Contains(capturedPrompt, "company=Acme Corp") {
		t.Fatalf("filing identity missing from prompt: %s", capturedPrompt)
	}
}

func TestGenerateAnswerIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusNotFound)
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "llama3"), fastExecutor())
	_, err := gen.GenerateAnswer(context.Background(), "q", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestGenerateAnswerRetryableFailureWrappedTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "llama3"), fastExecutor())
	_, err := gen.GenerateAnswer(context.Background(), "q", nil)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary kind for retryable status, got %v", err)
	}
}
