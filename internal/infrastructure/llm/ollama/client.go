// Package ollama generates natural-language answers from scored filing
// excerpts using a locally hosted Ollama model. The generator is an
// optional collaborator: callers treat a failure here as degraded output,
// not a failed query.
package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
	"github.com/brettvantil/edgar-answer-engine/internal/core/ports"
	"github.com/brettvantil/edgar-answer-engine/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func New(baseURL, model string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Generator is the ports.AnswerGenerator implementation.
type Generator struct {
	client   *Client
	executor *resilience.Executor
}

var _ ports.AnswerGenerator = (*Generator)(nil)

func NewGenerator(client *Client, executor *resilience.Executor) *Generator {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Generator{client: client, executor: executor}
}

func (g *Generator) GenerateAnswer(ctx context.Context, question string, results []domain.SearchResult) (string, error) {
	prompt := buildAnswerPrompt(question, results)

	var answer string
	err := g.executor.Execute(ctx, "ollama.generate", func(ctx context.Context) error {
		text, err := g.client.generateText(ctx, prompt)
		if err != nil {
			return err
		}
		answer = text
		return nil
	}, classifyOllamaError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("generate answer", err)
	}
	return answer, nil
}

func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
