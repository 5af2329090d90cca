package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
	"github.com/brettvantil/edgar-answer-engine/internal/infrastructure/resilience"
)

// toolError converts an MCP tool-level error payload into a domain error.
// Complaints about the request itself will not improve on retry; they
// come back as unrecoverable so the pipeline aborts instead of hammering
// the source with a bad query.
func toolError(tool, message string) error {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		trimmed = "tool returned an error without detail"
	}
	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "invalid") || strings.Contains(lower, "malformed") || strings.Contains(lower, "unknown tool") {
		return domain.WrapError(domain.ErrSourceUnrecoverable, tool, errors.New(trimmed))
	}
	return fmt.Errorf("%s: %w: %s", tool, domain.ErrTemporary, trimmed)
}

func classifyEdgarError(err error) resilience.ErrorClassification {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	case domain.IsKind(err, domain.ErrSourceUnrecoverable), domain.IsKind(err, domain.ErrInvalidCriteria):
		// The request is at fault, not the source; do not trip the breaker.
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	default:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
}
