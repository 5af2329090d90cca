package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
)

// sseWriter emits server-sent events for a streaming pipeline run: one
// "progress" event per update, one terminal "result" or "error" event,
// then the [DONE] sentinel.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming is not supported by response writer")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	return &sseWriter{w: w, flusher: flusher}, nil
}

func (s *sseWriter) WriteProgress(update domain.ProgressUpdate) error {
	return s.writeEvent("progress", update)
}

func (s *sseWriter) WriteResult(result *domain.ThematicSearchResult) error {
	return s.writeEvent("result", result)
}

func (s *sseWriter) WriteError(code, message string) error {
	return s.writeEvent("error", map[string]string{
		"error_code": code,
		"message":    message,
	})
}

func (s *sseWriter) WriteDone() error {
	if _, err := io.WriteString(s.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) writeEvent(event string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, body); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
