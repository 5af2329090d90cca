package progress

import (
	"sync"

	"github.com/brettvantil/edgar-answer-engine/internal/core/domain"
)

const defaultBuffer = 64

// BufferedSink serializes progress events from concurrent producers into a
// bounded channel. When the buffer is full the oldest event is dropped, so
// Publish never blocks the pipeline on a slow consumer.
type BufferedSink struct {
	mu     sync.Mutex
	ch     chan domain.ProgressUpdate
	closed bool
}

func NewBufferedSink(buffer int) *BufferedSink {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &BufferedSink{ch: make(chan domain.ProgressUpdate, buffer)}
}

func (s *BufferedSink) Publish(update domain.ProgressUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- update:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// Updates is the consumer side. The channel closes after Close.
func (s *BufferedSink) Updates() <-chan domain.ProgressUpdate {
	return s.ch
}

func (s *BufferedSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// CallbackSink adapts a plain callback to the sink contract. Calls are
// serialized so concurrent producers never interleave.
type CallbackSink struct {
	mu sync.Mutex
	fn func(domain.ProgressUpdate)
}

func NewCallbackSink(fn func(domain.ProgressUpdate)) *CallbackSink {
	return &CallbackSink{fn: fn}
}

func (s *CallbackSink) Publish(update domain.ProgressUpdate) {
	if s == nil || s.fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fn(update)
}
