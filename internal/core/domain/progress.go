package domain

type PipelinePhase string

const (
	PhaseDiscovery   PipelinePhase = "discovery"
	PhaseSearch      PipelinePhase = "search"
	PhaseAggregation PipelinePhase = "aggregation"
)

// ProgressUpdate is a transient progress event. Total is 0 when the stage
// cannot estimate it. Events are informational only and never persisted.
type ProgressUpdate struct {
	Phase       PipelinePhase `json:"phase"`
	Completed   int           `json:"completed"`
	Total       int           `json:"total,omitempty"`
	CurrentItem string        `json:"current_item,omitempty"`
}

// ProgressSink receives progress events. Publish must never block the
// pipeline; implementations decide the overflow policy.
type ProgressSink interface {
	Publish(update ProgressUpdate)
}

// NopProgressSink discards all events.
type NopProgressSink struct{}

func (NopProgressSink) Publish(ProgressUpdate) {}
