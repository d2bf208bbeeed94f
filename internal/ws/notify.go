package ws

import (
	"encoding/json"

	"freestuffmap/internal/scrape"
)

type RunCompletedEvent struct {
	Type      string                `json:"type"`
	RunID     string                `json:"run_id"`
	Timestamp string                `json:"timestamp"`
	Results   []scrape.SourceResult `json:"results,omitempty"`
	Error     string                `json:"error,omitempty"`
	Success   bool                  `json:"success"`
}

// NotifyRunCompleted pushes a finished run's summary to every connected
// client.
func (h *Hub) NotifyRunCompleted(rec scrape.RunRecord) {
	if h == nil {
		return
	}
	evt := RunCompletedEvent{
		Type:      "scrape_run_completed",
		RunID:     rec.RunID,
		Timestamp: rec.Timestamp,
		Results:   rec.Results,
		Error:     rec.Error,
		Success:   rec.Success,
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.Broadcast(b)
}
