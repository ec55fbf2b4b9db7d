package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// WebhookResponse acknowledges a webhook notification back to Ragic.
type WebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	RagicID int64  `json:"ragic_id,omitempty"`
	Source  string `json:"source,omitempty"`
}

// SyncResultResponse is the JSON representation of one sync run.
type SyncResultResponse struct {
	Synced   int      `json:"synced"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Deleted  int      `json:"deleted"`
	Duration string   `json:"duration"`
	Errors   []string `json:"errors,omitempty"`
}

// ServiceStatusResponse is the JSON representation of one sync service's
// operational state.
type ServiceStatusResponse struct {
	Key        string              `json:"key"`
	Name       string              `json:"name"`
	Module     string              `json:"module"`
	State      string              `json:"state"`
	LastResult *SyncResultResponse `json:"last_result,omitempty"`
	LastSyncAt string              `json:"last_sync_at,omitempty"`
}

// ServiceInfoResponse is one entry of the service listing endpoint.
type ServiceInfoResponse struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Module string `json:"module"`
}

// HealthResponse is the JSON representation of the health check endpoint.
// Ragic carries the connectivity probe outcome ("ok" or "unreachable").
type HealthResponse struct {
	Status       string `json:"status"`
	Time         string `json:"time"`
	Ragic        string `json:"ragic,omitempty"`
	RagicLatency string `json:"ragic_latency,omitempty"`
}

// toSyncResultResponse converts a domain SyncResult to its JSON representation.
func toSyncResultResponse(r *model.SyncResult) *SyncResultResponse {
	if r == nil {
		return nil
	}
	return &SyncResultResponse{
		Synced:   r.Synced,
		Skipped:  r.Skipped,
		Failed:   r.Failed,
		Deleted:  r.Deleted,
		Duration: r.Duration.Round(time.Millisecond).String(),
		Errors:   r.Errors,
	}
}

// toServiceStatusResponse converts a domain SyncStatus to its JSON representation.
func toServiceStatusResponse(s model.SyncStatus) ServiceStatusResponse {
	resp := ServiceStatusResponse{
		Key:        s.Key,
		Name:       s.Name,
		Module:     s.Module,
		State:      string(s.State),
		LastResult: toSyncResultResponse(s.LastResult),
	}
	if !s.LastSyncAt.IsZero() {
		resp.LastSyncAt = s.LastSyncAt.UTC().Format(time.RFC3339)
	}
	return resp
}
