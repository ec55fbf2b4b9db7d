// Package httphandler is the HTTP driving adapter: Ragic webhook intake plus
// the sync status API.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/ragicsync/internal/application"
)

// maxWebhookBody caps the request body read for webhook notifications.
const maxWebhookBody = 1 << 20

// probeTimeout bounds the Ragic connectivity probe on the health endpoint.
const probeTimeout = 5 * time.Second

// ConnectionProbe checks remote reachability and returns the round-trip
// latency of the probe request.
type ConnectionProbe func(ctx context.Context) (time.Duration, error)

// Handler is the HTTP driving adapter serving webhooks and the REST API.
type Handler struct {
	manager *application.SyncManager
	token   string
	secret  []byte
	probe   ConnectionProbe
	logger  *slog.Logger
}

// NewHandler creates a Handler. Token and secret are the webhook auth
// credentials; at least one must be non-empty. The probe reports Ragic
// connectivity on the health endpoint and may be nil.
func NewHandler(manager *application.SyncManager, token string, secret []byte, probe ConnectionProbe, logger *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		token:   token,
		secret:  secret,
		probe:   probe,
		logger:  logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /webhooks/ragic", h.Webhook)
	mux.HandleFunc("POST /webhooks/ragic/sync", h.TriggerSync)
	mux.HandleFunc("GET /webhooks/ragic/status", h.Status)
	mux.HandleFunc("GET /webhooks/ragic/services", h.Services)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Webhook receives a Ragic record-change notification and applies it to the
// local cache. Authentication and source resolution both happen before any
// state changes.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	if !h.authorize(r, body) {
		h.logger.Warn("webhook rejected", "reason", "bad credentials", "remote", r.RemoteAddr)
		writeError(w, http.StatusForbidden, "invalid webhook credentials")
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		writeError(w, http.StatusBadRequest, "missing source parameter")
		return
	}

	payload, err := parseWebhookPayload(r.Header.Get("Content-Type"), body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.ragicID == 0 {
		writeError(w, http.StatusBadRequest, "missing record id")
		return
	}

	err = h.manager.HandleWebhook(r.Context(), source, payload.ragicID, payload.action)
	if errors.Is(err, application.ErrUnknownService) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown source %q", source))
		return
	}
	if err != nil {
		h.logger.Error("webhook processing failed",
			"source", source,
			"ragic_id", payload.ragicID,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, WebhookResponse{
			Success: false,
			Message: "record sync failed",
			RagicID: payload.ragicID,
			Source:  source,
		})
		return
	}

	writeJSON(w, http.StatusOK, WebhookResponse{
		Success: true,
		Message: "record synced",
		RagicID: payload.ragicID,
		Source:  source,
	})
}

// TriggerSync runs a full sync of one service (?source=) or all services.
// The sync goes through the manager's refresh channel so triggered and
// periodic syncs run on the same worker goroutine and never interleave.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	if !h.authorize(r, body) {
		writeError(w, http.StatusForbidden, "invalid webhook credentials")
		return
	}

	source := r.URL.Query().Get("source")
	syncErr := h.manager.Refresh(r.Context(), source)

	if errors.Is(syncErr, application.ErrUnknownService) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown source %q", source))
		return
	}
	if syncErr != nil {
		h.logger.Error("triggered sync failed", "source", source, "error", syncErr)
		writeJSON(w, http.StatusInternalServerError, WebhookResponse{
			Success: false,
			Message: "sync failed",
			Source:  source,
		})
		return
	}

	writeJSON(w, http.StatusOK, WebhookResponse{
		Success: true,
		Message: "sync complete",
		Source:  source,
	})
}

// Status returns every registered sync service's operational state.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	statuses := h.manager.Statuses()
	resp := make([]ServiceStatusResponse, 0, len(statuses))
	for _, s := range statuses {
		resp = append(resp, toServiceStatusResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Services lists the registered sync services.
func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	statuses := h.manager.Statuses()
	resp := make([]ServiceInfoResponse, 0, len(statuses))
	for _, s := range statuses {
		resp = append(resp, ServiceInfoResponse{Key: s.Key, Name: s.Name, Module: s.Module})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health is a liveness check that also probes Ragic connectivity. Remote
// trouble is reported in the body, not the status code: the daemon itself is
// still alive and container orchestrators must not restart it over it.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	if h.probe != nil {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()
		if latency, err := h.probe(ctx); err != nil {
			resp.Ragic = "unreachable"
		} else {
			resp.Ragic = "ok"
			resp.RagicLatency = latency.Round(time.Millisecond).String()
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// webhookPayload is the parsed body of a webhook notification.
type webhookPayload struct {
	ragicID int64
	action  application.WebhookAction
}

// parseWebhookPayload extracts the record id and action from a webhook body.
// Ragic sends form-encoded bodies by default; JSON is accepted as well. The
// record id is read from "_ragicId" with "ragicId" and "id" as fallbacks.
func parseWebhookPayload(contentType string, body []byte) (webhookPayload, error) {
	fields, err := decodeBody(contentType, body)
	if err != nil {
		return webhookPayload{}, err
	}

	var payload webhookPayload
	for _, key := range []string{"_ragicId", "ragicId", "id"} {
		if raw, ok := fields[key]; ok && raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return webhookPayload{}, fmt.Errorf("invalid record id %q", raw)
			}
			payload.ragicID = id
			break
		}
	}

	payload.action = application.WebhookAction(strings.ToLower(fields["action"]))
	return payload, nil
}

func decodeBody(contentType string, body []byte) (map[string]string, error) {
	if len(body) == 0 {
		return map[string]string{}, nil
	}

	if strings.Contains(contentType, "application/json") {
		raw := map[string]any{}
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("invalid JSON body")
		}
		fields := make(map[string]string, len(raw))
		for key, value := range raw {
			switch v := value.(type) {
			case string:
				fields[key] = v
			case float64:
				fields[key] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		return fields, nil
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("invalid form body")
	}
	fields := make(map[string]string, len(values))
	for key := range values {
		fields[key] = values.Get(key)
	}
	return fields, nil
}
