package handlers

import (
	"encoding/json"
	stdErrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TFMV/planscribe/pkg/errors"
	"github.com/TFMV/planscribe/pkg/infrastructure/metrics"
	"github.com/TFMV/planscribe/pkg/models"
	"github.com/TFMV/planscribe/pkg/services"
)

// Response headers set by the narrate endpoint.
const (
	HeaderCache     = "X-Planscribe-Cache"
	HeaderNodeCount = "X-Planscribe-Nodes"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 4 << 20

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NarrativeHandler serves the narration API.
type NarrativeHandler struct {
	narration    services.NarrationService
	explain      services.ExplainService
	logger       Logger
	metrics      MetricsCollector
	maxBodyBytes int64
}

// NewNarrativeHandler creates a new narrative handler. explain may be nil, in
// which case the explain endpoint is not registered.
func NewNarrativeHandler(
	narration services.NarrationService,
	explain services.ExplainService,
	maxBodyBytes int64,
	logger Logger,
	metrics MetricsCollector,
) *NarrativeHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &NarrativeHandler{
		narration:    narration,
		explain:      explain,
		logger:       logger,
		metrics:      metrics,
		maxBodyBytes: maxBodyBytes,
	}
}

// Register mounts the handler's routes on mux.
func (h *NarrativeHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/narrate", h.handleNarrate)
	mux.HandleFunc("POST /v1/inspect", h.handleInspect)
	if h.explain != nil {
		mux.HandleFunc("POST /v1/explain", h.handleExplain)
	}
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// Routes returns a ServeMux with every route registered.
func (h *NarrativeHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func (h *NarrativeHandler) handleNarrate(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	result, err := h.narration.Narrate(r.Context(), &models.NarrateRequest{
		Name:     r.URL.Query().Get("name"),
		Document: body,
		Source:   "http",
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	cacheState := "miss"
	if result.Cached {
		cacheState = "hit"
	}
	w.Header().Set(HeaderCache, cacheState)
	w.Header().Set(HeaderNodeCount, strconv.Itoa(result.NodeCount))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, result.Narrative)
	h.recordRequest("narrate", http.StatusOK)
}

func (h *NarrativeHandler) handleInspect(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	n, err := h.narration.Inspect(r.Context(), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		writeJSON(w, http.StatusOK, n)
	case "yaml", "yml":
		out, err := yaml.Marshal(n)
		if err != nil {
			h.writeError(w, r, errors.Wrap(err, errors.CodeInternal, "failed to encode narrative"))
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
	default:
		h.writeError(w, r, errors.Newf(errors.CodeInvalidRequest, "unsupported format %q", r.URL.Query().Get("format")))
		return
	}
	h.recordRequest("inspect", http.StatusOK)
}

func (h *NarrativeHandler) handleExplain(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	out, err := h.explain.Explain(r.Context(), string(body))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
	h.recordRequest("explain", http.StatusOK)
}

func (h *NarrativeHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *NarrativeHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Body == nil {
		h.writeError(w, r, errors.New(errors.CodeInvalidRequest, "empty body"))
		return nil, false
	}
	reader := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if stdErrors.As(err, &maxErr) {
			h.writeErrorStatus(w, r, http.StatusRequestEntityTooLarge,
				errors.Newf(errors.CodeInvalidRequest, "body exceeds %d bytes", h.maxBodyBytes))
			return nil, false
		}
		h.writeError(w, r, errors.Wrap(err, errors.CodeInvalidRequest, "unable to read body"))
		return nil, false
	}
	return body, true
}

func (h *NarrativeHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeErrorStatus(w, r, StatusFor(err), err)
}

func (h *NarrativeHandler) writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	resp := ErrorResponse{
		Code:    errors.GetCode(err),
		Message: errors.GetMessage(err),
	}
	var planErr *errors.PlanError
	if stdErrors.As(err, &planErr) {
		resp.Details = planErr.Details
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", r.URL.Path, "error", err)
	} else {
		h.logger.Debug("Request rejected", "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, resp)
	h.recordRequest(strings.TrimPrefix(r.URL.Path, "/v1/"), status)
}

func (h *NarrativeHandler) recordRequest(route string, status int) {
	h.metrics.IncrementCounter(metrics.MetricHTTPRequests, "route", route, "status", strconv.Itoa(status))
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
