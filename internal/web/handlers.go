package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dogfacts/dogfacts/internal/config"
	"github.com/dogfacts/dogfacts/internal/errors"
	"github.com/dogfacts/dogfacts/internal/ops"
	"github.com/dogfacts/dogfacts/internal/store"
)

// maxBodyBytes caps POST bodies.
const maxBodyBytes = 64 << 10

// Handlers contains HTTP route handlers for the fact API.
type Handlers struct {
	store  store.Store
	cfg    *config.Config
	logger *zap.Logger
	index  []byte
}

// createFactRequest is the body of POST /v1/facts/new.
type createFactRequest struct {
	Description *string `json:"description"`
}

// HandleGetFacts handles GET /v1/facts/{count}.
func (h *Handlers) HandleGetFacts(w http.ResponseWriter, r *http.Request) {
	count, err := ops.ParseCount(r.Context(), h.store, r.PathValue("count"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	out, err := ops.GetFacts(r.Context(), h.store, ops.GetInput{Count: count})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, out)
}

// HandleCreateFact handles POST /v1/facts/new. The write token comes from
// the X-Token header; a missing header counts as a mismatch.
func (h *Handlers) HandleCreateFact(w http.ResponseWriter, r *http.Request) {
	var req createFactRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.renderError(w, r, errors.NewUnprocessable("request body must be a JSON object"))
		return
	}
	if req.Description == nil {
		h.renderError(w, r, errors.NewUnprocessable("description is required"))
		return
	}

	created, err := ops.CreateFact(r.Context(), h.store, h.cfg, ops.CreateInput{
		Description: *req.Description,
		Token:       r.Header.Get("X-Token"),
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.logger.Info("fact created",
		zap.Int("chars", len([]rune(created.Description))),
		zap.String("request_id", RequestIDFrom(r.Context())),
	)
	renderJSON(w, http.StatusOK, created)
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	facts, err := h.store.Load(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"facts":  len(facts),
	})
}

// HandleIndex handles GET / with the rendered API overview.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.index)
}
