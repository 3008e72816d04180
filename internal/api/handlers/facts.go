package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/Harshitk-cp/daybrief/internal/service"
	"github.com/Harshitk-cp/daybrief/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type FactHandler struct {
	svc *service.FactService
}

func NewFactHandler(svc *service.FactService) *FactHandler {
	return &FactHandler{svc: svc}
}

type createFactRequest struct {
	Type     string         `json:"type"`
	Content  string         `json:"content"`
	Source   string         `json:"source,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (h *FactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, err := h.svc.Add(r.Context(), domain.FactType(req.Type), req.Content, req.Source, req.Metadata)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyContent), errors.Is(err, service.ErrInvalidFactType):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create fact")
		}
		return
	}

	writeJSON(w, http.StatusCreated, f)
}

func (h *FactHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.ListFilter{}

	if t := r.URL.Query().Get("type"); t != "" {
		if !domain.ValidFactType(t) {
			writeError(w, http.StatusBadRequest, "invalid fact type")
			return
		}
		ft := domain.FactType(t)
		filter.Type = &ft
	}
	if v := r.URL.Query().Get("enabled_only"); v != "" {
		enabledOnly, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid enabled_only")
			return
		}
		filter.EnabledOnly = enabledOnly
	}

	facts, err := h.svc.GetAll(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list facts")
		return
	}
	if facts == nil {
		facts = []domain.Fact{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"facts": facts, "count": len(facts)})
}

func (h *FactHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	opts := domain.SearchOpts{TopK: 10}
	if v := r.URL.Query().Get("top_k"); v != "" {
		topK, err := strconv.Atoi(v)
		if err != nil || topK <= 0 {
			writeError(w, http.StatusBadRequest, "invalid top_k")
			return
		}
		opts.TopK = topK
	}
	if t := r.URL.Query().Get("type"); t != "" {
		if !domain.ValidFactType(t) {
			writeError(w, http.StatusBadRequest, "invalid fact type")
			return
		}
		ft := domain.FactType(t)
		opts.Type = &ft
	}

	results, err := h.svc.Search(r.Context(), query, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if results == nil {
		results = []domain.FactWithScore{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

type setEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *FactHandler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fact id")
		return
	}

	var req setEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SetEnabled(r.Context(), id, req.Enabled); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "fact not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update fact")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "enabled": req.Enabled})
}

func (h *FactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fact id")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "fact not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete fact")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
