package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/daybrief/internal/service"
)

type MeetingHandler struct {
	svc *service.MeetingService
}

func NewMeetingHandler(svc *service.MeetingService) *MeetingHandler {
	return &MeetingHandler{svc: svc}
}

type ingestNotesRequest struct {
	Notes    string         `json:"notes"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (h *MeetingHandler) IngestNotes(w http.ResponseWriter, r *http.Request) {
	var req ingestNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.ProcessNotes(r.Context(), req.Notes, req.Metadata)
	if err != nil {
		if errors.Is(err, service.ErrExtractionFailed) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to process notes")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
