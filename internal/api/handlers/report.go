package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/Harshitk-cp/daybrief/internal/service"
)

type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

type generateReportRequest struct {
	Metrics map[string]any `json:"metrics,omitempty"`
}

func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateReportRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	report, err := h.svc.Generate(r.Context(), req.Metrics)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.GetReport()
	if err != nil {
		if errors.Is(err, service.ErrNoReport) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type confirmRequest struct {
	Actions     []domain.ApprovedAction `json:"actions"`
	SyncToBoard bool                    `json:"sync_to_board,omitempty"`
}

type confirmResponse struct {
	Tasks   []domain.Task `json:"tasks"`
	SyncLog string        `json:"sync_log"`
}

func (h *ReportHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tasks, syncLog, err := h.svc.Confirm(r.Context(), req.Actions, req.SyncToBoard)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActions):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNoReport), errors.Is(err, service.ErrAlreadyConfirmed):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to confirm report")
		}
		return
	}

	writeJSON(w, http.StatusOK, confirmResponse{Tasks: tasks, SyncLog: syncLog})
}
