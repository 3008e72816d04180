package handlers

import (
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/daybrief/internal/bus"
	"github.com/Harshitk-cp/daybrief/internal/domain"
)

type EventHandler struct {
	bus *bus.Bus
}

func NewEventHandler(b *bus.Bus) *EventHandler {
	return &EventHandler{bus: b}
}

// History returns recent bus events, optionally filtered by topic.
func (h *EventHandler) History(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	events := h.bus.History(topic, limit)
	if events == nil {
		events = []domain.Event{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}
