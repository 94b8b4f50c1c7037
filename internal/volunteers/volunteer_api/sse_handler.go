package volunteer_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-volunteers/internal/logger"
	"ms-volunteers/internal/sse"
)

// SSEHandler streams live roster updates to the attendance-taking UI.
type SSEHandler struct {
	Logger       *logger.Logger
	EventEmitter *sse.AttendanceEventEmitter
}

func NewSSEHandler(log *logger.Logger, emitter *sse.AttendanceEventEmitter) *SSEHandler {
	return &SSEHandler{Logger: log, EventEmitter: emitter}
}

// HandleEventAttendance streams volunteer mutations for one event until
// the client disconnects.
func (h *SSEHandler) HandleEventAttendance(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		http.Error(w, "Event ID is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Context cancels when the client disconnects
	ctx := r.Context()
	eventChan := h.EventEmitter.SubscribeToEvent(ctx, eventID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"eventID\":\"%s\"}\n\n", eventID)
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to attendance events for event: %s", eventID))

	for {
		select {
		case volunteer, ok := <-eventChan:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Channel closed for event: %s", eventID))
				return
			}

			jsonData, err := json.Marshal(volunteer)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize attendance event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: attendance\ndata: %s\n\n", jsonData)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from attendance events for: %s", eventID))
			return
		}
	}
}
