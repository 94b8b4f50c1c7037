package sse

import (
	"context"
	"sync"

	"ms-volunteers/internal/models"
)

// AttendanceEventEmitter manages SSE connections and broadcasts
// volunteer mutations to clients watching an event's roster.
type AttendanceEventEmitter struct {
	// key: eventID, value: slice of client channels
	eventClients     map[string][]chan models.Volunteer
	eventClientMutex sync.RWMutex
}

func NewAttendanceEventEmitter() *AttendanceEventEmitter {
	return &AttendanceEventEmitter{
		eventClients: make(map[string][]chan models.Volunteer),
	}
}

// SubscribeToEvent adds a client to the event's attendance updates. The
// channel closes when ctx is done.
func (e *AttendanceEventEmitter) SubscribeToEvent(ctx context.Context, eventID string) chan models.Volunteer {
	clientChan := make(chan models.Volunteer, 10)

	e.eventClientMutex.Lock()
	e.eventClients[eventID] = append(e.eventClients[eventID], clientChan)
	e.eventClientMutex.Unlock()

	// Remove client when context is done
	go func() {
		<-ctx.Done()
		e.removeEventClient(eventID, clientChan)
	}()

	return clientChan
}

// Emit broadcasts a volunteer mutation to all clients subscribed to its
// event.
func (e *AttendanceEventEmitter) Emit(volunteer models.Volunteer) {
	e.eventClientMutex.RLock()
	clients := e.eventClients[volunteer.EventID]
	e.eventClientMutex.RUnlock()

	for _, clientChan := range clients {
		// Non-blocking send to avoid slowing down emitter if client is slow
		select {
		case clientChan <- volunteer:
		default:
			// Channel buffer full, skip this client for now
		}
	}
}

func (e *AttendanceEventEmitter) removeEventClient(eventID string, clientChan chan models.Volunteer) {
	e.eventClientMutex.Lock()
	defer e.eventClientMutex.Unlock()

	clients := e.eventClients[eventID]
	for i, ch := range clients {
		if ch == clientChan {
			e.eventClients[eventID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	// Clean up map entry if no more clients
	if len(e.eventClients[eventID]) == 0 {
		delete(e.eventClients, eventID)
	}
}

// GetEventClientCount returns the number of clients currently
// subscribed to an event.
func (e *AttendanceEventEmitter) GetEventClientCount(eventID string) int {
	e.eventClientMutex.RLock()
	defer e.eventClientMutex.RUnlock()
	return len(e.eventClients[eventID])
}
