package events

import (
	"time"

	"github.com/google/uuid"

	"genspecs/internal/models"
)

type EventType string

const (
	EventInfo    EventType = "info"
	EventWarn    EventType = "warn"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

// Event names the frontend subscribes to.
const (
	DocumentStatusChanged = "events:document:status"
	GenerationDone        = "events:generation:done"
)

// DocumentEvent is the payload emitted on every document status transition.
type DocumentEvent struct {
	ID        string                `json:"id"`
	Type      EventType             `json:"type"`
	Document  models.DocumentType   `json:"document"`
	Status    models.DocumentStatus `json:"status"`
	Message   string                `json:"message,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

func newDocumentEvent(eventType EventType, doc models.DocumentType, status models.DocumentStatus, message string) DocumentEvent {
	return DocumentEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Document:  doc,
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewStatusEvent builds the event for a document entering status. Error
// statuses carry the failure message.
func NewStatusEvent(doc models.DocumentType, status models.DocumentStatus, message string) DocumentEvent {
	switch status {
	case models.StatusError:
		return newDocumentEvent(EventError, doc, status, message)
	case models.StatusAccepted:
		return newDocumentEvent(EventSuccess, doc, status, message)
	default:
		return newDocumentEvent(EventInfo, doc, status, message)
	}
}
