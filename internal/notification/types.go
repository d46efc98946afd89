// Package notification provides an in-memory notification center for
// user-facing messages. Failed user actions surface here so the UI layer can
// present them and leave the application in a recoverable state.
package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type represents the category of a notification
type Type string

const (
	// TypeError indicates a failed user action
	TypeError Type = "error"
	// TypeWarning indicates a warning notification
	TypeWarning Type = "warning"
	// TypeInfo indicates an informational notification
	TypeInfo Type = "info"
)

// Priority represents the urgency level of a notification
type Priority string

const (
	// PriorityHigh indicates important but not urgent
	PriorityHigh Priority = "high"
	// PriorityMedium indicates normal priority
	PriorityMedium Priority = "medium"
	// PriorityLow indicates low priority/informational
	PriorityLow Priority = "low"
)

// Notification is one user-facing message.
type Notification struct {
	ID        string
	Type      Type
	Priority  Priority
	Title     string
	Message   string
	Timestamp time.Time
	Read      bool
}

// NewNotification creates a notification with a generated ID and timestamp.
func NewNotification(notifType Type, priority Priority, title, message string) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		Type:      notifType,
		Priority:  priority,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// MarkAsRead marks the notification as seen.
func (n *Notification) MarkAsRead() {
	n.Read = true
}
