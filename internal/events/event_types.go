package events

import (
	"time"

	"github.com/cellar-market/wine-marketplace/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded   EventType = "login_succeeded"
	EventLoginFailed      EventType = "login_failed"
	EventLoggedOut        EventType = "logged_out"
	EventPasswordChanged  EventType = "password_changed"
	EventPasswordResetReq EventType = "password_reset_requested"

	// Emitted by admin session managers, not the API.
	EventSessionRejected EventType = "session_rejected"
	EventAccessDenied    EventType = "access_denied"
)

// Actor encapsulates who triggered an event.
type Actor struct {
	UserID *string     `json:"user_id,omitempty"`
	Email  string      `json:"email,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
	IP     string      `json:"ip,omitempty"`
}

// Event represents an auth event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// SessionRejectedPayload explains why a stored admin session was dropped.
type SessionRejectedPayload struct {
	Reason string `json:"reason"`
}

// LoggedOutPayload payload.
type LoggedOutPayload struct {
	TokenID string `json:"token_id"`
}
