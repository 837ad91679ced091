package websocket

import "github.com/matricula/matricula/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is the only message a feed client sends.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError      Event = "error"
	EventEnrollment Event = "enrollment"
	EventPong       Event = "pong"
)

// EnrollmentResponse forwards one audit event published by the API.
type EnrollmentResponse struct {
	Event Event            `json:"event"`
	Data  model.AuditEvent `json:"data"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
