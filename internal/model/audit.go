package model

import "time"

// AuditKind names what happened in an audit entry.
type AuditKind string

const (
	AuditLogin           AuditKind = "login"
	AuditUserCreated     AuditKind = "user_created"
	AuditStudentEnrolled AuditKind = "student_enrolled"
	AuditPaymentRecorded AuditKind = "payment_recorded"
)

// AuditEvent is an append-only record of an operator action.
type AuditEvent struct {
	ID        int64     `json:"id"`
	Kind      AuditKind `json:"kind"`
	ActorID   int       `json:"actor_id"`
	SubjectID int       `json:"subject_id"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// Broadcast reports whether events of this kind go out on the live
// enrollment feed. Logins and account changes are audit-only.
func (k AuditKind) Broadcast() bool {
	return k == AuditStudentEnrolled || k == AuditPaymentRecorded
}
