package model

import "time"

// Payment records that a student paid for one billing period.
type Payment struct {
	ID        int       `json:"id"`
	StudentID int       `json:"student_id"`
	PaidAt    time.Time `json:"paid_at"`
	Period    string    `json:"period"`
}

// RecordPaymentRequest is the payload for registering a payment.
type RecordPaymentRequest struct {
	StudentID int    `json:"student_id" binding:"required,min=1"`
	Period    string `json:"period" binding:"required,max=32"`
}
