package seminars

import (
	"errors"
	"time"
)

// Seminar request statuses.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

var (
	// ErrNotFound indicates the request does not exist.
	ErrNotFound = errors.New("seminars: not found")
	// ErrAlreadyAnswered indicates the request left the pending state.
	ErrAlreadyAnswered = errors.New("seminars: request already answered")
)

// Request is an invitation for an alumnus to hold a seminar on campus.
type Request struct {
	ID           int64     `json:"id"`
	AlumnusID    string    `json:"alumnus_id"`
	RequesterID  string    `json:"requester_id"`
	Topic        string    `json:"topic"`
	Details      string    `json:"details,omitempty"`
	ProposedDate time.Time `json:"proposed_date"`
	Status       string    `json:"status"`
	ResponseNote string    `json:"response_note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	AnsweredAt   time.Time `json:"answered_at,omitzero"`
}
