package referrals

import (
	"errors"
	"time"
)

// Referral statuses.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// ErrNotFound indicates the referral does not exist.
var ErrNotFound = errors.New("referrals: not found")

// Referral is an opening an alumnus shares with current students.
type Referral struct {
	ID          int64     `json:"id"`
	Company     string    `json:"company"`
	RoleTitle   string    `json:"role_title"`
	Description string    `json:"description"`
	ApplyURL    string    `json:"apply_url,omitempty"`
	ContactNote string    `json:"contact_note,omitempty"`
	Status      string    `json:"status"`
	PostedBy    string    `json:"posted_by"`
	PostedAt    time.Time `json:"posted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
