package domain

import "time"

// ContactRecord is a set of contact details left by a visitor.
type ContactRecord struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Message    string    `json:"message,omitempty"`
	Source     string    `json:"source,omitempty"`
	CapturedAt time.Time `json:"-"`
}
