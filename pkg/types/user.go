package types

import (
	"strings"
	"time"
)

// User is the owner of every other entity. Profile fields were added after
// the first release and are nil on rows created before then.
type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Avatar      *string   `json:"avatar,omitempty"`
	DateOfBirth *string   `json:"date_of_birth,omitempty"`
	Occupation  *string   `json:"occupation,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the fields required to persist a user.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrInvalidName
	}
	if u.DateOfBirth != nil && *u.DateOfBirth != "" {
		if _, err := time.Parse(DateLayout, *u.DateOfBirth); err != nil {
			return ErrInvalidDate
		}
	}
	return nil
}

// UserInterest is one free-text interest attached to a user profile.
type UserInterest struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Interest  string    `json:"interest"`
	CreatedAt time.Time `json:"created_at"`
}
