package models

import "time"

type Session struct {
	Token     string    `json:"token"`
	UserID    uint      `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }
