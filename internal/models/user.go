package models

import "time"

type User struct {
	ID        string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"` // "user" ou "admin"
	AvatarURL string    `json:"avatar_url,omitempty"`
	Provider  string    `json:"provider,omitempty"` // "local", "google"
	CreatedAt time.Time `json:"created_at"`
}
