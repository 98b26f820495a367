package models

import "time"

// User represents a row in the PostgreSQL users table.
//
// Password and RefreshToken never leave the server: `json:"-"` keeps them
// out of every response body, and Sanitize clears them from copies handed
// to callers.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	AvatarURL     string    `json:"avatar_url"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	Password      string    `json:"-"`
	RefreshToken  string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// Sanitize returns a copy safe to return to a client.
func (u User) Sanitize() *User {
	u.Password = ""
	u.RefreshToken = ""
	return &u
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the JSON body for POST /api/auth/refresh when the
// refresh token is not supplied as a cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest is the JSON body for POST /api/auth/change-password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// UpdateAccountRequest is the JSON body for PATCH /api/auth/me.
type UpdateAccountRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}
