package auth

import (
	"github.com/google/uuid"
)

// User is the principal on whose behalf lease requests run.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

type IssueTokenRequest struct {
	Username string `json:"username"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
