package dto

import "github.com/hongminglow/contact-keeper/internal/models"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user,omitempty"`
}
