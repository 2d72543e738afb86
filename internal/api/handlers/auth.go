package handlers

import (
	"net/http"
	"strings"

	"fieldroute-service/internal/api/dto"
	"fieldroute-service/internal/auth"
	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/ports"
)

type AuthHandler struct {
	Users     ports.UserRepository
	JWTSecret string
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.Users.GetUserByUsername(r.Context(), username)
	if err != nil {
		// Don't reveal whether the username exists.
		writeDomainError(w, r, domain.ErrInvalidCredentials)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeDomainError(w, r, err)
		return
	}

	token, err := auth.GenerateToken(user, h.JWTSecret)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.LoginResponse{
		Token: token,
		User:  userResponse(user),
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.GetUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, userResponse(user))
}

func userResponse(u domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
	}
}
