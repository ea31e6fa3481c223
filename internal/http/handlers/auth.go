package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/contact-keeper/internal/apperr"
	"github.com/hongminglow/contact-keeper/internal/auth"
	"github.com/hongminglow/contact-keeper/internal/http/respond"
	"github.com/hongminglow/contact-keeper/internal/models/dto"
	"github.com/hongminglow/contact-keeper/internal/service"
)

// AuthHandler owns registration, login and current-user endpoints.
type AuthHandler struct {
	users *service.UserService
	log   *zap.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(users *service.UserService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, log: log}
}

// Register attaches auth routes to the router. requireAuth guards GET /api/auth.
func (h *AuthHandler) Register(r *mux.Router, requireAuth func(http.Handler) http.Handler) {
	r.HandleFunc("/api/users", h.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/auth", h.handleLogin).Methods(http.MethodPost)
	r.Handle("/api/auth", requireAuth(http.HandlerFunc(h.handleMe))).Methods(http.MethodGet)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	user, token, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	h.log.Info("user registered", zap.String("user_id", user.ID))
	respond.JSON(w, h.log, http.StatusOK, "User created successfully", dto.TokenResponse{Token: token, User: &user})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	token, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInvalidCredentials {
			h.log.Info("login rejected")
		}
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "login successful", dto.TokenResponse{Token: token})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	user, err := h.users.CurrentUser(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "current user", user)
}
