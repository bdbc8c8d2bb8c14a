package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/plansapp/plans/internal/models"
	"github.com/plansapp/plans/internal/services"
)

// Machine-checkable error codes returned alongside HTTP statuses.
const (
	codeAuthenticationRequired = "authentication_required"
	codeInvalidCredentials     = "invalid_credentials"
	codeForbidden              = "forbidden"
	codeNotFound               = "not_found"
	codeConflict               = "conflict"
	codeRequestNotPending      = "request_not_pending"
	codeValidationFailed       = "validation_failed"
	codeInternalError          = "internal_error"
)

type AuthHandler struct {
	userService       services.UserServiceInterface
	authService       services.AuthServiceInterface
	friendshipService services.FriendshipServiceInterface
	telegramVerifier  services.TelegramVerifier
}

func NewAuthHandler(
	userService services.UserServiceInterface,
	authService services.AuthServiceInterface,
	friendshipService services.FriendshipServiceInterface,
	telegramVerifier services.TelegramVerifier,
) *AuthHandler {
	return &AuthHandler{
		userService:       userService,
		authService:       authService,
		friendshipService: friendshipService,
		telegramVerifier:  telegramVerifier,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type MeResponse struct {
	User         *models.User `json:"user"`
	FriendsCount int          `json:"friends_count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusBadRequest, codeInvalidCredentials, "Invalid email or password")
		return
	}
	if err != nil {
		log.Printf("Error getting user: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	if !h.authService.VerifyPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusBadRequest, codeInvalidCredentials, "Invalid email or password")
		return
	}

	if !user.IsActive {
		writeError(w, http.StatusBadRequest, codeInvalidCredentials, "Account is disabled")
		return
	}

	token, err := h.authService.CreateSession(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error creating session: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// TelegramLogin signs a user in from a verified Telegram Login Widget
// payload, creating the account on first login.
func (h *AuthHandler) TelegramLogin(w http.ResponseWriter, r *http.Request) {
	if h.telegramVerifier == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "Telegram login is not enabled")
		return
	}

	var login services.TelegramLogin
	if err := json.NewDecoder(r.Body).Decode(&login); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid request body")
		return
	}

	if err := h.telegramVerifier.Verify(login); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidCredentials, "Telegram authentication failed")
		return
	}

	user, err := h.userService.GetByTelegramID(r.Context(), login.ID)
	if errors.Is(err, services.ErrUserNotFound) {
		user, err = h.userService.CreateExternal(r.Context(), models.CreateExternalUserParams{
			TelegramID: login.ID,
			FirstName:  login.FirstName,
			LastName:   login.LastName,
		})
		if errors.Is(err, services.ErrTelegramAlreadyLinked) {
			// Lost a first-login race; the row exists now.
			user, err = h.userService.GetByTelegramID(r.Context(), login.ID)
		}
	}
	if err != nil {
		log.Printf("Error resolving telegram user: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	if !user.IsActive {
		writeError(w, http.StatusBadRequest, codeInvalidCredentials, "Account is disabled")
		return
	}

	token, err := h.authService.CreateSession(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error creating session: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if GetUserFromContext(r.Context()) == nil {
		writeError(w, http.StatusUnauthorized, codeAuthenticationRequired, "Authentication required")
		return
	}

	if token := bearerToken(r); token != "" {
		_ = h.authService.DeleteSession(r.Context(), token)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, codeAuthenticationRequired, "Authentication required")
		return
	}

	if err := h.authService.DeleteAllUserSessions(r.Context(), user.ID); err != nil {
		log.Printf("Error deleting sessions: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, codeAuthenticationRequired, "Authentication required")
		return
	}

	count, err := h.friendshipService.FriendsCount(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error counting friends: %v", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{User: user, FriendsCount: count})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
