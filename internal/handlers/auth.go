package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"photo-vault/internal/database"
	"photo-vault/internal/logging"
	"photo-vault/internal/metrics"
)

// RegisterRequest represents an account creation request
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse represents the response from authentication endpoints
type AuthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Username  string `json:"username,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"` // Seconds until session expires
}

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "photo_vault_session"

	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt input limit
	maxUsernameLength = 64
)

type contextKey string

const userContextKey contextKey = "vault_user"

// currentUser returns the authenticated user attached to the request
// context by AuthMiddleware, or nil.
func currentUser(r *http.Request) *database.User {
	user, _ := r.Context().Value(userContextKey).(*database.User)
	return user
}

// Register creates a new account and logs it in.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Username) > maxUsernameLength {
		writeJSONError(w, "Username is required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < minPasswordLength {
		writeJSONError(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}
	if len(req.Password) > maxPasswordLength {
		writeJSONError(w, "Password must not exceed 72 characters", http.StatusBadRequest)
		return
	}

	user, err := h.db.CreateUser(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			writeJSONError(w, "Username is already taken", http.StatusConflict)
			return
		}
		logging.Error("Failed to create user: %v", err)
		writeJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	session, err := h.db.CreateSession(ctx, user.ID)
	if err != nil {
		logging.Error("Failed to create session: %v", err)
		writeJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, session)
	logging.Info("Account created: %s", user.Username)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success:   true,
		Username:  user.Username,
		ExpiresIn: int(database.SessionDuration.Seconds()),
	})
}

// Login authenticates a user and creates a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.db.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		logging.Warn("Failed login attempt for %q", req.Username)
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		writeJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()

	session, err := h.db.CreateSession(ctx, user.ID)
	if err != nil {
		logging.Error("Failed to create session: %v", err)
		writeJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, session)
	logging.Info("User %s logged in, session expires in %v", user.Username, database.SessionDuration)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success:   true,
		Username:  user.Username,
		ExpiresIn: int(database.SessionDuration.Seconds()),
	})
}

// Logout ends the current session
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cookie, err := r.Cookie(SessionCookieName)
	if err == nil && cookie.Value != "" {
		// Best-effort session cleanup, don't fail logout if this errors
		if err := h.db.DeleteSession(ctx, cookie.Value); err != nil {
			logging.Error("failed to delete session during logout: %v", err)
		}
	}

	clearSessionCookie(w)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// CheckAuth verifies the current session
func (h *Handlers) CheckAuth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := h.db.GetSession(ctx, cookie.Value)
	if err != nil {
		clearSessionCookie(w)
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success:   true,
		ExpiresIn: int(time.Until(session.ExpiresAt).Seconds()),
	})
}

// AuthMiddleware protects routes that require authentication and
// attaches the session owner to the request context.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		session, err := h.db.GetSession(ctx, cookie.Value)
		if err != nil {
			clearSessionCookie(w)
			writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := h.db.GetUser(ctx, session.UserID)
		if err != nil {
			logging.Error("session points at missing user %d: %v", session.UserID, err)
			clearSessionCookie(w)
			writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, userContextKey, user)))
	})
}

func isPublicPath(path string) bool {
	if strings.HasPrefix(path, "/api/auth/") ||
		strings.HasPrefix(path, "/api/uploads/") ||
		strings.HasPrefix(path, "/uploads/") {
		return true
	}
	switch path {
	case "/health", "/healthz", "/livez", "/readyz", "/version", "/metrics":
		return true
	}
	return false
}

func setSessionCookie(w http.ResponseWriter, session *database.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
