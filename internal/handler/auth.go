package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/marketd/internal/auth"
	"github.com/dukerupert/marketd/internal/middleware"
	"github.com/dukerupert/marketd/internal/store"
)

type AuthHandler struct {
	users    *store.UserStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(users *store.UserStore, sessions *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, logger: logger}
}

type credentials struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Signup registers a user and opens a session.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request"})
		return
	}
	if req.Email == "" || len(req.Password) < 8 {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "invalid_credentials"})
		return
	}

	if existing, err := h.users.GetByEmail(req.Email); err != nil {
		writeEngineError(w, h.logger, err)
		return
	} else if existing != nil {
		writeJSON(w, http.StatusConflict, errorBody{Error: "email_taken"})
		return
	}

	user, err := h.users.Create(req.Email, req.Name, req.Password)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	http.SetCookie(w, middleware.SessionCookie(sess.Token, 30*24*3600))
	writeJSON(w, http.StatusCreated, user)
}

// Login authenticates and opens a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request"})
		return
	}

	user, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid_credentials"})
		return
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	http.SetCookie(w, middleware.SessionCookie(sess.Token, 30*24*3600))
	writeJSON(w, http.StatusOK, user)
}

// Logout deletes the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if p, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.Delete(p.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	http.SetCookie(w, middleware.SessionCookie("", -1))
	w.WriteHeader(http.StatusNoContent)
}
