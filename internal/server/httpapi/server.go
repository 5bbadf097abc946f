// Package httpapi exposes the credential service over HTTP. It translates
// between requests/cookies and AuthService calls; all protocol decisions
// live below it.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/and161185/auth-keeper/internal/errs"
	"github.com/and161185/auth-keeper/internal/service"
	"github.com/and161185/auth-keeper/internal/token"
)

const refreshCookie = "refreshToken"

// Server wires AuthService into HTTP handlers.
type Server struct {
	svc   service.AuthService
	codec *token.Codec
	log   *zap.Logger
}

// New constructs the HTTP server with injected collaborators.
func New(svc service.AuthService, codec *token.Codec, log *zap.Logger) *Server {
	return &Server{svc: svc, codec: codec, log: log}
}

// Router builds the route table with logging and recovery middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(Recover(s.log), Logging(s.log))

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/auth/recovery-codes", s.requireAuth(s.handleRecoveryCodes)).Methods(http.MethodPost)
	return r
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	id, err := s.svc.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, errs.ErrWeakPassword) {
			// Tell the client how far off the password is.
			s.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":    err.Error(),
				"strength": service.PasswordStrength(req.Password),
			})
			return
		}
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	tokens, err := s.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.setRefreshCookie(w, tokens.RefreshToken)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"accessToken": tokens.AccessToken,
		"expiresIn":   int(s.codec.AccessTTL().Seconds()),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(refreshCookie)
	if err != nil || c.Value == "" {
		s.writeError(w, http.StatusUnauthorized, "refresh token not found")
		return
	}
	tokens, err := s.svc.Refresh(r.Context(), c.Value)
	if err != nil {
		// Discard the cookie only when the token itself is dead. A store
		// outage is retryable; the client keeps its still-valid token.
		if terminalTokenErr(err) {
			s.clearRefreshCookie(w)
		}
		s.writeErr(w, err)
		return
	}
	s.setRefreshCookie(w, tokens.RefreshToken)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"accessToken": tokens.AccessToken,
		"expiresIn":   int(s.codec.AccessTTL().Seconds()),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(refreshCookie)
	if err != nil || c.Value == "" {
		s.writeError(w, http.StatusUnauthorized, "refresh token not found")
		return
	}
	everywhere := r.URL.Query().Get("all") == "1"
	if err := s.svc.Logout(r.Context(), c.Value, everywhere); err != nil {
		s.writeErr(w, err)
		return
	}
	s.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecoveryCodes(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromCtx(r.Context())
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	codes, err := s.svc.IssueRecoveryCodes(r.Context(), userID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"recoveryCodes": codes})
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    value,
		Path:     "/auth",
		MaxAge:   int(s.codec.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// terminalTokenErr reports whether a presented refresh token can never
// succeed again.
func terminalTokenErr(err error) bool {
	return errors.Is(err, errs.ErrInvalidToken) ||
		errors.Is(err, errs.ErrExpiredToken) ||
		errors.Is(err, errs.ErrUnknownToken) ||
		errors.Is(err, errs.ErrTokenTheft)
}

// writeErr maps service sentinels onto HTTP status codes. Sentinel texts are
// the only detail exposed.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidEmail), errors.Is(err, errs.ErrWeakPassword):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrAlreadyExists):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrInvalidCredentials),
		errors.Is(err, errs.ErrInvalidToken),
		errors.Is(err, errs.ErrExpiredToken),
		errors.Is(err, errs.ErrUnknownToken),
		errors.Is(err, errs.ErrTokenTheft):
		s.writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, errs.ErrStoreUnavailable):
		s.writeError(w, http.StatusServiceUnavailable, errs.ErrStoreUnavailable.Error())
	case errors.Is(err, errs.ErrNotFound):
		s.writeError(w, http.StatusNotFound, errs.ErrNotFound.Error())
	default:
		s.log.Error("unhandled service error", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]any{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
}
