package api

import (
	"net/http"
	"time"

	deliveryAuth "github.com/MrEthical07/deliveryAuth"
	"github.com/MrEthical07/deliveryAuth/middleware"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	LoginIdentifier string `json:"loginIdentifier"`
	Password        string `json:"password"`
}

// RefreshRequest is the body of POST /auth/refresh and POST /auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	TokenType        string    `json:"tokenType"`
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	AccountID       int64  `json:"accountId"`
	LoginIdentifier string `json:"loginIdentifier"`
	Role            string `json:"role"`
}

func tokenResponse(p deliveryAuth.TokenPair) TokenResponse {
	return TokenResponse{
		TokenType:        "Bearer",
		AccessToken:      p.AccessToken,
		AccessExpiresAt:  p.AccessExpiresAt,
		RefreshToken:     p.RefreshToken,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}

// Login exchanges credentials for a token pair.
func (a *API) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeRequest(&req, w, r) {
			return
		}
		if req.LoginIdentifier == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "bad_request")
			return
		}

		pair, err := a.engine.Login(r.Context(), req.LoginIdentifier, req.Password)
		if err != nil {
			a.writeEngineError(w, r, "login", err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		returnJSON(w, http.StatusOK, tokenResponse(pair))
	}
}

// Refresh rotates a refresh token.
func (a *API) Refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if !decodeRequest(&req, w, r) {
			return
		}
		if req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, "bad_request")
			return
		}

		pair, err := a.engine.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			a.writeEngineError(w, r, "refresh", err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		returnJSON(w, http.StatusOK, tokenResponse(pair))
	}
}

// Logout revokes the presented refresh token.
func (a *API) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if !decodeRequest(&req, w, r) {
			return
		}
		if req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, "bad_request")
			return
		}

		if err := a.engine.Logout(r.Context(), req.RefreshToken); err != nil {
			a.writeEngineError(w, r, "logout", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// LogoutAll revokes every refresh token of the caller.
func (a *API) LogoutAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := middleware.IdentityFromContext(r.Context())
		if err := a.engine.LogoutAll(r.Context(), id.AccountID); err != nil {
			a.writeEngineError(w, r, "logout all", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Me returns the caller identity.
func (a *API) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := middleware.IdentityFromContext(r.Context())
		returnJSON(w, http.StatusOK, MeResponse{
			AccountID:       id.AccountID,
			LoginIdentifier: id.LoginIdentifier,
			Role:            id.Role.String(),
		})
	}
}

// AdminPing answers ADMIN callers only; the router wraps it in RequireRole.
func (a *API) AdminPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		returnJSON(w, http.StatusOK, map[string]string{"status": "pong"})
	}
}

// Health reports 503 when the configured backend check fails and 200
// otherwise.
func (a *API) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.health != nil {
			if err := a.health(r.Context()); err != nil {
				a.logger.Warn(r.Context(), "health check failed", "error", err)
				writeError(w, http.StatusServiceUnavailable, "unavailable")
				return
			}
		}
		returnJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
