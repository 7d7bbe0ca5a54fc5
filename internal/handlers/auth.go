package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"haven-backend/internal/auth"
	"haven-backend/internal/config"

	"go.uber.org/zap"
)

// AuthHandler serves the passwordless email login.
type AuthHandler struct {
	links  *auth.MagicLinks
	cfg    config.AuthConfig
	logger *zap.Logger
}

func NewAuthHandler(links *auth.MagicLinks, cfg config.AuthConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{links: links, cfg: cfg, logger: logger}
}

type loginRequest struct {
	Email string `json:"email"`
}

// --- POST /auth/request ---

func (h *AuthHandler) RequestLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The mail links to our redirect page; mail clients drop custom schemes.
	base := h.publicURL(r)
	delivered, err := h.links.Request(r.Context(), req.Email, func(token string) string {
		return base + "/auth/redirect?token=" + url.QueryEscape(token)
	})
	switch {
	case errors.Is(err, auth.ErrEmailRequired):
		writeError(w, http.StatusBadRequest, "email is required")
	case errors.Is(err, auth.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many login requests, please try again later")
	case err != nil:
		h.logger.Error("login request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create login link")
	case !delivered:
		writeJSON(w, http.StatusOK, map[string]string{"message": "login link created, delivery may be delayed"})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "check your inbox for a login link"})
	}
}

// publicURL is the externally visible origin of this API.
func (h *AuthHandler) publicURL(r *http.Request) string {
	if h.cfg.BaseURL != "" {
		return strings.TrimRight(h.cfg.BaseURL, "/")
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
		if r.TLS != nil {
			proto = "https"
		}
	}
	return fmt.Sprintf("%s://%s", proto, r.Host)
}

// --- GET /auth/verify?token= ---

func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	session, err := h.links.Verify(r.Context(), token)
	switch {
	case errors.Is(err, auth.ErrUnknownToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "token has expired")
	case errors.Is(err, auth.ErrTokenUsed):
		writeError(w, http.StatusUnauthorized, "token has already been used")
	case err != nil:
		h.logger.Error("login verification failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, http.StatusOK, session)
	}
}

// --- GET /auth/redirect?token= ---

var openAppPage = template.Must(template.New("open-app").Parse(`<!doctype html>
<html lang="en">
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Signing you in to Haven</title>
<body style="margin:0;min-height:100vh;display:grid;place-items:center;background:#f0fdfa;font-family:system-ui,sans-serif">
<main style="max-width:360px;padding:32px;border-radius:16px;background:#fff;text-align:center">
<h1 style="font-size:22px;color:#134e4a">Signing you in</h1>
<p style="color:#475569">Haven should open in a moment. If it does not, use the button.</p>
<a href="{{.}}" style="display:inline-block;margin-top:12px;padding:12px 28px;border-radius:10px;background:#0d9488;color:#fff;text-decoration:none">Open Haven</a>
</main>
<script>location.replace("{{.}}")</script>
</body>
</html>`))

// RedirectToApp hands the login token from the emailed link to the app
// through its deep link.
func (h *AuthHandler) RedirectToApp(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}

	link := template.URL(h.cfg.DeepLinkScheme + "://login?token=" + url.QueryEscape(token))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := openAppPage.Execute(w, link); err != nil {
		h.logger.Error("render open-app page", zap.Error(err))
	}
}
