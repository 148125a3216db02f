package http

import (
	"net/http"

	"github.com/vncsmyrnk/votapp/internal/core/domain"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
)

type AuthHandler struct {
	authService  ports.AuthService
	cookieSecure bool
}

func NewAuthHandler(authService ports.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieSecure: cookieSecure,
	}
}

type loginRequest struct {
	Name     string      `json:"name"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role,omitempty"`
}

type sessionResponse struct {
	SessionKey string          `json:"sessionKey"`
	User       domain.Identity `json:"user"`
}

// Login authenticates against the authority and opens a session. When the
// request names a role, an identity holding a different role is refused.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.authService.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		handleError(w, err)
		return
	}

	identity, _ := sess.Identity()
	if req.Role != "" && identity.Role != req.Role {
		h.authService.Terminate(r.Context(), sess)
		writeError(w, http.StatusForbidden, "user "+identity.Name+" is not "+string(req.Role))
		return
	}

	h.setSessionCookie(w, sess.Key())
	writeJSON(w, http.StatusOK, sessionResponse{SessionKey: sess.Key(), User: identity})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, err := h.authService.Session(r.Context(), sessionKey(r)); err == nil {
		_ = h.authService.Logout(r.Context(), sess)
	}

	expireSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Me returns the identity of the caller, refreshed from the authority when
// it answers.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	identity, err := h.authService.Refresh(r.Context(), sess)
	if err != nil && (domain.IsUnauthorized(err) || !sess.Authenticated()) {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, key string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   7 * 24 * 60 * 60, // 7 days
	})
}

func expireSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: SessionCookieName, MaxAge: -1, Path: "/"})
}
