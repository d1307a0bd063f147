package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/shipsort/internal/core"
	mw "github.com/JonMunkholm/shipsort/internal/web/middleware"
	"github.com/google/uuid"
)

// WithRequestMetadata adds IP and User-Agent to ctx for run history.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.WithClient(ctx, mw.ClientIP(r), r.UserAgent())
}

// sessionID returns the browser's session ID, issuing a new cookie when the
// request has none or carries something that is not a UUID.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Security.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// peekSessionID returns the session cookie value without issuing one.
func (s *Server) peekSessionID(r *http.Request) string {
	c, err := r.Cookie(s.cfg.Session.CookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}
