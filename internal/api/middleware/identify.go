package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// TabCookie is a session cookie: it lives as long as the browser tab
	// session, like sessionStorage.
	TabCookie = "segmentlens_tab"
	// ClientCookie is long-lived, like localStorage.
	ClientCookie = "segmentlens_client"

	// TabHeader lets non-browser clients pick their tab explicitly.
	TabHeader    = "X-Segmentlens-Tab"
	ClientHeader = "X-Segmentlens-Client"
)

const clientCookieMaxAge = 365 * 24 * time.Hour

// Identify assigns every request a tab ID and a client ID, issuing cookies
// for the ones the browser did not send.
type Identify struct {
	secure bool
}

// NewIdentify creates the middleware. secure marks cookies Secure.
func NewIdentify(secure bool) *Identify {
	return &Identify{secure: secure}
}

func (i *Identify) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tabID, fresh := identity(r, TabHeader, TabCookie)
		if fresh {
			http.SetCookie(w, &http.Cookie{
				Name:     TabCookie,
				Value:    tabID,
				Path:     "/",
				HttpOnly: true,
				Secure:   i.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		clientID, fresh := identity(r, ClientHeader, ClientCookie)
		if fresh {
			http.SetCookie(w, &http.Cookie{
				Name:     ClientCookie,
				Value:    clientID,
				Path:     "/",
				MaxAge:   int(clientCookieMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   i.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := SetTabID(r.Context(), tabID)
		ctx = SetClientID(ctx, clientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identity reads a UUID from the header, then the cookie. It generates a new
// one when neither holds a valid UUID and reports that it did.
func identity(r *http.Request, header, cookie string) (string, bool) {
	if v := r.Header.Get(header); valid(v) {
		return v, false
	}
	if c, err := r.Cookie(cookie); err == nil && valid(c.Value) {
		return c.Value, false
	}
	return uuid.NewString(), true
}

func valid(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
