package auth

import (
	"crypto/sha256"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/sessions"
)

const (
	returnToCookie = "folio-return"
	returnToKey    = "path"
	defaultReturn  = "/admin"
)

// ReturnTo remembers where to send a member after signing in. The value
// lives in a short-lived signed cookie so it survives the sign-in form post.
type ReturnTo struct {
	store *sessions.CookieStore
}

// NewReturnTo constructs a ReturnTo signing cookies with secret.
func NewReturnTo(secret string, secure bool) *ReturnTo {
	key := sha256.Sum256([]byte(secret))
	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/admin",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &ReturnTo{store: store}
}

// Remember stores target when it is a safe local path.
func (rt *ReturnTo) Remember(w http.ResponseWriter, r *http.Request, target string) error {
	target = SafeReturnPath(target)
	if target == "" {
		return nil
	}
	sess, err := rt.store.Get(r, returnToCookie)
	if err != nil {
		// Tampered or rotated cookies decode to a fresh session.
		sess, _ = rt.store.New(r, returnToCookie)
	}
	sess.Values[returnToKey] = target
	return sess.Save(r, w)
}

// Take returns the remembered path, or /admin, and clears the cookie.
func (rt *ReturnTo) Take(w http.ResponseWriter, r *http.Request) string {
	sess, err := rt.store.Get(r, returnToCookie)
	if err != nil {
		return defaultReturn
	}
	target, _ := sess.Values[returnToKey].(string)
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
	if target = SafeReturnPath(target); target == "" {
		return defaultReturn
	}
	return target
}

// SafeReturnPath returns target when it is a same-origin relative path and
// "" otherwise. Scheme-relative and absolute URLs are rejected.
func SafeReturnPath(target string) string {
	target = strings.TrimSpace(target)
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return ""
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	if strings.HasPrefix(u.Path, "/admin/auth") {
		return ""
	}
	return target
}
