// internal/httpserver/session.go
//
// Anonymous session cookie.
//
// The cookie holds an HS256 JWT whose "jti" claim is the session ID (a UUID).
// The signing key is derived from SESSION_SECRET with HKDF-SHA256. Missing,
// invalid, or expired tokens get a fresh session ID; the cookie is re-issued
// on every request so active players keep their session.

package httpserver

import (
	"context"
	"crypto/sha256"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const sessionCookieName = "countryguess_session"

const hkdfInfo = "countryguess session cookie v1"

// ctxSessionKey is the context key type for the session ID.
type ctxSessionKey struct{}

type sessionCookies struct {
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func newSessionCookies(secret string, ttl time.Duration, secure bool) *sessionCookies {
	key := make([]byte, 32)
	// Reading 32 bytes from HKDF-SHA256 cannot fail (limit is 255*32).
	_, _ = io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key)
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionCookies{key: key, ttl: ttl, secure: secure, now: time.Now}
}

// sign returns a token for sid.
func (c *sessionCookies) sign(sid string) (string, time.Time, error) {
	now := c.now()
	exp := now.Add(c.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        sid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString(c.key)
	return ss, exp, err
}

// verify returns the session ID inside a valid token.
func (c *sessionCookies) verify(token string) (string, bool) {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil || !t.Valid {
		return "", false
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return "", false
	}
	return claims.ID, true
}

// middleware resolves (or creates) the session ID and refreshes the cookie.
func (c *sessionCookies) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if ck, err := r.Cookie(sessionCookieName); err == nil && ck.Value != "" {
			sid, _ = c.verify(ck.Value)
		}
		if sid == "" {
			sid = uuid.New().String()
		}
		if tok, exp, err := c.sign(sid); err == nil {
			c.set(w, tok, exp)
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// set writes the session cookie with appropriate security attributes.
func (c *sessionCookies) set(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if c.secure {
		sameSite = http.SameSiteNoneMode // required for cross-site use when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// sessionID returns the session ID placed in the context by the middleware.
func sessionID(r *http.Request) string {
	sid, _ := r.Context().Value(ctxSessionKey{}).(string)
	return sid
}
