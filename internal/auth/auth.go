// Package auth guards mutating routes behind a shared admin password exchanged for a JWT.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// CookieName carries the token for browser clients.
const CookieName = "chessx_token"

const subject = "admin"

var (
	ErrBadPassword  = errors.New("auth: wrong password")
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Authenticator is disabled when neither a password nor a hash is configured; every
// request is then allowed through.
type Authenticator struct {
	hash   []byte
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New builds an authenticator. A plain password is hashed once with bcrypt; passwordHash
// wins when both are set.
func New(password, passwordHash, secret string, ttl time.Duration) (*Authenticator, error) {
	a := &Authenticator{secret: []byte(secret), ttl: ttl, now: time.Now}
	if a.ttl <= 0 {
		a.ttl = 24 * time.Hour
	}
	switch {
	case strings.TrimSpace(passwordHash) != "":
		a.hash = []byte(strings.TrimSpace(passwordHash))
	case password != "":
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		a.hash = h
	default:
		return a, nil
	}
	if len(a.secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	return a, nil
}

// Enabled reports whether tokens are checked.
func (a *Authenticator) Enabled() bool { return a != nil && len(a.hash) > 0 }

// Login checks password and returns a signed token with its expiry.
func (a *Authenticator) Login(password string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, errors.New("auth: disabled")
	}
	if bcrypt.CompareHashAndPassword(a.hash, []byte(password)) != nil {
		return "", time.Time{}, ErrBadPassword
	}
	now := a.now()
	exp := now.Add(a.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := token.SignedString(a.secret)
	return ss, exp, err
}

// Verify parses and validates a token.
func (a *Authenticator) Verify(tokenStr string) error {
	if tokenStr == "" {
		return ErrInvalidToken
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	if sub, _ := claims["sub"].(string); sub != subject {
		return ErrInvalidToken
	}
	return nil
}

// Middleware rejects requests without a valid bearer token or cookie.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		if err := a.Verify(bearerOrCookie(r)); err != nil {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":{"code":"unauthorized","message":"invalid or missing token"}}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SetCookie stores token for browser clients.
func SetCookie(w http.ResponseWriter, token string, exp time.Time, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

func bearerOrCookie(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	if t := r.URL.Query().Get("token"); t != "" {
		// websocket clients cannot always set headers
		return t
	}
	return ""
}
