package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestDisabledPassesThrough(t *testing.T) {
	a, err := New("", "", "", 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Enabled() {
		t.Fatalf("should be disabled")
	}
	called := false
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/move", nil))
	if !called {
		t.Fatalf("handler not called")
	}
	if _, _, err := a.Login("x"); err == nil {
		t.Fatalf("Login on disabled authenticator should fail")
	}
}

func TestLoginAndMiddleware(t *testing.T) {
	a, err := New("hunter2", "", "secret", time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, _, err := a.Login("wrong"); err != ErrBadPassword {
		t.Fatalf("err = %v", err)
	}
	tok, exp, err := a.Login("hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Fatalf("exp = %v", exp)
	}

	var authorized bool
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { authorized = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/move", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/move", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !authorized {
		t.Fatalf("bearer status = %d authorized=%v", rec.Code, authorized)
	}

	authorized = false
	req = httptest.NewRequest(http.MethodPost, "/move", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !authorized {
		t.Fatalf("cookie status = %d", rec.Code)
	}
}

func TestVerifyRejects(t *testing.T) {
	a, _ := New("pw", "", "secret", time.Hour)
	other, _ := New("pw", "", "other-secret", time.Hour)
	tok, _, err := other.Login("pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := a.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("foreign signature err = %v", err)
	}
	if err := a.Verify("not-a-jwt"); err != ErrInvalidToken {
		t.Fatalf("garbage err = %v", err)
	}

	good, _, _ := a.Login("pw")
	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if err := a.Verify(good); err != ErrInvalidToken {
		t.Fatalf("expired err = %v", err)
	}
}

func TestPrehashedPassword(t *testing.T) {
	h, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a, err := New("ignored", string(h), "secret", 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, _, err := a.Login("s3cret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := New("pw", "", "", 0); err == nil {
		t.Fatalf("missing secret should fail")
	}
}
