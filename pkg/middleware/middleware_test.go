package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	withAuth    = "GET /static/index.html HTTP/1.1\r\nHost: localhost\r\nAuthorization: Basic dXNlcjpwYXNz\r\n\r\n"
	withoutAuth = "GET /static/index.html HTTP/1.1\r\nHost: localhost\r\n\r\n"
)

func TestChain(t *testing.T) {
	if !(Chain{}).Handle(withoutAuth) {
		t.Error("empty chain rejected a request")
	}

	var calls []string
	record := func(name string, accept bool) Middleware {
		return Func(func(string) bool {
			calls = append(calls, name)
			return accept
		})
	}

	c := Chain{record("first", true), record("second", false), record("third", true)}
	if c.Handle(withAuth) {
		t.Error("chain accepted a rejected request")
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("got calls %v, want [first second]", calls)
	}
}

func TestBasicAuthPresence(t *testing.T) {
	m := BasicAuthPresence{}
	if !m.Handle(withAuth) {
		t.Error("request with Authorization rejected")
	}
	if m.Handle(withoutAuth) {
		t.Error("request without Authorization accepted")
	}
	if !m.Handle("GET / HTTP/1.1\r\nAuthorization: Basic not-even-base64\r\n\r\n") {
		t.Error("credentials must not be validated")
	}
}

func bearer(t *testing.T, secret []byte, method jwt.SigningMethod, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.MapClaims{
		"sub": "tester",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	return "GET /static/index.html HTTP/1.1\r\nAuthorization: Bearer " + signed + "\r\n\r\n"
}

func TestBearerJWT(t *testing.T) {
	secret := []byte("s3cret")
	m := BearerJWT(secret)
	future := time.Now().Add(time.Hour)

	if !m.Handle(bearer(t, secret, jwt.SigningMethodHS256, future)) {
		t.Error("valid token rejected")
	}
	if m.Handle(bearer(t, []byte("other"), jwt.SigningMethodHS256, future)) {
		t.Error("token signed with another secret accepted")
	}
	if m.Handle(bearer(t, secret, jwt.SigningMethodHS512, future)) {
		t.Error("HS512 token accepted")
	}
	if m.Handle(bearer(t, secret, jwt.SigningMethodHS256, time.Now().Add(-time.Hour))) {
		t.Error("expired token accepted")
	}
	if m.Handle(withAuth) {
		t.Error("basic credentials accepted")
	}
	if m.Handle(withoutAuth) {
		t.Error("request without Authorization accepted")
	}
	if BearerJWT(nil).Handle(bearer(t, secret, jwt.SigningMethodHS256, future)) {
		t.Error("empty secret accepted a token")
	}
}
