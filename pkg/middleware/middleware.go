package middleware

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/a1ishm/staticd/pkg/request"
)

// Middleware checks a raw request before it is processed.
// Handle returns false to reject the request.
type Middleware interface {
	Handle(raw string) bool
}

// The Func type is an adapter to allow the use of ordinary functions as
// middleware.
type Func func(raw string) bool

func (f Func) Handle(raw string) bool {
	return f(raw)
}

// Chain runs middleware in registration order.
type Chain []Middleware

// Handle reports whether every middleware accepts raw. It stops at the first
// rejection. An empty chain accepts everything.
func (c Chain) Handle(raw string) bool {
	for _, m := range c {
		if !m.Handle(raw) {
			return false
		}
	}
	return true
}

// BasicAuthPresence rejects requests without a well-formed Authorization
// line. Credentials are not checked.
type BasicAuthPresence struct{}

func (BasicAuthPresence) Handle(raw string) bool {
	_, _, ok := request.Authorization(raw)
	return ok
}

// BearerJWT accepts only "Authorization: Bearer <token>" where token is an
// HS256 JWT signed with secret and not expired.
func BearerJWT(secret []byte) Middleware {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (interface{}, error) {
		if len(secret) == 0 {
			return nil, errors.New("empty secret")
		}
		return secret, nil
	}
	return Func(func(raw string) bool {
		scheme, credentials, ok := request.Authorization(raw)
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return false
		}
		token, err := parser.Parse(credentials, keyFunc)
		return err == nil && token.Valid
	})
}
