package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingClaims = errors.New("token has no subject")
)

type contextKey struct{}

// Verifier validates HS256 bearer tokens and extracts the user identity.
// A Verifier with an empty secret treats every request as anonymous.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for secret
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Enabled reports whether tokens are checked at all
func (v *Verifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// UserID parses raw and returns its "sub" claim, or "user_id" when sub is absent
func (v *Verifier) UserID(raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrMissingClaims
	}
	for _, key := range []string{"sub", "user_id"} {
		if id := claimString(claims[key]); id != "" {
			return id, nil
		}
	}
	return "", ErrMissingClaims
}

// Middleware attaches the caller identity to the request context. Requests
// without a bearer token continue anonymously; a bad token is rejected.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !v.Enabled() || header == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "missing bearer token")
			return
		}
		userID, err := v.UserID(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			unauthorized(w, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID returns a context carrying userID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserIDFrom returns the identity on ctx, or "" for an anonymous caller
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// claimString accepts both string and numeric subjects
func claimString(v interface{}) string {
	switch c := v.(type) {
	case string:
		return strings.TrimSpace(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case json.Number:
		return c.String()
	}
	return ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
