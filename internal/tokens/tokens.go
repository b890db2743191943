package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gowiki/gowiki/internal/page"
	"github.com/gowiki/gowiki/pkg/middleware"
)

// GenerateEditorToken creates a signed HS256 token that attributes edits to ed.
func GenerateEditorToken(secret string, ed *page.Editor, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	if ed == nil || ed.Sub == "" {
		return "", errors.New("editor sub is required")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":                ed.Sub,
		"preferred_username": ed.Nickname,
		"iat":                now.Unix(),
		"exp":                now.Add(ttl).Unix(),
	}
	if ed.Email != "" {
		claims["email"] = ed.Email
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claimsToken(claims), nil
}

type claimsToken map[string]interface{}

func (t claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(map[string]interface{}(t))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
