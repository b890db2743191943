package editors

import (
	"strings"
	"time"

	"github.com/gowiki/gowiki/internal/page"
)

// Profile is what the wiki remembers about an editor between edits.
type Profile struct {
	Sub        string    `bson:"sub" json:"sub"` // token subject
	Nickname   string    `bson:"nickname" json:"nickname"`
	Email      string    `bson:"email,omitempty" json:"email,omitempty"`
	Edits      int64     `bson:"edits" json:"edits"`
	LastEditAt time.Time `bson:"lastEditAt,omitempty" json:"lastEditAt,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FromClaims maps token claims to an editor. It returns nil without a sub.
func FromClaims(claims map[string]interface{}) *page.Editor {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil
	}
	email, _ := claims["email"].(string)
	return &page.Editor{Sub: sub, Nickname: nickname(claims, sub, email), Email: email}
}

func nickname(claims map[string]interface{}, sub, email string) string {
	for _, k := range []string{"preferred_username", "name"} {
		if v, _ := claims[k].(string); strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return sub
}
