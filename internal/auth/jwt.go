package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	CookieName = "token"
	SessionTTL = 24 * time.Hour
)

// ErrInvalidToken is returned for every token that does not carry a valid
// session: empty, malformed, tampered, wrongly signed or expired.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the point-in-time view of a user carried by a session token.
type Claims struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenID   string    `json:"-"`
}

type tokenClaims struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Status string `json:"status"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256-signed session tokens.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// WithClock replaces the codec's time source.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Issue signs claims. IssuedAt, ExpiresAt and TokenID are overwritten; the
// returned Claims are exactly what Verify will later reproduce.
func (c *Codec) Issue(in Claims) (string, Claims, error) {
	out := in
	out.IssuedAt = time.Unix(c.now().Unix(), 0).UTC()
	out.ExpiresAt = out.IssuedAt.Add(SessionTTL)
	out.TokenID = uuid.NewString()

	tc := tokenClaims{
		Email:  out.Email,
		Name:   out.Name,
		Role:   out.Role,
		Status: out.Status,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   out.ID,
			ID:        out.TokenID,
			IssuedAt:  jwt.NewNumericDate(out.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(out.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(c.secret)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, out, nil
}

func (c *Codec) Verify(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}
	var tc tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &tc, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !tok.Valid || tc.IssuedAt == nil || tc.ExpiresAt == nil || tc.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	out := Claims{
		ID:        tc.Subject,
		Email:     tc.Email,
		Name:      tc.Name,
		Role:      tc.Role,
		Status:    tc.Status,
		IssuedAt:  time.Unix(tc.IssuedAt.Unix(), 0).UTC(),
		ExpiresAt: time.Unix(tc.ExpiresAt.Unix(), 0).UTC(),
		TokenID:   tc.ID,
	}
	if out.ExpiresAt.Sub(out.IssuedAt) != SessionTTL || !c.now().Before(out.ExpiresAt) {
		return Claims{}, ErrInvalidToken
	}
	return out, nil
}

// SetCookie stores the token in the session cookie.
func (c *Codec) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionTTL / time.Second),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// Revoke clears the session cookie. Calling it without a session is fine.
func (c *Codec) Revoke(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(1, 0),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// TokenFromRequest reads the session cookie, then a bearer header.
func TokenFromRequest(r *http.Request) string {
	if ck, err := r.Cookie(CookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
