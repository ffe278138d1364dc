package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the fields the conference backend puts in its access tokens.
// Older tokens carry the user id as "id", newer ones as "userId" or "sub".
type Claims struct {
	ID       string `json:"id,omitempty"`
	UserKey  string `json:"userId,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.UserKey != "":
		return c.UserKey
	default:
		return c.Subject
	}
}

var ErrNoSubject = errors.New("token carries no user id")

// Verifier checks backend-issued HS256 access tokens with the shared secret.
// The portal never issues tokens to attendees; Sign exists for tooling and tests.
type Verifier struct {
	secret []byte
	leeway time.Duration
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), leeway: 30 * time.Second}
}

func (v *Verifier) VerifyAccessToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID() == "" {
		return nil, ErrNoSubject
	}
	return claims, nil
}

func (v *Verifier) Sign(userID, email string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		ID:    userID,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
