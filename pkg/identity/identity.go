package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleConsumer Role = "consumer"
	RoleProducer Role = "producer"
	RoleAdmin    Role = "admin"
)

var ErrInvalidToken = errors.New("invalid token")

// User is the read-only identity context supplied by the auth platform.
// The core never mutates it.
type User struct {
	ID   int64
	Role Role
}

type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses the platform-issued access token into the identity context.
func (v *Verifier) Verify(tokenString string) (*User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	role := Role(claims.Role)
	switch role {
	case RoleConsumer, RoleProducer, RoleAdmin:
	default:
		return nil, ErrInvalidToken
	}

	return &User{ID: claims.UserID, Role: role}, nil
}
