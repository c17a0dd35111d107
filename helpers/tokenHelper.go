package helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// Staff roles carried in the token. Tokens are issued by the auth service;
// this package only needs to read them.
const (
	RoleMerchant = "Merchant"
	RoleWaiter   = "Waiter"
	RoleKitchen  = "Kitchen"
)

type SignedDetails struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Uid      string `json:"uid"`
	UserRole string `json:"user_role"`
	jwt.StandardClaims
}

type TokenHelper struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenHelper(secret string, ttl time.Duration) *TokenHelper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenHelper{secret: []byte(secret), ttl: ttl}
}

// GenerateToken signs an HS256 token for a staff member. The coordinator
// does not issue tokens itself; this is used by tests and local tooling.
func (h *TokenHelper) GenerateToken(email, name, uid, role string) (string, error) {
	claims := SignedDetails{
		Email:    email,
		Name:     name,
		Uid:      uid,
		UserRole: role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(h.ttl).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

func (h *TokenHelper) ValidateToken(signedToken string) (*SignedDetails, error) {
	if len(h.secret) == 0 {
		return nil, errors.New("token secret is not configured")
	}
	token, err := jwt.ParseWithClaims(signedToken, &SignedDetails{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return h.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SignedDetails)
	if !ok || !token.Valid {
		return nil, errors.New("the token is invalid")
	}
	return claims, nil
}
