package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/posko-pajak/api-go/services"
)

const (
	AccessTokenType  = "access"
	RefreshTokenType = "refresh"
)

type UserClaims struct {
	UserID    string   `json:"user_id"`
	Roles     []string `json:"roles,omitempty"`
	TokenType string   `json:"typ"`
	jwt.StandardClaims
}

type TokenIssuer struct {
	secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), AccessTTL: accessTTL, RefreshTTL: refreshTTL}
}

func (ti *TokenIssuer) AccessToken(userID string, roles []string) (string, error) {
	return ti.sign(UserClaims{
		UserID:    userID,
		Roles:     roles,
		TokenType: AccessTokenType,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(ti.AccessTTL).Unix(),
		},
	})
}

// RefreshToken returns a signed refresh token and its expiry. Every token
// carries a fresh id so two logins in the same second never collide.
func (ti *TokenIssuer) RefreshToken(userID string) (string, time.Time, error) {
	expires := time.Now().Add(ti.RefreshTTL)
	token, err := ti.sign(UserClaims{
		UserID:    userID,
		TokenType: RefreshTokenType,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: expires.Unix(),
		},
	})
	return token, expires, err
}

func (ti *TokenIssuer) sign(claims UserClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Parse validates the signature and expiry and checks the token type.
func (ti *TokenIssuer) Parse(tokenString, tokenType string) (*UserClaims, error) {
	claims := &UserClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != tokenType || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

type contextKey string

const UserContextKey contextKey = "user"

func SetActor(c *gin.Context, actor services.Actor) {
	c.Set(string(UserContextKey), actor)
}

// GetActor returns the authenticated actor, or the zero Actor for anonymous requests.
func GetActor(c *gin.Context) services.Actor {
	value, exists := c.Get(string(UserContextKey))
	if !exists {
		return services.Actor{}
	}
	if actor, ok := value.(services.Actor); ok {
		return actor
	}
	return services.Actor{}
}
