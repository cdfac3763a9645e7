package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"

	"tripplanner/models"
)

type Purpose string

const (
	PurposeActivate Purpose = "activate"
	PurposeReset    Purpose = "reset"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// EmailClaims back the links sent by mail. Stamp changes as soon as the
// account is activated, logs in or changes its password, which makes a link
// single use.
type EmailClaims struct {
	Purpose Purpose `json:"purpose"`
	UserID  string  `json:"uid"`
	Stamp   string  `json:"stamp"`
	jwt.StandardClaims
}

// NewEmailToken creates the token for an activation or password reset link
func NewEmailToken(key []byte, purpose Purpose, user *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &EmailClaims{
		Purpose: purpose,
		UserID:  user.ID,
		Stamp:   userStamp(user),
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// CheckEmailToken verifies tokenStr was issued for purpose and user in its current state
func CheckEmailToken(key []byte, purpose Purpose, tokenStr string, user *models.User) error {
	claims := &EmailClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	if claims.Purpose != purpose || claims.UserID != user.ID || claims.Stamp != userStamp(user) {
		return ErrInvalidToken
	}
	return nil
}

func userStamp(user *models.User) string {
	var lastLogin int64
	if user.LastLogin != nil {
		lastLogin = user.LastLogin.Unix()
	}
	sum := sha256.Sum256([]byte(user.PasswordHash + "|" + strconv.FormatBool(user.IsActive) + "|" + strconv.FormatInt(lastLogin, 10)))
	return hex.EncodeToString(sum[:12])
}

// EncodeUID encodes a user id for use in a link path
func EncodeUID(userID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(userID))
}

// DecodeUID reverses EncodeUID
func DecodeUID(uidb64 string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(uidb64)
	if err != nil || len(b) == 0 {
		return "", fmt.Errorf("invalid uid %q", uidb64)
	}
	return string(b), nil
}
