package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ReviewClaims bind a checkout confirmation to the exact cart and schedule the user saw.
type ReviewClaims struct {
	Digest string `json:"dig"`
	jwt.RegisteredClaims
}

const reviewAudience = "checkout-review"

var ErrReviewMismatch = errors.New("review token does not match checkout")

func GenerateReviewToken(secret []byte, userID, digest string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ReviewClaims{
		Digest: digest,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{reviewAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing review token: %w", err)
	}
	return signed, nil
}

// ValidateReviewToken checks signature, expiry, owner and digest.
func ValidateReviewToken(secret []byte, tokenStr, userID, digest string) error {
	token, err := jwt.ParseWithClaims(tokenStr, &ReviewClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithAudience(reviewAudience), jwt.WithSubject(userID), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("parsing review token: %w", err)
	}
	claims, ok := token.Claims.(*ReviewClaims)
	if !ok || !token.Valid || claims.Digest != digest {
		return ErrReviewMismatch
	}
	return nil
}
