package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"equiploan/internal/auth"
	"equiploan/internal/domain"
	"equiploan/internal/repos"
)

type AuthService struct {
	Users  *repos.UserRepo
	Secret []byte
	TTL    time.Duration
}

func NewAuthService(users *repos.UserRepo, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{Users: users, Secret: secret, TTL: ttl}
}

// Login checks the password and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return "", nil, ErrBadCreds
	}
	token, err := auth.GenerateToken(s.Secret, u.ID, string(u.Role), u.UserType, s.TTL)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Resolve turns a bearer token into the caller's session. The role is parsed once here;
// an unknown role is treated as an invalid session.
func (s *AuthService) Resolve(token string) (*domain.Actor, error) {
	claims, err := auth.ValidateToken(s.Secret, token)
	if err != nil {
		return nil, ErrNotLoggedIn
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotLoggedIn, err)
	}
	return &domain.Actor{ID: claims.UserID, Role: role, UserType: claims.UserType}, nil
}
