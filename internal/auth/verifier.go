package auth

import (
	"context"
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"mentei-messaging/internal/repositories"
)

var ErrInvalidToken = errors.New("invalid token")

// Verifier resolves a bearer credential to an authenticated user id.
// The implementation is chosen once at startup, never per request.
type Verifier interface {
	Verify(ctx context.Context, token string) (int, error)
}

// New selects the verifier for the configured mode.
func New(mode, secret string, users repositories.UserRepository) (Verifier, error) {
	switch mode {
	case "mock":
		return MockVerifier{}, nil
	case "store":
		if len(secret) < 8 {
			return nil, errors.New("auth: JWT secret too short")
		}
		return &StoreVerifier{secret: []byte(secret), users: users}, nil
	default:
		return nil, errors.New("auth: unknown mode " + mode)
	}
}

// MockVerifier accepts the raw user id as the token. Development only.
type MockVerifier struct{}

func (MockVerifier) Verify(_ context.Context, token string) (int, error) {
	id, err := strconv.Atoi(token)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// StoreVerifier validates an HS256 JWT and checks the subject against the
// user store. Inactive or unknown users are rejected.
type StoreVerifier struct {
	secret []byte
	users  repositories.UserRepository
}

func (v *StoreVerifier) Verify(ctx context.Context, token string) (int, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.Atoi(subject)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}

	user, err := v.users.GetUser(ctx, userID)
	if err != nil {
		return 0, ErrInvalidToken
	}
	if !user.IsActive {
		return 0, ErrInvalidToken
	}
	return user.ID, nil
}
