package auth

import (
	"strings"

	"github.com/google/uuid"

	"github.com/Emerick-P/QuackChat/modules/identity"
)

// Service issues session tokens against the identity store.
type Service struct {
	jwt   *JWTManager
	users *identity.Repository
}

// NewService creates the auth service.
func NewService(jwt *JWTManager, users *identity.Repository) *Service {
	return &Service{jwt: jwt, users: users}
}

// Manager returns the token manager, for middleware wiring.
func (s *Service) Manager() *JWTManager {
	return s.jwt
}

// DevLogin creates or refreshes a development user and returns a session
// token for it. When userID is empty a random twitch-style id is generated.
// Only mounted outside production.
func (s *Service) DevLogin(display, userID string) (string, *identity.User, error) {
	if userID == "" {
		userID = "twitch:" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	}

	user, err := s.users.EnsureForLogin(userID, display)
	if err != nil {
		return "", nil, err
	}

	token, err := s.jwt.Generate(user.ID, user.Display)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
