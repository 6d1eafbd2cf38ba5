package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gblms/roadmap-service/internal/auth"
	"github.com/gblms/roadmap-service/internal/models"
	"github.com/gblms/roadmap-service/internal/repositories"
)

// devPassword is the single accepted password. Authentication here is
// deliberately simple: the service identifies users, it does not protect
// them. TODO: replace with real credential storage before any public deploy.
const devPassword = "password"

type authService struct {
	store  repositories.Store
	tokens *auth.TokenManager
	logger *slog.Logger
}

func NewAuthService(store repositories.Store, tokens *auth.TokenManager, logger *slog.Logger) AuthService {
	return &authService{store: store, tokens: tokens, logger: logger}
}

// Login authenticates the credentials and returns an access token. The user
// record is created on first login; later logins stamp last_login.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	if req.Password != devPassword {
		return nil, ErrInvalidCredentials
	}

	_, err := s.store.GetUser(ctx, req.Username)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		if _, err := s.store.CreateUser(ctx, req.Username); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	default:
		if _, err := s.store.UpdateLastLogin(ctx, req.Username); err != nil {
			return nil, fmt.Errorf("failed to update last login: %w", err)
		}
	}

	token, err := s.tokens.Generate(req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", "username", req.Username)

	return &models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Username:    req.Username,
	}, nil
}

func (s *authService) GetCurrentUser(ctx context.Context, username string) (*models.User, error) {
	return s.store.GetUser(ctx, username)
}
