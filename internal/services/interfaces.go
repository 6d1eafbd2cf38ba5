package services

import (
	"context"
	"errors"

	"github.com/gblms/roadmap-service/internal/models"
)

// ErrInvalidCredentials is returned when a login attempt carries the wrong
// password.
var ErrInvalidCredentials = errors.New("incorrect username or password")

// AuthService handles login and account lookups. Accounts are created
// implicitly on first successful login.
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error)
	GetCurrentUser(ctx context.Context, username string) (*models.User, error)
}

// RoadmapService handles roadmap generation, retrieval, update, listing and
// export.
type RoadmapService interface {
	Generate(ctx context.Context, req *models.GenerateRoadmapRequest, username string) (*models.RoadmapResponse, error)
	Get(ctx context.Context, id string) (*models.Roadmap, error)
	Update(ctx context.Context, id string, req *models.UpdateRoadmapRequest) (*models.RoadmapResponse, error)
	ListByUser(ctx context.Context, username string) (*models.RoadmapListResponse, error)
	Export(ctx context.Context, id string) ([]byte, string, error)
}

// ServiceManager aggregates the service layer and owns its lifecycle.
type ServiceManager interface {
	Auth() AuthService
	Roadmap() RoadmapService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
