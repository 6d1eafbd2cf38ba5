package repositories

import (
	"context"
	"log/slog"

	"github.com/gblms/roadmap-service/internal/models"
)

// Fallback decorates a remote store with per-call degradation to a mock
// store. Transport and protocol failures never reach the caller: the call is
// transparently re-executed against the mock store and a warning is logged,
// since the write (if any) is then lost on restart. NotFound and Conflict are
// ordinary results and pass through untouched.
//
// There is deliberately no circuit breaker: after a failed call the next one
// attempts the remote again. Availability and simplicity win over request
// latency at the volumes this service targets.
type Fallback struct {
	remote Store
	mock   Store
	logger *slog.Logger
}

var _ Store = (*Fallback)(nil)

// NewFallback wraps remote so that every remote failure degrades to the mock
// store for that single call.
func NewFallback(remote, mock Store, logger *slog.Logger) *Fallback {
	return &Fallback{remote: remote, mock: mock, logger: logger}
}

// Remote returns the wrapped remote store, for health checks that want to
// probe the real backend rather than the decorator.
func (f *Fallback) Remote() Store { return f.remote }

func (f *Fallback) CreateUser(ctx context.Context, username string) (*models.User, error) {
	user, err := f.remote.CreateUser(ctx, username)
	if !IsRemoteFailure(err) {
		return user, err
	}
	f.warn(ctx, "CreateUser", err)
	return f.mock.CreateUser(ctx, username)
}

func (f *Fallback) GetUser(ctx context.Context, username string) (*models.User, error) {
	user, err := f.remote.GetUser(ctx, username)
	if !IsRemoteFailure(err) {
		return user, err
	}
	f.warn(ctx, "GetUser", err)
	return f.mock.GetUser(ctx, username)
}

func (f *Fallback) UpdateLastLogin(ctx context.Context, username string) (*models.User, error) {
	user, err := f.remote.UpdateLastLogin(ctx, username)
	if !IsRemoteFailure(err) {
		return user, err
	}
	f.warn(ctx, "UpdateLastLogin", err)
	return f.mock.UpdateLastLogin(ctx, username)
}

func (f *Fallback) SaveRoadmap(ctx context.Context, roadmap *models.Roadmap) (*models.Roadmap, error) {
	saved, err := f.remote.SaveRoadmap(ctx, roadmap)
	if !IsRemoteFailure(err) {
		return saved, err
	}
	f.warn(ctx, "SaveRoadmap", err)
	return f.mock.SaveRoadmap(ctx, roadmap)
}

func (f *Fallback) GetRoadmap(ctx context.Context, id string) (*models.Roadmap, error) {
	roadmap, err := f.remote.GetRoadmap(ctx, id)
	if !IsRemoteFailure(err) {
		return roadmap, err
	}
	f.warn(ctx, "GetRoadmap", err)
	return f.mock.GetRoadmap(ctx, id)
}

func (f *Fallback) UpdateRoadmap(ctx context.Context, id string, fields Fields) (*models.Roadmap, error) {
	roadmap, err := f.remote.UpdateRoadmap(ctx, id, fields)
	if !IsRemoteFailure(err) {
		return roadmap, err
	}
	f.warn(ctx, "UpdateRoadmap", err)
	return f.mock.UpdateRoadmap(ctx, id, fields)
}

func (f *Fallback) GetUserRoadmaps(ctx context.Context, userID string) ([]*models.Roadmap, error) {
	roadmaps, err := f.remote.GetUserRoadmaps(ctx, userID)
	if !IsRemoteFailure(err) {
		return roadmaps, err
	}
	f.warn(ctx, "GetUserRoadmaps", err)
	return f.mock.GetUserRoadmaps(ctx, userID)
}

func (f *Fallback) warn(ctx context.Context, op string, err error) {
	f.logger.WarnContext(ctx, "remote store failed, serving from mock store",
		"operation", op,
		"error", err)
}
