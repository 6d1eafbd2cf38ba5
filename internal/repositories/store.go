package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/gblms/roadmap-service/internal/models"
)

// ErrNotFound is returned when a user or roadmap key is absent. It is a
// legitimate terminal result, checked with errors.Is — never a reason to
// fall back to another backend.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned by remote backends when an insert collides with an
// existing primary key. Surfaced to the caller as-is — never retried and
// never a reason to fall back.
var ErrConflict = errors.New("record already exists")

// TransportError wraps a network or HTTP-level failure reaching a remote
// backend. The fallback layer converts it into a mock-store result.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error in %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError wraps a malformed or error-bearing response body from a
// remote backend. Handled identically to TransportError.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error in %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsRemoteFailure reports whether err is a transport or protocol failure that
// warrants falling back to the mock store for this call.
func IsRemoteFailure(err error) bool {
	var te *TransportError
	var pe *ProtocolError
	return errors.As(err, &te) || errors.As(err, &pe)
}

// Fields is a partial-update payload keyed by column name (snake_case, the
// same keys the wire formats use).
type Fields map[string]any

// Store is the persistence contract consumed by the service layer. Every
// storage mode — mock, direct, proxy, postgres — implements the same seven
// operations.
type Store interface {
	// CreateUser inserts a user with a nil last login, or returns the
	// existing record unchanged (idempotent get-or-create).
	CreateUser(ctx context.Context, username string) (*models.User, error)

	// GetUser returns ErrNotFound when the username is unknown.
	GetUser(ctx context.Context, username string) (*models.User, error)

	// UpdateLastLogin touches the user's last-login timestamp, creating the
	// user first if absent.
	UpdateLastLogin(ctx context.Context, username string) (*models.User, error)

	// SaveRoadmap inserts a roadmap keyed by its caller-generated id.
	SaveRoadmap(ctx context.Context, roadmap *models.Roadmap) (*models.Roadmap, error)

	// GetRoadmap returns ErrNotFound when the id is unknown.
	GetRoadmap(ctx context.Context, id string) (*models.Roadmap, error)

	// UpdateRoadmap merges the given fields into an existing roadmap and
	// refreshes its updated_at timestamp. Returns ErrNotFound when absent.
	UpdateRoadmap(ctx context.Context, id string, fields Fields) (*models.Roadmap, error)

	// GetUserRoadmaps returns all roadmaps owned by the given user.
	GetUserRoadmaps(ctx context.Context, userID string) ([]*models.Roadmap, error)
}

// Pinger is implemented by backends that hold a real connection.
type Pinger interface {
	Ping(ctx context.Context) error
}
