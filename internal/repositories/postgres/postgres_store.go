package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gblms/roadmap-service/internal/models"
	"github.com/gblms/roadmap-service/internal/repositories"
)

// Store implements the persistence contract against a directly connected
// Postgres database. Used when a raw DSN is configured instead of the hosted
// row API.
type Store struct {
	db *gorm.DB
}

var _ repositories.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the users and roadmaps tables.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&models.User{}, &models.Roadmap{})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) CreateUser(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{Username: username, CreatedAt: time.Now().UTC()}

	// get-or-create: on conflict keep the existing row untouched
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user).Error
	if err != nil {
		return nil, wrap("CreateUser", err)
	}
	return s.GetUser(ctx, username)
}

func (s *Store) GetUser(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, wrap("GetUser", err)
	}
	return &user, nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, username string) (*models.User, error) {
	if _, err := s.CreateUser(ctx, username); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Update("last_login", now).Error
	if err != nil {
		return nil, wrap("UpdateLastLogin", err)
	}
	return s.GetUser(ctx, username)
}

func (s *Store) SaveRoadmap(ctx context.Context, roadmap *models.Roadmap) (*models.Roadmap, error) {
	now := time.Now().UTC()
	stored := roadmap.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	if err := s.db.WithContext(ctx).Create(stored).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, repositories.ErrConflict
		}
		return nil, wrap("SaveRoadmap", err)
	}
	return stored, nil
}

func (s *Store) GetRoadmap(ctx context.Context, id string) (*models.Roadmap, error) {
	var roadmap models.Roadmap
	err := s.db.WithContext(ctx).First(&roadmap, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, wrap("GetRoadmap", err)
	}
	return &roadmap, nil
}

func (s *Store) UpdateRoadmap(ctx context.Context, id string, fields repositories.Fields) (*models.Roadmap, error) {
	updates := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now().UTC()

	result := s.db.WithContext(ctx).
		Model(&models.Roadmap{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, wrap("UpdateRoadmap", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, repositories.ErrNotFound
	}
	return s.GetRoadmap(ctx, id)
}

func (s *Store) GetUserRoadmaps(ctx context.Context, userID string) ([]*models.Roadmap, error) {
	var roadmaps []*models.Roadmap
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&roadmaps).Error
	if err != nil {
		return nil, wrap("GetUserRoadmaps", err)
	}
	return roadmaps, nil
}

// wrap classifies a database error as a transport failure so the fallback
// layer treats a lost connection the same way as an unreachable HTTP remote.
func wrap(op string, err error) error {
	return &repositories.TransportError{Op: op, Err: err}
}
