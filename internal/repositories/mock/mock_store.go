package mock

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/gblms/roadmap-service/internal/models"
	"github.com/gblms/roadmap-service/internal/repositories"
)

// Store is an in-process implementation of the persistence contract. It backs
// mock mode and also receives the per-call fallback traffic of the remote
// modes. All access is serialized through a RWMutex; nothing survives a
// restart.
type Store struct {
	mu sync.RWMutex

	users    map[string]*models.User
	roadmaps map[string]*models.Roadmap

	// roadmap ids in insertion order, so per-user listings are stable
	roadmapOrder []string
}

var _ repositories.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:    make(map[string]*models.User),
		roadmaps: make(map[string]*models.Roadmap),
	}
}

func (s *Store) CreateUser(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.users[username]; ok {
		return copyUser(existing), nil
	}

	user := &models.User{
		Username:  username,
		CreatedAt: time.Now().UTC(),
		LastLogin: nil,
	}
	s.users[username] = user
	return copyUser(user), nil
}

func (s *Store) GetUser(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyUser(user), nil
}

func (s *Store) UpdateLastLogin(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		user = &models.User{Username: username, CreatedAt: time.Now().UTC()}
		s.users[username] = user
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	return copyUser(user), nil
}

func (s *Store) SaveRoadmap(_ context.Context, roadmap *models.Roadmap) (*models.Roadmap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	stored := roadmap.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	// duplicate save is an overwrite in mock mode; keep the original slot in
	// the insertion order
	if _, exists := s.roadmaps[stored.ID]; !exists {
		s.roadmapOrder = append(s.roadmapOrder, stored.ID)
	}
	s.roadmaps[stored.ID] = stored

	return stored.Clone(), nil
}

func (s *Store) GetRoadmap(_ context.Context, id string) (*models.Roadmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roadmap, ok := s.roadmaps[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return roadmap.Clone(), nil
}

func (s *Store) UpdateRoadmap(_ context.Context, id string, fields repositories.Fields) (*models.Roadmap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roadmap, ok := s.roadmaps[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}

	applyFields(roadmap, fields)
	roadmap.UpdatedAt = time.Now().UTC()
	return roadmap.Clone(), nil
}

func (s *Store) GetUserRoadmaps(_ context.Context, userID string) ([]*models.Roadmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Roadmap, 0)
	for _, id := range s.roadmapOrder {
		if roadmap, ok := s.roadmaps[id]; ok && roadmap.UserID == userID {
			result = append(result, roadmap.Clone())
		}
	}
	return result, nil
}

func copyUser(u *models.User) *models.User {
	cp := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		cp.LastLogin = &t
	}
	return &cp
}

// applyFields merges a partial update into a roadmap. Unknown keys are
// ignored; numeric values tolerate both native ints and JSON float64s.
func applyFields(roadmap *models.Roadmap, fields repositories.Fields) {
	for key, value := range fields {
		switch key {
		case "title":
			if v, ok := value.(string); ok {
				roadmap.Title = v
			}
		case "career_goal":
			if v, ok := value.(string); ok {
				roadmap.CareerGoal = v
			}
		case "user_id":
			if v, ok := value.(string); ok {
				roadmap.UserID = v
			}
		case "estimated_weeks":
			if v, ok := asInt(value); ok {
				roadmap.EstimatedWeeks = v
			}
		case "current_module":
			if v, ok := asInt(value); ok {
				roadmap.CurrentModule = v
			}
		case "progress_percentage":
			if v, ok := asFloat(value); ok {
				roadmap.ProgressPercentage = v
			}
		case "modules":
			if blob, ok := asJSON(value); ok {
				roadmap.Modules = blob
			}
		}
	}
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func asJSON(value any) (datatypes.JSON, bool) {
	switch v := value.(type) {
	case datatypes.JSON:
		return v, true
	case []byte:
		return datatypes.JSON(v), true
	case json.RawMessage:
		return datatypes.JSON(v), true
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, false
		}
		return datatypes.JSON(data), true
	}
}
