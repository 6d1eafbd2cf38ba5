package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gblms/roadmap-service/internal/models"
	"github.com/gblms/roadmap-service/internal/repositories"
)

const (
	defaultTimeout = 10 * time.Second
	usersTable     = "users"
	roadmapsTable  = "roadmaps"
)

// Store talks to the hosted database's row API (PostgREST) over authenticated
// HTTPS. One request per operation; vendor auth headers attached to each. It
// never falls back by itself — remote failures surface as TransportError or
// ProtocolError and the fallback layer decides what to do.
type Store struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ repositories.Store = (*Store)(nil)

func NewStore(baseURL, apiKey string) *Store {
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// ===== STORE OPERATIONS =====

func (s *Store) CreateUser(ctx context.Context, username string) (*models.User, error) {
	// get-or-create: an existing record is returned unchanged
	existing, err := s.GetUser(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	user := &models.User{Username: username, CreatedAt: time.Now().UTC()}
	var rows []models.User
	if err := s.insert(ctx, "CreateUser", usersTable, user, &rows); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// lost a create race; the row exists now
			return s.GetUser(ctx, username)
		}
		return nil, err
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, username string) (*models.User, error) {
	var rows []models.User
	filter := url.Values{"username": {"eq." + username}}
	if err := s.selectRows(ctx, "GetUser", usersTable, filter, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &rows[0], nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, username string) (*models.User, error) {
	now := time.Now().UTC()
	filter := url.Values{"username": {"eq." + username}}
	payload := map[string]any{"last_login": now.Format(time.RFC3339Nano)}

	var rows []models.User
	if err := s.update(ctx, "UpdateLastLogin", usersTable, filter, payload, &rows); err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}

	// no row was touched: create the user with the login already stamped
	user := &models.User{Username: username, CreatedAt: now, LastLogin: &now}
	var created []models.User
	if err := s.insert(ctx, "UpdateLastLogin", usersTable, user, &created); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return s.GetUser(ctx, username)
		}
		return nil, err
	}
	if len(created) > 0 {
		return &created[0], nil
	}
	return user, nil
}

func (s *Store) SaveRoadmap(ctx context.Context, roadmap *models.Roadmap) (*models.Roadmap, error) {
	now := time.Now().UTC()
	stored := roadmap.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	var rows []models.Roadmap
	if err := s.insert(ctx, "SaveRoadmap", roadmapsTable, stored, &rows); err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}
	return stored, nil
}

func (s *Store) GetRoadmap(ctx context.Context, id string) (*models.Roadmap, error) {
	var rows []models.Roadmap
	filter := url.Values{"id": {"eq." + id}}
	if err := s.selectRows(ctx, "GetRoadmap", roadmapsTable, filter, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &rows[0], nil
}

func (s *Store) UpdateRoadmap(ctx context.Context, id string, fields repositories.Fields) (*models.Roadmap, error) {
	payload := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	filter := url.Values{"id": {"eq." + id}}
	var rows []models.Roadmap
	if err := s.update(ctx, "UpdateRoadmap", roadmapsTable, filter, payload, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &rows[0], nil
}

func (s *Store) GetUserRoadmaps(ctx context.Context, userID string) ([]*models.Roadmap, error) {
	var rows []models.Roadmap
	filter := url.Values{
		"user_id": {"eq." + userID},
		"order":   {"created_at.asc"},
	}
	if err := s.selectRows(ctx, "GetUserRoadmaps", roadmapsTable, filter, &rows); err != nil {
		return nil, err
	}

	result := make([]*models.Roadmap, 0, len(rows))
	for i := range rows {
		result = append(result, &rows[i])
	}
	return result, nil
}

// ===== ROW API TRANSPORT =====

func (s *Store) insert(ctx context.Context, op, table string, payload, out any) error {
	return s.do(ctx, op, http.MethodPost, s.tableURL(table, nil), payload, out)
}

func (s *Store) selectRows(ctx context.Context, op, table string, filter url.Values, out any) error {
	filter.Set("select", "*")
	return s.do(ctx, op, http.MethodGet, s.tableURL(table, filter), nil, out)
}

func (s *Store) update(ctx context.Context, op, table string, filter url.Values, payload, out any) error {
	return s.do(ctx, op, http.MethodPatch, s.tableURL(table, filter), payload, out)
}

func (s *Store) tableURL(table string, query url.Values) string {
	u := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (s *Store) do(ctx context.Context, op, method, target string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &repositories.ProtocolError{Op: op, Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &repositories.TransportError{Op: op, Err: err}
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &repositories.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &repositories.TransportError{Op: op, Err: err}
	}

	if resp.StatusCode == http.StatusConflict {
		return repositories.ErrConflict
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &repositories.TransportError{
			Op:  op,
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(data, 256)),
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return &repositories.ProtocolError{Op: op, Err: err}
		}
	}
	return nil
}

func truncate(data []byte, limit int) string {
	if len(data) > limit {
		data = data[:limit]
	}
	return string(data)
}
