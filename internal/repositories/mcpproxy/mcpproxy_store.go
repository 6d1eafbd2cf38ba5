package mcpproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gblms/roadmap-service/internal/models"
	"github.com/gblms/roadmap-service/internal/repositories"
)

const defaultTimeout = 10 * time.Second

// Tool names exposed by the database proxy, one per logical operation kind.
const (
	toolInsert = "supabase_insert"
	toolSelect = "supabase_select"
	toolUpdate = "supabase_update"
)

// Store routes every persistence operation through a single JSON-RPC endpoint
// acting as an intermediary to the hosted database. Each operation is one
// tools/call envelope POSTed with vendor auth headers. Idempotent reads get
// one immediate retry; writes never do, to avoid duplicate side effects on a
// flaky network.
type Store struct {
	endpoint string
	apiKey   string
	client   *http.Client
	nextID   atomic.Int64
}

var _ repositories.Store = (*Store)(nil)

func NewStore(endpoint, apiKey string) *Store {
	return &Store{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: defaultTimeout},
	}
}

// ===== JSON-RPC ENVELOPE =====

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      json.RawMessage `json:"id"`
}

// toolResult is the payload shape inside a successful tools/call result.
type toolResult struct {
	Data json.RawMessage `json:"data"`
}

// call sends one tool invocation. retry enables a single immediate re-attempt
// on transport failure, for idempotent reads only.
func (s *Store) call(ctx context.Context, op, tool string, args map[string]any, retry bool) (json.RawMessage, error) {
	data, err := s.callOnce(ctx, op, tool, args)
	if err != nil && retry {
		var te *repositories.TransportError
		if errors.As(err, &te) {
			data, err = s.callOnce(ctx, op, tool, args)
		}
	}
	return data, err
}

func (s *Store) callOnce(ctx context.Context, op, tool string, args map[string]any) (json.RawMessage, error) {
	envelope := rpcRequest{
		JSONRPC: "2.0",
		Method:  "tools/call",
		Params:  rpcParams{Name: tool, Arguments: args},
		ID:      s.nextID.Add(1),
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, &repositories.ProtocolError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &repositories.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &repositories.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &repositories.TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &repositories.TransportError{
			Op:  op,
			Err: fmt.Errorf("proxy returned status %d", resp.StatusCode),
		}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return nil, &repositories.ProtocolError{Op: op, Err: err}
	}
	if rpcResp.Error != nil {
		if strings.Contains(strings.ToLower(rpcResp.Error.Message), "duplicate") {
			return nil, repositories.ErrConflict
		}
		return nil, &repositories.ProtocolError{
			Op:  op,
			Err: fmt.Errorf("proxy error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message),
		}
	}

	var result toolResult
	if len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
			return nil, &repositories.ProtocolError{Op: op, Err: err}
		}
	}
	return result.Data, nil
}

// ===== STORE OPERATIONS =====

func (s *Store) CreateUser(ctx context.Context, username string) (*models.User, error) {
	existing, err := s.GetUser(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	user := &models.User{Username: username, CreatedAt: time.Now().UTC()}
	data, err := s.call(ctx, "CreateUser", toolInsert, map[string]any{
		"table": "users",
		"data":  user,
	}, false)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return s.GetUser(ctx, username)
		}
		return nil, err
	}

	rows, err := decodeRows[models.User]("CreateUser", data)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, username string) (*models.User, error) {
	data, err := s.call(ctx, "GetUser", toolSelect, map[string]any{
		"table":   "users",
		"filters": map[string]any{"username": username},
		"limit":   1,
	}, true)
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows[models.User]("GetUser", data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &rows[0], nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, username string) (*models.User, error) {
	user, err := s.touchLastLogin(ctx, username)
	if err != nil || user != nil {
		return user, err
	}

	// nothing to update: the user does not exist yet
	created, err := s.CreateUser(ctx, username)
	if err != nil {
		return nil, err
	}
	user, err = s.touchLastLogin(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return created, nil
	}
	return user, nil
}

// touchLastLogin stamps last_login and returns nil, nil when no row matched.
func (s *Store) touchLastLogin(ctx context.Context, username string) (*models.User, error) {
	now := time.Now().UTC()
	data, err := s.call(ctx, "UpdateLastLogin", toolUpdate, map[string]any{
		"table":   "users",
		"filters": map[string]any{"username": username},
		"data":    map[string]any{"last_login": now.Format(time.RFC3339Nano)},
	}, false)
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows[models.User]("UpdateLastLogin", data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *Store) SaveRoadmap(ctx context.Context, roadmap *models.Roadmap) (*models.Roadmap, error) {
	now := time.Now().UTC()
	stored := roadmap.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	data, err := s.call(ctx, "SaveRoadmap", toolInsert, map[string]any{
		"table": "roadmaps",
		"data":  stored,
	}, false)
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows[models.Roadmap]("SaveRoadmap", data)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}
	return stored, nil
}

func (s *Store) GetRoadmap(ctx context.Context, id string) (*models.Roadmap, error) {
	data, err := s.call(ctx, "GetRoadmap", toolSelect, map[string]any{
		"table":   "roadmaps",
		"filters": map[string]any{"id": id},
		"limit":   1,
	}, true)
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows[models.Roadmap]("GetRoadmap", data)
	if err != nil {
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

	data, err := s.call(ctx, "UpdateRoadmap", toolUpdate, map[string]any{
		"table":   "roadmaps",
		"filters": map[string]any{"id": id},
		"data":    payload,
	}, false)
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows[models.Roadmap]("UpdateRoadmap", data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &rows[0], nil
}

func (s *Store) GetUserRoadmaps(ctx context.Context, userID string) ([]*models.Roadmap, error) {
	data, err := s.call(ctx, "GetUserRoadmaps", toolSelect, map[string]any{
		"table":   "roadmaps",
		"filters": map[string]any{"user_id": userID},
		"order":   map[string]any{"column": "created_at", "ascending": true},
	}, true)
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows[models.Roadmap]("GetUserRoadmaps", data)
	if err != nil {
		return nil, err
	}

	result := make([]*models.Roadmap, 0, len(rows))
	for i := range rows {
		result = append(result, &rows[i])
	}
	return result, nil
}

func decodeRows[T any](op string, data json.RawMessage) ([]T, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, &repositories.ProtocolError{Op: op, Err: err}
	}
	return rows, nil
}
