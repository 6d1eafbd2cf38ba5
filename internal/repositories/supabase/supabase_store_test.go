package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gblms/roadmap-service/internal/models"
	"github.com/gblms/roadmap-service/internal/repositories"
)

const testKey = "service-key"

func assertAuthHeaders(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, testKey, r.Header.Get("apikey"))
	assert.Equal(t, "Bearer "+testKey, r.Header.Get("Authorization"))
}

func TestGetUser_RequestShapeAndDecode(t *testing.T) {
	lastLogin := time.Now().UTC().Truncate(time.Second)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertAuthHeaders(t, r)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/users", r.URL.Path)
		assert.Equal(t, "eq.alice", r.URL.Query().Get("username"))
		assert.Equal(t, "*", r.URL.Query().Get("select"))

		json.NewEncoder(w).Encode([]models.User{{
			Username:  "alice",
			CreatedAt: lastLogin.Add(-time.Hour),
			LastLogin: &lastLogin,
		}})
	}))
	defer server.Close()

	store := NewStore(server.URL, testKey)
	user, err := store.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	require.NotNil(t, user.LastLogin)
	assert.True(t, user.LastLogin.Equal(lastLogin))
}

func TestGetUser_EmptyResultIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	store := NewStore(server.URL, testKey)
	_, err := store.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestCreateUser_InsertsWhenAbsent(t *testing.T) {
	var sawInsert bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assertAuthHeaders(t, r)
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`[]`))
		case http.MethodPost:
			sawInsert = true
			assert.Equal(t, "/rest/v1/users", r.URL.Path)
			assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

			var payload models.User
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "alice", payload.Username)
			assert.Nil(t, payload.LastLogin)

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode([]models.User{payload})
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	store := NewStore(server.URL, testKey)
	user, err := store.CreateUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, sawInsert)
	assert.Equal(t, "alice", user.Username)
	assert.Nil(t, user.LastLogin)
}

func TestCreateUser_ExistingRecordReturnedUnchanged(t *testing.T) {
	created := time.Now().UTC().Add(-24 * time.Hour).Truncate(time.Second)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method, "an existing user must not trigger an insert")
		json.NewEncoder(w).Encode([]models.User{{Username: "alice", CreatedAt: created}})
	}))
	defer server.Close()

	store := NewStore(server.URL, testKey)
	user, err := store.CreateUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, user.CreatedAt.Equal(created))
}

func TestSaveRoadmap_InsertConflictSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"duplicate key value violates unique constraint"}`))
	}))
	defer server.Close()

	store := NewStore(server.URL, testKey)
	_, err := store.SaveRoadmap(context.Background(), &models.Roadmap{ID: "rm-1", UserID: "alice"})
	assert.ErrorIs(t, err, repositories.ErrConflict)
}

func TestUpdateRoadmap_PatchShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/rest/v1/roadmaps", r.URL.Path)
		assert.Equal(t, "eq.rm-1", r.URL.Query().Get("id"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, 42.0, payload["progress_percentage"])
		assert.Contains(t, payload, "updated_at")

		json.NewEncoder(w).Encode([]models.Roadmap{{ID: "rm-1", ProgressPercentage: 42.0}})
	}))
	defer server.Close()

	store := NewStore(server.URL, testKey)
	updated, err := store.UpdateRoadmap(context.Background(), "rm-1", repositories.Fields{"progress_percentage": 42.0})
	require.NoError(t, err)
	assert.Equal(t, 42.0, updated.ProgressPercentage)
}

func TestUpdateRoadmap_NoRowsIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	store := NewStore(server.URL, testKey)
	_, err := store.UpdateRoadmap(context.Background(), "missing", repositories.Fields{"title": "x"})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGetUserRoadmaps_FiltersAndOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.alice", r.URL.Query().Get("user_id"))
		assert.Equal(t, "created_at.asc", r.URL.Query().Get("order"))
		json.NewEncoder(w).Encode([]models.Roadmap{{ID: "rm-1"}, {ID: "rm-2"}})
	}))
	defer server.Close()

	store := NewStore(server.URL, testKey)
	roadmaps, err := store.GetUserRoadmaps(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, roadmaps, 2)
	assert.Equal(t, "rm-1", roadmaps[0].ID)
}

func TestTransportFailuresAreClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from now on

	store := NewStore(server.URL, testKey)
	_, err := store.GetUser(context.Background(), "alice")

	var te *repositories.TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, repositories.IsRemoteFailure(err))
}

func TestMalformedBodyIsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	store := NewStore(server.URL, testKey)
	_, err := store.GetUser(context.Background(), "alice")

	var pe *repositories.ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.True(t, repositories.IsRemoteFailure(err))
}

func TestNon2xxIsRemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	store := NewStore(server.URL, testKey)
	_, err := store.GetRoadmap(context.Background(), "rm-1")
	assert.True(t, repositories.IsRemoteFailure(err))
}
