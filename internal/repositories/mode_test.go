package repositories

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gblms/roadmap-service/internal/config"
)

func writeDescriptor(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".mcp.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

const descriptorJSON = `{"mcpServers":{"supabase":{"url":"https://proxy.example.com/mcp","role":"database-proxy"}}}`

func TestResolve_ProxyMode(t *testing.T) {
	cfg := &config.Config{
		MCPConfigPath: writeDescriptor(t, descriptorJSON),
		SupabaseURL:   "https://db.example.com",
		SupabaseKey:   "key-123",
	}

	res := Resolve(cfg)
	assert.Equal(t, ModeProxy, res.Mode)
	assert.Equal(t, "https://proxy.example.com/mcp", res.ProxyURL)
}

func TestResolve_ProxyWinsOverDirect(t *testing.T) {
	// base URL present too: the descriptor still takes priority
	cfg := &config.Config{
		MCPConfigPath: writeDescriptor(t, descriptorJSON),
		SupabaseURL:   "https://db.example.com",
		SupabaseKey:   "key-123",
	}

	res := Resolve(cfg)
	assert.Equal(t, ModeProxy, res.Mode)
}

func TestResolve_DirectMode(t *testing.T) {
	cfg := &config.Config{
		MCPConfigPath: filepath.Join(t.TempDir(), "absent.json"),
		SupabaseURL:   "https://db.example.com",
		SupabaseKey:   "key-123",
	}

	res := Resolve(cfg)
	assert.Equal(t, ModeDirect, res.Mode)
}

func TestResolve_DescriptorWithoutKeyDegrades(t *testing.T) {
	cfg := &config.Config{
		MCPConfigPath: writeDescriptor(t, descriptorJSON),
	}

	res := Resolve(cfg)
	assert.Equal(t, ModeMock, res.Mode)
	assert.Contains(t, res.Reason, "SUPABASE_KEY missing")
}

func TestResolve_PostgresMode(t *testing.T) {
	cfg := &config.Config{
		MCPConfigPath: filepath.Join(t.TempDir(), "absent.json"),
		DatabaseURL:   "postgres://localhost:5432/roadmaps",
	}

	res := Resolve(cfg)
	assert.Equal(t, ModePostgres, res.Mode)
}

func TestResolve_MockMode(t *testing.T) {
	cfg := &config.Config{
		MCPConfigPath: filepath.Join(t.TempDir(), "absent.json"),
	}

	res := Resolve(cfg)
	assert.Equal(t, ModeMock, res.Mode)
}

func TestResolve_UnreadableDescriptorDegrades(t *testing.T) {
	cfg := &config.Config{
		MCPConfigPath: writeDescriptor(t, "{not json"),
		SupabaseURL:   "https://db.example.com",
		SupabaseKey:   "key-123",
	}

	res := Resolve(cfg)
	assert.Equal(t, ModeDirect, res.Mode)
	assert.Contains(t, res.Reason, "descriptor unreadable")
}
