package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the roadmap service.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// Hosted database credentials. Either may be absent; absence is not an
	// error, it just selects a lower-priority storage mode.
	SupabaseURL string
	SupabaseKey string

	// Path to the proxy endpoint descriptor (.mcp.json).
	MCPConfigPath string

	// Optional raw Postgres DSN for deployments with a direct connection.
	DatabaseURL string

	RedisURL  string
	JWTSecret string

	FrontendURL string
}

// LoadConfig loads configuration from environment variables, honoring a local
// .env file when present.
func LoadConfig() (*Config, error) {
	// .env is optional; ignore the error when the file does not exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8000"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      parseLogLevel(getEnv("LOG_LEVEL", "info")),
		SupabaseURL:   os.Getenv("SUPABASE_URL"),
		SupabaseKey:   os.Getenv("SUPABASE_KEY"),
		MCPConfigPath: getEnv("MCP_CONFIG_PATH", ".mcp.json"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ===== PROXY ENDPOINT DESCRIPTOR =====

// ProxyRole is the role label that marks an MCP server entry as the database
// proxy this service should route through.
const ProxyRole = "database-proxy"

type mcpServerEntry struct {
	URL  string `json:"url"`
	Role string `json:"role"`
}

type mcpDescriptor struct {
	MCPServers map[string]mcpServerEntry `json:"mcpServers"`
}

// LoadProxyEndpoint reads the MCP endpoint descriptor and returns the URL of
// the database proxy, if one is declared. A missing file is not an error — it
// simply means no proxy is configured.
func LoadProxyEndpoint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read proxy descriptor %s: %w", path, err)
	}

	var desc mcpDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return "", fmt.Errorf("failed to parse proxy descriptor %s: %w", path, err)
	}

	// Prefer an entry explicitly tagged with the database-proxy role.
	for _, entry := range desc.MCPServers {
		if entry.Role == ProxyRole && entry.URL != "" {
			return entry.URL, nil
		}
	}

	// Fall back to the conventional "supabase" entry name.
	if entry, ok := desc.MCPServers["supabase"]; ok {
		return entry.URL, nil
	}

	return "", nil
}
