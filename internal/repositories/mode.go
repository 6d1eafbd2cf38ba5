package repositories

import (
	"github.com/gblms/roadmap-service/internal/config"
)

// Mode identifies which storage backend a client instance talks to. The mode
// is resolved once at construction and never changes for the lifetime of the
// instance.
type Mode string

const (
	// ModeProxy routes every operation through a JSON-RPC database proxy.
	ModeProxy Mode = "proxy"
	// ModeDirect talks to the hosted database's row API over HTTPS.
	ModeDirect Mode = "direct"
	// ModePostgres uses a direct Postgres connection (raw DSN).
	ModePostgres Mode = "postgres"
	// ModeMock keeps everything in process memory.
	ModeMock Mode = "mock"
)

// Resolution is the outcome of mode selection, including the transport target
// and a human-readable reason for operators.
type Resolution struct {
	Mode     Mode
	ProxyURL string
	Reason   string
}

// Resolve picks the storage mode from the configuration, in priority order:
// proxy (descriptor + API key), direct (base URL + API key), postgres (raw
// DSN), mock (anything else). A descriptor without credentials degrades to a
// lower mode rather than erroring — local development should always boot.
func Resolve(cfg *config.Config) Resolution {
	proxyURL, err := config.LoadProxyEndpoint(cfg.MCPConfigPath)
	if err != nil {
		return resolveWithoutProxy(cfg, "proxy descriptor unreadable: "+err.Error())
	}

	if proxyURL != "" {
		if cfg.SupabaseKey != "" {
			return Resolution{
				Mode:     ModeProxy,
				ProxyURL: proxyURL,
				Reason:   "proxy descriptor and API key present",
			}
		}
		return resolveWithoutProxy(cfg, "proxy descriptor present but SUPABASE_KEY missing")
	}

	return resolveWithoutProxy(cfg, "no proxy descriptor")
}

func resolveWithoutProxy(cfg *config.Config, why string) Resolution {
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		return Resolution{Mode: ModeDirect, Reason: why + "; base URL and API key present"}
	}
	if cfg.DatabaseURL != "" {
		return Resolution{Mode: ModePostgres, Reason: why + "; DATABASE_URL present"}
	}
	return Resolution{Mode: ModeMock, Reason: why + "; no database credentials configured"}
}
