package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	// Process-local store, lost on exit
	DatabaseMemory = "memory"

	RateLimitMemory   = "memory"
	RateLimitDatabase = "database"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	// Secrets
	AdminKeySalt     string
	CredentialPepper string
	SessionSecret    string

	SessionTTL time.Duration

	RateLimitMax     int
	RateLimitWindow  time.Duration
	RateLimitBackend string

	// Path of the JSON journal for votes that need manual reconciliation
	ReconcileLog string
	// Reset the credentials listed in ReconcileLog and exit
	ReplayReconcile bool
}

// ParseFlags validates flags and falls back to environment variables.
// A .env file in the working directory is loaded first if present; real
// environment variables take precedence over it.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	// Missing .env is fine
	_ = godotenv.Load()

	fs := flag.NewFlagSet("lions-clube-gaia", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite, postgres or memory)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fs.StringVar(&cfg.CredentialPepper, "pepper", "", "Credential hash pepper (prefer env)")
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Session proof signing secret (prefer env)")

	fs.DurationVar(&cfg.SessionTTL, "session-ttl", 0, "Lifetime of a validated voting session")
	fs.IntVar(&cfg.RateLimitMax, "rate-max", 0, "Validation attempts allowed per window")
	fs.DurationVar(&cfg.RateLimitWindow, "rate-window", 0, "Rate limit window")
	fs.StringVar(&cfg.RateLimitBackend, "rate-backend", "", "Rate limit counter backend (memory or database)")
	fs.StringVar(&cfg.ReconcileLog, "reconcile-log", "", "Reconciliation journal path")
	fs.BoolVar(&cfg.ReplayReconcile, "replay-reconcile", false, "Reset credentials listed in the reconciliation journal and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, errors.New("port must be between 1 and 65535")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = DatabaseSQLite
		}
	}
	switch cfg.DatabaseType {
	case DatabaseSQLite, DatabasePostgres, DatabaseMemory:
	default:
		return Config{}, errors.New("DATABASE_TYPE must be sqlite, postgres or memory")
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" && cfg.DatabaseType != DatabaseMemory {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if cfg.CredentialPepper == "" {
		cfg.CredentialPepper = os.Getenv("CREDENTIAL_PEPPER")
	}
	if cfg.CredentialPepper == "" {
		return Config{}, errors.New("CREDENTIAL_PEPPER required")
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	}
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET required")
	}

	var err error
	if cfg.SessionTTL == 0 {
		if cfg.SessionTTL, err = envDuration("SESSION_TTL", 15*time.Minute); err != nil {
			return Config{}, err
		}
	}

	if cfg.RateLimitMax == 0 {
		cfg.RateLimitMax = 10
		if s := os.Getenv("RATE_LIMIT_MAX"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				return Config{}, errors.New("invalid RATE_LIMIT_MAX env variable")
			}
			cfg.RateLimitMax = n
		}
	}
	if cfg.RateLimitWindow == 0 {
		if cfg.RateLimitWindow, err = envDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
			return Config{}, err
		}
	}
	if cfg.RateLimitBackend == "" {
		cfg.RateLimitBackend = os.Getenv("RATE_LIMIT_BACKEND")
		if cfg.RateLimitBackend == "" {
			cfg.RateLimitBackend = RateLimitMemory
		}
	}
	if cfg.RateLimitBackend != RateLimitMemory && cfg.RateLimitBackend != RateLimitDatabase {
		return Config{}, errors.New("RATE_LIMIT_BACKEND must be memory or database")
	}
	if cfg.DatabaseType == DatabaseMemory && cfg.RateLimitBackend == RateLimitDatabase {
		return Config{}, errors.New("RATE_LIMIT_BACKEND=database needs a sqlite or postgres database")
	}

	// Flags bypass the env checks above
	if cfg.SessionTTL <= 0 {
		return Config{}, errors.New("session TTL must be positive")
	}
	if cfg.RateLimitMax < 1 {
		return Config{}, errors.New("rate limit max must be at least 1")
	}
	if cfg.RateLimitWindow <= 0 {
		return Config{}, errors.New("rate limit window must be positive")
	}

	if cfg.ReconcileLog == "" {
		cfg.ReconcileLog = os.Getenv("RECONCILE_LOG")
		if cfg.ReconcileLog == "" {
			cfg.ReconcileLog = "reconcile.log"
		}
	}
	if cfg.ReplayReconcile && cfg.DatabaseType == DatabaseMemory {
		return Config{}, errors.New("-replay-reconcile needs a sqlite or postgres database")
	}

	return cfg, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key + " env variable")
	}
	return d, nil
}
