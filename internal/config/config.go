package config

import (
	"fmt"
	"net/url"
)

// Settings holds the resolved application configuration. It is built once at
// startup from flags and environment variables and passed explicitly to the
// components that need it. Nothing mutates it after construction.
type Settings struct {
	Env   string // dev | staging | prod
	Debug bool

	ProjectName string
	Version     string

	// Database
	DBBackend   string // postgres | memory
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string
	DatabaseURL string // one-shot override, preferred when set

	// Pool sizing
	PoolMaxConns       int32
	PoolMinConns       int32
	PoolAcquireTimeout int32 // seconds

	// Secrets
	SecretKey  string
	CSRFSecret string

	// Cookies and headers
	SessionCookieName string
	CSRFCookieName    string
	CSRFHeaderName    string

	// Host and origin allow-lists (prod)
	AllowedHosts   []string
	AllowedOrigins []string

	// API path prefixes, exempt from CSRF (bearer tokens instead of cookies)
	APIV1Prefix string
	APIV2Prefix string

	// Filesystem
	StaticDir string
	MediaDir  string
}

// IsProd reports whether the production profile is active.
func (s *Settings) IsProd() bool {
	return s.Env == "prod"
}

// EffectiveDatabaseURL returns the connection string for the configured
// backend. A DatabaseURL override always wins.
func (s *Settings) EffectiveDatabaseURL() (string, error) {
	if s.DatabaseURL != "" {
		return s.DatabaseURL, nil
	}

	switch s.DBBackend {
	case "postgres", "postgresql":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(s.DBUser, s.DBPassword),
			Host:   fmt.Sprintf("%s:%d", s.DBHost, s.DBPort),
			Path:   "/" + s.DBName,
		}
		return u.String(), nil
	case "memory":
		return "", nil
	}
	return "", fmt.Errorf("unsupported database backend: %s", s.DBBackend)
}

// Validate checks the settings that have no safe default.
func (s *Settings) Validate() error {
	switch s.Env {
	case "dev", "staging", "prod":
	default:
		return fmt.Errorf("unknown environment: %s", s.Env)
	}

	if len(s.SecretKey) < 32 {
		return fmt.Errorf("secret key must be at least 32 bytes")
	}
	if len(s.CSRFSecret) < 32 {
		return fmt.Errorf("CSRF secret must be at least 32 bytes")
	}

	if s.IsProd() {
		if len(s.AllowedHosts) == 0 {
			return fmt.Errorf("allowed hosts are required in prod")
		}
		if len(s.AllowedOrigins) == 0 {
			return fmt.Errorf("allowed origins are required in prod")
		}
	}

	if _, err := s.EffectiveDatabaseURL(); err != nil {
		return err
	}
	return nil
}
