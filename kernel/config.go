package kernel

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultPort            = "5000"
	defaultRateLimitMax    = 100
	defaultRateLimitWindow = 15 * time.Minute
	defaultBodyLimit       = 10 << 20
	defaultShutdownTimeout = 30 * time.Second
	defaultAdminName       = "Super Admin"
)

type Config struct {
	Environment string
	Host        string
	Port        string

	ServiceName    string
	ServiceVersion string

	FrontendURLs   []string
	AllowedOrigins []string
	TrustedProxies []string

	RateLimitMax    int64
	RateLimitWindow time.Duration
	BodyLimit       int64
	UploadsDir      string

	InitAdminEmail    string
	InitAdminName     string
	InitAdminPassword string

	MongoURI        string
	MongoDatabase   string
	DatabaseDSN     string
	PermissionsFile string

	TracesEndpoint  string
	MetricsExporter string
	MetricsEndpoint string
	Insecure        bool

	JWTRealm   string
	JWTSecret  []byte
	JWTTimeout time.Duration

	ShutdownTimeout time.Duration
	LogLevel        string
}

// LoadConfig reads .env and then .env.<environment> over it, and overlays
// the process environment, whose non-empty values always win. The
// environment name comes from the process or else from .env; when neither
// sets it only .env is read.
func LoadConfig() (*Config, error) {
	env := map[string]string{}
	if err := mergeEnvFile(env, ".env"); err != nil {
		return nil, err
	}

	appEnv := firstNonEmpty(os.Getenv("NODE_ENV"), os.Getenv("APP_ENV"), env["NODE_ENV"], env["APP_ENV"])
	if appEnv != "" {
		if err := mergeEnvFile(env, ".env."+appEnv); err != nil {
			return nil, err
		}
	}

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && v != "" {
			env[k] = v
		}
	}

	return ConfigFromEnv(env)
}

func mergeEnvFile(env map[string]string, file string) error {
	values, err := godotenv.Read(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", file, err)
	}
	for k, v := range values {
		env[k] = v
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ConfigFromEnv builds a Config from a flat variable map and validates it.
func ConfigFromEnv(env map[string]string) (*Config, error) {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(env[k]); v != "" {
				return v
			}
		}
		return ""
	}
	or := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}

	c := &Config{
		Environment: get("NODE_ENV", "APP_ENV"),
		Host:        or(get("HOST"), "0.0.0.0"),
		Port:        or(get("PORT"), defaultPort),

		ServiceName:    or(get("SERVICE_NAME"), "wellness-api"),
		ServiceVersion: or(get("SERVICE_VERSION"), "1.0.0"),

		FrontendURLs:   splitList(get("FRONTEND_URL")),
		AllowedOrigins: splitList(get("CORS_ALLOWED_ORIGINS")),
		TrustedProxies: splitList(get("TRUSTED_PROXIES")),

		RateLimitMax:    parsePositiveInt(get("RATE_LIMIT_MAX_REQUESTS"), defaultRateLimitMax),
		RateLimitWindow: parseDuration(get("RATE_LIMIT_WINDOW"), defaultRateLimitWindow),
		BodyLimit:       parsePositiveInt(get("BODY_LIMIT"), defaultBodyLimit),
		UploadsDir:      or(get("UPLOADS_DIR"), "uploads"),

		InitAdminEmail:    get("INIT_ADMIN_EMAIL", "ADMIN_EMAIL"),
		InitAdminName:     or(get("INIT_ADMIN_NAME", "ADMIN_NAME"), defaultAdminName),
		InitAdminPassword: get("INIT_ADMIN_PASSWORD", "ADMIN_PASSWORD"),

		MongoURI:        get("MONGODB_URI"),
		MongoDatabase:   get("MONGODB_DATABASE"),
		DatabaseDSN:     get("DATABASE_DSN"),
		PermissionsFile: get("PERMISSIONS_FILE"),

		TracesEndpoint:  get("OTEL_TRACES_ENDPOINT"),
		MetricsExporter: or(get("METRICS_EXPORTER"), "prometheus"),
		MetricsEndpoint: get("OTEL_METRICS_ENDPOINT"),
		Insecure:        get("OTEL_INSECURE") == "true",

		JWTRealm:   or(get("JWT_REALM"), "wellness admin"),
		JWTSecret:  []byte(get("JWT_SECRET")),
		JWTTimeout: parseDuration(get("JWT_TIMEOUT"), 24*time.Hour),

		ShutdownTimeout: parseDuration(get("SHUTDOWN_TIMEOUT"), defaultShutdownTimeout),
		LogLevel:        or(get("LOG_LEVEL"), "info"),
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	// outside production a throwaway key keeps admin login usable; tokens
	// do not survive a restart
	if len(c.JWTSecret) == 0 {
		c.JWTSecret = []byte(uuid.NewString())
	}

	return c, nil
}

func (c *Config) Validate() error {
	if c.MongoURI == "" && c.DatabaseDSN == "" {
		return errors.New("no database configured: set MONGODB_URI or DATABASE_DSN")
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	switch c.MetricsExporter {
	case "prometheus", "otlp-http", "otlp-grpc", "none":
	default:
		return fmt.Errorf("unknown METRICS_EXPORTER %q", c.MetricsExporter)
	}
	if c.IsProduction() && len(c.JWTSecret) == 0 {
		return errors.New("JWT_SECRET is required in production")
	}
	return nil
}

// IsDevelopment is true only for an explicit "development"; an unset
// environment gets production-like behaviour.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// CorsOrigins is the full allow-list: FRONTEND_URL entries first, then
// CORS_ALLOWED_ORIGINS, without duplicates.
func (c *Config) CorsOrigins() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(c.FrontendURLs)+len(c.AllowedOrigins))
	for _, o := range append(append([]string{}, c.FrontendURLs...), c.AllowedOrigins...) {
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePositiveInt(v string, fallback int64) int64 {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseDuration(v string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
