package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// OAuthConfig holds the client registration of one OAuth provider.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether the provider has credentials configured.
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != ""
}

type OIDCConfig struct {
	OAuthConfig
	IssuerURL string
	Name      string
}

type Config struct {
	DBDriver    string
	DatabaseURL string
	RedisURL    string
	AMQPURL     string
	ServerPort  string
	Environment string

	JWTSecret          string
	JWTExpiry          time.Duration
	RefreshTokenExpiry time.Duration

	CacheTTL      time.Duration
	ThemeCacheTTL time.Duration

	AuditLogPath string

	// Rate limiting
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
	RateLimitBlockTime   time.Duration

	CORSAllowedOrigins []string
	MetricsEnabled     bool

	// OAuth
	GitHub                   OAuthConfig
	Google                   OAuthConfig
	Discord                  OAuthConfig
	OIDC                     OIDCConfig
	OAuthSuccessRedirectURL  string
	OAuthLinkRequireVerified bool

	// Seeding
	AdminEmail    string
	AdminUsername string
	AdminPassword string
	SeedDemoData  bool
}

// Load reads configuration from the environment, optionally populated from a .env file.
func Load() *Config {
	// Containers pass variables directly, a missing .env is fine
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	return &Config{
		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AMQPURL:     os.Getenv("AMQP_URL"),
		ServerPort:  getEnv("SERVER_PORT", ":3000"),
		Environment: getEnv("ENVIRONMENT", "development"),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTExpiry:          getEnvAsDuration("JWT_EXPIRY", "15m"),
		RefreshTokenExpiry: getEnvAsDuration("REFRESH_TOKEN_EXPIRY", "168h"),

		CacheTTL:      getEnvAsDuration("CACHE_TTL", "5m"),
		ThemeCacheTTL: getEnvAsDuration("THEME_CACHE_TTL", "30m"),

		AuditLogPath: getEnv("AUDIT_LOG_PATH", "data/audit.log"),

		RateLimitMaxRequests: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitWindow:      getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),
		RateLimitBlockTime:   getEnvAsDuration("RATE_LIMIT_BLOCK_TIME", "5m"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		MetricsEnabled:     getEnvAsBool("METRICS_ENABLED", true),

		GitHub:  oauthFromEnv("GITHUB"),
		Google:  oauthFromEnv("GOOGLE"),
		Discord: oauthFromEnv("DISCORD"),
		OIDC: OIDCConfig{
			OAuthConfig: oauthFromEnv("OIDC"),
			IssuerURL:   os.Getenv("OIDC_ISSUER_URL"),
			Name:        getEnv("OIDC_PROVIDER_NAME", "oidc"),
		},
		OAuthSuccessRedirectURL:  os.Getenv("OAUTH_SUCCESS_REDIRECT_URL"),
		OAuthLinkRequireVerified: getEnvAsBool("OAUTH_LINK_REQUIRE_VERIFIED_EMAIL", true),

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@admin.com"),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SeedDemoData:  getEnvAsBool("SEED_DEMO_DATA", false),
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return errors.New("DB_DRIVER must be postgres or sqlite")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.JWTExpiry <= 0 || c.RefreshTokenExpiry <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func oauthFromEnv(prefix string) OAuthConfig {
	return OAuthConfig{
		ClientID:     os.Getenv(prefix + "_CLIENT_ID"),
		ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
		RedirectURL:  os.Getenv(prefix + "_REDIRECT_URL"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvAsInt retrieves environment variable as int with default value
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %d", key, defaultVal)
		return defaultVal
	}
	return val
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %t", key, defaultVal)
		return defaultVal
	}
	return val
}

// getEnvAsDuration retrieves environment variable as duration with default value
func getEnvAsDuration(key string, defaultVal string) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		valStr = defaultVal
	}
	duration, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %s", key, defaultVal)
		duration, _ = time.ParseDuration(defaultVal)
	}
	return duration
}

func getEnvAsList(key string, defaultVal []string) []string {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
