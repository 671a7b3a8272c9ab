package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	JWT      JWTConfig      `env:",prefix=JWT_"`
	Security SecurityConfig `env:",prefix="`
	SMTP     SMTPConfig     `env:",prefix=SMTP_"`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=connectkit"`
	Password string `env:"PASSWORD,default=connectkit_password"`
	DBName   string `env:"DB,default=connectkit_db"`
	SSLMode  string `env:"SSLMODE,default=disable"`
	Migrate  bool   `env:"MIGRATE,default=true"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type JWTConfig struct {
	Secret             string   `env:"SECRET,required"`
	AccessTokenExpiry  Duration `env:"ACCESS_TOKEN_EXPIRY,default=15m"`
	RefreshTokenExpiry Duration `env:"REFRESH_TOKEN_EXPIRY,default=7d"`
}

type SecurityConfig struct {
	BCryptCost           int      `env:"BCRYPT_COST,default=12"`
	MaxFailedLogins      int      `env:"MAX_FAILED_LOGINS,default=5"`
	LockoutDuration      Duration `env:"LOCKOUT_DURATION,default=30m"`
	RequireVerifiedEmail bool     `env:"REQUIRE_VERIFIED_EMAIL,default=true"`
	VerificationTokenTTL Duration `env:"VERIFICATION_TOKEN_TTL,default=24h"`
	ResetTokenTTL        Duration `env:"RESET_TOKEN_TTL,default=1h"`
	RateLimitRequests    int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow      Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
	RateLimitFailMode    string   `env:"RATE_LIMIT_FAIL_MODE,default=open"`
	CleanupInterval      Duration `env:"CLEANUP_INTERVAL,default=5m"`
}

type SMTPConfig struct {
	Host     string `env:"HOST,default="`
	Port     string `env:"PORT,default=587"`
	Username string `env:"USERNAME,default="`
	Password string `env:"PASSWORD,default="`
	From     string `env:"FROM,default=no-reply@connectkit.local"`
	BaseURL  string `env:"BASE_URL,default=http://localhost:3000"`
}

// Enabled reports whether a mail host is configured
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if m := config.Security.RateLimitFailMode; m != "open" && m != "closed" {
		return nil, fmt.Errorf("RATE_LIMIT_FAIL_MODE must be \"open\" or \"closed\", got %q", m)
	}

	return &config, nil
}
