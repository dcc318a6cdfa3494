package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth" validate:"required"`
	Revocation RevocationConfig `mapstructure:"revocation" validate:"required"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Tasks      TasksConfig      `mapstructure:"tasks" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error fatal"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
// Driver "pgx" talks to PostgreSQL, "sqlite" to a local SQLite file and
// "memory" keeps everything in process.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"required,oneof=pgx sqlite memory"`
	URL             string        `mapstructure:"url" validate:"required_unless=Driver memory"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	ClockSkewSeconds     int    `mapstructure:"clock_skew_seconds" validate:"gte=0"`
	HeaderName           string `mapstructure:"header_name" validate:"required"`
	BcryptCost           int    `mapstructure:"bcrypt_cost" validate:"required,min=4,max=31"`
}

// TokenLifetime returns the access token lifetime as a duration.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// ClockSkew returns the tolerated clock drift as a duration.
func (c AuthConfig) ClockSkew() time.Duration {
	return time.Duration(c.ClockSkewSeconds) * time.Second
}

// RevocationConfig controls where revoked tokens live and how often expired
// entries are purged. PurgeSchedule is a standard five-field cron expression.
type RevocationConfig struct {
	Backend       string `mapstructure:"backend" validate:"required,oneof=sql redis memory"`
	PurgeSchedule string `mapstructure:"purge_schedule" validate:"required"`
}

// RedisConfig configures the Redis client used by the redis revocation backend.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db" validate:"gte=0"`
	KeyPrefix string `mapstructure:"key_prefix"`

	BreakerFailureThreshold uint32        `mapstructure:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `mapstructure:"breaker_timeout" validate:"gte=0"`
}

// TasksConfig holds listing and bulk-operation limits.
type TasksConfig struct {
	DefaultLimit    int `mapstructure:"default_limit" validate:"required,gt=0"`
	MaxLimit        int `mapstructure:"max_limit" validate:"required,gtefield=DefaultLimit"`
	BulkMaxIDs      int `mapstructure:"bulk_max_ids" validate:"required,gt=0"`
	BulkConcurrency int `mapstructure:"bulk_concurrency" validate:"gte=0"`
}
