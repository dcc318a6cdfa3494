package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. TASKMAN_SERVER_PORT.
const EnvPrefix = "TASKMAN"

// LoadOptions controls where Load looks for configuration besides the environment.
type LoadOptions struct {
	// EnvFile is a dotenv file loaded into the process environment first.
	// A missing file is not an error.
	EnvFile string

	// ConfigFile is an optional YAML/JSON/TOML file. When empty, config.yaml
	// in the working directory is used if it exists.
	ConfigFile string
}

// Load reads configuration from defaults, an optional config file, a .env
// file and environment variables, in increasing order of precedence.
// It returns a validated Config.
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{EnvFile: ".env"})
}

// LoadWithOptions is Load with explicit file locations.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(opts.ConfigFile == "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the rules that span several groups.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch cfg.Revocation.Backend {
	case "sql":
		if cfg.Database.Driver == "memory" {
			return fmt.Errorf("invalid configuration: revocation backend %q requires a SQL database driver", "sql")
		}
	case "redis":
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("invalid configuration: redis.addr is required for the redis revocation backend")
		}
	}

	return nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "pgx")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 15)
	v.SetDefault("auth.clock_skew_seconds", 0)
	v.SetDefault("auth.header_name", "X-User-Token")
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("revocation.backend", "sql")
	v.SetDefault("revocation.purge_schedule", "0 0 * * *")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "taskman:revoked:")
	v.SetDefault("redis.breaker_failure_threshold", 5)
	v.SetDefault("redis.breaker_timeout", "30s")

	v.SetDefault("tasks.default_limit", 10)
	v.SetDefault("tasks.max_limit", 100)
	v.SetDefault("tasks.bulk_max_ids", 500)
	v.SetDefault("tasks.bulk_concurrency", 0)
}
