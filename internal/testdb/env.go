package testdb

import (
	"context"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Environment variables read by this package.
const (
	EnvTestDatabaseURL = "TASKMAN_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvTestRedisAddr   = "TASKMAN_TEST_REDIS_ADDR"

	DefaultRedisAddr = "localhost:6379"
)

const redisPingTimeout = 2 * time.Second

// IsCI reports whether the tests run under a CI provider.
func IsCI() bool {
	for _, name := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// DatabaseURL returns the configured PostgreSQL URL, or "" when none is set.
func DatabaseURL() string {
	if u := os.Getenv(EnvTestDatabaseURL); u != "" {
		return u
	}
	return os.Getenv(EnvDatabaseURL)
}

// PostgresURL returns the PostgreSQL URL for tb, skipping the test when none
// is configured.
func PostgresURL(tb testing.TB) string {
	tb.Helper()

	u := DatabaseURL()
	if u == "" {
		skip(tb, EnvTestDatabaseURL+" not set, skipping PostgreSQL test")
	}
	tb.Logf("using PostgreSQL at %s", MaskURL(u))
	return u
}

// RedisAddr returns a reachable Redis address for tb, skipping the test when
// Redis does not answer a ping.
func RedisAddr(tb testing.TB) string {
	tb.Helper()

	addr := os.Getenv(EnvTestRedisAddr)
	if addr == "" {
		addr = DefaultRedisAddr
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		skip(tb, "Redis not available at "+addr+": "+err.Error())
	}
	return addr
}

// MaskURL hides the password of a connection URL. Values that do not parse
// as URLs with credentials are returned unchanged.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}

func skip(tb testing.TB, msg string) {
	tb.Helper()
	if IsCI() {
		tb.Log("integration dependency missing in CI")
	}
	tb.Skip(msg)
}
