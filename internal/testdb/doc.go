// Package testdb locates the external services that integration tests run
// against.
//
// Tests that need PostgreSQL call PostgresURL and tests that need Redis call
// RedisAddr. Both skip the calling test when the service is not configured,
// so the default `go test ./...` run needs nothing but the Go toolchain.
//
// # Environment Variables
//
// - TASKMAN_TEST_DATABASE_URL: PostgreSQL connection string (DATABASE_URL is the fallback)
// - TASKMAN_TEST_REDIS_ADDR: Redis address, default localhost:6379
//
// In CI (see IsCI) a skipped integration test is logged with the masked
// connection details so a misconfigured pipeline is easy to spot.
package testdb
