// Package redisstore keeps revoked tokens in Redis. Each revocation is a key
// whose TTL matches the token's expiry, so Redis expires entries on its own;
// a sorted-set index lets PurgeExpired report and clean up what has lapsed.
// Lookups go through a circuit breaker so an unavailable Redis fails fast.
package redisstore
