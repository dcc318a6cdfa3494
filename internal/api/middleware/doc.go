// Package middleware provides the HTTP middleware of the API: request
// tracing, panic recovery and token authentication.
package middleware
