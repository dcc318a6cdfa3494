// Package service contains the application use cases. It orchestrates the
// domain types, the query engine, the bulk aggregator and the stores defined
// in internal/store to serve task management and account operations.
//
// Services receive their dependencies through constructor injection and never
// depend on a concrete storage backend. Expected conditions are reported with
// sentinel errors from the store, auth and domain packages so the API layer
// can map them with errors.Is; unexpected failures are wrapped in the
// service's error type with the operation that failed.
package service
