// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic: services depend on TaskStore, UserStore and
// RevocationStore, while SQL, Redis and in-memory packages implement them.
package store
