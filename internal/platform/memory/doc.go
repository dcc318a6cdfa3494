// Package memory provides map-backed implementations of the store
// interfaces. They are used for the "memory" database driver and in tests.
// Records are copied on the way in and out, so callers never share state with
// the store.
package memory
