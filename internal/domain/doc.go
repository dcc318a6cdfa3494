// Package domain contains the core business entities of the task manager:
// tasks, users and revoked credentials, together with their validation rules.
// It has no knowledge of storage or transport.
package domain
