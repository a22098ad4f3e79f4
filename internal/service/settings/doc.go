// Package settings manages per-owner runtime configuration stored in the
// database, layered over process configuration. Keys mirror the
// environment variables they override, so a value set through the API
// behaves the same as one set in the environment.
package settings
