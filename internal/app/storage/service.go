/*
Package storage provides the durable key/value store that backs the client session.

It plays the role browser local storage plays for a web client: a handful of small
values addressed by string keys that survive process restarts. The default
implementation is an on-disk Pebble database; an in-memory implementation serves
ephemeral runs and tests.
*/
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// ServiceConfig holds the configuration required to open the store.
type ServiceConfig struct {
	// Path is the directory of the on-disk database. Empty selects the in-memory store.
	Path string

	// InMemoryFS opens Pebble on an in-memory filesystem instead of Path.
	InMemoryFS bool
}

// StorageService defines the public interface of the key/value store.
type StorageService interface {
	// Get returns a copy of the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying resources.
	Close() error
}

// NewStorageService is the factory function for StorageService.
// It returns the Pebble implementation unless the configuration asks for a purely in-memory store.
func NewStorageService(cfg ServiceConfig) (StorageService, error) {
	if cfg.Path == "" && !cfg.InMemoryFS {
		return NewMemoryStore(), nil
	}
	return newPebbleStore(cfg)
}
