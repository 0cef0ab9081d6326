// Package store provides small string key-value stores used to persist
// counters and flags between runs.
package store

import (
	"context"
	"fmt"
	"strconv"
)

// Store is a string key-value store. Get reports found=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// GetInt reads an integer, returning 0 for a missing key.
func GetInt(ctx context.Context, s Store, key string) (int, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("key %s is not an integer: %w", key, err)
	}
	return n, nil
}

// SetInt stores an integer.
func SetInt(ctx context.Context, s Store, key string, n int) error {
	return s.Set(ctx, key, strconv.Itoa(n))
}

// GetBool reads a boolean, returning false for a missing key.
func GetBool(ctx context.Context, s Store, key string) (bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("key %s is not a boolean: %w", key, err)
	}
	return b, nil
}

// SetBool stores a boolean.
func SetBool(ctx context.Context, s Store, key string, b bool) error {
	return s.Set(ctx, key, strconv.FormatBool(b))
}
