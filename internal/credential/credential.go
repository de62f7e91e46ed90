// Package credential keeps the user's World News API key in local storage.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Key is the local storage key for the API key.
const Key = "apiKey"

// ErrEmpty rejects blank keys.
var ErrEmpty = errors.New("api key cannot be empty")

// KV is the local key-value storage.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store loads and saves the API key.
type Store struct {
	kv KV
}

// New returns a Store over kv.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

// Load returns the stored key, or "" when none is stored.
func (s *Store) Load(ctx context.Context) (string, error) {
	v, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return "", fmt.Errorf("load api key: %w", err)
	}
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(v), nil
}

// Save validates and stores key. It returns the trimmed key.
func (s *Store) Save(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrEmpty
	}
	if err := s.kv.Set(ctx, Key, key); err != nil {
		return "", fmt.Errorf("save api key: %w", err)
	}
	return key, nil
}

// Clear removes the stored key.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, Key); err != nil {
		return fmt.Errorf("clear api key: %w", err)
	}
	return nil
}

// Mask hides all but the first and last four characters of key.
func Mask(key string) string {
	r := []rune(key)
	if len(r) <= 8 {
		return strings.Repeat("•", len(r))
	}
	return string(r[:4]) + strings.Repeat("•", len(r)-8) + string(r[len(r)-4:])
}
