// Package tokenstore keeps each browser session's backend token, sealed,
// under the key "authToken:<sessionID>".
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/supplier-portal-bfa/internal/infra/cache"
	"github.com/boddenberg/supplier-portal-bfa/internal/infra/secrets"
)

// KeyPrefix is the fixed storage key prefix for persisted tokens.
const KeyPrefix = "authToken:"

// Key returns the storage key for a session's token.
func Key(sessionID string) string {
	return KeyPrefix + sessionID
}

// Memory is a process-local token store. Tokens are lost on restart.
type Memory struct {
	items  *cache.InMemory[string]
	sealer *secrets.Sealer
}

// NewMemory creates a memory store whose entries expire after ttl.
func NewMemory(sealer *secrets.Sealer, ttl time.Duration) *Memory {
	return &Memory{items: cache.New[string](ttl), sealer: sealer}
}

// Get returns the session's token, or "" when none (or an unreadable one) is stored.
func (m *Memory) Get(_ context.Context, sessionID string) (string, error) {
	key := Key(sessionID)
	sealed, ok := m.items.Get(key)
	if !ok {
		return "", nil
	}
	token, err := m.sealer.Open(sealed, key)
	if err != nil {
		m.items.Delete(key)
		return "", nil
	}
	return token, nil
}

// Set stores the session's token.
func (m *Memory) Set(_ context.Context, sessionID, token string) error {
	if token == "" {
		return errors.New("tokenstore: empty token")
	}
	key := Key(sessionID)
	sealed, err := m.sealer.Seal(token, key)
	if err != nil {
		return fmt.Errorf("tokenstore: sealing: %w", err)
	}
	m.items.Set(key, sealed)
	return nil
}

// Delete removes the session's token.
func (m *Memory) Delete(_ context.Context, sessionID string) error {
	m.items.Delete(Key(sessionID))
	return nil
}

// Close stops the background cleanup.
func (m *Memory) Close() error {
	m.items.Close()
	return nil
}
