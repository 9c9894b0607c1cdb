// Package cache holds fetched entity configurations for reuse across
// resolution calls.
package cache

import (
	"errors"
	"sync"
	"time"

	"github.com/pilacorp/go-federation-sdk/federation/entity"
)

// ErrNotCached is returned when no live configuration is stored for an
// entity.
var ErrNotCached = errors.New("entity configuration not cached")

// ConfigurationStore keeps entity configurations in a thread-safe
// manner. Expired configurations are treated as absent.
type ConfigurationStore struct {
	configs map[entity.EntityID]*entity.EntityConfiguration
	mu      sync.RWMutex
}

// NewConfigurationStore initializes an empty ConfigurationStore.
func NewConfigurationStore() *ConfigurationStore {
	return &ConfigurationStore{
		configs: make(map[entity.EntityID]*entity.EntityConfiguration),
	}
}

// Put stores an entity's configuration, replacing any previous one.
func (s *ConfigurationStore) Put(config *entity.EntityConfiguration) error {
	if config == nil {
		return errors.New("entity configuration is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[config.Subject] = config
	return nil
}

// Get retrieves the configuration for an entity. Configurations whose
// expiry lies before the given instant are not returned.
func (s *ConfigurationStore) Get(id entity.EntityID, now time.Time) (*entity.EntityConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	config, exists := s.configs[id]
	if !exists || config.ExpiredAt(now) {
		return nil, ErrNotCached
	}
	return config, nil
}

// Delete removes an entity's configuration.
func (s *ConfigurationStore) Delete(id entity.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.configs[id]; !exists {
		return ErrNotCached
	}
	delete(s.configs, id)
	return nil
}
