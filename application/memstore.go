package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemStore is an in-memory Store used in tests and single-process
// setups without NATS.
type MemStore struct {
	mu   sync.RWMutex
	apps map[string][]byte
}

// NewMemStore creates an empty in-memory application store.
func NewMemStore() *MemStore {
	return &MemStore{apps: make(map[string][]byte)}
}

// Put saves a copy of the application.
func (s *MemStore) Put(_ context.Context, app *Application) error {
	data, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[app.ID] = data
	return nil
}

// Get retrieves an application by ID.
func (s *MemStore) Get(_ context.Context, id string) (*Application, error) {
	s.mu.RLock()
	data, ok := s.apps[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	var app Application
	if err := json.Unmarshal(data, &app); err != nil {
		return nil, fmt.Errorf("unmarshal application: %w", err)
	}
	return &app, nil
}

// List retrieves all applications for a user, optionally filtered by
// status.
func (s *MemStore) List(_ context.Context, userID string, status Status) ([]*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var apps []*Application
	for _, data := range s.apps {
		var app Application
		if err := json.Unmarshal(data, &app); err != nil {
			continue
		}
		if userID != "" && app.UserID != userID {
			continue
		}
		if status != "" && app.Status != status {
			continue
		}
		apps = append(apps, &app)
	}
	return apps, nil
}

// Delete removes an application.
func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.apps, id)
	return nil
}

// MemProfileStore is an in-memory ProfileStore for tests.
type MemProfileStore struct {
	mu       sync.RWMutex
	profiles map[string][]byte
}

// NewMemProfileStore creates an empty in-memory profile store.
func NewMemProfileStore() *MemProfileStore {
	return &MemProfileStore{profiles: make(map[string][]byte)}
}

// Put saves a copy of the profile.
func (s *MemProfileStore) Put(_ context.Context, profile *Profile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = data
	return nil
}

// Get retrieves a profile by user ID.
func (s *MemProfileStore) Get(_ context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	data, ok := s.profiles[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &profile, nil
}
