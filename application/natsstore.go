package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// ApplicationsBucket is the KV bucket name for applications.
const ApplicationsBucket = "APPLYFLOW_APPLICATIONS"

// ProfilesBucket is the KV bucket name for applicant profiles.
const ProfilesBucket = "APPLYFLOW_PROFILES"

// NATSStore persists applications in a JetStream KV bucket.
type NATSStore struct {
	bucket jetstream.KeyValue
}

// NewNATSStore creates the applications bucket if needed and returns a
// store backed by it.
func NewNATSStore(ctx context.Context, js jetstream.JetStream) (*NATSStore, error) {
	// CreateOrUpdateKeyValue is idempotent and handles race conditions
	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      ApplicationsBucket,
		Description: "Job applications tracked by applyflow",
	})
	if err != nil {
		return nil, fmt.Errorf("create/update kv bucket: %w", err)
	}
	return &NATSStore{bucket: bucket}, nil
}

// Put saves an application to the KV bucket.
func (s *NATSStore) Put(ctx context.Context, app *Application) error {
	app.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}
	if _, err := s.bucket.Put(ctx, app.ID, data); err != nil {
		return fmt.Errorf("put application: %w", err)
	}
	return nil
}

// Get retrieves an application by ID.
func (s *NATSStore) Get(ctx context.Context, id string) (*Application, error) {
	entry, err := s.bucket.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("application %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get application: %w", err)
	}

	var app Application
	if err := json.Unmarshal(entry.Value(), &app); err != nil {
		return nil, fmt.Errorf("unmarshal application: %w", err)
	}
	return &app, nil
}

// List retrieves all applications for a user, optionally filtered by
// status.
func (s *NATSStore) List(ctx context.Context, userID string, status Status) ([]*Application, error) {
	keys, err := s.bucket.Keys(ctx)
	if err != nil {
		// Empty bucket returns ErrNoKeysFound - this is not an error
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return []*Application{}, nil
		}
		return nil, fmt.Errorf("list keys: %w", err)
	}

	var apps []*Application
	for _, key := range keys {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		entry, err := s.bucket.Get(ctx, key)
		if err != nil {
			continue // Skip errors for individual keys
		}

		var app Application
		if err := json.Unmarshal(entry.Value(), &app); err != nil {
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

// Delete removes an application from the store.
func (s *NATSStore) Delete(ctx context.Context, id string) error {
	return s.bucket.Delete(ctx, id)
}

// NATSProfileStore persists applicant profiles in a JetStream KV
// bucket keyed by user ID.
type NATSProfileStore struct {
	bucket jetstream.KeyValue
}

// NewNATSProfileStore creates the profiles bucket if needed and
// returns a store backed by it.
func NewNATSProfileStore(ctx context.Context, js jetstream.JetStream) (*NATSProfileStore, error) {
	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      ProfilesBucket,
		Description: "Applicant profiles for form filling",
	})
	if err != nil {
		return nil, fmt.Errorf("create/update kv bucket: %w", err)
	}
	return &NATSProfileStore{bucket: bucket}, nil
}

// Put saves a profile.
func (s *NATSProfileStore) Put(ctx context.Context, profile *Profile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if _, err := s.bucket.Put(ctx, profile.UserID, data); err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

// Get retrieves a profile by user ID.
func (s *NATSProfileStore) Get(ctx context.Context, userID string) (*Profile, error) {
	entry, err := s.bucket.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(entry.Value(), &profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &profile, nil
}
