package application

import (
	"context"
	"errors"
	"testing"
)

func TestMemStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	app := New("user-1", "Backend Engineer", "Acme", "https://acme.example/apply")
	if err := store.Put(ctx, app); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, app.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.JobTitle != "Backend Engineer" {
		t.Errorf("expected job title preserved, got %s", got.JobTitle)
	}

	// Stored copy is isolated from later mutations
	app.JobTitle = "mutated"
	got, err = store.Get(ctx, app.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.JobTitle != "Backend Engineer" {
		t.Error("store should hold a copy, not share the caller's struct")
	}

	if err := store.Delete(ctx, app.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, app.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	a := New("user-1", "Backend Engineer", "Acme", "https://acme.example/a")
	b := New("user-1", "SRE", "Globex", "https://globex.example/b")
	b.Status = StatusApplied
	c := New("user-2", "Data Engineer", "Initech", "https://initech.example/c")

	for _, app := range []*Application{a, b, c} {
		if err := store.Put(ctx, app); err != nil {
			t.Fatal(err)
		}
	}

	all, err := store.List(ctx, "user-1", "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 applications for user-1, got %d", len(all))
	}

	applied, err := store.List(ctx, "user-1", StatusApplied)
	if err != nil {
		t.Fatal(err)
	}
	if len(applied) != 1 || applied[0].JobTitle != "SRE" {
		t.Errorf("expected single applied application, got %v", applied)
	}
}

func TestMemProfileStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemProfileStore()

	if err := store.Put(ctx, &Profile{UserID: "user-1"}); err == nil {
		t.Error("expected validation error for incomplete profile")
	}

	profile := &Profile{
		UserID:   "user-1",
		FullName: "Jordan Lee",
		Email:    "jordan@example.com",
	}
	if err := store.Put(ctx, profile); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.FullName != "Jordan Lee" {
		t.Errorf("expected profile preserved, got %s", got.FullName)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
