package identity

import (
	"context"
	"errors"
	"testing"
)

// seedStore creates a refreshed store with two identities:
// Alice (active, face + slot 1) and Bob (disabled, slot 2).
func seedStore(t *testing.T) *Store {
	t.Helper()

	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	alice := &Identity{ID: "idn-alice", Name: "Alice", Active: true}
	bob := &Identity{ID: "idn-bob", Name: "Bob", Active: false}
	for _, ident := range []*Identity{alice, bob} {
		if err := repo.Create(ctx, ident); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
	}

	if err := repo.AddFaceTemplate(ctx, &FaceTemplate{
		ID: NewTemplateID(), IdentityID: alice.ID, Encoding: []float64{0.1, 0.2, 0.3},
	}); err != nil {
		t.Fatalf("AddFaceTemplate() error: %v", err)
	}
	if err := repo.AddFingerprintTemplate(ctx, &FingerprintTemplate{
		ID: NewTemplateID(), IdentityID: alice.ID, SensorSlot: 1, TemplateHash: "a",
	}); err != nil {
		t.Fatalf("AddFingerprintTemplate() error: %v", err)
	}
	if err := repo.AddFingerprintTemplate(ctx, &FingerprintTemplate{
		ID: NewTemplateID(), IdentityID: bob.ID, SensorSlot: 2, TemplateHash: "b",
	}); err != nil {
		t.Fatalf("AddFingerprintTemplate() error: %v", err)
	}

	store := NewStore(repo)
	if err := store.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache() error: %v", err)
	}
	return store
}

func TestStoreGet(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	ident, err := store.Get(ctx, "idn-alice")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if ident.Name != "Alice" {
		t.Errorf("Name = %q, want Alice", ident.Name)
	}

	// Returned copy must not alias the cache
	ident.Name = "Mallory"
	again, err := store.Get(ctx, "idn-alice")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if again.Name != "Alice" {
		t.Error("mutating a returned identity leaked into the cache")
	}

	if _, err := store.Get(ctx, "idn-ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() unknown error = %v, want ErrNotFound", err)
	}
}

func TestStoreFindBySlot(t *testing.T) {
	store := seedStore(t)

	ident, err := store.FindBySlot(1)
	if err != nil {
		t.Fatalf("FindBySlot(1) error: %v", err)
	}
	if ident.ID != "idn-alice" {
		t.Errorf("FindBySlot(1) = %q, want idn-alice", ident.ID)
	}

	// Disabled identities still resolve; the reconciler handles the
	// active check.
	ident, err = store.FindBySlot(2)
	if err != nil {
		t.Fatalf("FindBySlot(2) error: %v", err)
	}
	if ident.ID != "idn-bob" || ident.Active {
		t.Errorf("FindBySlot(2) = %+v, want disabled idn-bob", ident)
	}

	if _, err := store.FindBySlot(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindBySlot(99) error = %v, want ErrNotFound", err)
	}
}

func TestStoreFaceCandidates(t *testing.T) {
	store := seedStore(t)

	candidates := store.FaceCandidates()
	if len(candidates) != 1 {
		t.Fatalf("FaceCandidates() returned %d, want 1", len(candidates))
	}
	if candidates[0].IdentityID != "idn-alice" {
		t.Errorf("candidate identity = %q, want idn-alice", candidates[0].IdentityID)
	}
	if len(candidates[0].Encoding) != 3 {
		t.Errorf("encoding length = %d, want 3", len(candidates[0].Encoding))
	}
}

func TestStoreSetActiveWriteThrough(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	if err := store.SetActive(ctx, "idn-alice", false); err != nil {
		t.Fatalf("SetActive() error: %v", err)
	}

	ident, err := store.Get(ctx, "idn-alice")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if ident.Active {
		t.Error("cache should reflect the disable immediately")
	}

	// Persisted too: a fresh cache refresh sees the same state
	if err := store.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache() error: %v", err)
	}
	ident, err = store.Get(ctx, "idn-alice")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if ident.Active {
		t.Error("disable should survive a cache refresh")
	}
}

func TestStoreTemplateCounts(t *testing.T) {
	store := seedStore(t)

	faces, prints := store.TemplateCounts("idn-alice")
	if faces != 1 || prints != 1 {
		t.Errorf("TemplateCounts(alice) = %d/%d, want 1/1", faces, prints)
	}

	faces, prints = store.TemplateCounts("idn-ghost")
	if faces != 0 || prints != 0 {
		t.Errorf("TemplateCounts(ghost) = %d/%d, want 0/0", faces, prints)
	}
}
