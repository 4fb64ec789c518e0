package identity

import (
	"context"
	"fmt"
	"sync"
)

// Logger defines the logging interface used by the Store.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// FaceCandidate pairs an identity with one of its face encodings for
// distance matching by the face capability.
type FaceCandidate struct {
	IdentityID string
	Encoding   []float64
}

// Store provides identity lookups with caching and thread safety.
// It wraps a Repository and adds an in-memory cache so the
// authentication loop never touches SQLite on the hot path.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by cache-invalidating write operations.
//
// All public methods are thread-safe.
type Store struct {
	repo *Repository

	cache      map[string]*Identity      // identities by ID
	faceIndex  []FaceCandidate           // flattened face encodings
	slotIndex  map[int]string            // fingerprint slot -> identity ID
	faceByID   map[string][]FaceTemplate // face templates by identity
	fingerByID map[string][]FingerprintTemplate
	cacheMu    sync.RWMutex
	logger     Logger
}

// NewStore creates a new identity store.
// The repository is used for persistence; the store adds caching.
func NewStore(repo *Repository) *Store {
	return &Store{
		repo:       repo,
		cache:      make(map[string]*Identity),
		slotIndex:  make(map[int]string),
		faceByID:   make(map[string][]FaceTemplate),
		fingerByID: make(map[string][]FingerprintTemplate),
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// RefreshCache reloads all identities and templates from the repository.
// This should be called on application startup and after enrollment.
func (s *Store) RefreshCache(ctx context.Context) error {
	identities, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading identities: %w", err)
	}
	faces, err := s.repo.ListFaceTemplates(ctx)
	if err != nil {
		return fmt.Errorf("loading face templates: %w", err)
	}
	prints, err := s.repo.ListFingerprintTemplates(ctx)
	if err != nil {
		return fmt.Errorf("loading fingerprint templates: %w", err)
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.cache = make(map[string]*Identity, len(identities))
	for i := range identities {
		ident := identities[i]
		s.cache[ident.ID] = ident.DeepCopy()
	}

	s.faceIndex = make([]FaceCandidate, 0, len(faces))
	s.faceByID = make(map[string][]FaceTemplate)
	for i := range faces {
		tpl := faces[i]
		s.faceIndex = append(s.faceIndex, FaceCandidate{
			IdentityID: tpl.IdentityID,
			Encoding:   tpl.DeepCopy().Encoding,
		})
		s.faceByID[tpl.IdentityID] = append(s.faceByID[tpl.IdentityID], *tpl.DeepCopy())
	}

	s.slotIndex = make(map[int]string, len(prints))
	s.fingerByID = make(map[string][]FingerprintTemplate)
	for i := range prints {
		tpl := prints[i]
		s.slotIndex[tpl.SensorSlot] = tpl.IdentityID
		s.fingerByID[tpl.IdentityID] = append(s.fingerByID[tpl.IdentityID], *tpl.DeepCopy())
	}

	s.logger.Info("identity cache refreshed",
		"identities", len(identities),
		"face_templates", len(faces),
		"fingerprint_templates", len(prints),
	)
	return nil
}

// Get retrieves an identity by ID.
// Returns ErrNotFound if the identity does not exist.
// The returned identity is a deep copy; callers can safely modify it.
func (s *Store) Get(ctx context.Context, id string) (*Identity, error) {
	s.cacheMu.RLock()
	cached, ok := s.cache[id]
	s.cacheMu.RUnlock()

	if ok {
		return cached.DeepCopy(), nil
	}

	// Fall back to repository (might be newly enrolled, not yet cached)
	ident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	s.cache[id] = ident.DeepCopy()
	s.cacheMu.Unlock()

	return ident, nil
}

// List retrieves all identities.
// The returned identities are deep copies; callers can safely modify them.
func (s *Store) List(ctx context.Context) ([]Identity, error) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	if len(s.cache) > 0 {
		identities := make([]Identity, 0, len(s.cache))
		for _, ident := range s.cache {
			identities = append(identities, *ident.DeepCopy())
		}
		return identities, nil
	}

	return s.repo.List(ctx)
}

// SetActive enables or disables an identity, write-through to the
// repository and then the cache.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}

	s.cacheMu.Lock()
	if cached, ok := s.cache[id]; ok {
		cached.Active = active
	}
	s.cacheMu.Unlock()

	s.logger.Info("identity active flag updated", "identity_id", id, "active", active)
	return nil
}

// FindBySlot resolves a fingerprint sensor slot to its identity.
// Returns ErrNotFound if no identity owns the slot.
func (s *Store) FindBySlot(slot int) (*Identity, error) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	id, ok := s.slotIndex[slot]
	if !ok {
		return nil, fmt.Errorf("%w: fingerprint slot %d", ErrNotFound, slot)
	}
	ident, ok := s.cache[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ident.DeepCopy(), nil
}

// FaceCandidates returns every enrolled face encoding paired with its
// identity. The face capability runs distance matching over this set.
// The returned slice shares encoding backing arrays with the cache;
// callers must treat it as read-only.
func (s *Store) FaceCandidates() []FaceCandidate {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	candidates := make([]FaceCandidate, len(s.faceIndex))
	copy(candidates, s.faceIndex)
	return candidates
}

// TemplateCounts returns the number of face and fingerprint templates
// for an identity. Used by the admin API.
func (s *Store) TemplateCounts(id string) (faces, fingerprints int) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return len(s.faceByID[id]), len(s.fingerByID[id])
}
