// Package testing provides in-memory fakes of the learnkit contracts, so
// applications (and learnkit's own tests) can exercise the engines without
// Postgres or Redis.
//
// Example usage:
//
//	store := learntest.NewStore()
//	content := learntest.NewHierarchy()
//	pathID := content.AddPath(categoryID, 3) // three ordered levels
package testing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/open-rails/learnkit/entitlements"
	"github.com/open-rails/learnkit/hierarchy"
)

// Store is an in-memory entitlements.Store. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	ents    map[uuid.UUID]*entitlements.Entitlement
	unlocks map[uuid.UUID][]entitlements.UnlockedLevel

	// Now lets tests evaluate the expiry predicate at a fixed instant.
	Now func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		ents:    make(map[uuid.UUID]*entitlements.Entitlement),
		unlocks: make(map[uuid.UUID][]entitlements.UnlockedLevel),
		Now:     time.Now,
	}
}

func (s *Store) Create(ctx context.Context, g entitlements.Grant) (*entitlements.Entitlement, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.ents {
		if e.UserID == g.UserID && e.CategoryID == g.CategoryID {
			return nil, entitlements.ErrEntitlementExists
		}
	}
	e := &entitlements.Entitlement{
		ID:          uuid.New(),
		UserID:      g.UserID,
		CategoryID:  g.CategoryID,
		Status:      entitlements.StatusActive,
		AccessType:  g.AccessType,
		ActivatedAt: s.Now(),
		ExpiresAt:   g.ExpiresAt,
	}
	s.ents[e.ID] = e
	cp := *e
	return &cp, nil
}

func (s *Store) FindActive(ctx context.Context, userID, categoryID uuid.UUID) (*entitlements.Entitlement, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.ents {
		if e.UserID == userID && e.CategoryID == categoryID && e.IsActiveAt(s.Now()) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) HasUnlockedLevel(ctx context.Context, entitlementID, pathID, levelID uuid.UUID) (bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ul := range s.unlocks[entitlementID] {
		if ul.PathID == pathID && ul.LevelID == levelID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) AppendUnlock(ctx context.Context, entitlementID, pathID, levelID uuid.UUID) (bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.ents[entitlementID]
	if !ok || !e.IsActiveAt(s.Now()) {
		return false, entitlements.ErrNoActiveEntitlement
	}
	for _, ul := range s.unlocks[entitlementID] {
		if ul.PathID == pathID && ul.LevelID == levelID {
			return false, nil
		}
	}
	s.unlocks[entitlementID] = append(s.unlocks[entitlementID], entitlements.UnlockedLevel{
		PathID:     pathID,
		LevelID:    levelID,
		UnlockedAt: s.Now(),
	})
	return true, nil
}

func (s *Store) ListUnlocked(ctx context.Context, userID, categoryID uuid.UUID) ([]entitlements.UnlockedLevel, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entitlements.UnlockedLevel
	for id, e := range s.ents {
		if e.UserID == userID && e.CategoryID == categoryID {
			out = append(out, s.unlocks[id]...)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnlockedAt.Before(out[j].UnlockedAt) })
	return out, nil
}

func (s *Store) Cancel(ctx context.Context, userID, categoryID uuid.UUID) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.ents {
		if e.UserID == userID && e.CategoryID == categoryID && e.Status == entitlements.StatusActive {
			e.Status = entitlements.StatusCancelled
			return nil
		}
	}
	return entitlements.ErrNoActiveEntitlement
}

// UnlockCount returns the frontier size for an entitlement, for assertions.
func (s *Store) UnlockCount(entitlementID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.unlocks[entitlementID])
}

// Hierarchy is an in-memory hierarchy.Reader built from test paths.
type Hierarchy struct {
	mu     sync.Mutex
	paths  map[uuid.UUID]hierarchy.Path
	levels map[uuid.UUID]hierarchy.Level
}

// NewHierarchy creates an empty content hierarchy.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		paths:  make(map[uuid.UUID]hierarchy.Path),
		levels: make(map[uuid.UUID]hierarchy.Level),
	}
}

// AddPath creates a path with n ordered levels under the category and
// returns its ID. Level IDs come back from LevelIDs.
func (h *Hierarchy) AddPath(categoryID uuid.UUID, n int) uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := hierarchy.Path{ID: uuid.New(), CategoryID: categoryID}
	for i := 0; i < n; i++ {
		l := hierarchy.Level{ID: uuid.New(), PathID: p.ID, Order: i + 1}
		h.levels[l.ID] = l
		p.LevelIDs = append(p.LevelIDs, l.ID)
	}
	h.paths[p.ID] = p
	return p.ID
}

// LevelIDs returns the ordered level IDs of a path.
func (h *Hierarchy) LevelIDs(pathID uuid.UUID) []uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uuid.UUID(nil), h.paths[pathID].LevelIDs...)
}

func (h *Hierarchy) GetPath(ctx context.Context, pathID uuid.UUID) (hierarchy.Path, error) {
	_ = ctx
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.paths[pathID]
	if !ok {
		return hierarchy.Path{}, hierarchy.ErrNotFound
	}
	return p, nil
}

func (h *Hierarchy) GetLevel(ctx context.Context, levelID uuid.UUID) (hierarchy.Level, error) {
	_ = ctx
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.levels[levelID]
	if !ok {
		return hierarchy.Level{}, hierarchy.ErrNotFound
	}
	return l, nil
}

func (h *Hierarchy) GetLevelsForPath(ctx context.Context, pathID uuid.UUID) ([]hierarchy.Level, error) {
	_ = ctx
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.paths[pathID]
	if !ok {
		return nil, hierarchy.ErrNotFound
	}
	out := make([]hierarchy.Level, len(p.LevelIDs))
	for i, id := range p.LevelIDs {
		out[i] = h.levels[id]
	}
	return out, nil
}

func (h *Hierarchy) ListPathIDs(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error) {
	_ = ctx
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []uuid.UUID
	for id, p := range h.paths {
		if p.CategoryID == categoryID {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// Tracker is an in-memory progress.Tracker.
type Tracker struct {
	mu   sync.Mutex
	done map[string]bool
}

// NewTracker creates an empty completion tracker.
func NewTracker() *Tracker {
	return &Tracker{done: make(map[string]bool)}
}

// SetCompleted records completion evidence for (user, level).
func (t *Tracker) SetCompleted(userID, levelID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done[userID.String()+":"+levelID.String()] = true
}

func (t *Tracker) IsLevelCompleted(ctx context.Context, userID, levelID uuid.UUID) (bool, error) {
	_ = ctx
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done[userID.String()+":"+levelID.String()], nil
}

// Badges is an in-memory progress.BadgeStore.
type Badges struct {
	mu     sync.Mutex
	badges map[string]bool
}

// NewBadges creates an empty badge store.
func NewBadges() *Badges {
	return &Badges{badges: make(map[string]bool)}
}

func (b *Badges) HasBadge(ctx context.Context, userID, pathID uuid.UUID) (bool, error) {
	_ = ctx
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.badges[userID.String()+":"+pathID.String()], nil
}

func (b *Badges) Award(ctx context.Context, userID, pathID uuid.UUID) (bool, error) {
	_ = ctx
	b.mu.Lock()
	defer b.mu.Unlock()
	k := userID.String() + ":" + pathID.String()
	if b.badges[k] {
		return false, nil
	}
	b.badges[k] = true
	return true, nil
}

// Count returns how many badges have been awarded.
func (b *Badges) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.badges)
}
