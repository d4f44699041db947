package editor

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patrickwarner/bannerforge/internal/models"
)

// ErrLastVariation is returned when removing the only remaining variation.
var ErrLastVariation = errors.New("at least one variation is required")

// snapshot is an immutable view of all variations. It is replaced, never modified.
type snapshot struct {
	variations []models.AdState
	activeID   string
}

func (s *snapshot) index(id string) int {
	return slices.IndexFunc(s.variations, func(v models.AdState) bool { return v.ID == id })
}

// Store holds every variation and the active pointer. Reads load the current
// snapshot without locking; writers are serialized and publish a new snapshot.
type Store struct {
	mu     sync.Mutex
	data   atomic.Pointer[snapshot]
	newID  func() string
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the uuid generator, mainly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock replaces the clock used to timestamp library items.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// NewStore returns a store holding a single default variation.
func NewStore(logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{newID: uuid.NewString, now: time.Now, logger: logger}
	for _, o := range opts {
		o(s)
	}
	first := s.defaultState()
	s.data.Store(&snapshot{variations: []models.AdState{first}, activeID: first.ID})
	return s
}

// NewID returns a fresh identifier from the store's generator.
func (s *Store) NewID() string {
	return s.newID()
}

func (s *Store) defaultState() models.AdState {
	return models.NewDefaultState(s.newID(), models.DefaultVariationName, s.newID())
}

// Active returns the active variation, or the first one if the pointer is stale.
func (s *Store) Active() models.AdState {
	snap := s.data.Load()
	if i := snap.index(snap.activeID); i >= 0 {
		return snap.variations[i]
	}
	return snap.variations[0]
}

// ActiveID returns the id of the active variation.
func (s *Store) ActiveID() string {
	return s.Active().ID
}

// Variations returns all variations in creation order.
func (s *Store) Variations() []models.AdState {
	return slices.Clone(s.data.Load().variations)
}

// Variation returns the variation with the given id.
func (s *Store) Variation(id string) (models.AdState, error) {
	snap := s.data.Load()
	i := snap.index(id)
	if i < 0 {
		return models.AdState{}, fmt.Errorf("variation %s: %w", id, models.ErrNotFound)
	}
	return snap.variations[i], nil
}

// update publishes the snapshot returned by fn. Returning an error leaves the store untouched.
func (s *Store) update(fn func(cur *snapshot) (*snapshot, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.data.Load())
	if err != nil {
		return err
	}
	s.data.Store(next)
	return nil
}

// SetActiveVariation switches the variation being edited.
func (s *Store) SetActiveVariation(id string) error {
	return s.update(func(cur *snapshot) (*snapshot, error) {
		if cur.index(id) < 0 {
			return nil, fmt.Errorf("variation %s: %w", id, models.ErrNotFound)
		}
		return &snapshot{variations: cur.variations, activeID: id}, nil
	})
}

// AddVariation duplicates the active variation under "{name} (Copy)" with fresh
// frame ids and makes it active. The asset library items are shared by value.
func (s *Store) AddVariation() models.AdState {
	var added models.AdState
	_ = s.update(func(cur *snapshot) (*snapshot, error) {
		src := cur.variations[0]
		if i := cur.index(cur.activeID); i >= 0 {
			src = cur.variations[i]
		}
		added = src.Clone()
		added.ID = s.newID()
		added.Name = src.Name + " (Copy)"
		for i := range added.Frames {
			added.Frames[i].ID = s.newID()
		}
		if len(added.Frames) > 0 {
			added.ActiveFrameID = added.Frames[0].ID
		}
		added.AnimationKey = 0
		return &snapshot{variations: append(slices.Clone(cur.variations), added), activeID: added.ID}, nil
	})
	s.logger.Debug("variation added", zap.String("variation_id", added.ID))
	return added
}

// RemoveVariation deletes a variation. The last one is never removed. When the
// active variation is removed the first remaining one becomes active.
func (s *Store) RemoveVariation(id string) error {
	return s.update(func(cur *snapshot) (*snapshot, error) {
		i := cur.index(id)
		if i < 0 {
			return nil, fmt.Errorf("variation %s: %w", id, models.ErrNotFound)
		}
		if len(cur.variations) <= 1 {
			return nil, ErrLastVariation
		}
		vs := slices.Delete(slices.Clone(cur.variations), i, i+1)
		active := cur.activeID
		if active == id {
			active = vs[0].ID
		}
		return &snapshot{variations: vs, activeID: active}, nil
	})
}

// RenameVariation changes a variation's display name.
func (s *Store) RenameVariation(id, name string) error {
	return s.ApplyTo(id, func(v models.AdState) models.AdState {
		next := v.Clone()
		next.Name = name
		return next
	})
}

// LoadProject decodes a saved project and adds it as a new active variation.
// A document that fails to decode leaves the store unchanged.
func (s *Store) LoadProject(data []byte) (models.AdState, error) {
	state, err := models.DecodeProject(data)
	if err != nil {
		return models.AdState{}, err
	}
	return s.Import(state), nil
}

// Import adds a variation under a fresh id named "{name} (Imported)" and makes it active.
func (s *Store) Import(state models.AdState) models.AdState {
	imported := state.Clone()
	imported.ID = s.newID()
	name := imported.Name
	if name == "" {
		name = "Imported"
	}
	imported.Name = name + " (Imported)"
	if imported.FrameIndex(imported.ActiveFrameID) < 0 && len(imported.Frames) > 0 {
		imported.ActiveFrameID = imported.Frames[0].ID
	}
	_ = s.update(func(cur *snapshot) (*snapshot, error) {
		return &snapshot{variations: append(slices.Clone(cur.variations), imported), activeID: imported.ID}, nil
	})
	s.logger.Info("project imported",
		zap.String("variation_id", imported.ID),
		zap.Int("frames", len(imported.Frames)),
	)
	return imported
}

// Apply runs transitions against the active variation and returns the result.
func (s *Store) Apply(ts ...Transition) models.AdState {
	var out models.AdState
	_ = s.update(func(cur *snapshot) (*snapshot, error) {
		i := cur.index(cur.activeID)
		if i < 0 {
			i = 0
		}
		out = Chain(ts...)(cur.variations[i])
		vs := slices.Clone(cur.variations)
		vs[i] = out
		return &snapshot{variations: vs, activeID: cur.activeID}, nil
	})
	return out
}

// ApplyTo runs a transition against a specific variation.
func (s *Store) ApplyTo(id string, ts ...Transition) error {
	return s.update(func(cur *snapshot) (*snapshot, error) {
		i := cur.index(id)
		if i < 0 {
			return nil, fmt.Errorf("variation %s: %w", id, models.ErrNotFound)
		}
		vs := slices.Clone(cur.variations)
		vs[i] = Chain(ts...)(cur.variations[i])
		return &snapshot{variations: vs, activeID: cur.activeID}, nil
	})
}

// Reset discards every variation and starts over with a single default one.
func (s *Store) Reset() models.AdState {
	fresh := s.defaultState()
	_ = s.update(func(*snapshot) (*snapshot, error) {
		return &snapshot{variations: []models.AdState{fresh}, activeID: fresh.ID}, nil
	})
	s.logger.Info("editor reset")
	return fresh
}
