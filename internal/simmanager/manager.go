// Package simmanager owns many concurrent simworld.World instances: a
// capacity-capped CRUD surface plus one independent tick-loop goroutine
// per running world (spec §4.4, component C4). See internal/control for
// the thin command layer built on top of this package.
package simmanager

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/RonniRodriguez/idea-inc/internal/entropy"
	"github.com/RonniRodriguez/idea-inc/internal/mutation"
	"github.com/RonniRodriguez/idea-inc/internal/simmodel"
	"github.com/RonniRodriguez/idea-inc/internal/simworld"
	"github.com/RonniRodriguez/idea-inc/internal/trend"
)

// DefaultMaxConcurrentWorlds is the manager capacity cap used when the
// caller does not override it (spec §4.4).
const DefaultMaxConcurrentWorlds = 10

// WorldSummary is the lightweight record returned by ListWorlds (spec §6).
type WorldSummary struct {
	ID          simmodel.WorldID
	CreatorID   string
	Name        string
	Description string
	IsPublic    bool
	Status      simworld.Status
	CurrentStep uint64
	Population  int
}

// WorldFilter narrows ListWorlds results (spec §6 ListWorlds).
type WorldFilter struct {
	CreatorID  string // empty = any creator
	PublicOnly bool
}

type handle struct {
	world  *simworld.World
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns the world map and runs one tick-loop goroutine per RUNNING
// world. The world map itself is guarded by mu (spec §5 "manager-level
// operations use a manager-wide mutex only for the world map and capacity
// check"); each World additionally serialises its own control operations
// and ticks internally.
type Manager struct {
	mu                 sync.RWMutex
	worlds             map[simmodel.WorldID]*handle
	maxConcurrentWorlds int
	mutator            mutation.Provider
	entropySource      *entropy.Client
	trendClient        *trend.Client

	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// New constructs a Manager. maxConcurrentWorlds <= 0 selects
// DefaultMaxConcurrentWorlds. mutator is shared by every world created
// through this manager unless a future per-world override is added; nil
// selects mutation.Deterministic{}. entropySource is optional (nil is
// fine) — when set, a CreateWorld call that doesn't supply its own seed
// draws one from it instead of math/rand's default source (spec §5
// "seeded from a caller-supplied seed or OS entropy"). trendClient is
// also optional (nil disables it) and is handed to every World this
// manager creates, which fetches a diagnostic trend.Reading at each tick
// boundary (see simworld.World.LastTrendSignal) without ever feeding the
// live propagation formula.
func New(maxConcurrentWorlds int, mutator mutation.Provider, entropySource *entropy.Client, trendClient *trend.Client) *Manager {
	if maxConcurrentWorlds <= 0 {
		maxConcurrentWorlds = DefaultMaxConcurrentWorlds
	}
	if mutator == nil {
		mutator = mutation.Deterministic{}
	}
	return &Manager{
		worlds:             make(map[simmodel.WorldID]*handle),
		maxConcurrentWorlds: maxConcurrentWorlds,
		mutator:            mutator,
		entropySource:      entropySource,
		trendClient:        trendClient,
	}
}

// CreateWorld builds a new World synchronously (population + topology, per
// spec §4.4) and registers it, failing with ErrCapacityExhausted if the
// manager is already at its concurrent-world cap.
func (m *Manager) CreateWorld(creatorID, name, description string, cfg simworld.Config, isPublic bool, seed int64) (*simworld.World, error) {
	m.mu.Lock()
	if len(m.worlds) >= m.maxConcurrentWorlds {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %d/%d worlds in use", simworld.ErrCapacityExhausted, len(m.worlds), m.maxConcurrentWorlds)
	}
	m.mu.Unlock()

	if seed == 0 && m.entropySource != nil {
		seed = entropy.WorldSeed(m.entropySource)
	}

	id := simmodel.NewID()
	w, err := simworld.New(id, creatorID, name, description, isPublic, cfg, seed, m.mutator, m.trendClient)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.worlds) >= m.maxConcurrentWorlds {
		return nil, fmt.Errorf("%w: %d/%d worlds in use", simworld.ErrCapacityExhausted, len(m.worlds), m.maxConcurrentWorlds)
	}
	m.worlds[id] = &handle{world: w}
	return w, nil
}

// GetWorld looks up a world by id.
func (m *Manager) GetWorld(id simmodel.WorldID) (*simworld.World, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.worlds[id]
	if !ok {
		return nil, fmt.Errorf("%w: world %s", simworld.ErrNotFound, uuid.UUID(id))
	}
	return h.world, nil
}

// ListWorlds returns summaries for every registered world matching filter.
func (m *Manager) ListWorlds(filter WorldFilter) []WorldSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]WorldSummary, 0, len(m.worlds))
	for id, h := range m.worlds {
		if filter.PublicOnly && !h.world.IsPublic {
			continue
		}
		if filter.CreatorID != "" && h.world.CreatorID != filter.CreatorID {
			continue
		}
		out = append(out, WorldSummary{
			ID:          id,
			CreatorID:   h.world.CreatorID,
			Name:        h.world.Name,
			Description: h.world.Description,
			IsPublic:    h.world.IsPublic,
			Status:      h.world.Status(),
			CurrentStep: h.world.CurrentStep(),
			Population:  h.world.PopulationSize(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DeleteWorld stops the world's loop (if any) and removes it from the
// manager. Idempotent: deleting an unknown id is not an error (spec §4.4).
func (m *Manager) DeleteWorld(id simmodel.WorldID) error {
	m.mu.Lock()
	h, ok := m.worlds[id]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	delete(m.worlds, id)
	m.mu.Unlock()

	m.stopHandle(h)
	h.world.Archive()
	return nil
}

// StartWorld transitions CREATED|PAUSED → RUNNING and spawns a tick-loop
// goroutine. Re-starting an already-RUNNING world is a no-op success.
func (m *Manager) StartWorld(id simmodel.WorldID) error {
	m.mu.Lock()
	h, ok := m.worlds[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: world %s", simworld.ErrNotFound, uuid.UUID(id))
	}

	if h.world.Status() == simworld.StatusRunning && h.cancel != nil {
		return nil
	}

	if err := h.world.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	h.cancel = cancel
	h.done = done

	m.wg.Add(1)
	go m.runLoop(ctx, h, done)
	return nil
}

// StopWorld transitions RUNNING → PAUSED and awaits cooperative
// cancellation of the loop goroutine before returning (spec §5
// "Cancellation and timeouts").
func (m *Manager) StopWorld(id simmodel.WorldID) error {
	m.mu.Lock()
	h, ok := m.worlds[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: world %s", simworld.ErrNotFound, uuid.UUID(id))
	}

	if err := h.world.Pause(); err != nil {
		return err
	}
	m.stopHandle(h)
	return nil
}

func (m *Manager) stopHandle(h *handle) {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
	h.cancel = nil
	h.done = nil
}

// StepWorld advances the world by exactly n steps synchronously, briefly
// forcing RUNNING during the operation and restoring the prior status
// afterward if it was PAUSED (spec §4.4).
func (m *Manager) StepWorld(id simmodel.WorldID, n int) error {
	m.mu.Lock()
	h, ok := m.worlds[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: world %s", simworld.ErrNotFound, uuid.UUID(id))
	}

	prior := h.world.Status()
	if prior != simworld.StatusPaused && prior != simworld.StatusCreated {
		return fmt.Errorf("%w: cannot step world in status %s", simworld.ErrInvalidStateTransition, prior)
	}
	if err := h.world.Start(); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		if _, err := h.world.Tick(); err != nil {
			slog.Warn("step_world: tick failed", "world_id", uuid.UUID(id), "error", err)
			break
		}
		if h.world.Status() != simworld.StatusRunning {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if h.world.Status() == simworld.StatusRunning && prior == simworld.StatusPaused {
		return h.world.Pause()
	}
	return nil
}

// runLoop is the per-world tick loop: execute one Tick, then sleep for
// time_step_ms, until the context is cancelled or the world leaves RUNNING
// (spec §4.4 "Loop semantics"). Tick failures move the world to PAUSED
// rather than propagating (spec §7 policy), and the loop exits.
func (m *Manager) runLoop(ctx context.Context, h *handle, done chan struct{}) {
	defer m.wg.Done()
	defer close(done)

	id := h.world.ID
	interval := time.Duration(h.world.Config.TimeStepMs) * time.Millisecond

	for {
		if ctx.Err() != nil {
			return
		}
		if h.world.Status() != simworld.StatusRunning {
			return
		}

		if _, err := h.world.Tick(); err != nil {
			slog.Error("world tick failed, pausing world", "world_id", uuid.UUID(id), "error", err)
			_ = h.world.Pause()
			return
		}

		if h.world.Status() != simworld.StatusRunning {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// InjectIdea delegates to the target world's InjectIdea (spec §4.4).
func (m *Manager) InjectIdea(id simmodel.WorldID, p simworld.InjectParams) (*simmodel.Idea, error) {
	w, err := m.GetWorld(id)
	if err != nil {
		return nil, err
	}
	return w.InjectIdea(p)
}

// GetSnapshot delegates to the target world's Snapshot.
func (m *Manager) GetSnapshot(id simmodel.WorldID) (simworld.Snapshot, error) {
	w, err := m.GetWorld(id)
	if err != nil {
		return simworld.Snapshot{}, err
	}
	return w.Snapshot(), nil
}

// GetIdea looks up a single idea inside a world.
func (m *Manager) GetIdea(worldID simmodel.WorldID, ideaID simmodel.IdeaID) (*simmodel.Idea, error) {
	w, err := m.GetWorld(worldID)
	if err != nil {
		return nil, err
	}
	idea, ok := w.Idea(ideaID)
	if !ok {
		return nil, fmt.Errorf("%w: idea %s", simworld.ErrNotFound, uuid.UUID(ideaID))
	}
	return idea, nil
}

// Shutdown pauses every RUNNING world, then cancels and awaits its loop
// (spec §4.4 "Shutdown of the manager cancels and awaits every loop").
// Safe to call more than once.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.mu.RLock()
		handles := make([]*handle, 0, len(m.worlds))
		for _, h := range m.worlds {
			handles = append(handles, h)
		}
		m.mu.RUnlock()

		var g errgroup.Group
		for _, h := range handles {
			h := h
			g.Go(func() error {
				if h.world.Status() == simworld.StatusRunning {
					_ = h.world.Pause()
				}
				m.stopHandle(h)
				return nil
			})
		}
		_ = g.Wait()
		m.wg.Wait()
	})
}
