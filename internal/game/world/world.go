// Package world handles scene loading and per-tick terrain updates.
package world

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/brickgrid/internal/assets"
	"github.com/Faultbox/brickgrid/internal/config"
	"github.com/Faultbox/brickgrid/internal/engine/physics"
	"github.com/Faultbox/brickgrid/internal/engine/terrain"
	"github.com/Faultbox/brickgrid/internal/game/entity"
	"github.com/Faultbox/brickgrid/internal/logger"
	"github.com/Faultbox/brickgrid/pkg/formats"
)

var (
	// ErrNoScene is returned when an operation needs a loaded scene.
	ErrNoScene = errors.New("no scene loaded")
	// ErrUnknownLibrary is returned when a grid references a library missing from the layout file.
	ErrUnknownLibrary = errors.New("unknown layout library")
)

// Scene is a loaded scene: its terrain, the solver bound to it and its actors.
type Scene struct {
	Index  int
	Grid   *terrain.Grid
	Solver *physics.Solver
	Actors *entity.Manager
}

// Tick resolves every actor of the scene against the terrain.
func (s *Scene) Tick(dt float32) {
	s.Actors.Update(s.Solver, dt)
}

// Manager owns the layout libraries and the current scene. It replaces
// process-wide caches: libraries live as long as the manager.
type Manager struct {
	assets *assets.Manager
	data   config.DataConfig
	rules  config.SceneConfig
	log    *zap.Logger

	mu        sync.RWMutex
	libraries map[int]terrain.Library
	current   *Scene
	loading   bool
}

// NewManager creates a new world manager reading from src.
func NewManager(src *assets.Manager, cfg *config.Config) *Manager {
	return &Manager{
		assets: src,
		data:   cfg.Data,
		rules:  cfg.Scene,
		log:    logger.Named("world"),
	}
}

// Current returns the current scene, or nil.
func (m *Manager) Current() *Scene {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsLoading returns whether a scene is currently loading.
func (m *Manager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Library returns a layout library, loading the layout file on first use.
func (m *Manager) Library(index int) (terrain.Library, error) {
	m.mu.RLock()
	libs := m.libraries
	m.mu.RUnlock()

	if libs == nil {
		loaded, err := m.assets.LoadLayouts(m.data.Layouts)
		if err != nil {
			return nil, fmt.Errorf("loading layouts: %w", err)
		}
		m.mu.Lock()
		if m.libraries == nil {
			m.libraries = loaded
			m.log.Info("layout libraries loaded", zap.Int("libraries", len(loaded)))
		}
		libs = m.libraries
		m.mu.Unlock()
	}

	lib, ok := libs[index]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLibrary, index)
	}
	return lib, nil
}

// GridName returns the asset name of a scene's grid.
func (m *Manager) GridName(scene int) string {
	return fmt.Sprintf(m.data.GridPattern, scene)
}

// LoadScene loads a scene's grid and makes it current. The previous scene is
// dropped only once the new one is ready.
func (m *Manager) LoadScene(ctx context.Context, index int) (*Scene, error) {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	scene, err := m.loadScene(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("loading scene %d: %w", index, err)
	}

	m.mu.Lock()
	if m.current != nil {
		scene.Actors = m.current.Actors
		scene.Actors.Clear()
	}
	m.current = scene
	m.mu.Unlock()

	m.log.Info("scene loaded",
		zap.Int("scene", index),
		zap.Bool("dome", scene.Solver.Options.Dome),
		zap.Bool("legacy", scene.Solver.Options.Legacy))
	return scene, nil
}

func (m *Manager) loadScene(ctx context.Context, index int) (*Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := m.assets.Load(m.GridName(index))
	if err != nil {
		return nil, err
	}

	raw, err := formats.ParseGrid(data)
	if err != nil {
		return nil, fmt.Errorf("decoding grid: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lib, err := m.Library(int(raw.Library))
	if err != nil {
		return nil, err
	}

	overrides, err := m.overrides(index)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	grid := terrain.FromFormat(raw, lib, overrides)
	opts := physics.Options{
		Dome:   m.rules.IsDome(index),
		Legacy: m.rules.IsLegacy(),
	}
	return &Scene{
		Index:  index,
		Grid:   grid,
		Solver: physics.NewSolver(grid, opts),
		Actors: entity.NewManager(),
	}, nil
}

// overrides loads the editor overrides of a scene. A missing override file
// means no overrides.
func (m *Manager) overrides(scene int) (terrain.Overrides, error) {
	if m.data.Overrides == "" {
		return nil, nil
	}
	overrides, err := m.assets.LoadOverrides(m.data.Overrides, scene)
	if errors.Is(err, assets.ErrNotFound) {
		m.log.Warn("override file not found", zap.String("file", m.data.Overrides))
		return nil, nil
	}
	return overrides, err
}

// Patch applies editor overrides to the current scene and returns the number
// of slots changed.
func (m *Manager) Patch(overrides terrain.Overrides) (int, error) {
	scene := m.Current()
	if scene == nil {
		return 0, ErrNoScene
	}
	changed := scene.Grid.Patch(overrides)
	m.log.Debug("scene patched", zap.Int("scene", scene.Index), zap.Int("slots", changed))
	return changed, nil
}

// Tick advances the current scene by dt seconds.
func (m *Manager) Tick(dt float32) error {
	scene := m.Current()
	if scene == nil {
		return ErrNoScene
	}
	scene.Tick(dt)
	return nil
}

// Unload drops the current scene.
func (m *Manager) Unload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
}

// Close drops the current scene and the cached libraries.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.libraries = nil
}
