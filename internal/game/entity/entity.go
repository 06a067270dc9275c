// Package entity implements scene actors and their per-tick terrain update.
package entity

import (
	"sort"

	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brickgrid/internal/engine/physics"
)

// Type represents the type of actor.
type Type uint8

const (
	TypeHero Type = iota
	TypeNPC
	TypeSprite
)

// DefaultLife is the life of an actor created without one.
const DefaultLife = 255

// Actor is a scene actor with a physics body.
type Actor struct {
	Type Type
	Name string
	Body physics.Body

	Life    int
	MaxLife int

	// WasHitBy is the index of the last attacker, -1 for terrain.
	WasHitBy int
	// PrevAnim is restored when the hit animation ends.
	PrevAnim physics.Anim

	IsDead    bool
	IsVisible bool
}

// NewActor creates an actor at a world position. Index 0 is the hero.
func NewActor(index int, pos mgl32.Vec3, box cube.BBox) *Actor {
	a := &Actor{
		Type:      TypeNPC,
		Life:      DefaultLife,
		MaxLife:   DefaultLife,
		WasHitBy:  -1,
		IsVisible: true,
		Body: physics.Body{
			Index:        index,
			Position:     pos,
			BasePosition: pos,
			BoundingBox:  box,
			Flags: physics.Flags{
				CollisionBricks: true,
				CollisionFloor:  true,
				CanFall:         true,
			},
		},
	}
	if index == physics.HeroIndex {
		a.Type = TypeHero
	}
	a.Body.OnHit = a.Hit
	return a
}

// Index returns the actor's scene index.
func (a *Actor) Index() int {
	return a.Body.Index
}

// Position returns the committed world position.
func (a *Actor) Position() mgl32.Vec3 {
	return a.Body.BasePosition
}

// SetPosition teleports the actor.
func (a *Actor) SetPosition(pos mgl32.Vec3) {
	a.Body.Position = pos
	a.Body.BasePosition = pos
}

// Move proposes a displacement for the next terrain update.
func (a *Actor) Move(delta mgl32.Vec3) {
	a.Body.Position = a.Body.Position.Add(delta)
}

// SetMode changes the behaviour mode.
func (a *Actor) SetMode(mode physics.Mode) {
	a.Body.Mode = mode
}

// SetAnim changes the current animation.
func (a *Actor) SetAnim(anim physics.Anim) {
	a.Body.Anim = anim
}

// Hit applies damage. Sprites only record the attacker.
func (a *Actor) Hit(hitBy, strength int) {
	a.WasHitBy = hitBy
	if a.Type == TypeSprite || a.IsDead {
		return
	}

	a.Life -= strength
	if a.Life <= 0 {
		a.Life = 0
		a.IsDead = true
		a.IsVisible = false
		return
	}

	// Don't restart the hit animation.
	if a.Body.State.IsHit && a.Body.Anim == physics.AnimHit {
		return
	}
	a.PrevAnim = a.Body.Anim
	a.Body.Anim = physics.AnimHit
	a.Body.State.IsHit = true
}

// EndHit finishes the hit animation.
func (a *Actor) EndHit() {
	if !a.Body.State.IsHit {
		return
	}
	a.Body.State.IsHit = false
	if a.Body.Anim == physics.AnimHit {
		a.Body.Anim = a.PrevAnim
	}
}

// LifePercent returns life as a fraction (0.0 to 1.0).
func (a *Actor) LifePercent() float32 {
	if a.MaxLife <= 0 {
		return 1.0
	}
	return float32(a.Life) / float32(a.MaxLife)
}

// IsAlive returns whether the actor is alive.
func (a *Actor) IsAlive() bool {
	return !a.IsDead && a.Life > 0
}

// Update resolves the actor against the terrain and commits its position.
func (a *Actor) Update(solver *physics.Solver, dt float32) bool {
	if a.IsDead {
		return a.Body.State.IsTouchingGround
	}
	touching := solver.ProcessCollisions(&a.Body, dt)
	a.Body.BasePosition = a.Body.Position
	return touching
}

// Manager manages the actors of a scene.
type Manager struct {
	actors map[int]*Actor
}

// NewManager creates a new actor manager.
func NewManager() *Manager {
	return &Manager{
		actors: make(map[int]*Actor),
	}
}

// Add adds an actor, replacing any actor with the same index.
func (m *Manager) Add(a *Actor) {
	m.actors[a.Index()] = a
}

// Remove removes an actor.
func (m *Manager) Remove(index int) {
	delete(m.actors, index)
}

// Get returns an actor by index.
func (m *Manager) Get(index int) *Actor {
	return m.actors[index]
}

// Hero returns the hero, or nil.
func (m *Manager) Hero() *Actor {
	return m.actors[physics.HeroIndex]
}

// All returns all actors ordered by index.
func (m *Manager) All() []*Actor {
	result := make([]*Actor, 0, len(m.actors))
	for _, a := range m.actors {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Index() < result[j].Index() })
	return result
}

// Update runs one terrain tick for every actor.
func (m *Manager) Update(solver *physics.Solver, dt float32) {
	for _, a := range m.All() {
		a.Update(solver, dt)
	}
}

// Count returns the number of actors.
func (m *Manager) Count() int {
	return len(m.actors)
}

// CountByType returns the number of actors of a specific type.
func (m *Manager) CountByType(t Type) int {
	count := 0
	for _, a := range m.actors {
		if a.Type == t {
			count++
		}
	}
	return count
}

// Clear removes all actors except the hero.
func (m *Manager) Clear() {
	for index := range m.actors {
		if index != physics.HeroIndex {
			delete(m.actors, index)
		}
	}
}

// ClearAll removes all actors including the hero.
func (m *Manager) ClearAll() {
	m.actors = make(map[int]*Actor)
}
