// Package physics resolves entities against the brick grid once per tick.
package physics

import (
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

// Tuned constants, in grid-local units and seconds unless noted.
const (
	// WorldSize is the length of one grid-local unit in world units.
	WorldSize = float32(20)

	LandingTolerance = float32(0.12)
	surfaceEpsilon   = float32(1e-6)
	ProbeStep        = float32(0.01)
	ProbeFloor       = float32(-1)
	BoxLift          = float32(1.0 / 128.0)

	EscalatorSpeed  = float32(0.05)
	JetpackOffset   = float32(0.03)
	ProtopackOffset = float32(0.0075)
	HoverSpeed      = float32(0.275)

	// SpikeDamage is the hit strength of cave spikes.
	SpikeDamage = 5

	// NoGround is the ground height reported when nothing is under a body.
	NoGround = float32(-1)

	// HeroIndex is the actor index of the player-controlled hero.
	HeroIndex = 0

	// SpikeAttacker is the hitBy value passed to OnHit for terrain damage.
	SpikeAttacker = -1

	maxProbeSteps = 1024
)

// Mode is an actor behaviour (movement) mode.
type Mode int

// Behaviour modes.
const (
	ModeNormal Mode = iota
	ModeAthletic
	ModeAggressive
	ModeDiscrete
	ModeProtopack
	ModeZoe
	ModeHorn
	ModeSpacesuitIsoNormal
	ModeJetpack
	ModeSpacesuitIsoAthletic
	ModeSpacesuit3DNormal
	ModeSpacesuit3DAthletic
	ModeBuggy
	ModeSkeleton
)

// HoverOffset returns the hover height above ground for flying modes.
func (m Mode) HoverOffset() (float32, bool) {
	switch m {
	case ModeJetpack:
		return JetpackOffset, true
	case ModeProtopack:
		return ProtopackOffset, true
	default:
		return 0, false
	}
}

// Anim is the animation an actor is currently playing.
type Anim int

// Animations the solver cares about.
const (
	AnimIdle Anim = iota
	AnimForward
	AnimBackward
	AnimTurnLeft
	AnimTurnRight
	AnimHit
)

// Flags are the collision switches from the actor's definition.
type Flags struct {
	CollisionBricks bool // Push out of solid columns
	CollisionFloor  bool // Stand on columns
	CanFall         bool
}

// State is the per-body physics state written by the solver.
type State struct {
	IsTouchingGround      bool
	IsColliding           bool
	IsUsingProtoOrJetpack bool

	IsDrowning      bool
	IsDrowningStars bool
	IsDrowningLava  bool

	// Read by the solver, owned by the game loop.
	IsJumping bool
	IsHit     bool

	DistFromGround float32 // World units
	DistFromFloor  float32 // World units

	FloorSound  int
	FloorSound2 int
}

// Body is the physics view of an actor. Positions and the bounding box are in
// world units.
type Body struct {
	Index int

	// Position is the proposed position for this tick and receives the result.
	Position mgl32.Vec3
	// BasePosition is the position committed on the previous tick.
	BasePosition mgl32.Vec3
	// BoundingBox is relative to Position.
	BoundingBox cube.BBox

	Flags Flags
	Mode  Mode
	Anim  Anim
	State State

	// OnHit is called for terrain damage. May be nil.
	OnHit func(hitBy, strength int)
}

// IsHero reports whether the body belongs to the player-controlled hero.
func (b *Body) IsHero() bool {
	return b.Index == HeroIndex
}

// usingProtoOrJetpack reports whether hover overrides ground contact this tick.
func (b *Body) usingProtoOrJetpack() bool {
	_, hover := b.Mode.HoverOffset()
	return hover && b.Anim == AnimForward
}

// localBox returns the body box scaled to grid-local units, relative to the body.
func (b *Body) localBox() cube.BBox {
	lo, hi := toLocal(b.BoundingBox.Min()), toLocal(b.BoundingBox.Max())
	return cube.Box(lo.X(), lo.Y(), lo.Z(), hi.X(), hi.Y(), hi.Z())
}

// toLocal converts world units to grid-local units.
func toLocal(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v[0] / WorldSize, v[1] / WorldSize, v[2] / WorldSize}
}
