package components

import "github.com/embervoid/tickcore/internal/ecs"

// DeathComponent is the marker that drives the entire death pipeline
// (spec.md §4.6): its addition, not a direct call, is what triggers the
// fixed chain of RefChange systems in internal/death.
type DeathComponent struct {
	Cause          string
	FatalDamage    DamageSnapshot
	ItemLossRuleset string
}

// DamageSnapshot is the fatal-hit record carried by DeathComponent so
// downstream systems (kill feed, death screen) can describe the cause
// without re-deriving it.
type DamageSnapshot struct {
	SourceRef ecs.Ref
	HasSource bool
	Cause     string
	Amount    float64
	Zone      string
}

// DeferredCorpseRemoval counts down the seconds remaining before a corpse
// entity is destroyed (spec.md §4.6 step 10).
type DeferredCorpseRemoval struct {
	RemainingSeconds float64
}

var (
	DeathComponentType         = ecs.RegisterComponent[DeathComponent]("death")
	DeferredCorpseRemovalType  = ecs.RegisterComponent[DeferredCorpseRemoval]("deferred_corpse_removal")
)
