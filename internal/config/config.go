// Package config loads the YAML-backed WorldConfig that parameterizes the
// tick core. Defaults apply first; a config file only specifies what it
// overrides.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// WorldConfig bundles every knob spec.md leaves to the host process:
// chunk capacity, worker count, tick rate, world bounds, gravity and the
// one debug flag spec.md §5/§9 names (CauseDesync).
type WorldConfig struct {
	ChunkCapacity int     `yaml:"chunk_capacity"`
	Workers       int     `yaml:"workers"`
	TickRate      float64 `yaml:"tick_rate"`
	Gravity       float64 `yaml:"gravity"`

	WorldMinY float64 `yaml:"world_min_y"`
	WorldMaxY float64 `yaml:"world_max_y"`

	ItemMergeRadius    float64 `yaml:"item_merge_radius"`
	ItemDefaultPickupRadius float64 `yaml:"item_default_pickup_radius"`
	CorpseRemovalSeconds    float64 `yaml:"corpse_removal_seconds"`

	// AllowPvP gates player-on-player damage; when false the PvP-rules
	// filter cancels it.
	AllowPvP bool `yaml:"allow_pvp"`

	// CauseDesync toggles the debug "desync" mode documented in spec.md
	// §9: damage is let through FilterDamage but its effect is cancelled.
	// Per DESIGN.md's resolution of that open question, this is read only
	// between ticks by the operator command surface, never mutated by a
	// system mid-tick.
	CauseDesync bool `yaml:"cause_desync"`
}

// DefaultWorldConfig gives every field a sane standalone default so a
// zero-value WorldConfig is never handed to the scheduler.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		ChunkCapacity:           512,
		Workers:                 4,
		TickRate:                20,
		Gravity:                 9.8,
		WorldMinY:               -64,
		WorldMaxY:               320,
		ItemMergeRadius:         2.0,
		ItemDefaultPickupRadius: 1.5,
		CorpseRemovalSeconds:    30,
		AllowPvP:                true,
		CauseDesync:             false,
	}
}

// Load reads a YAML file at path over DefaultWorldConfig, so a config file
// only needs to specify the fields it overrides.
func Load(path string) (WorldConfig, error) {
	cfg := DefaultWorldConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
