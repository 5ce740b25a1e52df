package collab

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectileConfig is the immutable per-projectile-kind tuning resolved
// through AssetRegistry (spec.md §4.5 "Ballistic launch").
type ProjectileConfig struct {
	ID                 string  `yaml:"id"`
	MuzzleVelocity     float64 `yaml:"muzzle_velocity"`
	VerticalCenterShot float64 `yaml:"vertical_center_shot"`
	DepthShot          float64 `yaml:"depth_shot"`
	Bounciness         float64 `yaml:"bounciness"`
	BounceLimit        int     `yaml:"bounce_limit"`
	Gravity            float64 `yaml:"gravity"`
	Drag               float64 `yaml:"drag"`
	Mass               float64 `yaml:"mass"`
	HalfExtent         float64 `yaml:"half_extent"`
	AlignToVelocity    bool    `yaml:"align_to_velocity"`
}

// DamageCauseConfig names and tunes a damage source for GatherDamage.
type DamageCauseConfig struct {
	ID          string  `yaml:"id"`
	DisplayName string  `yaml:"display_name"`
	BaseAmount  float64 `yaml:"base_amount"`
}

// ItemDescriptorConfig is the immutable per-item-kind tuning; maxStackSize
// is a property of the descriptor, not of any individual ItemStack
// (spec.md §3).
type ItemDescriptorConfig struct {
	ID           string `yaml:"id"`
	MaxStackSize uint16 `yaml:"max_stack_size"`
	// Tags are the integer tag indices tag-based inventory operations
	// (addByTag/removeByTag) match against.
	Tags []int `yaml:"tags"`
}

// WeaponBalanceConfig is the per-weapon cooldown/damage/projectile-speed
// tuple resolved from a WeaponBalanceRef component.
type WeaponBalanceConfig struct {
	ID               string  `yaml:"id"`
	CooldownSeconds  float64 `yaml:"cooldown_seconds"`
	Damage           float64 `yaml:"damage"`
	ProjectileID     string  `yaml:"projectile_id"`
}

type assetFile struct {
	Projectiles []ProjectileConfig      `yaml:"projectiles"`
	Causes      []DamageCauseConfig     `yaml:"damage_causes"`
	Items       []ItemDescriptorConfig  `yaml:"items"`
	Weapons     []WeaponBalanceConfig   `yaml:"weapons"`
}

// YAMLAssetRegistry loads a directory of YAML descriptor files into an
// immutable, lock-free-read map keyed by string id.
// Every blob is resolved eagerly here at construction time rather than
// lazily on first Get, per spec.md §9's "no check-then-act lazy init"
// guidance.
type YAMLAssetRegistry struct {
	projectiles map[string]ProjectileConfig
	causes      map[string]DamageCauseConfig
	items       map[string]ItemDescriptorConfig
	weapons     map[string]WeaponBalanceConfig
}

// LoadYAMLAssetRegistry reads every *.yaml file directly under dir and
// merges their contents into one registry.
func LoadYAMLAssetRegistry(dir string) (*YAMLAssetRegistry, error) {
	reg := &YAMLAssetRegistry{
		projectiles: make(map[string]ProjectileConfig),
		causes:      make(map[string]DamageCauseConfig),
		items:       make(map[string]ItemDescriptorConfig),
		weapons:     make(map[string]WeaponBalanceConfig),
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("collab: glob asset dir %q: %w", dir, err)
	}
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("collab: read asset file %q: %w", path, err)
		}
		var f assetFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("collab: parse asset file %q: %w", path, err)
		}
		for _, p := range f.Projectiles {
			reg.projectiles[p.ID] = p
		}
		for _, c := range f.Causes {
			reg.causes[c.ID] = c
		}
		for _, i := range f.Items {
			reg.items[i.ID] = i
		}
		for _, w := range f.Weapons {
			reg.weapons[w.ID] = w
		}
	}
	return reg, nil
}

// NewStaticAssetRegistry builds a registry directly from in-memory config
// slices, used by tests and by cmd/tickserver, which builds an empty
// registry with it when no asset directory is configured.
func NewStaticAssetRegistry(projectiles []ProjectileConfig, causes []DamageCauseConfig, items []ItemDescriptorConfig, weapons []WeaponBalanceConfig) *YAMLAssetRegistry {
	reg := &YAMLAssetRegistry{
		projectiles: make(map[string]ProjectileConfig, len(projectiles)),
		causes:      make(map[string]DamageCauseConfig, len(causes)),
		items:       make(map[string]ItemDescriptorConfig, len(items)),
		weapons:     make(map[string]WeaponBalanceConfig, len(weapons)),
	}
	for _, p := range projectiles {
		reg.projectiles[p.ID] = p
	}
	for _, c := range causes {
		reg.causes[c.ID] = c
	}
	for _, i := range items {
		reg.items[i.ID] = i
	}
	for _, w := range weapons {
		reg.weapons[w.ID] = w
	}
	return reg
}

func (r *YAMLAssetRegistry) ProjectileConfig(id string) (ProjectileConfig, bool) {
	v, ok := r.projectiles[id]
	return v, ok
}

func (r *YAMLAssetRegistry) DamageCause(id string) (DamageCauseConfig, bool) {
	v, ok := r.causes[id]
	return v, ok
}

func (r *YAMLAssetRegistry) ItemDescriptor(id string) (ItemDescriptorConfig, bool) {
	v, ok := r.items[id]
	return v, ok
}

func (r *YAMLAssetRegistry) WeaponBalance(id string) (WeaponBalanceConfig, bool) {
	v, ok := r.weapons[id]
	return v, ok
}
