package ecs

import "errors"

// ErrStaleRef is returned (or represented as a none-equivalent) whenever a
// caller addresses an entity whose generation no longer matches the Store's
// record for that index. Per spec.md §7 this is recovered locally — the
// operation becomes a no-op and the caller continues.
var ErrStaleRef = errors.New("ecs: stale entity reference")

// ErrComponentNotRegistered is returned when a ComponentType is used before
// RegisterComponent has assigned it an id.
var ErrComponentNotRegistered = errors.New("ecs: component type not registered")

// ErrComponentAbsent indicates a `get` found no component of the requested
// type on the entity. Callers treat this as a none-equivalent, never a
// fatal error.
var ErrComponentAbsent = errors.New("ecs: component absent")

// ErrSystemConflict names the condition of two systems in the same wave
// declaring overlapping write-sets. planWaves never forms such a wave, and
// nothing in this package returns or records this error.
var ErrSystemConflict = errors.New("ecs: systems in the same wave have overlapping write-sets")
