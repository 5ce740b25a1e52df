package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct{ X, Y float64 }
type label struct{ Name string }
type tag struct{}

var (
	testPositionType = RegisterComponent[position]("test_position")
	testLabelType    = RegisterComponent[label]("test_label")
	testTagType      = RegisterComponent[tag]("test_tag")
)

func TestSpawnAndGet(t *testing.T) {
	s := NewStore(0)
	ref := s.Spawn(C(testPositionType, position{X: 1, Y: 2}))

	require.True(t, s.IsValid(ref))
	p, ok := GetComponent[position](s, ref, testPositionType)
	require.True(t, ok)
	assert.Equal(t, position{X: 1, Y: 2}, p)

	// absent component is a none-equivalent, not an error.
	_, ok = GetComponent[label](s, ref, testLabelType)
	assert.False(t, ok)
}

func TestDestroy_RefBecomesStale(t *testing.T) {
	s := NewStore(0)
	ref := s.Spawn(C(testPositionType, position{}))

	buf := NewCommandBuffer(s, 0, "test", 0)
	buf.DestroyEntity(ref)
	stats, _ := Sync(s, []*CommandBuffer{buf})
	assert.Equal(t, 1, stats.Destroyed)

	assert.False(t, s.IsValid(ref))
	_, ok := GetComponent[position](s, ref, testPositionType)
	assert.False(t, ok)

	// the recycled index carries a bumped generation: the old ref stays
	// stale forever even after the slot is reused.
	again := s.Spawn(C(testPositionType, position{X: 9}))
	assert.Equal(t, ref.Index, again.Index)
	assert.NotEqual(t, ref.Generation, again.Generation)
	assert.False(t, s.IsValid(ref))
	assert.True(t, s.IsValid(again))
}

func TestDestroy_DuplicateIsNoOp(t *testing.T) {
	s := NewStore(0)
	ref := s.Spawn(C(testPositionType, position{}))

	buf := NewCommandBuffer(s, 0, "test", 0)
	buf.DestroyEntity(ref)
	buf.DestroyEntity(ref)
	stats, _ := Sync(s, []*CommandBuffer{buf})

	assert.Equal(t, 1, stats.Destroyed)
	assert.Equal(t, 0, s.EntityCount())
}

func TestAddComponent_MovesArchetypeKeepsRefValid(t *testing.T) {
	s := NewStore(0)
	ref := s.Spawn(C(testPositionType, position{X: 3}))

	buf := NewCommandBuffer(s, 0, "test", 0)
	AddComponent(buf, ref, testLabelType, label{Name: "arrow"})
	_, events := Sync(s, []*CommandBuffer{buf})

	require.Len(t, events, 1)
	assert.Equal(t, ChangeEvent{Ref: ref, Type: testLabelType, Kind: Added}, events[0])

	// structural move preserves the generation and the untouched column.
	require.True(t, s.IsValid(ref))
	p, ok := GetComponent[position](s, ref, testPositionType)
	require.True(t, ok)
	assert.Equal(t, 3.0, p.X)
	l, ok := GetComponent[label](s, ref, testLabelType)
	require.True(t, ok)
	assert.Equal(t, "arrow", l.Name)
}

func TestAddComponent_DuplicateIsLastWriterWins(t *testing.T) {
	s := NewStore(0)
	ref := s.Spawn(C(testLabelType, label{Name: "a"}))

	buf := NewCommandBuffer(s, 0, "test", 0)
	AddComponent(buf, ref, testLabelType, label{Name: "b"})
	AddComponent(buf, ref, testLabelType, label{Name: "c"})
	Sync(s, []*CommandBuffer{buf})

	l, _ := GetComponent[label](s, ref, testLabelType)
	assert.Equal(t, "c", l.Name)
	// archetype unchanged: one label column, no move happened.
	assert.Len(t, s.Archetypes(), 1)
}

func TestRemoveComponent(t *testing.T) {
	s := NewStore(0)
	ref := s.Spawn(C(testPositionType, position{X: 1}), C(testLabelType, label{Name: "x"}))

	buf := NewCommandBuffer(s, 0, "test", 0)
	buf.RemoveComponent(ref, testLabelType)
	_, events := Sync(s, []*CommandBuffer{buf})

	require.Len(t, events, 1)
	assert.Equal(t, Removed, events[0].Kind)
	assert.False(t, s.HasComponent(ref, testLabelType))
	p, ok := GetComponent[position](s, ref, testPositionType)
	require.True(t, ok)
	assert.Equal(t, 1.0, p.X)

	// removing an absent type is a no-op and emits no event.
	buf2 := NewCommandBuffer(s, 0, "test", 0)
	buf2.RemoveComponent(ref, testLabelType)
	stats, events := Sync(s, []*CommandBuffer{buf2})
	assert.Zero(t, stats.Removed)
	assert.Empty(t, events)
}

func TestSetComponent_Idempotent(t *testing.T) {
	s := NewStore(0)
	ref := s.Spawn(C(testPositionType, position{}))

	buf := NewCommandBuffer(s, 0, "test", 0)
	SetComponent(buf, ref, testPositionType, position{X: 5})
	SetComponent(buf, ref, testPositionType, position{X: 5})
	_, events := Sync(s, []*CommandBuffer{buf})

	assert.Empty(t, events) // Set never fires RefChange events
	p, _ := GetComponent[position](s, ref, testPositionType)
	assert.Equal(t, 5.0, p.X)
	assert.Len(t, s.Archetypes(), 1)
}

func TestSync_MutationsApplyBeforeDestroy(t *testing.T) {
	s := NewStore(0)
	ref := s.Spawn(C(testPositionType, position{}))

	// destroy recorded before the write; rule 3 still applies the write
	// first and the destruction last.
	buf := NewCommandBuffer(s, 0, "test", 0)
	buf.DestroyEntity(ref)
	SetComponent(buf, ref, testPositionType, position{X: 7})
	stats, _ := Sync(s, []*CommandBuffer{buf})

	assert.Equal(t, 1, stats.Set)
	assert.Equal(t, 1, stats.Destroyed)
	assert.False(t, s.IsValid(ref))
}

func TestSync_WritesToDestroyedRefDiscardedNextSync(t *testing.T) {
	s := NewStore(0)
	ref := s.Spawn(C(testPositionType, position{}))

	buf := NewCommandBuffer(s, 0, "test", 0)
	buf.DestroyEntity(ref)
	Sync(s, []*CommandBuffer{buf})

	buf2 := NewCommandBuffer(s, 0, "test", 0)
	SetComponent(buf2, ref, testPositionType, position{X: 1})
	AddComponent(buf2, ref, testLabelType, label{})
	stats, events := Sync(s, []*CommandBuffer{buf2})

	assert.Zero(t, stats.Set)
	assert.Zero(t, stats.Added)
	assert.Empty(t, events)
}

func TestCreateEntity_VisibleOnlyAfterSync(t *testing.T) {
	s := NewStore(0)
	buf := NewCommandBuffer(s, 0, "test", 0)
	ref := buf.CreateEntity(C(testPositionType, position{X: 2}))

	q := NewQuery(testPositionType)
	assert.Empty(t, q.Chunks(s))
	assert.False(t, s.IsValid(ref))

	Sync(s, []*CommandBuffer{buf})
	assert.True(t, s.IsValid(ref))
	assert.Len(t, q.Chunks(s), 1)
}

func TestSync_DeterministicCrossBufferOrder(t *testing.T) {
	s := NewStore(0)
	ref := s.Spawn(C(testLabelType, label{}))

	// bufB sorts after bufA by systemID; its write must win regardless of
	// the order the buffers are handed to Sync.
	bufA := NewCommandBuffer(s, 0, "a-system", 0)
	bufB := NewCommandBuffer(s, 0, "b-system", 0)
	SetComponent(bufA, ref, testLabelType, label{Name: "from-a"})
	SetComponent(bufB, ref, testLabelType, label{Name: "from-b"})

	Sync(s, []*CommandBuffer{bufB, bufA})

	l, _ := GetComponent[label](s, ref, testLabelType)
	assert.Equal(t, "from-b", l.Name)
}

func TestQuery_RequiresAndExcludes(t *testing.T) {
	s := NewStore(0)
	plain := s.Spawn(C(testPositionType, position{}))
	tagged := s.Spawn(C(testPositionType, position{}), C(testTagType, tag{}))

	var matched []Ref
	NewQuery(testPositionType).Exclude(testTagType).ForEach(s, func(a ComponentAccessor) {
		matched = append(matched, a.Ref())
	})

	assert.Equal(t, []Ref{plain}, matched)

	matched = nil
	NewQuery(testPositionType, testTagType).ForEach(s, func(a ComponentAccessor) {
		matched = append(matched, a.Ref())
	})
	assert.Equal(t, []Ref{tagged}, matched)
}

func TestChunk_StaysDenseAfterRemoval(t *testing.T) {
	s := NewStore(4)
	refs := make([]Ref, 6)
	for i := range refs {
		refs[i] = s.Spawn(C(testPositionType, position{X: float64(i)}))
	}

	buf := NewCommandBuffer(s, 0, "test", 0)
	buf.DestroyEntity(refs[0])
	buf.DestroyEntity(refs[4])
	Sync(s, []*CommandBuffer{buf})

	assert.Equal(t, 4, s.EntityCount())
	for _, ref := range []Ref{refs[1], refs[2], refs[3], refs[5]} {
		require.True(t, s.IsValid(ref))
		p, ok := GetComponent[position](s, ref, testPositionType)
		require.True(t, ok)
		assert.Equal(t, float64(ref.Index-refs[0].Index), p.X)
	}

	// every surviving entity sits below Count in its chunk: no holes.
	total := 0
	for _, c := range NewQuery(testPositionType).Chunks(s) {
		for slot := 0; slot < c.Count(); slot++ {
			assert.True(t, s.IsValid(c.Ref(slot)))
			total++
		}
	}
	assert.Equal(t, 4, total)
}

func TestChunk_SpawnsNewChunkWhenFull(t *testing.T) {
	s := NewStore(2)
	for i := 0; i < 5; i++ {
		s.Spawn(C(testPositionType, position{}))
	}
	chunks := NewQuery(testPositionType).Chunks(s)
	assert.Len(t, chunks, 3)
	assert.Equal(t, 5, s.EntityCount())
}
