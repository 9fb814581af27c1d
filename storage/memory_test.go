package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tierfs/metadb/proto"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Put(ctx, "bkt", 42, proto.MapTypeBucket))

	id, err := s.Get(ctx, "bkt", proto.MapTypeBucket)
	require.NoError(t, err)
	require.Equal(t, uint64(42), id)

	name, err := s.ReverseGet(ctx, 42, proto.MapTypeBucket)
	require.NoError(t, err)
	require.Equal(t, "bkt", name)

	// same name in another map is a different entry
	id, err = s.Get(ctx, "bkt", proto.MapTypeBlob)
	require.NoError(t, err)
	require.Equal(t, uint64(0), id)

	require.NoError(t, s.Delete(ctx, "bkt", proto.MapTypeBucket))

	id, err = s.Get(ctx, "bkt", proto.MapTypeBucket)
	require.NoError(t, err)
	require.Equal(t, uint64(0), id)

	name, err = s.ReverseGet(ctx, 42, proto.MapTypeBucket)
	require.NoError(t, err)
	require.Equal(t, "", name)
}

func TestMemoryStoreRebind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Put(ctx, "old", 7, proto.MapTypeBlob))
	require.NoError(t, s.Delete(ctx, "old", proto.MapTypeBlob))
	require.NoError(t, s.Put(ctx, "new", 7, proto.MapTypeBlob))

	name, err := s.ReverseGet(ctx, 7, proto.MapTypeBlob)
	require.NoError(t, err)
	require.Equal(t, "new", name)
}

func TestHasherRange(t *testing.T) {
	h := NewHasher(MapSeed, 3)
	names := []string{"a", "b", "c", "d", "e", "f", "some/longer/name"}
	for _, name := range names {
		node := h.HashName(name)
		require.GreaterOrEqual(t, node, uint32(1))
		require.LessOrEqual(t, node, uint32(3))
		require.Equal(t, node, h.HashName(name))
	}
}

func TestHasherSeedMatters(t *testing.T) {
	a := NewHasher(MapSeed, 64)
	b := NewHasher(MapSeed+1, 64)

	differs := false
	for _, name := range []string{"x", "y", "z", "w", "v", "u", "t", "s"} {
		if a.HashName(name) != b.HashName(name) {
			differs = true
			break
		}
	}
	require.True(t, differs)
}
