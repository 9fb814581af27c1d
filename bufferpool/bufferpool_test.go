package bufferpool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tierfs/metadb/proto"
)

func TestBufferIDListLifecycle(t *testing.T) {
	pool := NewPool(1, &Config{NumDevices: 1, Capacities: []int64{1 << 20}})

	ids := []proto.BufferID{proto.MakeBufferID(1, 1), proto.MakeBufferID(1, 2)}
	off := pool.AllocateBufferIDList(ids)
	require.NotEqual(t, uint32(0), off)
	require.Equal(t, ids, pool.GetBufferIDList(off))

	pool.FreeBufferIDList(off)
	require.Empty(t, pool.GetBufferIDList(off))

	// double free does not count twice
	pool.FreeBufferIDList(off)
	require.Equal(t, uint64(1), pool.Stats().ListsFreed)

	// freed slot is reused
	off2 := pool.AllocateBufferIDList(ids[:1])
	require.Equal(t, off, off2)
}

func TestReleaseAdjustsCapacity(t *testing.T) {
	pool := NewPool(1, &Config{NumDevices: 2, Capacities: []int64{100, 200}})

	ids := pool.AllocateBuffers(0, 2, 10)
	require.Len(t, ids, 2)
	require.Equal(t, uint64(10), pool.GetBufferSize(ids[0]))

	targets := pool.NodeTargets()
	require.Len(t, targets, 2)
	require.Equal(t, uint64(80), pool.Target(targets[0]).RemainingSpace())

	require.Equal(t, int64(-20), pool.ExchangeAdjustment(0))
	require.Equal(t, int64(0), pool.ExchangeAdjustment(0))

	pool.ReleaseBuffers(ids)
	require.Equal(t, uint64(100), pool.Target(targets[0]).RemainingSpace())
	require.Equal(t, int64(20), pool.ExchangeAdjustment(0))

	// second release of the same ids is a no-op
	pool.ReleaseBuffers(ids)
	require.Equal(t, uint64(2), pool.Stats().BuffersReleased)
	require.Equal(t, int64(0), pool.ExchangeAdjustment(0))
}
