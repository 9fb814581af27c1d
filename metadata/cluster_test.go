package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tierfs/metadb/proto"
)

func TestTwoNodeBucketPlacement(t *testing.T) {
	ctx := context.Background()
	nodes := newTestCluster(t, 2, defaultTestConfig())
	node1, node2 := nodes[0].mdm, nodes[1].mdm

	name := nameHashingTo(2, 2, "bucket-")
	require.Equal(t, proto.NodeID(2), node1.HashName(name))

	// created from node 1, the slot must land on node 2
	bucketID, err := node1.GetOrCreateBucketID(ctx, name)
	require.NoError(t, err)
	require.False(t, bucketID.IsNull())
	require.Equal(t, uint32(2), bucketID.NodeID())
	require.Equal(t, uint32(1), node2.NumBuckets())
	require.Equal(t, uint32(0), node1.NumBuckets())

	// node 2 resolves the name without leaving the node
	got, err := node2.GetBucketID(ctx, name)
	require.NoError(t, err)
	require.Equal(t, bucketID, got)
}

func TestCrossNodeBlobLifecycle(t *testing.T) {
	ctx := context.Background()
	nodes := newTestCluster(t, 3, defaultTestConfig())
	node1 := nodes[0].mdm

	bucketName := nameHashingTo(3, 2, "bucket-")
	blobName := nameHashingTo(3, 3, "blob-")

	bucketID, err := node1.GetOrCreateBucketID(ctx, bucketName)
	require.NoError(t, err)
	require.Equal(t, uint32(2), bucketID.NodeID())

	// the blob's id list is allocated on its hash node, not the caller
	bufferIDs := nodes[2].pool.AllocateBuffers(0, 2, 10)
	blobID, err := node1.AttachBlobToBucket(ctx, blobName, bucketID, bufferIDs, false)
	require.NoError(t, err)
	require.Equal(t, proto.NodeID(3), blobID.HomeNode())

	contains, err := node1.ContainsBlob(ctx, bucketID, blobName)
	require.NoError(t, err)
	require.True(t, contains)

	name, err := node1.GetBlobNameFromID(ctx, blobID)
	require.NoError(t, err)
	require.Equal(t, blobName, name)

	owner, err := node1.GetBucketIDFromBlobID(ctx, blobID)
	require.NoError(t, err)
	require.Equal(t, bucketID, owner)

	list, err := node1.GetBufferIDList(ctx, blobID)
	require.NoError(t, err)
	require.Equal(t, bufferIDs, list)

	require.NoError(t, node1.DestroyBlobByName(ctx, bucketID, blobName))

	st := nodes[2].pool.Stats()
	require.Equal(t, uint64(2), st.BuffersReleased)
	require.Equal(t, uint64(1), st.ListsFreed)

	blobs, err := node1.GetBlobIDs(ctx, bucketID)
	require.NoError(t, err)
	require.Empty(t, blobs)
}

func TestRingArithmetic(t *testing.T) {
	nodes := newTestCluster(t, 3, defaultTestConfig())

	// k%N + 1 forward, wrap below 1 to N backward
	require.Equal(t, proto.NodeID(2), nodes[0].mdm.GetNextNode())
	require.Equal(t, proto.NodeID(3), nodes[0].mdm.GetPreviousNode())
	require.Equal(t, proto.NodeID(3), nodes[1].mdm.GetNextNode())
	require.Equal(t, proto.NodeID(1), nodes[1].mdm.GetPreviousNode())
	require.Equal(t, proto.NodeID(1), nodes[2].mdm.GetNextNode())
	require.Equal(t, proto.NodeID(2), nodes[2].mdm.GetPreviousNode())
}

func TestNeighborhoodTargets(t *testing.T) {
	ctx := context.Background()

	single := newTestCluster(t, 1, defaultTestConfig())
	targets, err := single[0].mdm.GetNeighborhoodTargets(ctx)
	require.NoError(t, err)
	require.Empty(t, targets)

	pair := newTestCluster(t, 2, defaultTestConfig())
	targets, err = pair[0].mdm.GetNeighborhoodTargets(ctx)
	require.NoError(t, err)
	require.Equal(t, pair[1].pool.NodeTargets(), targets)

	ring := newTestCluster(t, 3, defaultTestConfig())
	targets, err = ring[1].mdm.GetNeighborhoodTargets(ctx)
	require.NoError(t, err)

	want := append(ring[2].pool.NodeTargets(), ring[0].pool.NodeTargets()...)
	require.Equal(t, want, targets)
}

func TestFindTargetIDFromDeviceID(t *testing.T) {
	targets := []proto.TargetID{
		proto.MakeTargetID(1, 0, 0),
		proto.MakeTargetID(1, 1, 1),
		proto.MakeTargetID(2, 1, 1),
	}

	require.Equal(t, targets[1], FindTargetIDFromDeviceID(targets, 1))
	require.Equal(t, targets[0], FindTargetIDFromDeviceID(targets, 0))
	require.True(t, FindTargetIDFromDeviceID(targets, 9).IsNull())
}

func TestRemainingTargetCapacity(t *testing.T) {
	ctx := context.Background()
	nodes := newTestCluster(t, 2, defaultTestConfig())

	nodes[1].pool.AllocateBuffers(0, 3, 10)

	targets := nodes[1].pool.NodeTargets()
	capacity, err := nodes[0].mdm.GetRemainingTargetCapacity(ctx, targets[0])
	require.NoError(t, err)
	require.Equal(t, uint64(70), capacity)

	capacities, err := nodes[0].mdm.GetRemainingTargetCapacities(ctx, targets)
	require.NoError(t, err)
	require.Equal(t, []uint64{70, 200}, capacities)
}

func TestGlobalSystemViewAggregation(t *testing.T) {
	ctx := context.Background()
	nodes := newTestCluster(t, 3, defaultTestConfig())
	coordinator := nodes[0].mdm

	// seed buffers whose later release will show up as positive deltas,
	// then drain the allocation noise
	held2 := nodes[1].pool.AllocateBuffers(1, 1, 5)
	held3 := nodes[2].pool.AllocateBuffers(0, 1, 3)
	for _, n := range nodes {
		n.pool.ExchangeAdjustment(0)
		n.pool.ExchangeAdjustment(1)
	}

	before, err := coordinator.GetGlobalDeviceCapacities(ctx)
	require.NoError(t, err)

	// node 2 accumulates [-10, +5], node 3 accumulates [+3, 0]
	nodes[1].pool.AllocateBuffers(0, 1, 10)
	nodes[1].pool.ReleaseBuffers(held2)
	require.NoError(t, nodes[1].mdm.UpdateGlobalSystemViewState(ctx))

	nodes[2].pool.ReleaseBuffers(held3)
	require.NoError(t, nodes[2].mdm.UpdateGlobalSystemViewState(ctx))

	after, err := nodes[1].mdm.GetGlobalDeviceCapacities(ctx)
	require.NoError(t, err)

	require.Equal(t, int64(-7), int64(after[0])-int64(before[0]))
	require.Equal(t, int64(5), int64(after[1])-int64(before[1]))

	// adjustments were drained
	require.Equal(t, int64(0), nodes[1].pool.ExchangeAdjustment(0))
	require.Equal(t, int64(0), nodes[1].pool.ExchangeAdjustment(1))
	require.Equal(t, int64(0), nodes[2].pool.ExchangeAdjustment(0))

	// a tick with no traffic leaves the global view untouched
	require.NoError(t, nodes[1].mdm.UpdateGlobalSystemViewState(ctx))
	again, err := coordinator.GetGlobalDeviceCapacities(ctx)
	require.NoError(t, err)
	require.Equal(t, after, again)
}

func TestSwapFilename(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.SwapFilenamePrefix = "/tmp/swap_"
	cfg.SwapFilenameSuffix = ".bin"
	nodes := newTestCluster(t, 1, cfg)

	require.Equal(t, "/tmp/swap_3.bin", nodes[0].mdm.GetSwapFilename(3))
}
