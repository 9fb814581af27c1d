package metadata

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tierfs/metadb/bufferpool"
	"github.com/tierfs/metadb/proto"
	"github.com/tierfs/metadb/rpc"
	"github.com/tierfs/metadb/storage"
)

type testNode struct {
	mdm  *Manager
	pool *bufferpool.Pool
}

// newTestCluster wires numNodes managers over the loopback transport.
func newTestCluster(t *testing.T, numNodes int, cfg Config) []*testNode {
	transports := rpc.NewLoopbackCluster(numNodes)

	nodes := make([]*testNode, 0, numNodes)
	for _, tp := range transports {
		nodeCfg := cfg
		pool := bufferpool.NewPool(tp.NodeID(), &bufferpool.Config{
			NumDevices: cfg.NumDevices,
			Capacities: cfg.Capacities,
		})
		mdm, err := NewManager(context.Background(), &nodeCfg, tp, pool)
		require.NoError(t, err)
		nodes = append(nodes, &testNode{mdm: mdm, pool: pool})
	}
	return nodes
}

func defaultTestConfig() Config {
	return Config{
		MaxBucketsPerNode:  16,
		MaxVBucketsPerNode: 16,
		NumDevices:         2,
		Capacities:         []int64{100, 200},
	}
}

// nameHashingTo finds a name the cluster hash assigns to the wanted node.
func nameHashingTo(numNodes int, want proto.NodeID, prefix string) string {
	hasher := storage.NewHasher(storage.MapSeed, uint32(numNodes))
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s%d", prefix, i)
		if hasher.HashName(name) == want {
			return name
		}
	}
}

func TestSingleNodeBlobLifecycle(t *testing.T) {
	ctx := context.Background()
	nodes := newTestCluster(t, 1, defaultTestConfig())
	mdm, pool := nodes[0].mdm, nodes[0].pool

	bucketID, err := mdm.GetOrCreateBucketID(ctx, "A")
	require.NoError(t, err)
	require.False(t, bucketID.IsNull())

	got, err := mdm.GetBucketID(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, bucketID, got)

	bufferIDs := pool.AllocateBuffers(0, 2, 10)
	blobID, err := mdm.AttachBlobToBucket(ctx, "x", bucketID, bufferIDs, false)
	require.NoError(t, err)
	require.False(t, blobID.IsNull())
	require.False(t, blobID.InSwap())

	blobs, err := mdm.GetBlobIDs(ctx, bucketID)
	require.NoError(t, err)
	require.Equal(t, []proto.BlobID{blobID}, blobs)

	contains, err := mdm.ContainsBlob(ctx, bucketID, "x")
	require.NoError(t, err)
	require.True(t, contains)

	name, err := mdm.GetBlobNameFromID(ctx, blobID)
	require.NoError(t, err)
	require.Equal(t, "x", name)

	owner, err := mdm.GetBucketIDFromBlobID(ctx, blobID)
	require.NoError(t, err)
	require.Equal(t, bucketID, owner)

	list, err := mdm.GetBufferIDList(ctx, blobID)
	require.NoError(t, err)
	require.Equal(t, bufferIDs, list)
}

func TestDestroyBlobByName(t *testing.T) {
	ctx := context.Background()
	nodes := newTestCluster(t, 1, defaultTestConfig())
	mdm, pool := nodes[0].mdm, nodes[0].pool

	bucketID, err := mdm.GetOrCreateBucketID(ctx, "A")
	require.NoError(t, err)

	bufferIDs := pool.AllocateBuffers(0, 2, 10)
	_, err = mdm.AttachBlobToBucket(ctx, "x", bucketID, bufferIDs, false)
	require.NoError(t, err)

	require.NoError(t, mdm.DestroyBlobByName(ctx, bucketID, "x"))

	contains, err := mdm.ContainsBlob(ctx, bucketID, "x")
	require.NoError(t, err)
	require.False(t, contains)

	blobID, err := mdm.GetBlobID(ctx, "x", bucketID)
	require.NoError(t, err)
	require.True(t, blobID.IsNull())

	st := pool.Stats()
	require.Equal(t, uint64(2), st.BuffersReleased)
	require.Equal(t, uint64(1), st.ListsFreed)

	// destroying again is a no-op: the name is unbound
	require.NoError(t, mdm.DestroyBlobByName(ctx, bucketID, "x"))
	st = pool.Stats()
	require.Equal(t, uint64(2), st.BuffersReleased)
	require.Equal(t, uint64(1), st.ListsFreed)
}

func TestSwapBlob(t *testing.T) {
	ctx := context.Background()
	nodes := newTestCluster(t, 1, defaultTestConfig())
	mdm, pool := nodes[0].mdm, nodes[0].pool

	bucketID, err := mdm.GetOrCreateBucketID(ctx, "B")
	require.NoError(t, err)

	blobID, err := mdm.AttachBlobToBucket(ctx, "y", bucketID, []proto.BufferID{7}, true)
	require.NoError(t, err)
	require.True(t, blobID.InSwap())
	require.Equal(t, mdm.NodeID(), blobID.HomeNode())

	require.NoError(t, mdm.DestroyBlobByName(ctx, bucketID, "y"))

	st := pool.Stats()
	require.Equal(t, uint64(0), st.BuffersReleased)
	require.Equal(t, uint64(1), st.ListsFreed)

	got, err := mdm.GetBlobID(ctx, "y", bucketID)
	require.NoError(t, err)
	require.True(t, got.IsNull())
}

func TestRenameBlob(t *testing.T) {
	ctx := context.Background()
	nodes := newTestCluster(t, 1, defaultTestConfig())
	mdm, pool := nodes[0].mdm, nodes[0].pool

	bucketID, err := mdm.GetOrCreateBucketID(ctx, "A")
	require.NoError(t, err)

	bufferIDs := pool.AllocateBuffers(0, 1, 10)
	blobID, err := mdm.AttachBlobToBucket(ctx, "old", bucketID, bufferIDs, false)
	require.NoError(t, err)

	require.NoError(t, mdm.RenameBlob(ctx, "old", "new", bucketID))

	gone, err := mdm.GetBlobID(ctx, "old", bucketID)
	require.NoError(t, err)
	require.True(t, gone.IsNull())

	got, err := mdm.GetBlobID(ctx, "new", bucketID)
	require.NoError(t, err)
	require.Equal(t, blobID, got)
}

func TestReverseMapOfUnknownID(t *testing.T) {
	ctx := context.Background()
	nodes := newTestCluster(t, 1, defaultTestConfig())
	mdm := nodes[0].mdm

	blobID := proto.MakeBlobID(1, 99, false)

	name, err := mdm.GetBlobNameFromID(ctx, blobID)
	require.NoError(t, err)
	require.Equal(t, "", name)

	owner, err := mdm.GetBucketIDFromBlobID(ctx, blobID)
	require.NoError(t, err)
	require.True(t, owner.IsNull())
}

func TestNameSizeLimits(t *testing.T) {
	ctx := context.Background()
	nodes := newTestCluster(t, 1, defaultTestConfig())
	mdm := nodes[0].mdm

	longBucket := make([]byte, proto.MaxBucketNameSize-1)
	for i := range longBucket {
		longBucket[i] = 'a'
	}
	_, err := mdm.GetOrCreateBucketID(ctx, string(longBucket))
	require.Error(t, err)

	okBucket := string(longBucket[:proto.MaxBucketNameSize-2])
	id, err := mdm.GetOrCreateBucketID(ctx, okBucket)
	require.NoError(t, err)
	require.False(t, id.IsNull())

	longBlob := make([]byte, proto.MaxBlobNameSize-1)
	for i := range longBlob {
		longBlob[i] = 'b'
	}
	_, err = mdm.AttachBlobToBucket(ctx, string(longBlob), id, nil, false)
	require.Error(t, err)
}
