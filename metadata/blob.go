package metadata

import (
	"context"

	"github.com/cubefs/cubefs/blobstore/common/trace"

	"github.com/tierfs/metadb/metrics"
	"github.com/tierfs/metadb/proto"
)

// AttachBlobToBucket binds a named blob to its bucket. The blob's map
// shard and its buffer-id list both live on the node the name hashes to;
// a swap blob carries the negated node so the data plane knows not to
// touch buffer tiers.
func (m *Manager) AttachBlobToBucket(ctx context.Context, blobName string, bucketID proto.BucketID,
	bufferIDs []proto.BufferID, isSwapBlob bool) (proto.BlobID, error) {
	if err := checkBlobName(blobName); err != nil {
		return 0, err
	}
	metrics.MetadataOps.WithLabelValues("attach_blob").Inc()

	target := m.hasher.HashName(blobName)
	offset, err := m.AllocateBufferIDList(ctx, target, bufferIDs)
	if err != nil {
		return 0, err
	}
	blobID := proto.MakeBlobID(target, offset, isSwapBlob)

	if err := m.PutBlobID(ctx, blobName, blobID, bucketID); err != nil {
		return 0, err
	}
	if err := m.AddBlobIDToBucket(ctx, blobID, bucketID); err != nil {
		return 0, err
	}
	return blobID, nil
}

func (m *Manager) LocalAllocateBufferIDList(bufferIDs []proto.BufferID) uint32 {
	return m.pool.AllocateBufferIDList(bufferIDs)
}

func (m *Manager) AllocateBufferIDList(ctx context.Context, targetNode proto.NodeID, bufferIDs []proto.BufferID) (uint32, error) {
	if targetNode == m.nodeID {
		return m.LocalAllocateBufferIDList(bufferIDs), nil
	}
	var offset uint32
	err := m.call(ctx, targetNode, proto.RPCAllocateBufferIDList,
		&proto.AllocateBufferIDListArgs{BufferIDs: bufferIDs}, &offset)
	return offset, err
}

func (m *Manager) LocalGetBufferIDList(blobID proto.BlobID) []proto.BufferID {
	return m.pool.GetBufferIDList(blobID.BufferIDsOffset())
}

func (m *Manager) GetBufferIDList(ctx context.Context, blobID proto.BlobID) ([]proto.BufferID, error) {
	target := blobID.HomeNode()
	if target == m.nodeID {
		return m.LocalGetBufferIDList(blobID), nil
	}
	var out []proto.BufferID
	err := m.call(ctx, target, proto.RPCGetBufferIDList, &proto.BlobIDArgs{BlobID: blobID}, &out)
	return out, err
}

func (m *Manager) LocalFreeBufferIDList(blobID proto.BlobID) {
	m.pool.FreeBufferIDList(blobID.BufferIDsOffset())
}

func (m *Manager) FreeBufferIDList(ctx context.Context, blobID proto.BlobID) error {
	target := blobID.HomeNode()
	if target == m.nodeID {
		m.LocalFreeBufferIDList(blobID)
		return nil
	}
	return m.call(ctx, target, proto.RPCFreeBufferIDList, &proto.BlobIDArgs{BlobID: blobID}, nil)
}

// releaseBlobStorage frees both ends of a blob: the buffers (unless it
// lives in swap, where there are none) and the id list slot.
func (m *Manager) releaseBlobStorage(ctx context.Context, blobID proto.BlobID) error {
	if !blobID.InSwap() {
		bufferIDs, err := m.GetBufferIDList(ctx, blobID)
		if err != nil {
			return err
		}
		m.pool.ReleaseBuffers(bufferIDs)
	}
	// TODO(swap): invalidate the swap region entry once a swap manager exists
	return m.FreeBufferIDList(ctx, blobID)
}

// LocalDestroyBlobByName runs on the blob's home node.
func (m *Manager) LocalDestroyBlobByName(ctx context.Context, blobName string, blobID proto.BlobID, bucketID proto.BucketID) error {
	if err := m.releaseBlobStorage(ctx, blobID); err != nil {
		return err
	}
	return m.DeleteBlobID(ctx, blobName, bucketID)
}

// LocalDestroyBlobByID recovers the name from the reverse map. When the
// reverse entry is already gone the storage is still reclaimed; both frees
// are idempotent.
func (m *Manager) LocalDestroyBlobByID(ctx context.Context, blobID proto.BlobID, bucketID proto.BucketID) error {
	span := trace.SpanFromContextSafe(ctx)

	if err := m.releaseBlobStorage(ctx, blobID); err != nil {
		return err
	}

	blobName, err := m.LocalGetBlobNameFromID(ctx, blobID)
	if err != nil {
		return err
	}
	if blobName == "" {
		span.Debugf("expected to find blob %d in map but didn't", blobID)
		return nil
	}
	return m.DeleteBlobID(ctx, blobName, bucketID)
}

func (m *Manager) DestroyBlobByName(ctx context.Context, bucketID proto.BucketID, blobName string) error {
	metrics.MetadataOps.WithLabelValues("destroy_blob").Inc()

	blobID, err := m.GetBlobID(ctx, blobName, bucketID)
	if err != nil {
		return err
	}
	if blobID.IsNull() {
		return nil
	}

	target := blobID.HomeNode()
	if target == m.nodeID {
		err = m.LocalDestroyBlobByName(ctx, blobName, blobID, bucketID)
	} else {
		err = m.call(ctx, target, proto.RPCDestroyBlobByName,
			&proto.DestroyBlobByNameArgs{Name: blobName, BlobID: blobID, BucketID: bucketID}, nil)
	}
	if err != nil {
		return err
	}
	return m.RemoveBlobFromBucketInfo(ctx, bucketID, blobID)
}

func (m *Manager) DestroyBlobByID(ctx context.Context, blobID proto.BlobID, bucketID proto.BucketID) error {
	metrics.MetadataOps.WithLabelValues("destroy_blob").Inc()

	target := blobID.HomeNode()
	var err error
	if target == m.nodeID {
		err = m.LocalDestroyBlobByID(ctx, blobID, bucketID)
	} else {
		err = m.call(ctx, target, proto.RPCDestroyBlobByID,
			&proto.DestroyBlobByIDArgs{BlobID: blobID, BucketID: bucketID}, nil)
	}
	if err != nil {
		return err
	}
	return m.RemoveBlobFromBucketInfo(ctx, bucketID, blobID)
}

// RenameBlob rebinds the name while the id and buffers stay put. The
// delete and put are two steps on the maps; a concurrent lookup between
// them can observe no binding.
func (m *Manager) RenameBlob(ctx context.Context, oldName, newName string, bucketID proto.BucketID) error {
	if err := checkBlobName(newName); err != nil {
		return err
	}
	metrics.MetadataOps.WithLabelValues("rename_blob").Inc()

	blobID, err := m.GetBlobID(ctx, oldName, bucketID)
	if err != nil {
		return err
	}
	if blobID.IsNull() {
		return nil
	}
	if err := m.DeleteBlobID(ctx, oldName, bucketID); err != nil {
		return err
	}
	return m.PutBlobID(ctx, newName, blobID, bucketID)
}

func (m *Manager) ContainsBlob(ctx context.Context, bucketID proto.BucketID, blobName string) (bool, error) {
	blobID, err := m.GetBlobID(ctx, blobName, bucketID)
	if err != nil {
		return false, err
	}
	if blobID.IsNull() {
		return false, nil
	}

	target := bucketID.NodeID()
	if target == m.nodeID {
		return m.LocalContainsBlob(bucketID, blobID), nil
	}
	var contains bool
	err = m.call(ctx, target, proto.RPCContainsBlob,
		&proto.ContainsBlobArgs{BucketID: bucketID, BlobID: blobID}, &contains)
	return contains, err
}

// LocalGetBlobNameFromID strips the bucket prefix off the reverse-mapped
// internal name. Absent or prefix-only names read as empty.
func (m *Manager) LocalGetBlobNameFromID(ctx context.Context, blobID proto.BlobID) (string, error) {
	internal, err := m.store.ReverseGet(ctx, uint64(blobID), proto.MapTypeBlob)
	if err != nil {
		return "", err
	}
	if len(internal) <= proto.BucketIDStringSize {
		return "", nil
	}
	return internal[proto.BucketIDStringSize:], nil
}

func (m *Manager) GetBlobNameFromID(ctx context.Context, blobID proto.BlobID) (string, error) {
	target := blobID.HomeNode()
	if target == m.nodeID {
		return m.LocalGetBlobNameFromID(ctx, blobID)
	}
	var name string
	err := m.call(ctx, target, proto.RPCGetBlobNameFromID, &proto.BlobIDArgs{BlobID: blobID}, &name)
	return name, err
}

// LocalGetBucketIDFromBlobID decodes the owning bucket out of the internal
// name's hex prefix.
func (m *Manager) LocalGetBucketIDFromBlobID(ctx context.Context, blobID proto.BlobID) (proto.BucketID, error) {
	internal, err := m.store.ReverseGet(ctx, uint64(blobID), proto.MapTypeBlob)
	if err != nil {
		return 0, err
	}
	if len(internal) <= proto.BucketIDStringSize {
		return 0, nil
	}
	return proto.BucketID(proto.HexStringToU64(internal)), nil
}

func (m *Manager) GetBucketIDFromBlobID(ctx context.Context, blobID proto.BlobID) (proto.BucketID, error) {
	target := blobID.HomeNode()
	if target == m.nodeID {
		return m.LocalGetBucketIDFromBlobID(ctx, blobID)
	}
	var bucketID proto.BucketID
	err := m.call(ctx, target, proto.RPCGetBucketIDFromBlobID, &proto.BlobIDArgs{BlobID: blobID}, &bucketID)
	return bucketID, err
}
