package metadata

import (
	"context"
	"sync/atomic"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/cubefs/cubefs/blobstore/util/log"

	"github.com/tierfs/metadb/metrics"
	"github.com/tierfs/metadb/proto"
)

// bucketStats is kept per slot and cleared on reuse. The metadata plane
// never interprets it.
type bucketStats struct {
	BlobsAdded   uint64 `json:"blobs_added"`
	BlobsRemoved uint64 `json:"blobs_removed"`
}

type bucketInfo struct {
	active   bool
	refCount int32
	nextFree proto.BucketID
	blobs    []proto.BlobID
	stats    bucketStats
}

func (m *Manager) bucketByIndex(index uint32) *bucketInfo {
	return &m.buckets[index]
}

// localGetNextFreeBucketID pops the free list and activates the slot.
// Caller holds bucketMutex.
func (m *Manager) localGetNextFreeBucketID(ctx context.Context, name string) (proto.BucketID, error) {
	span := trace.SpanFromContextSafe(ctx)

	if m.numBuckets >= m.maxBuckets {
		span.Errorf("exceeded max allowed buckets, increase max_buckets_per_node")
		return 0, nil
	}

	result := m.firstFreeBucket
	if result.IsNull() {
		return 0, nil
	}

	info := m.bucketByIndex(result.Index())
	info.blobs = nil
	info.stats = bucketStats{}
	atomic.StoreInt32(&info.refCount, 1)
	info.active = true
	m.firstFreeBucket = info.nextFree
	m.numBuckets++

	if err := m.LocalPutBucketID(ctx, name, result); err != nil {
		return 0, err
	}
	return result, nil
}

// LocalGetOrCreateBucketID opens the bucket if the name is bound, creating
// it from the free list otherwise. A null result means the table is full.
func (m *Manager) LocalGetOrCreateBucketID(ctx context.Context, name string) (proto.BucketID, error) {
	span := trace.SpanFromContextSafe(ctx)

	m.bucketMutex.Lock()
	defer m.bucketMutex.Unlock()

	result, err := m.LocalGetBucketID(ctx, name)
	if err != nil {
		return 0, err
	}
	if !result.IsNull() {
		span.Infof("opening bucket %s", name)
		m.LocalIncrementRefcount(result)
		return result, nil
	}

	span.Infof("creating bucket %s", name)
	return m.localGetNextFreeBucketID(ctx, name)
}

func (m *Manager) GetOrCreateBucketID(ctx context.Context, name string) (proto.BucketID, error) {
	if err := checkBucketName(name); err != nil {
		return 0, err
	}
	metrics.MetadataOps.WithLabelValues("get_or_create_bucket").Inc()

	target := m.hasher.HashName(name)
	if target == m.nodeID {
		return m.LocalGetOrCreateBucketID(ctx, name)
	}
	var result proto.BucketID
	err := m.call(ctx, target, proto.RPCGetOrCreateBucketID, &proto.NameArgs{Name: name}, &result)
	return result, err
}

func (m *Manager) LocalIncrementRefcount(id proto.BucketID) {
	info := m.bucketByIndex(id.Index())
	atomic.AddInt32(&info.refCount, 1)
}

func (m *Manager) LocalDecrementRefcount(id proto.BucketID) {
	info := m.bucketByIndex(id.Index())
	if atomic.AddInt32(&info.refCount, -1) < 0 {
		log.Fatalf("bucket %d refcount went negative", id)
	}
}

func (m *Manager) DecrementRefcount(ctx context.Context, id proto.BucketID) error {
	target := id.NodeID()
	if target == m.nodeID {
		m.LocalDecrementRefcount(id)
		return nil
	}
	return m.call(ctx, target, proto.RPCDecrementRefcount, &proto.BucketIDArgs{BucketID: id}, nil)
}

// LocalAddBlobIDToBucket appends to the membership list. Only the bucket's
// home node ever mutates the list, under the bucket mutex.
func (m *Manager) LocalAddBlobIDToBucket(bucketID proto.BucketID, blobID proto.BlobID) {
	m.bucketMutex.Lock()
	info := m.bucketByIndex(bucketID.Index())
	info.blobs = append(info.blobs, blobID)
	info.stats.BlobsAdded++
	m.bucketMutex.Unlock()
}

func (m *Manager) AddBlobIDToBucket(ctx context.Context, blobID proto.BlobID, bucketID proto.BucketID) error {
	target := bucketID.NodeID()
	if target == m.nodeID {
		m.LocalAddBlobIDToBucket(bucketID, blobID)
		return nil
	}
	return m.call(ctx, target, proto.RPCAddBlobIDToBucket,
		&proto.AddBlobToBucketArgs{BucketID: bucketID, BlobID: blobID}, nil)
}

func (m *Manager) LocalRemoveBlobFromBucketInfo(bucketID proto.BucketID, blobID proto.BlobID) {
	m.bucketMutex.Lock()
	info := m.bucketByIndex(bucketID.Index())
	for i, b := range info.blobs {
		if b == blobID {
			info.blobs = append(info.blobs[:i], info.blobs[i+1:]...)
			info.stats.BlobsRemoved++
			break
		}
	}
	m.bucketMutex.Unlock()
}

func (m *Manager) RemoveBlobFromBucketInfo(ctx context.Context, bucketID proto.BucketID, blobID proto.BlobID) error {
	target := bucketID.NodeID()
	if target == m.nodeID {
		m.LocalRemoveBlobFromBucketInfo(bucketID, blobID)
		return nil
	}
	return m.call(ctx, target, proto.RPCRemoveBlobFromBucketInfo,
		&proto.RemoveBlobArgs{BucketID: bucketID, BlobID: blobID}, nil)
}

func (m *Manager) LocalContainsBlob(bucketID proto.BucketID, blobID proto.BlobID) bool {
	m.bucketMutex.Lock()
	defer m.bucketMutex.Unlock()

	info := m.bucketByIndex(bucketID.Index())
	for _, b := range info.blobs {
		if b == blobID {
			return true
		}
	}
	return false
}

func (m *Manager) LocalGetBlobIDs(bucketID proto.BucketID) []proto.BlobID {
	m.bucketMutex.Lock()
	info := m.bucketByIndex(bucketID.Index())
	out := make([]proto.BlobID, len(info.blobs))
	copy(out, info.blobs)
	m.bucketMutex.Unlock()
	return out
}

// GetBlobIDs returns a copy of the bucket's membership list.
func (m *Manager) GetBlobIDs(ctx context.Context, bucketID proto.BucketID) ([]proto.BlobID, error) {
	target := bucketID.NodeID()
	if target == m.nodeID {
		return m.LocalGetBlobIDs(bucketID), nil
	}
	var out []proto.BlobID
	err := m.call(ctx, target, proto.RPCGetBlobIDs, &proto.BucketIDArgs{BucketID: bucketID}, &out)
	return out, err
}

// LocalDestroyBucket tears the bucket down once it is idle: every blob is
// destroyed, the name unbound and the slot pushed back on the free list.
// Returns false while other handles keep it open.
func (m *Manager) LocalDestroyBucket(ctx context.Context, name string, bucketID proto.BucketID) (bool, error) {
	span := trace.SpanFromContextSafe(ctx)

	m.bucketMutex.Lock()
	info := m.bucketByIndex(bucketID.Index())
	if !info.active {
		m.bucketMutex.Unlock()
		return false, nil
	}
	if atomic.LoadInt32(&info.refCount) > 1 {
		span.Warnf("cannot destroy bucket %s: %d open handles", name, atomic.LoadInt32(&info.refCount))
		m.bucketMutex.Unlock()
		return false, nil
	}
	blobs := make([]proto.BlobID, len(info.blobs))
	copy(blobs, info.blobs)
	m.bucketMutex.Unlock()

	for _, blobID := range blobs {
		if err := m.DestroyBlobByID(ctx, blobID, bucketID); err != nil {
			return false, err
		}
	}

	m.bucketMutex.Lock()
	info.blobs = nil
	info.stats = bucketStats{}
	atomic.StoreInt32(&info.refCount, 0)
	info.active = false
	info.nextFree = m.firstFreeBucket
	m.firstFreeBucket = bucketID
	m.numBuckets--
	m.bucketMutex.Unlock()

	if err := m.LocalDelete(ctx, name, proto.MapTypeBucket); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) DestroyBucket(ctx context.Context, name string, bucketID proto.BucketID) (bool, error) {
	metrics.MetadataOps.WithLabelValues("destroy_bucket").Inc()

	target := bucketID.NodeID()
	if target == m.nodeID {
		return m.LocalDestroyBucket(ctx, name, bucketID)
	}
	var destroyed bool
	err := m.call(ctx, target, proto.RPCDestroyBucket,
		&proto.DestroyBucketArgs{Name: name, BucketID: bucketID}, &destroyed)
	return destroyed, err
}

// LocalRenameBucket rebinds the name. The delete and put are two steps;
// a lookup between them can miss.
func (m *Manager) LocalRenameBucket(ctx context.Context, id proto.BucketID, oldName, newName string) error {
	if err := m.DeleteBucketID(ctx, oldName); err != nil {
		return err
	}
	return m.PutBucketID(ctx, newName, id)
}

func (m *Manager) RenameBucket(ctx context.Context, id proto.BucketID, oldName, newName string) error {
	if err := checkBucketName(newName); err != nil {
		return err
	}
	metrics.MetadataOps.WithLabelValues("rename_bucket").Inc()

	target := id.NodeID()
	if target == m.nodeID {
		return m.LocalRenameBucket(ctx, id, oldName, newName)
	}
	return m.call(ctx, target, proto.RPCRenameBucket,
		&proto.RenameBucketArgs{BucketID: id, OldName: oldName, NewName: newName}, nil)
}

// NumBuckets reports the active slot count.
func (m *Manager) NumBuckets() uint32 {
	m.bucketMutex.Lock()
	n := m.numBuckets
	m.bucketMutex.Unlock()
	return n
}

// BucketRefcount reads the slot's handle count.
func (m *Manager) BucketRefcount(id proto.BucketID) int32 {
	return atomic.LoadInt32(&m.bucketByIndex(id.Index()).refCount)
}
