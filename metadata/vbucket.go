package metadata

import (
	"context"
	"sync/atomic"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"github.com/cubefs/cubefs/blobstore/util/log"

	"github.com/tierfs/metadb/errors"
	"github.com/tierfs/metadb/metrics"
	"github.com/tierfs/metadb/proto"
)

type vbucketStats struct {
	BlobsLinked   uint64 `json:"blobs_linked"`
	BlobsUnlinked uint64 `json:"blobs_unlinked"`
}

// vbucketInfo mirrors bucketInfo plus the trait table, which is
// zero-filled every time the slot is taken from the free list.
type vbucketInfo struct {
	active   bool
	refCount int32
	nextFree proto.VBucketID
	blobs    []proto.BlobID
	traits   [proto.MaxTraitsPerVBucket]proto.TraitID
	stats    vbucketStats
}

func (m *Manager) vbucketByIndex(index uint32) *vbucketInfo {
	return &m.vbuckets[index]
}

// Caller holds vbucketMutex.
func (m *Manager) localGetNextFreeVBucketID(ctx context.Context, name string) (proto.VBucketID, error) {
	span := trace.SpanFromContextSafe(ctx)

	if m.numVBuckets >= m.maxVBuckets {
		span.Errorf("exceeded max allowed vbuckets, increase max_vbuckets_per_node")
		return 0, nil
	}

	result := m.firstFreeVBucket
	if result.IsNull() {
		return 0, nil
	}

	info := m.vbucketByIndex(result.Index())
	info.blobs = nil
	info.stats = vbucketStats{}
	info.traits = [proto.MaxTraitsPerVBucket]proto.TraitID{}
	atomic.StoreInt32(&info.refCount, 1)
	info.active = true
	m.firstFreeVBucket = info.nextFree
	m.numVBuckets++

	if err := m.LocalPutVBucketID(ctx, name, result); err != nil {
		return 0, err
	}
	return result, nil
}

func (m *Manager) LocalGetOrCreateVBucketID(ctx context.Context, name string) (proto.VBucketID, error) {
	span := trace.SpanFromContextSafe(ctx)

	m.vbucketMutex.Lock()
	defer m.vbucketMutex.Unlock()

	result, err := m.LocalGetVBucketID(ctx, name)
	if err != nil {
		return 0, err
	}
	if !result.IsNull() {
		span.Infof("opening vbucket %s", name)
		m.LocalIncrementRefcountVBucket(result)
		return result, nil
	}

	span.Infof("creating vbucket %s", name)
	return m.localGetNextFreeVBucketID(ctx, name)
}

func (m *Manager) GetOrCreateVBucketID(ctx context.Context, name string) (proto.VBucketID, error) {
	if err := checkVBucketName(name); err != nil {
		return 0, err
	}
	metrics.MetadataOps.WithLabelValues("get_or_create_vbucket").Inc()

	target := m.hasher.HashName(name)
	if target == m.nodeID {
		return m.LocalGetOrCreateVBucketID(ctx, name)
	}
	var result proto.VBucketID
	err := m.call(ctx, target, proto.RPCGetOrCreateVBucketID, &proto.NameArgs{Name: name}, &result)
	return result, err
}

func (m *Manager) LocalIncrementRefcountVBucket(id proto.VBucketID) {
	info := m.vbucketByIndex(id.Index())
	atomic.AddInt32(&info.refCount, 1)
}

func (m *Manager) LocalDecrementRefcountVBucket(id proto.VBucketID) {
	info := m.vbucketByIndex(id.Index())
	if atomic.AddInt32(&info.refCount, -1) < 0 {
		log.Fatalf("vbucket %d refcount went negative", id)
	}
}

func (m *Manager) DecrementRefcountVBucket(ctx context.Context, id proto.VBucketID) error {
	target := id.NodeID()
	if target == m.nodeID {
		m.LocalDecrementRefcountVBucket(id)
		return nil
	}
	return m.call(ctx, target, proto.RPCDecrementRefcountVBucket, &proto.VBucketIDArgs{VBucketID: id}, nil)
}

func (m *Manager) LocalAddBlobIDToVBucket(vbucketID proto.VBucketID, blobID proto.BlobID) {
	m.vbucketMutex.Lock()
	info := m.vbucketByIndex(vbucketID.Index())
	info.blobs = append(info.blobs, blobID)
	info.stats.BlobsLinked++
	m.vbucketMutex.Unlock()
}

func (m *Manager) AddBlobIDToVBucket(ctx context.Context, blobID proto.BlobID, vbucketID proto.VBucketID) error {
	target := vbucketID.NodeID()
	if target == m.nodeID {
		m.LocalAddBlobIDToVBucket(vbucketID, blobID)
		return nil
	}
	return m.call(ctx, target, proto.RPCAddBlobIDToVBucket,
		&proto.AddBlobToVBucketArgs{VBucketID: vbucketID, BlobID: blobID}, nil)
}

// GetVBucketBlobs lists the blobs linked into the vbucket. The vbucket
// does not own them; destroying a blob elsewhere leaves a dangling link.
// No operation removes a blob from a vbucket.
func (m *Manager) GetVBucketBlobs(vbucketID proto.VBucketID) []proto.BlobID {
	m.vbucketMutex.Lock()
	info := m.vbucketByIndex(vbucketID.Index())
	out := make([]proto.BlobID, len(info.blobs))
	copy(out, info.blobs)
	m.vbucketMutex.Unlock()
	return out
}

// AttachTrait records a trait on the vbucket. The table is fixed size.
func (m *Manager) AttachTrait(vbucketID proto.VBucketID, trait proto.TraitID) error {
	m.vbucketMutex.Lock()
	defer m.vbucketMutex.Unlock()

	info := m.vbucketByIndex(vbucketID.Index())
	for i, t := range info.traits {
		if t == trait {
			return nil
		}
		if t == 0 {
			info.traits[i] = trait
			return nil
		}
	}
	return errors.ErrTooManyTraits
}

func (m *Manager) DetachTrait(vbucketID proto.VBucketID, trait proto.TraitID) {
	m.vbucketMutex.Lock()
	defer m.vbucketMutex.Unlock()

	info := m.vbucketByIndex(vbucketID.Index())
	for i, t := range info.traits {
		if t == trait {
			copy(info.traits[i:], info.traits[i+1:])
			info.traits[len(info.traits)-1] = 0
			return
		}
	}
}

// Traits returns the attached traits in attach order.
func (m *Manager) Traits(vbucketID proto.VBucketID) []proto.TraitID {
	m.vbucketMutex.Lock()
	defer m.vbucketMutex.Unlock()

	info := m.vbucketByIndex(vbucketID.Index())
	out := make([]proto.TraitID, 0, len(info.traits))
	for _, t := range info.traits {
		if t != 0 {
			out = append(out, t)
		}
	}
	return out
}

func (m *Manager) NumVBuckets() uint32 {
	m.vbucketMutex.Lock()
	n := m.numVBuckets
	m.vbucketMutex.Unlock()
	return n
}

func (m *Manager) VBucketRefcount(id proto.VBucketID) int32 {
	return atomic.LoadInt32(&m.vbucketByIndex(id.Index()).refCount)
}
