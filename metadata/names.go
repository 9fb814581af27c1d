package metadata

import (
	"context"

	"github.com/tierfs/metadb/errors"
	"github.com/tierfs/metadb/proto"
)

// Name length limits are checked before any mutation; the +1 keeps parity
// with fixed-size name buffers on the data plane.
func IsBlobNameTooLong(name string) bool {
	return len(name)+1 >= proto.MaxBlobNameSize
}

func IsBucketNameTooLong(name string) bool {
	return len(name)+1 >= proto.MaxBucketNameSize
}

func IsVBucketNameTooLong(name string) bool {
	return len(name)+1 >= proto.MaxVBucketNameSize
}

func checkBucketName(name string) error {
	if IsBucketNameTooLong(name) {
		return errors.ErrBucketNameTooLong
	}
	return nil
}

func checkVBucketName(name string) error {
	if IsVBucketNameTooLong(name) {
		return errors.ErrVBucketNameTooLong
	}
	return nil
}

func checkBlobName(name string) error {
	if IsBlobNameTooLong(name) {
		return errors.ErrBlobNameTooLong
	}
	return nil
}

// LocalPut records name -> id in this node's shard of the map.
func (m *Manager) LocalPut(ctx context.Context, name string, id uint64, mt proto.MapType) error {
	return m.store.Put(ctx, name, id, mt)
}

// LocalGet reads this node's shard; 0 means absent.
func (m *Manager) LocalGet(ctx context.Context, name string, mt proto.MapType) (uint64, error) {
	return m.store.Get(ctx, name, mt)
}

func (m *Manager) LocalDelete(ctx context.Context, name string, mt proto.MapType) error {
	return m.store.Delete(ctx, name, mt)
}

func (m *Manager) getID(ctx context.Context, name string, mt proto.MapType) (uint64, error) {
	target := m.hasher.HashName(name)
	if target == m.nodeID {
		return m.LocalGet(ctx, name, mt)
	}
	var id uint64
	err := m.call(ctx, target, proto.RPCGet, &proto.GetArgs{Name: name, Map: mt}, &id)
	return id, err
}

func (m *Manager) putID(ctx context.Context, name string, id uint64, mt proto.MapType) error {
	target := m.hasher.HashName(name)
	if target == m.nodeID {
		return m.LocalPut(ctx, name, id, mt)
	}
	return m.call(ctx, target, proto.RPCPut, &proto.PutArgs{Name: name, ID: id, Map: mt}, nil)
}

func (m *Manager) deleteID(ctx context.Context, name string, mt proto.MapType) error {
	target := m.hasher.HashName(name)
	if target == m.nodeID {
		return m.LocalDelete(ctx, name, mt)
	}
	return m.call(ctx, target, proto.RPCDelete, &proto.DeleteArgs{Name: name, Map: mt}, nil)
}

func (m *Manager) GetBucketID(ctx context.Context, name string) (proto.BucketID, error) {
	id, err := m.getID(ctx, name, proto.MapTypeBucket)
	return proto.BucketID(id), err
}

func (m *Manager) LocalGetBucketID(ctx context.Context, name string) (proto.BucketID, error) {
	id, err := m.LocalGet(ctx, name, proto.MapTypeBucket)
	return proto.BucketID(id), err
}

func (m *Manager) PutBucketID(ctx context.Context, name string, id proto.BucketID) error {
	return m.putID(ctx, name, uint64(id), proto.MapTypeBucket)
}

func (m *Manager) LocalPutBucketID(ctx context.Context, name string, id proto.BucketID) error {
	return m.LocalPut(ctx, name, uint64(id), proto.MapTypeBucket)
}

func (m *Manager) DeleteBucketID(ctx context.Context, name string) error {
	return m.deleteID(ctx, name, proto.MapTypeBucket)
}

func (m *Manager) GetVBucketID(ctx context.Context, name string) (proto.VBucketID, error) {
	id, err := m.getID(ctx, name, proto.MapTypeVBucket)
	return proto.VBucketID(id), err
}

func (m *Manager) LocalGetVBucketID(ctx context.Context, name string) (proto.VBucketID, error) {
	id, err := m.LocalGet(ctx, name, proto.MapTypeVBucket)
	return proto.VBucketID(id), err
}

func (m *Manager) PutVBucketID(ctx context.Context, name string, id proto.VBucketID) error {
	return m.putID(ctx, name, uint64(id), proto.MapTypeVBucket)
}

func (m *Manager) LocalPutVBucketID(ctx context.Context, name string, id proto.VBucketID) error {
	return m.LocalPut(ctx, name, uint64(id), proto.MapTypeVBucket)
}

func (m *Manager) DeleteVBucketID(ctx context.Context, name string) error {
	return m.deleteID(ctx, name, proto.MapTypeVBucket)
}

// Blob map entries are keyed by the internal name but sharded by the
// user-visible name, so a blob's map entry sits on its id's home node and
// reverse lookups there never leave the node. RenameBlob re-shards the
// entry by the new name while the id keeps its node, so after a rename the
// entry can live elsewhere and id-keyed reverse lookups can miss.

// GetBlobID resolves a user-visible blob name within its bucket.
func (m *Manager) GetBlobID(ctx context.Context, name string, bucketID proto.BucketID) (proto.BlobID, error) {
	internal := proto.MakeInternalBlobName(name, bucketID)
	target := m.hasher.HashName(name)
	if target == m.nodeID {
		id, err := m.LocalGet(ctx, internal, proto.MapTypeBlob)
		return proto.BlobID(id), err
	}
	var id uint64
	err := m.call(ctx, target, proto.RPCGet, &proto.GetArgs{Name: internal, Map: proto.MapTypeBlob}, &id)
	return proto.BlobID(id), err
}

func (m *Manager) PutBlobID(ctx context.Context, name string, id proto.BlobID, bucketID proto.BucketID) error {
	internal := proto.MakeInternalBlobName(name, bucketID)
	target := m.hasher.HashName(name)
	if target == m.nodeID {
		return m.LocalPut(ctx, internal, uint64(id), proto.MapTypeBlob)
	}
	return m.call(ctx, target, proto.RPCPut,
		&proto.PutArgs{Name: internal, ID: uint64(id), Map: proto.MapTypeBlob}, nil)
}

func (m *Manager) DeleteBlobID(ctx context.Context, name string, bucketID proto.BucketID) error {
	internal := proto.MakeInternalBlobName(name, bucketID)
	target := m.hasher.HashName(name)
	if target == m.nodeID {
		return m.LocalDelete(ctx, internal, proto.MapTypeBlob)
	}
	return m.call(ctx, target, proto.RPCDelete,
		&proto.DeleteArgs{Name: internal, Map: proto.MapTypeBlob}, nil)
}
