package metadata

import (
	"context"
	"encoding/json"

	"github.com/tierfs/metadb/proto"
)

// registerHandlers binds the Local* entry points of the wire contract to
// their wire names. The remote side of each public wrapper lands here;
// LocalIncrementRefcount and the Local{Get,Put}*ID helpers are not
// registered.
func (m *Manager) registerHandlers() {
	m.tp.Register(proto.RPCGet, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.GetArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return m.LocalGet(ctx, args.Name, args.Map)
	})

	m.tp.Register(proto.RPCPut, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.PutArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return nil, m.LocalPut(ctx, args.Name, args.ID, args.Map)
	})

	m.tp.Register(proto.RPCDelete, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.DeleteArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return nil, m.LocalDelete(ctx, args.Name, args.Map)
	})

	m.tp.Register(proto.RPCGetBlobNameFromID, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.BlobIDArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return m.LocalGetBlobNameFromID(ctx, args.BlobID)
	})

	m.tp.Register(proto.RPCGetBucketIDFromBlobID, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.BlobIDArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return m.LocalGetBucketIDFromBlobID(ctx, args.BlobID)
	})

	m.tp.Register(proto.RPCGetBlobIDs, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.BucketIDArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return m.LocalGetBlobIDs(args.BucketID), nil
	})

	m.tp.Register(proto.RPCGetOrCreateBucketID, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.NameArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return m.LocalGetOrCreateBucketID(ctx, args.Name)
	})

	m.tp.Register(proto.RPCGetOrCreateVBucketID, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.NameArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return m.LocalGetOrCreateVBucketID(ctx, args.Name)
	})

	m.tp.Register(proto.RPCAddBlobIDToBucket, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.AddBlobToBucketArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		m.LocalAddBlobIDToBucket(args.BucketID, args.BlobID)
		return nil, nil
	})

	m.tp.Register(proto.RPCAddBlobIDToVBucket, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.AddBlobToVBucketArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		m.LocalAddBlobIDToVBucket(args.VBucketID, args.BlobID)
		return nil, nil
	})

	m.tp.Register(proto.RPCAllocateBufferIDList, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.AllocateBufferIDListArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return m.LocalAllocateBufferIDList(args.BufferIDs), nil
	})

	m.tp.Register(proto.RPCGetBufferIDList, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.BlobIDArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return m.LocalGetBufferIDList(args.BlobID), nil
	})

	m.tp.Register(proto.RPCFreeBufferIDList, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.BlobIDArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		m.LocalFreeBufferIDList(args.BlobID)
		return nil, nil
	})

	m.tp.Register(proto.RPCDestroyBlobByName, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.DestroyBlobByNameArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return nil, m.LocalDestroyBlobByName(ctx, args.Name, args.BlobID, args.BucketID)
	})

	m.tp.Register(proto.RPCDestroyBlobByID, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.DestroyBlobByIDArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return nil, m.LocalDestroyBlobByID(ctx, args.BlobID, args.BucketID)
	})

	m.tp.Register(proto.RPCRemoveBlobFromBucketInfo, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.RemoveBlobArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		m.LocalRemoveBlobFromBucketInfo(args.BucketID, args.BlobID)
		return nil, nil
	})

	m.tp.Register(proto.RPCContainsBlob, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.ContainsBlobArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return m.LocalContainsBlob(args.BucketID, args.BlobID), nil
	})

	m.tp.Register(proto.RPCDestroyBucket, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.DestroyBucketArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return m.LocalDestroyBucket(ctx, args.Name, args.BucketID)
	})

	m.tp.Register(proto.RPCRenameBucket, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.RenameBucketArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return nil, m.LocalRenameBucket(ctx, args.BucketID, args.OldName, args.NewName)
	})

	m.tp.Register(proto.RPCDecrementRefcount, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.BucketIDArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		m.LocalDecrementRefcount(args.BucketID)
		return nil, nil
	})

	m.tp.Register(proto.RPCDecrementRefcountVBucket, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.VBucketIDArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		m.LocalDecrementRefcountVBucket(args.VBucketID)
		return nil, nil
	})

	m.tp.Register(proto.RPCGetRemainingTargetCapacity, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.TargetIDArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return m.LocalGetRemainingTargetCapacity(args.TargetID), nil
	})

	m.tp.Register(proto.RPCGetGlobalDeviceCapacities, func(ctx context.Context, data []byte) (interface{}, error) {
		return m.LocalGetGlobalDeviceCapacities(), nil
	})

	m.tp.Register(proto.RPCUpdateGlobalSystemViewState, func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(proto.AdjustmentsArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		m.LocalUpdateGlobalSystemViewState(ctx, args.Adjustments)
		return nil, nil
	})

	m.tp.Register(proto.RPCGetNodeTargets, func(ctx context.Context, data []byte) (interface{}, error) {
		return m.LocalGetNodeTargets(), nil
	})
}
