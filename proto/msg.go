package proto

// Remote handler names. One per Local* entry point; the string is the wire
// contract, the Go method names follow the usual ID spelling.
const (
	RPCGet                          = "RemoteGet"
	RPCPut                          = "RemotePut"
	RPCDelete                       = "RemoteDelete"
	RPCGetBlobNameFromID            = "RemoteGetBlobNameFromId"
	RPCGetBucketIDFromBlobID        = "RemoteGetBucketIdFromBlobId"
	RPCGetBlobIDs                   = "RemoteGetBlobIds"
	RPCGetOrCreateBucketID          = "RemoteGetOrCreateBucketId"
	RPCGetOrCreateVBucketID         = "RemoteGetOrCreateVBucketId"
	RPCAddBlobIDToBucket            = "RemoteAddBlobIdToBucket"
	RPCAddBlobIDToVBucket           = "RemoteAddBlobIdToVBucket"
	RPCAllocateBufferIDList         = "RemoteAllocateBufferIdList"
	RPCGetBufferIDList              = "RemoteGetBufferIdList"
	RPCFreeBufferIDList             = "RemoteFreeBufferIdList"
	RPCDestroyBlobByName            = "RemoteDestroyBlobByName"
	RPCDestroyBlobByID              = "RemoteDestroyBlobById"
	RPCRemoveBlobFromBucketInfo     = "RemoteRemoveBlobFromBucketInfo"
	RPCContainsBlob                 = "RemoteContainsBlob"
	RPCDestroyBucket                = "RemoteDestroyBucket"
	RPCRenameBucket                 = "RemoteRenameBucket"
	RPCDecrementRefcount            = "RemoteDecrementRefcount"
	RPCDecrementRefcountVBucket     = "RemoteDecrementRefcountVBucket"
	RPCGetRemainingTargetCapacity   = "RemoteGetRemainingTargetCapacity"
	RPCGetGlobalDeviceCapacities    = "RemoteGetGlobalDeviceCapacities"
	RPCUpdateGlobalSystemViewState  = "RemoteUpdateGlobalSystemViewState"
	RPCGetNodeTargets               = "RemoteGetNodeTargets"
)

// Flat argument structs, json-encoded on the wire.

type PutArgs struct {
	Name string  `json:"name"`
	ID   uint64  `json:"id"`
	Map  MapType `json:"map"`
}

type GetArgs struct {
	Name string  `json:"name"`
	Map  MapType `json:"map"`
}

type DeleteArgs struct {
	Name string  `json:"name"`
	Map  MapType `json:"map"`
}

type NameArgs struct {
	Name string `json:"name"`
}

type BucketIDArgs struct {
	BucketID BucketID `json:"bucket_id"`
}

type VBucketIDArgs struct {
	VBucketID VBucketID `json:"vbucket_id"`
}

type BlobIDArgs struct {
	BlobID BlobID `json:"blob_id"`
}

type AddBlobToBucketArgs struct {
	BucketID BucketID `json:"bucket_id"`
	BlobID   BlobID   `json:"blob_id"`
}

type AddBlobToVBucketArgs struct {
	VBucketID VBucketID `json:"vbucket_id"`
	BlobID    BlobID    `json:"blob_id"`
}

type AllocateBufferIDListArgs struct {
	BufferIDs []BufferID `json:"buffer_ids"`
}

type DestroyBlobByNameArgs struct {
	Name     string   `json:"name"`
	BlobID   BlobID   `json:"blob_id"`
	BucketID BucketID `json:"bucket_id"`
}

type DestroyBlobByIDArgs struct {
	BlobID   BlobID   `json:"blob_id"`
	BucketID BucketID `json:"bucket_id"`
}

type RemoveBlobArgs struct {
	BucketID BucketID `json:"bucket_id"`
	BlobID   BlobID   `json:"blob_id"`
}

type ContainsBlobArgs struct {
	BucketID BucketID `json:"bucket_id"`
	BlobID   BlobID   `json:"blob_id"`
}

type DestroyBucketArgs struct {
	Name     string   `json:"name"`
	BucketID BucketID `json:"bucket_id"`
}

type RenameBucketArgs struct {
	BucketID BucketID `json:"bucket_id"`
	OldName  string   `json:"old_name"`
	NewName  string   `json:"new_name"`
}

type TargetIDArgs struct {
	TargetID TargetID `json:"target_id"`
}

type AdjustmentsArgs struct {
	Adjustments []int64 `json:"adjustments"`
}
