package metadata

import (
	"github.com/tierfs/metadb/proto"
)

// SwapBlob describes a blob payload parked in a node's swap file. Until a
// proper swap manager exists, the four fields ride in the blob's buffer-id
// list, one 64-bit value per member.
type SwapBlob struct {
	NodeID   proto.NodeID
	Offset   uint64
	Size     uint64
	BucketID proto.BucketID
}

const swapBlobMembers = 4

// ToBufferIDs encodes the swap blob as a fake buffer-id list.
func (s SwapBlob) ToBufferIDs() []proto.BufferID {
	return []proto.BufferID{
		proto.BufferID(s.NodeID),
		proto.BufferID(s.Offset),
		proto.BufferID(s.Size),
		proto.BufferID(s.BucketID),
	}
}

// SwapBlobFromBufferIDs decodes a list written by ToBufferIDs; ok is false
// when the list is not swap shaped.
func SwapBlobFromBufferIDs(ids []proto.BufferID) (SwapBlob, bool) {
	if len(ids) != swapBlobMembers {
		return SwapBlob{}, false
	}
	return SwapBlob{
		NodeID:   proto.NodeID(ids[0]),
		Offset:   uint64(ids[1]),
		Size:     uint64(ids[2]),
		BucketID: proto.BucketID(ids[3]),
	}, true
}
