package proto

import (
	"fmt"
	"unsafe"
)

// All four id kinds share one packed 64-bit representation. The node half
// lives in the low 32 bits so that an id printed as %016x leads with its
// index and ends with its node, matching the wire layout the data plane
// already speaks. The all-zero value is the null id for every kind.
type (
	BucketID  uint64
	VBucketID uint64
	BlobID    uint64
	TargetID  uint64
	BufferID  uint64
)

// BlobID and BufferID must stay the same size; CopyIDs moves one into the
// other bitwise.
var _ = [1]struct{}{}[unsafe.Sizeof(BlobID(0))-unsafe.Sizeof(BufferID(0))]

func MakeBucketID(node NodeID, index uint32) BucketID {
	return BucketID(uint64(node) | uint64(index)<<32)
}

func (id BucketID) IsNull() bool   { return id == 0 }
func (id BucketID) NodeID() NodeID { return NodeID(id) }
func (id BucketID) Index() uint32  { return uint32(id >> 32) }

func MakeVBucketID(node NodeID, index uint32) VBucketID {
	return VBucketID(uint64(node) | uint64(index)<<32)
}

func (id VBucketID) IsNull() bool   { return id == 0 }
func (id VBucketID) NodeID() NodeID { return NodeID(id) }
func (id VBucketID) Index() uint32  { return uint32(id >> 32) }

// MakeBlobID packs the blob's home node and the offset of its buffer-id
// list in the pool. A swap blob carries its node negated; HomeNode strips
// the sign so routing is the same either way.
func MakeBlobID(node NodeID, bufferIDsOffset uint32, swap bool) BlobID {
	n := int32(node)
	if swap {
		n = -n
	}
	return BlobID(uint64(uint32(n)) | uint64(bufferIDsOffset)<<32)
}

func (id BlobID) IsNull() bool { return id == 0 }

func (id BlobID) signedNode() int32 { return int32(uint32(id)) }

func (id BlobID) HomeNode() NodeID {
	n := id.signedNode()
	if n < 0 {
		n = -n
	}
	return NodeID(n)
}

func (id BlobID) InSwap() bool { return id.signedNode() < 0 }

func (id BlobID) BufferIDsOffset() uint32 { return uint32(id >> 32) }

func MakeTargetID(node NodeID, device DeviceID, index uint16) TargetID {
	return TargetID(uint64(node) | uint64(device)<<32 | uint64(index)<<48)
}

func (id TargetID) IsNull() bool       { return id == 0 }
func (id TargetID) NodeID() NodeID     { return NodeID(id) }
func (id TargetID) DeviceID() DeviceID { return DeviceID(id >> 32) }
func (id TargetID) Index() uint16      { return uint16(id >> 48) }

func MakeBufferID(node NodeID, index uint32) BufferID {
	return BufferID(uint64(node) | uint64(index)<<32)
}

func (id BufferID) IsNull() bool   { return id == 0 }
func (id BufferID) NodeID() NodeID { return NodeID(id) }
func (id BufferID) Index() uint32  { return uint32(id >> 32) }

// BucketIDStringSize is the length of the hex bucket-id prefix on every
// internal blob name.
const BucketIDStringSize = 16

const hexDigits = "0123456789abcdef"

// MakeInternalBlobName prefixes name with the owning bucket's id as 16
// lowercase hex characters, most significant byte first. The prefix
// namespaces blob names per bucket and lets the owning bucket be recovered
// from a reverse-mapped name. Raw id bytes would not survive being handled
// as a string, hence hex.
func MakeInternalBlobName(name string, id BucketID) string {
	var buf [BucketIDStringSize]byte
	v := uint64(id)
	for i := BucketIDStringSize - 1; i >= 0; i-- {
		buf[i] = hexDigits[v&0xf]
		v >>= 4
	}
	return string(buf[:]) + name
}

// hexTable maps '0'-'9', 'a'-'f' and 'A'-'F' to their values. Every other
// byte maps to zero, so garbage decodes silently; callers that need to
// reject garbage use ParseBucketIDHex.
var hexTable = func() (t [256]uint64) {
	for c := '0'; c <= '9'; c++ {
		t[c] = uint64(c - '0')
	}
	for c := 'a'; c <= 'f'; c++ {
		t[c] = uint64(c-'a') + 10
	}
	for c := 'A'; c <= 'F'; c++ {
		t[c] = uint64(c-'A') + 10
	}
	return t
}()

// HexStringToU64 decodes the first BucketIDStringSize characters of s.
// s must be at least that long.
func HexStringToU64(s string) uint64 {
	var result uint64
	for i := 0; i < BucketIDStringSize; i++ {
		result = result<<4 | hexTable[s[i]]
	}
	return result
}

// ParseBucketIDHex is the strict form of HexStringToU64 for input that did
// not come out of our own maps.
func ParseBucketIDHex(s string) (BucketID, error) {
	if len(s) < BucketIDStringSize {
		return 0, fmt.Errorf("bucket id prefix too short: %d", len(s))
	}
	var result uint64
	for i := 0; i < BucketIDStringSize; i++ {
		c := s[i]
		if hexTable[c] == 0 && c != '0' {
			return 0, fmt.Errorf("invalid hex byte %q at %d", c, i)
		}
		result = result<<4 | hexTable[c]
	}
	return BucketID(result), nil
}

// CopyIDs copies count 64-bit ids from src to dst.
func CopyIDs(dst, src []uint64, count int) {
	for i := 0; i < count; i++ {
		dst[i] = src[i]
	}
}
