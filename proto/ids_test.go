package proto

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBucketIDPacking(t *testing.T) {
	id := MakeBucketID(3, 17)
	require.False(t, id.IsNull())
	require.Equal(t, uint32(3), id.NodeID())
	require.Equal(t, uint32(17), id.Index())

	require.True(t, BucketID(0).IsNull())
}

func TestBlobIDSwapBit(t *testing.T) {
	plain := MakeBlobID(5, 42, false)
	swap := MakeBlobID(5, 42, true)

	require.False(t, plain.InSwap())
	require.True(t, swap.InSwap())

	// home node is invariant under the swap tag
	require.Equal(t, uint32(5), plain.HomeNode())
	require.Equal(t, uint32(5), swap.HomeNode())

	require.Equal(t, uint32(42), plain.BufferIDsOffset())
	require.Equal(t, uint32(42), swap.BufferIDsOffset())
}

func TestTargetIDPacking(t *testing.T) {
	id := MakeTargetID(2, 1, 7)
	require.Equal(t, uint32(2), id.NodeID())
	require.Equal(t, DeviceID(1), id.DeviceID())
	require.Equal(t, uint16(7), id.Index())
}

func TestMakeInternalBlobName(t *testing.T) {
	id := MakeBucketID(1, 0)
	name := MakeInternalBlobName("x", id)

	require.Len(t, name, BucketIDStringSize+1)
	require.Equal(t, fmt.Sprintf("%016x", uint64(id)), name[:BucketIDStringSize])
	require.Equal(t, "x", name[BucketIDStringSize:])

	// decoding the prefix recovers the id
	require.Equal(t, uint64(id), HexStringToU64(name))
}

func TestHexRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 0xdeadbeef, 1<<64 - 1, 1 << 63, 0x0123456789abcdef} {
		name := MakeInternalBlobName("", BucketID(v))
		require.Len(t, name, BucketIDStringSize)
		require.Equal(t, v, HexStringToU64(name))
	}
}

func TestHexStringToU64Garbage(t *testing.T) {
	// non-hex bytes decode as zero nibbles
	require.Equal(t, uint64(0), HexStringToU64("zzzzzzzzzzzzzzzz"))
	require.Equal(t, HexStringToU64("000000000000000f"), HexStringToU64("zzzzzzzzzzzzzzzf"))

	// uppercase is accepted
	require.Equal(t, uint64(0xff), HexStringToU64("00000000000000FF"))
}

func TestParseBucketIDHexStrict(t *testing.T) {
	id, err := ParseBucketIDHex("00000000000000ff")
	require.NoError(t, err)
	require.Equal(t, BucketID(0xff), id)

	_, err = ParseBucketIDHex("zzzzzzzzzzzzzzzz")
	require.Error(t, err)

	_, err = ParseBucketIDHex("00ff")
	require.Error(t, err)
}

func TestCopyIDs(t *testing.T) {
	src := []uint64{1, 2, 3}
	dst := make([]uint64, 3)
	CopyIDs(dst, src, 3)
	require.Equal(t, src, dst)
}
