package storage

import (
	"github.com/spaolacci/murmur3"

	"github.com/tierfs/metadb/proto"
	"github.com/tierfs/metadb/util"
)

// MapSeed is the cluster-wide seed for the name hash. Every node must hash
// with the same seed or shard ownership falls apart.
const MapSeed = 0x4E58E5DF

// Hasher decides which node owns a name. Ownership is
// hash(name) mod N + 1, so it is stable for a fixed cluster size.
type Hasher struct {
	seed     uint32
	numNodes uint32
}

func NewHasher(seed uint32, numNodes uint32) *Hasher {
	return &Hasher{seed: seed, numNodes: numNodes}
}

func (h *Hasher) HashName(name string) proto.NodeID {
	sum := murmur3.Sum32WithSeed(util.StringsToBytes(name), h.seed)
	return proto.NodeID(sum%h.numNodes + 1)
}

func (h *Hasher) NumNodes() uint32 {
	return h.numNodes
}
