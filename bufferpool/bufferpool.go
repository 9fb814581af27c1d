package bufferpool

import (
	"sync"
	"sync/atomic"

	"github.com/tierfs/metadb/proto"
)

// CapacityView receives the same capacity deltas the pool accumulates for
// the coordinator, so a node's local view tracks its own traffic
// immediately.
type CapacityView interface {
	Adjust(device int, delta int64)
}

type Config struct {
	NumDevices int     `json:"num_devices"`
	Capacities []int64 `json:"capacities"`
}

// Pool owns the node's buffers and the id lists the metadata plane hands
// out. The MDM stores only list offsets; both ends of a blob (buffers and
// the id list) are freed through here.
type Pool struct {
	nodeID     proto.NodeID
	numDevices int

	// pending per-device deltas, drained by the SVS update pass
	capacityAdjustments []int64

	targets []*Target

	localView CapacityView

	mu         sync.Mutex
	lists      map[uint32][]proto.BufferID
	freeListID []uint32
	nextListID uint32
	buffers    map[proto.BufferID]bufferMeta
	nextBuffer uint32

	stats Stats
}

type bufferMeta struct {
	size   uint64
	device int
}

// Target is a storage destination bound to one device on this node.
type Target struct {
	id             proto.TargetID
	remainingSpace int64
}

func (t *Target) ID() proto.TargetID { return t.id }

func (t *Target) RemainingSpace() uint64 {
	return uint64(atomic.LoadInt64(&t.remainingSpace))
}

type Stats struct {
	ListsAllocated  uint64
	ListsFreed      uint64
	BuffersReleased uint64
}

func NewPool(nodeID proto.NodeID, cfg *Config) *Pool {
	p := &Pool{
		nodeID:              nodeID,
		numDevices:          cfg.NumDevices,
		capacityAdjustments: make([]int64, cfg.NumDevices),
		lists:               make(map[uint32][]proto.BufferID),
		nextListID:          1,
		buffers:             make(map[proto.BufferID]bufferMeta),
		nextBuffer:          1,
	}
	for i := 0; i < cfg.NumDevices; i++ {
		var capacity int64
		if i < len(cfg.Capacities) {
			capacity = cfg.Capacities[i]
		}
		p.targets = append(p.targets, &Target{
			id:             proto.MakeTargetID(nodeID, proto.DeviceID(i), uint16(i)),
			remainingSpace: capacity,
		})
	}
	return p
}

// SetLocalView attaches the node's local system view state. Must be called
// before any allocation traffic.
func (p *Pool) SetLocalView(view CapacityView) {
	p.localView = view
}

func (p *Pool) NumDevices() int { return p.numDevices }

// AllocateBuffers carves count buffers of size bytes each out of device.
// The data plane calls this; the metadata plane only ever sees the ids.
func (p *Pool) AllocateBuffers(device int, count int, size uint64) []proto.BufferID {
	p.mu.Lock()
	ids := make([]proto.BufferID, 0, count)
	for i := 0; i < count; i++ {
		id := proto.MakeBufferID(p.nodeID, p.nextBuffer)
		p.nextBuffer++
		p.buffers[id] = bufferMeta{size: size, device: device}
		ids = append(ids, id)
	}
	p.mu.Unlock()

	p.adjust(device, -int64(uint64(count)*size))
	return ids
}

// ReleaseBuffers returns buffers to their devices. Unknown ids are skipped,
// which makes a second release of the same list a no-op.
func (p *Pool) ReleaseBuffers(ids []proto.BufferID) {
	for _, id := range ids {
		p.mu.Lock()
		meta, ok := p.buffers[id]
		if ok {
			delete(p.buffers, id)
			p.stats.BuffersReleased++
		}
		p.mu.Unlock()

		if ok {
			p.adjust(meta.device, int64(meta.size))
		}
	}
}

func (p *Pool) GetBufferSize(id proto.BufferID) uint64 {
	p.mu.Lock()
	size := p.buffers[id].size
	p.mu.Unlock()
	return size
}

// AllocateBufferIDList stores a copy of ids and returns its offset in the
// list table. Offset 0 is never handed out; a blob id with offset 0 has no
// list.
func (p *Pool) AllocateBufferIDList(ids []proto.BufferID) uint32 {
	list := make([]proto.BufferID, len(ids))
	copy(list, ids)

	p.mu.Lock()
	var off uint32
	if n := len(p.freeListID); n > 0 {
		off = p.freeListID[n-1]
		p.freeListID = p.freeListID[:n-1]
	} else {
		off = p.nextListID
		p.nextListID++
	}
	p.lists[off] = list
	p.stats.ListsAllocated++
	p.mu.Unlock()
	return off
}

func (p *Pool) GetBufferIDList(offset uint32) []proto.BufferID {
	p.mu.Lock()
	list := p.lists[offset]
	p.mu.Unlock()

	out := make([]proto.BufferID, len(list))
	copy(out, list)
	return out
}

// FreeBufferIDList releases the list slot. Freeing an offset twice is a
// no-op so blob destroy paths can race without double-accounting.
func (p *Pool) FreeBufferIDList(offset uint32) {
	p.mu.Lock()
	if _, ok := p.lists[offset]; ok {
		delete(p.lists, offset)
		p.freeListID = append(p.freeListID, offset)
		p.stats.ListsFreed++
	}
	p.mu.Unlock()
}

// ExchangeAdjustment atomically takes the pending delta for device,
// leaving zero behind.
func (p *Pool) ExchangeAdjustment(device int) int64 {
	if device >= len(p.capacityAdjustments) {
		return 0
	}
	return atomic.SwapInt64(&p.capacityAdjustments[device], 0)
}

// NodeTargets lists this node's targets in device order.
func (p *Pool) NodeTargets() []proto.TargetID {
	ids := make([]proto.TargetID, 0, len(p.targets))
	for _, t := range p.targets {
		ids = append(ids, t.id)
	}
	return ids
}

func (p *Pool) Target(id proto.TargetID) *Target {
	for _, t := range p.targets {
		if t.id == id {
			return t
		}
	}
	return nil
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	st := p.stats
	p.mu.Unlock()
	return st
}

func (p *Pool) adjust(device int, delta int64) {
	if device < 0 || device >= p.numDevices {
		return
	}
	atomic.AddInt64(&p.capacityAdjustments[device], delta)
	atomic.AddInt64(&p.targets[device].remainingSpace, delta)
	if p.localView != nil {
		p.localView.Adjust(device, delta)
	}
}
