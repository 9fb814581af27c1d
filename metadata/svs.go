package metadata

import (
	"context"
	"sync/atomic"

	"github.com/cubefs/cubefs/blobstore/common/trace"

	"github.com/tierfs/metadb/proto"
)

// SystemViewState tracks per-device byte availability. Each node keeps a
// local copy fed by its own buffer traffic; only the coordinator's global
// copy is authoritative for cluster-wide queries. Every cell is an
// independent atomic, so a snapshot may tear across devices but never
// within one.
type SystemViewState struct {
	numDevices     int
	bytesAvailable []int64
}

func NewSystemViewState(numDevices int, capacities []int64) *SystemViewState {
	s := &SystemViewState{
		numDevices:     numDevices,
		bytesAvailable: make([]int64, numDevices),
	}
	for i := 0; i < numDevices && i < len(capacities); i++ {
		s.bytesAvailable[i] = capacities[i]
	}
	return s
}

func (s *SystemViewState) NumDevices() int { return s.numDevices }

// Adjust applies a signed delta to one device.
func (s *SystemViewState) Adjust(device int, delta int64) {
	if device < 0 || device >= s.numDevices {
		return
	}
	atomic.AddInt64(&s.bytesAvailable[device], delta)
}

func (s *SystemViewState) BytesAvailable(device int) int64 {
	return atomic.LoadInt64(&s.bytesAvailable[device])
}

func (s *SystemViewState) snapshot() []uint64 {
	out := make([]uint64, s.numDevices)
	for i := range out {
		out[i] = uint64(atomic.LoadInt64(&s.bytesAvailable[i]))
	}
	return out
}

// LocalSystemViewState is this node's view.
func (m *Manager) LocalSystemViewState() *SystemViewState {
	return m.svs
}

// LocalUpdateGlobalSystemViewState folds a node's pending deltas into the
// global view. Runs only on the coordinator.
func (m *Manager) LocalUpdateGlobalSystemViewState(ctx context.Context, adjustments []int64) {
	span := trace.SpanFromContextSafe(ctx)
	if m.globalSVS == nil {
		span.Errorf("node %d holds no global system view state", m.nodeID)
		return
	}
	for i, adj := range adjustments {
		if adj == 0 {
			continue
		}
		m.globalSVS.Adjust(i, adj)
		span.Debugf("device %d adjusted by %d bytes", i, adj)
	}
}

// UpdateGlobalSystemViewState drains this node's accumulated capacity
// deltas and ships them to the coordinator. Called on the SVS update
// interval; a tick with no traffic sends nothing.
func (m *Manager) UpdateGlobalSystemViewState(ctx context.Context) error {
	adjustments := make([]int64, m.pool.NumDevices())
	updateNeeded := false
	for i := range adjustments {
		adjustments[i] = m.pool.ExchangeAdjustment(i)
		if adjustments[i] != 0 {
			updateNeeded = true
		}
	}
	if !updateNeeded {
		return nil
	}

	if m.globalSVSNodeID == m.nodeID {
		m.LocalUpdateGlobalSystemViewState(ctx, adjustments)
		return nil
	}
	return m.call(ctx, m.globalSVSNodeID, proto.RPCUpdateGlobalSystemViewState,
		&proto.AdjustmentsArgs{Adjustments: adjustments}, nil)
}

// LocalGetGlobalDeviceCapacities snapshots the coordinator's global view.
func (m *Manager) LocalGetGlobalDeviceCapacities() []uint64 {
	if m.globalSVS == nil {
		return nil
	}
	return m.globalSVS.snapshot()
}

func (m *Manager) GetGlobalDeviceCapacities(ctx context.Context) ([]uint64, error) {
	if m.globalSVSNodeID == m.nodeID {
		return m.LocalGetGlobalDeviceCapacities(), nil
	}
	var out []uint64
	err := m.call(ctx, m.globalSVSNodeID, proto.RPCGetGlobalDeviceCapacities, &struct{}{}, &out)
	return out, err
}
