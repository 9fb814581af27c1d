package metadata

import (
	"context"

	"github.com/tierfs/metadb/proto"
)

// GetRelativeNodeID steps around the ring [1..N] by offset: a result past
// N wraps to 1 and a result of 0 wraps to N. Node 0 does not exist. The
// wrap is not modular, so only offsets of -1 and +1 land on the right node.
func (m *Manager) GetRelativeNodeID(offset int) proto.NodeID {
	numNodes := int(m.tp.NumNodes())
	result := int(m.nodeID) + offset
	if result > numNodes {
		result = 1
	} else if result == 0 {
		result = numNodes
	}
	return proto.NodeID(result)
}

func (m *Manager) GetNextNode() proto.NodeID {
	return m.GetRelativeNodeID(1)
}

func (m *Manager) GetPreviousNode() proto.NodeID {
	return m.GetRelativeNodeID(-1)
}

func (m *Manager) LocalGetNodeTargets() []proto.TargetID {
	return m.pool.NodeTargets()
}

func (m *Manager) GetNodeTargets(ctx context.Context, targetNode proto.NodeID) ([]proto.TargetID, error) {
	if targetNode == m.nodeID {
		return m.LocalGetNodeTargets(), nil
	}
	var out []proto.TargetID
	err := m.call(ctx, targetNode, proto.RPCGetNodeTargets, &struct{}{}, &out)
	return out, err
}

// GetNeighborhoodTargets draws targets from the ring neighbors: none
// alone, the next node with two nodes, next then previous with three or
// more.
func (m *Manager) GetNeighborhoodTargets(ctx context.Context) ([]proto.TargetID, error) {
	switch m.tp.NumNodes() {
	case 1:
		return nil, nil
	case 2:
		return m.GetNodeTargets(ctx, m.GetNextNode())
	default:
		nextTargets, err := m.GetNodeTargets(ctx, m.GetNextNode())
		if err != nil {
			return nil, err
		}
		prevTargets, err := m.GetNodeTargets(ctx, m.GetPreviousNode())
		if err != nil {
			return nil, err
		}
		result := make([]proto.TargetID, 0, len(nextTargets)+len(prevTargets))
		result = append(result, nextTargets...)
		result = append(result, prevTargets...)
		return result, nil
	}
}

func (m *Manager) LocalGetRemainingTargetCapacity(id proto.TargetID) uint64 {
	target := m.pool.Target(id)
	if target == nil {
		return 0
	}
	return target.RemainingSpace()
}

func (m *Manager) GetRemainingTargetCapacity(ctx context.Context, id proto.TargetID) (uint64, error) {
	targetNode := id.NodeID()
	if targetNode == m.nodeID {
		return m.LocalGetRemainingTargetCapacity(id), nil
	}
	var capacity uint64
	err := m.call(ctx, targetNode, proto.RPCGetRemainingTargetCapacity,
		&proto.TargetIDArgs{TargetID: id}, &capacity)
	return capacity, err
}

func (m *Manager) GetRemainingTargetCapacities(ctx context.Context, targets []proto.TargetID) ([]uint64, error) {
	result := make([]uint64, len(targets))
	for i, id := range targets {
		capacity, err := m.GetRemainingTargetCapacity(ctx, id)
		if err != nil {
			return nil, err
		}
		result[i] = capacity
	}
	return result, nil
}

// FindTargetIDFromDeviceID returns the first target on device_id, or the
// null id.
func FindTargetIDFromDeviceID(targets []proto.TargetID, deviceID proto.DeviceID) proto.TargetID {
	for _, t := range targets {
		if t.DeviceID() == deviceID {
			return t
		}
	}
	return 0
}
