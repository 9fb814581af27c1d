package metadata

import (
	"context"

	"github.com/tierfs/metadb/metrics"
	"github.com/tierfs/metadb/proto"
)

func (m *Manager) call(ctx context.Context, target proto.NodeID, method string, args, reply interface{}) error {
	metrics.RemoteDispatches.WithLabelValues(method).Inc()
	return m.tp.Call(ctx, target, method, args, reply)
}
