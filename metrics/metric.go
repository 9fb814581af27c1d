package metrics

import (
	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Registry = prometheus.NewRegistry()

	GRPCMetrics = grpcprometheus.NewServerMetrics(
		func(c *prometheus.CounterOpts) {
			c.Namespace = "MetaDB"
		},
	)

	MetadataOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "MetaDB",
			Subsystem: "metadata",
			Name:      "ops_total",
			Help:      "metadata operations by kind",
		},
		[]string{"op"},
	)

	RemoteDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "MetaDB",
			Subsystem: "metadata",
			Name:      "remote_dispatch_total",
			Help:      "operations that left the node, by method",
		},
		[]string{"method"},
	)
)

func init() {
	Registry.MustRegister(
		GRPCMetrics,
		MetadataOps,
		RemoteDispatches,
	)
	GRPCMetrics.EnableHandlingTimeHistogram(
		func(h *prometheus.HistogramOpts) {
			h.Namespace = "MetaDB"
		},
	)
}
