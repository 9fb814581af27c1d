package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/profile"
	"github.com/cubefs/cubefs/blobstore/common/rpc"
	"github.com/cubefs/cubefs/blobstore/util/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tierfs/metadb/metrics"
)

const (
	defaultShutdownTimeoutS      = 10
	defaultReadRequestTimeoutS   = 30
	defaultWriteResponseTimeoutS = 30
)

type HttpServer struct {
	httpServer *http.Server

	*Server
}

func NewHttpServer(server *Server) *HttpServer {
	return &HttpServer{Server: server}
}

func (h *HttpServer) Serve(addr string) {
	ph := profile.NewProfileHandler(addr)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      rpc.MiddlewareHandlerWith(h.newHandler(), ph),
		ReadTimeout:  defaultReadRequestTimeoutS * time.Second,
		WriteTimeout: defaultWriteResponseTimeoutS * time.Second,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server exits:", err)
		}
	}()
	h.httpServer = httpServer

	log.Info("http server is running at:", addr)
}

func (h *HttpServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeoutS*time.Second)
	defer cancel()

	h.httpServer.Shutdown(ctx)
}

func (h *HttpServer) newHandler() *rpc.Router {
	rpc.GET("/stats", h.Stats, rpc.OptArgsQuery())
	rpc.GET("/metrics", func(c *rpc.Context) {
		promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}).ServeHTTP(c.Writer, c.Request)
	})

	return rpc.DefaultRouter
}

type statsRet struct {
	NodeID      uint32   `json:"node_id"`
	NumBuckets  uint32   `json:"num_buckets"`
	NumVBuckets uint32   `json:"num_vbuckets"`
	Capacities  []uint64 `json:"capacities"`
}

func (h *HttpServer) Stats(c *rpc.Context) {
	mdm := h.Metadata()
	svs := mdm.LocalSystemViewState()

	capacities := make([]uint64, svs.NumDevices())
	for i := range capacities {
		capacities[i] = uint64(svs.BytesAvailable(i))
	}

	c.RespondJSON(&statsRet{
		NodeID:      mdm.NodeID(),
		NumBuckets:  mdm.NumBuckets(),
		NumVBuckets: mdm.NumVBuckets(),
		Capacities:  capacities,
	})
}
