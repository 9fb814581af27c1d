// Copyright 2023 The TierFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package server

import (
	"context"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/trace"

	"github.com/tierfs/metadb/bufferpool"
	"github.com/tierfs/metadb/metadata"
	"github.com/tierfs/metadb/rpc/grpcrpc"
)

type Config struct {
	NodeConfig     grpcrpc.Config  `json:"node_config"`
	MetadataConfig metadata.Config `json:"metadata_config"`
}

// Server is one metadata node: transport, buffer pool and manager wired
// together, plus the periodic push of capacity deltas to the coordinator.
type Server struct {
	mdm  *metadata.Manager
	pool *bufferpool.Pool
	tp   *grpcrpc.Transport

	done chan struct{}
}

func NewServer(ctx context.Context, cfg *Config) (*Server, error) {
	span := trace.SpanFromContextSafe(ctx)

	tp, err := grpcrpc.NewTransport(&cfg.NodeConfig)
	if err != nil {
		span.Errorf("new transport failed: %s", err)
		return nil, err
	}

	pool := bufferpool.NewPool(tp.NodeID(), &bufferpool.Config{
		NumDevices: cfg.MetadataConfig.NumDevices,
		Capacities: cfg.MetadataConfig.Capacities,
	})

	mdm, err := metadata.NewManager(ctx, &cfg.MetadataConfig, tp, pool)
	if err != nil {
		tp.Close()
		return nil, err
	}

	s := &Server{
		mdm:  mdm,
		pool: pool,
		tp:   tp,
		done: make(chan struct{}),
	}
	go s.loop()
	return s, nil
}

// Serve starts accepting remote metadata calls.
func (s *Server) Serve() error {
	return s.tp.Serve()
}

func (s *Server) Metadata() *metadata.Manager { return s.mdm }

func (s *Server) Pool() *bufferpool.Pool { return s.pool }

func (s *Server) loop() {
	interval := time.Duration(s.mdm.SystemViewUpdateIntervalMs()) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			span, ctx := trace.StartSpanFromContext(context.Background(), "")
			if err := s.mdm.UpdateGlobalSystemViewState(ctx); err != nil {
				span.Warnf("push system view state failed: %s", err)
			}
		case <-s.done:
			return
		}
	}
}

func (s *Server) Close() {
	close(s.done)
	s.tp.Close()
	s.mdm.Close()
}
