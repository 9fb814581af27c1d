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

package grpcrpc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/tierfs/metadb/proto"
	"github.com/tierfs/metadb/rpc"
	"github.com/tierfs/metadb/util/limiter"
)

type Config struct {
	NodeID proto.NodeID `json:"node_id"`
	// NodeAddrs[i] is the grpc address of node i+1; its length is the
	// cluster size.
	NodeAddrs  []string `json:"node_addrs"`
	ListenAddr string   `json:"listen_addr"`

	Transport TransportConfig `json:"transport"`
	Limiter   limiter.Config  `json:"limiter"`
}

// Transport is the grpc-backed rpc.Transport. Calls to this node short
// circuit through the registry; everything else goes over the wire.
type Transport struct {
	nodeID     proto.NodeID
	numNodes   uint32
	listenAddr string
	registry   *rpc.Registry
	client     *client
	server     *server
}

func NewTransport(cfg *Config) (*Transport, error) {
	if cfg.NodeID == 0 || int(cfg.NodeID) > len(cfg.NodeAddrs) {
		return nil, errors.New("node_id must be in [1..len(node_addrs)]")
	}

	addrs := make(map[proto.NodeID]string, len(cfg.NodeAddrs))
	for i, addr := range cfg.NodeAddrs {
		addrs[proto.NodeID(i+1)] = addr
	}

	listenAddr := cfg.ListenAddr
	if listenAddr == "" {
		listenAddr = cfg.NodeAddrs[cfg.NodeID-1]
	}

	registry := rpc.NewRegistry()
	t := &Transport{
		nodeID:     cfg.NodeID,
		numNodes:   uint32(len(cfg.NodeAddrs)),
		listenAddr: listenAddr,
		registry:   registry,
		client:     newClient(addrs, cfg.Transport),
		server:     newServer(registry, cfg.Limiter),
	}
	return t, nil
}

func (t *Transport) NodeID() proto.NodeID { return t.nodeID }

func (t *Transport) NumNodes() uint32 { return t.numNodes }

func (t *Transport) Register(method string, h rpc.Handler) {
	t.registry.Register(method, h)
}

func (t *Transport) Call(ctx context.Context, target proto.NodeID, method string, args, reply interface{}) error {
	if target == t.nodeID {
		data, err := json.Marshal(args)
		if err != nil {
			return err
		}
		out, err := t.registry.Dispatch(ctx, method, data)
		if err != nil {
			return err
		}
		if reply == nil || out == nil {
			return nil
		}
		return json.Unmarshal(out, reply)
	}
	return t.client.Call(ctx, target, method, args, reply)
}

// Serve starts accepting remote calls. Register every handler first.
func (t *Transport) Serve() error {
	return t.server.Serve(t.listenAddr)
}

func (t *Transport) Close() {
	t.server.Stop()
	t.client.Close()
}
