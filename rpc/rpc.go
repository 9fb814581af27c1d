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

package rpc

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cubefs/cubefs/blobstore/util/errors"

	apierrors "github.com/tierfs/metadb/errors"
	"github.com/tierfs/metadb/proto"
)

// Handler is one registered remote entry point. args is the json-encoded
// argument struct; the returned reply is json-encoded back to the caller.
type Handler func(ctx context.Context, args []byte) (reply interface{}, err error)

// Transport routes calls between nodes. Nodes are numbered 1..NumNodes;
// calling your own node id is allowed and stays in process.
type Transport interface {
	NodeID() proto.NodeID
	NumNodes() uint32
	Register(method string, h Handler)
	Call(ctx context.Context, target proto.NodeID, method string, args, reply interface{}) error
	Close()
}

// Registry maps method names to handlers. Shared by every transport
// implementation.
type Registry struct {
	lock     sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(method string, h Handler) {
	r.lock.Lock()
	r.handlers[method] = h
	r.lock.Unlock()
}

func (r *Registry) Dispatch(ctx context.Context, method string, args []byte) ([]byte, error) {
	r.lock.RLock()
	h, ok := r.handlers[method]
	r.lock.RUnlock()
	if !ok {
		return nil, errors.Info(apierrors.ErrNoSuchHandler, method)
	}

	reply, err := h(ctx, args)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, nil
	}
	return json.Marshal(reply)
}
