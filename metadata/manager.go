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

package metadata

import (
	"context"
	"strconv"

	"github.com/cubefs/cubefs/blobstore/common/trace"

	"github.com/tierfs/metadb/bufferpool"
	"github.com/tierfs/metadb/proto"
	"github.com/tierfs/metadb/rpc"
	"github.com/tierfs/metadb/storage"
	"github.com/tierfs/metadb/util/ticketlock"
)

// GlobalSVSNodeID is the coordinator that holds the authoritative system
// view state.
const GlobalSVSNodeID proto.NodeID = 1

type Config struct {
	MaxBucketsPerNode  uint32 `json:"max_buckets_per_node"`
	MaxVBucketsPerNode uint32 `json:"max_vbuckets_per_node"`

	NumDevices int     `json:"num_devices"`
	Capacities []int64 `json:"capacities"`

	SystemViewStateUpdateIntervalMs int `json:"system_view_state_update_interval_ms"`

	SwapFilenamePrefix string `json:"swap_filename_prefix"`
	SwapFilenameSuffix string `json:"swap_filename_suffix"`

	StoreConfig storage.Config `json:"store_config"`
}

func initConfig(cfg *Config) {
	if cfg.MaxBucketsPerNode == 0 {
		cfg.MaxBucketsPerNode = 128
	}
	if cfg.MaxVBucketsPerNode == 0 {
		cfg.MaxVBucketsPerNode = 128
	}
	if cfg.SystemViewStateUpdateIntervalMs == 0 {
		cfg.SystemViewStateUpdateIntervalMs = 100
	}
	if cfg.SwapFilenamePrefix == "" {
		cfg.SwapFilenamePrefix = "swap_"
	}
	if cfg.SwapFilenameSuffix == "" {
		cfg.SwapFilenameSuffix = ".dat"
	}
}

// Manager is one node's slice of the metadata plane. Every public
// operation first computes a target node from its key or id and either
// runs against local state or dispatches to the owning node; the Local*
// forms are the remote handlers.
type Manager struct {
	nodeID proto.NodeID
	cfg    *Config

	store  storage.Store
	hasher *storage.Hasher
	pool   *bufferpool.Pool
	tp     rpc.Transport

	bucketMutex     ticketlock.Mutex
	buckets         []bucketInfo
	firstFreeBucket proto.BucketID
	numBuckets      uint32
	maxBuckets      uint32

	vbucketMutex     ticketlock.Mutex
	vbuckets         []vbucketInfo
	firstFreeVBucket proto.VBucketID
	numVBuckets      uint32
	maxVBuckets      uint32

	svs             *SystemViewState
	globalSVS       *SystemViewState
	globalSVSNodeID proto.NodeID

	swapPrefix string
	swapSuffix string
}

// NewManager initializes the node's metadata state and registers every
// remote handler on the transport.
func NewManager(ctx context.Context, cfg *Config, tp rpc.Transport, pool *bufferpool.Pool) (*Manager, error) {
	span := trace.SpanFromContextSafe(ctx)
	initConfig(cfg)

	store, err := storage.NewStore(&cfg.StoreConfig)
	if err != nil {
		span.Errorf("open name-map store failed: %s", err)
		return nil, err
	}

	m := &Manager{
		nodeID:          tp.NodeID(),
		cfg:             cfg,
		store:           store,
		hasher:          storage.NewHasher(storage.MapSeed, tp.NumNodes()),
		pool:            pool,
		tp:              tp,
		maxBuckets:      cfg.MaxBucketsPerNode,
		maxVBuckets:     cfg.MaxVBucketsPerNode,
		globalSVSNodeID: GlobalSVSNodeID,
		swapPrefix:      cfg.SwapFilenamePrefix,
		swapSuffix:      cfg.SwapFilenameSuffix,
	}

	m.buckets = make([]bucketInfo, cfg.MaxBucketsPerNode)
	m.firstFreeBucket = proto.MakeBucketID(m.nodeID, 0)
	for i := range m.buckets {
		if i == len(m.buckets)-1 {
			m.buckets[i].nextFree = 0
		} else {
			m.buckets[i].nextFree = proto.MakeBucketID(m.nodeID, uint32(i+1))
		}
	}

	m.vbuckets = make([]vbucketInfo, cfg.MaxVBucketsPerNode)
	m.firstFreeVBucket = proto.MakeVBucketID(m.nodeID, 0)
	for i := range m.vbuckets {
		if i == len(m.vbuckets)-1 {
			m.vbuckets[i].nextFree = 0
		} else {
			m.vbuckets[i].nextFree = proto.MakeVBucketID(m.nodeID, uint32(i+1))
		}
	}

	m.svs = NewSystemViewState(cfg.NumDevices, cfg.Capacities)
	if m.nodeID == m.globalSVSNodeID {
		m.globalSVS = NewSystemViewState(cfg.NumDevices, cfg.Capacities)
	}
	pool.SetLocalView(m.svs)

	m.registerHandlers()
	return m, nil
}

func (m *Manager) NodeID() proto.NodeID { return m.nodeID }

func (m *Manager) NumNodes() uint32 { return m.tp.NumNodes() }

// HashName maps a name to the node that owns its map shard.
func (m *Manager) HashName(name string) proto.NodeID {
	return m.hasher.HashName(name)
}

// GetSwapFilename builds the per-node swap file path from the configured
// prefix and suffix.
func (m *Manager) GetSwapFilename(nodeID proto.NodeID) string {
	return m.swapPrefix + strconv.FormatUint(uint64(nodeID), 10) + m.swapSuffix
}

func (m *Manager) SystemViewUpdateIntervalMs() int {
	return m.cfg.SystemViewStateUpdateIntervalMs
}

func (m *Manager) Close() {
	m.store.Close()
}
