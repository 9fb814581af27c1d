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

package storage

import (
	"context"

	"github.com/tierfs/metadb/proto"
)

// Store is the backend for the three name-to-id maps. A missing name reads
// as id 0 and a missing id reverse-reads as the empty string; both are
// normal control flow, not errors. Implementations synchronize themselves.
type Store interface {
	Put(ctx context.Context, name string, id uint64, mt proto.MapType) error
	Get(ctx context.Context, name string, mt proto.MapType) (uint64, error)
	Delete(ctx context.Context, name string, mt proto.MapType) error
	ReverseGet(ctx context.Context, id uint64, mt proto.MapType) (string, error)
	Close()
}

type Config struct {
	// Path enables the rocksdb store when set; empty keeps the maps in
	// memory for the life of the process.
	Path string `json:"path"`
}

func NewStore(cfg *Config) (Store, error) {
	if cfg != nil && cfg.Path != "" {
		return NewRocksStore(cfg.Path)
	}
	return NewMemoryStore(), nil
}
