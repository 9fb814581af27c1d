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
	"encoding/binary"

	"github.com/tecbot/gorocksdb"

	"github.com/tierfs/metadb/proto"
	"github.com/tierfs/metadb/util"
)

// rocksStore persists the name maps in one rocksdb instance with a forward
// and a reverse column family per map type. Persistence here is a
// convenience for long-lived deployments; the metadata plane makes no
// durability promise across crashes.
type rocksStore struct {
	db      *gorocksdb.DB
	forward [proto.MapTypeCount]*gorocksdb.ColumnFamilyHandle
	reverse [proto.MapTypeCount]*gorocksdb.ColumnFamilyHandle
	handles []*gorocksdb.ColumnFamilyHandle

	ro *gorocksdb.ReadOptions
	wo *gorocksdb.WriteOptions
}

var cfNames = []string{
	"default",
	"bucket", "vbucket", "blob",
	"bucket_rev", "vbucket_rev", "blob_rev",
}

func NewRocksStore(path string) (Store, error) {
	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	opts.SetCreateIfMissingColumnFamilies(true)

	cfOpts := make([]*gorocksdb.Options, len(cfNames))
	for i := range cfOpts {
		cfOpts[i] = gorocksdb.NewDefaultOptions()
	}

	db, handles, err := gorocksdb.OpenDbColumnFamilies(opts, path, cfNames, cfOpts)
	if err != nil {
		return nil, err
	}

	s := &rocksStore{
		db:      db,
		handles: handles,
		ro:      gorocksdb.NewDefaultReadOptions(),
		wo:      gorocksdb.NewDefaultWriteOptions(),
	}
	for i := 0; i < int(proto.MapTypeCount); i++ {
		s.forward[i] = handles[1+i]
		s.reverse[i] = handles[1+int(proto.MapTypeCount)+i]
	}
	return s, nil
}

func (s *rocksStore) Put(ctx context.Context, name string, id uint64, mt proto.MapType) error {
	batch := gorocksdb.NewWriteBatch()
	defer batch.Destroy()

	batch.PutCF(s.forward[mt], util.StringsToBytes(name), encodeID(id))
	batch.PutCF(s.reverse[mt], encodeID(id), util.StringsToBytes(name))
	return s.db.Write(s.wo, batch)
}

func (s *rocksStore) Get(ctx context.Context, name string, mt proto.MapType) (uint64, error) {
	slice, err := s.db.GetCF(s.ro, s.forward[mt], util.StringsToBytes(name))
	if err != nil {
		return 0, err
	}
	defer slice.Free()

	if !slice.Exists() {
		return 0, nil
	}
	return binary.BigEndian.Uint64(slice.Data()), nil
}

func (s *rocksStore) Delete(ctx context.Context, name string, mt proto.MapType) error {
	id, err := s.Get(ctx, name, mt)
	if err != nil {
		return err
	}

	batch := gorocksdb.NewWriteBatch()
	defer batch.Destroy()

	batch.DeleteCF(s.forward[mt], util.StringsToBytes(name))
	if id != 0 {
		current, err := s.ReverseGet(ctx, id, mt)
		if err != nil {
			return err
		}
		if current == name {
			batch.DeleteCF(s.reverse[mt], encodeID(id))
		}
	}
	return s.db.Write(s.wo, batch)
}

func (s *rocksStore) ReverseGet(ctx context.Context, id uint64, mt proto.MapType) (string, error) {
	slice, err := s.db.GetCF(s.ro, s.reverse[mt], encodeID(id))
	if err != nil {
		return "", err
	}
	defer slice.Free()

	if !slice.Exists() {
		return "", nil
	}
	return string(slice.Data()), nil
}

func (s *rocksStore) Close() {
	for _, h := range s.handles {
		h.Destroy()
	}
	s.ro.Destroy()
	s.wo.Destroy()
	s.db.Close()
}

func encodeID(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}
