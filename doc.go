/*
 *
 * Copyright 2023 TierFS authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

/*

# MetaDB: the metadata plane of a multi-tier buffer cache

Applications group data as blobs inside buckets; vbuckets are orthogonal
groupings carrying traits. MetaDB answers every question the data path asks
about these entities: where a blob lives, which buffers hold it, what a
bucket contains, how much room a storage target has left, and which node
owns what.

## Data Model

* Bucket, a named container of blobs with a reference count.

* VBucket, an orthogonal named grouping of blobs with attached traits; it
links blobs but does not own them.

* Blob, a named byte sequence spread over buffers owned by the buffer pool.
Blobs are keyed internally by hex(bucket id) || name, so names are
namespaced per bucket and the owner is recoverable from any reverse lookup.

* Target, a storage destination bound to a device, tracking remaining
capacity.

## Architecture

One metadata manager per node, nodes numbered 1..N. Three name maps
(bucket, vbucket, blob) are sharded across nodes by a seeded hash of the
name. Bucket and vbucket slot tables live on the node that owns the name;
slots are recycled through an intrusive free list under a FIFO ticket lock.
Ids are packed 64-bit values that carry their home node, so every operation
can route itself: run locally when the target is this node, or call the
owning node's registered handler over grpc.

Node 1 additionally holds the global system view state: per-device capacity
counters fed by signed deltas that every node pushes on an interval.

## Consistency

Single writer per shard, no replication, no cross-node ordering. Racing
create and destroy across nodes may land in either order; capacity readers
may run ahead of in-flight deltas. This is deliberate: the metadata plane
serves a cache, not a source of truth.

## Building Blocks

* gRPC
* Rocksdb
* Prometheus

*/

package metadb
