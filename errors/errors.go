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

package errors

import "errors"

var (
	ErrBlobNameTooLong    = errors.New("blob name exceeds the maximum name size")
	ErrBucketNameTooLong  = errors.New("bucket name exceeds the maximum name size")
	ErrVBucketNameTooLong = errors.New("vbucket name exceeds the maximum name size")

	ErrTooManyBuckets  = errors.New("exceeded max allowed buckets, increase max_buckets_per_node")
	ErrTooManyVBuckets = errors.New("exceeded max allowed vbuckets, increase max_vbuckets_per_node")

	ErrBucketNotEmpty = errors.New("bucket still has attached blobs")
	ErrBucketInUse    = errors.New("bucket is opened by other handles")

	ErrNotFound = errors.New("entry not found")

	ErrNoSuchHandler = errors.New("no handler registered for method")
	ErrNoSuchNode    = errors.New("node is not part of the cluster")

	ErrTooManyTraits = errors.New("vbucket trait table is full")

	ErrLimitExceeded = errors.New("limit exceeded")
)
