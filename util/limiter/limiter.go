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

package limiter

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/tierfs/metadb/errors"
)

type (
	// Limiter bounds the concurrency and payload rate of the metadata RPC
	// surface.
	Limiter interface {
		Acquire() error
		Release()
		WaitPayload(ctx context.Context, bytes int) error
		Status() Status
	}

	Config struct {
		Concurrency int `json:"concurrency"`
		PayloadMBPS int `json:"payload_mbps"`
	}

	Status struct {
		Config  Config
		Running int
	}

	limiter struct {
		config      Config
		countLimit  CountLimit
		ratePayload *rate.Limiter
	}

	CountLimit interface {
		Running() int
		Acquire() error
		Release()
		SetLimit(limit uint32)
	}
)

func NewLimiter(cfg Config) Limiter {
	mb := 1 << 20
	lim := &limiter{config: cfg}
	if cfg.Concurrency > 0 {
		lim.countLimit = NewCountLimit(cfg.Concurrency)
	}
	if cfg.PayloadMBPS > 0 {
		lim.ratePayload = rate.NewLimiter(rate.Limit(cfg.PayloadMBPS*mb), cfg.PayloadMBPS*mb)
	}
	return lim
}

func (lim *limiter) Acquire() error {
	if lim.countLimit != nil {
		return lim.countLimit.Acquire()
	}
	return nil
}

func (lim *limiter) Release() {
	if lim.countLimit != nil {
		lim.countLimit.Release()
	}
}

func (lim *limiter) WaitPayload(ctx context.Context, bytes int) error {
	if lim.ratePayload != nil {
		return lim.ratePayload.WaitN(ctx, bytes)
	}
	return nil
}

func (lim *limiter) Status() Status {
	st := Status{Config: lim.config}
	if lim.countLimit != nil {
		st.Running = lim.countLimit.Running()
	}
	return st
}

const minusOne = ^uint32(0)

type countLimit struct {
	limit   uint32
	current uint32
}

// NewCountLimit returns limiter with concurrent n
func NewCountLimit(n int) CountLimit {
	return &countLimit{limit: uint32(n)}
}

func (l *countLimit) Running() int {
	return int(atomic.LoadUint32(&l.current))
}

func (l *countLimit) Acquire() error {
	if atomic.AddUint32(&l.current, 1) > atomic.LoadUint32(&l.limit) {
		atomic.AddUint32(&l.current, minusOne)
		return errors.ErrLimitExceeded
	}
	return nil
}

func (l *countLimit) Release() {
	atomic.AddUint32(&l.current, minusOne)
}

func (l *countLimit) SetLimit(limit uint32) {
	atomic.StoreUint32(&l.limit, limit)
}
