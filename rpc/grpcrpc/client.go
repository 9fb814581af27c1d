package grpcrpc

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	apierrors "github.com/tierfs/metadb/errors"
	"github.com/tierfs/metadb/proto"
)

type TransportConfig struct {
	MaxTimeoutMs       uint32 `json:"max_timeout_ms"`
	ConnectTimeoutMs   uint32 `json:"connect_timeout_ms"`
	KeepaliveTimeoutS  uint32 `json:"keepalive_timeout_s"`
	BackoffBaseDelayMs uint32 `json:"backoff_base_delay_ms"`
	BackoffMaxDelayMs  uint32 `json:"backoff_max_delay_ms"`
}

// client keeps one connection per peer node, dialed lazily and deduped
// through singleflight so concurrent first calls share the dial.
type client struct {
	addrs map[proto.NodeID]string
	tc    TransportConfig

	lock         sync.RWMutex
	conns        map[proto.NodeID]*grpc.ClientConn
	singleFlight singleflight.Group
}

func newClient(addrs map[proto.NodeID]string, tc TransportConfig) *client {
	return &client{
		addrs: addrs,
		tc:    tc,
		conns: make(map[proto.NodeID]*grpc.ClientConn),
	}
}

func (c *client) Call(ctx context.Context, target proto.NodeID, method string, args, reply interface{}) error {
	conn, err := c.getConn(ctx, target)
	if err != nil {
		return err
	}

	data, err := json.Marshal(args)
	if err != nil {
		return err
	}
	req := &CallRequest{Method: method, Args: data}
	resp := &CallResponse{}
	if err := conn.Invoke(ctx, callFullMethod, req, resp, grpc.CallContentSubtype(codecName)); err != nil {
		return err
	}
	if reply == nil || len(resp.Reply) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Reply, reply)
}

func (c *client) getConn(ctx context.Context, target proto.NodeID) (*grpc.ClientConn, error) {
	c.lock.RLock()
	conn, ok := c.conns[target]
	c.lock.RUnlock()
	if ok {
		return conn, nil
	}

	addr, ok := c.addrs[target]
	if !ok {
		return nil, apierrors.ErrNoSuchNode
	}

	v, err, _ := c.singleFlight.Do(addr, func() (interface{}, error) {
		conn, err := grpc.DialContext(ctx, addr, c.dialOpts()...)
		if err != nil {
			return nil, err
		}
		c.lock.Lock()
		c.conns[target] = conn
		c.lock.Unlock()
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*grpc.ClientConn), nil
}

func (c *client) dialOpts() []grpc.DialOption {
	tc := c.tc
	if tc.KeepaliveTimeoutS == 0 {
		tc.KeepaliveTimeoutS = 5
	}
	if tc.BackoffBaseDelayMs == 0 {
		tc.BackoffBaseDelayMs = 100
	}
	if tc.BackoffMaxDelayMs == 0 {
		tc.BackoffMaxDelayMs = 5000
	}

	return []grpc.DialOption{
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(math.MaxInt32),
			grpc.MaxCallRecvMsgSize(math.MaxInt32),
		),
		grpc.WithKeepaliveParams(
			keepalive.ClientParameters{
				Time:                1 * time.Second,
				Timeout:             time.Duration(tc.KeepaliveTimeoutS) * time.Second,
				PermitWithoutStream: true,
			},
		),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff: backoff.Config{
				BaseDelay:  time.Duration(tc.BackoffBaseDelayMs) * time.Millisecond,
				Multiplier: backoff.DefaultConfig.Multiplier,
				Jitter:     backoff.DefaultConfig.Jitter,
				MaxDelay:   time.Duration(tc.BackoffMaxDelayMs) * time.Millisecond,
			},
			MinConnectTimeout: time.Duration(tc.ConnectTimeoutMs) * time.Millisecond,
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
}

func (c *client) Close() {
	c.lock.Lock()
	for _, conn := range c.conns {
		conn.Close()
	}
	c.conns = make(map[proto.NodeID]*grpc.ClientConn)
	c.lock.Unlock()
}
