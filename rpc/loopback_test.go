package rpc

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type echoArgs struct {
	Value string `json:"value"`
}

func TestLoopbackCall(t *testing.T) {
	ctx := context.Background()
	nodes := NewLoopbackCluster(2)

	nodes[1].Register("Echo", func(ctx context.Context, data []byte) (interface{}, error) {
		args := new(echoArgs)
		if err := json.Unmarshal(data, args); err != nil {
			return nil, err
		}
		return args.Value, nil
	})

	var reply string
	require.NoError(t, nodes[0].Call(ctx, 2, "Echo", &echoArgs{Value: "hello"}, &reply))
	require.Equal(t, "hello", reply)

	// self call goes through the local registry
	nodes[0].Register("Echo", func(ctx context.Context, data []byte) (interface{}, error) {
		return "self", nil
	})
	require.NoError(t, nodes[0].Call(ctx, 1, "Echo", &echoArgs{}, &reply))
	require.Equal(t, "self", reply)
}

func TestLoopbackUnknownMethod(t *testing.T) {
	nodes := NewLoopbackCluster(1)
	err := nodes[0].Call(context.Background(), 1, "Nope", &echoArgs{}, nil)
	require.Error(t, err)
}

func TestLoopbackUnknownNode(t *testing.T) {
	nodes := NewLoopbackCluster(1)
	err := nodes[0].Call(context.Background(), 5, "Echo", &echoArgs{}, nil)
	require.Error(t, err)
}
