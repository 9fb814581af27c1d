package grpcrpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
)

// The whole metadata RPC surface is one grpc method carrying the remote
// handler name plus its json-encoded arguments. Handlers are looked up in
// the shared registry, so adding an operation never touches the wire
// definition.

const (
	serviceName    = "metadb.Transport"
	callFullMethod = "/metadb.Transport/Call"
)

type CallRequest struct {
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args"`
}

type CallResponse struct {
	Reply json.RawMessage `json:"reply"`
}

type callServer interface {
	Call(ctx context.Context, req *CallRequest) (*CallResponse, error)
}

func callHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CallRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(callServer).Call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: callFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(callServer).Call(ctx, req.(*CallRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*callServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Call",
			Handler:    callHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpc/grpcrpc/service.go",
}
