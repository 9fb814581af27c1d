package grpcrpc

import (
	"context"
	"net"

	"github.com/cubefs/cubefs/blobstore/util/log"
	"google.golang.org/grpc"

	"github.com/tierfs/metadb/metrics"
	"github.com/tierfs/metadb/rpc"
	"github.com/tierfs/metadb/util/limiter"
)

// server exposes the registry over the generic Call method.
type server struct {
	registry *rpc.Registry
	lim      limiter.Limiter

	grpcServer *grpc.Server
}

func newServer(registry *rpc.Registry, limCfg limiter.Config) *server {
	s := &server{
		registry: registry,
		lim:      limiter.NewLimiter(limCfg),
	}
	s.grpcServer = grpc.NewServer(
		grpc.UnaryInterceptor(metrics.GRPCMetrics.UnaryServerInterceptor()),
		grpc.StreamInterceptor(metrics.GRPCMetrics.StreamServerInterceptor()),
	)
	s.grpcServer.RegisterService(&serviceDesc, s)
	return s
}

func (s *server) Call(ctx context.Context, req *CallRequest) (*CallResponse, error) {
	if err := s.lim.Acquire(); err != nil {
		return nil, err
	}
	defer s.lim.Release()

	if err := s.lim.WaitPayload(ctx, len(req.Args)); err != nil {
		return nil, err
	}

	out, err := s.registry.Dispatch(ctx, req.Method, req.Args)
	if err != nil {
		return nil, err
	}
	return &CallResponse{Reply: out}, nil
}

func (s *server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.grpcServer.Serve(lis); err != nil {
			log.Fatal("grpc server exits:", err)
		}
	}()
	log.Info("grpc server is running at:", addr)
	return nil
}

func (s *server) Stop() {
	s.grpcServer.GracefulStop()
}
