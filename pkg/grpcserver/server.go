// Package grpcserver runs the gRPC side port: the standard health service
// (reporting database reachability) and server reflection for grpcurl.
//
//	srv, err := grpcserver.Start(config.GRPCPort(), probe)
//	defer srv.Stop()
package grpcserver

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/webdiner/webdiner/pkg/logger"
	"github.com/webdiner/webdiner/pkg/metrics"
)

// ServiceName is the health-check service name clients may query besides "".
const ServiceName = "webdiner.Ordering"

// Probe reports whether the process can serve requests.
type Probe func(ctx context.Context) error

// Server wraps a grpc.Server with its health state.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	lis    net.Listener

	probe    Probe
	interval time.Duration
	stop     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

func recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("grpc: panic recovered",
				"method", info.FullMethod,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

func observeInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	dur := time.Since(start)
	code := status.Code(err)

	metrics.GRPCHandled.WithLabelValues(info.FullMethod, code.String()).Inc()
	metrics.GRPCDuration.WithLabelValues(info.FullMethod).Observe(dur.Seconds())
	logger.WithCtx(ctx).Debug("grpc: request",
		"method", info.FullMethod,
		"duration_ms", dur.Milliseconds(),
		"code", code.String(),
	)
	return resp, err
}

// New builds a server; probe may be nil, in which case it always serves.
func New(probe Probe) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(recoveryInterceptor, observeInterceptor),
		grpc.MaxRecvMsgSize(4*1024*1024),
		grpc.MaxSendMsgSize(4*1024*1024),
	)
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &Server{
		srv:      srv,
		health:   hs,
		probe:    probe,
		interval: 15 * time.Second,
		stop:     make(chan struct{}),
	}
}

// Start listens on port and serves in the background.
func Start(port string, probe Probe) (*Server, error) {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("grpc: listen on :%s: %w", port, err)
	}
	s := New(probe)
	s.Serve(lis)
	return s, nil
}

// Serve starts serving on lis and the health probe loop.
func (s *Server) Serve(lis net.Listener) {
	s.lis = lis
	s.Check(context.Background())

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		logger.Info("gRPC server starting", "addr", lis.Addr().String())
		if err := s.srv.Serve(lis); err != nil {
			logger.Error("grpc: serve error", "error", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.Check(context.Background())
			}
		}
	}()
}

// Check runs the probe once and publishes the result to the health service.
func (s *Server) Check(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	st := grpc_health_v1.HealthCheckResponse_SERVING
	if s.probe != nil {
		ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := s.probe(ctx); err != nil {
			logger.Warn("grpc: health probe failed", "error", err)
			st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	return st
}

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// Stop marks the server NOT_SERVING and drains in-flight RPCs.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		logger.Info("gRPC server shutting down")
		close(s.stop)
		s.health.Shutdown()
		s.srv.GracefulStop()
		s.wg.Wait()
	})
}
