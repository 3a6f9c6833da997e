package grpc

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net"
	"time"

	"buf.build/go/protovalidate"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	provalidateInterceptor "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/protovalidate"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/sreekar2307/clusterhealth/config"
	"github.com/sreekar2307/clusterhealth/controller"
	"github.com/sreekar2307/clusterhealth/logger"
	"github.com/sreekar2307/clusterhealth/model"
	"github.com/sreekar2307/clusterhealth/service/errors"
	"github.com/sreekar2307/clusterhealth/util"
)

// ServiceName is the health service name answering for the Kafka cluster.
// The empty name is answered the same way.
const ServiceName = "kafka"

const defaultWatchInterval = 10 * time.Second

type GRPC struct {
	healthpb.UnimplementedHealthServer
	health  *controller.Health
	server  *grpc.Server
	config  config.GRPC
	log     logger.Logger
	backOff util.BackOff
}

func NewTransport(
	_ context.Context,
	config config.GRPC,
	health *controller.Health,
	log logger.Logger,
) (*GRPC, error) {
	g := &GRPC{
		health: health,
		config: config,
		log:    log.WithFields(logger.NewAttr("transport", "grpc")),
	}
	if g.config.WatchInterval <= 0 {
		g.config.WatchInterval = defaultWatchInterval
	}
	g.backOff = util.DefaultBackOff
	g.backOff.BaseDelay = g.config.WatchInterval
	pv, err := protovalidate.New()
	if err != nil {
		return nil, fmt.Errorf("create protovalidate validator: %w", err)
	}
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			recovery.UnaryServerInterceptor(recovery.WithRecoveryHandlerContext(g.recoverPanic)),
			logging.UnaryServerInterceptor(interceptorLogger(g.log)),
			provalidateInterceptor.UnaryServerInterceptor(pv),
		),
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(recovery.WithRecoveryHandlerContext(g.recoverPanic)),
			logging.StreamServerInterceptor(interceptorLogger(g.log)),
		),
	)
	healthpb.RegisterHealthServer(server, g)
	reflection.Register(server)
	g.server = server
	return g, nil
}

func (g *GRPC) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", g.config.ListenerAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	g.log.Info(ctx, "grpc server started", logger.NewAttr("addr", lis.Addr().String()))
	go g.serve(lis)
	return nil
}

func (g *GRPC) serve(lis net.Listener) {
	if err := g.server.Serve(lis); err != nil && !stdErrors.Is(err, grpc.ErrServerStopped) {
		g.log.Error(context.Background(), "grpc server stopped", logger.NewAttr("error", err))
	}
}

func (g *GRPC) Close(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		g.server.Stop()
		return fmt.Errorf("failed to stop grpc server gracefully: %w", ctx.Err())
	}
}

func (g *GRPC) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if err := checkService(req.GetService()); err != nil {
		return nil, err
	}
	st, err := g.servingStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &healthpb.HealthCheckResponse{Status: st}, nil
}

// Watch re-evaluates the cluster every watch interval and streams the status
// whenever it changes. While the cluster is unreachable it reports NOT_SERVING
// and retries with exponential back off. The stream ends when the client goes
// away.
func (g *GRPC) Watch(req *healthpb.HealthCheckRequest, stream grpc.ServerStreamingServer[healthpb.HealthCheckResponse]) error {
	if err := checkService(req.GetService()); err != nil {
		return err
	}
	ctx := stream.Context()
	var (
		last     = healthpb.HealthCheckResponse_UNKNOWN
		failures int
	)
	for first := true; ; first = false {
		wait := g.config.WatchInterval
		st, err := g.servingStatus(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return status.FromContextError(ctx.Err()).Err()
			}
			st = healthpb.HealthCheckResponse_NOT_SERVING
			wait = g.backOff.Duration(failures)
			failures++
		} else {
			failures = 0
		}
		if first || st != last {
			if err := stream.Send(&healthpb.HealthCheckResponse{Status: st}); err != nil {
				return err
			}
			last = st
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return status.FromContextError(ctx.Err()).Err()
		case <-timer.C:
		}
	}
}

func (g *GRPC) servingStatus(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	report, err := g.health.Check(ctx)
	if err != nil {
		if stdErrors.Is(err, errors.ErrSnapshotUnavailable) {
			return healthpb.HealthCheckResponse_UNKNOWN, status.Errorf(codes.Unavailable, "health check: %v", err)
		}
		return healthpb.HealthCheckResponse_UNKNOWN, status.Errorf(codes.Internal, "health check: %v", err)
	}
	return toServingStatus(report.Status), nil
}

func toServingStatus(s model.HealthStatus) healthpb.HealthCheckResponse_ServingStatus {
	if s == model.Red {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

func checkService(name string) error {
	if name != "" && name != ServiceName {
		return status.Errorf(codes.NotFound, "unknown service %q", name)
	}
	return nil
}

func (g *GRPC) recoverPanic(ctx context.Context, p any) error {
	g.log.Error(ctx, "recovered from panic",
		logger.NewAttr("panic", fmt.Sprint(p)),
		logger.NewAttr("stack", util.CurrentStack()),
	)
	return status.Errorf(codes.Internal, "internal error")
}

func interceptorLogger(l logger.Logger) logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		attrs := make([]logger.Attr, 0, len(fields)/2)
		for i := 0; i+1 < len(fields); i += 2 {
			attrs = append(attrs, logger.NewAttr(fmt.Sprint(fields[i]), fields[i+1]))
		}
		switch lvl {
		case logging.LevelDebug:
			l.Debug(ctx, msg, attrs...)
		case logging.LevelWarn:
			l.Warn(ctx, msg, attrs...)
		case logging.LevelError:
			l.Error(ctx, msg, attrs...)
		default:
			l.Info(ctx, msg, attrs...)
		}
	})
}
