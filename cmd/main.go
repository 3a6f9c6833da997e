package main

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/sreekar2307/clusterhealth/config"
	"github.com/sreekar2307/clusterhealth/controller"
	"github.com/sreekar2307/clusterhealth/logger"
	"github.com/sreekar2307/clusterhealth/logger/zerolog"
	"github.com/sreekar2307/clusterhealth/metrics"
	"github.com/sreekar2307/clusterhealth/model"
	"github.com/sreekar2307/clusterhealth/source/kafka"
	"github.com/sreekar2307/clusterhealth/storage/report"
	"github.com/sreekar2307/clusterhealth/telemetry"
	"github.com/sreekar2307/clusterhealth/transport"
	"github.com/sreekar2307/clusterhealth/transport/grpc"
	"github.com/sreekar2307/clusterhealth/transport/http"
)

var version = "dev"

const (
	exitGreen = iota
	exitYellow
	exitRed
	exitError
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	conf, err := config.Load(args)
	if err != nil {
		if stdErrors.Is(err, pflag.ErrHelp) {
			return exitGreen
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return exitError
	}
	level, _ := logger.ParseLevel(conf.LogLevel)
	log := zerolog.NewLogger(os.Stderr, level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tp, err := telemetry.NewTracerProvider(ctx, conf.Tracing, version)
	if err != nil {
		log.Fatal(ctx, "failed to create tracer provider", logger.NewAttr("error", err))
		return exitError
	}
	defer shutdown(log, conf, tp.Shutdown)

	health, reg, err := newHealth(ctx, conf, tp, log)
	if err != nil {
		log.Fatal(ctx, "failed to create health controller", logger.NewAttr("error", err))
		return exitError
	}
	defer shutdown(log, conf, health.Close)

	if conf.Once {
		return checkOnce(ctx, health, log)
	}

	transporters, err := startTransporters(ctx, conf, health, reg, log)
	defer func() {
		for _, transporter := range transporters {
			shutdown(log, conf, transporter.Close)
		}
	}()
	if err != nil {
		log.Fatal(ctx, "failed to start transporters", logger.NewAttr("error", err))
		return exitError
	}
	<-ctx.Done()
	log.Info(context.Background(), "shutting down")
	return exitGreen
}

func newHealth(
	ctx context.Context,
	conf *config.Config,
	tp *telemetry.TracerProvider,
	log logger.Logger,
) (*controller.Health, *prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, nil, err
	}
	src, err := kafka.NewSource(conf.Kafka)
	if err != nil {
		return nil, nil, fmt.Errorf("create metadata source: %w", err)
	}
	var opts []controller.Option
	if conf.History.Path != "" {
		if err := os.MkdirAll(filepath.Dir(conf.History.Path), 0o755); err != nil {
			_ = src.Close(ctx)
			return nil, nil, fmt.Errorf("failed to create history dir: %w", err)
		}
		store := report.NewBolt(conf.History.Path, conf.History.Retention, tp.Tracer("clusterhealth/storage"))
		if err := store.Open(ctx); err != nil {
			_ = src.Close(ctx)
			return nil, nil, fmt.Errorf("failed to open report history: %w", err)
		}
		opts = append(opts, controller.WithHistory(store))
	}
	log.Info(ctx, "configured kafka metadata source",
		logger.NewAttr("bootstrap_servers", conf.Kafka.BootstrapServers),
		logger.NewAttr("security_protocol", conf.Kafka.SecurityProtocol),
		logger.NewAttr("metadata_timeout", conf.Kafka.MetadataTimeout.String()),
	)
	return controller.NewHealth(src, collector, tp.Tracer("clusterhealth"), log, opts...), reg, nil
}

func checkOnce(ctx context.Context, health *controller.Health, log logger.Logger) int {
	rep, err := health.Check(ctx)
	if err != nil {
		log.Error(ctx, "health check failed", logger.NewAttr("error", err))
		return exitError
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		log.Error(ctx, "failed to write report", logger.NewAttr("error", err))
		return exitError
	}
	switch rep.Status {
	case model.Red:
		return exitRed
	case model.Yellow:
		return exitYellow
	default:
		return exitGreen
	}
}

func startTransporters(
	ctx context.Context,
	conf *config.Config,
	health *controller.Health,
	reg *prometheus.Registry,
	log logger.Logger,
) ([]transport.Transport, error) {
	transporters := make([]transport.Transport, 0)
	if conf.GRPC.ListenerAddr != "" {
		grpcTransport, err := grpc.NewTransport(ctx, conf.GRPC, health, log)
		if err != nil {
			return transporters, fmt.Errorf("failed to create gRPC transport: %w", err)
		}
		if err := grpcTransport.Start(ctx); err != nil {
			return transporters, fmt.Errorf("failed to start gRPC transport: %w", err)
		}
		transporters = append(transporters, grpcTransport)
	}
	if conf.HTTP.ListenerAddr != "" {
		httpTransport, err := http.NewTransport(ctx, conf.HTTP, health, reg, log)
		if err != nil {
			return transporters, fmt.Errorf("failed to create HTTP transport: %w", err)
		}
		if err := httpTransport.Start(ctx); err != nil {
			return transporters, fmt.Errorf("failed to start HTTP transport: %w", err)
		}
		transporters = append(transporters, httpTransport)
	}
	return transporters, nil
}

func shutdown(log logger.Logger, conf *config.Config, closeFn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.ShutdownTimeout)
	defer cancel()
	if err := closeFn(ctx); err != nil {
		log.Error(ctx, "failed to shut down", logger.NewAttr("error", err))
	}
}
