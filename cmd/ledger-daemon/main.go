package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/phuanduong/ledger/config"
	"github.com/phuanduong/ledger/jobs"
	"github.com/phuanduong/ledger/jobs/cron"
	"github.com/phuanduong/ledger/server"
	"github.com/phuanduong/ledger/services/ledger"
	"github.com/phuanduong/ledger/workers/daemons"
)

func CreateJob(id string, engine *ledger.Engine) jobs.Job {
	switch id {
	case "quarterly":
		return cron.NewQuarterlyJob(engine, config.Logger.WithField("job", id))
	case "release_commission":
		return cron.NewReleaseCommissionJob(engine, config.Logger.WithField("job", id))
	default:
		return nil
	}
}

func main() {
	if err := config.InitializeConfig(); err != nil {
		fmt.Println(err.Error())
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine, err := server.NewEngine(ctx)
	if err != nil {
		config.Logger.Fatalf("failed to start engine: %v", err)
	}

	ids := os.Args[1:]
	if len(ids) == 0 {
		ids = []string{"quarterly", "release_commission"}
	}

	list := make([]jobs.Job, 0, len(ids))
	for _, id := range ids {
		job := CreateJob(id, engine)
		if job == nil {
			config.Logger.Fatalf("unknown job: %s", id)
		}
		config.Logger.Infof("Start ledger-daemon: %s", id)
		list = append(list, job)
	}

	health := server.NewHealthServer(engine.Store, config.Logger.WithField("component", "health"))
	go health.Run(ctx, 15*time.Second)

	lis, err := net.Listen("tcp", ":"+config.GetEnv("GRPC_PORT", "9090"))
	if err != nil {
		config.Logger.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, health.Server)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			config.Logger.Errorf("grpc server stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metrics := &http.Server{Addr: ":" + config.GetEnv("METRICS_PORT", "9100"), Handler: mux}
	go func() {
		if err := metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			config.Logger.Errorf("metrics server stopped: %v", err)
		}
	}()

	worker := daemons.NewCronJob(list...)
	go func() {
		<-ctx.Done()
		worker.Stop()
		grpcServer.GracefulStop()
		metrics.Shutdown(context.Background())
	}()

	worker.Start()
}
