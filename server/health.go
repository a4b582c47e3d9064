package server

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/phuanduong/ledger/store"
)

const ServiceName = "ledger"

// HealthServer reports SERVING while the store answers.
type HealthServer struct {
	*health.Server

	store  store.Store
	logger *logrus.Entry
}

func NewHealthServer(s store.Store, logger *logrus.Entry) *HealthServer {
	return &HealthServer{Server: health.NewServer(), store: s, logger: logger}
}

// Refresh queries the store once and updates the serving status.
func (h *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if _, err := h.store.ListSystemConfigs(ctx); err != nil {
		h.logger.WithError(err).Warn("store health check failed")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	h.SetServingStatus(ServiceName, status)
	h.SetServingStatus("", status)

	return status
}

// Run checks the store every interval until ctx is done.
func (h *HealthServer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			h.Shutdown()
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}
