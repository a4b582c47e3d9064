package server

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/store"
	"github.com/phuanduong/ledger/store/memory"
)

type brokenStore struct {
	store.Store
}

func (brokenStore) ListSystemConfigs(context.Context) ([]*models.SystemConfig, error) {
	return nil, errors.New("connection refused")
}

func TestHealthRefresh(t *testing.T) {
	ctx := context.Background()
	logger := logrus.NewEntry(logrus.New())

	h := NewHealthServer(memory.New(), logger)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, h.Refresh(ctx))

	resp, err := h.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	broken := NewHealthServer(brokenStore{}, logger)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, broken.Refresh(ctx))

	resp, err = broken.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
