// Package server assembles the ledger engine from the process configuration
// and exposes its gRPC health service.
package server

import (
	"context"
	"time"

	"github.com/phuanduong/ledger/config"
	"github.com/phuanduong/ledger/locker"
	"github.com/phuanduong/ledger/services/audit"
	"github.com/phuanduong/ledger/services/ledger"
	"github.com/phuanduong/ledger/store/gormstore"
)

// NewEngine wires the engine on top of the configured database, Redis and
// optional InfluxDB. config.InitializeConfig must have run.
func NewEngine(ctx context.Context) (*ledger.Engine, error) {
	s := gormstore.New(config.DataBase)
	if err := s.Migrate(); err != nil {
		return nil, err
	}

	hooks := audit.Multi{
		&audit.StoreHook{Store: s},
		&audit.LogHook{Logger: config.Logger.WithField("component", "audit")},
	}
	if config.InfluxDB != nil {
		hooks = append(hooks, audit.NewInfluxHook(config.InfluxDB, config.InfluxDatabase()))
	}

	ttl := time.Duration(config.GetEnvInt("LOCK_TTL_SECONDS", 30)) * time.Second
	l := locker.NewRedis(config.Redis, "ledger:lock:", ttl, config.Logger.WithField("component", "locker"))

	engine := ledger.New(s, l, hooks, config.Logger)

	seed, err := config.LoadSeed(config.GetEnv("SEED_FILE", ""))
	if err != nil {
		return nil, err
	}
	if err := engine.Settings.Seed(ctx, seed); err != nil {
		return nil, err
	}

	return engine, nil
}
