package main

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"

	"necroos/internal/adapter/clock/system"
	"necroos/internal/adapter/effects"
	"necroos/internal/adapter/effects/audio"
	"necroos/internal/adapter/effects/journal"
	"necroos/internal/adapter/ghost"
	httpadapter "necroos/internal/adapter/http"
	"necroos/internal/adapter/lifecycle"
	metricsinmem "necroos/internal/adapter/metrics/inmemory"
	gormrepo "necroos/internal/adapter/repo/gorm"
	"necroos/internal/adapter/repo/memory"
	"necroos/internal/adapter/repo/sqlite"
	"necroos/internal/app/haunt"
	"necroos/internal/app/ports"
	"necroos/internal/domain/haunting"
	"necroos/internal/platform/config"
	"necroos/internal/platform/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()

	shutdownTracing, err := otel.Setup(ctx, otel.Options{
		ServiceName: "necroos",
		Endpoint:    cfg.OTELEndpoint,
		Enabled:     cfg.OTELEnabled,
	})
	if err != nil {
		log.Printf("[server] tracing disabled: %v", err)
	}

	store, txManager, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("open %s store: %v", cfg.Store, err)
	}

	clock := system.Clock{}
	kpiRecorder := metricsinmem.NewRecorder()
	effectJournal := journal.New(clock, cfg.JournalSize)
	audioLayers := audio.NewLayers(audio.DefaultSampleRate)
	ghostSource := ghost.NewSource(cfg.GhostLevel)
	terminate := &lifecycle.Signal{}

	svc := haunt.New(haunt.Deps{
		Clock:     clock,
		Store:     store,
		TxManager: txManager,
		Visual:    effectJournal,
		Audio:     effects.Fanout{audioLayers, effectJournal},
		Meta:      effectJournal,
		Ghost:     ghostSource,
		Lifecycle: terminate,
		Metrics:   kpiRecorder,
		Rand:      newRand(cfg.Seed),
	})
	svc.OnEndingReached(func(e haunting.Ending) {
		log.Printf("[server] ending reached: %s", e)
	})
	if err := svc.Start(ctx); err != nil {
		log.Fatalf("start haunting: %v", err)
	}

	h := httpadapter.Handler{
		Haunt:       svc,
		Ghost:       ghostSource,
		Journal:     effectJournal,
		Audio:       audioLayers,
		KPI:         kpiRecorder,
		AllowOrigin: cfg.CORSOrigin,
	}
	s := server.Default(server.WithHostPorts(cfg.HTTPAddr))
	s.OnShutdown = append(s.OnShutdown, func(context.Context) { terminate.Fire() })
	h.RegisterRoutes(s)

	log.Printf("necroos server listening on %s (store: %s)", cfg.HTTPAddr, cfg.Store)
	s.Spin()

	terminate.Fire()
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Close(closeCtx); err != nil {
		log.Printf("[server] close haunting: %v", err)
	}
	if err := closeStore(); err != nil {
		log.Printf("[server] close store: %v", err)
	}
	if err := shutdownTracing(closeCtx); err != nil {
		log.Printf("[server] flush traces: %v", err)
	}
}

func buildStore(ctx context.Context, cfg config.Config) (ports.SnapshotStore, ports.TxManager, func() error, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLitePath, cfg.QuotaBytes)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, store.Close, nil
	case config.StorePostgres:
		db, err := gormrepo.OpenPostgres(ctx, cfg.DBDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		closeDB := func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		return gormrepo.NewSnapshotRepo(db, cfg.QuotaBytes), gormrepo.NewTxManager(db), closeDB, nil
	case config.StoreMemory:
		store := memory.NewStore(cfg.QuotaBytes)
		return memory.NewSnapshotRepo(store), memory.NewTxManager(store), func() error { return nil }, nil
	}
	return nil, nil, nil, fmt.Errorf("%w: unknown store %q", config.ErrInvalidConfig, cfg.Store)
}

// newRand seeds from the clock unless a fixed seed is configured.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}
