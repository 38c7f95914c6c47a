package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pixil98/go-service"
	"github.com/pixil98/holdfast/internal/driver"
	"github.com/pixil98/holdfast/internal/messaging"
	"github.com/pixil98/holdfast/internal/player"
	"github.com/pixil98/holdfast/internal/scheduler"
	"github.com/pixil98/holdfast/internal/storage"
	"github.com/pixil98/holdfast/internal/world"
)

const rosterLoadTimeout = 30 * time.Second

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	catalog, err := cfg.World.buildCatalog()
	if err != nil {
		return nil, fmt.Errorf("loading building catalog: %w", err)
	}

	seeds, err := storage.LoadTerritorySeeds(cfg.Storage.TerritoriesPath)
	if err != nil {
		return nil, fmt.Errorf("loading territory seeds: %w", err)
	}

	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	store, err := storage.OpenSQLite(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	closers := []io.Closer{store}

	// The roster must be complete before the world serves requests.
	roster := player.NewPlayerManager(store)
	ctx, cancel := context.WithTimeout(context.Background(), rosterLoadTimeout)
	err = roster.Load(ctx)
	cancel()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	sched := scheduler.New(scheduler.SystemClock())

	opts := append(cfg.World.worldOpts(),
		world.WithScheduler(sched),
		world.WithTargetLocator(roster),
		world.WithPublisher(messaging.NewNatsPublisher(natsServer)),
		world.WithLootDropper(messaging.NewLootDropper(natsServer, sched.Clock())),
		world.WithTerritorySeeds(seeds),
	)
	if cfg.Storage.EventLogPath != "" {
		eventLog := storage.NewEventLog(cfg.Storage.EventLogPath, "audit")
		opts = append(opts, world.WithRecorder(eventLog))
		closers = append(closers, eventLog)
	}

	w, err := world.New(catalog, store, roster, opts...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("creating world: %w", err)
	}

	drv := driver.NewDriver([]driver.Manager{sched}, driver.WithTickLength(cfg.tickLength()))

	return service.WorkerList{
		"nats":    natsServer,
		"world":   &worldWorker{world: w, closers: closers},
		"driver":  drv,
		"gateway": messaging.NewGateway(natsServer, w, roster),
	}, nil
}

// worldWorker runs the world and releases its storage once the final flush is
// done.
type worldWorker struct {
	world   *world.World
	closers []io.Closer
}

func (ww *worldWorker) Start(ctx context.Context) error {
	err := ww.world.Start(ctx)
	for _, c := range ww.closers {
		if cerr := c.Close(); cerr != nil {
			slog.Error("closing storage", "error", cerr)
		}
	}
	return err
}
