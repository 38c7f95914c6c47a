package driver

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	DefaultTickLength = 100 * time.Millisecond
)

// Manager is anything that advances on every driver tick.
type Manager interface {
	Tick(context.Context) error
}

// Driver calls Tick on its managers at a fixed resolution. Entity timers are
// resolved against this resolution, so it bounds how late a turret may fire.
type Driver struct {
	tickLength time.Duration
	managers   []Manager
	overruns   atomic.Int64
}

func NewDriver(managers []Manager, opts ...DriverOpt) *Driver {
	d := &Driver{
		tickLength: DefaultTickLength,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Driver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	slog.InfoContext(ctx, "driver started", "tick", d.tickLength)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			start := time.Now()
			err := d.Tick(ctx)
			if err != nil {
				return err
			}
			if took := time.Since(start); took > d.tickLength {
				d.overruns.Add(1)
				slog.WarnContext(ctx, "tick overran", "took", took, "tick", d.tickLength)
			}
		}
	}
}

// Overruns returns how many ticks took longer than the tick length.
func (d *Driver) Overruns() int64 {
	return d.overruns.Load()
}

func (d *Driver) Tick(ctx context.Context) error {
	for _, m := range d.managers {
		err := m.Tick(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}
