package world

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
	"github.com/pixil98/holdfast/internal/game"
	"github.com/pixil98/holdfast/internal/zones"
)

func TestCaptureProgress(t *testing.T) {
	tests := map[string]struct {
		controlledBy string
		progress     float64
		amount       float64
		expTerritory game.Territory
		expCaptured  bool
	}{
		"same faction makes no progress": {
			controlledBy: "red",
			progress:     40,
			amount:       10,
			expTerritory: game.Territory{ControlledBy: "red", Progress: 40},
		},
		"progress accumulates": {
			controlledBy: "blue",
			progress:     40,
			amount:       10,
			expTerritory: game.Territory{ControlledBy: "blue", Progress: 50, UnderAttack: true, LastAttackAt: epoch},
		},
		"crossing one hundred captures": {
			controlledBy: "blue",
			progress:     95,
			amount:       10,
			expTerritory: game.Territory{ControlledBy: "red", Owner: 1, Clan: 4, LastAttackAt: epoch},
			expCaptured:  true,
		},
		"neutral territory": {
			progress:     0,
			amount:       100,
			expTerritory: game.Territory{ControlledBy: "red", Owner: 1, Clan: 4, LastAttackAt: epoch},
			expCaptured:  true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, func(s *memStore) {
				s.territories[3] = &game.Territory{ID: 3, Name: "ridge", Center: zones.Point{X: 1000, Y: 1000}, Radius: 300, ControlledBy: tt.controlledBy, Progress: tt.progress}
			}, WithShard(0, 1, 2))
			p := builder()
			p.Clan = 4
			f.players.put(p)

			if err := f.w.CaptureProgress(context.Background(), 3, 1, tt.amount); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got, _ := f.w.Territory(3)
			exp := tt.expTerritory
			exp.ID, exp.Name, exp.Center, exp.Radius = 3, "ridge", zones.Point{X: 1000, Y: 1000}, 300
			testutil.AssertEqual(t, "territory", *got, exp)

			captures := 0
			if tt.expCaptured {
				captures = 3
			}
			testutil.AssertEqual(t, "captured notices", f.pub.count(game.EventTerritoryCaptured), captures)
		})
	}
}

func TestCaptureProgress_Errors(t *testing.T) {
	f := newFixture(t, func(s *memStore) {
		s.territories[3] = &game.Territory{ID: 3, Name: "ridge", Radius: 300}
	})
	ctx := context.Background()

	if err := f.w.CaptureProgress(ctx, 9, 1, 10); !errors.Is(err, game.ErrTerritoryNotFound) {
		t.Fatalf("expected territory not found, got %v", err)
	}
	if err := f.w.CaptureProgress(ctx, 3, 9, 10); !errors.Is(err, game.ErrPlayerNotFound) {
		t.Fatalf("expected player not found, got %v", err)
	}
	if err := f.w.CaptureProgress(ctx, 3, 1, -1); !errors.Is(err, game.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestCaptureProgress_NoFaction(t *testing.T) {
	tests := map[string]struct {
		controlledBy string
		owner        game.PlayerID
	}{
		"faction controlled": {controlledBy: "blue", owner: 9},
		"neutral":            {},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, func(s *memStore) {
				s.territories[3] = &game.Territory{ID: 3, Name: "ridge", Radius: 300, ControlledBy: tt.controlledBy, Owner: tt.owner}
			})
			loner := builder()
			loner.ID, loner.Faction = 5, ""
			f.players.put(loner)

			err := f.w.CaptureProgress(context.Background(), 3, 5, 100)
			if !errors.Is(err, game.ErrNoFaction) {
				t.Fatalf("expected no faction, got %v", err)
			}

			got, _ := f.w.Territory(3)
			testutil.AssertEqual(t, "controller", got.ControlledBy, tt.controlledBy)
			testutil.AssertEqual(t, "owner", got.Owner, tt.owner)
			testutil.AssertEqual(t, "progress", got.Progress, 0.0)
			testutil.AssertEqual(t, "under attack", got.UnderAttack, false)
			_, pending, _ := f.w.Pending()
			testutil.AssertEqual(t, "nothing queued", pending, 0)
		})
	}
}

func TestSweepCaptureDecay(t *testing.T) {
	seed := func(s *memStore) {
		s.territories[3] = &game.Territory{ID: 3, Name: "ridge", Radius: 300, ControlledBy: "blue"}
	}

	t.Run("disabled by default", func(t *testing.T) {
		f := newFixture(t, seed)
		if err := f.w.CaptureProgress(context.Background(), 3, 1, 30); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		testutil.AssertEqual(t, "swept", f.w.SweepCaptureDecay(context.Background(), epoch.Add(time.Hour)), 0)
		got, _ := f.w.Territory(3)
		testutil.AssertEqual(t, "progress", got.Progress, 30.0)
	})

	t.Run("drains idle progress", func(t *testing.T) {
		f := newFixture(t, seed, WithCaptureDecay(CaptureDecay{IdleAfter: 5 * time.Minute, PerMinute: 20}))
		if err := f.w.CaptureProgress(context.Background(), 3, 1, 30); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		f.advance(t, 4*time.Minute)
		got, _ := f.w.Territory(3)
		testutil.AssertEqual(t, "progress while fresh", got.Progress, 30.0)

		f.advance(t, time.Minute)
		got, _ = f.w.Territory(3)
		testutil.AssertEqual(t, "progress", got.Progress, 10.0)

		f.advance(t, time.Minute)
		got, _ = f.w.Territory(3)
		testutil.AssertEqual(t, "progress", got.Progress, 0.0)
		testutil.AssertEqual(t, "under attack", got.UnderAttack, false)
	})
}
