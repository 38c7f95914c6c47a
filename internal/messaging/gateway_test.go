package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
	"github.com/pixil98/holdfast/internal/game"
	"github.com/pixil98/holdfast/internal/world"
	"github.com/pixil98/holdfast/internal/zones"
)

type decodedResponse struct {
	OK    bool            `json:"ok"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

func handle(t *testing.T, g *Gateway, subject, body string) decodedResponse {
	t.Helper()
	var resp decodedResponse
	if err := json.Unmarshal(g.Handle(context.Background(), subject, []byte(body)), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp
}

func TestGateway_Handle(t *testing.T) {
	tests := map[string]struct {
		subject string
		body    string
		setup   func(w *fakeWorld, r *fakeRoster)
		expOK   bool
		expErr  string
		expData string
		check   func(t *testing.T, w *fakeWorld, r *fakeRoster)
	}{
		"place": {
			subject: SubjectPlace,
			body:    `{"player_id":1,"building_type":"WOOD_WALL","x":100,"y":200,"rotation":90}`,
			expOK:   true,
			expData: `{"building_id":1}`,
			check: func(t *testing.T, w *fakeWorld, _ *fakeRoster) {
				testutil.AssertEqual(t, "request", w.placed[0], world.PlaceRequest{Requester: 1, Type: "WOOD_WALL", X: 100, Y: 200, Rotation: 90})
			},
		},
		"place refused": {
			subject: SubjectPlace,
			body:    `{"player_id":1,"building_type":"WOOD_WALL","x":100,"y":200}`,
			setup:   func(w *fakeWorld, _ *fakeRoster) { w.placeErr = game.ErrCollision },
			expErr:  "Too close to another building",
		},
		"place without resources": {
			subject: SubjectPlace,
			body:    `{"player_id":1,"building_type":"WOOD_WALL","x":100,"y":200}`,
			setup: func(w *fakeWorld, _ *fakeRoster) {
				w.placeErr = fmt.Errorf("%w. need: %s", game.ErrInsufficientResources, game.Resources{Wood: 50})
			},
			expErr: "Insufficient resources. need:",
		},
		"malformed body": {
			subject: SubjectPlace,
			body:    `{"player_id":`,
			expErr:  "Bad request",
		},
		"unknown subject": {
			subject: "world.explode",
			body:    `{}`,
			expErr:  "Unknown subject world.explode",
		},
		"damage": {
			subject: SubjectDamage,
			body:    `{"building_id":4,"amount":50,"attacker":9}`,
			expOK:   true,
			expData: `{"destroyed":false,"remaining_health":150}`,
			check: func(t *testing.T, w *fakeWorld, _ *fakeRoster) {
				testutil.AssertEqual(t, "damage", w.damaged[0], DamageRequest{BuildingID: 4, Amount: 50, Attacker: 9})
			},
		},
		"repair": {
			subject: SubjectRepair,
			body:    `{"player_id":2,"building_id":4}`,
			expOK:   true,
			expData: `{"cost":{"wood":5,"stone":0,"metal":0,"uranium":0}}`,
		},
		"upgrade at max tier": {
			subject: SubjectUpgrade,
			body:    `{"player_id":2,"building_id":4}`,
			expErr:  "Building at max tier",
		},
		"capture": {
			subject: SubjectCapture,
			body:    `{"territory_id":3,"player_id":2,"amount":12.5}`,
			expOK:   true,
			check: func(t *testing.T, w *fakeWorld, _ *fakeRoster) {
				testutil.AssertEqual(t, "capture", w.captures[0], CaptureRequest{TerritoryID: 3, PlayerID: 2, Amount: 12.5})
			},
		},
		"near with negative radius": {
			subject: SubjectNear,
			body:    `{"x":1,"y":1,"radius":-5}`,
			expErr:  "radius must not be negative",
		},
		"territories": {
			subject: SubjectTerritories,
			setup: func(w *fakeWorld, _ *fakeRoster) {
				w.terrs = []*game.Territory{{ID: 1, Name: "North Ridge"}}
			},
			expOK: true,
		},
		"join": {
			subject: SubjectJoin,
			body:    `{"id":5,"name":"ana","faction":"red","level":3,"pos":{"x":10,"y":10},"health":100}`,
			expOK:   true,
			check: func(t *testing.T, w *fakeWorld, r *fakeRoster) {
				p := r.players[5]
				testutil.AssertEqual(t, "online", p.Online, true)
				testutil.AssertEqual(t, "level", p.Level, 3)
				testutil.AssertEqual(t, "marked", w.marked, []game.PlayerID{5})
			},
		},
		"join without id": {
			subject: SubjectJoin,
			body:    `{"name":"ana"}`,
			expErr:  "id must be set",
		},
		"move": {
			subject: SubjectMove,
			body:    `{"player_id":5,"x":40,"y":50}`,
			setup:   func(_ *fakeWorld, r *fakeRoster) { r.players[5] = game.Player{ID: 5} },
			expOK:   true,
			check: func(t *testing.T, w *fakeWorld, r *fakeRoster) {
				testutil.AssertEqual(t, "pos", r.players[5].Pos, zones.Point{X: 40, Y: 50})
				testutil.AssertEqual(t, "marked", w.marked, []game.PlayerID{5})
			},
		},
		"move unknown player": {
			subject: SubjectMove,
			body:    `{"player_id":5,"x":40,"y":50}`,
			expErr:  "Player not found",
			check: func(t *testing.T, w *fakeWorld, _ *fakeRoster) {
				testutil.AssertEqual(t, "marked", len(w.marked), 0)
			},
		},
		"leave": {
			subject: SubjectLeave,
			body:    `{"player_id":5}`,
			setup:   func(_ *fakeWorld, r *fakeRoster) { r.players[5] = game.Player{ID: 5, Online: true} },
			expOK:   true,
			check: func(t *testing.T, w *fakeWorld, r *fakeRoster) {
				testutil.AssertEqual(t, "online", r.players[5].Online, false)
				testutil.AssertEqual(t, "marked", w.marked, []game.PlayerID{5})
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w := &fakeWorld{}
			r := newFakeRoster()
			if tt.setup != nil {
				tt.setup(w, r)
			}
			g := NewGateway(nil, w, r)

			resp := handle(t, g, tt.subject, tt.body)

			testutil.AssertEqual(t, "ok", resp.OK, tt.expOK)
			if tt.expErr != "" && !strings.Contains(resp.Error, tt.expErr) {
				t.Errorf("error %q does not contain %q", resp.Error, tt.expErr)
			}
			if tt.expData != "" {
				testutil.AssertEqual(t, "data", string(resp.Data), tt.expData)
			}
			if tt.check != nil {
				tt.check(t, w, r)
			}
		})
	}
}
