package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"unicode"
	"unicode/utf8"

	"github.com/pixil98/holdfast/internal/game"
	"github.com/pixil98/holdfast/internal/world"
	"github.com/pixil98/holdfast/internal/zones"
)

const gatewayQueue = "holdfast"

const (
	SubjectPlace       = "world.place"
	SubjectDamage      = "world.damage"
	SubjectRepair      = "world.repair"
	SubjectUpgrade     = "world.upgrade"
	SubjectCapture     = "world.capture"
	SubjectNear        = "world.near"
	SubjectTerritories = "world.territories"
	SubjectJoin        = "player.join"
	SubjectMove        = "player.move"
	SubjectLeave       = "player.leave"
)

var ErrBadRequest = errors.New("bad request")

// World is the simulation the gateway exposes.
type World interface {
	PlaceBuilding(ctx context.Context, req world.PlaceRequest) (game.BuildingID, error)
	DamageBuilding(ctx context.Context, id game.BuildingID, amount int, attacker game.PlayerID) (world.DamageResult, error)
	RepairBuilding(ctx context.Context, requester game.PlayerID, id game.BuildingID) (game.Resources, error)
	UpgradeBuilding(ctx context.Context, requester game.PlayerID, id game.BuildingID) (game.Resources, error)
	CaptureProgress(ctx context.Context, id game.TerritoryID, requester game.PlayerID, amount float64) error
	GetBuildingsNear(x, y, radius float64) []*game.Building
	Territories() []*game.Territory
	MarkPlayer(id game.PlayerID)
}

// Roster receives presence and movement updates from the player service.
type Roster interface {
	Upsert(p game.Player)
	SetOnline(id game.PlayerID, online bool) error
	Move(id game.PlayerID, pos zones.Point) error
}

// Replier serves request/reply subjects.
type Replier interface {
	Ready() <-chan struct{}
	Reply(subject, queue string, handler func(data []byte) []byte) (func(), error)
}

type DamageRequest struct {
	BuildingID game.BuildingID `json:"building_id"`
	Amount     int             `json:"amount"`
	Attacker   game.PlayerID   `json:"attacker,omitempty"`
}

type BuildingRequest struct {
	PlayerID   game.PlayerID   `json:"player_id"`
	BuildingID game.BuildingID `json:"building_id"`
}

type CaptureRequest struct {
	TerritoryID game.TerritoryID `json:"territory_id"`
	PlayerID    game.PlayerID    `json:"player_id"`
	Amount      float64          `json:"amount"`
}

type NearRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

type MoveRequest struct {
	PlayerID game.PlayerID `json:"player_id"`
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
}

type LeaveRequest struct {
	PlayerID game.PlayerID `json:"player_id"`
}

// Response is the envelope of every gateway reply.
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type handlerFunc func(ctx context.Context, data []byte) (any, error)

// Gateway answers world and roster requests arriving over NATS.
type Gateway struct {
	server Replier
	world  World
	roster Roster
	routes map[string]handlerFunc
}

func NewGateway(server Replier, w World, roster Roster) *Gateway {
	g := &Gateway{
		server: server,
		world:  w,
		roster: roster,
	}
	g.routes = map[string]handlerFunc{
		SubjectPlace:       g.place,
		SubjectDamage:      g.damage,
		SubjectRepair:      g.repair,
		SubjectUpgrade:     g.upgrade,
		SubjectCapture:     g.capture,
		SubjectNear:        g.near,
		SubjectTerritories: g.territories,
		SubjectJoin:        g.join,
		SubjectMove:        g.move,
		SubjectLeave:       g.leave,
	}
	return g
}

func (g *Gateway) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-g.server.Ready():
	}

	var unsubs []func()
	defer func() {
		for _, u := range unsubs {
			u()
		}
	}()

	for subject := range g.routes {
		unsub, err := g.server.Reply(subject, gatewayQueue, func(data []byte) []byte {
			return g.Handle(ctx, subject, data)
		})
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", subject, err)
		}
		unsubs = append(unsubs, unsub)
	}

	slog.InfoContext(ctx, "gateway serving", "subjects", len(g.routes))
	<-ctx.Done()
	return nil
}

// Handle runs the request for subject and returns the encoded Response.
func (g *Gateway) Handle(ctx context.Context, subject string, data []byte) []byte {
	var resp Response

	h, ok := g.routes[subject]
	if !ok {
		resp.Error = reason(fmt.Sprintf("unknown subject %s", subject))
	} else if out, err := h(ctx, data); err != nil {
		resp.Error = reason(err.Error())
		if !errors.Is(err, ErrBadRequest) {
			slog.DebugContext(ctx, "request refused", "subject", subject, "error", err)
		}
	} else {
		resp.OK = true
		resp.Data = out
	}

	b, err := json.Marshal(resp)
	if err != nil {
		slog.Error("encoding response", "subject", subject, "error", err)
		return []byte(`{"ok":false,"error":"internal error"}`)
	}
	return b
}

// reason turns an error message into the sentence shown to players.
func reason(msg string) string {
	r, n := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[n:]
}

func decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return v, nil
}

func (g *Gateway) place(ctx context.Context, data []byte) (any, error) {
	req, err := decode[world.PlaceRequest](data)
	if err != nil {
		return nil, err
	}
	id, err := g.world.PlaceBuilding(ctx, req)
	if err != nil {
		return nil, err
	}
	return map[string]game.BuildingID{"building_id": id}, nil
}

func (g *Gateway) damage(ctx context.Context, data []byte) (any, error) {
	req, err := decode[DamageRequest](data)
	if err != nil {
		return nil, err
	}
	return g.world.DamageBuilding(ctx, req.BuildingID, req.Amount, req.Attacker)
}

func (g *Gateway) repair(ctx context.Context, data []byte) (any, error) {
	req, err := decode[BuildingRequest](data)
	if err != nil {
		return nil, err
	}
	cost, err := g.world.RepairBuilding(ctx, req.PlayerID, req.BuildingID)
	if err != nil {
		return nil, err
	}
	return map[string]game.Resources{"cost": cost}, nil
}

func (g *Gateway) upgrade(ctx context.Context, data []byte) (any, error) {
	req, err := decode[BuildingRequest](data)
	if err != nil {
		return nil, err
	}
	cost, err := g.world.UpgradeBuilding(ctx, req.PlayerID, req.BuildingID)
	if err != nil {
		return nil, err
	}
	return map[string]game.Resources{"cost": cost}, nil
}

func (g *Gateway) capture(ctx context.Context, data []byte) (any, error) {
	req, err := decode[CaptureRequest](data)
	if err != nil {
		return nil, err
	}
	return nil, g.world.CaptureProgress(ctx, req.TerritoryID, req.PlayerID, req.Amount)
}

func (g *Gateway) near(_ context.Context, data []byte) (any, error) {
	req, err := decode[NearRequest](data)
	if err != nil {
		return nil, err
	}
	if req.Radius < 0 {
		return nil, fmt.Errorf("%w: radius must not be negative", ErrBadRequest)
	}
	return g.world.GetBuildingsNear(req.X, req.Y, req.Radius), nil
}

func (g *Gateway) territories(_ context.Context, _ []byte) (any, error) {
	return g.world.Territories(), nil
}

func (g *Gateway) join(_ context.Context, data []byte) (any, error) {
	p, err := decode[game.Player](data)
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("%w: id must be set", ErrBadRequest)
	}
	p.Online = true
	g.roster.Upsert(p)
	g.world.MarkPlayer(p.ID)
	return nil, nil
}

func (g *Gateway) move(_ context.Context, data []byte) (any, error) {
	req, err := decode[MoveRequest](data)
	if err != nil {
		return nil, err
	}
	if err := g.roster.Move(req.PlayerID, zones.Point{X: req.X, Y: req.Y}); err != nil {
		return nil, err
	}
	g.world.MarkPlayer(req.PlayerID)
	return nil, nil
}

func (g *Gateway) leave(_ context.Context, data []byte) (any, error) {
	req, err := decode[LeaveRequest](data)
	if err != nil {
		return nil, err
	}
	if err := g.roster.SetOnline(req.PlayerID, false); err != nil {
		return nil, err
	}
	g.world.MarkPlayer(req.PlayerID)
	return nil, nil
}
