package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pixil98/holdfast/internal/game"
	"github.com/pixil98/holdfast/internal/zones"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists buildings, territories and players in a single SQLite
// database. It implements game.Store.
type SQLiteStore struct {
	db *sqlx.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func initPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func migrate(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS buildings (
		id INTEGER PRIMARY KEY,
		type TEXT NOT NULL,
		tier INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		zone INTEGER NOT NULL,
		rotation REAL NOT NULL,
		owner_id INTEGER NOT NULL,
		clan_id INTEGER NOT NULL DEFAULT 0,
		health INTEGER NOT NULL,
		max_health INTEGER NOT NULL,
		armor INTEGER NOT NULL,
		status TEXT NOT NULL,
		decaying INTEGER NOT NULL DEFAULT 0,
		payload_kind TEXT NOT NULL DEFAULT '',
		payload_json TEXT NOT NULL DEFAULT '{}',
		decay_at INTEGER NOT NULL,
		completes_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS territories (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		zone INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		radius REAL NOT NULL,
		controlled_by TEXT NOT NULL DEFAULT '',
		owner_id INTEGER NOT NULL DEFAULT 0,
		clan_id INTEGER NOT NULL DEFAULT 0,
		capture_progress REAL NOT NULL DEFAULT 0,
		under_attack INTEGER NOT NULL DEFAULT 0,
		last_attack_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		clan_id INTEGER NOT NULL DEFAULT 0,
		faction TEXT NOT NULL DEFAULT '',
		level INTEGER NOT NULL DEFAULT 0,
		x REAL NOT NULL DEFAULT 0,
		y REAL NOT NULL DEFAULT 0,
		health INTEGER NOT NULL DEFAULT 0,
		wood INTEGER NOT NULL DEFAULT 0,
		stone INTEGER NOT NULL DEFAULT 0,
		metal INTEGER NOT NULL DEFAULT 0,
		uranium INTEGER NOT NULL DEFAULT 0,
		buildings_destroyed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_buildings_zone ON buildings(zone, status);
	CREATE INDEX IF NOT EXISTS idx_buildings_owner ON buildings(owner_id);
	CREATE INDEX IF NOT EXISTS idx_territories_zone ON territories(zone);
	`
	_, err := db.Exec(schema)
	return err
}

type buildingRow struct {
	ID          int64   `db:"id"`
	Type        string  `db:"type"`
	Tier        int     `db:"tier"`
	X           float64 `db:"x"`
	Y           float64 `db:"y"`
	Zone        int64   `db:"zone"`
	Rotation    float64 `db:"rotation"`
	OwnerID     int64   `db:"owner_id"`
	ClanID      int64   `db:"clan_id"`
	Health      int     `db:"health"`
	MaxHealth   int     `db:"max_health"`
	Armor       int     `db:"armor"`
	Status      string  `db:"status"`
	Decaying    bool    `db:"decaying"`
	PayloadKind string  `db:"payload_kind"`
	PayloadJSON string  `db:"payload_json"`
	DecayAt     int64   `db:"decay_at"`
	CompletesAt int64   `db:"completes_at"`
	CreatedAt   int64   `db:"created_at"`
}

const buildingColumns = `id, type, tier, x, y, zone, rotation, owner_id, clan_id, health, max_health,
	armor, status, decaying, payload_kind, payload_json, decay_at, completes_at, created_at`

const buildingValues = `:id, :type, :tier, :x, :y, :zone, :rotation, :owner_id, :clan_id, :health, :max_health,
	:armor, :status, :decaying, :payload_kind, :payload_json, :decay_at, :completes_at, :created_at`

func newBuildingRow(b *game.Building) (buildingRow, error) {
	payload, err := game.EncodePayload(b.Payload)
	if err != nil {
		return buildingRow{}, fmt.Errorf("encoding payload: %w", err)
	}
	var kind game.PayloadKind
	if b.Payload != nil {
		kind = b.Payload.Kind()
	}
	return buildingRow{
		ID:          int64(b.ID),
		Type:        string(b.Type),
		Tier:        b.Tier,
		X:           b.Pos.X,
		Y:           b.Pos.Y,
		Zone:        int64(b.Zone),
		Rotation:    b.Rotation,
		OwnerID:     int64(b.Owner),
		ClanID:      int64(b.Clan),
		Health:      b.Health,
		MaxHealth:   b.MaxHealth,
		Armor:       b.Armor,
		Status:      b.Status.String(),
		Decaying:    b.Decaying,
		PayloadKind: string(kind),
		PayloadJSON: string(payload),
		DecayAt:     toMillis(b.DecayAt),
		CompletesAt: toMillis(b.CompletesAt),
		CreatedAt:   toMillis(b.CreatedAt),
	}, nil
}

func (r buildingRow) building() (*game.Building, error) {
	var status game.Status
	if err := status.UnmarshalText([]byte(r.Status)); err != nil {
		return nil, err
	}
	payload, err := game.DecodePayload(game.PayloadKind(r.PayloadKind), []byte(r.PayloadJSON))
	if err != nil {
		return nil, err
	}
	return &game.Building{
		ID:          game.BuildingID(r.ID),
		Type:        game.BuildingType(r.Type),
		Tier:        r.Tier,
		Pos:         zones.Point{X: r.X, Y: r.Y},
		Zone:        zones.Key(r.Zone),
		Rotation:    r.Rotation,
		Owner:       game.PlayerID(r.OwnerID),
		Clan:        game.ClanID(r.ClanID),
		Health:      r.Health,
		MaxHealth:   r.MaxHealth,
		Armor:       r.Armor,
		Status:      status,
		Decaying:    r.Decaying,
		Payload:     payload,
		DecayAt:     fromMillis(r.DecayAt),
		CompletesAt: fromMillis(r.CompletesAt),
		CreatedAt:   fromMillis(r.CreatedAt),
	}, nil
}

// LoadBuildings returns the non-destroyed buildings in the given zones.
// Rows that cannot be decoded are returned as an error.
func (s *SQLiteStore) LoadBuildings(ctx context.Context, zs []zones.Key) ([]*game.Building, error) {
	if len(zs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT `+buildingColumns+` FROM buildings WHERE status != ? AND zone IN (?) ORDER BY id`,
		game.StatusDestroyed.String(), zoneArgs(zs))
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	var rows []buildingRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("selecting buildings: %w", err)
	}

	out := make([]*game.Building, 0, len(rows))
	for _, r := range rows {
		b, err := r.building()
		if err != nil {
			return nil, fmt.Errorf("building %d: %w", r.ID, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *SQLiteStore) MaxBuildingID(ctx context.Context) (game.BuildingID, error) {
	var id int64
	if err := s.db.GetContext(ctx, &id, `SELECT COALESCE(MAX(id), 0) FROM buildings`); err != nil {
		return 0, fmt.Errorf("selecting max id: %w", err)
	}
	return game.BuildingID(id), nil
}

// InsertBuilding writes a new building. It fails if the id is already taken.
func (s *SQLiteStore) InsertBuilding(ctx context.Context, b *game.Building) error {
	row, err := newBuildingRow(b)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, `INSERT INTO buildings (`+buildingColumns+`) VALUES (`+buildingValues+`)`, row)
	if err != nil {
		return fmt.Errorf("inserting building %d: %w", b.ID, err)
	}
	return nil
}

// SaveBuilding writes the current state of a building, creating it if needed.
func (s *SQLiteStore) SaveBuilding(ctx context.Context, b *game.Building) error {
	row, err := newBuildingRow(b)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, `INSERT INTO buildings (`+buildingColumns+`) VALUES (`+buildingValues+`)
		ON CONFLICT(id) DO UPDATE SET
			tier = excluded.tier,
			rotation = excluded.rotation,
			clan_id = excluded.clan_id,
			health = excluded.health,
			max_health = excluded.max_health,
			armor = excluded.armor,
			status = excluded.status,
			decaying = excluded.decaying,
			payload_kind = excluded.payload_kind,
			payload_json = excluded.payload_json,
			decay_at = excluded.decay_at,
			completes_at = excluded.completes_at`, row)
	if err != nil {
		return fmt.Errorf("saving building %d: %w", b.ID, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteBuilding(ctx context.Context, id game.BuildingID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM buildings WHERE id = ?`, int64(id)); err != nil {
		return fmt.Errorf("deleting building %d: %w", id, err)
	}
	return nil
}

type territoryRow struct {
	ID           int64   `db:"id"`
	Name         string  `db:"name"`
	Zone         int64   `db:"zone"`
	X            float64 `db:"x"`
	Y            float64 `db:"y"`
	Radius       float64 `db:"radius"`
	ControlledBy string  `db:"controlled_by"`
	OwnerID      int64   `db:"owner_id"`
	ClanID       int64   `db:"clan_id"`
	Progress     float64 `db:"capture_progress"`
	UnderAttack  bool    `db:"under_attack"`
	LastAttackAt int64   `db:"last_attack_at"`
}

func (s *SQLiteStore) LoadTerritories(ctx context.Context, zs []zones.Key) ([]*game.Territory, error) {
	if len(zs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM territories WHERE zone IN (?) ORDER BY id`, zoneArgs(zs))
	if err != nil {
		return nil, fmt.Errorf("territory query: %w", err)
	}

	var rows []territoryRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("selecting territories: %w", err)
	}

	out := make([]*game.Territory, 0, len(rows))
	for _, r := range rows {
		out = append(out, &game.Territory{
			ID:           game.TerritoryID(r.ID),
			Name:         r.Name,
			Zone:         zones.Key(r.Zone),
			Center:       zones.Point{X: r.X, Y: r.Y},
			Radius:       r.Radius,
			ControlledBy: r.ControlledBy,
			Owner:        game.PlayerID(r.OwnerID),
			Clan:         game.ClanID(r.ClanID),
			Progress:     r.Progress,
			UnderAttack:  r.UnderAttack,
			LastAttackAt: fromMillis(r.LastAttackAt),
		})
	}
	return out, nil
}

func (s *SQLiteStore) SaveTerritory(ctx context.Context, t *game.Territory) error {
	row := territoryRow{
		ID:           int64(t.ID),
		Name:         t.Name,
		Zone:         int64(t.Zone),
		X:            t.Center.X,
		Y:            t.Center.Y,
		Radius:       t.Radius,
		ControlledBy: t.ControlledBy,
		OwnerID:      int64(t.Owner),
		ClanID:       int64(t.Clan),
		Progress:     t.Progress,
		UnderAttack:  t.UnderAttack,
		LastAttackAt: toMillis(t.LastAttackAt),
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO territories
		(id, name, zone, x, y, radius, controlled_by, owner_id, clan_id, capture_progress, under_attack, last_attack_at)
		VALUES (:id, :name, :zone, :x, :y, :radius, :controlled_by, :owner_id, :clan_id, :capture_progress, :under_attack, :last_attack_at)
		ON CONFLICT(id) DO UPDATE SET
			controlled_by = excluded.controlled_by,
			owner_id = excluded.owner_id,
			clan_id = excluded.clan_id,
			capture_progress = excluded.capture_progress,
			under_attack = excluded.under_attack,
			last_attack_at = excluded.last_attack_at`, row)
	if err != nil {
		return fmt.Errorf("saving territory %d: %w", t.ID, err)
	}
	return nil
}

type playerRow struct {
	ID                 int64   `db:"id"`
	Name               string  `db:"name"`
	ClanID             int64   `db:"clan_id"`
	Faction            string  `db:"faction"`
	Level              int     `db:"level"`
	X                  float64 `db:"x"`
	Y                  float64 `db:"y"`
	Health             int     `db:"health"`
	Wood               int     `db:"wood"`
	Stone              int     `db:"stone"`
	Metal              int     `db:"metal"`
	Uranium            int     `db:"uranium"`
	BuildingsDestroyed int     `db:"buildings_destroyed"`
}

func (r playerRow) player() game.Player {
	return game.Player{
		ID:                 game.PlayerID(r.ID),
		Name:               r.Name,
		Clan:               game.ClanID(r.ClanID),
		Faction:            r.Faction,
		Level:              r.Level,
		Pos:                zones.Point{X: r.X, Y: r.Y},
		Health:             r.Health,
		BuildingsDestroyed: r.BuildingsDestroyed,
		Resources: game.Resources{
			Wood:    r.Wood,
			Stone:   r.Stone,
			Metal:   r.Metal,
			Uranium: r.Uranium,
		},
	}
}

func (s *SQLiteStore) SavePlayer(ctx context.Context, p game.Player) error {
	row := playerRow{
		ID:                 int64(p.ID),
		Name:               p.Name,
		ClanID:             int64(p.Clan),
		Faction:            p.Faction,
		Level:              p.Level,
		X:                  p.Pos.X,
		Y:                  p.Pos.Y,
		Health:             p.Health,
		Wood:               p.Resources.Wood,
		Stone:              p.Resources.Stone,
		Metal:              p.Resources.Metal,
		Uranium:            p.Resources.Uranium,
		BuildingsDestroyed: p.BuildingsDestroyed,
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT OR REPLACE INTO players
		(id, name, clan_id, faction, level, x, y, health, wood, stone, metal, uranium, buildings_destroyed)
		VALUES (:id, :name, :clan_id, :faction, :level, :x, :y, :health, :wood, :stone, :metal, :uranium, :buildings_destroyed)`, row)
	if err != nil {
		return fmt.Errorf("saving player %d: %w", p.ID, err)
	}
	return nil
}

// LoadPlayers returns every persisted player.
func (s *SQLiteStore) LoadPlayers(ctx context.Context) ([]game.Player, error) {
	var rows []playerRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM players ORDER BY id`); err != nil {
		return nil, fmt.Errorf("selecting players: %w", err)
	}

	out := make([]game.Player, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.player())
	}
	return out, nil
}

func zoneArgs(zs []zones.Key) []int64 {
	out := make([]int64, len(zs))
	for i, z := range zs {
		out[i] = int64(z)
	}
	return out
}

// toMillis stores the zero time as 0 so it round-trips.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
