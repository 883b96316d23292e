// Package persistence provides an optional SQLite archive for world
// snapshots, spread events, and stats history. The simulation core is
// entirely in-memory (spec §6 "Persisted state layout: None required by
// the core") — this package exists for callers that want a queryable
// history beyond a world's lifetime, the way the teacher archives
// stats_history alongside its in-memory world state.
package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/RonniRodriguez/idea-inc/internal/simmodel"
	"github.com/RonniRodriguez/idea-inc/internal/simworld"
)

// DB wraps a SQLite connection for world archival.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS world_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		world_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		taken_at TEXT NOT NULL,
		total_agents INTEGER NOT NULL,
		active_agents INTEGER NOT NULL,
		total_ideas INTEGER NOT NULL,
		total_adoptions INTEGER NOT NULL,
		idea_stats_json TEXT NOT NULL,
		regional_stats_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_world_snapshots_world_step
		ON world_snapshots(world_id, step);

	CREATE TABLE IF NOT EXISTS spread_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		world_id TEXT NOT NULL,
		idea_id TEXT NOT NULL,
		from_agent TEXT NOT NULL,
		to_agent TEXT NOT NULL,
		probability REAL NOT NULL,
		accepted INTEGER NOT NULL,
		step INTEGER NOT NULL,
		occurred_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_spread_events_world_step
		ON spread_events(world_id, step);

	CREATE TABLE IF NOT EXISTS stats_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		world_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		recorded_at TEXT NOT NULL,
		status TEXT NOT NULL,
		total_agents INTEGER NOT NULL,
		active_agents INTEGER NOT NULL,
		saturation REAL NOT NULL,
		total_ideas INTEGER NOT NULL,
		total_adoptions INTEGER NOT NULL,
		total_mutations INTEGER NOT NULL,
		total_spread_events INTEGER NOT NULL,
		average_r0 REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stats_history_world_step
		ON stats_history(world_id, step);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type ideaStatRow struct {
	IdeaID       string  `json:"idea_id"`
	Text         string  `json:"text"`
	AdopterCount int     `json:"adopter_count"`
	Reach        int     `json:"reach"`
	AdoptionRate float64 `json:"adoption_rate"`
	Generation   int     `json:"generation"`
}

type regionalStatRow struct {
	Region         string  `json:"region"`
	TotalAgents    int     `json:"total_agents"`
	ActiveAgents   int     `json:"active_agents"`
	TotalAdoptions int     `json:"total_adoptions"`
	Saturation     float64 `json:"saturation"`
}

// SaveSnapshot archives one Snapshot row, JSON-encoding its idea and
// regional breakdowns the way the teacher JSON-encodes per-agent skills
// and needs maps alongside flat columns.
func (db *DB) SaveSnapshot(snap simworld.Snapshot) error {
	ideaStats := make([]ideaStatRow, len(snap.IdeaStats))
	for i, s := range snap.IdeaStats {
		ideaStats[i] = ideaStatRow{
			IdeaID:       s.IdeaID.String(),
			Text:         s.Text,
			AdopterCount: s.AdopterCount,
			Reach:        s.Reach,
			AdoptionRate: s.AdoptionRate,
			Generation:   s.Generation,
		}
	}
	regionalStats := make([]regionalStatRow, 0, len(snap.RegionalStats))
	for region, s := range snap.RegionalStats {
		regionalStats = append(regionalStats, regionalStatRow{
			Region:         region.String(),
			TotalAgents:    s.TotalAgents,
			ActiveAgents:   s.ActiveAgents,
			TotalAdoptions: s.TotalAdoptions,
			Saturation:     s.Saturation,
		})
	}

	ideaJSON, err := json.Marshal(ideaStats)
	if err != nil {
		return fmt.Errorf("marshal idea_stats: %w", err)
	}
	regionalJSON, err := json.Marshal(regionalStats)
	if err != nil {
		return fmt.Errorf("marshal regional_stats: %w", err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO world_snapshots
			(world_id, step, taken_at, total_agents, active_agents, total_ideas, total_adoptions, idea_stats_json, regional_stats_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.WorldID.String(), snap.Step, snap.Timestamp, snap.TotalAgents, snap.ActiveAgents,
		snap.TotalIdeas, snap.TotalAdoptions, string(ideaJSON), string(regionalJSON),
	)
	if err != nil {
		return fmt.Errorf("insert world_snapshots: %w", err)
	}
	return nil
}

// SaveEvents archives a batch of spread events for a world.
func (db *DB) SaveEvents(worldID simmodel.WorldID, events []simworld.SpreadEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`
		INSERT INTO spread_events
			(world_id, idea_id, from_agent, to_agent, probability, accepted, step, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare spread_events insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(worldID.String(), e.IdeaID.String(), e.FromAgent.String(), e.ToAgent.String(),
			e.Probability, e.Accepted, e.Step, e.Timestamp); err != nil {
			return fmt.Errorf("insert spread_events: %w", err)
		}
	}
	return tx.Commit()
}

// SaveStats archives one Stats snapshot for a world's history.
func (db *DB) SaveStats(worldID simmodel.WorldID, stats simworld.Stats) error {
	_, err := db.conn.Exec(`
		INSERT INTO stats_history
			(world_id, step, recorded_at, status, total_agents, active_agents, saturation,
			 total_ideas, total_adoptions, total_mutations, total_spread_events, average_r0)
		VALUES (?, ?, datetime('now'), ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		worldID.String(), stats.Step, stats.Status.String(), stats.TotalAgents, stats.ActiveAgents,
		stats.Saturation, stats.TotalIdeas, stats.TotalAdoptions, stats.TotalMutations,
		stats.TotalSpreadEvents, stats.AverageR0,
	)
	if err != nil {
		return fmt.Errorf("insert stats_history: %w", err)
	}
	return nil
}

// StatsHistoryRow is one archived row returned by StatsHistory.
type StatsHistoryRow struct {
	Step              uint64  `db:"step"`
	RecordedAt        string  `db:"recorded_at"`
	Status            string  `db:"status"`
	TotalAgents       int     `db:"total_agents"`
	ActiveAgents      int     `db:"active_agents"`
	Saturation        float64 `db:"saturation"`
	TotalIdeas        int     `db:"total_ideas"`
	TotalAdoptions    uint64  `db:"total_adoptions"`
	TotalMutations    uint64  `db:"total_mutations"`
	TotalSpreadEvents uint64  `db:"total_spread_events"`
	AverageR0         float64 `db:"average_r0"`
}

// StatsHistory returns every archived stats row for a world, ordered by step.
func (db *DB) StatsHistory(worldID simmodel.WorldID) ([]StatsHistoryRow, error) {
	var rows []StatsHistoryRow
	err := db.conn.Select(&rows, `
		SELECT step, recorded_at, status, total_agents, active_agents, saturation,
		       total_ideas, total_adoptions, total_mutations, total_spread_events, average_r0
		FROM stats_history
		WHERE world_id = ?
		ORDER BY step ASC`, worldID.String())
	if err != nil {
		return nil, fmt.Errorf("query stats_history: %w", err)
	}
	return rows, nil
}
