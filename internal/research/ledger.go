// Package research provides an append-only SQLite ledger for
// conversation transcripts, info-flow edges, relationship snapshots, and
// emergent-phenomena notes, and the JSON research-export it backs
// (spec.md §6). The ledger is write-only from the simulation's
// perspective: nothing here is ever read back into live state.
package research

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Ledger wraps a SQLite connection used only for appends and the final
// export query — never for restoring simulation state.
type Ledger struct {
	conn *sqlx.DB
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open research ledger: %w", err)
	}
	l := &Ledger{conn: conn}
	if err := l.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate research ledger: %w", err)
	}
	return l, nil
}

// Close closes the underlying connection.
func (l *Ledger) Close() error { return l.conn.Close() }

func (l *Ledger) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversation_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day INTEGER NOT NULL,
		hour INTEGER NOT NULL,
		speaker TEXT NOT NULL,
		listener TEXT NOT NULL,
		text TEXT NOT NULL,
		topic TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS information_flow (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day INTEGER NOT NULL,
		hour INTEGER NOT NULL,
		from_agent TEXT NOT NULL,
		to_agent TEXT NOT NULL,
		topic TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS relationship_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day INTEGER NOT NULL,
		agent TEXT NOT NULL,
		target TEXT NOT NULL,
		label TEXT NOT NULL,
		trust REAL NOT NULL,
		familiarity REAL NOT NULL,
		attraction REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS emergent_phenomena (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day INTEGER NOT NULL,
		kind TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_conv_day ON conversation_log(day);
	CREATE INDEX IF NOT EXISTS idx_flow_day ON information_flow(day);
	CREATE INDEX IF NOT EXISTS idx_rel_day ON relationship_snapshots(day);
	`
	_, err := l.conn.Exec(schema)
	return err
}

// ConversationRow is one appended line of dialogue.
type ConversationRow struct {
	Day      int    `db:"day"`
	Hour     int    `db:"hour"`
	Speaker  string `db:"speaker"`
	Listener string `db:"listener"`
	Text     string `db:"text"`
	Topic    string `db:"topic"`
}

// AppendConversation writes a batch of transcript lines.
func (l *Ledger) AppendConversation(rows []ConversationRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := l.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO conversation_log
		(day, hour, speaker, listener, text, topic) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.Day, r.Hour, r.Speaker, r.Listener, r.Text, r.Topic); err != nil {
			return fmt.Errorf("append conversation row: %w", err)
		}
	}
	return tx.Commit()
}

// InfoFlowRow is one appended diffusion edge.
type InfoFlowRow struct {
	Day   int    `db:"day"`
	Hour  int    `db:"hour"`
	From  string `db:"from_agent"`
	To    string `db:"to_agent"`
	Topic string `db:"topic"`
}

// AppendInfoFlow writes a batch of info-flow edges.
func (l *Ledger) AppendInfoFlow(rows []InfoFlowRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := l.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO information_flow
		(day, hour, from_agent, to_agent, topic) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.Day, r.Hour, r.From, r.To, r.Topic); err != nil {
			return fmt.Errorf("append info-flow row: %w", err)
		}
	}
	return tx.Commit()
}

// RelationshipRow is one appended relationship snapshot.
type RelationshipRow struct {
	Day         int     `db:"day"`
	Agent       string  `db:"agent"`
	Target      string  `db:"target"`
	Label       string  `db:"label"`
	Trust       float64 `db:"trust"`
	Familiarity float64 `db:"familiarity"`
	Attraction  float64 `db:"attraction"`
}

// AppendRelationshipSnapshot writes a batch of relationship snapshots,
// taken once per sim-day per spec.md §6's relationship_network export.
func (l *Ledger) AppendRelationshipSnapshot(rows []RelationshipRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := l.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO relationship_snapshots
		(day, agent, target, label, trust, familiarity, attraction) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.Day, r.Agent, r.Target, r.Label, r.Trust, r.Familiarity, r.Attraction); err != nil {
			return fmt.Errorf("append relationship row: %w", err)
		}
	}
	return tx.Commit()
}

// EmergentPhenomenonRow is one appended note about culture, belief, or
// technology emergence detected by the world-evolution pass.
type EmergentPhenomenonRow struct {
	Day         int    `db:"day"`
	Kind        string `db:"kind"`
	Description string `db:"description"`
}

// AppendEmergentPhenomenon writes one emergent-phenomena note.
func (l *Ledger) AppendEmergentPhenomenon(row EmergentPhenomenonRow) error {
	_, err := l.conn.Exec(
		"INSERT INTO emergent_phenomena (day, kind, description) VALUES (?, ?, ?)",
		row.Day, row.Kind, row.Description,
	)
	return err
}
