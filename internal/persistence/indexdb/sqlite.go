// Package indexdb keeps a queryable SQLite copy of the tick log. The tick
// log stays the source of truth; the index may drop entries when its writer
// falls behind.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/tuning"
	"tilecraft.ai/internal/sim/world"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan world.TickLogEntry
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
	failed  atomic.Uint64
}

type Stats struct {
	QueueDepth     int
	QueueCapacity  int
	DropTickTotal  uint64
	WriteFailTotal uint64
}

// EventRow is one indexed event.
type EventRow struct {
	Tick   uint64
	Seq    int
	Type   string
	Unit   int
	Target int
	Task   string
	Detail string
	Amount int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{db: db, ch: make(chan world.TickLogEntry, 65536)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	} {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			body TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			orders INTEGER NOT NULL,
			events INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS orders (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			err TEXT,
			msg_json TEXT,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			unit INTEGER NOT NULL,
			target INTEGER NOT NULL,
			x INTEGER,
			y INTEGER,
			task TEXT,
			detail TEXT,
			amount INTEGER NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_unit_tick ON events(unit, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type_tick ON events(type, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteTick implements world.TickLogger. It never blocks the world loop.
func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- entry:
	default:
		s.dropped.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		DropTickTotal:  s.dropped.Load(),
		WriteFailTotal: s.failed.Load(),
	}
}

// UpsertCatalogs records the unit catalog and the tuning in effect so
// indexed ticks can be matched to the rules that produced them.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type row struct{ name, digest, body string }
	var rows []row
	if b, err := os.ReadFile(filepath.Join(configDir, "units.yaml")); err == nil && cats != nil {
		rows = append(rows, row{"units", cats.Digest, string(b)})
	}
	tb, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(tb)
	rows = append(rows, row{"tuning", hex.EncodeToString(sum[:]), string(tb)})

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO catalogs(name,digest,body,updated_at) VALUES(?,?,?,?)`, r.name, r.digest, r.body, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UnitEvents returns the indexed events that name unit as actor, oldest first.
func (s *SQLiteIndex) UnitEvents(ctx context.Context, unit int) ([]EventRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tick,seq,type,unit,target,COALESCE(task,''),COALESCE(detail,''),amount
		 FROM events WHERE unit=? ORDER BY tick,seq`, unit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EventRow
	for rows.Next() {
		var r EventRow
		var tick int64
		if err := rows.Scan(&tick, &r.Seq, &r.Type, &r.Unit, &r.Target, &r.Task, &r.Detail, &r.Amount); err != nil {
			return nil, err
		}
		r.Tick = uint64(tick)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) CountEvents(ctx context.Context, typ string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE type=?`, typ).Scan(&n)
	return n, err
}

func (s *SQLiteIndex) loop() {
	var (
		tx            *sql.Tx
		pending       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second
	)
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.failed.Add(1)
		}
		tx, pending, lastCommit = nil, 0, time.Now()
	}

	for e := range s.ch {
		if tx == nil {
			txx, err := s.db.BeginTx(context.Background(), nil)
			if err != nil {
				s.failed.Add(1)
				time.Sleep(50 * time.Millisecond)
				continue
			}
			tx = txx
		}
		if err := insertTick(tx, e); err != nil {
			s.failed.Add(1)
			_ = tx.Rollback()
			tx, pending = nil, 0
			continue
		}
		pending++
		if pending >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}
	commit()
}

func insertTick(tx *sql.Tx, e world.TickLogEntry) error {
	tick := int64(e.Tick)
	if _, err := tx.Exec(`INSERT OR REPLACE INTO ticks(tick,digest,orders,events) VALUES(?,?,?,?)`,
		tick, e.Digest, len(e.Orders), len(e.Events)); err != nil {
		return err
	}
	for i, o := range e.Orders {
		var errText, msgJSON any
		if o.Err != "" {
			errText = o.Err
		}
		if o.Msg != nil {
			b, _ := json.Marshal(o.Msg)
			msgJSON = string(b)
		}
		if _, err := tx.Exec(`INSERT OR REPLACE INTO orders(tick,seq,player_id,name,err,msg_json) VALUES(?,?,?,?,?,?)`,
			tick, i, o.PlayerID, o.Order, errText, msgJSON); err != nil {
			return err
		}
	}
	for i, ev := range e.Events {
		var x, y any
		if ev.Pos != nil {
			x, y = ev.Pos[0], ev.Pos[1]
		}
		if _, err := tx.Exec(`INSERT OR REPLACE INTO events(tick,seq,type,unit,target,x,y,task,detail,amount) VALUES(?,?,?,?,?,?,?,?,?,?)`,
			tick, i, ev.Type, ev.Unit, ev.Target, x, y, ev.Task, ev.Detail, ev.Amount); err != nil {
			return err
		}
	}
	return nil
}
