// Package reportstore is the async sqlite writer that indexes each
// domain build run for later querying: one row per run, one row per
// rank's build summary. It never blocks the build it is reporting on;
// writes are buffered onto a channel and committed by a single writer
// goroutine, batched by count or time the same way a background indexer
// batches its writes.
package reportstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// RankSummary is one rank's contribution to a run's report.
type RankSummary struct {
	Rank             int
	LocalFluidCount  int64
	BlockCount       int
	MidDomainCounts  [6]int64
	DomainEdgeCounts [6]int64
	TotalSharedFs    int64
	ElapsedMicros    int64
}

// Store is the open async writer. A nil *Store is safe to call methods
// on (they become no-ops), so reporting can be disabled without every
// call site needing a nil check.
type Store struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqRunStarted reqKind = iota + 1
	reqRankSummary
)

type req struct {
	kind reqKind
	run  runRow
	rank rankRow
}

type runRow struct {
	RunID     string
	StartedAt string
	Lattice   string
	Ranks     int
}

type rankRow struct {
	RunID   string
	Summary RankSummary
}

// Open creates or attaches to a sqlite database at path, ready to accept
// asynchronous writes.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("reportstore: empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
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

	s := &Store{db: db, ch: make(chan req, 4096)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			lattice TEXT NOT NULL,
			ranks INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS rank_summaries (
			run_id TEXT NOT NULL,
			rank INTEGER NOT NULL,
			local_fluid_count INTEGER NOT NULL,
			block_count INTEGER NOT NULL,
			mid_domain_json TEXT NOT NULL,
			domain_edge_json TEXT NOT NULL,
			total_shared_fs INTEGER NOT NULL,
			elapsed_micros INTEGER NOT NULL,
			PRIMARY KEY (run_id, rank)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// NewRunID mints a fresh run identifier.
func NewRunID() uuid.UUID { return uuid.New() }

// WriteRunStarted enqueues the one row identifying a run.
func (s *Store) WriteRunStarted(runID uuid.UUID, lattice string, ranks int) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqRunStarted, run: runRow{
		RunID:     runID.String(),
		StartedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Lattice:   lattice,
		Ranks:     ranks,
	}}:
	default:
		// Drop under backpressure; the run proceeds regardless of reporting.
	}
}

// WriteRankSummary enqueues one rank's build summary row.
func (s *Store) WriteRankSummary(runID uuid.UUID, summary RankSummary) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqRankSummary, rank: rankRow{RunID: runID.String(), Summary: summary}}:
	default:
	}
}

// Close drains and commits pending writes, then closes the database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *Store) loop() {
	ctx := context.Background()

	insertRun, _ := s.db.Prepare(`INSERT OR REPLACE INTO runs(run_id,started_at,lattice,ranks) VALUES(?,?,?,?)`)
	insertRank, _ := s.db.Prepare(`INSERT OR REPLACE INTO rank_summaries(run_id,rank,local_fluid_count,block_count,mid_domain_json,domain_edge_json,total_shared_fs,elapsed_micros) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertRun != nil {
			_ = insertRun.Close()
		}
		if insertRank != nil {
			_ = insertRank.Close()
		}
	}()

	var (
		tx          *sql.Tx
		opCount     int
		lastCommit  = time.Now()
		commitEvery = 200
		commitWait  = 500 * time.Millisecond
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(20 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitWait) {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqRunStarted:
			if insertRun != nil {
				if _, err := tx.Stmt(insertRun).Exec(r.run.RunID, r.run.StartedAt, r.run.Lattice, r.run.Ranks); err == nil {
					opCount++
				}
			}
		case reqRankSummary:
			if insertRank != nil {
				sm := r.rank.Summary
				midJSON, _ := json.Marshal(sm.MidDomainCounts)
				edgeJSON, _ := json.Marshal(sm.DomainEdgeCounts)
				if _, err := tx.Stmt(insertRank).Exec(
					r.rank.RunID, sm.Rank, sm.LocalFluidCount, sm.BlockCount,
					string(midJSON), string(edgeJSON), sm.TotalSharedFs, sm.ElapsedMicros,
				); err == nil {
					opCount++
				}
			}
		}
		flushIfNeeded()
	}
	commit()
}
