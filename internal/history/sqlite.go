package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"chrond/internal/timeperiod"
	"chrond/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("history: sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) RecordStart(ctx context.Context, task string, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(task, started, outcome) VALUES(?,?,?)`,
		task, at.UnixMicro(), string(Running),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *sqliteStore) RecordFinish(ctx context.Context, id int64, at time.Time, outcome Outcome, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished=?, outcome=?, err=? WHERE id=?`,
		at.UnixMicro(), string(outcome), nullStr(errMsg), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %d: %w", id, ErrNoSuchRun)
	}
	return nil
}

func (s *sqliteStore) LastRun(ctx context.Context, task string) (Run, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, task, started, finished, outcome, err FROM runs
		 WHERE task = ? ORDER BY started DESC, id DESC LIMIT 1`, task)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return r, true, nil
}

func (s *sqliteStore) CountStarted(ctx context.Context, task string, span timeperiod.Span) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs WHERE task = ? AND started BETWEEN ? AND ?`,
		task, span.Left.UnixMicro(), span.Right.UnixMicro(),
	).Scan(&n)
	return n, err
}

func (s *sqliteStore) CountFinished(ctx context.Context, task string, outcome Outcome, span timeperiod.Span) (int, error) {
	q := `SELECT COUNT(*) FROM runs WHERE task = ? AND finished IS NOT NULL AND finished BETWEEN ? AND ?`
	args := []any{task, span.Left.UnixMicro(), span.Right.UnixMicro()}
	if outcome != "" {
		q += ` AND outcome = ?`
		args = append(args, string(outcome))
	}
	var n int
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

func (s *sqliteStore) Running(ctx context.Context, task string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs WHERE task = ? AND finished IS NULL`, task,
	).Scan(&n)
	return n > 0, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r        Run
		started  int64
		finished sql.NullInt64
		outcome  string
		errMsg   sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Task, &started, &finished, &outcome, &errMsg); err != nil {
		return Run{}, err
	}
	r.Started = time.UnixMicro(started).UTC()
	if finished.Valid {
		r.Finished = time.UnixMicro(finished.Int64).UTC()
	}
	r.Outcome = Outcome(outcome)
	r.Error = errMsg.String
	return r, nil
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
