// Package store persists completed audits and their aggregated violations in
// SQLite. Audits are immutable rows; violations are stored as JSON payloads
// keyed by audit and insertion position.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/raysh454/acesso/internal/interfaces"
	"github.com/raysh454/acesso/internal/model"
)

// ErrAuditNotFound aliases the shared sentinel for callers that import only
// this package.
var ErrAuditNotFound = interfaces.ErrAuditNotFound

type SQLite struct {
	db     *sql.DB
	logger interfaces.Logger
}

// NewSQLite opens (or creates) the database under dir and applies the schema.
func NewSQLite(dir string, logger interfaces.Logger) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "acesso.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if logger != nil {
		logger.Info("store initialized", interfaces.Field{Key: "dir", Value: dir})
	}
	return &SQLite{db: db, logger: logger}, nil
}

var _ interfaces.Store = (*SQLite)(nil)

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS audits (
		id TEXT PRIMARY KEY,
		site TEXT NOT NULL,
		health_score INTEGER NOT NULL,
		scoring_model TEXT NOT NULL,
		summary_json TEXT NOT NULL,
		processed_pages_json TEXT NOT NULL,
		broken_pages_json TEXT,
		broken_pages_count INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audits_site ON audits(site, started_at);

	CREATE TABLE IF NOT EXISTS violations (
		audit_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		PRIMARY KEY (audit_id, position),
		FOREIGN KEY (audit_id) REFERENCES audits(id) ON DELETE CASCADE
	);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (s *SQLite) SaveAudit(ctx context.Context, audit *model.Audit) error {
	if audit == nil || audit.ID == "" {
		return errors.New("audit must have an id")
	}

	summaryJSON, err := json.Marshal(audit.Summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	pagesJSON, err := json.Marshal(audit.ProcessedPages)
	if err != nil {
		return fmt.Errorf("failed to encode processed pages: %w", err)
	}
	brokenJSON, err := json.Marshal(audit.BrokenPages)
	if err != nil {
		return fmt.Errorf("failed to encode broken pages: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audits (id, site, health_score, scoring_model, summary_json,
			processed_pages_json, broken_pages_json, broken_pages_count,
			started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		audit.ID, audit.Site, audit.HealthScore, audit.ScoringModel,
		string(summaryJSON), string(pagesJSON), string(brokenJSON),
		audit.BrokenPagesCount,
		audit.StartedAt.UnixMilli(), audit.FinishedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert audit: %w", err)
	}
	return nil
}

func (s *SQLite) GetAudit(ctx context.Context, id string) (*model.Audit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, site, health_score, scoring_model, summary_json,
			processed_pages_json, broken_pages_json, broken_pages_count,
			started_at, finished_at
		FROM audits WHERE id = ?`, id)
	audit, err := scanAudit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrAuditNotFound, id)
	}
	return audit, err
}

func (s *SQLite) ListAudits(ctx context.Context, site string, limit int) ([]model.Audit, error) {
	query := `
		SELECT id, site, health_score, scoring_model, summary_json,
			processed_pages_json, broken_pages_json, broken_pages_count,
			started_at, finished_at
		FROM audits`
	args := []any{}
	if site != "" {
		query += " WHERE site = ?"
		args = append(args, site)
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()

	var audits []model.Audit
	for rows.Next() {
		audit, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, *audit)
	}
	return audits, rows.Err()
}

// scannable covers *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanAudit(row scannable) (*model.Audit, error) {
	var audit model.Audit
	var summaryJSON, pagesJSON string
	var brokenJSON sql.NullString
	var startedAtMs, finishedAtMs int64
	err := row.Scan(&audit.ID, &audit.Site, &audit.HealthScore, &audit.ScoringModel,
		&summaryJSON, &pagesJSON, &brokenJSON, &audit.BrokenPagesCount,
		&startedAtMs, &finishedAtMs)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(summaryJSON), &audit.Summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	if err := json.Unmarshal([]byte(pagesJSON), &audit.ProcessedPages); err != nil {
		return nil, fmt.Errorf("failed to decode processed pages: %w", err)
	}
	if brokenJSON.Valid && brokenJSON.String != "null" {
		if err := json.Unmarshal([]byte(brokenJSON.String), &audit.BrokenPages); err != nil {
			return nil, fmt.Errorf("failed to decode broken pages: %w", err)
		}
	}
	audit.StartedAt = time.UnixMilli(startedAtMs).UTC()
	audit.FinishedAt = time.UnixMilli(finishedAtMs).UTC()
	return &audit, nil
}

func (s *SQLite) SaveViolations(ctx context.Context, auditID string, violations []model.AggregatedViolation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone && s.logger != nil {
			s.logger.Warn("failed to rollback transaction",
				interfaces.Field{Key: "error", Value: rbErr.Error()})
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM violations WHERE audit_id = ?`, auditID); err != nil {
		return fmt.Errorf("failed to clear violations: %w", err)
	}
	for i, v := range violations {
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode violation %s: %w", v.Fingerprint, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO violations (audit_id, position, fingerprint, payload_json)
			VALUES (?, ?, ?, ?)`,
			auditID, i, v.Fingerprint, string(payload)); err != nil {
			return fmt.Errorf("failed to insert violation: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit violations: %w", err)
	}
	return nil
}

func (s *SQLite) GetViolations(ctx context.Context, auditID string) ([]model.AggregatedViolation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload_json FROM violations WHERE audit_id = ? ORDER BY position`, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	defer rows.Close()

	var violations []model.AggregatedViolation
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var v model.AggregatedViolation
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			return nil, fmt.Errorf("failed to decode violation: %w", err)
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }
