package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"groupstat/domain/core"
	domstats "groupstat/domain/stats"
)

// StoredReport is one persisted analysis record
type StoredReport struct {
	ID        string          `db:"id" json:"id"`
	Kind      string          `db:"kind" json:"kind"` // "omnibus" or "summary"
	Payload   json.RawMessage `db:"payload" json:"payload"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// ReportRepository persists structured analysis results
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a repository over an open connection
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Connect opens a postgres connection pool
func Connect(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the reports table if it does not exist
func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_reports (
			id         UUID PRIMARY KEY,
			kind       TEXT NOT NULL,
			payload    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveOmnibus persists a k-group comparison report
func (r *ReportRepository) SaveOmnibus(ctx context.Context, report *domstats.OmnibusReport) error {
	return r.save(ctx, string(report.ID), "omnibus", report)
}

// SaveSummary persists a summary table
func (r *ReportRepository) SaveSummary(ctx context.Context, table *domstats.SummaryTable) error {
	return r.save(ctx, string(table.ID), "summary", table)
}

func (r *ReportRepository) save(ctx context.Context, id, kind string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s report: %w", kind, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analysis_reports (id, kind, payload)
		VALUES ($1, $2, $3)`,
		id, kind, raw)
	if err != nil {
		return fmt.Errorf("failed to insert %s report: %w", kind, err)
	}
	return nil
}

// GetByID fetches a stored report
func (r *ReportRepository) GetByID(ctx context.Context, id core.AnalysisID) (*StoredReport, error) {
	var stored StoredReport
	err := r.db.GetContext(ctx, &stored, `
		SELECT id, kind, payload, created_at
		FROM analysis_reports WHERE id = $1`, string(id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report %s: %w", id, err)
	}
	return &stored, nil
}

// ListRecent returns the most recent reports, newest first
func (r *ReportRepository) ListRecent(ctx context.Context, limit int) ([]StoredReport, error) {
	var reports []StoredReport
	err := r.db.SelectContext(ctx, &reports, `
		SELECT id, kind, payload, created_at
		FROM analysis_reports
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}
