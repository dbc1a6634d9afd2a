package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/juriscope/internal/domain/reports"
)

type ReportRepository struct{ db *sql.DB }

func NewReportRepository(db *sql.DB) *ReportRepository { return &ReportRepository{db: db} }

// Save insert/update report
func (r *ReportRepository) Save(ctx context.Context, rep *domain.Report) error {
	const q = `
INSERT INTO contract_reports
(id, language, source, clause_count, contract_risk_score, composite_score, result_json, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
 source = EXCLUDED.source,
 clause_count = EXCLUDED.clause_count,
 contract_risk_score = EXCLUDED.contract_risk_score,
 composite_score = EXCLUDED.composite_score,
 result_json = EXCLUDED.result_json;`

	created := rep.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	result := rep.Result
	if result == "" {
		result = "{}"
	}
	_, err := r.db.ExecContext(ctx, q,
		rep.ID, stringOrDash(rep.Language), stringOrDash(rep.Source), rep.ClauseCount,
		rep.ContractRiskScore, rep.CompositeScore, result, created,
	)
	return err
}

// Get by ID
func (r *ReportRepository) Get(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	const q = `
SELECT id, language, source, clause_count, contract_risk_score, composite_score, result_json, created_at
FROM contract_reports
WHERE id=$1
LIMIT 1;`
	var rep domain.Report
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&rep.ID, &rep.Language, &rep.Source, &rep.ClauseCount,
		&rep.ContractRiskScore, &rep.CompositeScore, &rep.Result, &rep.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// Paginate newest first
func (r *ReportRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Report, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	const q = `
SELECT id, language, source, clause_count, contract_risk_score, composite_score, result_json, created_at
FROM contract_reports
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2;`
	rows, err := r.db.QueryContext(ctx, q, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	out := []*domain.Report{}
	for rows.Next() {
		var rep domain.Report
		if err := rows.Scan(
			&rep.ID, &rep.Language, &rep.Source, &rep.ClauseCount,
			&rep.ContractRiskScore, &rep.CompositeScore, &rep.Result, &rep.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, &rep)
	}
	return out, rows.Err()
}
