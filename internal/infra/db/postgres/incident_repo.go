package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/juriscope/internal/domain/incidents"
)

type IncidentRepository struct{ db *sql.DB }

func NewIncidentRepository(db *sql.DB) *IncidentRepository { return &IncidentRepository{db: db} }

func (r *IncidentRepository) Save(ctx context.Context, in *domain.Incident) error {
	const q = `
INSERT INTO analysis_incidents
  (endpoint, phase, message, recovered, details_json, created_at)
VALUES ($1,$2,$3,$4,$5::jsonb,$6)
RETURNING id;`
	msg := in.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	details := in.DetailsJSON
	if strings.TrimSpace(details) == "" {
		details = "{}"
	}
	created := in.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return r.db.QueryRowContext(ctx, q,
		stringOrDash(in.Endpoint), stringOrDash(string(in.Phase)), msg, in.Recovered, details, created,
	).Scan(&in.ID)
}

func (r *IncidentRepository) Recent(ctx context.Context, limit int) ([]*domain.Incident, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, endpoint, phase, message, recovered, details_json::text, created_at
FROM analysis_incidents
ORDER BY created_at DESC, id DESC
LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*domain.Incident{}
	for rows.Next() {
		var in domain.Incident
		if err := rows.Scan(&in.ID, &in.Endpoint, &in.Phase, &in.Message, &in.Recovered, &in.DetailsJSON, &in.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &in)
	}
	return out, rows.Err()
}
