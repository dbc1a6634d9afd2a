package reports

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("report not found")

// Repository port for persisting and querying reports
type Repository interface {
	Save(ctx context.Context, r *Report) error
	Get(ctx context.Context, id ReportID) (*Report, error)
	Paginate(ctx context.Context, page, pageSize int) ([]*Report, error)
}
