package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/practicekit/scheduling-api/internal/models"
)

// PractitionerRepository reads the practitioner reference table.
type PractitionerRepository struct {
	db *sqlx.DB
}

// NewPractitionerRepository constructs the repository.
func NewPractitionerRepository(db *sqlx.DB) *PractitionerRepository {
	return &PractitionerRepository{db: db}
}

// FindByID fetches one practitioner.
func (r *PractitionerRepository) FindByID(ctx context.Context, id string) (*models.Practitioner, error) {
	const query = `SELECT id, full_name, specialty, calendar_color, active, created_at, updated_at FROM practitioners WHERE id = $1`
	var practitioner models.Practitioner
	if err := r.db.GetContext(ctx, &practitioner, query, id); err != nil {
		return nil, err
	}
	return &practitioner, nil
}

// ListActive returns every active practitioner, used by any-practitioner
// availability resolution.
func (r *PractitionerRepository) ListActive(ctx context.Context) ([]models.Practitioner, error) {
	const query = `SELECT id, full_name, specialty, calendar_color, active, created_at, updated_at FROM practitioners WHERE active = TRUE ORDER BY full_name ASC`
	var practitioners []models.Practitioner
	if err := r.db.SelectContext(ctx, &practitioners, query); err != nil {
		return nil, fmt.Errorf("list active practitioners: %w", err)
	}
	return practitioners, nil
}
