package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/practicekit/scheduling-api/internal/models"
)

// PatternRepository persists recurring availability templates.
type PatternRepository struct {
	db *sqlx.DB
}

// NewPatternRepository constructs the repository.
func NewPatternRepository(db *sqlx.DB) *PatternRepository {
	return &PatternRepository{db: db}
}

const patternColumns = `id, practitioner_id, title, frequency, weekdays, start_time, end_time, valid_from, valid_until, active, created_at, updated_at`

// List returns patterns matching the filter, organization-wide rows first.
func (r *PatternRepository) List(ctx context.Context, filter models.PatternFilter) ([]models.AvailabilityPattern, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.PractitionerID != nil {
		if filter.IncludeOrgWide {
			where = append(where, fmt.Sprintf("(practitioner_id = $%d OR practitioner_id IS NULL)", len(args)+1))
		} else {
			where = append(where, fmt.Sprintf("practitioner_id = $%d", len(args)+1))
		}
		args = append(args, *filter.PractitionerID)
	} else if filter.IncludeOrgWide {
		where = append(where, "practitioner_id IS NULL")
	}
	if filter.ActiveOnly {
		where = append(where, "active = TRUE")
	}

	query := fmt.Sprintf(`SELECT %s FROM availability_patterns WHERE %s ORDER BY practitioner_id NULLS FIRST, start_time ASC`,
		patternColumns, strings.Join(where, " AND "))

	var patterns []models.AvailabilityPattern
	if err := r.db.SelectContext(ctx, &patterns, query, args...); err != nil {
		return nil, fmt.Errorf("list availability patterns: %w", err)
	}
	return patterns, nil
}

// ListForResolution returns the active patterns feeding the resolver for one
// practitioner: their own plus the organization-wide baseline.
func (r *PatternRepository) ListForResolution(ctx context.Context, practitionerID string) ([]models.AvailabilityPattern, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability_patterns
WHERE active = TRUE AND (practitioner_id = $1 OR practitioner_id IS NULL)
ORDER BY start_time ASC`, patternColumns)

	var patterns []models.AvailabilityPattern
	if err := r.db.SelectContext(ctx, &patterns, query, practitionerID); err != nil {
		return nil, fmt.Errorf("load patterns for resolution: %w", err)
	}
	return patterns, nil
}

// FindByID fetches one pattern.
func (r *PatternRepository) FindByID(ctx context.Context, id string) (*models.AvailabilityPattern, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability_patterns WHERE id = $1`, patternColumns)
	var pattern models.AvailabilityPattern
	if err := r.db.GetContext(ctx, &pattern, query, id); err != nil {
		return nil, err
	}
	return &pattern, nil
}

// Create inserts a pattern.
func (r *PatternRepository) Create(ctx context.Context, pattern *models.AvailabilityPattern) error {
	if pattern.ID == "" {
		pattern.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	pattern.CreatedAt = now
	pattern.UpdatedAt = now
	const query = `INSERT INTO availability_patterns (id, practitioner_id, title, frequency, weekdays, start_time, end_time, valid_from, valid_until, active, created_at, updated_at)
VALUES (:id, :practitioner_id, :title, :frequency, :weekdays, :start_time, :end_time, :valid_from, :valid_until, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pattern); err != nil {
		return fmt.Errorf("create availability pattern: %w", err)
	}
	return nil
}

// Update modifies a pattern in place.
func (r *PatternRepository) Update(ctx context.Context, pattern *models.AvailabilityPattern) error {
	pattern.UpdatedAt = time.Now().UTC()
	const query = `UPDATE availability_patterns SET title = :title, frequency = :frequency, weekdays = :weekdays,
start_time = :start_time, end_time = :end_time, valid_from = :valid_from, valid_until = :valid_until,
active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, pattern); err != nil {
		return fmt.Errorf("update availability pattern: %w", err)
	}
	return nil
}

// Deactivate soft-disables a pattern so historical resolution stays
// reproducible.
func (r *PatternRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE availability_patterns SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate availability pattern: %w", err)
	}
	return nil
}
