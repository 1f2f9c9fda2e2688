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

// ExceptionRepository persists date-specific availability overrides.
type ExceptionRepository struct {
	db *sqlx.DB
}

// NewExceptionRepository constructs the repository.
func NewExceptionRepository(db *sqlx.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

const exceptionColumns = `id, practitioner_id, exception_date, kind, all_day, start_time, end_time, reason, created_at`

// List returns exceptions matching the filter ordered by date.
func (r *ExceptionRepository) List(ctx context.Context, filter models.ExceptionFilter) ([]models.AvailabilityException, error) {
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
	if filter.From != nil {
		where = append(where, fmt.Sprintf("exception_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("exception_date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	query := fmt.Sprintf(`SELECT %s FROM availability_exceptions WHERE %s ORDER BY exception_date ASC, practitioner_id NULLS FIRST`,
		exceptionColumns, strings.Join(where, " AND "))

	var exceptions []models.AvailabilityException
	if err := r.db.SelectContext(ctx, &exceptions, query, args...); err != nil {
		return nil, fmt.Errorf("list availability exceptions: %w", err)
	}
	return exceptions, nil
}

// ListForDate returns the exceptions affecting a practitioner on one date:
// their own plus every organization-wide closure.
func (r *ExceptionRepository) ListForDate(ctx context.Context, practitionerID string, date time.Time) ([]models.AvailabilityException, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability_exceptions
WHERE exception_date = $1 AND (practitioner_id = $2 OR practitioner_id IS NULL)
ORDER BY practitioner_id NULLS FIRST`, exceptionColumns)

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	var exceptions []models.AvailabilityException
	if err := r.db.SelectContext(ctx, &exceptions, query, day, practitionerID); err != nil {
		return nil, fmt.Errorf("load exceptions for date: %w", err)
	}
	return exceptions, nil
}

// FindByID fetches one exception.
func (r *ExceptionRepository) FindByID(ctx context.Context, id string) (*models.AvailabilityException, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability_exceptions WHERE id = $1`, exceptionColumns)
	var exception models.AvailabilityException
	if err := r.db.GetContext(ctx, &exception, query, id); err != nil {
		return nil, err
	}
	return &exception, nil
}

// Create inserts an exception.
func (r *ExceptionRepository) Create(ctx context.Context, exception *models.AvailabilityException) error {
	if exception.ID == "" {
		exception.ID = uuid.NewString()
	}
	exception.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO availability_exceptions (id, practitioner_id, exception_date, kind, all_day, start_time, end_time, reason, created_at)
VALUES (:id, :practitioner_id, :exception_date, :kind, :all_day, :start_time, :end_time, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exception); err != nil {
		return fmt.Errorf("create availability exception: %w", err)
	}
	return nil
}

// Delete removes an exception outright. Exceptions are point additions, so
// no soft state is kept.
func (r *ExceptionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM availability_exceptions WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete availability exception: %w", err)
	}
	return nil
}
