package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/practicekit/scheduling-api/internal/models"
)

// PatientRepository reads the patient reference table.
type PatientRepository struct {
	db *sqlx.DB
}

// NewPatientRepository constructs the repository.
func NewPatientRepository(db *sqlx.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// FindByID fetches one patient.
func (r *PatientRepository) FindByID(ctx context.Context, id string) (*models.Patient, error) {
	const query = `SELECT id, full_name, email, active, created_at FROM patients WHERE id = $1`
	var patient models.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, err
	}
	return &patient, nil
}
