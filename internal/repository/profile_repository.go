package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/fiducialend/internal/domain"
)

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	query := r.db.Rebind(`SELECT ` + profileColumns + ` FROM profiles WHERE user_id = ?`)

	var row profileRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		return nil, err
	}

	return row.toDomain()
}

func (r *profileRepository) Upsert(ctx context.Context, p *domain.Profile) error {
	query := r.db.Rebind(`
		INSERT INTO profiles (` + profileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = excluded.full_name,
			email = excluded.email,
			phone_number = excluded.phone_number,
			national_id = excluded.national_id,
			employment_status = excluded.employment_status,
			employer_name = excluded.employer_name,
			monthly_income = excluded.monthly_income,
			financial_goals = excluded.financial_goals,
			updated_at = excluded.updated_at
	`)

	_, err := r.db.ExecContext(ctx, query,
		p.UserID,
		p.FullName,
		p.Email,
		p.PhoneNumber,
		p.NationalID,
		p.EmploymentStatus,
		p.EmployerName,
		p.MonthlyIncome,
		p.FinancialGoals,
		p.UpdatedAt.UTC(),
	)

	return err
}
