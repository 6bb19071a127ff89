package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/fiducialend/internal/domain"
)

type transactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, t *domain.PersonalTransaction) error {
	query := r.db.Rebind(`
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.UserID,
		string(t.Type),
		t.Amount,
		t.Description,
		t.Category,
		t.Date.UTC(),
	)

	return err
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.PersonalTransaction, error) {
	query := r.db.Rebind(`
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = ?
		ORDER BY transaction_date DESC
	`)

	var rows []transactionRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	out := make([]*domain.PersonalTransaction, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, nil
}
