package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/fiducialend/internal/domain"
)

type articleRepository struct {
	db *sqlx.DB
}

func NewArticleRepository(db *sqlx.DB) ArticleRepository {
	return &articleRepository{db: db}
}

const articleColumns = `id, title, author, excerpt, content, image_url, image_hint, created_at`

func (r *articleRepository) Create(ctx context.Context, a *domain.Article) error {
	query := r.db.Rebind(`
		INSERT INTO articles (` + articleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Title, a.Author, a.Excerpt, a.Content, a.ImageURL, a.ImageHint, a.CreatedAt.UTC())
	return err
}

func (r *articleRepository) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	query := r.db.Rebind(`SELECT ` + articleColumns + ` FROM articles WHERE id = ?`)

	var a domain.Article
	if err := r.db.QueryRowxContext(ctx, query, id).Scan(
		&a.ID, &a.Title, &a.Author, &a.Excerpt, &a.Content, &a.ImageURL, &a.ImageHint, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func (r *articleRepository) List(ctx context.Context) ([]*domain.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles ORDER BY created_at DESC`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := make([]*domain.Article, 0)
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Author, &a.Excerpt, &a.Content, &a.ImageURL, &a.ImageHint, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		a.CreatedAt = a.CreatedAt.UTC()
		articles = append(articles, &a)
	}

	return articles, rows.Err()
}

type offerRepository struct {
	db *sqlx.DB
}

func NewOfferRepository(db *sqlx.DB) OfferRepository {
	return &offerRepository{db: db}
}

type offerRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Discount    string    `db:"discount"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *offerRepository) Create(ctx context.Context, o *domain.Offer) error {
	query := r.db.Rebind(`
		INSERT INTO offers (id, title, description, discount, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query, o.ID, o.Title, o.Description, o.Discount, o.IsActive, o.CreatedAt.UTC())
	return err
}

func (r *offerRepository) ListActive(ctx context.Context) ([]*domain.Offer, error) {
	query := r.db.Rebind(`
		SELECT id, title, description, discount, is_active, created_at
		FROM offers
		WHERE is_active = ?
		ORDER BY created_at DESC
	`)

	var rows []offerRow
	if err := r.db.SelectContext(ctx, &rows, query, true); err != nil {
		return nil, err
	}

	offers := make([]*domain.Offer, 0, len(rows))
	for _, row := range rows {
		offers = append(offers, &domain.Offer{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			Discount:    row.Discount,
			IsActive:    row.IsActive,
			CreatedAt:   row.CreatedAt.UTC(),
		})
	}

	return offers, nil
}
