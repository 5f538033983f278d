package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// LookupRepository reads reference data: categories and statuses.
type LookupRepository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListStatuses(ctx context.Context) ([]domain.Status, error)
	GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error)
	GetStatusByID(ctx context.Context, id int64) (*domain.Status, error)
	GetStatusByName(ctx context.Context, name string) (*domain.Status, error)
}

type lookupRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

type lookupRepository struct {
	db *sqlx.DB
}

// NewLookupRepository builds the repository.
func NewLookupRepository(db *sqlx.DB) LookupRepository {
	return &lookupRepository{db: db}
}

func (r *lookupRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.list(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.Category{ID: row.ID, Name: row.Name})
	}
	return result, nil
}

func (r *lookupRepository) ListStatuses(ctx context.Context) ([]domain.Status, error) {
	rows, err := r.list(ctx, `SELECT id, name FROM statuses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Status, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.Status{ID: row.ID, Name: row.Name})
	}
	return result, nil
}

func (r *lookupRepository) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	var row lookupRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT id, name FROM categories WHERE id=?`), id); err != nil {
		return nil, err
	}
	return &domain.Category{ID: row.ID, Name: row.Name}, nil
}

func (r *lookupRepository) GetStatusByID(ctx context.Context, id int64) (*domain.Status, error) {
	return r.status(ctx, `SELECT id, name FROM statuses WHERE id=?`, id)
}

func (r *lookupRepository) GetStatusByName(ctx context.Context, name string) (*domain.Status, error) {
	return r.status(ctx, `SELECT id, name FROM statuses WHERE name=?`, name)
}

func (r *lookupRepository) status(ctx context.Context, query string, arg any) (*domain.Status, error) {
	var row lookupRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), arg); err != nil {
		return nil, err
	}
	return &domain.Status{ID: row.ID, Name: row.Name}, nil
}

func (r *lookupRepository) list(ctx context.Context, query string) ([]lookupRow, error) {
	var rows []lookupRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}
