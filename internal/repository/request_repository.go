package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// RequestFilter narrows request listings. Nil fields are ignored.
type RequestFilter struct {
	CategoryID        *int64
	StatusID          *int64
	Priority          *domain.Priority
	CreatedFrom       *time.Time
	CreatedTo         *time.Time
	Search            *string
	CreatedByID       *int64
	AssignedToID      *int64
	IncludeUnassigned bool
	Limit             int
	Offset            int
}

// AssigneeCount is the active and closed request count for one assignee.
type AssigneeCount struct {
	AssigneeID int64 `db:"assigned_to_id"`
	Active     int   `db:"active"`
	Closed     int   `db:"closed"`
}

// RequestRepository defines persistence for requests and their aggregates.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.Request) error
	Update(ctx context.Context, request *domain.Request) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Request, error)
	GetView(ctx context.Context, id int64) (*domain.RequestView, error)
	List(ctx context.Context, filter RequestFilter) ([]domain.RequestView, error)
	CountForUser(ctx context.Context, userID int64) (int, error)
	ListClosedAssigned(ctx context.Context) ([]domain.Request, error)
	ListOpenAssignedCreatedBefore(ctx context.Context, before time.Time) ([]domain.Request, error)
	CountByStatus(ctx context.Context) ([]domain.StatusCount, error)
	CreatedTimes(ctx context.Context, from, to time.Time) ([]time.Time, error)
	CountByAssignee(ctx context.Context, from, to time.Time) ([]AssigneeCount, error)
}

type requestRow struct {
	ID           int64         `db:"id"`
	Title        string        `db:"title"`
	Description  string        `db:"description"`
	CategoryID   int64         `db:"category_id"`
	Priority     string        `db:"priority"`
	StatusID     int64         `db:"status_id"`
	CreatedByID  int64         `db:"created_by_id"`
	AssignedToID sql.NullInt64 `db:"assigned_to_id"`
	CreatedAt    int64         `db:"created_at"`
	ClosedAt     sql.NullInt64 `db:"closed_at"`
}

func (r requestRow) toDomain() domain.Request {
	return domain.Request{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		CategoryID:   r.CategoryID,
		Priority:     domain.Priority(r.Priority),
		StatusID:     r.StatusID,
		CreatedByID:  r.CreatedByID,
		AssignedToID: fromNullID(r.AssignedToID),
		CreatedAt:    fromMillis(r.CreatedAt),
		ClosedAt:     fromNullMillis(r.ClosedAt),
	}
}

type requestViewRow struct {
	requestRow
	CategoryName   sql.NullString `db:"category_name"`
	StatusName     sql.NullString `db:"status_name"`
	CreatedByName  sql.NullString `db:"created_by_name"`
	AssignedToName sql.NullString `db:"assigned_to_name"`
}

func (r requestViewRow) toDomain() domain.RequestView {
	view := domain.RequestView{
		Request:       r.requestRow.toDomain(),
		CategoryName:  r.CategoryName.String,
		StatusName:    r.StatusName.String,
		CreatedByName: r.CreatedByName.String,
	}
	if r.AssignedToName.Valid {
		name := r.AssignedToName.String
		view.AssignedToName = &name
	}
	return view
}

const requestColumns = `id, title, description, category_id, priority, status_id, created_by_id, assigned_to_id, created_at, closed_at`

const requestViewSelect = `
        SELECT r.id, r.title, r.description, r.category_id, r.priority, r.status_id,
               r.created_by_id, r.assigned_to_id, r.created_at, r.closed_at,
               c.name AS category_name, s.name AS status_name,
               cu.display_name AS created_by_name, au.display_name AS assigned_to_name
        FROM requests r
        LEFT JOIN categories c ON c.id = r.category_id
        LEFT JOIN statuses s ON s.id = r.status_id
        LEFT JOIN users cu ON cu.id = r.created_by_id
        LEFT JOIN users au ON au.id = r.assigned_to_id`

type requestRepository struct {
	db *sqlx.DB
}

// lowerFunc names a Unicode-aware lowercase function for the connected dialect.
func (r *requestRepository) lowerFunc() string {
	if sqlx.BindType(r.db.DriverName()) == sqlx.DOLLAR {
		return "LOWER"
	}
	return persistence.UnicodeLowerFunc
}

// NewRequestRepository returns a SQL-backed request repository.
func NewRequestRepository(db *sqlx.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *domain.Request) error {
	const query = `
        INSERT INTO requests (title, description, category_id, priority, status_id,
                              created_by_id, assigned_to_id, created_at, closed_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id`

	return r.db.QueryRowxContext(ctx, r.db.Rebind(query),
		request.Title,
		request.Description,
		request.CategoryID,
		string(request.Priority),
		request.StatusID,
		request.CreatedByID,
		nullID(request.AssignedToID),
		toMillis(request.CreatedAt),
		nullMillis(request.ClosedAt),
	).Scan(&request.ID)
}

func (r *requestRepository) Update(ctx context.Context, request *domain.Request) error {
	const query = `
        UPDATE requests SET title=?, description=?, category_id=?, priority=?, status_id=?,
                            assigned_to_id=?, closed_at=?
        WHERE id=?`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		request.Title,
		request.Description,
		request.CategoryID,
		string(request.Priority),
		request.StatusID,
		nullID(request.AssignedToID),
		nullMillis(request.ClosedAt),
		request.ID,
	)
	return requireAffected(res, err)
}

func (r *requestRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM requests WHERE id=?`), id)
	return requireAffected(res, err)
}

func (r *requestRepository) GetByID(ctx context.Context, id int64) (*domain.Request, error) {
	var row requestRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+requestColumns+` FROM requests WHERE id=?`), id); err != nil {
		return nil, err
	}
	request := row.toDomain()
	return &request, nil
}

func (r *requestRepository) GetView(ctx context.Context, id int64) (*domain.RequestView, error) {
	var row requestViewRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(requestViewSelect+` WHERE r.id=?`), id); err != nil {
		return nil, err
	}
	view := row.toDomain()
	return &view, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.RequestView, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CategoryID != nil {
		clauses = append(clauses, "r.category_id=?")
		args = append(args, *filter.CategoryID)
	}
	if filter.StatusID != nil {
		clauses = append(clauses, "r.status_id=?")
		args = append(args, *filter.StatusID)
	}
	if filter.Priority != nil {
		clauses = append(clauses, "r.priority=?")
		args = append(args, string(*filter.Priority))
	}
	if filter.CreatedFrom != nil {
		clauses = append(clauses, "r.created_at >= ?")
		args = append(args, toMillis(*filter.CreatedFrom))
	}
	if filter.CreatedTo != nil {
		clauses = append(clauses, "r.created_at <= ?")
		args = append(args, toMillis(*filter.CreatedTo))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		lower := r.lowerFunc()
		clauses = append(clauses, fmt.Sprintf("(%s(r.title) LIKE ? OR %s(r.description) LIKE ?)", lower, lower))
		args = append(args, search, search)
	}
	if filter.CreatedByID != nil {
		clauses = append(clauses, "r.created_by_id=?")
		args = append(args, *filter.CreatedByID)
	}
	switch {
	case filter.AssignedToID != nil && filter.IncludeUnassigned:
		clauses = append(clauses, "(r.assigned_to_id=? OR r.assigned_to_id IS NULL)")
		args = append(args, *filter.AssignedToID)
	case filter.AssignedToID != nil:
		clauses = append(clauses, "r.assigned_to_id=?")
		args = append(args, *filter.AssignedToID)
	case filter.IncludeUnassigned:
		clauses = append(clauses, "r.assigned_to_id IS NULL")
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY r.created_at DESC, r.id DESC", requestViewSelect, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, offset)
	}

	var rows []requestViewRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	result := make([]domain.RequestView, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (r *requestRepository) CountForUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		r.db.Rebind(`SELECT COUNT(1) FROM requests WHERE created_by_id=? OR assigned_to_id=?`), userID, userID)
	return count, err
}

func (r *requestRepository) ListClosedAssigned(ctx context.Context) ([]domain.Request, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM requests
        WHERE assigned_to_id IS NOT NULL AND closed_at IS NOT NULL ORDER BY id`)
}

func (r *requestRepository) ListOpenAssignedCreatedBefore(ctx context.Context, before time.Time) ([]domain.Request, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM requests
        WHERE assigned_to_id IS NOT NULL AND closed_at IS NULL AND created_at < ? ORDER BY created_at`, toMillis(before))
}

func (r *requestRepository) CountByStatus(ctx context.Context) ([]domain.StatusCount, error) {
	const query = `
        SELECT COALESCE(s.name, 'Not set') AS status, COUNT(r.id) AS total
        FROM requests r
        LEFT JOIN statuses s ON s.id = r.status_id
        GROUP BY COALESCE(s.name, 'Not set')
        ORDER BY status`

	var rows []struct {
		Status string `db:"status"`
		Total  int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	result := make([]domain.StatusCount, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.StatusCount{Status: row.Status, Count: row.Total})
	}
	return result, nil
}

func (r *requestRepository) CreatedTimes(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var stamps []int64
	err := r.db.SelectContext(ctx, &stamps,
		r.db.Rebind(`SELECT created_at FROM requests WHERE created_at >= ? AND created_at <= ? ORDER BY created_at`),
		toMillis(from), toMillis(to))
	if err != nil {
		return nil, err
	}
	result := make([]time.Time, 0, len(stamps))
	for _, stamp := range stamps {
		result = append(result, fromMillis(stamp))
	}
	return result, nil
}

func (r *requestRepository) CountByAssignee(ctx context.Context, from, to time.Time) ([]AssigneeCount, error) {
	const query = `
        SELECT assigned_to_id,
               SUM(CASE WHEN closed_at IS NULL THEN 1 ELSE 0 END) AS active,
               SUM(CASE WHEN closed_at IS NOT NULL THEN 1 ELSE 0 END) AS closed
        FROM requests
        WHERE assigned_to_id IS NOT NULL AND created_at >= ? AND created_at <= ?
        GROUP BY assigned_to_id`

	var rows []AssigneeCount
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), toMillis(from), toMillis(to)); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *requestRepository) list(ctx context.Context, query string, args ...any) ([]domain.Request, error) {
	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	result := make([]domain.Request, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}
