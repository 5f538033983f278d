package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	LoginTaken(ctx context.Context, login string, exceptID int64) (bool, error)
	List(ctx context.Context) ([]domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}

type userRow struct {
	ID           int64  `db:"id"`
	Login        string `db:"login"`
	PasswordHash string `db:"password_hash"`
	DisplayName  string `db:"display_name"`
	Role         string `db:"role"`
	CreatedAt    int64  `db:"created_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Login:        r.Login,
		PasswordHash: r.PasswordHash,
		DisplayName:  r.DisplayName,
		Role:         domain.Role(r.Role),
		CreatedAt:    fromMillis(r.CreatedAt),
	}
}

const userColumns = `id, login, password_hash, display_name, role, created_at`

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository returns a SQL-backed implementation.
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (login, password_hash, display_name, role, created_at)
        VALUES (?, ?, ?, ?, ?)
        RETURNING id`

	return r.db.QueryRowxContext(ctx, r.db.Rebind(query),
		user.Login,
		user.PasswordHash,
		user.DisplayName,
		string(user.Role),
		toMillis(user.CreatedAt),
	).Scan(&user.ID)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET login=?, password_hash=?, display_name=?, role=?
        WHERE id=?`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		user.Login,
		user.PasswordHash,
		user.DisplayName,
		string(user.Role),
		user.ID,
	)
	return requireAffected(res, err)
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id=?`), id)
	return requireAffected(res, err)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE login=?`, login)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), arg); err != nil {
		return nil, err
	}
	user := row.toDomain()
	return &user, nil
}

func (r *userRepository) LoginTaken(ctx context.Context, login string, exceptID int64) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(1) FROM users WHERE login=? AND id<>?`), login, exceptID)
	return count > 0, err
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY display_name, login`)
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE role=? ORDER BY display_name, login`, string(role))
}

func (r *userRepository) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(1) FROM users WHERE role=?`), string(role))
	return count, err
}

func (r *userRepository) list(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	result := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func requireAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
