package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"chatTracker/internal/db"
	"chatTracker/models"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateAdminID  = errors.New("admin id already exists")
)

const userColumns = `id, username, email, password_hash, role, active`

type UserRepository struct {
	db db.DBTX
}

func NewUserRepository(d db.DBTX) *UserRepository {
	return &UserRepository{db: d}
}

// WithTx returns a copy of the repository bound to tx.
func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

// CreateRegular inserts a regular user and returns it with its generated ID.
// Unique violations are reported as ErrDuplicateUsername or ErrDuplicateEmail.
func (r *UserRepository) CreateRegular(ctx context.Context, u *models.RegularUser) (*models.RegularUser, error) {
	if u == nil {
		return nil, errors.New("user is nil")
	}
	u.Role = models.RoleRegular
	id, err := r.insert(ctx, &u.User, nil)
	if err != nil {
		return nil, err
	}
	u.ID = id
	return u, nil
}

// CreateAdmin inserts an admin. AdminID must be set and unique.
func (r *UserRepository) CreateAdmin(ctx context.Context, a *models.Admin) (*models.Admin, error) {
	if a == nil {
		return nil, errors.New("admin is nil")
	}
	if strings.TrimSpace(a.AdminID) == "" {
		return nil, errors.New("admin id is required")
	}
	a.Role = models.RoleAdmin
	id, err := r.insert(ctx, &a.User, a.AdminID)
	if err != nil {
		return nil, err
	}
	a.ID = id
	return a, nil
}

func (r *UserRepository) insert(ctx context.Context, u *models.User, adminID any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO users (username, email, password_hash, role, admin_id, active) VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, string(u.Role), adminID, u.Active)
	if err != nil {
		return 0, uniqueViolation(err)
	}
	return res.LastInsertId()
}

// uniqueViolation maps SQLite unique constraint failures on users to sentinel errors.
func uniqueViolation(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return err
	}
	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return ErrDuplicateUsername
	case strings.Contains(msg, "users.email"):
		return ErrDuplicateEmail
	case strings.Contains(msg, "users.admin_id"):
		return ErrDuplicateAdminID
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

// GetAdmin returns the admin with the given id, or nil if the id is unknown or not an admin.
func (r *UserRepository) GetAdmin(ctx context.Context, id int64) (*models.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a models.Admin
	var role string
	err := r.db.QueryRowContext(ctx, `SELECT `+userColumns+`, admin_id FROM users WHERE id = ? AND role = 'admin'`, id).
		Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &role, &a.Active, &a.AdminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.Role = models.Role(role)
	return &a, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUserRows(rows)
}

// SetActive sets the account active state used by admin user search. Only
// regular users can be changed; it reports false when no such user exists.
func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE users SET active = ? WHERE id = ? AND role = 'regular'`, active, id)
	return affected(res, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

func scanUserRows(rows *sql.Rows) ([]models.User, error) {
	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
