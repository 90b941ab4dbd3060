package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/hyperbolichq/loyalty-api/internal/apperror"
	"github.com/hyperbolichq/loyalty-api/internal/model"
	"github.com/hyperbolichq/loyalty-api/internal/repository"
)

// compile-time check that *DB implements repository.StaffRepository
var _ repository.StaffRepository = (*DB)(nil)

func (db *DB) CreateStaff(ctx context.Context, staff *model.StaffAccount) error {
	staff.ID = xid.New().String()
	staff.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO staff (id, email, name, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		staff.ID, staff.Email, staff.Name, staff.PasswordHash, staff.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("staff account with email %s already exists", staff.Email))
		}
		return fmt.Errorf("sqlite: creating staff account: %w", err)
	}
	return nil
}

func (db *DB) GetStaffByEmail(ctx context.Context, email string) (*model.StaffAccount, error) {
	var s model.StaffAccount
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM staff WHERE email = ?`,
		email,
	).Scan(&s.ID, &s.Email, &s.Name, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("staff account", email)
		}
		return nil, fmt.Errorf("sqlite: getting staff by email: %w", err)
	}
	return &s, nil
}

func (db *DB) GetStaffByID(ctx context.Context, id string) (*model.StaffAccount, error) {
	var s model.StaffAccount
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM staff WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.Email, &s.Name, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("staff account", id)
		}
		return nil, fmt.Errorf("sqlite: getting staff %s: %w", id, err)
	}
	return &s, nil
}
