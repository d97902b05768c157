package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

type TxDB interface {
	DBTX
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

const userSelect = `
	SELECT p.id, p.email, p.full_name, COALESCE(p.password_hash, ''), COALESCE(ur.role, 'user'), p.created_at, p.updated_at
	FROM profiles p
	LEFT JOIN user_roles ur ON ur.user_id = p.id
`

type UserRepository struct {
	db TxDB
}

func NewUserRepository(db TxDB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, userSelect+` WHERE p.email = ? LIMIT 1`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, userSelect+` WHERE p.id = ? LIMIT 1`, id)
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.db.QueryContext(ctx, userSelect+` ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		item := &entity.User{}
		if err := scanUser(rows, item); err != nil {
			return nil, err
		}
		users = append(users, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// Create inserts the profile and its role row in one transaction.
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (id, email, full_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, user.ID, user.Email, nullableStringValue(user.FullName), user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrUserAlreadyExists
		}
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_roles (id, user_id, role, created_at)
		VALUES (?, ?, ?, ?)
	`, uuid.NewString(), user.ID, user.Role, user.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Update rewrites name, role and password hash.
func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE profiles SET full_name = ?, password_hash = ?, updated_at = ?
		WHERE id = ?
	`, nullableStringValue(user.FullName), user.PasswordHash, user.UpdatedAt, user.ID)
	if err != nil {
		return err
	}
	if err := checkAffected(result, ErrUserNotFound); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ?`, user.ID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_roles (id, user_id, role, created_at)
		VALUES (?, ?, ?, ?)
	`, uuid.NewString(), user.ID, user.Role, user.UpdatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ?`, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := checkAffected(result, ErrUserNotFound); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.User, error) {
	user := &entity.User{}
	if err := scanUser(r.db.QueryRowContext(ctx, query, args...), user); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return user, nil
}

func scanUser(scan rowScanner, user *entity.User) error {
	var fullName sql.NullString

	err := scan.Scan(
		&user.ID,
		&user.Email,
		&fullName,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	user.FullName = stringPtrFromNull(fullName)
	return nil
}
