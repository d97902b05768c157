package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

var (
	ErrVipPackageNotFound = errors.New("vip package not found")
	ErrSecretNotFound     = errors.New("secret not found")
)

const vipPackageColumns = `id, nome, descricao, valor, created_at, updated_at`

type VipPackageRepository struct {
	db DBTX
}

func NewVipPackageRepository(db DBTX) *VipPackageRepository {
	return &VipPackageRepository{db: db}
}

func (r *VipPackageRepository) List(ctx context.Context) ([]*entity.VipPackage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+vipPackageColumns+` FROM vip_packages ORDER BY valor ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.VipPackage, 0)
	for rows.Next() {
		item := &entity.VipPackage{}
		var description sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &description, &item.Value, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		item.Description = stringPtrFromNull(description)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *VipPackageRepository) Create(ctx context.Context, pkg *entity.VipPackage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vip_packages (`+vipPackageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, pkg.ID, pkg.Name, nullableStringValue(pkg.Description), pkg.Value.StringFixed(2), pkg.CreatedAt, pkg.UpdatedAt)
	return err
}

func (r *VipPackageRepository) Update(ctx context.Context, pkg *entity.VipPackage) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE vip_packages SET nome = ?, descricao = ?, valor = ?, updated_at = ?
		WHERE id = ?
	`, pkg.Name, nullableStringValue(pkg.Description), pkg.Value.StringFixed(2), pkg.UpdatedAt, pkg.ID)
	if err != nil {
		return err
	}
	return checkAffected(result, ErrVipPackageNotFound)
}

func (r *VipPackageRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vip_packages WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result, ErrVipPackageNotFound)
}

type SecretRepository struct {
	db DBTX
}

func NewSecretRepository(db DBTX) *SecretRepository {
	return &SecretRepository{db: db}
}

func (r *SecretRepository) List(ctx context.Context) ([]*entity.AppSecret, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, `+"`key`"+`, value, description, created_at, updated_at
		FROM app_secrets
		ORDER BY `+"`key`"+` ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.AppSecret, 0)
	for rows.Next() {
		item := &entity.AppSecret{}
		var description sql.NullString
		if err := rows.Scan(&item.ID, &item.Key, &item.Value, &description, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		item.Description = stringPtrFromNull(description)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// Values returns key -> value for the requested keys that exist.
func (r *SecretRepository) Values(ctx context.Context, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	args := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		args = append(args, key)
	}

	rows, err := r.db.QueryContext(ctx, "SELECT `key`, value FROM app_secrets WHERE `key` IN ("+placeholders(len(args))+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return values, nil
}

// Upsert writes the secret by key. A nil description keeps the stored one.
func (r *SecretRepository) Upsert(ctx context.Context, secret *entity.AppSecret) error {
	_, err := r.db.ExecContext(ctx, "INSERT INTO app_secrets (id, `key`, value, description, created_at, updated_at) "+
		"VALUES (?, ?, ?, ?, ?, ?) "+
		"ON DUPLICATE KEY UPDATE value = VALUES(value), description = COALESCE(VALUES(description), description), updated_at = VALUES(updated_at)",
		secret.ID,
		secret.Key,
		secret.Value,
		nullableStringValue(secret.Description),
		secret.CreatedAt,
		secret.UpdatedAt,
	)
	return err
}

func (r *SecretRepository) Delete(ctx context.Context, key string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM app_secrets WHERE `key` = ?", key)
	if err != nil {
		return err
	}
	return checkAffected(result, ErrSecretNotFound)
}
