package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

var (
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrCouponAlreadyExists = errors.New("coupon code already exists")
	ErrInvalidCouponRow    = errors.New("streamer coupon must have exactly one of valor or porcentagem")
)

type DiscountCouponRepository struct {
	db DBTX
}

func NewDiscountCouponRepository(db DBTX) *DiscountCouponRepository {
	return &DiscountCouponRepository{db: db}
}

func (r *DiscountCouponRepository) FindActiveByCode(ctx context.Context, code string) (*entity.DiscountCoupon, error) {
	query := `
		SELECT id, code, discount_percentage, active, created_at, updated_at
		FROM discount_coupons
		WHERE code = ? AND active = TRUE
		LIMIT 1
	`

	coupon := &entity.DiscountCoupon{}
	if err := scanDiscountCoupon(r.db.QueryRowContext(ctx, query, code), coupon); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return coupon, nil
}

func (r *DiscountCouponRepository) List(ctx context.Context) ([]*entity.DiscountCoupon, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, discount_percentage, active, created_at, updated_at
		FROM discount_coupons
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.DiscountCoupon, 0)
	for rows.Next() {
		item := &entity.DiscountCoupon{}
		if err := scanDiscountCoupon(rows, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *DiscountCouponRepository) Create(ctx context.Context, coupon *entity.DiscountCoupon) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO discount_coupons (id, code, discount_percentage, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, coupon.ID, coupon.Code, coupon.Percentage.StringFixed(2), coupon.Active, coupon.CreatedAt, coupon.UpdatedAt)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrCouponAlreadyExists
		}
		return err
	}
	return nil
}

func (r *DiscountCouponRepository) Update(ctx context.Context, coupon *entity.DiscountCoupon) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE discount_coupons SET code = ?, discount_percentage = ?, active = ?, updated_at = ?
		WHERE id = ?
	`, coupon.Code, coupon.Percentage.StringFixed(2), coupon.Active, coupon.UpdatedAt, coupon.ID)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrCouponAlreadyExists
		}
		return err
	}
	return checkAffected(result, ErrCouponNotFound)
}

func (r *DiscountCouponRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM discount_coupons WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result, ErrCouponNotFound)
}

func scanDiscountCoupon(scan rowScanner, coupon *entity.DiscountCoupon) error {
	return scan.Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Percentage,
		&coupon.Active,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)
}

const streamerCouponColumns = `id, streamer_id, nome, codigo, descricao, data_inicio, data_fim, valor, porcentagem, created_at, updated_at`

type StreamerCouponRepository struct {
	db DBTX
}

func NewStreamerCouponRepository(db DBTX) *StreamerCouponRepository {
	return &StreamerCouponRepository{db: db}
}

// FindValidByCode returns the coupon with this code whose window contains at.
func (r *StreamerCouponRepository) FindValidByCode(ctx context.Context, code string, at time.Time) (*entity.StreamerCoupon, error) {
	query := `SELECT ` + streamerCouponColumns + `
		FROM streamer_coupons
		WHERE codigo = ? AND data_inicio <= ? AND data_fim >= ?
		LIMIT 1`

	coupon := &entity.StreamerCoupon{}
	if err := scanStreamerCoupon(r.db.QueryRowContext(ctx, query, code, at, at), coupon); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return coupon, nil
}

func (r *StreamerCouponRepository) FindByID(ctx context.Context, id string) (*entity.StreamerCoupon, error) {
	coupon := &entity.StreamerCoupon{}
	err := scanStreamerCoupon(r.db.QueryRowContext(ctx, `SELECT `+streamerCouponColumns+` FROM streamer_coupons WHERE id = ?`, id), coupon)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return coupon, nil
}

func (r *StreamerCouponRepository) ListByStreamer(ctx context.Context, streamerID string) ([]*entity.StreamerCoupon, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+streamerCouponColumns+`
		FROM streamer_coupons
		WHERE streamer_id = ?
		ORDER BY data_inicio DESC`, streamerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.StreamerCoupon, 0)
	for rows.Next() {
		item := &entity.StreamerCoupon{}
		if err := scanStreamerCoupon(rows, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *StreamerCouponRepository) Create(ctx context.Context, coupon *entity.StreamerCoupon) error {
	valor, porcentagem, err := discountColumns(coupon.Discount)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO streamer_coupons (
			id, streamer_id, nome, codigo, descricao, data_inicio, data_fim, valor, porcentagem, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		coupon.ID,
		coupon.StreamerID,
		coupon.Name,
		coupon.Code,
		nullableStringValue(coupon.Description),
		coupon.StartsAt,
		coupon.EndsAt,
		valor,
		porcentagem,
		coupon.CreatedAt,
		coupon.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrCouponAlreadyExists
		}
		if isForeignKeyError(err) {
			return ErrStreamerNotFound
		}
		return err
	}
	return nil
}

func (r *StreamerCouponRepository) Update(ctx context.Context, coupon *entity.StreamerCoupon) error {
	valor, porcentagem, err := discountColumns(coupon.Discount)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE streamer_coupons SET
			nome = ?,
			codigo = ?,
			descricao = ?,
			data_inicio = ?,
			data_fim = ?,
			valor = ?,
			porcentagem = ?,
			updated_at = ?
		WHERE id = ?
	`,
		coupon.Name,
		coupon.Code,
		nullableStringValue(coupon.Description),
		coupon.StartsAt,
		coupon.EndsAt,
		valor,
		porcentagem,
		coupon.UpdatedAt,
		coupon.ID,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrCouponAlreadyExists
		}
		return err
	}
	return checkAffected(result, ErrCouponNotFound)
}

func (r *StreamerCouponRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM streamer_coupons WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result, ErrCouponNotFound)
}

func discountColumns(discount entity.Discount) (valor interface{}, porcentagem interface{}, err error) {
	switch d := discount.(type) {
	case entity.FixedDiscount:
		return nullableDecimalValue(&d.Value), nil, nil
	case entity.PercentageDiscount:
		return nil, nullableDecimalValue(&d.Percent), nil
	default:
		return nil, nil, fmt.Errorf("%w: got %T", ErrInvalidCouponRow, discount)
	}
}

func scanStreamerCoupon(scan rowScanner, coupon *entity.StreamerCoupon) error {
	var description sql.NullString
	var valor decimal.NullDecimal
	var porcentagem decimal.NullDecimal

	err := scan.Scan(
		&coupon.ID,
		&coupon.StreamerID,
		&coupon.Name,
		&coupon.Code,
		&description,
		&coupon.StartsAt,
		&coupon.EndsAt,
		&valor,
		&porcentagem,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)
	if err != nil {
		return err
	}

	coupon.Description = stringPtrFromNull(description)

	fixed := decimalPtrFromNull(valor)
	percent := decimalPtrFromNull(porcentagem)
	switch {
	case fixed != nil && percent == nil:
		coupon.Discount = entity.FixedDiscount{Value: *fixed}
	case percent != nil && fixed == nil:
		coupon.Discount = entity.PercentageDiscount{Percent: *percent}
	default:
		return fmt.Errorf("%w: coupon %s", ErrInvalidCouponRow, coupon.ID)
	}

	return nil
}
