package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

var (
	ErrDonationNotFound      = errors.New("donation not found")
	ErrDonationAlreadyExists = errors.New("donation already exists")
)

const donationColumns = `id, payment_id, name, email, phone, steam_id, amount, description, status,
	discount_coupon, qr_code, qr_code_base64, ticket_url, created_at, updated_at`

type DonationFilter struct {
	Status  string
	SteamID string
	Limit   int32
	Offset  int32
}

// DonationTotals aggregates donations created inside a period.
type DonationTotals struct {
	Count         int64
	ApprovedCount int64
	PendingCount  int64
	ApprovedTotal decimal.Decimal
	PendingTotal  decimal.Decimal
}

type DonationRepository struct {
	db DBTX
}

func NewDonationRepository(db DBTX) *DonationRepository {
	return &DonationRepository{db: db}
}

func (r *DonationRepository) Create(ctx context.Context, donation *entity.Donation) error {
	query := `
		INSERT INTO donations (
			id, payment_id, name, email, phone, steam_id, amount, description, status,
			discount_coupon, qr_code, qr_code_base64, ticket_url, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		donation.ID,
		donation.PaymentID,
		donation.Name,
		donation.Email,
		nullableStringValue(donation.Phone),
		nullableStringValue(donation.SteamID),
		donation.Amount.StringFixed(2),
		nullableStringValue(donation.Description),
		donation.Status,
		nullableStringValue(donation.DiscountCoupon),
		nullableStringValue(donation.QRCode),
		nullableStringValue(donation.QRCodeBase64),
		nullableStringValue(donation.TicketURL),
		donation.CreatedAt,
		donation.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDonationAlreadyExists
		}
		return err
	}

	return nil
}

func (r *DonationRepository) UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE donations SET status = ?, updated_at = ? WHERE id = ?`, status, updatedAt, id)
	if err != nil {
		return err
	}
	return checkAffected(result, ErrDonationNotFound)
}

func (r *DonationRepository) FindByID(ctx context.Context, id string) (*entity.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = ?`

	donation := &entity.Donation{}
	if err := scanDonation(r.db.QueryRowContext(ctx, query, id), donation); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return donation, nil
}

func (r *DonationRepository) FindByPaymentID(ctx context.Context, paymentID string) (*entity.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE payment_id = ? ORDER BY created_at DESC LIMIT 1`

	donation := &entity.Donation{}
	if err := scanDonation(r.db.QueryRowContext(ctx, query, paymentID), donation); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return donation, nil
}

func (r *DonationRepository) List(ctx context.Context, filter DonationFilter) ([]*entity.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations`

	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)

	if strings.TrimSpace(filter.Status) != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if strings.TrimSpace(filter.SteamID) != "" {
		conditions = append(conditions, "steam_id = ?")
		args = append(args, filter.SteamID)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	return r.queryDonations(ctx, query, args...)
}

// ListOpen returns the newest donations whose gateway status can still change.
func (r *DonationRepository) ListOpen(ctx context.Context, limit int32) ([]*entity.Donation, error) {
	query := `SELECT ` + donationColumns + `
		FROM donations
		WHERE status IN (` + placeholders(len(entity.OpenDonationStatuses)) + `)
		ORDER BY created_at DESC
		LIMIT ?`

	args := make([]interface{}, 0, len(entity.OpenDonationStatuses)+1)
	for _, status := range entity.OpenDonationStatuses {
		args = append(args, status)
	}
	args = append(args, limit)

	return r.queryDonations(ctx, query, args...)
}

// ExistingPaymentIDs returns the subset of paymentIDs that already have a donation row.
func (r *DonationRepository) ExistingPaymentIDs(ctx context.Context, paymentIDs []string) (map[string]bool, error) {
	found := make(map[string]bool, len(paymentIDs))
	if len(paymentIDs) == 0 {
		return found, nil
	}

	args := make([]interface{}, 0, len(paymentIDs))
	for _, id := range paymentIDs {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT payment_id FROM donations WHERE payment_id IN (`+placeholders(len(args))+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var paymentID string
		if err := rows.Scan(&paymentID); err != nil {
			return nil, err
		}
		found[paymentID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return found, nil
}

// TotalsBetween aggregates donations with from <= created_at < to.
func (r *DonationRepository) TotalsBetween(ctx context.Context, from, to time.Time) (*DonationTotals, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN amount ELSE 0 END), 0)
		FROM donations
		WHERE created_at >= ? AND created_at < ?
	`

	totals := &DonationTotals{}
	err := r.db.QueryRowContext(ctx, query,
		entity.DonationStatusApproved,
		entity.DonationStatusPending,
		entity.DonationStatusApproved,
		entity.DonationStatusPending,
		from,
		to,
	).Scan(&totals.Count, &totals.ApprovedCount, &totals.PendingCount, &totals.ApprovedTotal, &totals.PendingTotal)
	if err != nil {
		return nil, err
	}

	return totals, nil
}

func (r *DonationRepository) queryDonations(ctx context.Context, query string, args ...interface{}) ([]*entity.Donation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donations := make([]*entity.Donation, 0)
	for rows.Next() {
		item := &entity.Donation{}
		if err := scanDonation(rows, item); err != nil {
			return nil, err
		}
		donations = append(donations, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return donations, nil
}

func scanDonation(scan rowScanner, donation *entity.Donation) error {
	var phone sql.NullString
	var steamID sql.NullString
	var description sql.NullString
	var discountCoupon sql.NullString
	var qrCode sql.NullString
	var qrCodeBase64 sql.NullString
	var ticketURL sql.NullString

	err := scan.Scan(
		&donation.ID,
		&donation.PaymentID,
		&donation.Name,
		&donation.Email,
		&phone,
		&steamID,
		&donation.Amount,
		&description,
		&donation.Status,
		&discountCoupon,
		&qrCode,
		&qrCodeBase64,
		&ticketURL,
		&donation.CreatedAt,
		&donation.UpdatedAt,
	)
	if err != nil {
		return err
	}

	donation.Phone = stringPtrFromNull(phone)
	donation.SteamID = stringPtrFromNull(steamID)
	donation.Description = stringPtrFromNull(description)
	donation.DiscountCoupon = stringPtrFromNull(discountCoupon)
	donation.QRCode = stringPtrFromNull(qrCode)
	donation.QRCodeBase64 = stringPtrFromNull(qrCodeBase64)
	donation.TicketURL = stringPtrFromNull(ticketURL)

	return nil
}
