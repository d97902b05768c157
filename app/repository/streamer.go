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
	ErrStreamerNotFound = errors.New("streamer not found")
	ErrCampaignNotFound = errors.New("campaign not found")
)

const streamerColumns = `id, nome, email, telefone, steam_id, youtube, instagram, facebook, created_at, updated_at`

type StreamerRepository struct {
	db DBTX
}

func NewStreamerRepository(db DBTX) *StreamerRepository {
	return &StreamerRepository{db: db}
}

func (r *StreamerRepository) FindByID(ctx context.Context, id string) (*entity.Streamer, error) {
	streamer := &entity.Streamer{}
	err := scanStreamer(r.db.QueryRowContext(ctx, `SELECT `+streamerColumns+` FROM streamers WHERE id = ?`, id), streamer)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return streamer, nil
}

func (r *StreamerRepository) List(ctx context.Context) ([]*entity.Streamer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+streamerColumns+` FROM streamers ORDER BY nome ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.Streamer, 0)
	for rows.Next() {
		item := &entity.Streamer{}
		if err := scanStreamer(rows, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *StreamerRepository) Create(ctx context.Context, streamer *entity.Streamer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO streamers (`+streamerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		streamer.ID,
		streamer.Name,
		streamer.Email,
		nullableStringValue(streamer.Phone),
		nullableStringValue(streamer.SteamID),
		nullableStringValue(streamer.YouTube),
		nullableStringValue(streamer.Instagram),
		nullableStringValue(streamer.Facebook),
		streamer.CreatedAt,
		streamer.UpdatedAt,
	)
	return err
}

func (r *StreamerRepository) Update(ctx context.Context, streamer *entity.Streamer) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE streamers SET
			nome = ?,
			email = ?,
			telefone = ?,
			steam_id = ?,
			youtube = ?,
			instagram = ?,
			facebook = ?,
			updated_at = ?
		WHERE id = ?
	`,
		streamer.Name,
		streamer.Email,
		nullableStringValue(streamer.Phone),
		nullableStringValue(streamer.SteamID),
		nullableStringValue(streamer.YouTube),
		nullableStringValue(streamer.Instagram),
		nullableStringValue(streamer.Facebook),
		streamer.UpdatedAt,
		streamer.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result, ErrStreamerNotFound)
}

// Delete removes the streamer together with its coupons and campaigns.
func (r *StreamerRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM streamer_coupons WHERE streamer_id = ?`, id); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM streamer_campanhas WHERE streamer_id = ?`, id); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM streamers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result, ErrStreamerNotFound)
}

func scanStreamer(scan rowScanner, streamer *entity.Streamer) error {
	var phone, steamID, youtube, instagram, facebook sql.NullString

	err := scan.Scan(
		&streamer.ID,
		&streamer.Name,
		&streamer.Email,
		&phone,
		&steamID,
		&youtube,
		&instagram,
		&facebook,
		&streamer.CreatedAt,
		&streamer.UpdatedAt,
	)
	if err != nil {
		return err
	}

	streamer.Phone = stringPtrFromNull(phone)
	streamer.SteamID = stringPtrFromNull(steamID)
	streamer.YouTube = stringPtrFromNull(youtube)
	streamer.Instagram = stringPtrFromNull(instagram)
	streamer.Facebook = stringPtrFromNull(facebook)

	return nil
}

const campaignColumns = `id, streamer_id, nome, descricao, data_inicio, data_fim, valor, created_at, updated_at`

type CampaignFilter struct {
	StreamerID string
}

// CampaignTotals aggregates campaigns whose start date falls inside a period.
type CampaignTotals struct {
	Count int64
	Total decimal.Decimal
}

type CampaignRepository struct {
	db DBTX
}

func NewCampaignRepository(db DBTX) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) List(ctx context.Context, filter CampaignFilter) ([]*entity.StreamerCampaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM streamer_campanhas`
	args := make([]interface{}, 0, 1)
	if strings.TrimSpace(filter.StreamerID) != "" {
		query += " WHERE streamer_id = ?"
		args = append(args, filter.StreamerID)
	}
	query += " ORDER BY data_inicio DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.StreamerCampaign, 0)
	for rows.Next() {
		item := &entity.StreamerCampaign{}
		if err := scanCampaign(rows, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*entity.StreamerCampaign, error) {
	campaign := &entity.StreamerCampaign{}
	err := scanCampaign(r.db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM streamer_campanhas WHERE id = ?`, id), campaign)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return campaign, nil
}

func (r *CampaignRepository) Create(ctx context.Context, campaign *entity.StreamerCampaign) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO streamer_campanhas (`+campaignColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		campaign.ID,
		campaign.StreamerID,
		campaign.Name,
		nullableStringValue(campaign.Description),
		campaign.StartsAt,
		campaign.EndsAt,
		campaign.Value.StringFixed(2),
		campaign.CreatedAt,
		campaign.UpdatedAt,
	)
	if err != nil && isForeignKeyError(err) {
		return ErrStreamerNotFound
	}
	return err
}

func (r *CampaignRepository) Update(ctx context.Context, campaign *entity.StreamerCampaign) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE streamer_campanhas SET
			nome = ?,
			descricao = ?,
			data_inicio = ?,
			data_fim = ?,
			valor = ?,
			updated_at = ?
		WHERE id = ?
	`,
		campaign.Name,
		nullableStringValue(campaign.Description),
		campaign.StartsAt,
		campaign.EndsAt,
		campaign.Value.StringFixed(2),
		campaign.UpdatedAt,
		campaign.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result, ErrCampaignNotFound)
}

func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM streamer_campanhas WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result, ErrCampaignNotFound)
}

// TotalsStartingBetween aggregates campaigns with from <= data_inicio < to.
func (r *CampaignRepository) TotalsStartingBetween(ctx context.Context, from, to time.Time) (*CampaignTotals, error) {
	totals := &CampaignTotals{}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(valor), 0)
		FROM streamer_campanhas
		WHERE data_inicio >= ? AND data_inicio < ?
	`, from, to).Scan(&totals.Count, &totals.Total)
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func scanCampaign(scan rowScanner, campaign *entity.StreamerCampaign) error {
	var description sql.NullString

	err := scan.Scan(
		&campaign.ID,
		&campaign.StreamerID,
		&campaign.Name,
		&description,
		&campaign.StartsAt,
		&campaign.EndsAt,
		&campaign.Value,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	if err != nil {
		return err
	}

	campaign.Description = stringPtrFromNull(description)
	return nil
}
