package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

var (
	ErrServerNotFound = errors.New("server not found")
	ErrModNotFound    = errors.New("server mod not found")
)

const (
	serverColumns = `id, nome, host, valor_mensal, created_at, updated_at`
	modColumns    = `id, servidor_id, nome_mod, discord, loja_steam, valor_mensal, created_at, updated_at`
)

type ServerRepository struct {
	db DBTX
}

func NewServerRepository(db DBTX) *ServerRepository {
	return &ServerRepository{db: db}
}

// List returns every server with its mods attached.
func (r *ServerRepository) List(ctx context.Context) ([]*entity.Server, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+serverColumns+` FROM servidores ORDER BY nome ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	servers := make([]*entity.Server, 0)
	byID := make(map[string]*entity.Server)
	for rows.Next() {
		item := &entity.Server{Mods: []*entity.ServerMod{}}
		if err := scanServer(rows, item); err != nil {
			return nil, err
		}
		servers = append(servers, item)
		byID[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	mods, err := r.listMods(ctx, `SELECT `+modColumns+` FROM servidores_mods ORDER BY nome_mod ASC`)
	if err != nil {
		return nil, err
	}
	for _, mod := range mods {
		if server, ok := byID[mod.ServerID]; ok {
			server.Mods = append(server.Mods, mod)
		}
	}

	return servers, nil
}

func (r *ServerRepository) FindByID(ctx context.Context, id string) (*entity.Server, error) {
	server := &entity.Server{}
	err := scanServer(r.db.QueryRowContext(ctx, `SELECT `+serverColumns+` FROM servidores WHERE id = ?`, id), server)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	mods, err := r.ListMods(ctx, id)
	if err != nil {
		return nil, err
	}
	server.Mods = mods
	return server, nil
}

func (r *ServerRepository) Create(ctx context.Context, server *entity.Server) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO servidores (`+serverColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, server.ID, server.Name, server.Host, server.MonthlyCost.StringFixed(2), server.CreatedAt, server.UpdatedAt)
	return err
}

func (r *ServerRepository) Update(ctx context.Context, server *entity.Server) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE servidores SET nome = ?, host = ?, valor_mensal = ?, updated_at = ?
		WHERE id = ?
	`, server.Name, server.Host, server.MonthlyCost.StringFixed(2), server.UpdatedAt, server.ID)
	if err != nil {
		return err
	}
	return checkAffected(result, ErrServerNotFound)
}

// Delete removes the server's mods first, then the server.
func (r *ServerRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM servidores_mods WHERE servidor_id = ?`, id); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM servidores WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result, ErrServerNotFound)
}

func (r *ServerRepository) ListMods(ctx context.Context, serverID string) ([]*entity.ServerMod, error) {
	return r.listMods(ctx, `SELECT `+modColumns+` FROM servidores_mods WHERE servidor_id = ? ORDER BY nome_mod ASC`, serverID)
}

func (r *ServerRepository) CreateMod(ctx context.Context, mod *entity.ServerMod) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO servidores_mods (`+modColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		mod.ID,
		mod.ServerID,
		mod.Name,
		nullableStringValue(mod.Discord),
		nullableStringValue(mod.SteamStore),
		mod.MonthlyCost.StringFixed(2),
		mod.CreatedAt,
		mod.UpdatedAt,
	)
	if err != nil && isForeignKeyError(err) {
		return ErrServerNotFound
	}
	return err
}

func (r *ServerRepository) UpdateMod(ctx context.Context, mod *entity.ServerMod) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE servidores_mods SET nome_mod = ?, discord = ?, loja_steam = ?, valor_mensal = ?, updated_at = ?
		WHERE id = ?
	`,
		mod.Name,
		nullableStringValue(mod.Discord),
		nullableStringValue(mod.SteamStore),
		mod.MonthlyCost.StringFixed(2),
		mod.UpdatedAt,
		mod.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result, ErrModNotFound)
}

func (r *ServerRepository) DeleteMod(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM servidores_mods WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result, ErrModNotFound)
}

// MonthlyCostTotal sums valor_mensal over all servers and all mods.
func (r *ServerRepository) MonthlyCostTotal(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COALESCE(SUM(valor_mensal), 0) FROM servidores) +
			(SELECT COALESCE(SUM(valor_mensal), 0) FROM servidores_mods)
	`).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *ServerRepository) listMods(ctx context.Context, query string, args ...interface{}) ([]*entity.ServerMod, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mods := make([]*entity.ServerMod, 0)
	for rows.Next() {
		item := &entity.ServerMod{}
		if err := scanMod(rows, item); err != nil {
			return nil, err
		}
		mods = append(mods, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return mods, nil
}

func scanServer(scan rowScanner, server *entity.Server) error {
	return scan.Scan(
		&server.ID,
		&server.Name,
		&server.Host,
		&server.MonthlyCost,
		&server.CreatedAt,
		&server.UpdatedAt,
	)
}

func scanMod(scan rowScanner, mod *entity.ServerMod) error {
	var discord, steamStore sql.NullString

	err := scan.Scan(
		&mod.ID,
		&mod.ServerID,
		&mod.Name,
		&discord,
		&steamStore,
		&mod.MonthlyCost,
		&mod.CreatedAt,
		&mod.UpdatedAt,
	)
	if err != nil {
		return err
	}

	mod.Discord = stringPtrFromNull(discord)
	mod.SteamStore = stringPtrFromNull(steamStore)
	return nil
}
