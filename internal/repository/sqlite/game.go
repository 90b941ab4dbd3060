package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hyperbolichq/loyalty-api/internal/apperror"
	"github.com/hyperbolichq/loyalty-api/internal/model"
	"github.com/hyperbolichq/loyalty-api/internal/repository"
)

// compile-time check that *DB implements repository.GameRepository
var _ repository.GameRepository = (*DB)(nil)

func (db *DB) ListGames(ctx context.Context, activeOnly bool) ([]model.Game, error) {
	q := `SELECT id, name, icon, color, currency_name, frequency, is_active
	      FROM games`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY name`

	rows, err := db.conn.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		var frequency string
		if err := rows.Scan(&g.ID, &g.Name, &g.Icon, &g.Color, &g.CurrencyName, &frequency, &g.IsActive); err != nil {
			return nil, fmt.Errorf("sqlite: scanning game row: %w", err)
		}
		g.Frequency = model.Frequency(frequency)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating games: %w", err)
	}

	return games, nil
}

func (db *DB) GetGameByID(ctx context.Context, id string) (*model.Game, error) {
	var g model.Game
	var frequency string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, icon, color, currency_name, frequency, is_active
		 FROM games WHERE id = ?`, id,
	).Scan(&g.ID, &g.Name, &g.Icon, &g.Color, &g.CurrencyName, &frequency, &g.IsActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("game", id)
		}
		return nil, fmt.Errorf("sqlite: getting game %s: %w", id, err)
	}
	g.Frequency = model.Frequency(frequency)
	return &g, nil
}
