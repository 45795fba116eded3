package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-betting/models"
)

func (t *sqlBettingTx) GetTournamentByName(ctx context.Context, name string) (*models.Tournament, error) {
	query := `SELECT id, name FROM tournaments WHERE name = $1`

	tournament := &models.Tournament{}
	err := t.exec.QueryRowContext(ctx, query, name).Scan(&tournament.ID, &tournament.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tournament by name %q: %w", name, err)
	}
	return tournament, nil
}

func (t *sqlBettingTx) InsertTournament(ctx context.Context, tournament *models.Tournament) error {
	query := `INSERT INTO tournaments (name) VALUES ($1) RETURNING id`

	err := t.exec.QueryRowContext(ctx, query, tournament.Name).Scan(&tournament.ID)
	if err != nil {
		return fmt.Errorf("failed to insert tournament %q: %w", tournament.Name, handleConstraintError(err))
	}
	return nil
}
