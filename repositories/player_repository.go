package repositories

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-betting/models"
)

func (t *sqlBettingTx) InsertPlayers(ctx context.Context, players []*models.Player) error {
	if len(players) == 0 {
		return nil
	}

	stmt, err := t.tx.PrepareContext(ctx, `INSERT INTO players (match_id, name, team_number) VALUES ($1, $2, $3) RETURNING id`)
	if err != nil {
		return fmt.Errorf("InsertPlayers failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range players {
		if err := stmt.QueryRowContext(ctx, p.MatchID, p.Name, p.TeamNumber).Scan(&p.ID); err != nil {
			return fmt.Errorf("InsertPlayers failed for match_id %d, player %q: %w", p.MatchID, p.Name, handleConstraintError(err))
		}
	}
	return nil
}

func (t *sqlBettingTx) ListPlayersByMatch(ctx context.Context, matchID int64) ([]*models.Player, error) {
	query := `SELECT id, match_id, name, team_number FROM players WHERE match_id = $1 ORDER BY team_number ASC, id ASC`
	players, err := t.queryPlayers(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for match %d: %w", matchID, err)
	}
	return players, nil
}

func (t *sqlBettingTx) listPlayersByTournament(ctx context.Context, tournamentID int64) ([]*models.Player, error) {
	query := `
		SELECT p.id, p.match_id, p.name, p.team_number
		FROM players p
		JOIN matches m ON m.id = p.match_id
		WHERE m.tournament_id = $1
		ORDER BY p.match_id ASC, p.team_number ASC, p.id ASC`
	players, err := t.queryPlayers(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for tournament %d: %w", tournamentID, err)
	}
	return players, nil
}

func (t *sqlBettingTx) DeletePlayersByIDs(ctx context.Context, playerIDs []int64) error {
	if len(playerIDs) == 0 {
		return nil
	}
	query := `DELETE FROM players WHERE id IN (` + inPlaceholders(1, len(playerIDs)) + `)`
	if _, err := t.exec.ExecContext(ctx, query, int64Args(playerIDs)...); err != nil {
		return fmt.Errorf("failed to delete %d players: %w", len(playerIDs), err)
	}
	return nil
}

func (t *sqlBettingTx) queryPlayers(ctx context.Context, query string, args ...interface{}) ([]*models.Player, error) {
	rows, err := t.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.MatchID, &p.Name, &p.TeamNumber); err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, &p)
	}
	return players, rows.Err()
}
