package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-betting/models"
)

const selectMatchColumns = `SELECT id, tournament_id, name, status, winning_team_number FROM matches`

func (t *sqlBettingTx) InsertMatch(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (tournament_id, name, status, winning_team_number)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := t.exec.QueryRowContext(ctx, query,
		match.TournamentID,
		match.Name,
		match.Status,
		match.WinningTeamNumber,
	).Scan(&match.ID)
	if err != nil {
		return fmt.Errorf("failed to insert match %q: %w", match.Name, handleConstraintError(err))
	}
	return nil
}

func (t *sqlBettingTx) GetMatchByName(ctx context.Context, tournamentID int64, name string) (*models.Match, error) {
	query := selectMatchColumns + ` WHERE tournament_id = $1 AND name = $2`
	match, err := t.getMatch(ctx, query, tournamentID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get match %q of tournament %d: %w", name, tournamentID, err)
	}
	return match, nil
}

func (t *sqlBettingTx) GetMatchByID(ctx context.Context, id int64) (*models.Match, error) {
	match, err := t.getMatch(ctx, selectMatchColumns+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get match by id %d: %w", id, err)
	}
	return match, nil
}

// getMatch загружает матч вместе с составами команд.
func (t *sqlBettingTx) getMatch(ctx context.Context, query string, args ...interface{}) (*models.Match, error) {
	match, err := scanMatch(t.exec.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	players, err := t.ListPlayersByMatch(ctx, match.ID)
	if err != nil {
		return nil, err
	}
	assignRosters(match, players)
	return match, nil
}

func (t *sqlBettingTx) ListMatchesByTournament(ctx context.Context, tournamentID int64) ([]*models.Match, error) {
	query := selectMatchColumns + ` WHERE tournament_id = $1 ORDER BY id ASC`

	rows, err := t.exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	// rows закрываем до следующих запросов: у SQLite одно соединение.
	rows.Close()

	if len(matches) == 0 {
		return matches, nil
	}

	players, err := t.listPlayersByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	byMatch := make(map[int64][]*models.Player, len(matches))
	for _, p := range players {
		byMatch[p.MatchID] = append(byMatch[p.MatchID], p)
	}
	for _, match := range matches {
		assignRosters(match, byMatch[match.ID])
	}
	return matches, nil
}

func (t *sqlBettingTx) UpdateMatchStatus(ctx context.Context, matchID int64, status models.MatchStatus) error {
	query := `UPDATE matches SET status = $1 WHERE id = $2`
	result, err := t.exec.ExecContext(ctx, query, status, matchID)
	if err != nil {
		return fmt.Errorf("failed to update status of match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (t *sqlBettingTx) UpdateMatchWinningTeam(ctx context.Context, matchID int64, teamNumber int) error {
	query := `UPDATE matches SET winning_team_number = $1 WHERE id = $2`
	result, err := t.exec.ExecContext(ctx, query, teamNumber, matchID)
	if err != nil {
		return fmt.Errorf("failed to update winning team of match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (t *sqlBettingTx) DeleteMatch(ctx context.Context, matchID int64) error {
	query := `DELETE FROM matches WHERE id = $1`
	result, err := t.exec.ExecContext(ctx, query, matchID)
	if err != nil {
		return fmt.Errorf("failed to delete match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	var (
		match       models.Match
		winningTeam sql.NullInt64
	)
	if err := row.Scan(&match.ID, &match.TournamentID, &match.Name, &match.Status, &winningTeam); err != nil {
		return nil, err
	}
	match.WinningTeamNumber = nullableTeamNumber(winningTeam)
	match.Team1 = []models.Player{}
	match.Team2 = []models.Player{}
	return &match, nil
}

func assignRosters(match *models.Match, players []*models.Player) {
	for _, p := range players {
		switch p.TeamNumber {
		case models.TeamOne:
			match.Team1 = append(match.Team1, *p)
		case models.TeamTwo:
			match.Team2 = append(match.Team2, *p)
		}
	}
}
