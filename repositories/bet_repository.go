package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/tournament-betting/models"
)

const selectBetColumns = `
	SELECT b.id, b.better_id, b.match_id, b.amount_cents, b.team_number, b.won, bt.name, m.name
	FROM bets b
	JOIN betters bt ON bt.id = b.better_id
	JOIN matches m ON m.id = b.match_id`

func (t *sqlBettingTx) InsertBet(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (better_id, match_id, amount_cents, team_number, won)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	amountCents, err := toCents(bet.Amount)
	if err != nil {
		return fmt.Errorf("failed to insert bet for better %d: %w", bet.BetterID, err)
	}

	err = t.exec.QueryRowContext(ctx, query,
		bet.BetterID,
		bet.MatchID,
		amountCents,
		bet.TeamNumber,
		bet.Won,
	).Scan(&bet.ID)
	if err != nil {
		return fmt.Errorf("failed to insert bet for better %d on match %d: %w", bet.BetterID, bet.MatchID, handleConstraintError(err))
	}
	return nil
}

func (t *sqlBettingTx) ListBetsByMatch(ctx context.Context, matchID int64) ([]*models.Bet, error) {
	bets, err := t.queryBets(ctx, selectBetColumns+` WHERE b.match_id = $1 ORDER BY b.id ASC`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets for match %d: %w", matchID, err)
	}
	return bets, nil
}

func (t *sqlBettingTx) ListBetsByBetter(ctx context.Context, betterID int64) ([]*models.Bet, error) {
	bets, err := t.queryBets(ctx, selectBetColumns+` WHERE b.better_id = $1 ORDER BY b.id ASC`, betterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets for better %d: %w", betterID, err)
	}
	return bets, nil
}

func (t *sqlBettingTx) ListBetsByTournament(ctx context.Context, tournamentID int64) ([]*models.Bet, error) {
	bets, err := t.queryBets(ctx, selectBetColumns+` WHERE bt.tournament_id = $1 ORDER BY b.id ASC`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets for tournament %d: %w", tournamentID, err)
	}
	return bets, nil
}

// UpdateBetResults записывает Won каждой ставки; nil сбрасывает результат.
func (t *sqlBettingTx) UpdateBetResults(ctx context.Context, bets []*models.Bet) error {
	if len(bets) == 0 {
		return nil
	}

	stmt, err := t.tx.PrepareContext(ctx, `UPDATE bets SET won = $1 WHERE id = $2`)
	if err != nil {
		return fmt.Errorf("UpdateBetResults failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, bet := range bets {
		result, err := stmt.ExecContext(ctx, bet.Won, bet.ID)
		if err != nil {
			return fmt.Errorf("UpdateBetResults failed for bet %d: %w", bet.ID, err)
		}
		if err := checkAffectedRows(result, ErrBetNotFound); err != nil {
			return fmt.Errorf("UpdateBetResults bet %d: %w", bet.ID, err)
		}
	}
	return nil
}

func (t *sqlBettingTx) DeleteBetsByIDs(ctx context.Context, betIDs []int64) error {
	if len(betIDs) == 0 {
		return nil
	}
	query := `DELETE FROM bets WHERE id IN (` + inPlaceholders(1, len(betIDs)) + `)`
	result, err := t.exec.ExecContext(ctx, query, int64Args(betIDs)...)
	if err != nil {
		return fmt.Errorf("failed to delete %d bets: %w", len(betIDs), err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected != int64(len(betIDs)) {
		return fmt.Errorf("%w: deleted %d of %d", ErrBetNotFound, affected, len(betIDs))
	}
	return nil
}

func (t *sqlBettingTx) queryBets(ctx context.Context, query string, args ...interface{}) ([]*models.Bet, error) {
	rows, err := t.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bets := make([]*models.Bet, 0)
	for rows.Next() {
		var (
			bet         models.Bet
			amountCents int64
			won         sql.NullBool
		)
		if err := rows.Scan(&bet.ID, &bet.BetterID, &bet.MatchID, &amountCents, &bet.TeamNumber, &won, &bet.BetterName, &bet.MatchName); err != nil {
			return nil, fmt.Errorf("failed to scan bet row: %w", err)
		}
		bet.Amount = fromCents(amountCents)
		bet.Won = nullableBool(won)
		bets = append(bets, &bet)
	}
	return bets, rows.Err()
}
