package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-betting/models"
	"github.com/shopspring/decimal"
)

const selectBetterColumns = `SELECT id, tournament_id, name, balance_cents FROM betters`

func (t *sqlBettingTx) InsertBetter(ctx context.Context, better *models.Better) error {
	query := `
		INSERT INTO betters (tournament_id, name, balance_cents)
		VALUES ($1, $2, $3)
		RETURNING id`

	balanceCents, err := toCents(better.Balance)
	if err != nil {
		return fmt.Errorf("failed to insert better %q: %w", better.Name, err)
	}

	err = t.exec.QueryRowContext(ctx, query, better.TournamentID, better.Name, balanceCents).Scan(&better.ID)
	if err != nil {
		return fmt.Errorf("failed to insert better %q: %w", better.Name, handleConstraintError(err))
	}
	return nil
}

func (t *sqlBettingTx) GetBetterByName(ctx context.Context, tournamentID int64, name string) (*models.Better, error) {
	query := selectBetterColumns + ` WHERE tournament_id = $1 AND name = $2`

	better, err := scanBetter(t.exec.QueryRowContext(ctx, query, tournamentID, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get better %q of tournament %d: %w", name, tournamentID, err)
	}
	return better, nil
}

// ListBettersByTournament отдает участников в порядке таблицы лидеров.
func (t *sqlBettingTx) ListBettersByTournament(ctx context.Context, tournamentID int64) ([]*models.Better, error) {
	query := selectBetterColumns + ` WHERE tournament_id = $1 ORDER BY balance_cents DESC, id ASC`
	betters, err := t.queryBetters(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list betters for tournament %d: %w", tournamentID, err)
	}
	return betters, nil
}

func (t *sqlBettingTx) ListBettersByIDs(ctx context.Context, betterIDs []int64) ([]*models.Better, error) {
	if len(betterIDs) == 0 {
		return []*models.Better{}, nil
	}
	query := selectBetterColumns + ` WHERE id IN (` + inPlaceholders(1, len(betterIDs)) + `) ORDER BY id ASC`
	betters, err := t.queryBetters(ctx, query, int64Args(betterIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %d betters by id: %w", len(betterIDs), err)
	}
	return betters, nil
}

// AdjustBetterBalances прибавляет amounts[i] к балансу betterIDs[i].
// Отрицательные суммы списывают средства; проверка остатка лежит на сервисе.
func (t *sqlBettingTx) AdjustBetterBalances(ctx context.Context, betterIDs []int64, amounts []decimal.Decimal) error {
	if len(betterIDs) != len(amounts) {
		return fmt.Errorf("%w: %d ids, %d amounts", ErrBalanceAdjustmentMismatch, len(betterIDs), len(amounts))
	}
	if len(betterIDs) == 0 {
		return nil
	}

	deltas := make([]int64, len(amounts))
	for i, amount := range amounts {
		cents, err := toCents(amount)
		if err != nil {
			return fmt.Errorf("AdjustBetterBalances better %d: %w", betterIDs[i], err)
		}
		deltas[i] = cents
	}

	stmt, err := t.tx.PrepareContext(ctx, `UPDATE betters SET balance_cents = balance_cents + $1 WHERE id = $2`)
	if err != nil {
		return fmt.Errorf("AdjustBetterBalances failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, id := range betterIDs {
		result, err := stmt.ExecContext(ctx, deltas[i], id)
		if err != nil {
			return fmt.Errorf("AdjustBetterBalances failed for better %d: %w", id, err)
		}
		if err := checkAffectedRows(result, ErrBetterNotFound); err != nil {
			return fmt.Errorf("AdjustBetterBalances better %d: %w", id, err)
		}
	}
	return nil
}

// DebitBetterBalance проверяет остаток и списывает средства одним UPDATE,
// поэтому параллельные ставки не уводят баланс в минус.
func (t *sqlBettingTx) DebitBetterBalance(ctx context.Context, betterID int64, amount decimal.Decimal) error {
	cents, err := toCents(amount)
	if err != nil {
		return fmt.Errorf("DebitBetterBalance better %d: %w", betterID, err)
	}

	query := `UPDATE betters SET balance_cents = balance_cents - $1 WHERE id = $2 AND balance_cents >= $1`
	result, err := t.exec.ExecContext(ctx, query, cents, betterID)
	if err != nil {
		return fmt.Errorf("DebitBetterBalance failed for better %d: %w", betterID, err)
	}
	err = checkAffectedRows(result, ErrInsufficientBalance)
	if !errors.Is(err, ErrInsufficientBalance) {
		return err
	}

	// Ни одна строка не обновлена: участника нет или не хватает средств.
	var exists int
	err = t.exec.QueryRowContext(ctx, `SELECT 1 FROM betters WHERE id = $1`, betterID).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("DebitBetterBalance better %d: %w", betterID, ErrBetterNotFound)
	case err != nil:
		return fmt.Errorf("DebitBetterBalance failed to look up better %d: %w", betterID, err)
	}
	return fmt.Errorf("DebitBetterBalance better %d: %w", betterID, ErrInsufficientBalance)
}

func (t *sqlBettingTx) queryBetters(ctx context.Context, query string, args ...interface{}) ([]*models.Better, error) {
	rows, err := t.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	betters := make([]*models.Better, 0)
	for rows.Next() {
		better, err := scanBetter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan better row: %w", err)
		}
		betters = append(betters, better)
	}
	return betters, rows.Err()
}

func scanBetter(row rowScanner) (*models.Better, error) {
	var (
		better       models.Better
		balanceCents int64
	)
	if err := row.Scan(&better.ID, &better.TournamentID, &better.Name, &balanceCents); err != nil {
		return nil, err
	}
	better.Balance = fromCents(balanceCents)
	better.Bets = []models.Bet{}
	return &better, nil
}
