package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-betting/models"
	"github.com/shopspring/decimal"
)

var (
	ErrUniqueViolation             = errors.New("unique constraint violation")
	ErrMatchNotFound               = errors.New("match not found")
	ErrBetNotFound                 = errors.New("bet not found")
	ErrBetterNotFound              = errors.New("better not found")
	ErrBalanceAdjustmentMismatch   = errors.New("better ids and amounts must have the same length")
	ErrInsufficientBalance         = errors.New("insufficient balance")
	ErrAmountOutOfRange            = errors.New("amount does not fit into int64 cents")
	ErrTransactionAlreadyCompleted = errors.New("transaction already committed or rolled back")
)

// BettingRepository открывает транзакции над хранилищем тотализатора.
// Вся работа с данными идет через BettingTx, который принадлежит вызывающему.
type BettingRepository interface {
	Begin(ctx context.Context) (BettingTx, error)
	Truncate(ctx context.Context) error
}

// BettingTx is a unit of work over tournaments, matches, players, betters and
// bets. Lookups return (nil, nil) when nothing matches. The implementation
// carries no domain validation.
type BettingTx interface {
	Commit() error
	Rollback() error

	GetTournamentByName(ctx context.Context, name string) (*models.Tournament, error)
	InsertTournament(ctx context.Context, tournament *models.Tournament) error

	InsertMatch(ctx context.Context, match *models.Match) error
	GetMatchByName(ctx context.Context, tournamentID int64, name string) (*models.Match, error)
	GetMatchByID(ctx context.Context, id int64) (*models.Match, error)
	ListMatchesByTournament(ctx context.Context, tournamentID int64) ([]*models.Match, error)
	UpdateMatchStatus(ctx context.Context, matchID int64, status models.MatchStatus) error
	UpdateMatchWinningTeam(ctx context.Context, matchID int64, teamNumber int) error
	DeleteMatch(ctx context.Context, matchID int64) error

	InsertPlayers(ctx context.Context, players []*models.Player) error
	ListPlayersByMatch(ctx context.Context, matchID int64) ([]*models.Player, error)
	DeletePlayersByIDs(ctx context.Context, playerIDs []int64) error

	InsertBet(ctx context.Context, bet *models.Bet) error
	ListBetsByMatch(ctx context.Context, matchID int64) ([]*models.Bet, error)
	ListBetsByBetter(ctx context.Context, betterID int64) ([]*models.Bet, error)
	ListBetsByTournament(ctx context.Context, tournamentID int64) ([]*models.Bet, error)
	UpdateBetResults(ctx context.Context, bets []*models.Bet) error
	DeleteBetsByIDs(ctx context.Context, betIDs []int64) error

	AdjustBetterBalances(ctx context.Context, betterIDs []int64, amounts []decimal.Decimal) error
	// DebitBetterBalance списывает amount, только если баланс его покрывает.
	DebitBetterBalance(ctx context.Context, betterID int64, amount decimal.Decimal) error
	InsertBetter(ctx context.Context, better *models.Better) error
	GetBetterByName(ctx context.Context, tournamentID int64, name string) (*models.Better, error)
	ListBettersByTournament(ctx context.Context, tournamentID int64) ([]*models.Better, error)
	ListBettersByIDs(ctx context.Context, betterIDs []int64) ([]*models.Better, error)
}

type sqlBettingRepository struct {
	db *sql.DB
}

// NewSQLBettingRepository works with both the postgres and sqlite3 drivers:
// every query uses $n placeholders and RETURNING.
func NewSQLBettingRepository(db *sql.DB) BettingRepository {
	return &sqlBettingRepository{db: db}
}

func (r *sqlBettingRepository) Begin(ctx context.Context) (BettingTx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqlBettingTx{tx: tx, exec: tx}, nil
}

// Truncate очищает все таблицы в порядке, совместимом с внешними ключами.
func (r *sqlBettingRepository) Truncate(ctx context.Context) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	for _, table := range []string{"bets", "players", "matches", "betters", "tournaments"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

type sqlBettingTx struct {
	tx   *sql.Tx
	exec SQLExecutor
}

func (t *sqlBettingTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return ErrTransactionAlreadyCompleted
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *sqlBettingTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return ErrTransactionAlreadyCompleted
		}
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}
