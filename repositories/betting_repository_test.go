package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-betting/db"
	"github.com/Dosada05/tournament-betting/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)

	conn, err := db.Connect(db.DriverSQLite, dsn, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite))
	return conn
}

func beginTx(t *testing.T, repo BettingRepository) BettingTx {
	t.Helper()
	tx, err := repo.Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx
}

type fixture struct {
	tournament *models.Tournament
	match      *models.Match
	alice      *models.Better
	bob        *models.Better
}

func seed(t *testing.T, tx BettingTx) fixture {
	t.Helper()
	ctx := context.Background()

	tournament := &models.Tournament{Name: "Spring Cup"}
	require.NoError(t, tx.InsertTournament(ctx, tournament))

	match := &models.Match{TournamentID: tournament.ID, Name: "Final", Status: models.MatchStatusWaitingToStart}
	require.NoError(t, tx.InsertMatch(ctx, match))
	require.NoError(t, tx.InsertPlayers(ctx, []*models.Player{
		{MatchID: match.ID, Name: "Ann", TeamNumber: models.TeamOne},
		{MatchID: match.ID, Name: "Ben", TeamNumber: models.TeamTwo},
		{MatchID: match.ID, Name: "Cid", TeamNumber: models.TeamOne},
	}))

	alice := &models.Better{TournamentID: tournament.ID, Name: "alice", Balance: decimal.RequireFromString("100")}
	bob := &models.Better{TournamentID: tournament.ID, Name: "bob", Balance: decimal.RequireFromString("50.25")}
	require.NoError(t, tx.InsertBetter(ctx, alice))
	require.NoError(t, tx.InsertBetter(ctx, bob))

	return fixture{tournament: tournament, match: match, alice: alice, bob: bob}
}

func TestTournamentInsertAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLBettingRepository(newTestDB(t))
	tx := beginTx(t, repo)

	missing, err := tx.GetTournamentByName(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	tournament := &models.Tournament{Name: "Spring Cup"}
	require.NoError(t, tx.InsertTournament(ctx, tournament))
	assert.NotZero(t, tournament.ID)

	found, err := tx.GetTournamentByName(ctx, "Spring Cup")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, tournament.ID, found.ID)

	err = tx.InsertTournament(ctx, &models.Tournament{Name: "Spring Cup"})
	assert.True(t, errors.Is(err, ErrUniqueViolation), "got %v", err)
}

func TestMatchRostersAndStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLBettingRepository(newTestDB(t))
	tx := beginTx(t, repo)
	f := seed(t, tx)

	match, err := tx.GetMatchByName(ctx, f.tournament.ID, "Final")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, models.MatchStatusWaitingToStart, match.Status)
	assert.Nil(t, match.WinningTeamNumber)
	require.Len(t, match.Team1, 2)
	require.Len(t, match.Team2, 1)
	assert.Equal(t, "Ann", match.Team1[0].Name)
	assert.Equal(t, "Cid", match.Team1[1].Name)
	assert.Equal(t, "Ben", match.Team2[0].Name)

	require.NoError(t, tx.UpdateMatchStatus(ctx, match.ID, models.MatchStatusFinished))
	require.NoError(t, tx.UpdateMatchWinningTeam(ctx, match.ID, models.TeamTwo))

	byID, err := tx.GetMatchByID(ctx, match.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, models.MatchStatusFinished, byID.Status)
	require.NotNil(t, byID.WinningTeamNumber)
	assert.Equal(t, models.TeamTwo, *byID.WinningTeamNumber)

	err = tx.InsertMatch(ctx, &models.Match{TournamentID: f.tournament.ID, Name: "Final", Status: models.MatchStatusWaitingToStart})
	assert.ErrorIs(t, err, ErrUniqueViolation)

	assert.ErrorIs(t, tx.UpdateMatchStatus(ctx, 9999, models.MatchStatusRunning), ErrMatchNotFound)
	assert.ErrorIs(t, tx.DeleteMatch(ctx, 9999), ErrMatchNotFound)

	missing, err := tx.GetMatchByName(ctx, f.tournament.ID, "Semi")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListMatchesByTournamentKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLBettingRepository(newTestDB(t))
	tx := beginTx(t, repo)
	f := seed(t, tx)

	second := &models.Match{TournamentID: f.tournament.ID, Name: "Bronze", Status: models.MatchStatusWaitingToStart}
	require.NoError(t, tx.InsertMatch(ctx, second))
	require.NoError(t, tx.InsertPlayers(ctx, []*models.Player{
		{MatchID: second.ID, Name: "Dan Smith", TeamNumber: models.TeamOne},
		{MatchID: second.ID, Name: "Eve", TeamNumber: models.TeamTwo},
	}))

	matches, err := tx.ListMatchesByTournament(ctx, f.tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Final", matches[0].Name)
	assert.Equal(t, "Bronze", matches[1].Name)
	assert.Len(t, matches[0].Players(), 3)
	require.Len(t, matches[1].Team1, 1)
	assert.Equal(t, "Dan Smith", matches[1].Team1[0].Name)

	empty, err := tx.ListMatchesByTournament(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBetsCarryJoinedNamesAndResults(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLBettingRepository(newTestDB(t))
	tx := beginTx(t, repo)
	f := seed(t, tx)

	first := &models.Bet{BetterID: f.alice.ID, MatchID: f.match.ID, Amount: decimal.RequireFromString("10.50"), TeamNumber: models.TeamOne}
	second := &models.Bet{BetterID: f.bob.ID, MatchID: f.match.ID, Amount: decimal.RequireFromString("0.01"), TeamNumber: models.TeamTwo}
	require.NoError(t, tx.InsertBet(ctx, first))
	require.NoError(t, tx.InsertBet(ctx, second))

	bets, err := tx.ListBetsByMatch(ctx, f.match.ID)
	require.NoError(t, err)
	require.Len(t, bets, 2)
	assert.Equal(t, "alice", bets[0].BetterName)
	assert.Equal(t, "Final", bets[0].MatchName)
	assert.True(t, bets[0].Amount.Equal(decimal.RequireFromString("10.5")))
	assert.True(t, bets[1].Amount.Equal(decimal.RequireFromString("0.01")))
	assert.Nil(t, bets[0].Won)

	won, lost := true, false
	bets[0].Won = &won
	bets[1].Won = &lost
	require.NoError(t, tx.UpdateBetResults(ctx, bets))

	byBetter, err := tx.ListBetsByBetter(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, byBetter, 1)
	require.NotNil(t, byBetter[0].Won)
	assert.True(t, *byBetter[0].Won)

	byTournament, err := tx.ListBetsByTournament(ctx, f.tournament.ID)
	require.NoError(t, err)
	require.Len(t, byTournament, 2)
	require.NotNil(t, byTournament[1].Won)
	assert.False(t, *byTournament[1].Won)

	err = tx.UpdateBetResults(ctx, []*models.Bet{{ID: 9999, Won: &won}})
	assert.ErrorIs(t, err, ErrBetNotFound)

	require.NoError(t, tx.DeleteBetsByIDs(ctx, []int64{first.ID, second.ID}))
	remaining, err := tx.ListBetsByMatch(ctx, f.match.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	assert.ErrorIs(t, tx.DeleteBetsByIDs(ctx, []int64{first.ID}), ErrBetNotFound)
}

func TestAdjustBetterBalances(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLBettingRepository(newTestDB(t))
	tx := beginTx(t, repo)
	f := seed(t, tx)

	err := tx.AdjustBetterBalances(ctx,
		[]int64{f.alice.ID, f.bob.ID, f.alice.ID},
		[]decimal.Decimal{decimal.RequireFromString("-10.10"), decimal.RequireFromString("0.75"), decimal.RequireFromString("5")},
	)
	require.NoError(t, err)

	alice, err := tx.GetBetterByName(ctx, f.tournament.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, "94.90", alice.Balance.StringFixed(2))

	bob, err := tx.GetBetterByName(ctx, f.tournament.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "51.00", bob.Balance.StringFixed(2))

	err = tx.AdjustBetterBalances(ctx, []int64{f.alice.ID}, nil)
	assert.ErrorIs(t, err, ErrBalanceAdjustmentMismatch)

	err = tx.AdjustBetterBalances(ctx, []int64{9999}, []decimal.Decimal{decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrBetterNotFound)

	err = tx.AdjustBetterBalances(ctx, []int64{f.alice.ID}, []decimal.Decimal{decimal.RequireFromString("1e18")})
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
}

func TestDebitBetterBalance(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLBettingRepository(newTestDB(t))
	tx := beginTx(t, repo)
	f := seed(t, tx)

	require.NoError(t, tx.DebitBetterBalance(ctx, f.bob.ID, decimal.RequireFromString("50.25")))
	bob, err := tx.GetBetterByName(ctx, f.tournament.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "0.00", bob.Balance.StringFixed(2))

	err = tx.DebitBetterBalance(ctx, f.bob.ID, decimal.RequireFromString("0.01"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	bob, err = tx.GetBetterByName(ctx, f.tournament.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "0.00", bob.Balance.StringFixed(2))

	err = tx.DebitBetterBalance(ctx, 9999, decimal.RequireFromString("1"))
	assert.ErrorIs(t, err, ErrBetterNotFound)
}

func TestInsertBetterRejectsOverflowingBalance(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLBettingRepository(newTestDB(t))
	tx := beginTx(t, repo)
	f := seed(t, tx)

	whale := &models.Better{TournamentID: f.tournament.ID, Name: "whale", Balance: decimal.RequireFromString("1e17")}
	assert.ErrorIs(t, tx.InsertBetter(ctx, whale), ErrAmountOutOfRange)

	bet := &models.Bet{BetterID: f.alice.ID, MatchID: f.match.ID, Amount: decimal.RequireFromString("1e17"), TeamNumber: models.TeamOne}
	assert.ErrorIs(t, tx.InsertBet(ctx, bet), ErrAmountOutOfRange)
}

func TestBettersLeaderboardOrderAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLBettingRepository(newTestDB(t))
	tx := beginTx(t, repo)
	f := seed(t, tx)

	carol := &models.Better{TournamentID: f.tournament.ID, Name: "carol", Balance: decimal.RequireFromString("100")}
	require.NoError(t, tx.InsertBetter(ctx, carol))

	betters, err := tx.ListBettersByTournament(ctx, f.tournament.ID)
	require.NoError(t, err)
	require.Len(t, betters, 3)
	assert.Equal(t, []string{"alice", "carol", "bob"}, []string{betters[0].Name, betters[1].Name, betters[2].Name})

	byIDs, err := tx.ListBettersByIDs(ctx, []int64{carol.ID, f.bob.ID})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	assert.Equal(t, "bob", byIDs[0].Name)

	none, err := tx.ListBettersByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	missing, err := tx.GetBetterByName(ctx, f.tournament.ID, "mallory")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = tx.InsertBetter(ctx, &models.Better{TournamentID: f.tournament.ID, Name: "alice"})
	assert.ErrorIs(t, err, ErrUniqueViolation)
}

func TestDeletePlayersAndMatch(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLBettingRepository(newTestDB(t))
	tx := beginTx(t, repo)
	f := seed(t, tx)

	players, err := tx.ListPlayersByMatch(ctx, f.match.ID)
	require.NoError(t, err)
	require.Len(t, players, 3)

	ids := make([]int64, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	require.NoError(t, tx.DeletePlayersByIDs(ctx, ids))
	require.NoError(t, tx.DeleteMatch(ctx, f.match.ID))

	match, err := tx.GetMatchByID(ctx, f.match.ID)
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestRollbackDiscardsWritesAndCommitIsFinal(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLBettingRepository(newTestDB(t))

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertTournament(ctx, &models.Tournament{Name: "Ghost"}))
	require.NoError(t, tx.Rollback())
	assert.ErrorIs(t, tx.Rollback(), ErrTransactionAlreadyCompleted)

	tx, err = repo.Begin(ctx)
	require.NoError(t, err)
	ghost, err := tx.GetTournamentByName(ctx, "Ghost")
	require.NoError(t, err)
	assert.Nil(t, ghost)
	require.NoError(t, tx.InsertTournament(ctx, &models.Tournament{Name: "Kept"}))
	require.NoError(t, tx.Commit())
	assert.ErrorIs(t, tx.Commit(), ErrTransactionAlreadyCompleted)

	tx = beginTx(t, repo)
	kept, err := tx.GetTournamentByName(ctx, "Kept")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestTruncateRemovesEverything(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLBettingRepository(newTestDB(t))

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	f := seed(t, tx)
	require.NoError(t, tx.InsertBet(ctx, &models.Bet{BetterID: f.alice.ID, MatchID: f.match.ID, Amount: decimal.NewFromInt(1), TeamNumber: models.TeamOne}))
	require.NoError(t, tx.Commit())

	require.NoError(t, repo.Truncate(ctx))

	tx = beginTx(t, repo)
	tournament, err := tx.GetTournamentByName(ctx, "Spring Cup")
	require.NoError(t, err)
	assert.Nil(t, tournament)
	bets, err := tx.ListBetsByMatch(ctx, f.match.ID)
	require.NoError(t, err)
	assert.Empty(t, bets)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "$1, $2, $3", inPlaceholders(1, 3))
	assert.Equal(t, "$4", inPlaceholders(4, 1))
	cents, err := toCents(decimal.RequireFromString("10.5"))
	require.NoError(t, err)
	assert.Equal(t, int64(1050), cents)
	cents, err = toCents(decimal.RequireFromString("-0.01"))
	require.NoError(t, err)
	assert.Equal(t, int64(-1), cents)
	_, err = toCents(decimal.RequireFromString("92233720368547758.08"))
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
	cents, err = toCents(decimal.RequireFromString("92233720368547758.07"))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), cents)
	assert.Equal(t, "12.34", fromCents(1234).StringFixed(2))
	assert.Nil(t, nullableTeamNumber(sql.NullInt64{}))
	assert.Equal(t, 2, *nullableTeamNumber(sql.NullInt64{Int64: 2, Valid: true}))
}
