package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-betting/db"
	"github.com/Dosada05/tournament-betting/repositories"
	"github.com/Dosada05/tournament-betting/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin  = Caller{Name: "referee", IsAdmin: true}
	player = Caller{Name: "punter"}
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:cmd_%s?mode=memory&cache=shared&_foreign_keys=1", name)

	conn, err := db.Connect(db.DriverSQLite, dsn, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	betting := services.NewBettingService(repositories.NewSQLBettingRepository(conn), nil, logger)
	return NewDispatcher(betting, "ledger", logger)
}

func run(t *testing.T, d *Dispatcher, caller Caller, text string) string {
	t.Helper()
	return d.Execute(context.Background(), caller, text)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr error
	}{
		{in: "!AddBet T alice M 10 1", want: []string{"AddBet", "T", "alice", "M", "10", "1"}},
		{in: `AddMatch "Spring Cup" Final "Ann Lee" Bob`, want: []string{"AddMatch", "Spring Cup", "Final", "Ann Lee", "Bob"}},
		{in: "  Help   ", want: []string{"Help"}},
		{in: `Balance T ""`, want: []string{"Balance", "T", ""}},
		{in: "", want: nil},
		{in: `StartTournament "Spring`, wantErr: ErrUnterminatedQuote},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Tokenize(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdminCommandsRequireRole(t *testing.T) {
	d := newTestDispatcher(t)
	for _, text := range []string{
		"Truncate",
		"StartTournament T",
		"AddMatch T M",
		"StartMatch T M",
		"RemoveMatch T M",
		"AddBetter T b 10",
		"DeclareMatchWinner T M 1",
	} {
		assert.Equal(t, MissingRoleReply, run(t, d, player, text), text)
	}
}

func TestArityAndUnknownCommands(t *testing.T) {
	d := newTestDispatcher(t)

	assert.Equal(t, "Incorrect arguments given, needed 1, given 0", run(t, d, admin, "StartTournament"))
	assert.Equal(t, "Incorrect arguments given, needed 5, given 2", run(t, d, player, "AddBet T b"))
	assert.Equal(t, "Incorrect arguments given, needed at least 2, given 1", run(t, d, admin, "AddMatch T"))
	assert.Equal(t, "Incorrect arguments given, needed at least 2, plus balanced teams", run(t, d, admin, "AddMatch T M A B C"))
	assert.Contains(t, run(t, d, player, "Dance"), `Unknown command "Dance"`)
	assert.Contains(t, run(t, d, player, ""), "No command given")
	assert.Contains(t, run(t, d, player, `Matches "T`), "Error: ")
}

func TestFullRound(t *testing.T) {
	d := newTestDispatcher(t)

	assert.Equal(t, `Started new tournament "Spring Cup"`, run(t, d, admin, `!StartTournament "Spring Cup"`))
	assert.Equal(t, `Added new match in tournament "Spring Cup" called "Final"`,
		run(t, d, admin, `AddMatch "Spring Cup" Final "Ann Lee" Cid Bob Dan`))
	assert.Equal(t, `Added better "alice" to tournament "Spring Cup" with initial balance of "100.00"`,
		run(t, d, admin, `AddBetter "Spring Cup" alice 100`))
	run(t, d, admin, `AddBetter "Spring Cup" bob 100`)

	assert.Equal(t, `Added "10.00" bet from better "alice" to tournament "Spring Cup" match Final for team 1 ("Ann Lee",Cid)`,
		run(t, d, player, `addbet "Spring Cup" alice Final 10 1`))
	run(t, d, player, `AddBet "Spring Cup" bob Final 25.50 2`)

	matches := run(t, d, player, `Matches "Spring Cup"`)
	assert.Contains(t, matches, `Current matches for tournament "Spring Cup":`)
	assert.Contains(t, matches, "Name: Final,\tStatus:WaitingToStart,\tTeam1: \"Ann Lee\",Cid,\tTeam2: Bob,Dan,\tWinningTeam: N/A")

	assert.Equal(t, `Started new match in tournament "Spring Cup" called "Final"`, run(t, d, admin, `StartMatch "Spring Cup" Final`))

	result := run(t, d, admin, `DeclareMatchWinner "Spring Cup" Final 1`)
	assert.Equal(t, "Congratulations to \"Ann Lee\",Cid for winning match \"Final\"\n"+
		"Bet winners:\n"+
		"Better alice bet a total of 10.00 and won 20.00, new balance: 110.00\n"+
		"\n"+
		"Bet losers:\n"+
		"Better bob bet and lost a total of 25.50, new balance: 74.50\n", result)

	assert.Equal(t, `Better "alice" has balance of 110.00. They have won 1 bets, lost 0 bets and have 0 bets outstanding.`,
		run(t, d, player, `Balance "Spring Cup" alice`))

	board := run(t, d, player, `Leaderboard "Spring Cup"`)
	assert.True(t, strings.HasPrefix(board, "Current leaderboard:\n1. Better \"alice\""), board)
	assert.Contains(t, board, "2. Better \"bob\" has balance of 74.50.")

	assert.Equal(t, `Removed match from tournament "Spring Cup" called "Final"`, run(t, d, admin, `RemoveMatch "Spring Cup" Final`))
	assert.Contains(t, run(t, d, player, `Balance "Spring Cup" bob`), "has balance of 100.00")
	assert.Equal(t, `There are no matches for tournament "Spring Cup"`, run(t, d, player, `Matches "Spring Cup"`))

	assert.Equal(t, "Database truncated", run(t, d, admin, "Truncate"))
	assert.Contains(t, run(t, d, player, `Matches "Spring Cup"`), "tournament does not exist")
}

func TestErrorsAreReplied(t *testing.T) {
	d := newTestDispatcher(t)
	run(t, d, admin, "StartTournament T")
	run(t, d, admin, "AddMatch T M")
	run(t, d, admin, "AddBetter T b 5")

	assert.Equal(t, `Error: tournament already exists: "T"`, run(t, d, admin, "StartTournament T"))
	assert.Equal(t, `Error: invalid number: "ten"`, run(t, d, player, "AddBet T b M ten 1"))
	assert.Equal(t, `Error: invalid number: "one"`, run(t, d, admin, "DeclareMatchWinner T M one"))
	assert.Contains(t, run(t, d, player, "AddBet T b M 10 1"), "Error: insufficient funds")
	assert.Equal(t, `Error: invalid team number: 3`, run(t, d, player, "AddBet T b M 1 3"))
	assert.Equal(t, `Error: match is not running: "M"`, run(t, d, admin, "DeclareMatchWinner T M 1"))
}

func TestInfoAndHelp(t *testing.T) {
	d := newTestDispatcher(t)
	assert.Contains(t, run(t, d, player, "info"), "bot called ledger")

	help := run(t, d, player, "Help")
	assert.Contains(t, help, "!AddBet <tournament> <better> <match> <amount> <team>\n")
	assert.Contains(t, help, "!Truncate (admin)\n")
}
