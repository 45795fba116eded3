package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-betting/services"
	"github.com/shopspring/decimal"
)

const MissingRoleReply = "User does not have the required role."

var errInvalidNumber = errors.New("invalid number")

// Caller describes who sent a command.
type Caller struct {
	Name    string
	IsAdmin bool
}

type handlerFunc func(ctx context.Context, args []string) (string, error)

type command struct {
	name      string
	usage     string
	adminOnly bool
	// arity < 0 means the handler checks arguments itself.
	arity int
	run   handlerFunc
}

// Dispatcher разбирает текстовые команды и вызывает BettingService.
type Dispatcher struct {
	betting  services.BettingService
	logger   *slog.Logger
	botName  string
	commands map[string]*command
}

func NewDispatcher(betting services.BettingService, botName string, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		betting: betting,
		logger:  logger,
		botName: botName,
	}
	d.register(
		&command{name: "Truncate", usage: "Truncate", adminOnly: true, arity: 0, run: d.truncate},
		&command{name: "StartTournament", usage: "StartTournament <tournament>", adminOnly: true, arity: 1, run: d.startTournament},
		&command{name: "AddMatch", usage: "AddMatch <tournament> <match> [team1 players...] [team2 players...]", adminOnly: true, arity: -1, run: d.addMatch},
		&command{name: "StartMatch", usage: "StartMatch <tournament> <match>", adminOnly: true, arity: 2, run: d.startMatch},
		&command{name: "RemoveMatch", usage: "RemoveMatch <tournament> <match>", adminOnly: true, arity: 2, run: d.removeMatch},
		&command{name: "AddBetter", usage: "AddBetter <tournament> <better> <initial balance>", adminOnly: true, arity: 3, run: d.addBetter},
		&command{name: "DeclareMatchWinner", usage: "DeclareMatchWinner <tournament> <match> <team>", adminOnly: true, arity: 3, run: d.declareMatchWinner},
		&command{name: "AddBet", usage: "AddBet <tournament> <better> <match> <amount> <team>", arity: 5, run: d.addBet},
		&command{name: "Matches", usage: "Matches <tournament>", arity: 1, run: d.matches},
		&command{name: "Balance", usage: "Balance <tournament> <better>", arity: 2, run: d.balance},
		&command{name: "Leaderboard", usage: "Leaderboard <tournament>", arity: 1, run: d.leaderBoard},
		&command{name: "Info", usage: "Info", arity: 0, run: d.info},
		&command{name: "Help", usage: "Help", arity: 0, run: d.help},
	)
	return d
}

func (d *Dispatcher) register(cmds ...*command) {
	if d.commands == nil {
		d.commands = make(map[string]*command, len(cmds))
	}
	for _, c := range cmds {
		d.commands[strings.ToLower(c.name)] = c
	}
}

// Execute runs one command line and always returns the reply text.
func (d *Dispatcher) Execute(ctx context.Context, caller Caller, text string) string {
	tokens, err := Tokenize(text)
	if err != nil {
		return "Error: " + err.Error()
	}
	if len(tokens) == 0 {
		return "No command given. Type Help for the list of commands."
	}

	cmd, ok := d.commands[strings.ToLower(tokens[0])]
	if !ok {
		return fmt.Sprintf("Unknown command %q. Type Help for the list of commands.", tokens[0])
	}
	if cmd.adminOnly && !caller.IsAdmin {
		return MissingRoleReply
	}

	args := tokens[1:]
	if cmd.arity >= 0 && len(args) != cmd.arity {
		return fmt.Sprintf("Incorrect arguments given, needed %d, given %d", cmd.arity, len(args))
	}

	reply, err := cmd.run(ctx, args)
	if err != nil {
		d.logger.DebugContext(ctx, "Command failed",
			slog.String("command", cmd.name),
			slog.String("caller", caller.Name),
			slog.Any("error", err),
		)
		return "Error: " + err.Error()
	}
	return reply
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", errInvalidNumber, s)
	}
	return amount, nil
}

func parseTeamNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errInvalidNumber, s)
	}
	return n, nil
}

func (d *Dispatcher) truncate(ctx context.Context, args []string) (string, error) {
	if err := d.betting.TruncateDatabase(ctx); err != nil {
		return "", err
	}
	return "Database truncated", nil
}

func (d *Dispatcher) startTournament(ctx context.Context, args []string) (string, error) {
	if err := d.betting.StartNewTournament(ctx, args[0]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Started new tournament %q", args[0]), nil
}

// addMatch: после турнира и матча идут игроки, первая половина - команда 1.
func (d *Dispatcher) addMatch(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return fmt.Sprintf("Incorrect arguments given, needed at least 2, given %d", len(args)), nil
	}
	players := args[2:]
	if len(players)%2 != 0 {
		return "Incorrect arguments given, needed at least 2, plus balanced teams", nil
	}
	half := len(players) / 2
	team1, team2 := players[:half], players[half:]

	if err := d.betting.AddMatch(ctx, args[0], args[1], team1, team2); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added new match in tournament %q called %q", args[0], args[1]), nil
}

func (d *Dispatcher) startMatch(ctx context.Context, args []string) (string, error) {
	if err := d.betting.StartMatch(ctx, args[0], args[1]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Started new match in tournament %q called %q", args[0], args[1]), nil
}

func (d *Dispatcher) removeMatch(ctx context.Context, args []string) (string, error) {
	if err := d.betting.RemoveMatch(ctx, args[0], args[1]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Removed match from tournament %q called %q", args[0], args[1]), nil
}

func (d *Dispatcher) addBetter(ctx context.Context, args []string) (string, error) {
	initial, err := parseAmount(args[2])
	if err != nil {
		return "", err
	}
	if err := d.betting.AddBetter(ctx, args[0], args[1], initial); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added better %q to tournament %q with initial balance of %q", args[1], args[0], money(initial)), nil
}

func (d *Dispatcher) declareMatchWinner(ctx context.Context, args []string) (string, error) {
	team, err := parseTeamNumber(args[2])
	if err != nil {
		return "", err
	}
	result, err := d.betting.DeclareMatchWinner(ctx, args[0], args[1], team)
	if err != nil {
		return "", err
	}
	return formatMatchResult(result), nil
}

func (d *Dispatcher) addBet(ctx context.Context, args []string) (string, error) {
	tournament, better, match := args[0], args[1], args[2]
	amount, err := parseAmount(args[3])
	if err != nil {
		return "", err
	}
	team, err := parseTeamNumber(args[4])
	if err != nil {
		return "", err
	}

	if err := d.betting.AddBet(ctx, tournament, better, match, amount, team); err != nil {
		return "", err
	}

	// Состав команды нужен только для текста ответа; ставка уже принята.
	roster := ""
	if players, err := d.betting.GetPlayersByMatch(ctx, tournament, match); err == nil {
		names := make([]string, 0, len(players))
		for _, p := range players {
			if p.TeamNumber == team {
				names = append(names, p.Name)
			}
		}
		roster = " (" + joinNames(names) + ")"
	}

	return fmt.Sprintf("Added %q bet from better %q to tournament %q match %s for team %d%s",
		money(amount), better, tournament, match, team, roster), nil
}

func (d *Dispatcher) matches(ctx context.Context, args []string) (string, error) {
	matches, err := d.betting.GetMatches(ctx, args[0])
	if err != nil {
		return "", err
	}
	return formatMatches(args[0], matches), nil
}

func (d *Dispatcher) balance(ctx context.Context, args []string) (string, error) {
	better, err := d.betting.GetBetterInfo(ctx, args[0], args[1])
	if err != nil {
		return "", err
	}
	return formatBetter(better), nil
}

func (d *Dispatcher) leaderBoard(ctx context.Context, args []string) (string, error) {
	betters, err := d.betting.GetLeaderBoard(ctx, args[0])
	if err != nil {
		return "", err
	}
	return formatLeaderBoard(betters), nil
}

func (d *Dispatcher) info(ctx context.Context, args []string) (string, error) {
	return fmt.Sprintf("Hello, I am a bot called %s. Type Help for the list of commands.", d.botName), nil
}

func (d *Dispatcher) help(ctx context.Context, args []string) (string, error) {
	cmds := make([]*command, 0, len(d.commands))
	for _, c := range d.commands {
		cmds = append(cmds, c)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].name < cmds[j].name })

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, c := range cmds {
		b.WriteString(CommandPrefix + c.usage)
		if c.adminOnly {
			b.WriteString(" (admin)")
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
