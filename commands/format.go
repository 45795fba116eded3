package commands

import (
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-betting/models"
	"github.com/Dosada05/tournament-betting/utils"
	"github.com/shopspring/decimal"
)

func money(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

func statusLabel(status models.MatchStatus) string {
	switch status {
	case models.MatchStatusWaitingToStart:
		return "WaitingToStart"
	case models.MatchStatusRunning:
		return "Running"
	case models.MatchStatusFinished:
		return "Finished"
	default:
		return string(status)
	}
}

func joinNames(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, utils.QuoteIfSpaced(name))
	}
	return strings.Join(quoted, ",")
}

func playerNames(players []models.Player) []string {
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}
	return names
}

func formatMatches(tournamentName string, matches []*models.Match) string {
	if len(matches) == 0 {
		return fmt.Sprintf("There are no matches for tournament %q", tournamentName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current matches for tournament %q:\n", tournamentName)
	for _, m := range matches {
		winning := "N/A"
		if m.WinningTeamNumber != nil {
			winning = fmt.Sprint(*m.WinningTeamNumber)
		}
		fmt.Fprintf(&b, "Name: %s,\tStatus:%s,\tTeam1: %s,\tTeam2: %s,\tWinningTeam: %s\n",
			m.Name, statusLabel(m.Status), joinNames(playerNames(m.Team1)), joinNames(playerNames(m.Team2)), winning)
	}
	return b.String()
}

func formatBetter(better *models.Better) string {
	return fmt.Sprintf("Better %q has balance of %s. They have won %d bets, lost %d bets and have %d bets outstanding.",
		better.Name, money(better.Balance), better.WonBetsCount(), better.LostBetsCount(), better.OutstandingBetsCount())
}

func formatLeaderBoard(betters []*models.Better) string {
	var b strings.Builder
	b.WriteString("Current leaderboard:\n")
	for i, better := range betters {
		fmt.Fprintf(&b, "%d. %s\n", i+1, formatBetter(better))
	}
	return b.String()
}

// formatMatchResult перечисляет выигравших и проигравших; участник со ставками
// на обе команды попадает в оба списка.
func formatMatchResult(result *models.MatchResult) string {
	winningBets := result.WinningBets()
	losingBets := result.LosingBets()

	var winners, losers []models.Better
	for _, better := range result.MatchBetters {
		if models.TotalStakeOf(winningBets, better.ID).IsPositive() {
			winners = append(winners, better)
		}
		if models.TotalStakeOf(losingBets, better.ID).IsPositive() {
			losers = append(losers, better)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Congratulations to %s for winning match %q\n", joinNames(result.WinningPlayers), result.MatchName)

	if len(winners) > 0 {
		b.WriteString("Bet winners:\n")
		for _, better := range winners {
			total := models.TotalStakeOf(winningBets, better.ID)
			fmt.Fprintf(&b, "Better %s bet a total of %s and won %s, new balance: %s\n",
				better.Name, money(total), money(total.Mul(decimal.NewFromInt(2))), money(better.Balance))
		}
	}
	if len(winners) > 0 && len(losers) > 0 {
		b.WriteString("\n")
	}
	if len(losers) > 0 {
		b.WriteString("Bet losers:\n")
		for _, better := range losers {
			total := models.TotalStakeOf(losingBets, better.ID)
			fmt.Fprintf(&b, "Better %s bet and lost a total of %s, new balance: %s\n",
				better.Name, money(total), money(better.Balance))
		}
	}
	return b.String()
}
