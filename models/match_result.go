package models

import "github.com/shopspring/decimal"

// MatchResult summarizes a settled match for display: the bets on it and the
// betters involved, with balances as they stand after settlement.
type MatchResult struct {
	MatchID           int64    `json:"match_id"`
	MatchName         string   `json:"match_name"`
	WinningTeamNumber int      `json:"winning_team_number"`
	WinningPlayers    []string `json:"winning_players"`
	Bets              []Bet    `json:"bets"`
	MatchBetters      []Better `json:"match_betters"`
}

func (r *MatchResult) WinningBets() []Bet {
	return r.filterBets(true)
}

func (r *MatchResult) LosingBets() []Bet {
	return r.filterBets(false)
}

func (r *MatchResult) filterBets(won bool) []Bet {
	bets := make([]Bet, 0, len(r.Bets))
	for _, bet := range r.Bets {
		if bet.IsSettled() && *bet.Won == won {
			bets = append(bets, bet)
		}
	}
	return bets
}

// TotalStakeOf sums the amounts of the given bets placed by one better.
func TotalStakeOf(bets []Bet, betterID int64) decimal.Decimal {
	total := decimal.Zero
	for _, bet := range bets {
		if bet.BetterID == betterID {
			total = total.Add(bet.Amount)
		}
	}
	return total
}
