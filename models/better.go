package models

import "github.com/shopspring/decimal"

// Better - участник тотализатора внутри турнира.
type Better struct {
	ID           int64           `json:"id" db:"id"`
	TournamentID int64           `json:"tournament_id" db:"tournament_id"`
	Name         string          `json:"name" db:"name"`
	Balance      decimal.Decimal `json:"balance" db:"balance_cents"`

	Bets []Bet `json:"bets,omitempty" db:"-"`
}

func (b *Better) WonBetsCount() int {
	n := 0
	for _, bet := range b.Bets {
		if bet.Won != nil && *bet.Won {
			n++
		}
	}
	return n
}

func (b *Better) LostBetsCount() int {
	n := 0
	for _, bet := range b.Bets {
		if bet.Won != nil && !*bet.Won {
			n++
		}
	}
	return n
}

func (b *Better) OutstandingBetsCount() int {
	n := 0
	for _, bet := range b.Bets {
		if !bet.IsSettled() {
			n++
		}
	}
	return n
}
