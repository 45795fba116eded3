package models

import "github.com/shopspring/decimal"

type Bet struct {
	ID         int64           `json:"id" db:"id"`
	BetterID   int64           `json:"better_id" db:"better_id"`
	MatchID    int64           `json:"match_id" db:"match_id"`
	Amount     decimal.Decimal `json:"amount" db:"amount_cents"`
	TeamNumber int             `json:"team_number" db:"team_number"`
	// Won is nil until the match is settled.
	Won *bool `json:"won,omitempty" db:"won"`

	// Заполняются при выборке с JOIN
	BetterName string `json:"better_name,omitempty" db:"-"`
	MatchName  string `json:"match_name,omitempty" db:"-"`
}

func (b *Bet) IsSettled() bool {
	return b.Won != nil
}
