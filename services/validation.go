package services

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/Dosada05/tournament-betting/models"
	"github.com/shopspring/decimal"
)

const maxNameLength = 254

var (
	minBetAmount = decimal.New(1, -2)
	// maxAmount ограничивает ставки и начальные балансы четвертью int64 в центах,
	// чтобы выплата 2x и отмена выплаты не переполняли хранилище.
	maxAmount = decimal.New(math.MaxInt64/4, -2)
)

// validateName проверяет длину в символах, а не в байтах.
func validateName(name string, sentinel error) error {
	n := utf8.RuneCountInString(name)
	if n < 1 || n > maxNameLength {
		return fmt.Errorf("%w: %q", sentinel, name)
	}
	return nil
}

func validateTeamNumber(teamNumber int) error {
	if teamNumber != models.TeamOne && teamNumber != models.TeamTwo {
		return fmt.Errorf("%w: %d", ErrInvalidTeamNumber, teamNumber)
	}
	return nil
}

// hasAtMostTwoDecimals is true when the amount is a whole number of cents.
func hasAtMostTwoDecimals(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(2))
}

func validateBetAmount(amount decimal.Decimal) error {
	if amount.LessThan(minBetAmount) || amount.GreaterThan(maxAmount) || !hasAtMostTwoDecimals(amount) {
		return fmt.Errorf("%w: %s", ErrInvalidBetAmount, amount.String())
	}
	return nil
}

func validateInitialAmount(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.GreaterThan(maxAmount) || !hasAtMostTwoDecimals(amount) {
		return fmt.Errorf("%w: %s", ErrInvalidInitialAmount, amount.String())
	}
	return nil
}
