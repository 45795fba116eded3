package services

import "errors"

// Общие ошибки сервисов; маппинг в HTTP-коды лежит в handlers/helpers.go.
var (
	// Ошибки валидации входных данных
	ErrInvalidTournamentName = errors.New("invalid tournament name")
	ErrInvalidMatchName      = errors.New("invalid match name")
	ErrInvalidPlayerName     = errors.New("invalid player name")
	ErrInvalidBetterName     = errors.New("invalid better name")
	ErrInvalidTeamNumber     = errors.New("invalid team number")
	ErrInvalidBetAmount      = errors.New("invalid bet amount")
	ErrInvalidInitialAmount  = errors.New("invalid initial amount")

	// Ошибки существования
	ErrTournamentAlreadyExists = errors.New("tournament already exists")
	ErrMatchAlreadyExists      = errors.New("match already exists")
	ErrBetterAlreadyExists     = errors.New("better already exists")
	ErrTournamentDoesNotExist  = errors.New("tournament does not exist")
	ErrMatchDoesNotExist       = errors.New("match does not exist")
	ErrBetterDoesNotExist      = errors.New("better does not exist")

	// Ошибки состояния
	ErrMatchNotWaitingToStart = errors.New("match is not waiting to start")
	ErrMatchNotRunning        = errors.New("match is not running")
	ErrInsufficientFunds      = errors.New("insufficient funds")

	// Аутентификация и экспорт
	ErrAuthInvalidCredentials = errors.New("invalid username or password")
	ErrExportDisabled         = errors.New("leaderboard export is not configured")
)
