package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-betting/models"
	"github.com/Dosada05/tournament-betting/realtime"
	"github.com/Dosada05/tournament-betting/repositories"
	"github.com/shopspring/decimal"
)

type BettingService interface {
	StartNewTournament(ctx context.Context, tournamentName string) error
	AddMatch(ctx context.Context, tournamentName, matchName string, team1, team2 []string) error
	StartMatch(ctx context.Context, tournamentName, matchName string) error
	RemoveMatch(ctx context.Context, tournamentName, matchName string) error
	DeclareMatchWinner(ctx context.Context, tournamentName, matchName string, teamNumber int) (*models.MatchResult, error)
	AddBetter(ctx context.Context, tournamentName, betterName string, initialBalance decimal.Decimal) error
	AddBet(ctx context.Context, tournamentName, betterName, matchName string, amount decimal.Decimal, teamNumber int) error
	GetBalance(ctx context.Context, tournamentName, betterName string) (decimal.Decimal, error)
	GetBetterInfo(ctx context.Context, tournamentName, betterName string) (*models.Better, error)
	GetMatches(ctx context.Context, tournamentName string) ([]*models.Match, error)
	GetPlayersByMatch(ctx context.Context, tournamentName, matchName string) ([]*models.Player, error)
	GetLeaderBoard(ctx context.Context, tournamentName string) ([]*models.Better, error)
	TruncateDatabase(ctx context.Context) error
}

// EventBroadcaster рассылает события в комнату турнира. Реализуется realtime.Hub.
type EventBroadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

type bettingService struct {
	repo        repositories.BettingRepository
	broadcaster EventBroadcaster
	logger      *slog.Logger
}

// NewBettingService accepts a nil broadcaster; events are then not published.
func NewBettingService(repo repositories.BettingRepository, broadcaster EventBroadcaster, logger *slog.Logger) BettingService {
	return &bettingService{
		repo:        repo,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// inTx выполняет fn в одной транзакции: ошибка или паника откатывают ее, иначе коммит.
func (s *bettingService) inTx(ctx context.Context, fn func(tx repositories.BettingTx) error) (txErr error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.ErrorContext(ctx, "Error during rollback", slog.Any("error", rbErr), slog.Any("original_error", txErr))
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	return fn(tx)
}

func (s *bettingService) publish(tournamentName, eventType string, payload interface{}) {
	if s.broadcaster == nil {
		return
	}
	room := realtime.TournamentRoom(tournamentName)
	s.broadcaster.BroadcastToRoom(room, realtime.Message{Type: eventType, Payload: payload, RoomID: room})
}

func (s *bettingService) StartNewTournament(ctx context.Context, tournamentName string) error {
	if err := validateName(tournamentName, ErrInvalidTournamentName); err != nil {
		return err
	}

	tournament := &models.Tournament{Name: tournamentName}
	err := s.inTx(ctx, func(tx repositories.BettingTx) error {
		existing, err := tx.GetTournamentByName(ctx, tournamentName)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %q", ErrTournamentAlreadyExists, tournamentName)
		}
		if err := tx.InsertTournament(ctx, tournament); err != nil {
			if errors.Is(err, repositories.ErrUniqueViolation) {
				return fmt.Errorf("%w: %q", ErrTournamentAlreadyExists, tournamentName)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Tournament started", slog.String("tournament", tournamentName))
	s.publish(tournamentName, realtime.EventTournamentStarted, tournament)
	return nil
}

func (s *bettingService) AddMatch(ctx context.Context, tournamentName, matchName string, team1, team2 []string) error {
	if err := validateName(tournamentName, ErrInvalidTournamentName); err != nil {
		return err
	}
	if err := validateName(matchName, ErrInvalidMatchName); err != nil {
		return err
	}
	for _, team := range [][]string{team1, team2} {
		for _, player := range team {
			if err := validateName(player, ErrInvalidPlayerName); err != nil {
				return err
			}
		}
	}

	var match *models.Match
	err := s.inTx(ctx, func(tx repositories.BettingTx) error {
		tournament, err := requireTournament(ctx, tx, tournamentName)
		if err != nil {
			return err
		}

		existing, err := tx.GetMatchByName(ctx, tournament.ID, matchName)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %q", ErrMatchAlreadyExists, matchName)
		}

		match = &models.Match{
			TournamentID: tournament.ID,
			Name:         matchName,
			Status:       models.MatchStatusWaitingToStart,
		}
		if err := tx.InsertMatch(ctx, match); err != nil {
			if errors.Is(err, repositories.ErrUniqueViolation) {
				return fmt.Errorf("%w: %q", ErrMatchAlreadyExists, matchName)
			}
			return err
		}

		players := make([]*models.Player, 0, len(team1)+len(team2))
		for _, name := range team1 {
			players = append(players, &models.Player{MatchID: match.ID, Name: name, TeamNumber: models.TeamOne})
		}
		for _, name := range team2 {
			players = append(players, &models.Player{MatchID: match.ID, Name: name, TeamNumber: models.TeamTwo})
		}
		if err := tx.InsertPlayers(ctx, players); err != nil {
			return err
		}

		match.Team1, match.Team2 = []models.Player{}, []models.Player{}
		for _, p := range players {
			if p.TeamNumber == models.TeamOne {
				match.Team1 = append(match.Team1, *p)
			} else {
				match.Team2 = append(match.Team2, *p)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(tournamentName, realtime.EventMatchAdded, match)
	return nil
}

func (s *bettingService) StartMatch(ctx context.Context, tournamentName, matchName string) error {
	if err := validateName(tournamentName, ErrInvalidTournamentName); err != nil {
		return err
	}
	if err := validateName(matchName, ErrInvalidMatchName); err != nil {
		return err
	}

	var match *models.Match
	err := s.inTx(ctx, func(tx repositories.BettingTx) error {
		tournament, err := requireTournament(ctx, tx, tournamentName)
		if err != nil {
			return err
		}
		match, err = requireMatch(ctx, tx, tournament.ID, matchName)
		if err != nil {
			return err
		}
		if match.Status != models.MatchStatusWaitingToStart {
			return fmt.Errorf("%w: %q", ErrMatchNotWaitingToStart, matchName)
		}
		if err := tx.UpdateMatchStatus(ctx, match.ID, models.MatchStatusRunning); err != nil {
			return err
		}
		match.Status = models.MatchStatusRunning
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(tournamentName, realtime.EventMatchStarted, match)
	return nil
}

// RemoveMatch возвращает ставки и удаляет матч. Если матч уже рассчитан,
// выплата победителям сторнируется, и каждый участник возвращается к балансу до ставки.
func (s *bettingService) RemoveMatch(ctx context.Context, tournamentName, matchName string) error {
	if err := validateName(tournamentName, ErrInvalidTournamentName); err != nil {
		return err
	}
	if err := validateName(matchName, ErrInvalidMatchName); err != nil {
		return err
	}

	var match *models.Match
	err := s.inTx(ctx, func(tx repositories.BettingTx) error {
		tournament, err := requireTournament(ctx, tx, tournamentName)
		if err != nil {
			return err
		}
		match, err = requireMatch(ctx, tx, tournament.ID, matchName)
		if err != nil {
			return err
		}

		bets, err := tx.ListBetsByMatch(ctx, match.ID)
		if err != nil {
			return err
		}

		betterIDs := make([]int64, 0, len(bets))
		amounts := make([]decimal.Decimal, 0, len(bets))
		betIDs := make([]int64, 0, len(bets))
		for _, bet := range bets {
			refund := bet.Amount
			if match.Status == models.MatchStatusFinished && bet.Won != nil && *bet.Won {
				refund = refund.Sub(bet.Amount.Mul(decimal.NewFromInt(2)))
			}
			betterIDs = append(betterIDs, bet.BetterID)
			amounts = append(amounts, refund)
			betIDs = append(betIDs, bet.ID)
		}

		if err := tx.AdjustBetterBalances(ctx, betterIDs, amounts); err != nil {
			return err
		}
		if err := tx.DeleteBetsByIDs(ctx, betIDs); err != nil {
			return err
		}

		players := match.Players()
		playerIDs := make([]int64, 0, len(players))
		for _, p := range players {
			playerIDs = append(playerIDs, p.ID)
		}
		if err := tx.DeletePlayersByIDs(ctx, playerIDs); err != nil {
			return err
		}
		return tx.DeleteMatch(ctx, match.ID)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Match removed",
		slog.String("tournament", tournamentName),
		slog.String("match", matchName),
		slog.String("status", string(match.Status)),
	)
	s.publish(tournamentName, realtime.EventMatchRemoved, match)
	return nil
}

func (s *bettingService) DeclareMatchWinner(ctx context.Context, tournamentName, matchName string, teamNumber int) (*models.MatchResult, error) {
	if err := validateName(tournamentName, ErrInvalidTournamentName); err != nil {
		return nil, err
	}
	if err := validateName(matchName, ErrInvalidMatchName); err != nil {
		return nil, err
	}
	if err := validateTeamNumber(teamNumber); err != nil {
		return nil, err
	}

	var result *models.MatchResult
	err := s.inTx(ctx, func(tx repositories.BettingTx) error {
		tournament, err := requireTournament(ctx, tx, tournamentName)
		if err != nil {
			return err
		}
		match, err := requireMatch(ctx, tx, tournament.ID, matchName)
		if err != nil {
			return err
		}
		if match.Status != models.MatchStatusRunning {
			return fmt.Errorf("%w: %q", ErrMatchNotRunning, matchName)
		}

		if err := tx.UpdateMatchStatus(ctx, match.ID, models.MatchStatusFinished); err != nil {
			return err
		}
		if err := tx.UpdateMatchWinningTeam(ctx, match.ID, teamNumber); err != nil {
			return err
		}

		bets, err := tx.ListBetsByMatch(ctx, match.ID)
		if err != nil {
			return err
		}

		var (
			payoutBetters []int64
			payouts       []decimal.Decimal
			betterIDs     []int64
		)
		seen := make(map[int64]bool, len(bets))
		for _, bet := range bets {
			won := bet.TeamNumber == teamNumber
			bet.Won = &won
			if won {
				payoutBetters = append(payoutBetters, bet.BetterID)
				payouts = append(payouts, bet.Amount.Mul(decimal.NewFromInt(2)))
			}
			if !seen[bet.BetterID] {
				seen[bet.BetterID] = true
				betterIDs = append(betterIDs, bet.BetterID)
			}
		}

		if err := tx.UpdateBetResults(ctx, bets); err != nil {
			return err
		}
		if err := tx.AdjustBetterBalances(ctx, payoutBetters, payouts); err != nil {
			return err
		}

		betters, err := tx.ListBettersByIDs(ctx, betterIDs)
		if err != nil {
			return err
		}

		result = &models.MatchResult{
			MatchID:           match.ID,
			MatchName:         match.Name,
			WinningTeamNumber: teamNumber,
			WinningPlayers:    make([]string, 0, len(match.Team(teamNumber))),
			Bets:              make([]models.Bet, 0, len(bets)),
			MatchBetters:      make([]models.Better, 0, len(betters)),
		}
		for _, p := range match.Team(teamNumber) {
			result.WinningPlayers = append(result.WinningPlayers, p.Name)
		}
		for _, bet := range bets {
			result.Bets = append(result.Bets, *bet)
		}
		for _, better := range betters {
			result.MatchBetters = append(result.MatchBetters, *better)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Match settled",
		slog.String("tournament", tournamentName),
		slog.String("match", matchName),
		slog.Int("winning_team", teamNumber),
		slog.Int("bets", len(result.Bets)),
	)
	s.publish(tournamentName, realtime.EventMatchFinished, result)
	return result, nil
}

func (s *bettingService) AddBetter(ctx context.Context, tournamentName, betterName string, initialBalance decimal.Decimal) error {
	if err := validateName(tournamentName, ErrInvalidTournamentName); err != nil {
		return err
	}
	if err := validateName(betterName, ErrInvalidBetterName); err != nil {
		return err
	}
	if err := validateInitialAmount(initialBalance); err != nil {
		return err
	}

	var better *models.Better
	err := s.inTx(ctx, func(tx repositories.BettingTx) error {
		tournament, err := requireTournament(ctx, tx, tournamentName)
		if err != nil {
			return err
		}
		existing, err := tx.GetBetterByName(ctx, tournament.ID, betterName)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %q", ErrBetterAlreadyExists, betterName)
		}

		better = &models.Better{TournamentID: tournament.ID, Name: betterName, Balance: initialBalance}
		if err := tx.InsertBetter(ctx, better); err != nil {
			if errors.Is(err, repositories.ErrUniqueViolation) {
				return fmt.Errorf("%w: %q", ErrBetterAlreadyExists, betterName)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(tournamentName, realtime.EventBetterAdded, better)
	return nil
}

func (s *bettingService) AddBet(ctx context.Context, tournamentName, betterName, matchName string, amount decimal.Decimal, teamNumber int) error {
	if err := validateName(tournamentName, ErrInvalidTournamentName); err != nil {
		return err
	}
	if err := validateName(betterName, ErrInvalidBetterName); err != nil {
		return err
	}
	if err := validateName(matchName, ErrInvalidMatchName); err != nil {
		return err
	}
	if err := validateBetAmount(amount); err != nil {
		return err
	}
	if err := validateTeamNumber(teamNumber); err != nil {
		return err
	}

	var bet *models.Bet
	err := s.inTx(ctx, func(tx repositories.BettingTx) error {
		tournament, err := requireTournament(ctx, tx, tournamentName)
		if err != nil {
			return err
		}
		match, err := requireMatch(ctx, tx, tournament.ID, matchName)
		if err != nil {
			return err
		}
		if match.Status != models.MatchStatusWaitingToStart {
			return fmt.Errorf("%w: %q", ErrMatchNotWaitingToStart, matchName)
		}
		better, err := requireBetter(ctx, tx, tournament.ID, betterName)
		if err != nil {
			return err
		}
		if better.Balance.LessThan(amount) {
			return fmt.Errorf("%w: %q has %s, bet is %s", ErrInsufficientFunds, betterName, better.Balance.StringFixed(2), amount.StringFixed(2))
		}

		bet = &models.Bet{
			BetterID:   better.ID,
			MatchID:    match.ID,
			Amount:     amount,
			TeamNumber: teamNumber,
			BetterName: better.Name,
			MatchName:  match.Name,
		}
		if err := tx.InsertBet(ctx, bet); err != nil {
			return err
		}
		// Баланс мог измениться после чтения; списание повторно проверяет остаток.
		if err := tx.DebitBetterBalance(ctx, better.ID, amount); err != nil {
			if errors.Is(err, repositories.ErrInsufficientBalance) {
				return fmt.Errorf("%w: %q", ErrInsufficientFunds, betterName)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(tournamentName, realtime.EventBetPlaced, bet)
	return nil
}

func (s *bettingService) GetBalance(ctx context.Context, tournamentName, betterName string) (decimal.Decimal, error) {
	if err := validateName(tournamentName, ErrInvalidTournamentName); err != nil {
		return decimal.Zero, err
	}
	if err := validateName(betterName, ErrInvalidBetterName); err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err := s.inTx(ctx, func(tx repositories.BettingTx) error {
		tournament, err := requireTournament(ctx, tx, tournamentName)
		if err != nil {
			return err
		}
		better, err := requireBetter(ctx, tx, tournament.ID, betterName)
		if err != nil {
			return err
		}
		balance = better.Balance
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (s *bettingService) GetBetterInfo(ctx context.Context, tournamentName, betterName string) (*models.Better, error) {
	if err := validateName(tournamentName, ErrInvalidTournamentName); err != nil {
		return nil, err
	}
	if err := validateName(betterName, ErrInvalidBetterName); err != nil {
		return nil, err
	}

	var better *models.Better
	err := s.inTx(ctx, func(tx repositories.BettingTx) error {
		tournament, err := requireTournament(ctx, tx, tournamentName)
		if err != nil {
			return err
		}
		better, err = requireBetter(ctx, tx, tournament.ID, betterName)
		if err != nil {
			return err
		}
		bets, err := tx.ListBetsByBetter(ctx, better.ID)
		if err != nil {
			return err
		}
		better.Bets = make([]models.Bet, 0, len(bets))
		for _, bet := range bets {
			better.Bets = append(better.Bets, *bet)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return better, nil
}

func (s *bettingService) GetMatches(ctx context.Context, tournamentName string) ([]*models.Match, error) {
	if err := validateName(tournamentName, ErrInvalidTournamentName); err != nil {
		return nil, err
	}

	var matches []*models.Match
	err := s.inTx(ctx, func(tx repositories.BettingTx) error {
		tournament, err := requireTournament(ctx, tx, tournamentName)
		if err != nil {
			return err
		}
		matches, err = tx.ListMatchesByTournament(ctx, tournament.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *bettingService) GetPlayersByMatch(ctx context.Context, tournamentName, matchName string) ([]*models.Player, error) {
	if err := validateName(tournamentName, ErrInvalidTournamentName); err != nil {
		return nil, err
	}
	if err := validateName(matchName, ErrInvalidMatchName); err != nil {
		return nil, err
	}

	var players []*models.Player
	err := s.inTx(ctx, func(tx repositories.BettingTx) error {
		tournament, err := requireTournament(ctx, tx, tournamentName)
		if err != nil {
			return err
		}
		match, err := requireMatch(ctx, tx, tournament.ID, matchName)
		if err != nil {
			return err
		}
		players, err = tx.ListPlayersByMatch(ctx, match.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return players, nil
}

// GetLeaderBoard returns betters by descending balance; equal balances keep
// registration order. Each better carries its bets.
func (s *bettingService) GetLeaderBoard(ctx context.Context, tournamentName string) ([]*models.Better, error) {
	if err := validateName(tournamentName, ErrInvalidTournamentName); err != nil {
		return nil, err
	}

	var betters []*models.Better
	err := s.inTx(ctx, func(tx repositories.BettingTx) error {
		tournament, err := requireTournament(ctx, tx, tournamentName)
		if err != nil {
			return err
		}
		betters, err = tx.ListBettersByTournament(ctx, tournament.ID)
		if err != nil {
			return err
		}
		bets, err := tx.ListBetsByTournament(ctx, tournament.ID)
		if err != nil {
			return err
		}

		byBetter := make(map[int64][]models.Bet, len(betters))
		for _, bet := range bets {
			byBetter[bet.BetterID] = append(byBetter[bet.BetterID], *bet)
		}
		for _, better := range betters {
			if own, ok := byBetter[better.ID]; ok {
				better.Bets = own
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return betters, nil
}

func (s *bettingService) TruncateDatabase(ctx context.Context) error {
	if err := s.repo.Truncate(ctx); err != nil {
		return fmt.Errorf("failed to truncate database: %w", err)
	}
	s.logger.WarnContext(ctx, "Database truncated")
	return nil
}

func requireTournament(ctx context.Context, tx repositories.BettingTx, name string) (*models.Tournament, error) {
	tournament, err := tx.GetTournamentByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if tournament == nil {
		return nil, fmt.Errorf("%w: %q", ErrTournamentDoesNotExist, name)
	}
	return tournament, nil
}

func requireMatch(ctx context.Context, tx repositories.BettingTx, tournamentID int64, name string) (*models.Match, error) {
	match, err := tx.GetMatchByName(ctx, tournamentID, name)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrMatchDoesNotExist, name)
	}
	return match, nil
}

func requireBetter(ctx context.Context, tx repositories.BettingTx, tournamentID int64, name string) (*models.Better, error) {
	better, err := tx.GetBetterByName(ctx, tournamentID, name)
	if err != nil {
		return nil, err
	}
	if better == nil {
		return nil, fmt.Errorf("%w: %q", ErrBetterDoesNotExist, name)
	}
	return better, nil
}
