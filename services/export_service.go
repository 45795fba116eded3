package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-betting/storage"
	"github.com/Dosada05/tournament-betting/utils"
	"github.com/shopspring/decimal"
)

type LeaderBoardEntry struct {
	Rank            int             `json:"rank"`
	Name            string          `json:"name"`
	Balance         decimal.Decimal `json:"balance"`
	WonBets         int             `json:"won_bets"`
	LostBets        int             `json:"lost_bets"`
	OutstandingBets int             `json:"outstanding_bets"`
}

type LeaderBoardSnapshot struct {
	Tournament  string             `json:"tournament"`
	GeneratedAt time.Time          `json:"generated_at"`
	Entries     []LeaderBoardEntry `json:"entries"`
}

type ExportResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ExportService interface {
	ExportLeaderBoard(ctx context.Context, tournamentName string) (*ExportResult, error)
}

type exportService struct {
	betting  BettingService
	uploader storage.FileUploader
	logger   *slog.Logger
	now      func() time.Time
}

// NewExportService accepts a nil uploader; exports then fail with ErrExportDisabled.
func NewExportService(betting BettingService, uploader storage.FileUploader, logger *slog.Logger) ExportService {
	return &exportService{
		betting:  betting,
		uploader: uploader,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *exportService) ExportLeaderBoard(ctx context.Context, tournamentName string) (*ExportResult, error) {
	if s.uploader == nil {
		return nil, ErrExportDisabled
	}

	betters, err := s.betting.GetLeaderBoard(ctx, tournamentName)
	if err != nil {
		return nil, err
	}

	generatedAt := s.now().UTC()
	snapshot := LeaderBoardSnapshot{
		Tournament:  tournamentName,
		GeneratedAt: generatedAt,
		Entries:     make([]LeaderBoardEntry, 0, len(betters)),
	}
	for i, better := range betters {
		snapshot.Entries = append(snapshot.Entries, LeaderBoardEntry{
			Rank:            i + 1,
			Name:            better.Name,
			Balance:         better.Balance,
			WonBets:         better.WonBetsCount(),
			LostBets:        better.LostBetsCount(),
			OutstandingBets: better.OutstandingBetsCount(),
		})
	}

	body, err := json.MarshalIndent(snapshot, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("failed to encode leaderboard snapshot: %w", err)
	}

	key := fmt.Sprintf("leaderboards/%s/%d.json", exportPrefix(tournamentName), generatedAt.Unix())
	uploaded, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to upload leaderboard for %q: %w", tournamentName, err)
	}

	s.logger.InfoContext(ctx, "Leaderboard exported",
		slog.String("tournament", tournamentName),
		slog.String("key", uploaded.Key),
		slog.Int("entries", len(snapshot.Entries)),
	)
	return &ExportResult{Key: uploaded.Key, URL: uploaded.Location}, nil
}

// exportPrefix дополняет slug хешем точного имени: "A B" и "a-b" дают один slug.
func exportPrefix(tournamentName string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tournamentName))
	return fmt.Sprintf("%s-%08x", utils.Slugify(tournamentName), h.Sum32())
}
