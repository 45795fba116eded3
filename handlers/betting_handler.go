package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-betting/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type BettingHandler struct {
	bettingService services.BettingService
	exportService  services.ExportService
}

func NewBettingHandler(bettingService services.BettingService, exportService services.ExportService) *BettingHandler {
	return &BettingHandler{
		bettingService: bettingService,
		exportService:  exportService,
	}
}

func (h *BettingHandler) StartTournament(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.bettingService.StartNewTournament(r.Context(), input.Name); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": input.Name}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BettingHandler) AddMatch(w http.ResponseWriter, r *http.Request) {
	tournament := chi.URLParam(r, "tournament")
	var input struct {
		Name  string   `json:"name"`
		Team1 []string `json:"team1"`
		Team2 []string `json:"team2"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.bettingService.AddMatch(r.Context(), tournament, input.Name, input.Team1, input.Team2); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	players, err := h.bettingService.GetPlayersByMatch(r.Context(), tournament, input.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": input.Name, "players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BettingHandler) StartMatch(w http.ResponseWriter, r *http.Request) {
	tournament, match := chi.URLParam(r, "tournament"), chi.URLParam(r, "match")

	if err := h.bettingService.StartMatch(r.Context(), tournament, match); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BettingHandler) DeclareMatchWinner(w http.ResponseWriter, r *http.Request) {
	tournament, match := chi.URLParam(r, "tournament"), chi.URLParam(r, "match")
	var input struct {
		TeamNumber int `json:"team_number"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bettingService.DeclareMatchWinner(r.Context(), tournament, match, input.TeamNumber)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BettingHandler) RemoveMatch(w http.ResponseWriter, r *http.Request) {
	tournament, match := chi.URLParam(r, "tournament"), chi.URLParam(r, "match")

	if err := h.bettingService.RemoveMatch(r.Context(), tournament, match); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BettingHandler) AddBetter(w http.ResponseWriter, r *http.Request) {
	tournament := chi.URLParam(r, "tournament")
	var input struct {
		Name           string           `json:"name"`
		InitialBalance *decimal.Decimal `json:"initial_balance"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.InitialBalance == nil {
		badRequestResponse(w, r, errors.New("initial_balance is required"))
		return
	}

	if err := h.bettingService.AddBetter(r.Context(), tournament, input.Name, *input.InitialBalance); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	better, err := h.bettingService.GetBetterInfo(r.Context(), tournament, input.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"better": better}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BettingHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	tournament := chi.URLParam(r, "tournament")
	var input struct {
		Better     string           `json:"better"`
		Match      string           `json:"match"`
		Amount     *decimal.Decimal `json:"amount"`
		TeamNumber int              `json:"team_number"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Amount == nil {
		badRequestResponse(w, r, errors.New("amount is required"))
		return
	}

	if err := h.bettingService.AddBet(r.Context(), tournament, input.Better, input.Match, *input.Amount, input.TeamNumber); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	balance, err := h.bettingService.GetBalance(r.Context(), tournament, input.Better)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"balance": balance}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BettingHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.bettingService.GetMatches(r.Context(), chi.URLParam(r, "tournament"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BettingHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.bettingService.GetPlayersByMatch(r.Context(), chi.URLParam(r, "tournament"), chi.URLParam(r, "match"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BettingHandler) LeaderBoard(w http.ResponseWriter, r *http.Request) {
	betters, err := h.bettingService.GetLeaderBoard(r.Context(), chi.URLParam(r, "tournament"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": betters}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BettingHandler) GetBetter(w http.ResponseWriter, r *http.Request) {
	better, err := h.bettingService.GetBetterInfo(r.Context(), chi.URLParam(r, "tournament"), chi.URLParam(r, "better"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	response := jsonResponse{
		"better":           better,
		"won_bets":         better.WonBetsCount(),
		"lost_bets":        better.LostBetsCount(),
		"outstanding_bets": better.OutstandingBetsCount(),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BettingHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.bettingService.GetBalance(r.Context(), chi.URLParam(r, "tournament"), chi.URLParam(r, "better"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"balance": balance}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BettingHandler) ExportLeaderBoard(w http.ResponseWriter, r *http.Request) {
	result, err := h.exportService.ExportLeaderBoard(r.Context(), chi.URLParam(r, "tournament"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"export": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BettingHandler) Truncate(w http.ResponseWriter, r *http.Request) {
	if err := h.bettingService.TruncateDatabase(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
