package models

// MatchStatus представляет статусы матча, соответствующие значениям в колонке matches.status.
type MatchStatus string

const (
	MatchStatusWaitingToStart MatchStatus = "waiting_to_start"
	MatchStatusRunning        MatchStatus = "running"
	MatchStatusFinished       MatchStatus = "finished"
)

const (
	TeamOne = 1
	TeamTwo = 2
)

type Match struct {
	ID                int64       `json:"id" db:"id"`
	TournamentID      int64       `json:"tournament_id" db:"tournament_id"`
	Name              string      `json:"name" db:"name"`
	Status            MatchStatus `json:"status" db:"status"`
	WinningTeamNumber *int        `json:"winning_team_number,omitempty" db:"winning_team_number"`

	Team1 []Player `json:"team1" db:"-"`
	Team2 []Player `json:"team2" db:"-"`
}

// Players returns the roster of team 1 followed by team 2.
func (m *Match) Players() []Player {
	players := make([]Player, 0, len(m.Team1)+len(m.Team2))
	players = append(players, m.Team1...)
	players = append(players, m.Team2...)
	return players
}

// Team returns the roster for the given team number, nil for anything but 1 or 2.
func (m *Match) Team(teamNumber int) []Player {
	switch teamNumber {
	case TeamOne:
		return m.Team1
	case TeamTwo:
		return m.Team2
	default:
		return nil
	}
}

type Player struct {
	ID         int64  `json:"id" db:"id"`
	MatchID    int64  `json:"match_id" db:"match_id"`
	Name       string `json:"name" db:"name"`
	TeamNumber int    `json:"team_number" db:"team_number"`
}
