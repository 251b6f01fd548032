package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentActive   TournamentStatus = "active"
	TournamentFinished TournamentStatus = "finished"
)

type Tournament struct {
	ID         uuid.UUID        `db:"id" json:"id"`
	Name       string           `db:"name" json:"name"`
	TeamCount  int              `db:"team_count" json:"team_count"`
	Status     TournamentStatus `db:"status" json:"status"`
	StartedAt  time.Time        `db:"started_at" json:"started_at"`
	FinishedAt *time.Time       `db:"finished_at" json:"finished_at,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"-"`
}

func (t *Tournament) IsActive() bool {
	return t.Status == TournamentActive
}

// Stats aggregates what has been played so far in a tournament.
type Stats struct {
	MatchesPlayed int `db:"matches_played" json:"matches_played"`
	TotalGoals    int `db:"total_goals" json:"total_goals"`
	YellowCards   int `db:"yellow_cards" json:"yellow_cards"`
	RedCards      int `db:"red_cards" json:"red_cards"`
}
