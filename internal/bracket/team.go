package bracket

import (
	"time"

	"github.com/google/uuid"
)

// MinRosterSize is the smallest squad allowed to enter a tournament.
const MinRosterSize = 7

type Team struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Season     string    `db:"season" json:"season"`
	Color      string    `db:"color" json:"color"`
	EmblemPath *string   `db:"emblem_path" json:"emblem_path,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"-"`
}

type Position string

const (
	Goalkeeper Position = "goalkeeper"
	Defender   Position = "defender"
	Midfielder Position = "midfielder"
	Forward    Position = "forward"
)

type Player struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	TeamID      *uuid.UUID `db:"team_id" json:"team_id,omitempty"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	Season      string     `db:"season" json:"season"`
	Position    Position   `db:"position" json:"position"`
	ShirtNumber *int       `db:"shirt_number" json:"shirt_number,omitempty"`
	IsCaptain   bool       `db:"is_captain" json:"is_captain"`
	Goals       int        `db:"goals" json:"goals"`
	YellowCards int        `db:"yellow_cards" json:"yellow_cards"`
	RedCards    int        `db:"red_cards" json:"red_cards"`
	CreatedAt   time.Time  `db:"created_at" json:"-"`
}

type Referee struct {
	ID              uuid.UUID `db:"id" json:"id"`
	FirstName       string    `db:"first_name" json:"first_name"`
	LastName        string    `db:"last_name" json:"last_name"`
	ExperienceYears int       `db:"experience_years" json:"experience_years"`
	Category        string    `db:"category" json:"category"`
	CreatedAt       time.Time `db:"created_at" json:"-"`
}

func (r *Referee) FullName() string {
	return r.FirstName + " " + r.LastName
}
