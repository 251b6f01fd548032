package bracket

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending    MatchStatus = "pending"
	MatchInProgress MatchStatus = "in_progress"
	MatchFinished   MatchStatus = "finished"
	MatchCancelled  MatchStatus = "cancelled"
)

// Legal status moves. Finished and cancelled go back to in_progress only
// through an explicit reopen.
var transitions = map[MatchStatus][]MatchStatus{
	MatchPending:    {MatchInProgress, MatchCancelled},
	MatchInProgress: {MatchFinished, MatchCancelled},
	MatchFinished:   {MatchInProgress},
	MatchCancelled:  {MatchInProgress},
}

func CanTransition(from, to MatchStatus) bool {
	return slices.Contains(transitions[from], to)
}

type Slot string

const (
	SlotA Slot = "A"
	SlotB Slot = "B"
)

func (s Slot) Other() Slot {
	if s == SlotA {
		return SlotB
	}
	return SlotA
}

type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`

	TeamAID *uuid.UUID `db:"team_a_id" json:"team_a_id,omitempty"`
	TeamBID *uuid.UUID `db:"team_b_id" json:"team_b_id,omitempty"`

	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	RefereeID   *uuid.UUID `db:"referee_id" json:"referee_id,omitempty"`

	// Position in the bracket
	Round          RoundName `db:"round" json:"round"`
	SequenceNumber int       `db:"sequence_number" json:"sequence_number"`

	Status   MatchStatus `db:"status" json:"status"`
	WinnerID *uuid.UUID  `db:"winner_id" json:"winner_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"-"`
}

func (m *Match) SlotTeam(slot Slot) *uuid.UUID {
	if slot == SlotA {
		return m.TeamAID
	}
	return m.TeamBID
}

func (m *Match) SetSlot(slot Slot, teamID *uuid.UUID) {
	if slot == SlotA {
		m.TeamAID = teamID
	} else {
		m.TeamBID = teamID
	}
}

// Ready reports whether both teams are known. No byes: a match missing a team
// can neither start nor finish.
func (m *Match) Ready() bool {
	return m.TeamAID != nil && m.TeamBID != nil
}

// SlotOf returns the slot holding teamID.
func (m *Match) SlotOf(teamID uuid.UUID) (Slot, bool) {
	switch {
	case m.TeamAID != nil && *m.TeamAID == teamID:
		return SlotA, true
	case m.TeamBID != nil && *m.TeamBID == teamID:
		return SlotB, true
	}
	return "", false
}

func (m *Match) IsWinner(teamID uuid.UUID) bool {
	return m.Status == MatchFinished && m.WinnerID != nil && *m.WinnerID == teamID
}

type Result struct {
	MatchID    uuid.UUID `db:"match_id" json:"match_id"`
	GoalsA     int       `db:"goals_a" json:"goals_a"`
	GoalsB     int       `db:"goals_b" json:"goals_b"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// WinningSlot is the slot of the higher scorer. ok is false on a tie.
func (r *Result) WinningSlot() (Slot, bool) {
	switch {
	case r.GoalsA > r.GoalsB:
		return SlotA, true
	case r.GoalsB > r.GoalsA:
		return SlotB, true
	}
	return "", false
}

type EventKind string

const (
	EventGoal       EventKind = "goal"
	EventYellowCard EventKind = "yellow_card"
	EventRedCard    EventKind = "red_card"
)

type Event struct {
	ID        uuid.UUID `db:"id" json:"id"`
	MatchID   uuid.UUID `db:"match_id" json:"match_id"`
	PlayerID  uuid.UUID `db:"player_id" json:"player_id"`
	Kind      EventKind `db:"kind" json:"kind"`
	Minute    *int      `db:"minute" json:"minute,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}
