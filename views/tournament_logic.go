package views

import (
	"fmt"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/AdamBeresnev/school-cup/internal/emblem"
	"github.com/AdamBeresnev/school-cup/internal/service"
	"github.com/google/uuid"
)

// BracketView is the tournament tree flattened into what the page prints.
type BracketView struct {
	Title    string
	Status   bracket.TournamentStatus
	Rounds   []RoundView
	Champion *SideView
}

type RoundView struct {
	Label string
	Cards []MatchCard
}

type MatchCard struct {
	MatchID  string // empty while the match does not exist yet
	Sequence int
	Status   bracket.MatchStatus
	Home     SideView
	Away     SideView
}

type SideView struct {
	Name      string
	Color     string
	EmblemURL string
	Winner    bool
}

// PrepareBracketData lays out every position of every round, including the
// ones no match has reached yet.
func PrepareBracketData(data *service.BracketData) BracketView {
	view := BracketView{
		Title:  fmt.Sprintf("%s (%d teams)", data.Tournament.Name, data.Tournament.TeamCount),
		Status: data.Tournament.Status,
		Rounds: make([]RoundView, len(data.Tree.Rounds)),
	}

	for i, round := range data.Tree.Rounds {
		cards := make([]MatchCard, len(round.Matches))
		for j, m := range round.Matches {
			cards[j] = MatchCard{Sequence: j + 1, Status: bracket.MatchPending}
			if m == nil {
				cards[j].Home = SideView{Name: data.TeamName(nil)}
				cards[j].Away = SideView{Name: data.TeamName(nil)}
				continue
			}
			cards[j].MatchID = m.ID.String()
			cards[j].Status = m.Status
			cards[j].Home = side(data, m.TeamAID, m)
			cards[j].Away = side(data, m.TeamBID, m)
		}
		view.Rounds[i] = RoundView{Label: round.Name.Label(), Cards: cards}
	}

	if final := data.Tree.Champion(); final != nil {
		champion := side(data, final.WinnerID, final)
		view.Champion = &champion
	}
	return view
}

func side(data *service.BracketData, teamID *uuid.UUID, m *bracket.Match) SideView {
	s := SideView{Name: data.TeamName(teamID)}
	if teamID == nil {
		return s
	}
	if team, ok := data.Teams[*teamID]; ok {
		s.Color = team.Color
		s.EmblemURL = emblem.URL(team.EmblemPath)
	}
	s.Winner = m.Status == bracket.MatchFinished && m.IsWinner(*teamID)
	return s
}
