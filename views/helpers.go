package views

import "github.com/AdamBeresnev/school-cup/internal/bracket"

func statusLabel(s bracket.MatchStatus) string {
	switch s {
	case bracket.MatchInProgress:
		return "In play"
	case bracket.MatchFinished:
		return "Finished"
	case bracket.MatchCancelled:
		return "Cancelled"
	}
	return "Pending"
}

func sideClass(s SideView) string {
	if s.Winner {
		return "side winner"
	}
	return "side"
}
