package bracket

import (
	"github.com/cockroachdb/errors"
)

// Tree is the full elimination bracket of one tournament. Every position
// exists up front; a nil slot means the match has not been materialized yet,
// which is different from a match that exists with an empty team slot.
type Tree struct {
	Size   int         `json:"size"`
	Rounds []TreeRound `json:"rounds"`
}

type TreeRound struct {
	Name    RoundName `json:"name"`
	Matches []*Match  `json:"matches"` // index i holds sequence number i+1
}

// BuildTree places matches at (round, sequence number). Matches outside the
// canonical shape or sharing a position are integrity errors.
func BuildTree(size int, matches []Match) (*Tree, error) {
	rounds, err := RoundsFor(size)
	if err != nil {
		return nil, err
	}

	tree := &Tree{Size: size, Rounds: make([]TreeRound, len(rounds))}
	for i, name := range rounds {
		tree.Rounds[i] = TreeRound{Name: name, Matches: make([]*Match, MatchesInRound(size, i))}
	}

	for i := range matches {
		m := &matches[i]
		idx, err := RoundIndex(size, m.Round)
		if err != nil {
			return nil, err
		}
		slots := tree.Rounds[idx].Matches
		if m.SequenceNumber < 1 || m.SequenceNumber > len(slots) {
			return nil, errors.Wrapf(ErrIntegrity, "%s match #%d is outside 1..%d", m.Round, m.SequenceNumber, len(slots))
		}
		if slots[m.SequenceNumber-1] != nil {
			return nil, errors.Wrapf(ErrIntegrity, "two matches claim %s #%d", m.Round, m.SequenceNumber)
		}
		slots[m.SequenceNumber-1] = m
	}

	return tree, nil
}

// At returns the match at a position, or nil if it does not exist yet.
func (t *Tree) At(round RoundName, seq int) *Match {
	for _, r := range t.Rounds {
		if r.Name != round {
			continue
		}
		if seq < 1 || seq > len(r.Matches) {
			return nil
		}
		return r.Matches[seq-1]
	}
	return nil
}

// Champion is the winner of a finished final.
func (t *Tree) Champion() *Match {
	if len(t.Rounds) == 0 {
		return nil
	}
	final := t.Rounds[len(t.Rounds)-1].Matches[0]
	if final == nil || final.Status != MatchFinished || final.WinnerID == nil {
		return nil
	}
	return final
}
