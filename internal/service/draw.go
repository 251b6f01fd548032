package service

import (
	"math/rand/v2"
	"slices"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Pairing is one first-round fixture of the draw.
type Pairing struct {
	Sequence int
	TeamA    uuid.UUID
	TeamB    uuid.UUID
}

// GenerateDraw shuffles the teams with rng and pairs them off in order:
// (0,1) is match 1, (2,3) is match 2 and so on. The input is not modified.
func GenerateDraw(teamIDs []uuid.UUID, rng *rand.Rand) ([]Pairing, error) {
	if !bracket.ValidSize(len(teamIDs)) {
		return nil, errors.Wrapf(bracket.ErrValidation, "cannot draw %d teams, need one of %v", len(teamIDs), bracket.AllowedSizes)
	}
	if dup, ok := firstDuplicate(teamIDs); ok {
		return nil, errors.Wrapf(bracket.ErrValidation, "team %s drawn twice", dup)
	}

	shuffled := slices.Clone(teamIDs)
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	pairings := make([]Pairing, 0, len(shuffled)/2)
	for i := 0; i < len(shuffled); i += 2 {
		pairings = append(pairings, Pairing{
			Sequence: i/2 + 1,
			TeamA:    shuffled[i],
			TeamB:    shuffled[i+1],
		})
	}
	return pairings, nil
}

// firstRoundMatches turns a draw into pending match records.
func firstRoundMatches(tournamentID uuid.UUID, round bracket.RoundName, pairings []Pairing) []bracket.Match {
	matches := make([]bracket.Match, len(pairings))
	for i, p := range pairings {
		matches[i] = bracket.Match{
			ID:             uuid.New(),
			TournamentID:   tournamentID,
			TeamAID:        &p.TeamA,
			TeamBID:        &p.TeamB,
			Round:          round,
			SequenceNumber: p.Sequence,
			Status:         bracket.MatchPending,
		}
	}
	return matches
}
