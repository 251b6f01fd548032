package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/AdamBeresnev/school-cup/internal/db"
	"github.com/AdamBeresnev/school-cup/internal/store"
	"github.com/AdamBeresnev/school-cup/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.OpenInMemory()
	require.NoError(t, err, "Failed to open in-memory DB")
	t.Cleanup(func() { database.Close() })

	return database
}

func newTestServices(t *testing.T) (*Services, *sqlx.DB) {
	t.Helper()

	database := setupTestDB(t)
	svc := New(database, zaptest.NewLogger(t))
	svc.Tournaments.WithRand(rand.New(rand.NewPCG(7, 11)))
	return svc, database
}

// seedTeams registers n teams with rosterSize players each.
func seedTeams(t *testing.T, svc *Services, n, rosterSize int) []uuid.UUID {
	t.Helper()

	ids := make([]uuid.UUID, n)
	for i := range n {
		ids[i] = seedTeam(t, svc, fmt.Sprintf("Team %02d", i+1), rosterSize)
	}
	return ids
}

func seedTeam(t *testing.T, svc *Services, name string, rosterSize int) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	team, err := svc.Teams.CreateTeam(ctx, TeamInput{Name: name, Season: "2026", Color: "#1E90FF"})
	require.NoError(t, err)

	for p := range rosterSize {
		_, err := svc.Teams.AddPlayer(ctx, team.ID, PlayerInput{
			FirstName:   "Player",
			LastName:    fmt.Sprintf("%s %02d", name, p+1),
			Position:    bracket.Midfielder,
			ShirtNumber: utils.Ptr(p + 1),
			IsCaptain:   p == 0,
		})
		require.NoError(t, err)
	}
	return team.ID
}

func startTournament(t *testing.T, svc *Services, size int) *bracket.Tournament {
	t.Helper()

	teams := seedTeams(t, svc, size, bracket.MinRosterSize)
	tournament, err := svc.Tournaments.StartTournament(context.Background(), StartTournamentInput{
		Name:    fmt.Sprintf("Cup of %d", size),
		TeamIDs: teams,
	})
	require.NoError(t, err)
	return tournament
}

func matchAt(t *testing.T, database *sqlx.DB, tournamentID uuid.UUID, round bracket.RoundName, seq int) *bracket.Match {
	t.Helper()

	m, err := store.NewTournamentStore(database).FindMatch(context.Background(), database, tournamentID, round, seq)
	require.NoError(t, err)
	require.NotNil(t, m, "%s #%d does not exist", round, seq)
	return m
}

// play starts a pending match and records the score.
func play(t *testing.T, svc *Services, matchID uuid.UUID, goalsA, goalsB int) *FinishOutcome {
	t.Helper()
	ctx := context.Background()

	_, err := svc.Matches.StartMatch(ctx, matchID)
	require.NoError(t, err)
	outcome, err := svc.Matches.RecordResult(ctx, matchID, ResultInput{GoalsA: goalsA, GoalsB: goalsB})
	require.NoError(t, err)
	return outcome
}
