package seed

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/AdamBeresnev/school-cup/internal/db"
	"github.com/AdamBeresnev/school-cup/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRun(t *testing.T) {
	database, err := db.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	logger := zaptest.NewLogger(t)
	svc := service.New(database, logger)
	seeder := New(svc.Teams, logger, 4, rand.New(rand.NewPCG(1, 2)))
	ctx := context.Background()

	summary, err := seeder.Run(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Teams)
	assert.Equal(t, 5, summary.Referees)
	assert.Zero(t, summary.Failed)
	assert.GreaterOrEqual(t, summary.Players, 10*bracket.MinRosterSize)
	assert.LessOrEqual(t, summary.Players, 10*(bracket.MinRosterSize+2))

	teams, err := svc.Teams.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 10)

	ids := make([]uuid.UUID, 0, 8)
	for _, team := range teams[:8] {
		ids = append(ids, team.ID)
	}
	report, err := svc.Rosters.ValidateTeams(ctx, ids)
	require.NoError(t, err)
	assert.True(t, report.Valid, report.Message)

	// a second run keeps the teams it finds
	summary, err = seeder.Run(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, summary.Teams)
	assert.Equal(t, 10, summary.Existing)
}

func TestTemplateFor(t *testing.T) {
	assert.Equal(t, "Tigers", templateFor(0).name)
	assert.Equal(t, "Bears FC", templateFor(7).name)
	assert.Equal(t, "Tigers 2", templateFor(8).name)
	assert.Equal(t, "Eagles FC 3", templateFor(17).name)
}
