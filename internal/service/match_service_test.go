package service

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/AdamBeresnev/school-cup/internal/store"
	"github.com/AdamBeresnev/school-cup/internal/utils"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchLifecycle(t *testing.T) {
	svc, database := newTestServices(t)
	ctx := context.Background()

	tournament := startTournament(t, svc, 8)
	match := matchAt(t, database, tournament.ID, bracket.Quarterfinal, 1)

	_, err := svc.Matches.RecordResult(ctx, match.ID, ResultInput{GoalsA: 1, GoalsB: 0})
	assert.True(t, errors.Is(err, bracket.ErrValidation), "pending matches take no result")

	_, err = svc.Matches.FinishMatch(ctx, match.ID)
	assert.True(t, errors.Is(err, bracket.ErrValidation), "pending cannot jump to finished")

	started, err := svc.Matches.StartMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchInProgress, started.Status)

	_, err = svc.Matches.StartMatch(ctx, match.ID)
	assert.True(t, errors.Is(err, bracket.ErrValidation))

	_, err = svc.Matches.FinishMatch(ctx, match.ID)
	assert.True(t, errors.Is(err, bracket.ErrValidation), "no result recorded yet")

	_, err = svc.Matches.RecordResult(ctx, match.ID, ResultInput{GoalsA: 2, GoalsB: 2})
	assert.True(t, errors.Is(err, bracket.ErrValidation), "ties are rejected")

	_, err = svc.Matches.RecordResult(ctx, match.ID, ResultInput{GoalsA: -1, GoalsB: 2})
	assert.True(t, errors.Is(err, bracket.ErrValidation))

	outcome, err := svc.Matches.RecordResult(ctx, match.ID, ResultInput{GoalsA: 0, GoalsB: 2})
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchFinished, outcome.Match.Status)
	assert.Equal(t, *match.TeamBID, *outcome.Match.WinnerID)
	assert.Equal(t, 2, outcome.Result.GoalsB)

	_, err = svc.Matches.RecordResult(ctx, match.ID, ResultInput{GoalsA: 3, GoalsB: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reopen it first")

	_, err = svc.Matches.CancelMatch(ctx, match.ID)
	assert.True(t, errors.Is(err, bracket.ErrValidation), "finished matches are not cancelled")

	reopened, err := svc.Matches.ReopenMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchInProgress, reopened.Status)

	_, err = svc.Matches.ReopenMatch(ctx, match.ID)
	assert.True(t, errors.Is(err, bracket.ErrValidation), "only finished or cancelled matches reopen")

	cancelled, err := svc.Matches.CancelMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchCancelled, cancelled.Status)
	assert.Nil(t, cancelled.WinnerID)

	_, err = svc.Matches.RecordResult(ctx, match.ID, ResultInput{GoalsA: 1, GoalsB: 0})
	assert.True(t, errors.Is(err, bracket.ErrValidation), "cancelled matches take no result")

	_, err = svc.Matches.ReopenMatch(ctx, match.ID)
	require.NoError(t, err)

	// the stored score finishes the match again
	outcome, err = svc.Matches.FinishMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, *match.TeamBID, *outcome.Match.WinnerID)
	assert.Equal(t, AdvanceUnchanged, outcome.Advance.Kind)

	_, err = svc.Matches.StartMatch(ctx, uuid.New())
	assert.True(t, errors.Is(err, bracket.ErrNotFound))
}

func TestCancelPendingMatch(t *testing.T) {
	svc, database := newTestServices(t)
	ctx := context.Background()

	tournament := startTournament(t, svc, 8)
	match := matchAt(t, database, tournament.ID, bracket.Quarterfinal, 2)

	_, err := svc.Matches.CancelMatch(ctx, match.ID)
	require.NoError(t, err)

	_, err = svc.Matches.StartMatch(ctx, match.ID)
	assert.True(t, errors.Is(err, bracket.ErrValidation), "cancelled matches come back through reopen")

	reopened, err := svc.Matches.ReopenMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchInProgress, reopened.Status)
}

func TestReopenCancelledShell(t *testing.T) {
	svc, database := newTestServices(t)
	ctx := context.Background()

	tournament := startTournament(t, svc, 8)
	qf1 := matchAt(t, database, tournament.ID, bracket.Quarterfinal, 1)
	qf2 := matchAt(t, database, tournament.ID, bracket.Quarterfinal, 2)
	play(t, svc, qf1.ID, 2, 0)

	sf1 := matchAt(t, database, tournament.ID, bracket.Semifinal, 1)
	_, err := svc.Matches.CancelMatch(ctx, sf1.ID)
	require.NoError(t, err)

	// half filled: reopening would put it in play without an opponent
	_, err = svc.Matches.ReopenMatch(ctx, sf1.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bracket.ErrValidation))

	sf1 = matchAt(t, database, tournament.ID, bracket.Semifinal, 1)
	assert.Equal(t, bracket.MatchCancelled, sf1.Status)
	assert.Nil(t, sf1.TeamBID)

	// once the sibling quarterfinal fills the other slot it can come back
	outcome := play(t, svc, qf2.ID, 2, 0)
	assert.Equal(t, AdvancePlaced, outcome.Advance.Kind)

	reopened, err := svc.Matches.ReopenMatch(ctx, sf1.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchInProgress, reopened.Status)
	assert.True(t, reopened.Ready())
}

func TestRecordResultWithEvents(t *testing.T) {
	svc, database := newTestServices(t)
	ctx := context.Background()

	tournament := startTournament(t, svc, 8)
	match := matchAt(t, database, tournament.ID, bracket.Quarterfinal, 1)

	home, err := svc.Teams.ListPlayers(ctx, *match.TeamAID)
	require.NoError(t, err)
	away, err := svc.Teams.ListPlayers(ctx, *match.TeamBID)
	require.NoError(t, err)
	outsider := matchAt(t, database, tournament.ID, bracket.Quarterfinal, 2)
	strangers, err := svc.Teams.ListPlayers(ctx, *outsider.TeamAID)
	require.NoError(t, err)

	_, err = svc.Matches.StartMatch(ctx, match.ID)
	require.NoError(t, err)

	_, err = svc.Matches.RecordResult(ctx, match.ID, ResultInput{
		GoalsA: 1, GoalsB: 0,
		Events: []EventInput{{PlayerID: strangers[0].ID, Kind: bracket.EventGoal}},
	})
	assert.True(t, errors.Is(err, bracket.ErrValidation), "events only for the two teams on the pitch")

	current, err := svc.Matches.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchInProgress, current.Status, "rejected events roll the result back")

	_, err = svc.Matches.RecordResult(ctx, match.ID, ResultInput{
		GoalsA: 2, GoalsB: 1,
		Events: []EventInput{
			{PlayerID: home[0].ID, Kind: bracket.EventGoal, Minute: utils.Ptr(10)},
			{PlayerID: home[0].ID, Kind: bracket.EventGoal, Minute: utils.Ptr(55)},
			{PlayerID: away[1].ID, Kind: bracket.EventGoal, Minute: utils.Ptr(80)},
			{PlayerID: away[2].ID, Kind: bracket.EventRedCard, Minute: utils.Ptr(88)},
		},
	})
	require.NoError(t, err)

	teams := store.NewTeamStore(database)
	scorer, err := teams.GetPlayer(ctx, database, home[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, scorer.Goals)

	sentOff, err := teams.GetPlayer(ctx, database, away[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sentOff.RedCards)

	stats, err := svc.Tournaments.Stats(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.Stats{MatchesPlayed: 1, TotalGoals: 3, RedCards: 1}, *stats)

	// correcting the log after a reopen rewrites the totals
	_, err = svc.Matches.ReopenMatch(ctx, match.ID)
	require.NoError(t, err)
	_, err = svc.Matches.RecordResult(ctx, match.ID, ResultInput{
		GoalsA: 1, GoalsB: 0,
		Events: []EventInput{{PlayerID: home[0].ID, Kind: bracket.EventGoal, Minute: utils.Ptr(10)}},
	})
	require.NoError(t, err)

	scorer, err = teams.GetPlayer(ctx, database, home[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, scorer.Goals)
	sentOff, err = teams.GetPlayer(ctx, database, away[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sentOff.RedCards)

	events, err := svc.Events.ListEvents(ctx, match.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRecordEvents(t *testing.T) {
	svc, database := newTestServices(t)
	ctx := context.Background()

	tournament := startTournament(t, svc, 8)
	match := matchAt(t, database, tournament.ID, bracket.Quarterfinal, 3)
	players, err := svc.Teams.ListPlayers(ctx, *match.TeamAID)
	require.NoError(t, err)

	log := []EventInput{{PlayerID: players[0].ID, Kind: bracket.EventYellowCard, Minute: utils.Ptr(30)}}

	_, err = svc.Events.RecordEvents(ctx, match.ID, log)
	assert.True(t, errors.Is(err, bracket.ErrValidation), "no events before kickoff")

	_, err = svc.Matches.StartMatch(ctx, match.ID)
	require.NoError(t, err)

	recorded, err := svc.Events.RecordEvents(ctx, match.ID, log)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, match.ID, recorded[0].MatchID)

	_, err = svc.Events.RecordEvents(ctx, match.ID, []EventInput{{PlayerID: players[0].ID, Kind: "own_goal"}})
	assert.True(t, errors.Is(err, bracket.ErrValidation))

	_, err = svc.Events.RecordEvents(ctx, match.ID, []EventInput{{PlayerID: players[0].ID, Kind: bracket.EventGoal, Minute: utils.Ptr(-3)}})
	assert.True(t, errors.Is(err, bracket.ErrValidation))

	_, err = svc.Events.RecordEvents(ctx, match.ID, []EventInput{{PlayerID: uuid.New(), Kind: bracket.EventGoal}})
	assert.True(t, errors.Is(err, bracket.ErrNotFound))

	// an empty log clears the match
	_, err = svc.Events.RecordEvents(ctx, match.ID, []EventInput{})
	require.NoError(t, err)
	events, err := svc.Events.ListEvents(ctx, match.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestScheduleMatch(t *testing.T) {
	svc, database := newTestServices(t)
	ctx := context.Background()

	tournament := startTournament(t, svc, 8)
	qf1 := matchAt(t, database, tournament.ID, bracket.Quarterfinal, 1)
	qf2 := matchAt(t, database, tournament.ID, bracket.Quarterfinal, 2)

	referee, err := svc.Teams.CreateReferee(ctx, RefereeInput{FirstName: "Marta", LastName: "Gil", ExperienceYears: 6, Category: "regional"})
	require.NoError(t, err)

	kickoff := time.Date(2026, 11, 7, 10, 30, 0, 0, time.UTC)
	scheduled, err := svc.Matches.ScheduleMatch(ctx, qf1.ID, &kickoff, &referee.ID)
	require.NoError(t, err)
	assert.True(t, kickoff.Equal(*scheduled.ScheduledAt))

	fetched, err := svc.Matches.GetMatch(ctx, qf1.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.ScheduledAt)
	assert.True(t, kickoff.Equal(*fetched.ScheduledAt))
	assert.Equal(t, referee.ID, *fetched.RefereeID)

	// same referee, same time, other match
	inMadrid := kickoff.In(time.FixedZone("CET", 3600))
	_, err = svc.Matches.ScheduleMatch(ctx, qf2.ID, &inMadrid, &referee.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bracket.ErrValidation))

	later := kickoff.Add(2 * time.Hour)
	_, err = svc.Matches.ScheduleMatch(ctx, qf2.ID, &later, &referee.ID)
	require.NoError(t, err)

	// rescheduling a match onto its own slot is fine
	_, err = svc.Matches.ScheduleMatch(ctx, qf1.ID, &kickoff, &referee.ID)
	require.NoError(t, err)

	_, err = svc.Matches.ScheduleMatch(ctx, qf1.ID, &kickoff, utils.Ptr(uuid.New()))
	assert.True(t, errors.Is(err, bracket.ErrNotFound))

	cleared, err := svc.Matches.ScheduleMatch(ctx, qf1.ID, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.ScheduledAt)
	assert.Nil(t, cleared.RefereeID)
}

func TestConcurrentFinishesSerialize(t *testing.T) {
	svc, database := newTestServices(t)
	ctx := context.Background()

	tournament := startTournament(t, svc, 8)
	ids := make([]uuid.UUID, 4)
	for i := range ids {
		ids[i] = matchAt(t, database, tournament.ID, bracket.Quarterfinal, i+1).ID
		_, err := svc.Matches.StartMatch(ctx, ids[i])
		require.NoError(t, err)
	}

	errs := make(chan error, len(ids))
	for _, id := range ids {
		go func() {
			_, err := svc.Matches.RecordResult(ctx, id, ResultInput{GoalsA: 1, GoalsB: 0})
			errs <- err
		}()
	}
	for range ids {
		require.NoError(t, <-errs)
	}

	for seq := 1; seq <= 2; seq++ {
		sf := matchAt(t, database, tournament.ID, bracket.Semifinal, seq)
		assert.True(t, sf.Ready(), "semifinal #%d has both teams", seq)
	}
}
