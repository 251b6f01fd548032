package store

import (
	"context"
	"time"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TournamentStore persists tournaments, matches and results. Every method takes
// the executor to run on so callers can group writes in one transaction.
type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

// DB is the default executor for reads outside a transaction.
func (s *TournamentStore) DB() *sqlx.DB {
	return s.db
}

const (
	matchColumns = `id, tournament_id, team_a_id, team_b_id, scheduled_at, referee_id, round, sequence_number, status, winner_id, created_at`

	// Canonical round order for listing
	roundOrder = `CASE round
			WHEN 'round_of_32' THEN 1
			WHEN 'round_of_16' THEN 2
			WHEN 'quarterfinal' THEN 3
			WHEN 'semifinal' THEN 4
			WHEN 'final' THEN 5
			ELSE 6
		END`
)

func (s *TournamentStore) CreateTournament(ctx context.Context, q sqlx.ExtContext, tournament *bracket.Tournament) error {
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO tournaments (id, name, team_count, status, started_at)
        VALUES (:id, :name, :team_count, :status, :started_at)`, tournament)
	return wrapErr(err, "create tournament %q", tournament.Name)
}

func (s *TournamentStore) GetTournament(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := sqlx.GetContext(ctx, q, &tournament, "SELECT * FROM tournaments WHERE id = ?", id)
	if err != nil {
		return nil, wrapErr(err, "tournament %s", id)
	}
	return &tournament, nil
}

// GetActiveTournament returns nil without error when no tournament is active.
func (s *TournamentStore) GetActiveTournament(ctx context.Context, q sqlx.QueryerContext) (*bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := sqlx.SelectContext(ctx, q, &tournaments, "SELECT * FROM tournaments WHERE status = ? ORDER BY started_at DESC LIMIT 1", bracket.TournamentActive)
	if err != nil {
		return nil, wrapErr(err, "active tournament")
	}
	if len(tournaments) == 0 {
		return nil, nil
	}
	return &tournaments[0], nil
}

func (s *TournamentStore) ListTournaments(ctx context.Context, q sqlx.QueryerContext) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := sqlx.SelectContext(ctx, q, &tournaments, "SELECT * FROM tournaments ORDER BY started_at DESC")
	return tournaments, wrapErr(err, "list tournaments")
}

func (s *TournamentStore) FinishTournament(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, at time.Time) error {
	res, err := q.ExecContext(ctx, "UPDATE tournaments SET status = ?, finished_at = ? WHERE id = ?", bracket.TournamentFinished, at, id)
	if err != nil {
		return wrapErr(err, "finish tournament %s", id)
	}
	return expectOne(res, "tournament %s", id)
}

func (s *TournamentStore) CreateMatches(ctx context.Context, q sqlx.ExtContext, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO matches (id, tournament_id, team_a_id, team_b_id, scheduled_at, referee_id, round, sequence_number, status, winner_id)
		VALUES (:id, :tournament_id, :team_a_id, :team_b_id, :scheduled_at, :referee_id, :round, :sequence_number, :status, :winner_id)`, matches)
	return wrapErr(err, "create %d matches", len(matches))
}

func (s *TournamentStore) CreateMatch(ctx context.Context, q sqlx.ExtContext, match *bracket.Match) error {
	return s.CreateMatches(ctx, q, []bracket.Match{*match})
}

func (s *TournamentStore) GetMatch(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	err := sqlx.GetContext(ctx, q, &match, "SELECT "+matchColumns+" FROM matches WHERE id = ?", id)
	if err != nil {
		return nil, wrapErr(err, "match %s", id)
	}
	return &match, nil
}

// FindMatch looks a match up by bracket position. A position that has not
// been materialized yet yields nil without error.
func (s *TournamentStore) FindMatch(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID, round bracket.RoundName, seq int) (*bracket.Match, error) {
	var matches []bracket.Match
	err := sqlx.SelectContext(ctx, q, &matches, "SELECT "+matchColumns+" FROM matches WHERE tournament_id = ? AND round = ? AND sequence_number = ?", tournamentID, round, seq)
	if err != nil {
		return nil, wrapErr(err, "find %s #%d", round, seq)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

func (s *TournamentStore) GetMatches(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := sqlx.SelectContext(ctx, q, &matches, "SELECT "+matchColumns+" FROM matches WHERE tournament_id = ? ORDER BY "+roundOrder+", sequence_number ASC", tournamentID)
	return matches, wrapErr(err, "matches of tournament %s", tournamentID)
}

func (s *TournamentStore) GetMatchesByRound(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID, round bracket.RoundName) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := sqlx.SelectContext(ctx, q, &matches, "SELECT "+matchColumns+" FROM matches WHERE tournament_id = ? AND round = ? ORDER BY sequence_number ASC", tournamentID, round)
	return matches, wrapErr(err, "%s matches of tournament %s", round, tournamentID)
}

func (s *TournamentStore) SetMatchSlot(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, slot bracket.Slot, teamID *uuid.UUID) error {
	column := "team_a_id"
	if slot == bracket.SlotB {
		column = "team_b_id"
	}
	res, err := q.ExecContext(ctx, "UPDATE matches SET "+column+" = ? WHERE id = ?", teamID, id)
	if err != nil {
		return wrapErr(err, "set slot %s of match %s", slot, id)
	}
	return expectOne(res, "match %s", id)
}

// SetMatchStatus writes a non-finished status and clears the winner, keeping
// "winner set iff finished". Finishing goes through RecordResult or FinishMatch.
func (s *TournamentStore) SetMatchStatus(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, status bracket.MatchStatus) error {
	if status == bracket.MatchFinished {
		return errors.Wrap(bracket.ErrValidation, "a match is finished by recording its result")
	}
	res, err := q.ExecContext(ctx, "UPDATE matches SET status = ?, winner_id = NULL WHERE id = ?", status, id)
	if err != nil {
		return wrapErr(err, "set status of match %s", id)
	}
	return expectOne(res, "match %s", id)
}

// FinishMatch marks a match finished with winnerID.
func (s *TournamentStore) FinishMatch(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, winnerID uuid.UUID) error {
	res, err := q.ExecContext(ctx, "UPDATE matches SET status = ?, winner_id = ? WHERE id = ?", bracket.MatchFinished, winnerID, id)
	if err != nil {
		return wrapErr(err, "finish match %s", id)
	}
	return expectOne(res, "match %s", id)
}

// RecordResult stores the score, replacing any earlier one, and finishes the
// match with winnerID.
func (s *TournamentStore) RecordResult(ctx context.Context, q sqlx.ExtContext, matchID uuid.UUID, goalsA, goalsB int, winnerID uuid.UUID) error {
	_, err := q.ExecContext(ctx, `INSERT INTO results (match_id, goals_a, goals_b, recorded_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (match_id) DO UPDATE SET goals_a = excluded.goals_a, goals_b = excluded.goals_b, recorded_at = excluded.recorded_at`,
		matchID, goalsA, goalsB, time.Now().UTC())
	if err != nil {
		return wrapErr(err, "record result of match %s", matchID)
	}
	return s.FinishMatch(ctx, q, matchID, winnerID)
}

// GetResult returns nil without error when no result was recorded.
func (s *TournamentStore) GetResult(ctx context.Context, q sqlx.QueryerContext, matchID uuid.UUID) (*bracket.Result, error) {
	var results []bracket.Result
	err := sqlx.SelectContext(ctx, q, &results, "SELECT match_id, goals_a, goals_b, recorded_at FROM results WHERE match_id = ?", matchID)
	if err != nil {
		return nil, wrapErr(err, "result of match %s", matchID)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

func (s *TournamentStore) DeleteResult(ctx context.Context, q sqlx.ExtContext, matchID uuid.UUID) error {
	_, err := q.ExecContext(ctx, "DELETE FROM results WHERE match_id = ?", matchID)
	return wrapErr(err, "delete result of match %s", matchID)
}

func (s *TournamentStore) ScheduleMatch(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, at *time.Time, refereeID *uuid.UUID) error {
	res, err := q.ExecContext(ctx, "UPDATE matches SET scheduled_at = ?, referee_id = ? WHERE id = ?", at, refereeID, id)
	if err != nil {
		return wrapErr(err, "schedule match %s", id)
	}
	return expectOne(res, "match %s", id)
}

// CountRefereeBookings counts other matches the referee already has at the
// same instant.
func (s *TournamentStore) CountRefereeBookings(ctx context.Context, q sqlx.QueryerContext, refereeID uuid.UUID, at time.Time, excludeMatchID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count, "SELECT COUNT(*) FROM matches WHERE referee_id = ? AND scheduled_at = ? AND id != ?", refereeID, at, excludeMatchID)
	return count, wrapErr(err, "referee %s bookings", refereeID)
}

func (s *TournamentStore) CountMatchesByStatus(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID, status bracket.MatchStatus) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count, "SELECT COUNT(*) FROM matches WHERE tournament_id = ? AND status = ?", tournamentID, status)
	return count, wrapErr(err, "count %s matches", status)
}

func (s *TournamentStore) GetStats(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) (*bracket.Stats, error) {
	var stats bracket.Stats
	err := sqlx.GetContext(ctx, q, &stats, `SELECT
			(SELECT COUNT(*) FROM matches WHERE tournament_id = ? AND status = 'finished') AS matches_played,
			(SELECT COALESCE(SUM(r.goals_a + r.goals_b), 0) FROM results r JOIN matches m ON r.match_id = m.id WHERE m.tournament_id = ?) AS total_goals,
			(SELECT COUNT(*) FROM events e JOIN matches m ON e.match_id = m.id WHERE m.tournament_id = ? AND e.kind = 'yellow_card') AS yellow_cards,
			(SELECT COUNT(*) FROM events e JOIN matches m ON e.match_id = m.id WHERE m.tournament_id = ? AND e.kind = 'red_card') AS red_cards`,
		tournamentID, tournamentID, tournamentID, tournamentID)
	if err != nil {
		return nil, wrapErr(err, "stats of tournament %s", tournamentID)
	}
	return &stats, nil
}
