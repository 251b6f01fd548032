package service

import (
	"context"
	"time"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/AdamBeresnev/school-cup/internal/store"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// MatchService drives a single match through its lifecycle. Every write for
// one tournament runs under that tournament's lock, and finishing a match
// commits together with the advance it triggers.
type MatchService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	teams       *store.TeamStore
	events      *EventService
	advancer    *Advancer
	locks       *tournamentLocks
	logger      *zap.Logger
}

func NewMatchService(
	db *sqlx.DB,
	tournaments *store.TournamentStore,
	teams *store.TeamStore,
	events *EventService,
	advancer *Advancer,
	locks *tournamentLocks,
	logger *zap.Logger,
) *MatchService {
	return &MatchService{
		db:          db,
		tournaments: tournaments,
		teams:       teams,
		events:      events,
		advancer:    advancer,
		locks:       locks,
		logger:      logger,
	}
}

type ResultInput struct {
	GoalsA int `json:"goals_a" validate:"min=0"`
	GoalsB int `json:"goals_b" validate:"min=0"`
	// nil keeps the current event log, an empty slice clears it
	Events []EventInput `json:"events,omitempty" validate:"omitempty,dive"`
}

// FinishOutcome is what finishing a match produced.
type FinishOutcome struct {
	Match   *bracket.Match  `json:"match"`
	Result  *bracket.Result `json:"result"`
	Advance *AdvanceOutcome `json:"advance"`
}

type matchTx struct {
	tx         *sqlx.Tx
	tournament *bracket.Tournament
	match      *bracket.Match
}

// inMatchTx locks the match's tournament, re-reads both inside a transaction
// and commits if fn succeeds.
func (s *MatchService) inMatchTx(ctx context.Context, matchID uuid.UUID, fn func(*matchTx) error) error {
	match, err := s.tournaments.GetMatch(ctx, s.db, matchID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(match.TournamentID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "begin match transaction"), bracket.ErrStorage)
	}
	defer tx.Rollback()

	mtx := &matchTx{tx: tx}
	if mtx.match, err = s.tournaments.GetMatch(ctx, tx, matchID); err != nil {
		return err
	}
	if mtx.tournament, err = s.tournaments.GetTournament(ctx, tx, match.TournamentID); err != nil {
		return err
	}
	if !mtx.tournament.IsActive() {
		return errors.Wrapf(bracket.ErrValidation, "tournament %q is finished", mtx.tournament.Name)
	}

	if err := fn(mtx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Mark(errors.Wrap(err, "commit match transaction"), bracket.ErrStorage)
	}
	return nil
}

func (s *MatchService) GetMatch(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	return s.tournaments.GetMatch(ctx, s.db, matchID)
}

// StartMatch moves a pending match with both teams known into play.
func (s *MatchService) StartMatch(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	var started *bracket.Match
	err := s.inMatchTx(ctx, matchID, func(m *matchTx) error {
		if m.match.Status != bracket.MatchPending {
			return errors.Wrapf(bracket.ErrValidation, "match %s is %s, only pending matches start", matchID, m.match.Status)
		}
		if !m.match.Ready() {
			return errors.Wrapf(bracket.ErrValidation, "match %s is still waiting for a team", matchID)
		}
		if err := s.tournaments.SetMatchStatus(ctx, m.tx, matchID, bracket.MatchInProgress); err != nil {
			return err
		}
		m.match.Status = bracket.MatchInProgress
		started = m.match
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("match started", zap.Stringer("match_id", matchID))
	return started, nil
}

// RecordResult stores the score of a match in play, finishes it and advances
// the winner, all in one transaction.
func (s *MatchService) RecordResult(ctx context.Context, matchID uuid.UUID, in ResultInput) (*FinishOutcome, error) {
	if err := validateInput(ctx, in); err != nil {
		return nil, err
	}
	if in.GoalsA == in.GoalsB {
		return nil, errors.Wrapf(bracket.ErrValidation, "a tie (%d-%d) cannot decide a knockout match", in.GoalsA, in.GoalsB)
	}

	var outcome *FinishOutcome
	err := s.inMatchTx(ctx, matchID, func(m *matchTx) error {
		switch m.match.Status {
		case bracket.MatchFinished:
			return errors.Wrapf(bracket.ErrValidation, "match %s is already finished, reopen it first", matchID)
		case bracket.MatchCancelled:
			return errors.Wrapf(bracket.ErrValidation, "match %s is cancelled", matchID)
		case bracket.MatchPending:
			return errors.Wrapf(bracket.ErrValidation, "match %s has not started", matchID)
		}

		result := &bracket.Result{MatchID: matchID, GoalsA: in.GoalsA, GoalsB: in.GoalsB}
		var err error
		outcome, err = s.finish(ctx, m, result, func(winnerID uuid.UUID) error {
			return s.tournaments.RecordResult(ctx, m.tx, matchID, in.GoalsA, in.GoalsB, winnerID)
		})
		if err != nil {
			return err
		}

		if in.Events != nil {
			if _, err := s.events.replace(ctx, m.tx, m.match, in.Events); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// FinishMatch finishes a match in play from the result it already has, the
// usual path after a reopen.
func (s *MatchService) FinishMatch(ctx context.Context, matchID uuid.UUID) (*FinishOutcome, error) {
	var outcome *FinishOutcome
	err := s.inMatchTx(ctx, matchID, func(m *matchTx) error {
		if !bracket.CanTransition(m.match.Status, bracket.MatchFinished) {
			return errors.Wrapf(bracket.ErrValidation, "match %s is %s and cannot finish", matchID, m.match.Status)
		}
		result, err := s.tournaments.GetResult(ctx, m.tx, matchID)
		if err != nil {
			return err
		}
		if result == nil {
			return errors.Wrapf(bracket.ErrValidation, "match %s has no result yet", matchID)
		}
		outcome, err = s.finish(ctx, m, result, func(winnerID uuid.UUID) error {
			return s.tournaments.FinishMatch(ctx, m.tx, matchID, winnerID)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// finish settles the winner from result, lets write persist it and runs the
// advance on the same transaction.
func (s *MatchService) finish(ctx context.Context, m *matchTx, result *bracket.Result, write func(winnerID uuid.UUID) error) (*FinishOutcome, error) {
	if !m.match.Ready() {
		return nil, errors.Wrapf(bracket.ErrValidation, "match %s is missing a team", m.match.ID)
	}
	slot, ok := result.WinningSlot()
	if !ok {
		return nil, errors.Wrapf(bracket.ErrValidation, "result of match %s is a tie", m.match.ID)
	}
	winnerID := *m.match.SlotTeam(slot)

	if err := write(winnerID); err != nil {
		return nil, err
	}
	m.match.Status = bracket.MatchFinished
	m.match.WinnerID = &winnerID

	advance, err := s.advancer.advance(ctx, m.tx, m.tournament, m.match, winnerID)
	if err != nil {
		return nil, errors.Wrapf(err, "advance winner of match %s", m.match.ID)
	}

	s.logger.Info("match finished",
		zap.Stringer("match_id", m.match.ID),
		zap.String("round", string(m.match.Round)),
		zap.Int("sequence", m.match.SequenceNumber),
		zap.Int("goals_a", result.GoalsA),
		zap.Int("goals_b", result.GoalsB),
		zap.Stringer("winner", winnerID),
		zap.String("advance", string(advance.Kind)),
	)
	return &FinishOutcome{Match: m.match, Result: result, Advance: advance}, nil
}

func (s *MatchService) CancelMatch(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	var cancelled *bracket.Match
	err := s.inMatchTx(ctx, matchID, func(m *matchTx) error {
		if !bracket.CanTransition(m.match.Status, bracket.MatchCancelled) {
			return errors.Wrapf(bracket.ErrValidation, "match %s is %s and cannot be cancelled", matchID, m.match.Status)
		}
		if err := s.tournaments.SetMatchStatus(ctx, m.tx, matchID, bracket.MatchCancelled); err != nil {
			return err
		}
		m.match.Status = bracket.MatchCancelled
		cancelled = m.match
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("match cancelled", zap.Stringer("match_id", matchID))
	return cancelled, nil
}

// ReopenMatch puts a finished or cancelled match back in play. The winner is
// cleared; anything it already placed downstream stays until the match is
// finished again. A winner that already finished its next match blocks the
// reopen, and so does a missing team.
func (s *MatchService) ReopenMatch(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	var reopened *bracket.Match
	err := s.inMatchTx(ctx, matchID, func(m *matchTx) error {
		if m.match.Status != bracket.MatchFinished && m.match.Status != bracket.MatchCancelled {
			return errors.Wrapf(bracket.ErrValidation, "match %s is %s, only finished or cancelled matches reopen", matchID, m.match.Status)
		}
		// a shell cancelled before both teams arrived stays out of play
		if !m.match.Ready() {
			return errors.Wrapf(bracket.ErrValidation, "match %s is still waiting for a team", matchID)
		}
		if err := s.advancer.checkReopen(ctx, m.tx, m.tournament, m.match); err != nil {
			return err
		}
		if err := s.tournaments.SetMatchStatus(ctx, m.tx, matchID, bracket.MatchInProgress); err != nil {
			return err
		}
		m.match.Status = bracket.MatchInProgress
		m.match.WinnerID = nil
		reopened = m.match
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("match reopened", zap.Stringer("match_id", matchID))
	return reopened, nil
}

// ScheduleMatch sets kickoff and referee. A referee cannot be booked for two
// matches at the same time.
func (s *MatchService) ScheduleMatch(ctx context.Context, matchID uuid.UUID, at *time.Time, refereeID *uuid.UUID) (*bracket.Match, error) {
	if at != nil {
		utc := at.UTC()
		at = &utc
	}

	var scheduled *bracket.Match
	err := s.inMatchTx(ctx, matchID, func(m *matchTx) error {
		if refereeID != nil {
			if _, err := s.teams.GetReferee(ctx, m.tx, *refereeID); err != nil {
				return err
			}
			if at != nil {
				booked, err := s.tournaments.CountRefereeBookings(ctx, m.tx, *refereeID, *at, matchID)
				if err != nil {
					return err
				}
				if booked > 0 {
					return errors.Wrapf(bracket.ErrValidation, "referee %s already has a match at %s", *refereeID, at.Format(time.RFC3339))
				}
			}
		}
		if err := s.tournaments.ScheduleMatch(ctx, m.tx, matchID, at, refereeID); err != nil {
			return err
		}
		m.match.ScheduledAt = at
		m.match.RefereeID = refereeID
		scheduled = m.match
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scheduled, nil
}
