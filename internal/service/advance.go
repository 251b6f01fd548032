package service

import (
	"context"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/AdamBeresnev/school-cup/internal/store"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type AdvanceKind string

const (
	AdvanceTerminal  AdvanceKind = "terminal"  // final decided, nothing downstream
	AdvanceCreated   AdvanceKind = "created"   // next-round shell created around the winner
	AdvancePlaced    AdvanceKind = "placed"    // winner written into an empty slot
	AdvanceUnchanged AdvanceKind = "unchanged" // winner already in place
	AdvanceReplaced  AdvanceKind = "replaced"  // stale winner overwritten after a reopen
)

// AdvanceOutcome describes what happened downstream of a finished match.
type AdvanceOutcome struct {
	Kind   AdvanceKind    `json:"kind"`
	Target *bracket.Match `json:"target,omitempty"`
	Slot   bracket.Slot   `json:"slot,omitempty"`
}

// Changed reports whether the advance wrote anything.
func (o *AdvanceOutcome) Changed() bool {
	switch o.Kind {
	case AdvanceCreated, AdvancePlaced, AdvanceReplaced:
		return true
	}
	return false
}

// Advancer places match winners into the next round.
type Advancer struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	locks       *tournamentLocks
	logger      *zap.Logger
}

func NewAdvancer(db *sqlx.DB, tournaments *store.TournamentStore, locks *tournamentLocks, logger *zap.Logger) *Advancer {
	return &Advancer{db: db, tournaments: tournaments, locks: locks, logger: logger}
}

// Advance propagates the winner of a finished match. It runs on the caller's
// transaction so the finish and the placement commit or fail together. Every
// check happens before the first write, so a returned error leaves q untouched.
func (a *Advancer) Advance(ctx context.Context, q sqlx.ExtContext, matchID, winnerID uuid.UUID) (*AdvanceOutcome, error) {
	match, err := a.tournaments.GetMatch(ctx, q, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != bracket.MatchFinished {
		return nil, errors.Wrapf(bracket.ErrValidation, "match %s is %s, only finished matches advance", matchID, match.Status)
	}
	if _, ok := match.SlotOf(winnerID); !ok || !match.IsWinner(winnerID) {
		return nil, errors.Wrapf(bracket.ErrValidation, "team %s is not the winner of match %s", winnerID, matchID)
	}

	tournament, err := a.tournaments.GetTournament(ctx, q, match.TournamentID)
	if err != nil {
		return nil, err
	}
	return a.advance(ctx, q, tournament, match, winnerID)
}

func (a *Advancer) advance(ctx context.Context, q sqlx.ExtContext, tournament *bracket.Tournament, match *bracket.Match, winnerID uuid.UUID) (*AdvanceOutcome, error) {
	nextRound, terminal, err := bracket.NextRound(tournament.TeamCount, match.Round)
	if err != nil {
		return nil, errors.Wrapf(err, "advance match %s", match.ID)
	}
	if terminal {
		return &AdvanceOutcome{Kind: AdvanceTerminal}, nil
	}

	seq, slot := bracket.Target(match.SequenceNumber)
	target, err := a.tournaments.FindMatch(ctx, q, tournament.ID, nextRound, seq)
	if err != nil {
		return nil, err
	}

	if target == nil {
		shell := &bracket.Match{
			ID:             uuid.New(),
			TournamentID:   tournament.ID,
			Round:          nextRound,
			SequenceNumber: seq,
			Status:         bracket.MatchPending,
		}
		shell.SetSlot(slot, &winnerID)
		if err := a.tournaments.CreateMatch(ctx, q, shell); err != nil {
			return nil, err
		}
		return &AdvanceOutcome{Kind: AdvanceCreated, Target: shell, Slot: slot}, nil
	}

	current := target.SlotTeam(slot)
	other := target.SlotTeam(slot.Other())

	switch {
	case current == nil:
		if other != nil && *other == winnerID {
			return nil, errors.Wrapf(bracket.ErrIntegrity, "team %s already holds the other slot of %s #%d", winnerID, nextRound, seq)
		}
		if err := a.tournaments.SetMatchSlot(ctx, q, target.ID, slot, &winnerID); err != nil {
			return nil, err
		}
		target.SetSlot(slot, &winnerID)
		return &AdvanceOutcome{Kind: AdvancePlaced, Target: target, Slot: slot}, nil

	case *current == winnerID:
		return &AdvanceOutcome{Kind: AdvanceUnchanged, Target: target, Slot: slot}, nil
	}

	// Any other occupant is stale, whoever put it there.
	return a.replace(ctx, q, match, target, slot, winnerID)
}

// replace overwrites a slot holding some other team than winnerID, typically
// a winner that propagated before a reopen. Only a finished target or the
// winner already sitting in the other slot stops it.
func (a *Advancer) replace(ctx context.Context, q sqlx.ExtContext, match, target *bracket.Match, slot bracket.Slot, winnerID uuid.UUID) (*AdvanceOutcome, error) {
	stale := *target.SlotTeam(slot)
	if target.Status == bracket.MatchFinished {
		return nil, errors.Wrapf(bracket.ErrIntegrity,
			"%s #%d is already finished with team %s in slot %s, winner of match %s cannot replace it; reopen it first",
			target.Round, target.SequenceNumber, stale, slot, match.ID)
	}
	if other := target.SlotTeam(slot.Other()); other != nil && *other == winnerID {
		return nil, errors.Wrapf(bracket.ErrIntegrity, "team %s already holds the other slot of %s #%d", winnerID, target.Round, target.SequenceNumber)
	}

	result, err := a.tournaments.GetResult(ctx, q, target.ID)
	if err != nil {
		return nil, err
	}

	if err := a.tournaments.SetMatchSlot(ctx, q, target.ID, slot, &winnerID); err != nil {
		return nil, err
	}
	target.SetSlot(slot, &winnerID)

	if result != nil {
		if err := a.tournaments.DeleteResult(ctx, q, target.ID); err != nil {
			return nil, err
		}
		a.logger.Warn("cleared stale result of downstream match",
			zap.Stringer("target_id", target.ID),
			zap.Int("goals_a", result.GoalsA),
			zap.Int("goals_b", result.GoalsB),
		)
	}

	a.logger.Warn("replaced downstream winner",
		zap.Stringer("match_id", match.ID),
		zap.Stringer("target_id", target.ID),
		zap.String("slot", string(slot)),
		zap.Stringer("old", stale),
		zap.Stringer("new", winnerID),
	)
	return &AdvanceOutcome{Kind: AdvanceReplaced, Target: target, Slot: slot}, nil
}

// checkReopen refuses to reopen a match whose winner already played and
// finished the next round.
func (a *Advancer) checkReopen(ctx context.Context, q sqlx.ExtContext, tournament *bracket.Tournament, match *bracket.Match) error {
	if match.Status != bracket.MatchFinished || match.WinnerID == nil {
		return nil
	}
	nextRound, terminal, err := bracket.NextRound(tournament.TeamCount, match.Round)
	if err != nil || terminal {
		return err
	}
	seq, slot := bracket.Target(match.SequenceNumber)
	target, err := a.tournaments.FindMatch(ctx, q, tournament.ID, nextRound, seq)
	if err != nil || target == nil {
		return err
	}
	if target.Status == bracket.MatchFinished && target.SlotTeam(slot) != nil && *target.SlotTeam(slot) == *match.WinnerID {
		return errors.Wrapf(bracket.ErrIntegrity,
			"winner of match %s already finished %s #%d; reopen that match first",
			match.ID, nextRound, seq)
	}
	return nil
}

// ReconcileReport lists what a reconciliation pass found.
type ReconcileReport struct {
	Checked   int              `json:"checked"`
	Repaired  []AdvanceOutcome `json:"repaired,omitempty"`
	Conflicts []string         `json:"conflicts,omitempty"`
}

// Reconcile re-derives placements from every finished match of the tournament
// in round order, filling in whatever never propagated. Integrity conflicts
// are collected instead of aborting the pass.
func (a *Advancer) Reconcile(ctx context.Context, tournamentID uuid.UUID) (*ReconcileReport, error) {
	unlock := a.locks.Lock(tournamentID)
	defer unlock()

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "begin reconcile"), bracket.ErrStorage)
	}
	defer tx.Rollback()

	tournament, err := a.tournaments.GetTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	matches, err := a.tournaments.GetMatches(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{}
	for i := range matches {
		m := &matches[i]
		if m.Status != bracket.MatchFinished || m.WinnerID == nil || m.Round == bracket.Final {
			continue
		}
		report.Checked++

		outcome, err := a.advance(ctx, tx, tournament, m, *m.WinnerID)
		switch {
		case errors.Is(err, bracket.ErrIntegrity):
			report.Conflicts = append(report.Conflicts, err.Error())
			continue
		case err != nil:
			return nil, err
		}
		if outcome.Changed() {
			report.Repaired = append(report.Repaired, *outcome)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "commit reconcile"), bracket.ErrStorage)
	}

	a.logger.Info("bracket reconciled",
		zap.Stringer("tournament_id", tournamentID),
		zap.Int("checked", report.Checked),
		zap.Int("repaired", len(report.Repaired)),
		zap.Int("conflicts", len(report.Conflicts)),
	)
	return report, nil
}
