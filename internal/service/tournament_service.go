package service

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/AdamBeresnev/school-cup/internal/store"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type TournamentService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	teams       *store.TeamStore
	rosters     *RosterService
	locks       *tournamentLocks
	logger      *zap.Logger

	// nil draws from the global source
	rng *rand.Rand
}

func NewTournamentService(
	db *sqlx.DB,
	tournaments *store.TournamentStore,
	teams *store.TeamStore,
	rosters *RosterService,
	locks *tournamentLocks,
	logger *zap.Logger,
) *TournamentService {
	return &TournamentService{
		db:          db,
		tournaments: tournaments,
		teams:       teams,
		rosters:     rosters,
		locks:       locks,
		logger:      logger,
	}
}

// WithRand fixes the random source of the draw.
func (s *TournamentService) WithRand(rng *rand.Rand) *TournamentService {
	s.rng = rng
	return s
}

type StartTournamentInput struct {
	Name    string      `json:"name" validate:"required,max=100"`
	TeamIDs []uuid.UUID `json:"team_ids" validate:"required,dive,required"`
}

// BracketData is the tournament tree with the teams it references.
type BracketData struct {
	Tournament *bracket.Tournament        `json:"tournament"`
	Tree       *bracket.Tree              `json:"tree"`
	Teams      map[uuid.UUID]bracket.Team `json:"teams"`
}

// TeamName resolves a slot for display. Empty slots read as "TBD".
func (d *BracketData) TeamName(id *uuid.UUID) string {
	if id == nil {
		return "TBD"
	}
	if team, ok := d.Teams[*id]; ok {
		return team.Name
	}
	return id.String()
}

// StartTournament validates the selected teams, draws the first round and
// writes the tournament with all its first-round matches in one transaction.
func (s *TournamentService) StartTournament(ctx context.Context, in StartTournamentInput) (*bracket.Tournament, error) {
	if err := validateInput(ctx, in); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(uuid.Nil)
	defer unlock()

	active, err := s.tournaments.GetActiveTournament(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, errors.Wrapf(bracket.ErrValidation, "tournament %q is still active, finish it first", active.Name)
	}

	report, err := s.rosters.ValidateTeams(ctx, in.TeamIDs)
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		return nil, &RosterError{Report: *report}
	}

	pairings, err := GenerateDraw(in.TeamIDs, s.rng)
	if err != nil {
		return nil, err
	}

	size := len(in.TeamIDs)
	round, err := bracket.FirstRound(size)
	if err != nil {
		return nil, err
	}

	tournament := &bracket.Tournament{
		ID:        uuid.New(),
		Name:      in.Name,
		TeamCount: size,
		Status:    bracket.TournamentActive,
		StartedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "begin start tournament"), bracket.ErrStorage)
	}
	defer tx.Rollback()

	if err := s.tournaments.CreateTournament(ctx, tx, tournament); err != nil {
		return nil, err
	}
	if err := s.tournaments.CreateMatches(ctx, tx, firstRoundMatches(tournament.ID, round, pairings)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "commit start tournament"), bracket.ErrStorage)
	}

	s.logger.Info("tournament started",
		zap.Stringer("tournament_id", tournament.ID),
		zap.String("name", tournament.Name),
		zap.Int("teams", size),
		zap.String("first_round", string(round)),
	)
	return tournament, nil
}

// GetActiveTournament returns nil when no tournament is running.
func (s *TournamentService) GetActiveTournament(ctx context.Context) (*bracket.Tournament, error) {
	return s.tournaments.GetActiveTournament(ctx, s.db)
}

func (s *TournamentService) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return s.tournaments.GetTournament(ctx, s.db, id)
}

func (s *TournamentService) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	return s.tournaments.ListTournaments(ctx, s.db)
}

func (s *TournamentService) GetBracket(ctx context.Context, id uuid.UUID) (*BracketData, error) {
	tournament, err := s.tournaments.GetTournament(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	matches, err := s.tournaments.GetMatches(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	tree, err := bracket.BuildTree(tournament.TeamCount, matches)
	if err != nil {
		return nil, errors.Wrapf(err, "bracket of tournament %s", id)
	}

	var teamIDs []uuid.UUID
	for _, m := range matches {
		for _, teamID := range []*uuid.UUID{m.TeamAID, m.TeamBID} {
			if teamID != nil {
				teamIDs = append(teamIDs, *teamID)
			}
		}
	}
	teams, err := s.teams.GetTeamsByIDs(ctx, s.db, teamIDs)
	if err != nil {
		return nil, err
	}

	return &BracketData{Tournament: tournament, Tree: tree, Teams: teams}, nil
}

// FinishTournament closes the tournament by hand. Deciding the final never
// does this on its own.
func (s *TournamentService) FinishTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	tournament, err := s.tournaments.GetTournament(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if !tournament.IsActive() {
		return nil, errors.Wrapf(bracket.ErrValidation, "tournament %q is already finished", tournament.Name)
	}

	now := time.Now().UTC()
	if err := s.tournaments.FinishTournament(ctx, s.db, id, now); err != nil {
		return nil, err
	}
	tournament.Status = bracket.TournamentFinished
	tournament.FinishedAt = &now

	s.logger.Info("tournament finished", zap.Stringer("tournament_id", id))
	return tournament, nil
}

// Champion is the winner of the finished final.
func (s *TournamentService) Champion(ctx context.Context, id uuid.UUID) (*bracket.Team, error) {
	tournament, err := s.tournaments.GetTournament(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	final, err := s.tournaments.FindMatch(ctx, s.db, id, bracket.Final, 1)
	if err != nil {
		return nil, err
	}
	if final == nil || final.Status != bracket.MatchFinished || final.WinnerID == nil {
		return nil, errors.Wrapf(bracket.ErrNotFound, "tournament %q has no champion yet", tournament.Name)
	}
	return s.teams.GetTeam(ctx, s.db, *final.WinnerID)
}

// IsComplete reports whether no match of the tournament is still pending.
func (s *TournamentService) IsComplete(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := s.tournaments.GetTournament(ctx, s.db, id); err != nil {
		return false, err
	}
	pending, err := s.tournaments.CountMatchesByStatus(ctx, s.db, id, bracket.MatchPending)
	if err != nil {
		return false, err
	}
	return pending == 0, nil
}

func (s *TournamentService) Stats(ctx context.Context, id uuid.UUID) (*bracket.Stats, error) {
	if _, err := s.tournaments.GetTournament(ctx, s.db, id); err != nil {
		return nil, err
	}
	return s.tournaments.GetStats(ctx, s.db, id)
}
