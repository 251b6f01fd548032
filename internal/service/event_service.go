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

type EventInput struct {
	PlayerID uuid.UUID         `json:"player_id" validate:"required"`
	Kind     bracket.EventKind `json:"kind" validate:"required,oneof=goal yellow_card red_card"`
	Minute   *int              `json:"minute,omitempty" validate:"omitempty,min=0,max=150"`
}

// EventService keeps the goal and card log of each match and the player
// season totals derived from it. It never touches the bracket.
type EventService struct {
	db      *sqlx.DB
	events  *store.EventStore
	teams   *store.TeamStore
	matches *store.TournamentStore
	logger  *zap.Logger
}

func NewEventService(db *sqlx.DB, events *store.EventStore, teams *store.TeamStore, matches *store.TournamentStore, logger *zap.Logger) *EventService {
	return &EventService{db: db, events: events, teams: teams, matches: matches, logger: logger}
}

// RecordEvents replaces the whole log of a match.
func (s *EventService) RecordEvents(ctx context.Context, matchID uuid.UUID, inputs []EventInput) ([]bracket.Event, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "begin record events"), bracket.ErrStorage)
	}
	defer tx.Rollback()

	match, err := s.matches.GetMatch(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	tournament, err := s.matches.GetTournament(ctx, tx, match.TournamentID)
	if err != nil {
		return nil, err
	}
	if !tournament.IsActive() {
		return nil, errors.Wrapf(bracket.ErrValidation, "tournament %q is finished", tournament.Name)
	}

	events, err := s.replace(ctx, tx, match, inputs)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "commit record events"), bracket.ErrStorage)
	}
	return events, nil
}

func (s *EventService) ListEvents(ctx context.Context, matchID uuid.UUID) ([]bracket.Event, error) {
	return s.events.ListEvents(ctx, s.db, matchID)
}

// replace validates the log against the match line-up and writes it on q.
func (s *EventService) replace(ctx context.Context, q sqlx.ExtContext, match *bracket.Match, inputs []EventInput) ([]bracket.Event, error) {
	if match.Status == bracket.MatchPending || match.Status == bracket.MatchCancelled {
		return nil, errors.Wrapf(bracket.ErrValidation, "match %s is %s, events need a started match", match.ID, match.Status)
	}

	events := make([]bracket.Event, len(inputs))
	for i, in := range inputs {
		if err := validateInput(ctx, in); err != nil {
			return nil, errors.Wrapf(err, "event %d", i+1)
		}
		player, err := s.teams.GetPlayer(ctx, q, in.PlayerID)
		if err != nil {
			return nil, err
		}
		if player.TeamID == nil {
			return nil, errors.Wrapf(bracket.ErrValidation, "player %s has no team", player.ID)
		}
		if _, ok := match.SlotOf(*player.TeamID); !ok {
			return nil, errors.Wrapf(bracket.ErrValidation, "player %s does not play for either team of match %s", player.ID, match.ID)
		}
		events[i] = bracket.Event{
			ID:       uuid.New(),
			MatchID:  match.ID,
			PlayerID: in.PlayerID,
			Kind:     in.Kind,
			Minute:   in.Minute,
		}
	}

	affected, err := s.events.ReplaceEvents(ctx, q, match.ID, events)
	if err != nil {
		return nil, err
	}
	if err := s.events.RefreshPlayerTotals(ctx, q, affected); err != nil {
		return nil, err
	}

	s.logger.Debug("match events replaced",
		zap.Stringer("match_id", match.ID),
		zap.Int("events", len(events)),
		zap.Int("players_refreshed", len(affected)),
	)
	return events, nil
}
