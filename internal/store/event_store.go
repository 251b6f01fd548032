package store

import (
	"context"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// EventStore keeps the per-match log of goals and cards.
type EventStore struct {
	db *sqlx.DB
}

const (
	deleteEventsQuery = "DELETE FROM events WHERE match_id = ?"
	createEventsQuery = `
		INSERT INTO events (id, match_id, player_id, kind, minute) VALUES
		(:id, :match_id, :player_id, :kind, :minute)
	`
	listEventsQuery   = "SELECT * FROM events WHERE match_id = ? ORDER BY minute IS NULL, minute, created_at"
	eventPlayersQuery = "SELECT DISTINCT player_id FROM events WHERE match_id = ?"

	// Season totals are derived from the whole log so a replaced match
	// log never leaves stale counts behind.
	refreshTotalsQuery = `
		UPDATE players SET
		goals = (SELECT COUNT(*) FROM events WHERE player_id = players.id AND kind = 'goal'),
		yellow_cards = (SELECT COUNT(*) FROM events WHERE player_id = players.id AND kind = 'yellow_card'),
		red_cards = (SELECT COUNT(*) FROM events WHERE player_id = players.id AND kind = 'red_card')
		WHERE id IN (?)
	`
)

func NewEventStore(db *sqlx.DB) *EventStore {
	return &EventStore{db: db}
}

// ReplaceEvents swaps the match's log for events and returns the players
// whose totals are affected, old log and new log combined.
func (s *EventStore) ReplaceEvents(ctx context.Context, q sqlx.ExtContext, matchID uuid.UUID, events []bracket.Event) ([]uuid.UUID, error) {
	var previous []uuid.UUID
	if err := sqlx.SelectContext(ctx, q, &previous, eventPlayersQuery, matchID); err != nil {
		return nil, wrapErr(err, "event players of match %s", matchID)
	}

	if _, err := q.ExecContext(ctx, deleteEventsQuery, matchID); err != nil {
		return nil, wrapErr(err, "clear events of match %s", matchID)
	}

	touched := make(map[uuid.UUID]struct{}, len(previous)+len(events))
	affected := make([]uuid.UUID, 0, len(previous)+len(events))
	add := func(id uuid.UUID) {
		if _, ok := touched[id]; ok {
			return
		}
		touched[id] = struct{}{}
		affected = append(affected, id)
	}
	for _, id := range previous {
		add(id)
	}

	if len(events) > 0 {
		for i := range events {
			events[i].MatchID = matchID
			add(events[i].PlayerID)
		}
		if _, err := sqlx.NamedExecContext(ctx, q, createEventsQuery, events); err != nil {
			return nil, wrapErr(err, "record %d events of match %s", len(events), matchID)
		}
	}
	return affected, nil
}

func (s *EventStore) ListEvents(ctx context.Context, q sqlx.QueryerContext, matchID uuid.UUID) ([]bracket.Event, error) {
	var events []bracket.Event
	err := sqlx.SelectContext(ctx, q, &events, listEventsQuery, matchID)
	return events, wrapErr(err, "events of match %s", matchID)
}

// RefreshPlayerTotals recomputes goal and card counters of the given players.
func (s *EventStore) RefreshPlayerTotals(ctx context.Context, q sqlx.ExtContext, playerIDs []uuid.UUID) error {
	if len(playerIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(refreshTotalsQuery, playerIDs)
	if err != nil {
		return wrapErr(err, "expand player ids")
	}
	_, err = q.ExecContext(ctx, q.Rebind(query), args...)
	return wrapErr(err, "refresh totals of %d players", len(playerIDs))
}
