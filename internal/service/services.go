package service

import (
	"github.com/AdamBeresnev/school-cup/internal/store"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Services is the full set of services over one database, sharing the
// per-tournament write locks.
type Services struct {
	Teams       *TeamService
	Rosters     *RosterService
	Tournaments *TournamentService
	Matches     *MatchService
	Events      *EventService
	Advancer    *Advancer
}

func New(db *sqlx.DB, logger *zap.Logger) *Services {
	tournamentStore := store.NewTournamentStore(db)
	teamStore := store.NewTeamStore(db)
	eventStore := store.NewEventStore(db)
	locks := newTournamentLocks()

	rosters := NewRosterService(db, teamStore, logger.Named("roster"))
	events := NewEventService(db, eventStore, teamStore, tournamentStore, logger.Named("events"))
	advancer := NewAdvancer(db, tournamentStore, locks, logger.Named("advance"))

	return &Services{
		Teams:       NewTeamService(db, teamStore, logger.Named("teams")),
		Rosters:     rosters,
		Tournaments: NewTournamentService(db, tournamentStore, teamStore, rosters, locks, logger.Named("tournaments")),
		Matches:     NewMatchService(db, tournamentStore, teamStore, events, advancer, locks, logger.Named("matches")),
		Events:      events,
		Advancer:    advancer,
	}
}
