package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/AdamBeresnev/school-cup/internal/store"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Roster counts run in parallel up to this many queries.
const rosterQueryLimit = 4

// RosterReport is the outcome of checking a candidate team set.
type RosterReport struct {
	Valid     bool           `json:"valid"`
	TeamCount int            `json:"team_count"`
	Message   string         `json:"message,omitempty"`
	Missing   map[string]int `json:"missing,omitempty"` // team name -> players still needed
}

// RosterError rejects a tournament start. It is a validation error.
type RosterError struct {
	Report RosterReport
}

func (e *RosterError) Error() string {
	return e.Report.Message
}

func (e *RosterError) Unwrap() error {
	return bracket.ErrValidation
}

// ErrorDetails exposes the players each team is missing.
func (e *RosterError) ErrorDetails() any {
	return e.Report.Missing
}

type RosterService struct {
	db     *sqlx.DB
	teams  *store.TeamStore
	logger *zap.Logger
}

func NewRosterService(db *sqlx.DB, teams *store.TeamStore, logger *zap.Logger) *RosterService {
	return &RosterService{db: db, teams: teams, logger: logger}
}

// ValidateTeams checks the team count and every roster. Storage failures and
// unknown teams are returned as errors; eligibility problems only show up in
// the report.
func (s *RosterService) ValidateTeams(ctx context.Context, teamIDs []uuid.UUID) (*RosterReport, error) {
	report := &RosterReport{TeamCount: len(teamIDs), Missing: map[string]int{}}

	if dup, ok := firstDuplicate(teamIDs); ok {
		report.Message = fmt.Sprintf("team %s was selected more than once", dup)
		return report, nil
	}

	sizeOK := bracket.ValidSize(len(teamIDs))
	if !sizeOK {
		report.Message = fmt.Sprintf("selected %d teams, a tournament needs %s", len(teamIDs), allowedSizesText())
	}

	teams, err := s.teams.GetTeamsByIDs(ctx, s.db, teamIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range teamIDs {
		if _, ok := teams[id]; !ok {
			return nil, errors.Wrapf(bracket.ErrNotFound, "team %s", id)
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rosterQueryLimit)
	for _, id := range teamIDs {
		g.Go(func() error {
			size, err := s.teams.CountRoster(gctx, s.db, id)
			if err != nil {
				return err
			}
			if deficit := max(0, bracket.MinRosterSize-size); deficit > 0 {
				mu.Lock()
				report.Missing[teams[id].Name] = deficit
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(report.Missing) > 0 {
		names := slices.Sorted(maps.Keys(report.Missing))
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = fmt.Sprintf("%s needs %d more", name, report.Missing[name])
		}
		msg := fmt.Sprintf("rosters below %d players: %s", bracket.MinRosterSize, strings.Join(parts, ", "))
		if report.Message != "" {
			msg = report.Message + "; " + msg
		}
		report.Message = msg
	}

	report.Valid = sizeOK && len(report.Missing) == 0
	s.logger.Debug("roster validation",
		zap.Int("teams", len(teamIDs)),
		zap.Bool("valid", report.Valid),
		zap.Int("short_rosters", len(report.Missing)),
	)
	return report, nil
}

func firstDuplicate(ids []uuid.UUID) (uuid.UUID, bool) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return uuid.Nil, false
}

func allowedSizesText() string {
	parts := make([]string, len(bracket.AllowedSizes))
	for i, n := range bracket.AllowedSizes {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " or " + parts[len(parts)-1]
}
