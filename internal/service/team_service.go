package service

import (
	"context"
	"strings"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/AdamBeresnev/school-cup/internal/emblem"
	"github.com/AdamBeresnev/school-cup/internal/store"
	"github.com/AdamBeresnev/school-cup/internal/utils"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// TeamService registers teams, players and referees.
type TeamService struct {
	db     *sqlx.DB
	store  *store.TeamStore
	logger *zap.Logger
}

func NewTeamService(db *sqlx.DB, store *store.TeamStore, logger *zap.Logger) *TeamService {
	return &TeamService{db: db, store: store, logger: logger}
}

type TeamInput struct {
	Name       string `json:"name" validate:"required,max=50"`
	Season     string `json:"season" validate:"required,max=20"`
	Color      string `json:"color" validate:"required,teamcolor"`
	EmblemPath string `json:"emblem_path" validate:"omitempty,max=255"`
}

type PlayerInput struct {
	FirstName   string           `json:"first_name" validate:"required,max=50"`
	LastName    string           `json:"last_name" validate:"required,max=50"`
	Season      string           `json:"season" validate:"max=20"`
	Position    bracket.Position `json:"position" validate:"required,oneof=goalkeeper defender midfielder forward"`
	ShirtNumber *int             `json:"shirt_number,omitempty" validate:"omitempty,min=1,max=99"`
	IsCaptain   bool             `json:"is_captain"`
}

type RefereeInput struct {
	FirstName       string `json:"first_name" validate:"required,max=50"`
	LastName        string `json:"last_name" validate:"required,max=50"`
	ExperienceYears int    `json:"experience_years" validate:"min=0,max=60"`
	Category        string `json:"category" validate:"required,oneof=regional national international"`
}

func (in TeamInput) team(id uuid.UUID) (*bracket.Team, error) {
	path := utils.StringOrNil(in.EmblemPath)
	if !emblem.Valid(path) {
		return nil, errors.Wrapf(bracket.ErrValidation, "emblem %q is not an svg, png, jpg, gif or webp image", in.EmblemPath)
	}
	if path != nil {
		cleaned := emblem.Inspect(path).Path
		path = &cleaned
	}
	return &bracket.Team{
		ID:         id,
		Name:       in.Name,
		Season:     in.Season,
		Color:      in.Color,
		EmblemPath: path,
	}, nil
}

func (s *TeamService) CreateTeam(ctx context.Context, in TeamInput) (*bracket.Team, error) {
	if err := validateInput(ctx, in); err != nil {
		return nil, err
	}
	team, err := in.team(uuid.New())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateTeam(ctx, s.db, team); err != nil {
		return nil, err
	}
	s.logger.Info("team created", zap.Stringer("team_id", team.ID), zap.String("name", team.Name))
	return team, nil
}

func (s *TeamService) UpdateTeam(ctx context.Context, id uuid.UUID, in TeamInput) (*bracket.Team, error) {
	if err := validateInput(ctx, in); err != nil {
		return nil, err
	}
	team, err := in.team(id)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateTeam(ctx, s.db, team); err != nil {
		return nil, err
	}
	return team, nil
}

// DeleteTeam removes a team along with its players and every match it is in.
func (s *TeamService) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteTeam(ctx, s.db, id); err != nil {
		return err
	}
	s.logger.Info("team deleted", zap.Stringer("team_id", id))
	return nil
}

func (s *TeamService) GetTeam(ctx context.Context, id uuid.UUID) (*bracket.Team, error) {
	return s.store.GetTeam(ctx, s.db, id)
}

func (s *TeamService) ListTeams(ctx context.Context) ([]bracket.Team, error) {
	return s.store.ListTeams(ctx, s.db)
}

// SearchTeams filters by name or season; blank text lists every team.
func (s *TeamService) SearchTeams(ctx context.Context, text string) ([]bracket.Team, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.store.ListTeams(ctx, s.db)
	}
	return s.store.SearchTeams(ctx, s.db, text)
}

// UsedEmblems lets the team form steer away from emblems already taken.
func (s *TeamService) UsedEmblems(ctx context.Context) ([]string, error) {
	return s.store.UsedEmblems(ctx, s.db)
}

// AddPlayer creates a player on the team's roster.
func (s *TeamService) AddPlayer(ctx context.Context, teamID uuid.UUID, in PlayerInput) (*bracket.Player, error) {
	if err := validateInput(ctx, in); err != nil {
		return nil, err
	}

	roster, err := s.store.ListPlayers(ctx, s.db, teamID)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		// an empty roster may also mean the team does not exist
		if _, err := s.store.GetTeam(ctx, s.db, teamID); err != nil {
			return nil, err
		}
	}
	if err := checkRoster(roster, uuid.Nil, in); err != nil {
		return nil, err
	}

	player := &bracket.Player{
		ID:          uuid.New(),
		TeamID:      &teamID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Season:      in.Season,
		Position:    in.Position,
		ShirtNumber: in.ShirtNumber,
		IsCaptain:   in.IsCaptain,
	}
	if err := s.store.CreatePlayer(ctx, s.db, player); err != nil {
		return nil, err
	}
	return player, nil
}

// UpdatePlayer rewrites a player's details. Team membership changes go
// through AssignPlayer.
func (s *TeamService) UpdatePlayer(ctx context.Context, id uuid.UUID, in PlayerInput) (*bracket.Player, error) {
	if err := validateInput(ctx, in); err != nil {
		return nil, err
	}
	player, err := s.store.GetPlayer(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if player.TeamID != nil {
		roster, err := s.store.ListPlayers(ctx, s.db, *player.TeamID)
		if err != nil {
			return nil, err
		}
		if err := checkRoster(roster, id, in); err != nil {
			return nil, err
		}
	}

	player.FirstName = in.FirstName
	player.LastName = in.LastName
	player.Season = in.Season
	player.Position = in.Position
	player.ShirtNumber = in.ShirtNumber
	player.IsCaptain = in.IsCaptain
	if err := s.store.UpdatePlayer(ctx, s.db, player); err != nil {
		return nil, err
	}
	return player, nil
}

// checkRoster rejects a second captain or a taken shirt number. self is
// skipped so a player can keep their own number.
func checkRoster(roster []bracket.Player, self uuid.UUID, in PlayerInput) error {
	for _, p := range roster {
		if p.ID == self {
			continue
		}
		if in.IsCaptain && p.IsCaptain {
			return errors.Wrapf(bracket.ErrValidation, "%s %s is already captain", p.FirstName, p.LastName)
		}
		if in.ShirtNumber != nil && utils.PtrEqual(p.ShirtNumber, in.ShirtNumber) {
			return errors.Wrapf(bracket.ErrValidation, "shirt number %d is taken", *in.ShirtNumber)
		}
	}
	return nil
}

// AssignPlayer moves an existing player to another team, or frees them when
// teamID is nil.
func (s *TeamService) AssignPlayer(ctx context.Context, playerID uuid.UUID, teamID *uuid.UUID) error {
	if teamID != nil {
		if _, err := s.store.GetTeam(ctx, s.db, *teamID); err != nil {
			return err
		}
	}
	return s.store.AssignPlayer(ctx, s.db, playerID, teamID)
}

func (s *TeamService) ListPlayers(ctx context.Context, teamID uuid.UUID) ([]bracket.Player, error) {
	return s.store.ListPlayers(ctx, s.db, teamID)
}

func (s *TeamService) ListFreePlayers(ctx context.Context) ([]bracket.Player, error) {
	return s.store.ListFreePlayers(ctx, s.db)
}

func (s *TeamService) CreateReferee(ctx context.Context, in RefereeInput) (*bracket.Referee, error) {
	if err := validateInput(ctx, in); err != nil {
		return nil, err
	}
	referee := &bracket.Referee{
		ID:              uuid.New(),
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		ExperienceYears: in.ExperienceYears,
		Category:        in.Category,
	}
	if err := s.store.CreateReferee(ctx, s.db, referee); err != nil {
		return nil, err
	}
	return referee, nil
}

func (s *TeamService) UpdateReferee(ctx context.Context, id uuid.UUID, in RefereeInput) (*bracket.Referee, error) {
	if err := validateInput(ctx, in); err != nil {
		return nil, err
	}
	referee := &bracket.Referee{
		ID:              id,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		ExperienceYears: in.ExperienceYears,
		Category:        in.Category,
	}
	if err := s.store.UpdateReferee(ctx, s.db, referee); err != nil {
		return nil, err
	}
	return referee, nil
}

func (s *TeamService) ListReferees(ctx context.Context) ([]bracket.Referee, error) {
	return s.store.ListReferees(ctx, s.db)
}
