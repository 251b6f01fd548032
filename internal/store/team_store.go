package store

import (
	"context"
	"strings"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TeamStore holds the registry side: teams, their players and referees.
type TeamStore struct {
	db *sqlx.DB
}

const (
	getTeamQuery     = "SELECT * FROM teams WHERE id = ?"
	listTeamsQuery   = "SELECT * FROM teams ORDER BY name"
	searchTeamsQuery = "SELECT * FROM teams WHERE name LIKE ? ESCAPE '\\' OR season LIKE ? ESCAPE '\\' ORDER BY name"
	usedEmblemsQuery = "SELECT DISTINCT emblem_path FROM teams WHERE emblem_path IS NOT NULL ORDER BY emblem_path"
	teamsByIDsQuery  = "SELECT * FROM teams WHERE id IN (?)"
	createTeamQuery  = `
		INSERT INTO teams (id, name, season, color, emblem_path) VALUES
		(:id, :name, :season, :color, :emblem_path)
	`
	updateTeamQuery = `
		UPDATE teams SET
		name = :name,
		season = :season,
		color = :color,
		emblem_path = :emblem_path
		WHERE id = :id
	`
	deleteTeamQuery = "DELETE FROM teams WHERE id = ?"

	createPlayerQuery = `
		INSERT INTO players (id, team_id, first_name, last_name, season, position, shirt_number, is_captain) VALUES
		(:id, :team_id, :first_name, :last_name, :season, :position, :shirt_number, :is_captain)
	`
	updatePlayerQuery = `
		UPDATE players SET
		first_name = :first_name,
		last_name = :last_name,
		season = :season,
		position = :position,
		shirt_number = :shirt_number,
		is_captain = :is_captain
		WHERE id = :id
	`
	getPlayerQuery       = "SELECT * FROM players WHERE id = ?"
	assignPlayerQuery    = "UPDATE players SET team_id = ? WHERE id = ?"
	listPlayersQuery     = "SELECT * FROM players WHERE team_id = ? ORDER BY last_name, first_name"
	listFreePlayersQuery = "SELECT * FROM players WHERE team_id IS NULL ORDER BY last_name, first_name"
	countRosterQuery     = "SELECT COUNT(*) FROM players WHERE team_id = ?"
	createRefereeQuery   = `
		INSERT INTO referees (id, first_name, last_name, experience_years, category) VALUES
		(:id, :first_name, :last_name, :experience_years, :category)
	`
	updateRefereeQuery = `
		UPDATE referees SET
		first_name = :first_name,
		last_name = :last_name,
		experience_years = :experience_years,
		category = :category
		WHERE id = :id
	`
	getRefereeQuery   = "SELECT * FROM referees WHERE id = ?"
	listRefereesQuery = "SELECT * FROM referees ORDER BY last_name, first_name"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func NewTeamStore(db *sqlx.DB) *TeamStore {
	return &TeamStore{db: db}
}

func (s *TeamStore) DB() *sqlx.DB {
	return s.db
}

func (s *TeamStore) GetTeam(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Team, error) {
	var team bracket.Team
	if err := sqlx.GetContext(ctx, q, &team, getTeamQuery, id); err != nil {
		return nil, wrapErr(err, "team %s", id)
	}
	return &team, nil
}

func (s *TeamStore) ListTeams(ctx context.Context, q sqlx.QueryerContext) ([]bracket.Team, error) {
	var teams []bracket.Team
	err := sqlx.SelectContext(ctx, q, &teams, listTeamsQuery)
	return teams, wrapErr(err, "list teams")
}

// SearchTeams matches text anywhere in the team name or season.
func (s *TeamStore) SearchTeams(ctx context.Context, q sqlx.QueryerContext, text string) ([]bracket.Team, error) {
	pattern := "%" + likeEscaper.Replace(text) + "%"
	var teams []bracket.Team
	err := sqlx.SelectContext(ctx, q, &teams, searchTeamsQuery, pattern, pattern)
	return teams, wrapErr(err, "search teams %q", text)
}

// UsedEmblems lists the emblem paths some team already wears.
func (s *TeamStore) UsedEmblems(ctx context.Context, q sqlx.QueryerContext) ([]string, error) {
	var paths []string
	err := sqlx.SelectContext(ctx, q, &paths, usedEmblemsQuery)
	return paths, wrapErr(err, "used emblems")
}

// GetTeamsByIDs returns the teams found, keyed by id. Unknown ids are absent
// from the map.
func (s *TeamStore) GetTeamsByIDs(ctx context.Context, q sqlx.QueryerContext, ids []uuid.UUID) (map[uuid.UUID]bracket.Team, error) {
	out := make(map[uuid.UUID]bracket.Team, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(teamsByIDsQuery, ids)
	if err != nil {
		return nil, wrapErr(err, "expand team ids")
	}
	var teams []bracket.Team
	if err := sqlx.SelectContext(ctx, q, &teams, query, args...); err != nil {
		return nil, wrapErr(err, "teams by id")
	}
	for _, t := range teams {
		out[t.ID] = t
	}
	return out, nil
}

func (s *TeamStore) CreateTeam(ctx context.Context, q sqlx.ExtContext, team *bracket.Team) error {
	_, err := sqlx.NamedExecContext(ctx, q, createTeamQuery, team)
	return wrapErr(err, "create team %q", team.Name)
}

func (s *TeamStore) UpdateTeam(ctx context.Context, q sqlx.ExtContext, team *bracket.Team) error {
	res, err := sqlx.NamedExecContext(ctx, q, updateTeamQuery, team)
	if err != nil {
		return wrapErr(err, "update team %s", team.ID)
	}
	return expectOne(res, "team %s", team.ID)
}

// DeleteTeam removes the team. Its players and every match it played in go
// with it through the foreign key cascades.
func (s *TeamStore) DeleteTeam(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, deleteTeamQuery, id)
	if err != nil {
		return wrapErr(err, "delete team %s", id)
	}
	return expectOne(res, "team %s", id)
}

func (s *TeamStore) CreatePlayer(ctx context.Context, q sqlx.ExtContext, player *bracket.Player) error {
	_, err := sqlx.NamedExecContext(ctx, q, createPlayerQuery, player)
	return wrapErr(err, "create player %s %s", player.FirstName, player.LastName)
}

func (s *TeamStore) GetPlayer(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Player, error) {
	var player bracket.Player
	if err := sqlx.GetContext(ctx, q, &player, getPlayerQuery, id); err != nil {
		return nil, wrapErr(err, "player %s", id)
	}
	return &player, nil
}

func (s *TeamStore) UpdatePlayer(ctx context.Context, q sqlx.ExtContext, player *bracket.Player) error {
	res, err := sqlx.NamedExecContext(ctx, q, updatePlayerQuery, player)
	if err != nil {
		return wrapErr(err, "update player %s", player.ID)
	}
	return expectOne(res, "player %s", player.ID)
}

// AssignPlayer moves a player to teamID, or releases them when teamID is nil.
func (s *TeamStore) AssignPlayer(ctx context.Context, q sqlx.ExtContext, playerID uuid.UUID, teamID *uuid.UUID) error {
	res, err := q.ExecContext(ctx, assignPlayerQuery, teamID, playerID)
	if err != nil {
		return wrapErr(err, "assign player %s", playerID)
	}
	return expectOne(res, "player %s", playerID)
}

func (s *TeamStore) ListPlayers(ctx context.Context, q sqlx.QueryerContext, teamID uuid.UUID) ([]bracket.Player, error) {
	var players []bracket.Player
	err := sqlx.SelectContext(ctx, q, &players, listPlayersQuery, teamID)
	return players, wrapErr(err, "players of team %s", teamID)
}

// ListFreePlayers returns the players not on any team.
func (s *TeamStore) ListFreePlayers(ctx context.Context, q sqlx.QueryerContext) ([]bracket.Player, error) {
	var players []bracket.Player
	err := sqlx.SelectContext(ctx, q, &players, listFreePlayersQuery)
	return players, wrapErr(err, "players without a team")
}

func (s *TeamStore) CountRoster(ctx context.Context, q sqlx.QueryerContext, teamID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count, countRosterQuery, teamID)
	return count, wrapErr(err, "roster of team %s", teamID)
}

func (s *TeamStore) CreateReferee(ctx context.Context, q sqlx.ExtContext, referee *bracket.Referee) error {
	_, err := sqlx.NamedExecContext(ctx, q, createRefereeQuery, referee)
	return wrapErr(err, "create referee %s", referee.FullName())
}

func (s *TeamStore) UpdateReferee(ctx context.Context, q sqlx.ExtContext, referee *bracket.Referee) error {
	res, err := sqlx.NamedExecContext(ctx, q, updateRefereeQuery, referee)
	if err != nil {
		return wrapErr(err, "update referee %s", referee.ID)
	}
	return expectOne(res, "referee %s", referee.ID)
}

func (s *TeamStore) GetReferee(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Referee, error) {
	var referee bracket.Referee
	if err := sqlx.GetContext(ctx, q, &referee, getRefereeQuery, id); err != nil {
		return nil, wrapErr(err, "referee %s", id)
	}
	return &referee, nil
}

func (s *TeamStore) ListReferees(ctx context.Context, q sqlx.QueryerContext) ([]bracket.Referee, error) {
	var referees []bracket.Referee
	err := sqlx.SelectContext(ctx, q, &referees, listRefereesQuery)
	return referees, wrapErr(err, "list referees")
}
