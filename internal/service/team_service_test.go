package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/AdamBeresnev/school-cup/internal/utils"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTeam(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	team, err := svc.Teams.CreateTeam(ctx, TeamInput{
		Name:       "Lions",
		Season:     "2026",
		Color:      "#FFAA00",
		EmblemPath: `emblems\lions.svg`,
	})
	require.NoError(t, err)
	require.NotNil(t, team.EmblemPath)
	assert.Equal(t, "emblems/lions.svg", *team.EmblemPath)

	fetched, err := svc.Teams.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lions", fetched.Name)

	tests := []struct {
		name  string
		input TeamInput
	}{
		{"missing name", TeamInput{Season: "2026", Color: "#FFAA00"}},
		{"short color", TeamInput{Name: "Owls", Season: "2026", Color: "#FA0"}},
		{"named color", TeamInput{Name: "Owls", Season: "2026", Color: "red"}},
		{"emblem not an image", TeamInput{Name: "Owls", Season: "2026", Color: "#FFAA00", EmblemPath: "emblems/owls.exe"}},
		{"duplicate name", TeamInput{Name: "Lions", Season: "2027", Color: "#000000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Teams.CreateTeam(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, bracket.ErrValidation), "got %v", err)
		})
	}
}

func TestUpdateTeam(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	team, err := svc.Teams.CreateTeam(ctx, TeamInput{Name: "Lions", Season: "2026", Color: "#FFAA00"})
	require.NoError(t, err)

	updated, err := svc.Teams.UpdateTeam(ctx, team.ID, TeamInput{Name: "Lions FC", Season: "2026", Color: "#00AAFF", EmblemPath: "lions.png"})
	require.NoError(t, err)
	assert.Equal(t, "Lions FC", updated.Name)

	fetched, err := svc.Teams.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, "#00AAFF", fetched.Color)
	assert.Equal(t, "lions.png", utils.OrZero(fetched.EmblemPath))

	_, err = svc.Teams.UpdateTeam(ctx, uuid.New(), TeamInput{Name: "Ghosts", Season: "2026", Color: "#FFFFFF"})
	assert.True(t, errors.Is(err, bracket.ErrNotFound))
}

func TestAddPlayer(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	teamID := seedTeam(t, svc, "Lions", 3)

	_, err := svc.Teams.AddPlayer(ctx, teamID, PlayerInput{FirstName: "Ana", LastName: "Ruiz", Position: bracket.Forward, IsCaptain: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, bracket.ErrValidation), "a team has one captain")

	_, err = svc.Teams.AddPlayer(ctx, teamID, PlayerInput{FirstName: "Ana", LastName: "Ruiz", Position: bracket.Forward, ShirtNumber: utils.Ptr(2)})
	assert.True(t, errors.Is(err, bracket.ErrValidation), "shirt 2 is taken")

	_, err = svc.Teams.AddPlayer(ctx, teamID, PlayerInput{FirstName: "Ana", LastName: "Ruiz", Position: "striker"})
	assert.True(t, errors.Is(err, bracket.ErrValidation))

	_, err = svc.Teams.AddPlayer(ctx, teamID, PlayerInput{FirstName: "Ana", LastName: "Ruiz", Position: bracket.Forward, ShirtNumber: utils.Ptr(100)})
	assert.True(t, errors.Is(err, bracket.ErrValidation))

	// players without a number never clash
	for range 2 {
		_, err = svc.Teams.AddPlayer(ctx, teamID, PlayerInput{FirstName: "Ana", LastName: "Ruiz", Position: bracket.Goalkeeper})
		require.NoError(t, err)
	}

	players, err := svc.Teams.ListPlayers(ctx, teamID)
	require.NoError(t, err)
	assert.Len(t, players, 5)

	_, err = svc.Teams.AddPlayer(ctx, uuid.New(), PlayerInput{FirstName: "Ana", LastName: "Ruiz", Position: bracket.Forward})
	assert.True(t, errors.Is(err, bracket.ErrNotFound))
}

func TestAssignPlayer(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	lions := seedTeam(t, svc, "Lions", 2)
	owls := seedTeam(t, svc, "Owls", 0)

	players, err := svc.Teams.ListPlayers(ctx, lions)
	require.NoError(t, err)

	require.NoError(t, svc.Teams.AssignPlayer(ctx, players[1].ID, &owls))
	moved, err := svc.Teams.ListPlayers(ctx, owls)
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, players[1].ID, moved[0].ID)

	require.NoError(t, svc.Teams.AssignPlayer(ctx, players[1].ID, nil))
	moved, err = svc.Teams.ListPlayers(ctx, owls)
	require.NoError(t, err)
	assert.Empty(t, moved)

	err = svc.Teams.AssignPlayer(ctx, players[0].ID, utils.Ptr(uuid.New()))
	assert.True(t, errors.Is(err, bracket.ErrNotFound))

	err = svc.Teams.AssignPlayer(ctx, uuid.New(), &owls)
	assert.True(t, errors.Is(err, bracket.ErrNotFound))
}

func TestDeleteTeamCascades(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	teamID := seedTeam(t, svc, "Lions", 7)

	require.NoError(t, svc.Teams.DeleteTeam(ctx, teamID))

	_, err := svc.Teams.GetTeam(ctx, teamID)
	assert.True(t, errors.Is(err, bracket.ErrNotFound))

	players, err := svc.Teams.ListPlayers(ctx, teamID)
	require.NoError(t, err)
	assert.Empty(t, players)

	err = svc.Teams.DeleteTeam(ctx, teamID)
	assert.True(t, errors.Is(err, bracket.ErrNotFound))
}

func TestReferees(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Teams.CreateReferee(ctx, RefereeInput{FirstName: "Marta", LastName: "Gil", ExperienceYears: 4, Category: "regional"})
	require.NoError(t, err)
	_, err = svc.Teams.CreateReferee(ctx, RefereeInput{FirstName: "Luis", LastName: "Abad", ExperienceYears: 12, Category: "national"})
	require.NoError(t, err)

	_, err = svc.Teams.CreateReferee(ctx, RefereeInput{FirstName: "Ines", LastName: "Mora", Category: "school"})
	assert.True(t, errors.Is(err, bracket.ErrValidation))

	_, err = svc.Teams.CreateReferee(ctx, RefereeInput{FirstName: "Ines", LastName: "Mora", ExperienceYears: -1, Category: "regional"})
	assert.True(t, errors.Is(err, bracket.ErrValidation))

	referees, err := svc.Teams.ListReferees(ctx)
	require.NoError(t, err)
	require.Len(t, referees, 2)
	assert.Equal(t, "Abad", referees[0].LastName)
}

func TestSearchTeams(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	for _, in := range []TeamInput{
		{Name: "Lions", Season: "2026", Color: "#FFAA00"},
		{Name: "Owls", Season: "2025", Color: "#222222"},
		{Name: "Half_Time", Season: "2026", Color: "#00AAFF"},
	} {
		_, err := svc.Teams.CreateTeam(ctx, in)
		require.NoError(t, err)
	}

	tests := []struct {
		text string
		want []string
	}{
		{"li", []string{"Lions"}},
		{"2025", []string{"Owls"}},
		{"_", []string{"Half_Time"}},
		{"%", nil},
		{"  ", []string{"Half_Time", "Lions", "Owls"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			teams, err := svc.Teams.SearchTeams(ctx, tt.text)
			require.NoError(t, err)
			var names []string
			for _, team := range teams {
				names = append(names, team.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestUsedEmblems(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	paths, err := svc.Teams.UsedEmblems(ctx)
	require.NoError(t, err)
	assert.Empty(t, paths)

	for _, in := range []TeamInput{
		{Name: "Lions", Season: "2026", Color: "#FFAA00", EmblemPath: "emblems/lions.svg"},
		{Name: "Owls", Season: "2026", Color: "#222222"},
		{Name: "Bears", Season: "2026", Color: "#00AAFF", EmblemPath: `emblems\bears.png`},
	} {
		_, err := svc.Teams.CreateTeam(ctx, in)
		require.NoError(t, err)
	}

	paths, err = svc.Teams.UsedEmblems(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"emblems/bears.png", "emblems/lions.svg"}, paths)
}

func TestListFreePlayers(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	lions := seedTeam(t, svc, "Lions", 2)
	players, err := svc.Teams.ListPlayers(ctx, lions)
	require.NoError(t, err)

	free, err := svc.Teams.ListFreePlayers(ctx)
	require.NoError(t, err)
	assert.Empty(t, free)

	require.NoError(t, svc.Teams.AssignPlayer(ctx, players[0].ID, nil))
	free, err = svc.Teams.ListFreePlayers(ctx)
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, players[0].ID, free[0].ID)
	assert.Nil(t, free[0].TeamID)
}

func TestUpdatePlayer(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	lions := seedTeam(t, svc, "Lions", 3)
	players, err := svc.Teams.ListPlayers(ctx, lions)
	require.NoError(t, err)
	captain, second := players[0], players[1]
	require.True(t, captain.IsCaptain)

	// keeping one's own number and armband is fine
	updated, err := svc.Teams.UpdatePlayer(ctx, second.ID, PlayerInput{FirstName: "Ana", LastName: "Ruiz", Position: bracket.Defender, ShirtNumber: utils.Ptr(2)})
	require.NoError(t, err)
	assert.Equal(t, "Ana", updated.FirstName)
	_, err = svc.Teams.UpdatePlayer(ctx, captain.ID, PlayerInput{FirstName: "Leo", LastName: "Paz", Position: bracket.Forward, ShirtNumber: utils.Ptr(1), IsCaptain: true})
	require.NoError(t, err)

	fetched, err := svc.Teams.ListPlayers(ctx, lions)
	require.NoError(t, err)
	require.Len(t, fetched, 3)
	byID := make(map[uuid.UUID]bracket.Player, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}
	assert.Equal(t, "Paz", byID[captain.ID].LastName)
	assert.True(t, byID[captain.ID].IsCaptain)
	assert.Equal(t, bracket.Defender, byID[second.ID].Position)
	assert.Equal(t, lions, *byID[second.ID].TeamID)

	tests := []struct {
		name  string
		input PlayerInput
	}{
		{"shirt taken", PlayerInput{FirstName: "Ana", LastName: "Ruiz", Position: bracket.Defender, ShirtNumber: utils.Ptr(3)}},
		{"second captain", PlayerInput{FirstName: "Ana", LastName: "Ruiz", Position: bracket.Defender, IsCaptain: true}},
		{"bad position", PlayerInput{FirstName: "Ana", LastName: "Ruiz", Position: "striker"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Teams.UpdatePlayer(ctx, second.ID, tt.input)
			assert.True(t, errors.Is(err, bracket.ErrValidation), "got %v", err)
		})
	}

	// a free player has no roster to clash with
	require.NoError(t, svc.Teams.AssignPlayer(ctx, second.ID, nil))
	_, err = svc.Teams.UpdatePlayer(ctx, second.ID, PlayerInput{FirstName: "Ana", LastName: "Ruiz", Position: bracket.Defender, ShirtNumber: utils.Ptr(3), IsCaptain: true})
	require.NoError(t, err)

	_, err = svc.Teams.UpdatePlayer(ctx, uuid.New(), PlayerInput{FirstName: "Ana", LastName: "Ruiz", Position: bracket.Defender})
	assert.True(t, errors.Is(err, bracket.ErrNotFound))
}

func TestUpdateReferee(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	referee, err := svc.Teams.CreateReferee(ctx, RefereeInput{FirstName: "Marta", LastName: "Gil", ExperienceYears: 4, Category: "regional"})
	require.NoError(t, err)

	updated, err := svc.Teams.UpdateReferee(ctx, referee.ID, RefereeInput{FirstName: "Marta", LastName: "Gil", ExperienceYears: 5, Category: "national"})
	require.NoError(t, err)
	assert.Equal(t, "national", updated.Category)

	referees, err := svc.Teams.ListReferees(ctx)
	require.NoError(t, err)
	require.Len(t, referees, 1)
	assert.Equal(t, 5, referees[0].ExperienceYears)
	assert.Equal(t, "national", referees[0].Category)

	_, err = svc.Teams.UpdateReferee(ctx, referee.ID, RefereeInput{FirstName: "Marta", LastName: "Gil", Category: "school"})
	assert.True(t, errors.Is(err, bracket.ErrValidation))

	_, err = svc.Teams.UpdateReferee(ctx, uuid.New(), RefereeInput{FirstName: "Ines", LastName: "Mora", Category: "regional"})
	assert.True(t, errors.Is(err, bracket.ErrNotFound))
}
