package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/AdamBeresnev/school-cup/internal/service"
	"github.com/AdamBeresnev/school-cup/internal/utils"
	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

type teamTemplate struct {
	name, season, emblem, color string
}

var teamTemplates = []teamTemplate{
	{"Tigers", "2nd DAM", "tiger.png", "#FF6B00"},
	{"Eagles FC", "1st DAM", "eagle.png", "#0066CC"},
	{"Lions United", "2nd Bachillerato", "lion.png", "#FFD700"},
	{"Dragons FC", "1st Bachillerato", "dragon.png", "#DC143C"},
	{"Wolves", "4th ESO", "wolf.png", "#808080"},
	{"Panthers", "3rd ESO", "panther.png", "#000000"},
	{"Hawks", "2nd ESO", "hawk.png", "#4169E1"},
	{"Bears FC", "1st ESO", "bear.png", "#8B4513"},
}

var (
	firstNames = []string{
		"Carlos", "Miguel", "David", "Juan", "Pedro", "Luis", "Javier", "Daniel",
		"Sergio", "Pablo", "Jorge", "Diego", "Hugo", "Mario", "Lucas", "Mateo",
	}
	lastNames = []string{
		"Garcia", "Rodriguez", "Martinez", "Lopez", "Sanchez", "Perez", "Gomez",
		"Fernandez", "Diaz", "Alvarez", "Moreno", "Jimenez", "Ruiz", "Hernandez",
	}
	positions = []bracket.Position{bracket.Goalkeeper, bracket.Defender, bracket.Midfielder, bracket.Forward}
)

var referees = []service.RefereeInput{
	{FirstName: "Jose Luis", LastName: "Martinez Lopez", ExperienceYears: 5, Category: "regional"},
	{FirstName: "Antonio", LastName: "Garcia Sanchez", ExperienceYears: 8, Category: "national"},
	{FirstName: "Carlos", LastName: "Fernandez Ruiz", ExperienceYears: 3, Category: "regional"},
	{FirstName: "Manuel", LastName: "Rodriguez Perez", ExperienceYears: 10, Category: "international"},
	{FirstName: "Francisco", LastName: "Lopez Gonzalez", ExperienceYears: 6, Category: "national"},
}

// Summary counts the rows a run created. Failed rows are logged and skipped.
type Summary struct {
	Teams    int
	Existing int
	Players  int
	Referees int
	Failed   int
}

// Seeder fills an empty database with teams, full rosters and referees.
// Nothing is rolled back: a failed row is logged and the run goes on.
type Seeder struct {
	teams   *service.TeamService
	logger  *zap.Logger
	workers int

	mu  sync.Mutex
	rng *rand.Rand
}

func New(teams *service.TeamService, logger *zap.Logger, workers int, rng *rand.Rand) *Seeder {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Seeder{teams: teams, logger: logger, workers: workers, rng: rng}
}

func (s *Seeder) Run(ctx context.Context, teamCount int) (Summary, error) {
	existing, err := s.teams.ListTeams(ctx)
	if err != nil {
		return Summary{}, errors.Wrap(err, "list existing teams")
	}
	taken := make(map[string]bool, len(existing))
	for _, t := range existing {
		taken[t.Name] = true
	}

	var teams, skipped, players, failed atomic.Int32

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return Summary{}, errors.Wrap(err, "create worker pool")
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for i := range teamCount {
		tmpl := templateFor(i)
		if taken[tmpl.name] {
			s.logger.Warn("team already exists", zap.String("team", tmpl.name))
			skipped.Add(1)
			continue
		}

		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			created, rosterFailed := s.seedTeam(ctx, tmpl)
			if created < 0 {
				failed.Add(1)
				return
			}
			teams.Add(1)
			players.Add(int32(created))
			failed.Add(int32(rosterFailed))
		}); err != nil {
			workers.Done()
			failed.Add(1)
			s.logger.Error("submit seed task", zap.String("team", tmpl.name), zap.Error(err))
		}
	}
	workers.Wait()

	summary := Summary{
		Teams:    int(teams.Load()),
		Existing: int(skipped.Load()),
		Players:  int(players.Load()),
		Failed:   int(failed.Load()),
	}

	for _, in := range referees {
		if _, err := s.teams.CreateReferee(ctx, in); err != nil {
			summary.Failed++
			s.logger.Error("create referee", zap.String("referee", in.FirstName+" "+in.LastName), zap.Error(err))
			continue
		}
		summary.Referees++
	}

	s.logger.Info("seed finished",
		zap.Int("teams", summary.Teams),
		zap.Int("existing", summary.Existing),
		zap.Int("players", summary.Players),
		zap.Int("referees", summary.Referees),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// seedTeam creates the team and 7 to 9 players. It returns -1 players when
// the team itself could not be created.
func (s *Seeder) seedTeam(ctx context.Context, tmpl teamTemplate) (created, failed int) {
	team, err := s.teams.CreateTeam(ctx, service.TeamInput{
		Name:       tmpl.name,
		Season:     tmpl.season,
		Color:      tmpl.color,
		EmblemPath: tmpl.emblem,
	})
	if err != nil {
		s.logger.Error("create team", zap.String("team", tmpl.name), zap.Error(err))
		return -1, 0
	}

	rosterSize := bracket.MinRosterSize + s.intN(3)
	for j := range rosterSize {
		first, last := s.playerName()
		_, err := s.teams.AddPlayer(ctx, team.ID, service.PlayerInput{
			FirstName:   first,
			LastName:    last,
			Season:      tmpl.season,
			Position:    positions[j%len(positions)],
			ShirtNumber: utils.Ptr(j + 1),
			IsCaptain:   j == 0,
		})
		if err != nil {
			failed++
			s.logger.Error("create player", zap.String("team", tmpl.name), zap.String("player", first+" "+last), zap.Error(err))
			continue
		}
		created++
	}
	return created, failed
}

// templateFor cycles the base teams, numbering the later laps.
func templateFor(i int) teamTemplate {
	tmpl := teamTemplates[i%len(teamTemplates)]
	if lap := i / len(teamTemplates); lap > 0 {
		tmpl.name = fmt.Sprintf("%s %d", tmpl.name, lap+1)
	}
	return tmpl
}

func (s *Seeder) playerName() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := firstNames[s.rng.IntN(len(firstNames))]
	last := lastNames[s.rng.IntN(len(lastNames))] + " " + lastNames[s.rng.IntN(len(lastNames))]
	return first, last
}

func (s *Seeder) intN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
