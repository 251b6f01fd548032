package main

import (
	"net/http"
	"time"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/AdamBeresnev/school-cup/internal/config"
	"github.com/AdamBeresnev/school-cup/internal/httputil"
	"github.com/AdamBeresnev/school-cup/internal/middleware"
	"github.com/AdamBeresnev/school-cup/internal/service"
	"github.com/AdamBeresnev/school-cup/views"
	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type scheduleRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	RefereeID   *uuid.UUID `json:"referee_id"`
}

type assignRequest struct {
	TeamID *uuid.UUID `json:"team_id"`
}

type validateRequest struct {
	TeamIDs []uuid.UUID `json:"team_ids"`
}

func newRouter(svc *service.Services, cfg config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger(logger.Named("http")))
	r.Use(chimiddleware.Recoverer)

	// Serve static files
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	r.Handle("/emblems/*", http.StripPrefix("/emblems/", http.FileServer(http.Dir(cfg.EmblemDir))))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		active, err := svc.Tournaments.GetActiveTournament(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to get active tournament", err)
			return
		}
		if active == nil {
			views.Render(w, r, views.NoTournamentPage())
			return
		}
		data, err := svc.Tournaments.GetBracket(r.Context(), active.ID)
		if err != nil {
			httputil.InternalServerError(w, "Failed to get bracket", err)
			return
		}
		views.Render(w, r, views.BracketPage(views.PrepareBracketData(data)))
	})

	r.Route("/teams", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			teams, err := svc.Teams.SearchTeams(r.Context(), r.URL.Query().Get("q"))
			respond(w, r, http.StatusOK, teams, err)
		})
		r.Get("/emblems", func(w http.ResponseWriter, r *http.Request) {
			paths, err := svc.Teams.UsedEmblems(r.Context())
			respond(w, r, http.StatusOK, paths, err)
		})
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var in service.TeamInput
			if err := httputil.ReadJSON(w, r, &in); err != nil {
				httputil.Error(w, r, err)
				return
			}
			team, err := svc.Teams.CreateTeam(r.Context(), in)
			respond(w, r, http.StatusCreated, team, err)
		})
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				id, ok := urlID(w, r)
				if !ok {
					return
				}
				team, err := svc.Teams.GetTeam(r.Context(), id)
				respond(w, r, http.StatusOK, team, err)
			})
			r.Put("/", func(w http.ResponseWriter, r *http.Request) {
				id, ok := urlID(w, r)
				if !ok {
					return
				}
				var in service.TeamInput
				if err := httputil.ReadJSON(w, r, &in); err != nil {
					httputil.Error(w, r, err)
					return
				}
				team, err := svc.Teams.UpdateTeam(r.Context(), id, in)
				respond(w, r, http.StatusOK, team, err)
			})
			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				id, ok := urlID(w, r)
				if !ok {
					return
				}
				respond(w, r, http.StatusNoContent, nil, svc.Teams.DeleteTeam(r.Context(), id))
			})
			r.Get("/players", func(w http.ResponseWriter, r *http.Request) {
				id, ok := urlID(w, r)
				if !ok {
					return
				}
				players, err := svc.Teams.ListPlayers(r.Context(), id)
				respond(w, r, http.StatusOK, players, err)
			})
			r.Post("/players", func(w http.ResponseWriter, r *http.Request) {
				id, ok := urlID(w, r)
				if !ok {
					return
				}
				var in service.PlayerInput
				if err := httputil.ReadJSON(w, r, &in); err != nil {
					httputil.Error(w, r, err)
					return
				}
				player, err := svc.Teams.AddPlayer(r.Context(), id, in)
				respond(w, r, http.StatusCreated, player, err)
			})
		})
	})

	r.Get("/players/free", func(w http.ResponseWriter, r *http.Request) {
		players, err := svc.Teams.ListFreePlayers(r.Context())
		respond(w, r, http.StatusOK, players, err)
	})
	r.Put("/players/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r)
		if !ok {
			return
		}
		var in service.PlayerInput
		if err := httputil.ReadJSON(w, r, &in); err != nil {
			httputil.Error(w, r, err)
			return
		}
		player, err := svc.Teams.UpdatePlayer(r.Context(), id, in)
		respond(w, r, http.StatusOK, player, err)
	})
	r.Post("/players/{id}/assign", func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r)
		if !ok {
			return
		}
		var in assignRequest
		if err := httputil.ReadJSON(w, r, &in); err != nil {
			httputil.Error(w, r, err)
			return
		}
		respond(w, r, http.StatusNoContent, nil, svc.Teams.AssignPlayer(r.Context(), id, in.TeamID))
	})

	r.Get("/referees", func(w http.ResponseWriter, r *http.Request) {
		referees, err := svc.Teams.ListReferees(r.Context())
		respond(w, r, http.StatusOK, referees, err)
	})
	r.Post("/referees", func(w http.ResponseWriter, r *http.Request) {
		var in service.RefereeInput
		if err := httputil.ReadJSON(w, r, &in); err != nil {
			httputil.Error(w, r, err)
			return
		}
		referee, err := svc.Teams.CreateReferee(r.Context(), in)
		respond(w, r, http.StatusCreated, referee, err)
	})
	r.Put("/referees/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r)
		if !ok {
			return
		}
		var in service.RefereeInput
		if err := httputil.ReadJSON(w, r, &in); err != nil {
			httputil.Error(w, r, err)
			return
		}
		referee, err := svc.Teams.UpdateReferee(r.Context(), id, in)
		respond(w, r, http.StatusOK, referee, err)
	})

	r.Route("/tournaments", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			tournaments, err := svc.Tournaments.ListTournaments(r.Context())
			respond(w, r, http.StatusOK, tournaments, err)
		})
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var in service.StartTournamentInput
			if err := httputil.ReadJSON(w, r, &in); err != nil {
				httputil.Error(w, r, err)
				return
			}
			tournament, err := svc.Tournaments.StartTournament(r.Context(), in)
			respond(w, r, http.StatusCreated, tournament, err)
		})
		// dry run of the roster checks done by a start
		r.Post("/validate", func(w http.ResponseWriter, r *http.Request) {
			var in validateRequest
			if err := httputil.ReadJSON(w, r, &in); err != nil {
				httputil.Error(w, r, err)
				return
			}
			report, err := svc.Rosters.ValidateTeams(r.Context(), in.TeamIDs)
			respond(w, r, http.StatusOK, report, err)
		})
		r.Get("/active", func(w http.ResponseWriter, r *http.Request) {
			active, err := svc.Tournaments.GetActiveTournament(r.Context())
			if err == nil && active == nil {
				err = errors.Wrap(bracket.ErrNotFound, "no active tournament")
			}
			respond(w, r, http.StatusOK, active, err)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				id, ok := urlID(w, r)
				if !ok {
					return
				}
				tournament, err := svc.Tournaments.GetTournament(r.Context(), id)
				respond(w, r, http.StatusOK, tournament, err)
			})
			r.Get("/bracket", func(w http.ResponseWriter, r *http.Request) {
				id, ok := urlID(w, r)
				if !ok {
					return
				}
				data, err := svc.Tournaments.GetBracket(r.Context(), id)
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				if r.URL.Query().Get("format") == "html" {
					views.Render(w, r, views.BracketPage(views.PrepareBracketData(data)))
					return
				}
				httputil.WriteJSON(w, http.StatusOK, data)
			})
			r.Get("/champion", func(w http.ResponseWriter, r *http.Request) {
				id, ok := urlID(w, r)
				if !ok {
					return
				}
				team, err := svc.Tournaments.Champion(r.Context(), id)
				respond(w, r, http.StatusOK, team, err)
			})
			r.Get("/complete", func(w http.ResponseWriter, r *http.Request) {
				id, ok := urlID(w, r)
				if !ok {
					return
				}
				complete, err := svc.Tournaments.IsComplete(r.Context(), id)
				respond(w, r, http.StatusOK, map[string]bool{"complete": complete}, err)
			})
			r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
				id, ok := urlID(w, r)
				if !ok {
					return
				}
				stats, err := svc.Tournaments.Stats(r.Context(), id)
				respond(w, r, http.StatusOK, stats, err)
			})
			r.Post("/finish", func(w http.ResponseWriter, r *http.Request) {
				id, ok := urlID(w, r)
				if !ok {
					return
				}
				tournament, err := svc.Tournaments.FinishTournament(r.Context(), id)
				respond(w, r, http.StatusOK, tournament, err)
			})
			r.Post("/reconcile", func(w http.ResponseWriter, r *http.Request) {
				id, ok := urlID(w, r)
				if !ok {
					return
				}
				report, err := svc.Advancer.Reconcile(r.Context(), id)
				respond(w, r, http.StatusOK, report, err)
			})
		})
	})

	r.Route("/matches/{id}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := urlID(w, r)
			if !ok {
				return
			}
			match, err := svc.Matches.GetMatch(r.Context(), id)
			respond(w, r, http.StatusOK, match, err)
		})

		transitions := map[string]func(*http.Request, uuid.UUID) (*bracket.Match, error){
			"start":  func(r *http.Request, id uuid.UUID) (*bracket.Match, error) { return svc.Matches.StartMatch(r.Context(), id) },
			"cancel": func(r *http.Request, id uuid.UUID) (*bracket.Match, error) { return svc.Matches.CancelMatch(r.Context(), id) },
			"reopen": func(r *http.Request, id uuid.UUID) (*bracket.Match, error) { return svc.Matches.ReopenMatch(r.Context(), id) },
		}
		for action, fn := range transitions {
			r.Post("/"+action, func(w http.ResponseWriter, r *http.Request) {
				id, ok := urlID(w, r)
				if !ok {
					return
				}
				match, err := fn(r, id)
				respond(w, r, http.StatusOK, match, err)
			})
		}

		r.Post("/finish", func(w http.ResponseWriter, r *http.Request) {
			id, ok := urlID(w, r)
			if !ok {
				return
			}
			outcome, err := svc.Matches.FinishMatch(r.Context(), id)
			respond(w, r, http.StatusOK, outcome, err)
		})
		r.Post("/result", func(w http.ResponseWriter, r *http.Request) {
			id, ok := urlID(w, r)
			if !ok {
				return
			}
			var in service.ResultInput
			if err := httputil.ReadJSON(w, r, &in); err != nil {
				httputil.Error(w, r, err)
				return
			}
			outcome, err := svc.Matches.RecordResult(r.Context(), id, in)
			respond(w, r, http.StatusOK, outcome, err)
		})
		r.Post("/schedule", func(w http.ResponseWriter, r *http.Request) {
			id, ok := urlID(w, r)
			if !ok {
				return
			}
			var in scheduleRequest
			if err := httputil.ReadJSON(w, r, &in); err != nil {
				httputil.Error(w, r, err)
				return
			}
			match, err := svc.Matches.ScheduleMatch(r.Context(), id, in.ScheduledAt, in.RefereeID)
			respond(w, r, http.StatusOK, match, err)
		})
		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			id, ok := urlID(w, r)
			if !ok {
				return
			}
			events, err := svc.Events.ListEvents(r.Context(), id)
			respond(w, r, http.StatusOK, events, err)
		})
		r.Put("/events", func(w http.ResponseWriter, r *http.Request) {
			id, ok := urlID(w, r)
			if !ok {
				return
			}
			var in []service.EventInput
			if err := httputil.ReadJSON(w, r, &in); err != nil {
				httputil.Error(w, r, err)
				return
			}
			events, err := svc.Events.RecordEvents(r.Context(), id, in)
			respond(w, r, http.StatusOK, events, err)
		})
	})

	return r
}

// respond writes data with status, or the mapped error.
func respond(w http.ResponseWriter, r *http.Request, status int, data any, err error) {
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	httputil.WriteJSON(w, status, data)
}

func urlID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, errors.Mark(errors.Wrapf(err, "invalid id %q", chi.URLParam(r, "id")), bracket.ErrValidation))
		return uuid.Nil, false
	}
	return id, true
}
