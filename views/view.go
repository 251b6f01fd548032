package views

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	return component.Render(r.Context(), w)
}

// BracketPage renders the whole bracket, one column per round.
func BracketPage(view BracketView) templ.Component {
	return layout(view.Title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf(`<h1>%s</h1>`, templ.EscapeString(view.Title))
		if view.Champion != nil {
			p.printf(`<p class="champion">Champion: %s</p>`, templ.EscapeString(view.Champion.Name))
		}
		p.print(`<div class="bracket">`)
		for _, round := range view.Rounds {
			p.printf(`<section class="round"><h2>%s</h2>`, templ.EscapeString(round.Label))
			for _, card := range round.Cards {
				writeCard(p, card)
			}
			p.print(`</section>`)
		}
		p.print(`</div>`)
		return p.err
	}))
}

// NoTournamentPage is shown while no tournament is active.
func NoTournamentPage() templ.Component {
	return layout("School Cup", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<h1>School Cup</h1><p>No tournament is running. Start one with 8, 16 or 32 teams.</p>`)
		return err
	}))
}

func writeCard(p *printer, card MatchCard) {
	p.printf(`<article class="match %s" data-sequence="%d"`, card.Status, card.Sequence)
	if card.MatchID != "" {
		p.printf(` data-match-id="%s"`, templ.EscapeString(card.MatchID))
	}
	p.print(`>`)
	writeSide(p, card.Home)
	writeSide(p, card.Away)
	p.printf(`<span class="status">%s</span></article>`, statusLabel(card.Status))
}

func writeSide(p *printer, s SideView) {
	p.printf(`<div class="%s"`, sideClass(s))
	if s.Color != "" {
		p.printf(` style="border-color: %s"`, templ.EscapeString(s.Color))
	}
	p.print(`>`)
	if s.EmblemURL != "" {
		p.printf(`<img src="%s" alt="" width="24" height="24">`, templ.EscapeString(string(templ.URL(s.EmblemURL))))
	}
	p.printf(`<span>%s</span></div>`, templ.EscapeString(s.Name))
}

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!doctype html><html lang="en"><head><meta charset="utf-8"><title>%s</title><link rel="stylesheet" href="/static/bracket.css"></head><body>`, templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// printer keeps the first write error so the markup code stays linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) print(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *printer) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}
