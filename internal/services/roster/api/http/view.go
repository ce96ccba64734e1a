package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/louisbranch/raidroster/internal/services/roster/domain"
	"github.com/louisbranch/raidroster/internal/services/roster/render"
)

func (s *Server) rosterPage(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.EventSummary(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		writeError(w, err)
		return
	}
	templ.Handler(RosterPage(s.loc, summary)).ServeHTTP(w, r)
}

// RosterPage renders the committed roster of one event as a standalone page.
func RosterPage(loc render.Localizer, summary domain.Summary) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		event := summary.Event
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>`)
		b.WriteString(templ.EscapeString(event.Title))
		b.WriteString(`</title></head><body><main class="roster">`)
		fmt.Fprintf(&b, `<h1>%s</h1>`, templ.EscapeString(event.Title))
		if !event.ScheduledAt.IsZero() {
			fmt.Fprintf(&b, `<p><time datetime="%s">%s</time></p>`,
				event.ScheduledAt.UTC().Format(time.RFC3339),
				templ.EscapeString(event.ScheduledAt.UTC().Format("Mon 02 Jan 2006 15:04 MST")))
		}
		fmt.Fprintf(&b, `<p class="status">%s</p>`,
			templ.EscapeString(localize(loc, "announcement.status", summary.Counts.Pending, summary.Counts.Committed)))

		groups := render.GroupRoster(summary.Roster)
		if len(groups) == 0 {
			fmt.Fprintf(&b, `<p class="empty">%s</p>`, templ.EscapeString(localize(loc, "roster.empty")))
		}
		for _, group := range groups {
			fmt.Fprintf(&b, `<section data-role="%s"><h2>%s (%d)</h2><ul>`,
				templ.EscapeString(string(group.Role)),
				templ.EscapeString(localize(loc, "role."+string(group.Role))),
				len(group.Entries))
			for _, entry := range group.Entries {
				fmt.Fprintf(&b, `<li>%s <small>%s · %s</small></li>`,
					templ.EscapeString(entry.CharacterName),
					templ.EscapeString(entry.Class),
					templ.EscapeString(entry.UserName))
			}
			b.WriteString(`</ul></section>`)
		}
		b.WriteString(`</main></body></html>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func localize(loc render.Localizer, key string, args ...any) string {
	if loc == nil {
		return key
	}
	return loc.Sprintf(key, args...)
}
