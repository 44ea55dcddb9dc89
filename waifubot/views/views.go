// Package views renders the browsable sessions: the bazaar, a user's harem
// and catalog search results.
package views

import (
	"fmt"
	"strings"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
	"github.com/ellavondegurechaff/waifugrab/waifubot/sessions"
)

const (
	DefaultBazaarSize     = 3
	DefaultHaremPageSize  = 40
	DefaultSearchPageSize = 20
)

// EmptyError is returned when opening a view that has nothing to show. Its
// message is meant for the user.
type EmptyError struct {
	Message string
}

func (e *EmptyError) Error() string {
	return e.Message
}

func totalPages(total, perPage int) int {
	if total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// clampPage keeps s.Page within the pages available for total items.
func clampPage(s *sessions.Session, total, perPage int) {
	s.Total = totalPages(total, perPage)
	s.Page = min(max(s.Page, 1), s.Total)
}

func button(s *sessions.Session, label, verb string) interfaces.Button {
	return interfaces.Button{Label: label, Action: sessions.NewAction(s, verb).Encode()}
}

// pageButtons offers Previous/Next where there is a page to move to.
func pageButtons(s *sessions.Session) [][]interfaces.Button {
	var nav []interfaces.Button
	if s.Page > 1 {
		nav = append(nav, button(s, "⬅️ Previous", sessions.VerbBack))
	}
	if s.Page < s.Total {
		nav = append(nav, button(s, "Next ➡️", sessions.VerbNext))
	}
	rows := [][]interfaces.Button{}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return append(rows, []interfaces.Button{button(s, "✖️ Close", sessions.VerbClose)})
}

// writeCards lists cards, starting a heading whenever the rarity changes
// unless headings is false. Numbering starts after first.
func writeCards(sb *strings.Builder, cards []domain.Card, first int, numbered, headings bool) {
	current := rarity.Tier(0)
	for i, c := range cards {
		if headings && c.Rarity != current {
			current = c.Rarity
			fmt.Fprintf(sb, "\n**%s**\n", c.RarityName())
		}
		if numbered {
			fmt.Fprintf(sb, "%d. ", first+i+1)
		}
		fmt.Fprintf(sb, "%s - %s (ID: %d)\n", c.Name, c.Source, c.ID)
	}
}
