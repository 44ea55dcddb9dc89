package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/sessions"
	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"
)

const maxSuggestions = 5

type SearchStore interface {
	SearchCards(ctx context.Context, query string, offset, limit int) ([]domain.Card, error)
	CountSearchCards(ctx context.Context, query string) (int, error)
	ListCardNames(ctx context.Context) ([]domain.Card, error)
}

// Search pages through catalog cards whose name contains the query.
type Search struct {
	store   SearchStore
	perPage int
}

func NewSearch(store SearchStore, perPage int) *Search {
	if perPage <= 0 {
		perPage = DefaultSearchPageSize
	}
	return &Search{store: store, perPage: perPage}
}

func (f *Search) Open(ctx context.Context, s *sessions.Session) error {
	s.Query = strings.TrimSpace(s.Query)
	if s.Query == "" {
		return &EmptyError{Message: "❌ Tell me a name to search for."}
	}
	total, err := f.store.CountSearchCards(ctx, s.Query)
	if err != nil {
		return fmt.Errorf("failed to count search results: %w", err)
	}
	if total > 0 {
		return nil
	}

	msg := fmt.Sprintf("❌ No waifus found matching \"%s\"", s.Query)
	suggestions, err := f.Suggest(ctx, s.Query)
	if err != nil {
		return err
	}
	if len(suggestions) > 0 {
		msg += "\n\nDid you mean: " + strings.Join(suggestions, ", ") + "?"
	}
	return &EmptyError{Message: msg}
}

func (f *Search) Render(ctx context.Context, s *sessions.Session) (sessions.View, error) {
	var (
		total int
		cards []domain.Card
	)

	// The page is fetched optimistically; it is refetched if the count
	// shows the requested page no longer exists.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = f.store.CountSearchCards(gctx, s.Query)
		return err
	})
	g.Go(func() error {
		var err error
		cards, err = f.store.SearchCards(gctx, s.Query, (max(s.Page, 1)-1)*f.perPage, f.perPage)
		return err
	})
	if err := g.Wait(); err != nil {
		return sessions.View{}, fmt.Errorf("failed to search cards: %w", err)
	}

	requested := s.Page
	clampPage(s, total, f.perPage)
	if s.Page != requested {
		var err error
		cards, err = f.store.SearchCards(ctx, s.Query, (s.Page-1)*f.perPage, f.perPage)
		if err != nil {
			return sessions.View{}, fmt.Errorf("failed to search cards: %w", err)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 **Search Results for \"%s\" (Page %d/%d)**\n", s.Query, s.Page, s.Total)
	writeCards(&sb, cards, 0, false, true)
	fmt.Fprintf(&sb, "\nTotal: %d results", total)

	return sessions.View{Text: sb.String(), Buttons: pageButtons(s)}, nil
}

type cardNames []string

func (n cardNames) String(i int) string { return n[i] }
func (n cardNames) Len() int            { return len(n) }

// Suggest ranks distinct catalog names by fuzzy similarity to query.
func (f *Search) Suggest(ctx context.Context, query string) ([]string, error) {
	cards, err := f.store.ListCardNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list card names: %w", err)
	}

	seen := make(map[string]bool, len(cards))
	names := make(cardNames, 0, len(cards))
	for _, c := range cards {
		key := strings.ToLower(c.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, c.Name)
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), lowered(names))
	out := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, names[m.Index])
	}
	return out, nil
}

func lowered(names cardNames) cardNames {
	out := make(cardNames, len(names))
	for i, n := range names {
		out[i] = strings.ToLower(n)
	}
	return out
}
