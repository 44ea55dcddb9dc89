package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
	"github.com/ellavondegurechaff/waifugrab/waifubot/sessions"
	"golang.org/x/sync/errgroup"
)

type HaremStore interface {
	GetUser(ctx context.Context, userID int64) (domain.User, error)
	ListOwnedCards(ctx context.Context, userID int64, filter *rarity.Tier, offset, limit int) ([]domain.OwnedCard, error)
	CountOwnedCards(ctx context.Context, userID int64, filter *rarity.Tier) (int, error)
}

// Harem pages through a user's cards, newest first.
type Harem struct {
	store   HaremStore
	perPage int
}

func NewHarem(store HaremStore, perPage int) *Harem {
	if perPage <= 0 {
		perPage = DefaultHaremPageSize
	}
	return &Harem{store: store, perPage: perPage}
}

func (h *Harem) Open(ctx context.Context, s *sessions.Session) error {
	total, err := h.store.CountOwnedCards(ctx, s.OwnerID, s.Filter)
	if err != nil {
		return fmt.Errorf("failed to count harem: %w", err)
	}
	if total == 0 {
		msg := "📭 Your harem is empty! Grab a waifu when one appears."
		if s.Filter != nil {
			msg = fmt.Sprintf("📭 Your harem has no %s waifus!", rarity.Name(*s.Filter))
		}
		return &EmptyError{Message: msg}
	}
	return nil
}

func (h *Harem) Render(ctx context.Context, s *sessions.Session) (sessions.View, error) {
	var (
		user  domain.User
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = h.store.GetUser(gctx, s.OwnerID)
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		var err error
		total, err = h.store.CountOwnedCards(gctx, s.OwnerID, s.Filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return sessions.View{}, fmt.Errorf("failed to load harem: %w", err)
	}

	clampPage(s, total, h.perPage)
	owned, err := h.store.ListOwnedCards(ctx, s.OwnerID, s.Filter, (s.Page-1)*h.perPage, h.perPage)
	if err != nil {
		return sessions.View{}, fmt.Errorf("failed to list harem page: %w", err)
	}
	cards := make([]domain.Card, len(owned))
	for i, o := range owned {
		cards[i] = o.Card
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 **%s's Harem", user.DisplayName())
	if s.Filter != nil {
		fmt.Fprintf(&sb, " (%s)", rarity.Name(*s.Filter))
	}
	fmt.Fprintf(&sb, " (Page %d/%d):**\n", s.Page, s.Total)
	writeCards(&sb, cards, (s.Page-1)*h.perPage, true, s.Filter == nil)
	fmt.Fprintf(&sb, "\nTotal: %d waifus", total)

	return sessions.View{Text: sb.String(), Buttons: pageButtons(s)}, nil
}
