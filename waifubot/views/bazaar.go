package views

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
	"github.com/ellavondegurechaff/waifugrab/waifubot/logger"
	"github.com/ellavondegurechaff/waifugrab/waifubot/sessions"
)

type BazaarStore interface {
	DrawRandomCards(ctx context.Context, n int, excludeLocked bool) ([]domain.Card, error)
	GetCard(ctx context.Context, id int64) (domain.Card, error)
	CountOwnership(ctx context.Context, userID, cardID int64) (int, error)
	PurchaseCard(ctx context.Context, userID, cardID, price int64) (int64, error)
}

// Bazaar browses a fixed snapshot of random unlocked cards for sale.
type Bazaar struct {
	store BazaarStore
	size  int
}

func NewBazaar(store BazaarStore, size int) *Bazaar {
	if size <= 0 {
		size = DefaultBazaarSize
	}
	return &Bazaar{store: store, size: size}
}

func (b *Bazaar) draw(ctx context.Context, s *sessions.Session) error {
	cards, err := b.store.DrawRandomCards(ctx, b.size, true)
	if err != nil {
		return fmt.Errorf("failed to stock bazaar: %w", err)
	}
	if len(cards) == 0 {
		return &EmptyError{Message: "🏪 The bazaar has nothing for sale right now."}
	}
	s.Items = cards
	return nil
}

func (b *Bazaar) Open(ctx context.Context, s *sessions.Session) error {
	return b.draw(ctx, s)
}

func (b *Bazaar) Refresh(ctx context.Context, s *sessions.Session) error {
	return b.draw(ctx, s)
}

func (b *Bazaar) Render(ctx context.Context, s *sessions.Session) (sessions.View, error) {
	s.Total = len(s.Items)
	card, ok := s.Current()
	if !ok {
		return sessions.View{}, domain.ErrSessionExpired
	}

	owned, err := b.store.CountOwnership(ctx, s.OwnerID, card.ID)
	if err != nil {
		return sessions.View{}, fmt.Errorf("failed to count owned copies: %w", err)
	}

	text := fmt.Sprintf("🏪 **BAZAAR (Page %d/%d)**\n\n"+
		"**Name:** %s\n**Anime:** %s\n**Rarity:** %s\n**ID:** %d\n**Price:** %d 💸\n**You own:** %d",
		s.Index+1, s.Total, card.Name, card.Source, card.RarityName(), card.ID, card.DisplayPrice(), owned)

	buy := sessions.NewAction(s, sessions.VerbBuy)
	buy.Arg = strconv.FormatInt(card.ID, 10)

	return sessions.View{
		Text:     text,
		MediaRef: card.MediaRef,
		Video:    card.IsVideo(),
		Buttons: [][]interfaces.Button{
			{{Label: "🎟️ Buy", Action: buy.Encode()}},
			{button(s, "⬅️ Back", sessions.VerbBack), button(s, "Next ➡️", sessions.VerbNext)},
			{button(s, "♻️ Refresh", sessions.VerbRefresh)},
			{button(s, "✖️ Close", sessions.VerbClose)},
		},
	}, nil
}

// Purchase is a completed bazaar sale.
type Purchase struct {
	Card    domain.Card
	Price   int64
	Balance int64
}

// Checkout sells the card a bazaar buy action points at.
type Checkout struct {
	store     BazaarStore
	browser   *sessions.Browser
	messenger interfaces.Messenger
}

func NewCheckout(store BazaarStore, browser *sessions.Browser, messenger interfaces.Messenger) *Checkout {
	return &Checkout{store: store, browser: browser, messenger: messenger}
}

// Buy charges actor for the card and ends the session, leaving the bazaar
// message as a receipt.
func (c *Checkout) Buy(ctx context.Context, actor int64, a sessions.Action) (Purchase, error) {
	s, err := c.browser.Lookup(ctx, actor, a)
	if err != nil {
		return Purchase{}, err
	}

	cardID, err := strconv.ParseInt(a.Arg, 10, 64)
	if err != nil || !inSnapshot(s, cardID) {
		return Purchase{}, domain.ErrSessionExpired
	}
	card, err := c.store.GetCard(ctx, cardID)
	if err != nil {
		return Purchase{}, err
	}

	price := card.DisplayPrice()
	balance, err := c.store.PurchaseCard(ctx, actor, card.ID, price)
	if err != nil {
		return Purchase{}, err
	}

	receipt := fmt.Sprintf("✅ THANK YOU FOR BUYING ❤️🔥\n\nYou bought %s for %d 💸!\n\nCheck your harem now! 🦋", card.Name, price)
	if err := c.messenger.EditCaption(ctx, s.Message, receipt, interfaces.SendOptions{}); err != nil {
		slog.Warn("Failed to edit bazaar receipt",
			slog.String("type", "session"),
			slog.String("session_id", s.ID),
			slog.Any("error", err))
	}
	if err := c.browser.Terminate(ctx, actor, a, sessions.ReasonPurchased); err != nil {
		logger.LogError("Failed to end bazaar session after purchase", err, slog.String("session_id", s.ID))
	}

	logger.LogSession("Bazaar purchase", s.ID,
		slog.Int64("user_id", actor),
		slog.Int64("card_id", card.ID),
		slog.Int64("price", price))
	return Purchase{Card: card, Price: price, Balance: balance}, nil
}

func inSnapshot(s *sessions.Session, cardID int64) bool {
	for _, c := range s.Items {
		if c.ID == cardID {
			return true
		}
	}
	return false
}
