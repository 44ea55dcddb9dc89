package auction

import (
	"context"
	"errors"
	"fmt"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
)

type Notifier struct {
	store     Store
	messenger interfaces.Messenger
}

func NewNotifier(store Store, messenger interfaces.Messenger) *Notifier {
	return &Notifier{store: store, messenger: messenger}
}

func (n *Notifier) Announce(ctx context.Context, s domain.Settlement) error {
	if s.Outcome == domain.OutcomeNothing {
		return nil
	}

	cardName := fmt.Sprintf("card #%d", s.CardID)
	if card, err := n.store.GetCard(ctx, s.CardID); err == nil {
		cardName = card.Name
	} else if !errors.Is(err, domain.ErrCardNotFound) {
		return err
	}

	var text string
	switch s.Outcome {
	case domain.OutcomeNoBids:
		text = fmt.Sprintf("Auction ended with no bids for %s.", cardName)
	case domain.OutcomeSold:
		text = fmt.Sprintf("Auction ended! %s won %s for %d 💸", n.winnerName(ctx, s.Winner), cardName, s.Amount)
	case domain.OutcomeForfeited:
		text = fmt.Sprintf("Auction ended! %s could not pay %d for %s, so it goes to nobody.",
			n.winnerName(ctx, s.Winner), s.Amount, cardName)
	}

	_, err := n.messenger.SendText(ctx, domain.ChatID(s.GroupID), text, interfaces.SendOptions{})
	return err
}

func (n *Notifier) winnerName(ctx context.Context, userID int64) string {
	if user, err := n.store.GetUser(ctx, userID); err == nil {
		return user.DisplayName()
	}
	return fmt.Sprintf("User %d", userID)
}
