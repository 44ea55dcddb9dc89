package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ellavondegurechaff/waifugrab/waifubot"
	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/handlers"
)

func BidHandler(b *waifubot.Bot) handlers.TextHandler {
	return func(ctx context.Context, e *handlers.TextEvent) (string, error) {
		if e.User.Banned {
			return "", domain.ErrUserBanned
		}
		if len(e.Args) != 1 {
			return "❌ Usage: `bid <amount>`", nil
		}
		amount, err := strconv.ParseInt(e.Args[0], 10, 64)
		if err != nil {
			return "❌ Invalid amount!", nil
		}

		state, err := b.Auctions.PlaceBid(ctx, int64(e.ChatID), e.User.ID, amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("💸 **%s** leads the auction with **%d** 💸!", e.User.DisplayName(), *state.HighestBid), nil
	}
}
