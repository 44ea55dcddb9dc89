package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/ellavondegurechaff/waifugrab/waifubot"
	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/handlers"
)

func GrabHandler(b *waifubot.Bot) handlers.TextHandler {
	return func(ctx context.Context, e *handlers.TextEvent) (string, error) {
		if e.User.Banned {
			return "", domain.ErrUserBanned
		}
		name := strings.Join(e.Args, " ")
		if name == "" {
			return "❌ Usage: `grab <name>`", nil
		}

		card, err := b.Claims.Claim(ctx, int64(e.ChatID), e.User.ID, name)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ **%s** grabbed **%s** from %s!\n%s\n\nCheck your harem now! 🦋",
			e.User.DisplayName(), card.Name, card.Source, card.RarityName()), nil
	}
}
