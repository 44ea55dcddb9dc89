package commands

import (
	"context"
	"strconv"
	"strings"

	"github.com/ellavondegurechaff/waifugrab/waifubot"
	"github.com/ellavondegurechaff/waifugrab/waifubot/handlers"
	"github.com/ellavondegurechaff/waifugrab/waifubot/sessions"
)

func BazaarHandler(b *waifubot.Bot) handlers.TextHandler {
	return func(ctx context.Context, e *handlers.TextEvent) (string, error) {
		_, err := b.Browser.Start(ctx, e.User.ID, e.ChatID, sessions.KindBazaar, sessions.StartParams{
			ReplyTo: e.MessageID,
		})
		return "", err
	}
}

func HaremHandler(b *waifubot.Bot) handlers.TextHandler {
	return func(ctx context.Context, e *handlers.TextEvent) (string, error) {
		page := 1
		if len(e.Args) > 0 {
			n, err := strconv.Atoi(e.Args[0])
			if err != nil {
				return "❌ Usage: `harem [page]`", nil
			}
			page = n
		}

		_, err := b.Browser.Start(ctx, e.User.ID, e.ChatID, sessions.KindHarem, sessions.StartParams{
			Filter:  e.User.HaremFilter,
			Page:    page,
			ReplyTo: e.MessageID,
		})
		return "", err
	}
}

// FindHandler searches the catalog. A trailing number selects the page.
func FindHandler(b *waifubot.Bot) handlers.TextHandler {
	return func(ctx context.Context, e *handlers.TextEvent) (string, error) {
		args := e.Args
		page := 1
		if len(args) > 1 {
			if n, err := strconv.Atoi(args[len(args)-1]); err == nil {
				page = n
				args = args[:len(args)-1]
			}
		}
		query := strings.Join(args, " ")
		if query == "" {
			return "❌ Usage: `find <name> [page]`", nil
		}

		_, err := b.Browser.Start(ctx, e.User.ID, e.ChatID, sessions.KindSearch, sessions.StartParams{
			Query:   query,
			Page:    page,
			ReplyTo: e.MessageID,
		})
		return "", err
	}
}
