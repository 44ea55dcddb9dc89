package commands

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/ellavondegurechaff/waifugrab/waifubot"
	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/handlers"
	"github.com/ellavondegurechaff/waifugrab/waifubot/messenger"
)

var Balance = discord.SlashCommandCreate{
	Name:        "balance",
	Description: "💰 View your cash",
}

func BalanceHandler(b *waifubot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), componentTimeout)
		defer cancel()

		author := e.User()
		user, err := b.Store.EnsureUser(ctx, domain.User{
			ID:        int64(author.ID),
			Username:  author.Username,
			FirstName: author.EffectiveName(),
		})
		if err != nil {
			return e.CreateMessage(discord.MessageCreate{
				Content: handlers.Report("balance", int64(author.ID), err),
				Flags:   discord.MessageFlagEphemeral,
			})
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "💰 Balance",
				Description: fmt.Sprintf("**%s** has **%d** 💸 cash", user.DisplayName(), user.Balance),
				Color:       messenger.EmbedColor,
			}},
		})
	}
}
