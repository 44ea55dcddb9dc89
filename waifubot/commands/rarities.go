package commands

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"

	"github.com/ellavondegurechaff/waifugrab/waifubot"
	"github.com/ellavondegurechaff/waifugrab/waifubot/messenger"
	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
)

const raritiesPerPage = 8

var Rarities = discord.SlashCommandCreate{
	Name:        "rarities",
	Description: "🎨 List every rarity with its bazaar price",
}

func RaritiesHandler(b *waifubot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		tiers := rarity.All()
		totalPages := (len(tiers) + raritiesPerPage - 1) / raritiesPerPage

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				start := page * raritiesPerPage
				end := min(start+raritiesPerPage, len(tiers))

				var description strings.Builder
				for _, t := range tiers[start:end] {
					spawnable := ""
					if !rarity.SpawnRange.Contains(t) {
						spawnable = " (bazaar only)"
					}
					description.WriteString(fmt.Sprintf("**%d.** %s – %d 💸%s\n", t, rarity.Name(t), rarity.Price(t), spawnable))
				}

				embed.
					SetTitle("🎨 Rarities").
					SetDescription(description.String()).
					SetColor(messenger.EmbedColor).
					SetFooter(fmt.Sprintf("Page %d/%d", page+1, totalPages), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}
