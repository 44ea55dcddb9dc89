package commands

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/ellavondegurechaff/waifugrab/waifubot"
	"github.com/ellavondegurechaff/waifugrab/waifubot/handlers"
)

// Commands are the slash commands synced to Discord.
var Commands = []discord.ApplicationCommandCreate{
	Rarities,
	Balance,
}

// RegisterText adds the prefixed text commands to r.
func RegisterText(r *handlers.MessageRouter, b *waifubot.Bot) {
	r.Command("grab", GrabHandler(b))
	r.Command("bid", BidHandler(b))
	r.Command("bazaar", BazaarHandler(b))
	r.Command("harem", HaremHandler(b))
	r.Command("find", FindHandler(b))
	r.Command("cmode", CModeHandler(b))
}

// RegisterInteractions adds slash commands and session buttons to h.
func RegisterInteractions(h *handler.Mux, b *waifubot.Bot) {
	h.Command("/rarities", handlers.WrapWithLogging("rarities", RaritiesHandler(b)))
	h.Command("/balance", handlers.WrapWithLogging("balance", BalanceHandler(b)))

	for _, kind := range []string{"bazaar", "harem", "search"} {
		component := handlers.WrapComponentWithLogging(kind, SessionComponentHandler(b))
		h.Component("/"+kind+"/{verb}/{owner}/{session}", component)
		h.Component("/"+kind+"/{verb}/{owner}/{session}/{arg}", component)
	}
}
