package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ellavondegurechaff/waifugrab/waifubot"
	"github.com/ellavondegurechaff/waifugrab/waifubot/handlers"
	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
)

// CModeHandler sets the rarity filter applied to the user's harem.
func CModeHandler(b *waifubot.Bot) handlers.TextHandler {
	return func(ctx context.Context, e *handlers.TextEvent) (string, error) {
		if len(e.Args) == 0 {
			current := "All"
			if e.User.HaremFilter != nil {
				current = rarity.Name(*e.User.HaremFilter)
			}
			return fmt.Sprintf("🎨 **Collection Mode**\n\nCurrent filter: **%s**\n\n%s\nUse `cmode <number|all>` to change it.",
				current, rarityList()), nil
		}

		tier, ok := parseFilter(strings.Join(e.Args, " "))
		if !ok {
			return "❌ Unknown rarity! Use `cmode` to see the list.", nil
		}
		if err := b.Store.SetHaremFilter(ctx, e.User.ID, tier); err != nil {
			return "", err
		}

		name := "All"
		if tier != nil {
			name = rarity.Name(*tier)
		}
		return fmt.Sprintf("✅ Harem filter set to: **%s**\n\nUse `harem` to view your collection.", name), nil
	}
}

// parseFilter accepts "all", a tier number or the start of a tier name.
func parseFilter(arg string) (*rarity.Tier, bool) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	if arg == "all" {
		return nil, true
	}
	if n, err := strconv.Atoi(arg); err == nil {
		t := rarity.Tier(n)
		if !rarity.Valid(t) {
			return nil, false
		}
		return &t, true
	}
	for _, t := range rarity.All() {
		if strings.HasPrefix(strings.ToLower(rarity.Name(t)), arg) {
			return &t, true
		}
	}
	return nil, false
}

func rarityList() string {
	var sb strings.Builder
	for _, t := range rarity.All() {
		fmt.Fprintf(&sb, "%d. %s\n", t, rarity.Name(t))
	}
	return sb.String()
}
