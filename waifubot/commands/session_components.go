package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/handler"

	"github.com/ellavondegurechaff/waifugrab/waifubot"
	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/handlers"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
	"github.com/ellavondegurechaff/waifugrab/waifubot/messenger"
	"github.com/ellavondegurechaff/waifugrab/waifubot/sessions"
)

const componentTimeout = 10 * time.Second

type interactionTracker interface {
	Track(id domain.InteractionID, r messenger.Responder)
}

// SessionComponentHandler handles the buttons of bazaar, harem and search
// sessions. Every interaction is answered, with an alert when it failed.
func SessionComponentHandler(b *waifubot.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), componentTimeout)
		defer cancel()

		id := domain.InteractionID(e.ID().String())
		if t, ok := b.Messenger.(interactionTracker); ok {
			t.Track(id, e)
		}

		answer := HandleSessionAction(ctx, b, int64(e.User().ID), e.Data.CustomID())
		return b.Messenger.AnswerInteraction(ctx, id, answer)
	}
}

// HandleSessionAction applies one encoded session action for actor and
// returns how to answer the interaction.
func HandleSessionAction(ctx context.Context, b *waifubot.Bot, actor int64, customID string) interfaces.AnswerOptions {
	a, err := sessions.ParseAction(customID)
	if err != nil {
		return failed("session", actor, err)
	}

	switch a.Verb {
	case sessions.VerbNext, sessions.VerbBack, sessions.VerbRefresh:
		_, err = b.Browser.Navigate(ctx, actor, a)
	case sessions.VerbClose:
		err = b.Browser.Terminate(ctx, actor, a, sessions.ReasonClosed)
	case sessions.VerbBuy:
		if _, err = b.Checkout.Buy(ctx, actor, a); err == nil {
			return interfaces.AnswerOptions{Text: "THANK YOU FOR BUYING ❤️🔥", Alert: true}
		}
	default:
		err = fmt.Errorf("unknown session action %q", a.Verb)
	}
	if err != nil {
		return failed(string(a.Kind), actor, err)
	}
	return interfaces.AnswerOptions{}
}

func failed(name string, actor int64, err error) interfaces.AnswerOptions {
	return interfaces.AnswerOptions{Text: handlers.Report(name, actor, err), Alert: true}
}
