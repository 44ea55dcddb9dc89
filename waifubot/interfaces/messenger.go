package interfaces

import (
	"context"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
)

type Button struct {
	Label  string
	Action string
}

type SendOptions struct {
	ReplyTo int64
	Buttons [][]Button
	Spoiler bool
	Video   bool
}

type AnswerOptions struct {
	Text  string
	Alert bool
}

// Messenger delivers messages to the chat platform.
type Messenger interface {
	SendText(ctx context.Context, chat domain.ChatID, text string, opts SendOptions) (domain.MessageRef, error)
	SendMedia(ctx context.Context, chat domain.ChatID, mediaRef string, caption string, opts SendOptions) (domain.MessageRef, error)
	EditText(ctx context.Context, ref domain.MessageRef, text string, opts SendOptions) error
	EditCaption(ctx context.Context, ref domain.MessageRef, caption string, opts SendOptions) error
	EditMedia(ctx context.Context, ref domain.MessageRef, mediaRef string, caption string, opts SendOptions) error
	DeleteMessage(ctx context.Context, ref domain.MessageRef) error
	AnswerInteraction(ctx context.Context, id domain.InteractionID, opts AnswerOptions) error
}
