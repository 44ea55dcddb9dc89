// Package messenger implements interfaces.Messenger on top of Discord.
package messenger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	lru "github.com/hashicorp/golang-lru"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
	"github.com/ellavondegurechaff/waifugrab/waifubot/media"
)

const (
	EmbedColor = 0x2B2D31
	AlertColor = 0xFFAA00

	mediaCacheSize = 2048
)

// Channels is the part of the Discord REST API the adapter sends through.
type Channels interface {
	CreateMessage(channelID snowflake.ID, messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
	UpdateMessage(channelID snowflake.ID, messageID snowflake.ID, messageUpdate discord.MessageUpdate, opts ...rest.RequestOpt) (*discord.Message, error)
	DeleteMessage(channelID snowflake.ID, messageID snowflake.ID, opts ...rest.RequestOpt) error
}

// Responder answers one component interaction.
type Responder interface {
	CreateMessage(messageCreate discord.MessageCreate, opts ...rest.RequestOpt) error
	DeferUpdateMessage(opts ...rest.RequestOpt) error
}

// Discord renders views as embeds: text goes in the description, media is
// the embed image and buttons become rows of secondary buttons.
type Discord struct {
	rest     Channels
	resolver media.Resolver

	// media remembers the image on each message so a caption edit keeps it.
	media *lru.Cache

	mu      sync.Mutex
	pending map[domain.InteractionID]Responder
}

var _ interfaces.Messenger = (*Discord)(nil)

func New(channels Channels, resolver media.Resolver) (*Discord, error) {
	if resolver == nil {
		resolver = media.Passthrough{}
	}
	cache, err := lru.New(mediaCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create media cache: %w", err)
	}
	return &Discord{
		rest:     channels,
		resolver: resolver,
		media:    cache,
		pending:  make(map[domain.InteractionID]Responder),
	}, nil
}

type shownMedia struct {
	url     string
	spoiler bool
	video   bool
}

func (d *Discord) SendText(_ context.Context, chat domain.ChatID, text string, opts interfaces.SendOptions) (domain.MessageRef, error) {
	msg, err := d.rest.CreateMessage(channelID(chat), discord.MessageCreate{
		Embeds:           []discord.Embed{{Description: text, Color: EmbedColor}},
		Components:       components(opts.Buttons),
		MessageReference: reference(opts.ReplyTo),
	})
	if err != nil {
		return domain.MessageRef{}, fmt.Errorf("failed to send message: %w", err)
	}
	return messageRef(chat, msg), nil
}

func (d *Discord) SendMedia(ctx context.Context, chat domain.ChatID, mediaRef, caption string, opts interfaces.SendOptions) (domain.MessageRef, error) {
	url, err := d.resolver.Resolve(ctx, mediaRef)
	if err != nil {
		return domain.MessageRef{}, err
	}
	shown := shownMedia{url: url, spoiler: opts.Spoiler, video: opts.Video}
	content, embed := mediaEmbed(caption, shown)

	msg, err := d.rest.CreateMessage(channelID(chat), discord.MessageCreate{
		Content:          content,
		Embeds:           []discord.Embed{embed},
		Components:       components(opts.Buttons),
		MessageReference: reference(opts.ReplyTo),
	})
	if err != nil {
		return domain.MessageRef{}, fmt.Errorf("failed to send media: %w", err)
	}
	ref := messageRef(chat, msg)
	d.media.Add(ref, shown)
	return ref, nil
}

func (d *Discord) EditText(_ context.Context, ref domain.MessageRef, text string, opts interfaces.SendOptions) error {
	embeds := []discord.Embed{{Description: text, Color: EmbedColor}}
	comps := components(opts.Buttons)
	_, err := d.rest.UpdateMessage(channelID(ref.ChatID), messageID(ref), discord.MessageUpdate{
		Embeds:     &embeds,
		Components: &comps,
	})
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// EditCaption replaces the caption and buttons and keeps the media shown.
func (d *Discord) EditCaption(_ context.Context, ref domain.MessageRef, caption string, opts interfaces.SendOptions) error {
	var shown shownMedia
	if v, ok := d.media.Get(ref); ok {
		shown = v.(shownMedia)
	}
	content, embed := mediaEmbed(caption, shown)
	embeds := []discord.Embed{embed}
	comps := components(opts.Buttons)

	_, err := d.rest.UpdateMessage(channelID(ref.ChatID), messageID(ref), discord.MessageUpdate{
		Content:    &content,
		Embeds:     &embeds,
		Components: &comps,
	})
	if err != nil {
		return fmt.Errorf("failed to edit caption: %w", err)
	}
	return nil
}

func (d *Discord) EditMedia(ctx context.Context, ref domain.MessageRef, mediaRef, caption string, opts interfaces.SendOptions) error {
	url, err := d.resolver.Resolve(ctx, mediaRef)
	if err != nil {
		return err
	}
	shown := shownMedia{url: url, spoiler: opts.Spoiler, video: opts.Video}
	content, embed := mediaEmbed(caption, shown)
	embeds := []discord.Embed{embed}
	comps := components(opts.Buttons)

	_, err = d.rest.UpdateMessage(channelID(ref.ChatID), messageID(ref), discord.MessageUpdate{
		Content:    &content,
		Embeds:     &embeds,
		Components: &comps,
	})
	if err != nil {
		return fmt.Errorf("failed to edit media: %w", err)
	}
	d.media.Add(ref, shown)
	return nil
}

func (d *Discord) DeleteMessage(_ context.Context, ref domain.MessageRef) error {
	d.media.Remove(ref)
	if err := d.rest.DeleteMessage(channelID(ref.ChatID), messageID(ref)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// Track registers a component interaction so it can be answered by id.
func (d *Discord) Track(id domain.InteractionID, r Responder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[id] = r
}

func (d *Discord) take(id domain.InteractionID) (Responder, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.pending[id]
	delete(d.pending, id)
	return r, ok
}

// AnswerInteraction acknowledges a tracked interaction once. Text is shown
// only to the user who pressed the button.
func (d *Discord) AnswerInteraction(_ context.Context, id domain.InteractionID, opts interfaces.AnswerOptions) error {
	r, ok := d.take(id)
	if !ok {
		slog.Debug("Interaction already answered",
			slog.String("type", "session"),
			slog.String("interaction_id", string(id)))
		return nil
	}

	if opts.Text == "" {
		if err := r.DeferUpdateMessage(); err != nil {
			return fmt.Errorf("failed to acknowledge interaction: %w", err)
		}
		return nil
	}

	msg := discord.MessageCreate{Flags: discord.MessageFlagEphemeral}
	if opts.Alert {
		msg.Embeds = []discord.Embed{{Description: opts.Text, Color: AlertColor}}
	} else {
		msg.Content = opts.Text
	}
	if err := r.CreateMessage(msg); err != nil {
		return fmt.Errorf("failed to answer interaction: %w", err)
	}
	return nil
}

// mediaEmbed builds the embed for a media view. Videos and spoilered images
// are linked instead of embedded: Discord only plays linked videos, and
// an embed image cannot be hidden.
func mediaEmbed(caption string, m shownMedia) (string, discord.Embed) {
	embed := discord.Embed{Description: caption, Color: EmbedColor}
	switch {
	case m.url == "":
		return "", embed
	case m.spoiler:
		return fmt.Sprintf("||%s||", m.url), embed
	case m.video:
		return m.url, embed
	}
	embed.Image = &discord.EmbedResource{URL: m.url}
	return "", embed
}

func components(rows [][]interfaces.Button) []discord.ContainerComponent {
	out := make([]discord.ContainerComponent, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		buttons := make([]discord.InteractiveComponent, len(row))
		for i, b := range row {
			buttons[i] = discord.NewSecondaryButton(b.Label, b.Action)
		}
		out = append(out, discord.NewActionRow(buttons...))
	}
	return out
}

func reference(replyTo int64) *discord.MessageReference {
	if replyTo == 0 {
		return nil
	}
	id := snowflake.ID(replyTo)
	return &discord.MessageReference{MessageID: &id}
}

func channelID(chat domain.ChatID) snowflake.ID {
	return snowflake.ID(chat)
}

func messageID(ref domain.MessageRef) snowflake.ID {
	return snowflake.ID(ref.MessageID)
}

func messageRef(chat domain.ChatID, msg *discord.Message) domain.MessageRef {
	return domain.MessageRef{ChatID: chat, MessageID: int64(msg.ID)}
}
