package messenger

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
)

type fakeChannels struct {
	created []discord.MessageCreate
	updated []discord.MessageUpdate
	deleted []snowflake.ID
	err     error
}

func (f *fakeChannels) CreateMessage(_ snowflake.ID, m discord.MessageCreate, _ ...rest.RequestOpt) (*discord.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, m)
	return &discord.Message{ID: snowflake.ID(1000 + len(f.created))}, nil
}

func (f *fakeChannels) UpdateMessage(_ snowflake.ID, id snowflake.ID, m discord.MessageUpdate, _ ...rest.RequestOpt) (*discord.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updated = append(f.updated, m)
	return &discord.Message{ID: id}, nil
}

func (f *fakeChannels) DeleteMessage(_ snowflake.ID, id snowflake.ID, _ ...rest.RequestOpt) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

type prefixResolver struct{}

func (prefixResolver) Resolve(_ context.Context, ref string) (string, error) {
	if ref == "missing" {
		return "", errors.New("no such object")
	}
	return "https://cdn.test/" + ref, nil
}

type fakeResponder struct {
	messages []discord.MessageCreate
	deferred int
}

func (r *fakeResponder) CreateMessage(m discord.MessageCreate, _ ...rest.RequestOpt) error {
	r.messages = append(r.messages, m)
	return nil
}

func (r *fakeResponder) DeferUpdateMessage(_ ...rest.RequestOpt) error {
	r.deferred++
	return nil
}

func newDiscord(t *testing.T) (*Discord, *fakeChannels) {
	t.Helper()
	channels := &fakeChannels{}
	d, err := New(channels, prefixResolver{})
	require.NoError(t, err)
	return d, channels
}

func TestSendMedia(t *testing.T) {
	buttons := [][]interfaces.Button{
		{{Label: "Buy", Action: "/bazaar/buy/1/s/2"}},
		{{Label: "Back", Action: "/bazaar/back/1/s"}, {Label: "Next", Action: "/bazaar/next/1/s"}},
	}

	tests := []struct {
		name        string
		opts        interfaces.SendOptions
		wantContent string
		wantImage   bool
	}{
		{name: "image", opts: interfaces.SendOptions{Buttons: buttons, ReplyTo: 55}, wantImage: true},
		{name: "spoiler", opts: interfaces.SendOptions{Spoiler: true}, wantContent: "||https://cdn.test/rem.jpg||"},
		{name: "video", opts: interfaces.SendOptions{Video: true}, wantContent: "https://cdn.test/rem.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, channels := newDiscord(t)

			ref, err := d.SendMedia(context.Background(), 9, "rem.jpg", "A waifu appeared!", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, domain.MessageRef{ChatID: 9, MessageID: 1001}, ref)

			require.Len(t, channels.created, 1)
			msg := channels.created[0]
			assert.Equal(t, tt.wantContent, msg.Content)
			require.Len(t, msg.Embeds, 1)
			assert.Equal(t, "A waifu appeared!", msg.Embeds[0].Description)
			if tt.wantImage {
				require.NotNil(t, msg.Embeds[0].Image)
				assert.Equal(t, "https://cdn.test/rem.jpg", msg.Embeds[0].Image.URL)
			} else {
				assert.Nil(t, msg.Embeds[0].Image)
			}
			assert.Len(t, msg.Components, len(tt.opts.Buttons))
			if tt.opts.ReplyTo != 0 {
				require.NotNil(t, msg.MessageReference)
				assert.Equal(t, snowflake.ID(55), *msg.MessageReference.MessageID)
			}
		})
	}
}

func TestEditCaptionKeepsImage(t *testing.T) {
	d, channels := newDiscord(t)
	ctx := context.Background()

	ref, err := d.SendMedia(ctx, 9, "rem.jpg", "before", interfaces.SendOptions{})
	require.NoError(t, err)
	require.NoError(t, d.EditCaption(ctx, ref, "after", interfaces.SendOptions{}))

	require.Len(t, channels.updated, 1)
	embeds := *channels.updated[0].Embeds
	assert.Equal(t, "after", embeds[0].Description)
	require.NotNil(t, embeds[0].Image)
	assert.Equal(t, "https://cdn.test/rem.jpg", embeds[0].Image.URL)
	assert.Empty(t, *channels.updated[0].Components)
}

func TestEditMediaResolveFailure(t *testing.T) {
	d, channels := newDiscord(t)

	err := d.EditMedia(context.Background(), domain.MessageRef{ChatID: 9, MessageID: 3}, "missing", "x", interfaces.SendOptions{})
	require.Error(t, err)
	assert.Empty(t, channels.updated)
}

func TestSendTextFailure(t *testing.T) {
	d, channels := newDiscord(t)
	channels.err = errors.New("missing access")

	_, err := d.SendText(context.Background(), 9, "hello", interfaces.SendOptions{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "missing access"))
}

func TestAnswerInteraction(t *testing.T) {
	tests := []struct {
		name         string
		opts         interfaces.AnswerOptions
		wantDeferred int
		wantMessage  bool
	}{
		{name: "silent acknowledgement", wantDeferred: 1},
		{name: "toast", opts: interfaces.AnswerOptions{Text: "Refreshed"}, wantMessage: true},
		{name: "alert", opts: interfaces.AnswerOptions{Text: "Insufficient cash!", Alert: true}, wantMessage: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newDiscord(t)
			r := &fakeResponder{}
			d.Track("i-1", r)

			require.NoError(t, d.AnswerInteraction(context.Background(), "i-1", tt.opts))
			// A second answer is a no-op.
			require.NoError(t, d.AnswerInteraction(context.Background(), "i-1", tt.opts))

			assert.Equal(t, tt.wantDeferred, r.deferred)
			if !tt.wantMessage {
				assert.Empty(t, r.messages)
				return
			}
			require.Len(t, r.messages, 1)
			assert.Equal(t, discord.MessageFlagEphemeral, r.messages[0].Flags)
			if tt.opts.Alert {
				assert.Equal(t, tt.opts.Text, r.messages[0].Embeds[0].Description)
			} else {
				assert.Equal(t, tt.opts.Text, r.messages[0].Content)
			}
		})
	}
}

func TestDeleteMessage(t *testing.T) {
	d, channels := newDiscord(t)
	ref := domain.MessageRef{ChatID: 9, MessageID: 77}

	require.NoError(t, d.DeleteMessage(context.Background(), ref))
	assert.Equal(t, []snowflake.ID{77}, channels.deleted)
}
