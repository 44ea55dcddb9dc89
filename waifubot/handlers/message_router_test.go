package handlers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/economy/spawn"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces/mock"
	"github.com/ellavondegurechaff/waifugrab/waifubot/storetest"
	"github.com/ellavondegurechaff/waifugrab/waifubot/views"
)

type countingTracker struct {
	seen []spawn.Message
	err  error
}

func (c *countingTracker) OnMessage(_ context.Context, msg spawn.Message) (spawn.Action, error) {
	c.seen = append(c.seen, msg)
	return spawn.ActionRecord, c.err
}

const chat domain.ChatID = 300

func newRouter(t *testing.T) (*MessageRouter, *countingTracker, *storetest.Store, *mock.MockMessenger) {
	t.Helper()
	tracker := &countingTracker{}
	store := storetest.New()
	messenger := mock.NewMockMessenger(gomock.NewController(t))
	guard, err := NewSpamGuard()
	require.NoError(t, err)
	return NewMessageRouter("/", tracker, store, messenger, guard), tracker, store, messenger
}

func message(content string) Message {
	return Message{
		ChatID:    chat,
		MessageID: 5,
		Author:    domain.User{ID: 42, Username: "subaru", FirstName: "Subaru"},
		Content:   content,
	}
}

func expectReply(m *mock.MockMessenger, text string) *gomock.Call {
	return m.EXPECT().
		SendText(gomock.Any(), chat, text, interfaces.SendOptions{ReplyTo: 5}).
		Return(domain.MessageRef{ChatID: chat, MessageID: 6}, nil)
}

func TestRoute_DispatchesCommands(t *testing.T) {
	r, tracker, store, m := newRouter(t)

	var got *TextEvent
	r.Command("grab", func(_ context.Context, e *TextEvent) (string, error) {
		got = e
		return "grabbed", nil
	})
	expectReply(m, "grabbed")

	r.Route(context.Background(), message("  /GRAB Rem  Rezero "))

	require.NotNil(t, got)
	assert.Equal(t, "grab", got.Command)
	assert.Equal(t, []string{"Rem", "Rezero"}, got.Args)
	assert.Equal(t, int64(42), got.User.ID)
	assert.Len(t, tracker.seen, 1, "commands still count toward spawns")

	u, err := store.GetUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "subaru", u.Username)
}

func TestRoute_PlainMessagesOnlyFeedTracker(t *testing.T) {
	r, tracker, _, _ := newRouter(t)
	r.Command("grab", func(context.Context, *TextEvent) (string, error) {
		t.Error("handler must not run")
		return "", nil
	})

	r.Route(context.Background(), message("hello there"))
	r.Route(context.Background(), message("/unknown"))
	r.Route(context.Background(), message("/"))

	bot := message("/grab Rem")
	bot.FromBot = true
	r.Route(context.Background(), bot)

	assert.Len(t, tracker.seen, 3)
	assert.Equal(t, int64(chat), tracker.seen[0].GroupID)
}

func TestRoute_TrackerFailureDoesNotBlockCommands(t *testing.T) {
	r, tracker, _, _ := newRouter(t)
	tracker.err = errors.New("db down")
	r.Command("bazaar", func(context.Context, *TextEvent) (string, error) { return "", nil })

	r.Route(context.Background(), message("/bazaar"))
	assert.Len(t, tracker.seen, 1)
}

func TestRoute_ErrorReplies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "no spawn", err: domain.ErrNoActiveSpawn, want: "❌ No active spawn! Wait for a waifu to appear."},
		{name: "lost race", err: fmt.Errorf("claim: %w", domain.ErrAlreadyClaimed), want: "😔 Too slow! Someone else grabbed this waifu first."},
		{name: "auction running", err: domain.ErrAuctionActive, want: "⚔️ Auction is active! Use `bid <amount>` to participate."},
		{name: "empty view", err: &views.EmptyError{Message: "📭 nothing"}, want: "📭 nothing"},
		{name: "store down", err: domain.StoreError("claim", errors.New("conn refused")), want: GenericError},
		{name: "unknown", err: errors.New("boom"), want: GenericError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _, m := newRouter(t)
			r.Command("grab", func(context.Context, *TextEvent) (string, error) { return "ignored", tt.err })
			expectReply(m, tt.want)

			r.Route(context.Background(), message("/grab rem"))
		})
	}
}

func TestRoute_StoreFailureOnEnsureUser(t *testing.T) {
	r, _, store, m := newRouter(t)
	store.FailWith = errors.New("timeout")
	r.Command("harem", func(context.Context, *TextEvent) (string, error) {
		t.Error("handler must not run")
		return "", nil
	})
	expectReply(m, GenericError)

	r.Route(context.Background(), message("/harem"))
}

func TestRoute_SpamGuard(t *testing.T) {
	r, _, _, m := newRouter(t)
	calls := 0
	r.Command("harem", func(context.Context, *TextEvent) (string, error) {
		calls++
		return "", nil
	})
	m.EXPECT().SendText(gomock.Any(), chat, gomock.Any(), gomock.Any()).
		Return(domain.MessageRef{}, nil).Times(1)

	for i := 0; i < SpamLimit+3; i++ {
		r.Route(context.Background(), message("/harem"))
	}
	assert.Equal(t, SpamLimit, calls)
}

func TestUserMessageNeverLeaksErrors(t *testing.T) {
	err := fmt.Errorf("failed to settle: %w", errors.New(`pq: relation "cards" does not exist`))
	assert.Equal(t, GenericError, UserMessage(err))
	assert.False(t, IsExpected(err))
	assert.True(t, IsExpected(domain.ErrBidTooLow))
}
