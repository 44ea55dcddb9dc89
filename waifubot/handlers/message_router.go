package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/disgoorg/disgo/events"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/economy/spawn"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
	"github.com/ellavondegurechaff/waifugrab/waifubot/logger"
)

// Message is an inbound chat message.
type Message struct {
	ChatID    domain.ChatID
	MessageID int64
	Author    domain.User
	FromBot   bool
	IsPrivate bool
	Content   string
}

// TextEvent is a prefixed text command. User is the stored author.
type TextEvent struct {
	Message
	User    domain.User
	Command string
	Args    []string
}

// TextHandler runs a text command and returns the reply, if any, to post
// under the command message.
type TextHandler func(ctx context.Context, e *TextEvent) (string, error)

type MessageTracker interface {
	OnMessage(ctx context.Context, msg spawn.Message) (spawn.Action, error)
}

type UserEnsurer interface {
	EnsureUser(ctx context.Context, user domain.User) (domain.User, error)
}

// MessageRouter feeds every group message to the spawn tracker, then
// dispatches prefixed text commands.
type MessageRouter struct {
	prefix    string
	tracker   MessageTracker
	users     UserEnsurer
	messenger interfaces.Messenger
	guard     *SpamGuard
	handlers  map[string]TextHandler
}

func NewMessageRouter(prefix string, tracker MessageTracker, users UserEnsurer, messenger interfaces.Messenger, guard *SpamGuard) *MessageRouter {
	return &MessageRouter{
		prefix:    prefix,
		tracker:   tracker,
		users:     users,
		messenger: messenger,
		guard:     guard,
		handlers:  make(map[string]TextHandler),
	}
}

func (r *MessageRouter) Command(name string, h TextHandler) {
	r.handlers[strings.ToLower(name)] = h
}

// OnGuildMessage is the gateway listener for guild messages.
func (r *MessageRouter) OnGuildMessage(e *events.GuildMessageCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	author := e.Message.Author
	firstName := author.Username
	if author.GlobalName != nil {
		firstName = *author.GlobalName
	}

	r.Route(ctx, Message{
		ChatID:    domain.ChatID(e.ChannelID),
		MessageID: int64(e.Message.ID),
		Author: domain.User{
			ID:        int64(author.ID),
			Username:  author.Username,
			FirstName: firstName,
		},
		FromBot: author.Bot,
		Content: e.Message.Content,
	})
}

func (r *MessageRouter) Route(ctx context.Context, msg Message) {
	if msg.FromBot {
		return
	}

	_, err := r.tracker.OnMessage(ctx, spawn.Message{
		GroupID:   int64(msg.ChatID),
		IsPrivate: msg.IsPrivate,
		FromBot:   msg.FromBot,
	})
	if err != nil {
		logger.LogError("Spawn tracking failed", err, slog.Int64("group_id", int64(msg.ChatID)))
	}

	name, args, ok := r.parse(msg.Content)
	if !ok {
		return
	}
	h, ok := r.handlers[name]
	if !ok {
		return
	}

	switch r.guard.Check(msg.Author.ID) {
	case Blocked:
		return
	case JustBlocked:
		slog.Warn("User blocked for spamming",
			slog.String("type", "cmd"),
			slog.Int64("user_id", msg.Author.ID),
			slog.String("user_name", msg.Author.DisplayName()))
		r.reply(ctx, msg, "🚫 Slow down! You can't use commands for the next 20 minutes.")
		return
	}

	user, err := r.users.EnsureUser(ctx, msg.Author)
	if err != nil {
		r.reply(ctx, msg, Report(name, msg.Author.ID, err))
		return
	}

	e := &TextEvent{Message: msg, User: user, Command: name, Args: args}
	var out string
	err = track(invocation{
		kind:      "Command",
		name:      name,
		userID:    strconv.FormatInt(user.ID, 10),
		userName:  user.DisplayName(),
		channelID: strconv.FormatInt(int64(msg.ChatID), 10),
	}, func() error {
		reply, err := h(ctx, e)
		if err != nil && IsExpected(err) {
			out = UserMessage(err)
			return nil
		}
		if err == nil {
			out = reply
		}
		return err
	})
	if err != nil {
		r.reply(ctx, msg, GenericError)
		return
	}
	r.reply(ctx, msg, out)
}

func (r *MessageRouter) parse(content string) (string, []string, bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, r.prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, r.prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

func (r *MessageRouter) reply(ctx context.Context, msg Message, text string) {
	if text == "" {
		return
	}
	if _, err := r.messenger.SendText(ctx, msg.ChatID, text, interfaces.SendOptions{ReplyTo: msg.MessageID}); err != nil {
		logger.LogError("Failed to reply", err, slog.Int64("chat_id", int64(msg.ChatID)))
	}
}
