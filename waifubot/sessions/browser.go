package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
	"github.com/ellavondegurechaff/waifugrab/waifubot/logger"
	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
	"github.com/google/uuid"
)

const (
	DefaultIdleTimeout = 10 * time.Minute
	teardownTimeout    = 10 * time.Second
	// Stored sessions outlive their idle timer so the timer can still find them.
	storeGrace         = time.Minute
)

// View is one rendered state of a session. Views with a MediaRef are sent as
// media with Text as the caption.
type View struct {
	Text     string
	MediaRef string
	Video    bool
	Buttons  [][]interfaces.Button
}

// Source produces the content of one kind of session.
type Source interface {
	// Open fills in the initial state of a new session.
	Open(ctx context.Context, s *Session) error
	// Render builds the view at the session's position and sets s.Total.
	Render(ctx context.Context, s *Session) (View, error)
}

// Refresher is implemented by sources whose snapshot can be redrawn.
type Refresher interface {
	Refresh(ctx context.Context, s *Session) error
}

type Reason int

const (
	ReasonClosed Reason = iota
	ReasonPurchased
	ReasonTimeout
	ReasonReplaced
)

func (r Reason) String() string {
	switch r {
	case ReasonClosed:
		return "closed"
	case ReasonPurchased:
		return "purchased"
	case ReasonTimeout:
		return "timeout"
	case ReasonReplaced:
		return "replaced"
	}
	return "unknown"
}

type StartParams struct {
	Query   string
	Filter  *rarity.Tier
	Page    int
	ReplyTo int64
}

// Browser runs single-owner paged sessions rendered as editable messages.
type Browser struct {
	store     Store
	scheduler *Scheduler
	messenger interfaces.Messenger
	sources   map[Kind]Source
	idle      time.Duration
	now       func() time.Time
}

func NewBrowser(store Store, messenger interfaces.Messenger, idle time.Duration) *Browser {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Browser{
		store:     store,
		scheduler: NewScheduler(),
		messenger: messenger,
		sources:   make(map[Kind]Source),
		idle:      idle,
		now:       time.Now,
	}
}

func (b *Browser) Register(kind Kind, src Source) {
	b.sources[kind] = src
}

func (b *Browser) source(kind Kind) (Source, error) {
	src, ok := b.sources[kind]
	if !ok {
		return nil, fmt.Errorf("no source registered for %q sessions", kind)
	}
	return src, nil
}

// Start opens a new session for owner, replacing any previous session of the
// same kind.
func (b *Browser) Start(ctx context.Context, owner int64, chat domain.ChatID, kind Kind, p StartParams) (*Session, error) {
	src, err := b.source(kind)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		OwnerID:   owner,
		ChatID:    chat,
		Page:      max(p.Page, 1),
		Query:     p.Query,
		Filter:    p.Filter,
		CreatedAt: b.now(),
	}
	if err := src.Open(ctx, s); err != nil {
		return nil, err
	}
	view, err := src.Render(ctx, s)
	if err != nil {
		return nil, err
	}

	opts := interfaces.SendOptions{ReplyTo: p.ReplyTo, Buttons: view.Buttons, Video: view.Video}
	if view.MediaRef != "" {
		s.Message, err = b.messenger.SendMedia(ctx, chat, view.MediaRef, view.Text, opts)
	} else {
		s.Message, err = b.messenger.SendText(ctx, chat, view.Text, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to send %s view: %w", kind, err)
	}

	key := s.Key()
	b.retire(ctx, key)
	if err := b.store.Put(ctx, key, s, b.idle+storeGrace); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	id := s.ID
	b.scheduler.Schedule(key, id, b.idle, func() { b.expire(key, id) })

	logger.LogSession("Session started", s.ID,
		slog.String("kind", string(kind)),
		slog.Int64("owner", owner))
	return s, nil
}

// Lookup returns the live session an action refers to.
func (b *Browser) Lookup(ctx context.Context, actor int64, a Action) (*Session, error) {
	if actor != a.OwnerID {
		return nil, domain.ErrNotSessionOwner
	}
	s, err := b.store.Get(ctx, Key(a.Kind, a.OwnerID))
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil || s.ID != a.SessionID {
		return nil, domain.ErrSessionExpired
	}
	return s, nil
}

// Navigate moves the session and re-renders it in place.
func (b *Browser) Navigate(ctx context.Context, actor int64, a Action) (*Session, error) {
	s, err := b.Lookup(ctx, actor, a)
	if err != nil {
		return nil, err
	}
	src, err := b.source(s.Kind)
	if err != nil {
		return nil, err
	}

	switch a.Verb {
	case VerbNext:
		step(s, 1)
	case VerbBack:
		step(s, -1)
	case VerbRefresh:
		r, ok := src.(Refresher)
		if !ok {
			return nil, fmt.Errorf("%s sessions cannot be refreshed", s.Kind)
		}
		if err := r.Refresh(ctx, s); err != nil {
			return nil, err
		}
		s.Index = 0
	default:
		return nil, fmt.Errorf("unknown navigation %q", a.Verb)
	}

	view, err := src.Render(ctx, s)
	if err != nil {
		return nil, err
	}
	b.render(ctx, s, view)

	ttl := b.idle - b.now().Sub(s.CreatedAt)
	live, err := b.store.Replace(ctx, s.Key(), s.ID, s, max(ttl, 0)+storeGrace)
	if err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	if !live {
		// Ended while the view was being edited.
		return nil, domain.ErrSessionExpired
	}
	return s, nil
}

// step wraps a snapshot cursor and clamps a page cursor.
func step(s *Session, delta int) {
	if s.Kind.Paged() {
		s.Page = min(max(s.Page+delta, 1), max(s.Total, 1))
		return
	}
	if n := len(s.Items); n > 0 {
		s.Index = ((s.Index+delta)%n + n) % n
	}
}

// render edits the message in place, degrading from media to caption to
// leaving the stale view.
func (b *Browser) render(ctx context.Context, s *Session, v View) {
	opts := interfaces.SendOptions{Buttons: v.Buttons, Video: v.Video}

	if v.MediaRef == "" {
		if err := b.messenger.EditText(ctx, s.Message, v.Text, opts); err != nil {
			slog.Warn("Leaving stale view", slog.String("type", "session"), slog.String("session_id", s.ID), slog.Any("error", err))
		}
		return
	}

	mediaErr := b.messenger.EditMedia(ctx, s.Message, v.MediaRef, v.Text, opts)
	if mediaErr == nil {
		return
	}
	captionErr := b.messenger.EditCaption(ctx, s.Message, v.Text, opts)
	if captionErr == nil {
		slog.Warn("Media edit failed, updated caption only",
			slog.String("type", "session"),
			slog.String("session_id", s.ID),
			slog.Any("error", mediaErr))
		return
	}
	slog.Warn("Leaving stale view",
		slog.String("type", "session"),
		slog.String("session_id", s.ID),
		slog.Any("error", errors.Join(mediaErr, captionErr)))
}

// Terminate ends a session on behalf of its owner. Closing retracts the
// message; a purchase leaves it for the caller to finalize.
func (b *Browser) Terminate(ctx context.Context, actor int64, a Action, reason Reason) error {
	s, err := b.Lookup(ctx, actor, a)
	if err != nil {
		return err
	}
	return b.teardown(ctx, s, reason)
}

// retire ends the session currently stored under key, if any, so a new one
// can take its place.
func (b *Browser) retire(ctx context.Context, key string) {
	old, err := b.store.Get(ctx, key)
	if err != nil {
		logger.LogError("Failed to load replaced session", err, slog.String("key", key))
		return
	}
	if old == nil {
		return
	}
	if err := b.teardown(ctx, old, ReasonReplaced); err != nil && !errors.Is(err, domain.ErrSessionExpired) {
		logger.LogError("Failed to end replaced session", err, slog.String("session_id", old.ID))
	}
}

// teardown ends s once. Whoever removes the stored session retracts its
// view; later callers get domain.ErrSessionExpired.
func (b *Browser) teardown(ctx context.Context, s *Session, reason Reason) error {
	key := s.Key()
	b.scheduler.Cancel(key, s.ID)
	removed, err := b.store.Remove(ctx, key, s.ID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if !removed {
		return domain.ErrSessionExpired
	}

	if reason != ReasonPurchased {
		if err := b.messenger.DeleteMessage(ctx, s.Message); err != nil {
			slog.Warn("Failed to retract session view",
				slog.String("type", "session"),
				slog.String("session_id", s.ID),
				slog.Any("error", err))
		}
	}

	logger.LogSession("Session ended", s.ID, slog.String("status", reason.String()))
	return nil
}

// expire runs from the idle timer. A session replaced or ended since the
// timer was set is left alone.
func (b *Browser) expire(key, id string) {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	s, err := b.store.Get(ctx, key)
	if err != nil {
		logger.LogError("Failed to load expiring session", err, slog.String("session_id", id))
		return
	}
	if s == nil || s.ID != id {
		return
	}
	if err := b.teardown(ctx, s, ReasonTimeout); err != nil && !errors.Is(err, domain.ErrSessionExpired) {
		logger.LogError("Failed to expire session", err, slog.String("session_id", id))
	}
}

// Close stops all pending idle timers.
func (b *Browser) Close() {
	b.scheduler.Stop()
}
