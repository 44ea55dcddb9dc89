package sessions

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	owner    int64         = 10
	stranger int64         = 11
	chat     domain.ChatID = -500
)

// snapshotSource hands out numbered three-card snapshots.
type snapshotSource struct {
	draws int
}

func (f *snapshotSource) draw() []domain.Card {
	f.draws++
	cards := make([]domain.Card, 3)
	for i := range cards {
		id := int64(f.draws*10 + i)
		cards[i] = domain.Card{ID: id, Name: fmt.Sprintf("card-%d", id), MediaRef: fmt.Sprintf("m/%d", id)}
	}
	return cards
}

func (f *snapshotSource) Open(_ context.Context, s *Session) error {
	s.Items = f.draw()
	return nil
}

func (f *snapshotSource) Refresh(_ context.Context, s *Session) error {
	s.Items = f.draw()
	return nil
}

func (f *snapshotSource) Render(_ context.Context, s *Session) (View, error) {
	s.Total = len(s.Items)
	c, _ := s.Current()
	return View{Text: c.Name, MediaRef: c.MediaRef}, nil
}

// pagedSource has a fixed number of text pages.
type pagedSource struct {
	pages int
}

func (p pagedSource) Open(context.Context, *Session) error { return nil }

func (p pagedSource) Render(_ context.Context, s *Session) (View, error) {
	s.Total = p.pages
	return View{Text: fmt.Sprintf("page %d/%d", s.Page, s.Total)}, nil
}

func newBrowser(t *testing.T, idle time.Duration) (*Browser, *mock.MockMessenger) {
	t.Helper()
	messenger := mock.NewMockMessenger(gomock.NewController(t))
	b := NewBrowser(NewMemoryStore(), messenger, idle)
	b.Register(KindBazaar, &snapshotSource{})
	b.Register(KindHarem, pagedSource{pages: 3})
	b.Register(KindSearch, pagedSource{pages: 2})
	t.Cleanup(b.Close)
	return b, messenger
}

func startBazaar(t *testing.T, b *Browser, m *mock.MockMessenger) *Session {
	t.Helper()
	m.EXPECT().SendMedia(gomock.Any(), chat, "m/10", "card-10", gomock.Any()).
		Return(domain.MessageRef{ChatID: chat, MessageID: 77}, nil)
	s, err := b.Start(context.Background(), owner, chat, KindBazaar, StartParams{})
	require.NoError(t, err)
	return s
}

func TestBrowser_BazaarWrapsAndKeepsSnapshot(t *testing.T) {
	b, m := newBrowser(t, time.Hour)
	s := startBazaar(t, b, m)
	ctx := context.Background()

	m.EXPECT().EditMedia(gomock.Any(), s.Message, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	got, err := b.Navigate(ctx, owner, NewAction(s, VerbBack))
	require.NoError(t, err)
	assert.Equal(t, 2, got.Index)

	got, err = b.Navigate(ctx, owner, NewAction(s, VerbNext))
	require.NoError(t, err)
	assert.Equal(t, 0, got.Index)

	for i := 0; i < 4; i++ {
		got, err = b.Navigate(ctx, owner, NewAction(s, VerbNext))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, got.Index)
	assert.Equal(t, s.Items, got.Items)
}

func TestBrowser_RefreshReplacesSnapshot(t *testing.T) {
	b, m := newBrowser(t, time.Hour)
	s := startBazaar(t, b, m)
	ctx := context.Background()

	m.EXPECT().EditMedia(gomock.Any(), s.Message, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	_, err := b.Navigate(ctx, owner, NewAction(s, VerbNext))
	require.NoError(t, err)

	got, err := b.Navigate(ctx, owner, NewAction(s, VerbRefresh))
	require.NoError(t, err)
	assert.Equal(t, 0, got.Index)
	assert.NotEqual(t, s.Items, got.Items)
	assert.Equal(t, int64(20), got.Items[0].ID)
}

func TestBrowser_PagesAreClamped(t *testing.T) {
	b, m := newBrowser(t, time.Hour)
	ctx := context.Background()

	m.EXPECT().SendText(gomock.Any(), chat, "page 1/3", gomock.Any()).Return(domain.MessageRef{ChatID: chat, MessageID: 5}, nil)
	m.EXPECT().EditText(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	s, err := b.Start(ctx, owner, chat, KindHarem, StartParams{})
	require.NoError(t, err)

	got, err := b.Navigate(ctx, owner, NewAction(s, VerbBack))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Page)

	for i := 0; i < 5; i++ {
		got, err = b.Navigate(ctx, owner, NewAction(s, VerbNext))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, got.Page)
}

func TestBrowser_OnlyOwnerNavigates(t *testing.T) {
	b, m := newBrowser(t, time.Hour)
	ctx := context.Background()

	m.EXPECT().SendMedia(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.MessageRef{MessageID: 1}, nil)
	m.EXPECT().SendText(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.MessageRef{MessageID: 2}, nil).Times(2)

	for _, kind := range []Kind{KindBazaar, KindHarem, KindSearch} {
		t.Run(string(kind), func(t *testing.T) {
			s, err := b.Start(ctx, owner, chat, kind, StartParams{})
			require.NoError(t, err)

			for _, verb := range []string{VerbNext, VerbBack, VerbRefresh} {
				_, err := b.Navigate(ctx, stranger, NewAction(s, verb))
				assert.ErrorIs(t, err, domain.ErrNotSessionOwner)
			}
			// A forged owner field does not help either.
			forged := NewAction(s, VerbNext)
			forged.OwnerID = stranger
			_, err = b.Navigate(ctx, stranger, forged)
			assert.ErrorIs(t, err, domain.ErrSessionExpired)

			err = b.Terminate(ctx, stranger, NewAction(s, VerbClose), ReasonClosed)
			assert.ErrorIs(t, err, domain.ErrNotSessionOwner)
		})
	}
}

func TestBrowser_RenderFallback(t *testing.T) {
	tests := []struct {
		name   string
		expect func(m *mock.MockMessenger, ref domain.MessageRef)
	}{
		{
			name: "media edit fails, caption succeeds",
			expect: func(m *mock.MockMessenger, ref domain.MessageRef) {
				gomock.InOrder(
					m.EXPECT().EditMedia(gomock.Any(), ref, "m/11", "card-11", gomock.Any()).Return(errors.New("bad media")),
					m.EXPECT().EditCaption(gomock.Any(), ref, "card-11", gomock.Any()).Return(nil),
				)
			},
		},
		{
			name: "both edits fail",
			expect: func(m *mock.MockMessenger, ref domain.MessageRef) {
				m.EXPECT().EditMedia(gomock.Any(), ref, gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("bad media"))
				m.EXPECT().EditCaption(gomock.Any(), ref, gomock.Any(), gomock.Any()).Return(errors.New("message gone"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, m := newBrowser(t, time.Hour)
			s := startBazaar(t, b, m)
			tt.expect(m, s.Message)

			got, err := b.Navigate(context.Background(), owner, NewAction(s, VerbNext))
			require.NoError(t, err)
			assert.Equal(t, 1, got.Index)
		})
	}
}

func TestBrowser_CloseRetractsAndInvalidates(t *testing.T) {
	b, m := newBrowser(t, time.Hour)
	s := startBazaar(t, b, m)
	ctx := context.Background()

	m.EXPECT().DeleteMessage(gomock.Any(), s.Message).Return(nil)
	require.NoError(t, b.Terminate(ctx, owner, NewAction(s, VerbClose), ReasonClosed))
	assert.Equal(t, 0, b.scheduler.Pending())

	_, err := b.Navigate(ctx, owner, NewAction(s, VerbNext))
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	err = b.Terminate(ctx, owner, NewAction(s, VerbClose), ReasonClosed)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestBrowser_PurchaseKeepsMessage(t *testing.T) {
	b, m := newBrowser(t, time.Hour)
	s := startBazaar(t, b, m)

	require.NoError(t, b.Terminate(context.Background(), owner, NewAction(s, VerbBuy), ReasonPurchased))
	_, err := b.Lookup(context.Background(), owner, NewAction(s, VerbBuy))
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestBrowser_RestartReplacesOldSession(t *testing.T) {
	b, m := newBrowser(t, time.Hour)
	ctx := context.Background()
	firstRef := domain.MessageRef{ChatID: chat, MessageID: 1}
	secondRef := domain.MessageRef{ChatID: chat, MessageID: 2}

	gomock.InOrder(
		m.EXPECT().SendMedia(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(firstRef, nil),
		m.EXPECT().SendMedia(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(secondRef, nil),
		m.EXPECT().DeleteMessage(gomock.Any(), firstRef).Return(nil),
	)

	first, err := b.Start(ctx, owner, chat, KindBazaar, StartParams{})
	require.NoError(t, err)
	second, err := b.Start(ctx, owner, chat, KindBazaar, StartParams{})
	require.NoError(t, err)

	_, err = b.Navigate(ctx, owner, NewAction(first, VerbNext))
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, 1, b.scheduler.Pending())

	got, err := b.Lookup(ctx, owner, NewAction(second, VerbNext))
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestBrowser_RestartedViewsExpireIndependently(t *testing.T) {
	b, m := newBrowser(t, 30*time.Millisecond)
	deleted := make(chan domain.MessageRef, 2)

	m.EXPECT().SendMedia(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.MessageRef{ChatID: chat, MessageID: 1}, nil)
	m.EXPECT().SendMedia(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.MessageRef{ChatID: chat, MessageID: 2}, nil)
	m.EXPECT().DeleteMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ref domain.MessageRef) error {
			deleted <- ref
			return nil
		}).Times(2)

	for i := 0; i < 2; i++ {
		_, err := b.Start(context.Background(), owner, chat, KindBazaar, StartParams{})
		require.NoError(t, err)
	}

	var got []int64
	for len(got) < 2 {
		select {
		case ref := <-deleted:
			got = append(got, ref.MessageID)
		case <-time.After(2 * time.Second):
			t.Fatalf("retracted %v, want both views retracted", got)
		}
	}
	assert.ElementsMatch(t, []int64{1, 2}, got)
}

func TestBrowser_NavigateDoesNotReviveEndedSession(t *testing.T) {
	b, m := newBrowser(t, time.Hour)
	s := startBazaar(t, b, m)
	ctx := context.Background()

	m.EXPECT().DeleteMessage(gomock.Any(), s.Message).Return(nil)
	m.EXPECT().EditMedia(gomock.Any(), s.Message, gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.MessageRef, _, _ string, _ interfaces.SendOptions) error {
			// The idle timer fires while the edit is in flight.
			b.expire(s.Key(), s.ID)
			return nil
		})

	_, err := b.Navigate(ctx, owner, NewAction(s, VerbNext))
	assert.ErrorIs(t, err, domain.ErrSessionExpired)

	_, err = b.Lookup(ctx, owner, NewAction(s, VerbNext))
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, 0, b.scheduler.Pending())
}

func TestBrowser_TeardownHappensOnce(t *testing.T) {
	b, m := newBrowser(t, time.Hour)
	s := startBazaar(t, b, m)
	ctx := context.Background()

	m.EXPECT().DeleteMessage(gomock.Any(), s.Message).Return(nil).Times(1)

	require.NoError(t, b.teardown(ctx, s, ReasonClosed))
	assert.ErrorIs(t, b.teardown(ctx, s, ReasonTimeout), domain.ErrSessionExpired)
}

func TestBrowser_IdleTimeoutRetractsView(t *testing.T) {
	b, m := newBrowser(t, 20*time.Millisecond)
	deleted := make(chan domain.MessageRef, 1)

	m.EXPECT().SendMedia(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.MessageRef{ChatID: chat, MessageID: 3}, nil)
	m.EXPECT().DeleteMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ref domain.MessageRef) error {
			deleted <- ref
			return nil
		})

	s, err := b.Start(context.Background(), owner, chat, KindBazaar, StartParams{})
	require.NoError(t, err)

	select {
	case ref := <-deleted:
		assert.Equal(t, s.Message, ref)
	case <-time.After(2 * time.Second):
		t.Fatal("session was not retracted after idle timeout")
	}

	_, err = b.Lookup(context.Background(), owner, NewAction(s, VerbNext))
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestBrowser_SendFailureLeavesNoSession(t *testing.T) {
	b, m := newBrowser(t, time.Hour)
	m.EXPECT().SendMedia(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.MessageRef{}, errors.New("forbidden"))

	_, err := b.Start(context.Background(), owner, chat, KindBazaar, StartParams{})
	require.Error(t, err)
	assert.Equal(t, 0, b.scheduler.Pending())
}

func TestBrowser_ViewCarriesButtons(t *testing.T) {
	b, m := newBrowser(t, time.Hour)
	b.Register(KindSearch, buttonSource{})

	m.EXPECT().SendText(gomock.Any(), chat, "results", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.ChatID, _ string, opts interfaces.SendOptions) (domain.MessageRef, error) {
			require.Len(t, opts.Buttons, 1)
			a, err := ParseAction(opts.Buttons[0][0].Action)
			require.NoError(t, err)
			assert.Equal(t, owner, a.OwnerID)
			assert.Equal(t, KindSearch, a.Kind)
			assert.Equal(t, int64(42), opts.ReplyTo)
			return domain.MessageRef{MessageID: 8}, nil
		})

	_, err := b.Start(context.Background(), owner, chat, KindSearch, StartParams{Query: "rem", ReplyTo: 42})
	require.NoError(t, err)
}

type buttonSource struct{}

func (buttonSource) Open(context.Context, *Session) error { return nil }

func (buttonSource) Render(_ context.Context, s *Session) (View, error) {
	s.Total = 1
	return View{
		Text:    "results",
		Buttons: [][]interfaces.Button{{{Label: "Next", Action: NewAction(s, VerbNext).Encode()}}},
	}, nil
}
