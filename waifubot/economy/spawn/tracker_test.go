package spawn

import (
	"context"
	"errors"
	"testing"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/economy/auction"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces/mock"
	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
	"github.com/ellavondegurechaff/waifugrab/waifubot/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const group int64 = -1001

var saitama = domain.Card{ID: 7, Name: "Saitama", Source: "One Punch Man", Rarity: 3, MediaRef: "cards/7.png"}

func TestTransition(t *testing.T) {
	cfg := DefaultConfig()
	spawned := domain.Spawned{CardID: 7, Name: "Saitama"}

	tests := []struct {
		name  string
		state domain.SpawnState
		want  Action
	}{
		{"idle below threshold", domain.Idle{MessageCount: 99}, ActionRecord},
		{"idle at threshold", domain.Idle{MessageCount: 100}, ActionSpawn},
		{"idle past threshold", domain.Idle{MessageCount: 180}, ActionSpawn},
		{"spawned below deadline", domain.Spawned{CardID: 7, Name: "Saitama", MessageCount: 149}, ActionRecord},
		{"spawned at deadline", domain.Spawned{CardID: 7, Name: "Saitama", MessageCount: 150}, ActionSettle},
		{"auction at deadline", domain.AuctionOpen{Spawned: domain.Spawned{CardID: 7, Name: "Saitama", MessageCount: 150}}, ActionSettle},
		{"spawned never respawns", domain.AuctionOpen{Spawned: spawned}, ActionRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transition(tt.state, cfg))
		})
	}
}

func newTracker(t *testing.T, store *storetest.Store) (*Tracker, *mock.MockMessenger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	messenger := mock.NewMockMessenger(ctrl)
	settler := auction.NewManager(store, messenger)
	return NewTracker(store, settler, messenger, DefaultConfig()), messenger
}

func TestTracker_SpawnsAtThreshold(t *testing.T) {
	store := storetest.New(saitama, domain.Card{ID: 8, Name: "Premium", Rarity: 14})
	store.SetCounter(group, 99)
	tracker, messenger := newTracker(t, store)

	messenger.EXPECT().
		SendMedia(gomock.Any(), domain.ChatID(group), saitama.MediaRef, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.ChatID, _, _ string, opts interfaces.SendOptions) (domain.MessageRef, error) {
			assert.True(t, opts.Spoiler)
			return domain.MessageRef{ChatID: domain.ChatID(group), MessageID: 1}, nil
		})

	action, err := tracker.OnMessage(context.Background(), Message{GroupID: group})
	require.NoError(t, err)
	assert.Equal(t, ActionSpawn, action)

	state, err := store.GetGroupSpawnState(context.Background(), group)
	require.NoError(t, err)
	assert.Equal(t, domain.Spawned{CardID: saitama.ID, Name: saitama.Name, MessageCount: 0}, state)
}

func TestTracker_IgnoresPrivateAndBots(t *testing.T) {
	store := storetest.New(saitama)
	store.SetCounter(group, 99)
	tracker, _ := newTracker(t, store)

	for _, msg := range []Message{{GroupID: group, IsPrivate: true}, {GroupID: group, FromBot: true}} {
		action, err := tracker.OnMessage(context.Background(), msg)
		require.NoError(t, err)
		assert.Equal(t, ActionRecord, action)
	}

	state, err := store.GetGroupSpawnState(context.Background(), group)
	require.NoError(t, err)
	assert.Equal(t, domain.Idle{MessageCount: 99}, state)
}

func TestTracker_NoEligibleCardStillCounts(t *testing.T) {
	store := storetest.New(domain.Card{ID: 1, Name: "Locked", Rarity: 2, Locked: true})
	store.SetCounter(group, 99)
	tracker, _ := newTracker(t, store)

	action, err := tracker.OnMessage(context.Background(), Message{GroupID: group})
	require.NoError(t, err)
	assert.Equal(t, ActionSpawn, action)

	state, err := store.GetGroupSpawnState(context.Background(), group)
	require.NoError(t, err)
	assert.Equal(t, domain.Idle{MessageCount: 100}, state)
}

func TestTracker_SettlesUnclaimedSpawnWithoutBids(t *testing.T) {
	store := storetest.New(saitama)
	store.AddUser(domain.User{ID: 1, Balance: 5000})
	store.SetCounter(group, 99)
	tracker, messenger := newTracker(t, store)
	ctx := context.Background()

	messenger.EXPECT().SendMedia(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.MessageRef{MessageID: 1}, nil)
	messenger.EXPECT().
		SendText(gomock.Any(), domain.ChatID(group), "Auction ended with no bids for Saitama.", gomock.Any()).
		Return(domain.MessageRef{MessageID: 2}, nil)

	_, err := tracker.OnMessage(ctx, Message{GroupID: group})
	require.NoError(t, err)

	var last Action
	for i := 0; i < 150; i++ {
		last, err = tracker.OnMessage(ctx, Message{GroupID: group})
		require.NoError(t, err)
	}
	assert.Equal(t, ActionSettle, last)

	state, err := store.GetGroupSpawnState(ctx, group)
	require.NoError(t, err)
	assert.Equal(t, domain.Idle{}, state)
	assert.Empty(t, store.Ownerships())

	balance, err := store.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), balance)
}

func TestTracker_StoreFailure(t *testing.T) {
	store := storetest.New(saitama)
	store.FailWith = errors.New("connection refused")
	tracker, _ := newTracker(t, store)

	_, err := tracker.OnMessage(context.Background(), Message{GroupID: group})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestTracker_SpawnRangeExcludesPremium(t *testing.T) {
	store := storetest.New(domain.Card{ID: 8, Name: "Premium", Rarity: rarity.MaxTier})
	store.SetCounter(group, 99)
	tracker, _ := newTracker(t, store)

	_, err := tracker.OnMessage(context.Background(), Message{GroupID: group})
	require.NoError(t, err)

	state, err := store.GetGroupSpawnState(context.Background(), group)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseIdle, state.Phase())
}

func TestTracker_ResetsCorruptedSpawnState(t *testing.T) {
	store := storetest.New(saitama)
	store.SetSpawnRow(domain.SpawnRow{GroupID: group, MessageCount: 40, ActiveCardID: ptr(saitama.ID)})
	tracker, _ := newTracker(t, store)
	ctx := context.Background()

	_, err := store.GetGroupSpawnState(ctx, group)
	require.ErrorIs(t, err, domain.ErrCorruptSpawnState)

	action, err := tracker.OnMessage(ctx, Message{GroupID: group})
	require.NoError(t, err)
	assert.Equal(t, ActionRecord, action)

	state, err := store.GetGroupSpawnState(ctx, group)
	require.NoError(t, err)
	assert.Equal(t, domain.Idle{}, state)
}

// resetOnDraw clears the group's tracker between drawing a card and
// starting the spawn, as a concurrent settle would.
type resetOnDraw struct {
	*storetest.Store
}

func (s resetOnDraw) DrawRandomCard(ctx context.Context, r rarity.Range, excludeLocked bool) (*domain.Card, error) {
	card, err := s.Store.DrawRandomCard(ctx, r, excludeLocked)
	if err != nil {
		return nil, err
	}
	return card, s.Store.ResetSpawnState(ctx, group)
}

func TestTracker_LateSpawnAfterResetIsDropped(t *testing.T) {
	store := storetest.New(saitama)
	store.SetCounter(group, 99)
	ctrl := gomock.NewController(t)
	messenger := mock.NewMockMessenger(ctrl)
	tracker := NewTracker(resetOnDraw{store}, auction.NewManager(store, messenger), messenger, DefaultConfig())
	ctx := context.Background()

	action, err := tracker.OnMessage(ctx, Message{GroupID: group})
	require.NoError(t, err)
	assert.Equal(t, ActionSpawn, action)

	state, err := store.GetGroupSpawnState(ctx, group)
	require.NoError(t, err)
	assert.Equal(t, domain.Idle{}, state)
}

func ptr[T any](v T) *T { return &v }
