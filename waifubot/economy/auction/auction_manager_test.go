package auction

import (
	"context"
	"testing"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces/mock"
	"github.com/ellavondegurechaff/waifugrab/waifubot/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const group int64 = -1001

var saitama = domain.Card{ID: 7, Name: "Saitama", Rarity: 3}

func spawnedStore(t *testing.T) *storetest.Store {
	t.Helper()
	store := storetest.New(saitama)
	store.AddUser(domain.User{ID: 1, Username: "alice", Balance: 2000})
	store.AddUser(domain.User{ID: 2, Username: "bob", Balance: 2000})
	store.AddUser(domain.User{ID: 3, Username: "carol", Balance: 2000})
	store.SetCounter(group, 0)
	ok, err := store.StartSpawn(context.Background(), group, saitama, 0)
	require.NoError(t, err)
	require.True(t, ok)
	return store
}

func TestManager_BiddingScenario(t *testing.T) {
	ctx := context.Background()
	store := spawnedStore(t)
	messenger := mock.NewMockMessenger(gomock.NewController(t))
	m := NewManager(store, messenger)

	_, err := m.PlaceBid(ctx, group, 1, 1000)
	require.NoError(t, err)
	_, err = m.PlaceBid(ctx, group, 2, 1500)
	require.NoError(t, err)
	_, err = m.PlaceBid(ctx, group, 3, 1200)
	assert.ErrorIs(t, err, domain.ErrBidTooLow)

	messenger.EXPECT().
		SendText(gomock.Any(), domain.ChatID(group), "Auction ended! bob won Saitama for 1500 💸", gomock.Any()).
		Return(domain.MessageRef{MessageID: 9}, nil)

	result, err := m.Settle(ctx, group, saitama.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSold, result.Outcome)
	assert.Equal(t, int64(2), result.Winner)

	for id, want := range map[int64]int64{1: 2000, 2: 500, 3: 2000} {
		balance, err := store.GetBalance(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, balance, "user %d", id)
	}
	owned := store.Ownerships()
	require.Len(t, owned, 1)
	assert.Equal(t, int64(2), owned[0].UserID)
	assert.Equal(t, saitama.ID, owned[0].CardID)

	state, err := store.GetGroupSpawnState(ctx, group)
	require.NoError(t, err)
	assert.Equal(t, domain.Idle{}, state)
}

func TestManager_PlaceBidErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) *storetest.Store
		user    int64
		amount  int64
		wantErr error
	}{
		{
			name:    "no spawn",
			setup:   func(t *testing.T) *storetest.Store { return storetest.New(saitama) },
			user:    1,
			amount:  100,
			wantErr: domain.ErrNoActiveSpawn,
		},
		{
			name:    "non positive amount",
			setup:   spawnedStore,
			user:    1,
			amount:  0,
			wantErr: domain.ErrBidTooLow,
		},
		{
			name:    "more than balance",
			setup:   spawnedStore,
			user:    1,
			amount:  2001,
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name:    "unknown bidder has no funds",
			setup:   spawnedStore,
			user:    99,
			amount:  1,
			wantErr: domain.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.setup(t)
			m := NewManager(store, mock.NewMockMessenger(gomock.NewController(t)))

			_, err := m.PlaceBid(context.Background(), group, tt.user, tt.amount)
			assert.ErrorIs(t, err, tt.wantErr)

			a, err := store.GetAuctionState(context.Background(), group)
			require.NoError(t, err)
			assert.Nil(t, a, "rejected bids never open an auction")
		})
	}
}

func TestManager_EqualBidIsTooLow(t *testing.T) {
	ctx := context.Background()
	store := spawnedStore(t)
	m := NewManager(store, mock.NewMockMessenger(gomock.NewController(t)))

	_, err := m.PlaceBid(ctx, group, 1, 1000)
	require.NoError(t, err)
	_, err = m.PlaceBid(ctx, group, 2, 1000)
	assert.ErrorIs(t, err, domain.ErrBidTooLow)
}

func TestManager_SettleWinnerCannotPay(t *testing.T) {
	ctx := context.Background()
	store := spawnedStore(t)
	messenger := mock.NewMockMessenger(gomock.NewController(t))
	m := NewManager(store, messenger)

	_, err := m.PlaceBid(ctx, group, 1, 1800)
	require.NoError(t, err)
	_, err = store.AdjustBalance(ctx, 1, -1500)
	require.NoError(t, err)

	messenger.EXPECT().SendText(gomock.Any(), domain.ChatID(group), gomock.Any(), gomock.Any()).
		Return(domain.MessageRef{MessageID: 9}, nil)

	result, err := m.Settle(ctx, group, saitama.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeForfeited, result.Outcome)

	balance, err := store.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)
	assert.Empty(t, store.Ownerships())
}

func TestManager_SettleTwiceIsNoop(t *testing.T) {
	ctx := context.Background()
	store := spawnedStore(t)
	messenger := mock.NewMockMessenger(gomock.NewController(t))
	m := NewManager(store, messenger)

	messenger.EXPECT().SendText(gomock.Any(), gomock.Any(), "Auction ended with no bids for Saitama.", gomock.Any()).
		Return(domain.MessageRef{MessageID: 9}, nil).
		Times(1)

	first, err := m.Settle(ctx, group, saitama.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNoBids, first.Outcome)

	second, err := m.Settle(ctx, group, saitama.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNothing, second.Outcome)
}

func TestManager_Cancel(t *testing.T) {
	ctx := context.Background()
	store := spawnedStore(t)
	m := NewManager(store, mock.NewMockMessenger(gomock.NewController(t)))

	_, err := m.PlaceBid(ctx, group, 1, 1000)
	require.NoError(t, err)
	require.NoError(t, m.Cancel(ctx, group))

	state, err := store.GetGroupSpawnState(ctx, group)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseSpawned, state.Phase())
}
