// Package storetest provides an in-memory interfaces.Store for tests. Every
// method holds one mutex for its whole body, giving the same atomicity the
// SQL store gets from its row locks.
package storetest

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
)

type Store struct {
	mu        sync.Mutex
	cards     map[int64]domain.Card
	users     map[int64]domain.User
	owned     []domain.Ownership
	trackers  map[int64]domain.SpawnRow
	auctions  map[int64]domain.AuctionState
	rng       *rand.Rand
	clock     time.Time
	FailWith  error
	DrawOrder []int64
}

var _ interfaces.Store = (*Store)(nil)

func New(cards ...domain.Card) *Store {
	s := &Store{
		cards:    make(map[int64]domain.Card),
		users:    make(map[int64]domain.User),
		trackers: make(map[int64]domain.SpawnRow),
		auctions: make(map[int64]domain.AuctionState),
		rng:      rand.New(rand.NewSource(1)),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, c := range cards {
		s.cards[c.ID] = c
	}
	return s
}

// AddUser seeds a user with a balance.
func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// SetCounter seeds a group's message counter.
func (s *Store) SetCounter(groupID int64, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.trackers[groupID]
	row.GroupID = groupID
	row.MessageCount = count
	s.trackers[groupID] = row
}

// SetSpawnRow overwrites a group's tracker row as-is, bypassing the checks
// the mutating methods apply.
func (s *Store) SetSpawnRow(row domain.SpawnRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackers[row.GroupID] = row
}

// Ownerships returns a copy of all ownership records.
func (s *Store) Ownerships() []domain.Ownership {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Ownership(nil), s.owned...)
}

func (s *Store) fail(op string) error {
	if s.FailWith != nil {
		return domain.StoreError(op, s.FailWith)
	}
	return nil
}

func (s *Store) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) sortedCards(keep func(domain.Card) bool) []domain.Card {
	var out []domain.Card
	for _, c := range s.cards {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) DrawRandomCard(_ context.Context, r rarity.Range, excludeLocked bool) (*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("draw random card"); err != nil {
		return nil, err
	}

	eligible := s.sortedCards(func(c domain.Card) bool {
		return r.Contains(c.Rarity) && !(excludeLocked && c.Locked)
	})
	if len(eligible) == 0 {
		return nil, nil
	}
	for len(s.DrawOrder) > 0 {
		id := s.DrawOrder[0]
		s.DrawOrder = s.DrawOrder[1:]
		for _, c := range eligible {
			if c.ID == id {
				return &c, nil
			}
		}
	}
	c := eligible[s.rng.Intn(len(eligible))]
	return &c, nil
}

func (s *Store) DrawRandomCards(_ context.Context, n int, excludeLocked bool) ([]domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("draw random cards"); err != nil {
		return nil, err
	}

	eligible := s.sortedCards(func(c domain.Card) bool { return !(excludeLocked && c.Locked) })
	s.rng.Shuffle(len(eligible), func(i, j int) { eligible[i], eligible[j] = eligible[j], eligible[i] })
	if n < len(eligible) {
		eligible = eligible[:n]
	}
	return eligible, nil
}

func (s *Store) GetCard(_ context.Context, id int64) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("get card"); err != nil {
		return domain.Card{}, err
	}
	c, ok := s.cards[id]
	if !ok {
		return domain.Card{}, fmt.Errorf("card %d: %w", id, domain.ErrCardNotFound)
	}
	return c, nil
}

func (s *Store) matching(query string) []domain.Card {
	q := strings.ToLower(strings.TrimSpace(query))
	out := s.sortedCards(func(c domain.Card) bool { return strings.Contains(strings.ToLower(c.Name), q) })
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rarity != out[j].Rarity {
			return out[i].Rarity < out[j].Rarity
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (s *Store) SearchCards(_ context.Context, query string, offset, limit int) ([]domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("search cards"); err != nil {
		return nil, err
	}
	return window(s.matching(query), offset, limit), nil
}

func (s *Store) CountSearchCards(_ context.Context, query string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("count search cards"); err != nil {
		return 0, err
	}
	return len(s.matching(query)), nil
}

func (s *Store) ListCardNames(_ context.Context) ([]domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("list card names"); err != nil {
		return nil, err
	}
	return s.sortedCards(func(domain.Card) bool { return true }), nil
}

func (s *Store) stateLocked(groupID int64) (domain.SpawnState, error) {
	row := s.trackers[groupID]
	row.GroupID = groupID
	var auction *domain.AuctionState
	if a, ok := s.auctions[groupID]; ok {
		auction = &a
	}
	return domain.NewSpawnState(row, auction)
}

func (s *Store) GetGroupSpawnState(_ context.Context, groupID int64) (domain.SpawnState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("get spawn state"); err != nil {
		return nil, err
	}
	return s.stateLocked(groupID)
}

func (s *Store) IncrementMessageCounter(_ context.Context, groupID int64) (domain.SpawnState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("increment message counter"); err != nil {
		return nil, err
	}
	row := s.trackers[groupID]
	row.GroupID = groupID
	row.MessageCount++
	s.trackers[groupID] = row
	return s.stateLocked(groupID)
}

func (s *Store) StartSpawn(_ context.Context, groupID int64, card domain.Card, minCount int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("start spawn"); err != nil {
		return false, err
	}
	row, ok := s.trackers[groupID]
	if !ok || row.ActiveCardID != nil || row.MessageCount < minCount {
		return false, nil
	}
	id, name := card.ID, card.Name
	row.ActiveCardID, row.ActiveName, row.MessageCount = &id, &name, 0
	s.trackers[groupID] = row
	return true, nil
}

func (s *Store) activeCardLocked(groupID int64) (int64, bool) {
	row, ok := s.trackers[groupID]
	if !ok || row.ActiveCardID == nil {
		return 0, false
	}
	return *row.ActiveCardID, true
}

func (s *Store) clearLocked(groupID int64) {
	delete(s.auctions, groupID)
	s.trackers[groupID] = domain.SpawnRow{GroupID: groupID}
}

func (s *Store) insertOwnershipLocked(userID, cardID int64) bool {
	for _, o := range s.owned {
		if o.UserID == userID && o.CardID == cardID {
			return false
		}
	}
	s.owned = append(s.owned, domain.Ownership{UserID: userID, CardID: cardID, AcquiredAt: s.now()})
	return true
}

func (s *Store) TrySettleClaim(_ context.Context, groupID, userID, cardID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("settle claim"); err != nil {
		return false, err
	}
	active, ok := s.activeCardLocked(groupID)
	if !ok || active != cardID {
		return false, nil
	}
	if _, bidding := s.auctions[groupID]; bidding {
		return false, nil
	}
	s.clearLocked(groupID)
	s.insertOwnershipLocked(userID, cardID)
	return true, nil
}

func (s *Store) ResetSpawnState(_ context.Context, groupID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("reset spawn state"); err != nil {
		return err
	}
	s.clearLocked(groupID)
	return nil
}

func (s *Store) GetAuctionState(_ context.Context, groupID int64) (*domain.AuctionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("get auction state"); err != nil {
		return nil, err
	}
	a, ok := s.auctions[groupID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *Store) UpsertAuctionBid(_ context.Context, groupID, cardID, bidderID, amount int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("upsert auction bid"); err != nil {
		return false, err
	}
	active, ok := s.activeCardLocked(groupID)
	if !ok || active != cardID {
		return false, domain.ErrNoActiveSpawn
	}
	a, exists := s.auctions[groupID]
	if exists && a.HighestBid != nil && *a.HighestBid >= amount {
		return false, nil
	}
	s.auctions[groupID] = domain.AuctionState{
		GroupID:       groupID,
		CardID:        cardID,
		HighestBid:    &amount,
		HighestBidder: &bidderID,
	}
	return true, nil
}

func (s *Store) ClearAuctionState(_ context.Context, groupID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("clear auction state"); err != nil {
		return err
	}
	delete(s.auctions, groupID)
	return nil
}

func (s *Store) SettleAuction(_ context.Context, groupID, cardID int64) (domain.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := domain.Settlement{Outcome: domain.OutcomeNothing, GroupID: groupID, CardID: cardID}
	if err := s.fail("settle auction"); err != nil {
		return result, err
	}
	active, ok := s.activeCardLocked(groupID)
	if !ok || active != cardID {
		return result, nil
	}

	a, exists := s.auctions[groupID]
	result.Outcome = domain.OutcomeNoBids
	if exists && a.HasBid() {
		result.Winner, result.Amount = *a.HighestBidder, *a.HighestBid
		u, known := s.users[result.Winner]
		if !known || u.Balance < result.Amount {
			result.Outcome = domain.OutcomeForfeited
		} else {
			u.Balance -= result.Amount
			s.users[u.ID] = u
			s.insertOwnershipLocked(result.Winner, cardID)
			result.Outcome = domain.OutcomeSold
		}
	}
	s.clearLocked(groupID)
	return result, nil
}

func (s *Store) EnsureUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ensure user"); err != nil {
		return domain.User{}, err
	}
	existing, ok := s.users[user.ID]
	if !ok {
		existing = domain.User{ID: user.ID}
	}
	existing.Username, existing.FirstName = user.Username, user.FirstName
	s.users[user.ID] = existing
	return existing, nil
}

func (s *Store) GetUser(_ context.Context, userID int64) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("get user"); err != nil {
		return domain.User{}, err
	}
	u, ok := s.users[userID]
	if !ok {
		return domain.User{}, fmt.Errorf("user %d: %w", userID, domain.ErrUserNotFound)
	}
	return u, nil
}

func (s *Store) GetBalance(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("get balance"); err != nil {
		return 0, err
	}
	return s.users[userID].Balance, nil
}

func (s *Store) AdjustBalance(_ context.Context, userID, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("adjust balance"); err != nil {
		return 0, err
	}
	u, ok := s.users[userID]
	if !ok {
		return 0, fmt.Errorf("user %d: %w", userID, domain.ErrUserNotFound)
	}
	if u.Balance+delta < 0 {
		return 0, domain.ErrInsufficientFunds
	}
	u.Balance += delta
	s.users[userID] = u
	return u.Balance, nil
}

func (s *Store) SetHaremFilter(_ context.Context, userID int64, tier *rarity.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("set harem filter"); err != nil {
		return err
	}
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %d: %w", userID, domain.ErrUserNotFound)
	}
	u.HaremFilter = tier
	s.users[userID] = u
	return nil
}

func (s *Store) InsertOwnership(_ context.Context, userID, cardID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("insert ownership"); err != nil {
		return false, err
	}
	return s.insertOwnershipLocked(userID, cardID), nil
}

func (s *Store) CountOwnership(_ context.Context, userID, cardID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("count ownership"); err != nil {
		return 0, err
	}
	n := 0
	for _, o := range s.owned {
		if o.UserID == userID && o.CardID == cardID {
			n++
		}
	}
	return n, nil
}

func (s *Store) ownedLocked(userID int64, filter *rarity.Tier) []domain.OwnedCard {
	var out []domain.OwnedCard
	for i := len(s.owned) - 1; i >= 0; i-- {
		o := s.owned[i]
		if o.UserID != userID {
			continue
		}
		c, ok := s.cards[o.CardID]
		if !ok || (filter != nil && c.Rarity != *filter) {
			continue
		}
		out = append(out, domain.OwnedCard{Card: c, AcquiredAt: o.AcquiredAt})
	}
	return out
}

func (s *Store) ListOwnedCards(_ context.Context, userID int64, filter *rarity.Tier, offset, limit int) ([]domain.OwnedCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("list owned cards"); err != nil {
		return nil, err
	}
	return window(s.ownedLocked(userID, filter), offset, limit), nil
}

func (s *Store) CountOwnedCards(_ context.Context, userID int64, filter *rarity.Tier) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("count owned cards"); err != nil {
		return 0, err
	}
	return len(s.ownedLocked(userID, filter)), nil
}

func (s *Store) PurchaseCard(_ context.Context, userID, cardID, price int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("purchase card"); err != nil {
		return 0, err
	}
	for _, o := range s.owned {
		if o.UserID == userID && o.CardID == cardID {
			return 0, domain.ErrAlreadyOwned
		}
	}
	u := s.users[userID]
	if u.Balance < price {
		return 0, domain.ErrInsufficientFunds
	}
	u.ID = userID
	u.Balance -= price
	s.users[userID] = u
	s.insertOwnershipLocked(userID, cardID)
	return u.Balance, nil
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
