package handlers

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

const (
	SpamLimit    = 10
	SpamWindow   = 10 * time.Second
	SpamCooldown = 20 * time.Minute

	spamTrackedUsers = 10000
)

type spamRecord struct {
	windowStart  time.Time
	count        int
	blockedUntil time.Time
}

// Verdict is the spam guard's decision on one command.
type Verdict int

const (
	Allowed Verdict = iota
	// JustBlocked is returned once, for the command that tripped the limit.
	JustBlocked
	Blocked
)

// SpamGuard blocks users who send more than SpamLimit commands within
// SpamWindow for SpamCooldown. Counters are process-local.
type SpamGuard struct {
	mu      sync.Mutex
	records *lru.Cache
	now     func() time.Time
}

func NewSpamGuard() (*SpamGuard, error) {
	records, err := lru.New(spamTrackedUsers)
	if err != nil {
		return nil, err
	}
	return &SpamGuard{records: records, now: time.Now}, nil
}

func (g *SpamGuard) Check(userID int64) Verdict {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	rec := &spamRecord{windowStart: now}
	if v, ok := g.records.Get(userID); ok {
		rec = v.(*spamRecord)
	}

	if now.Before(rec.blockedUntil) {
		return Blocked
	}
	if now.Sub(rec.windowStart) > SpamWindow {
		rec.windowStart = now
		rec.count = 0
	}
	rec.count++
	g.records.Add(userID, rec)

	if rec.count > SpamLimit {
		rec.blockedUntil = now.Add(SpamCooldown)
		rec.count = 0
		return JustBlocked
	}
	return Allowed
}
