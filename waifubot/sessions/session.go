package sessions

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	"github.com/ellavondegurechaff/waifugrab/waifubot/rarity"
)

type Kind string

const (
	KindBazaar Kind = "bazaar"
	KindHarem  Kind = "harem"
	KindSearch Kind = "search"
)

// Paged kinds re-query by page; the others browse a fixed snapshot.
func (k Kind) Paged() bool {
	return k == KindHarem || k == KindSearch
}

// Session is one user's browsing state for one kind of view.
type Session struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	OwnerID   int64             `json:"owner_id"`
	ChatID    domain.ChatID     `json:"chat_id"`
	Message   domain.MessageRef `json:"message"`
	Items     []domain.Card     `json:"items,omitempty"`
	Index     int               `json:"index"`
	Page      int               `json:"page"`
	Total     int               `json:"total"`
	Query     string            `json:"query,omitempty"`
	Filter    *rarity.Tier      `json:"filter,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Key identifies the single live session of a kind for an owner.
func Key(kind Kind, ownerID int64) string {
	return fmt.Sprintf("%s:%d", kind, ownerID)
}

func (s *Session) Key() string {
	return Key(s.Kind, s.OwnerID)
}

// Current returns the bazaar item under the cursor.
func (s *Session) Current() (domain.Card, bool) {
	if s.Index < 0 || s.Index >= len(s.Items) {
		return domain.Card{}, false
	}
	return s.Items[s.Index], true
}

const (
	VerbNext    = "next"
	VerbBack    = "back"
	VerbRefresh = "refresh"
	VerbBuy     = "buy"
	VerbClose   = "close"
)

// Action is a navigation event, encoded into a button as
// /<kind>/<verb>/<owner>/<session>[/<arg>].
type Action struct {
	Kind      Kind
	Verb      string
	OwnerID   int64
	SessionID string
	Arg       string
}

func NewAction(s *Session, verb string) Action {
	return Action{Kind: s.Kind, Verb: verb, OwnerID: s.OwnerID, SessionID: s.ID}
}

func (a Action) Encode() string {
	id := fmt.Sprintf("/%s/%s/%d/%s", a.Kind, a.Verb, a.OwnerID, a.SessionID)
	if a.Arg != "" {
		id += "/" + a.Arg
	}
	return id
}

func ParseAction(raw string) (Action, error) {
	parts := strings.Split(strings.TrimPrefix(raw, "/"), "/")
	if len(parts) < 4 || len(parts) > 5 {
		return Action{}, fmt.Errorf("malformed action %q", raw)
	}
	owner, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Action{}, fmt.Errorf("malformed action owner %q: %w", parts[2], err)
	}
	a := Action{
		Kind:      Kind(parts[0]),
		Verb:      parts[1],
		OwnerID:   owner,
		SessionID: parts[3],
	}
	if len(parts) == 5 {
		a.Arg = parts[4]
	}
	return a, nil
}
