// Package mailbox maintains conversations and per-participant unread
// counters on top of the persisted store, and detects externally written
// messages through a polling change feed.
package mailbox

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hfarah/noor/internal/bus"
	"github.com/hfarah/noor/internal/identity"
	"github.com/hfarah/noor/internal/store"
)

// Service implements the mailbox operations for the current identity.
// Every operation is a whole-namespace read-modify-write cycle against the
// store; the service never trusts an in-memory copy across calls.
type Service struct {
	store  *store.Store
	ids    identity.Provider
	bus    *bus.Bus
	logger *zap.Logger
	now    func() time.Time

	// Serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewService creates a mailbox service. b and logger may be nil.
func NewService(s *store.Store, p identity.Provider, b *bus.Bus, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, ids: p, bus: b, logger: logger, now: time.Now}
}

// OpenChat returns the conversation between the caller and otherParty,
// creating it on first contact. Lookup is order-independent over the
// participant pair.
func (s *Service) OpenChat(otherParty string) (Conversation, error) {
	self, err := s.ids.Current()
	if err != nil {
		return Conversation{}, err
	}
	other := identity.Normalize(otherParty)
	if other == "" {
		return Conversation{}, errors.New("open chat: empty party")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	convs := store.Load(s.store, nsConversations, []Conversation{})
	for _, c := range convs {
		if len(c.Participants) == 2 && c.Has(self) && c.Has(other) {
			return c, nil
		}
	}

	conv := Conversation{
		ID:           uuid.NewString(),
		Participants: []string{self, other},
		UnreadCounts: map[string]int{self: 0, other: 0},
	}
	convs = append(convs, conv)
	if err := s.store.Set(nsConversations, convs); err != nil {
		return Conversation{}, err
	}
	if s.bus != nil {
		s.bus.Publish("mailbox.conversation_created", conv.ID)
	}
	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID), zap.String("other", other))
	return conv, nil
}

// SendMessage appends a message to the conversation and bumps the
// receiver's unread counter. An unknown conversation id or a missing caller
// identity is a silent no-op (the returned message has an empty ID). A
// write rejected by the store quota is retried once after trimming the
// oldest quarter of the message history; if it still fails the quota error
// is returned so the caller can prompt the user.
func (s *Service) SendMessage(conversationID, content string, typ MessageType) (Message, error) {
	self, err := s.ids.Current()
	if err != nil {
		s.logger.Debug("send dropped: no identity")
		return Message{}, nil
	}
	if typ == "" {
		typ = TypeText
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	convs := store.Load(s.store, nsConversations, []Conversation{})
	idx := -1
	for i, c := range convs {
		if c.ID == conversationID && c.visibleTo(self) {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.logger.Debug("send dropped: unknown conversation", zap.String("conversation_id", conversationID))
		return Message{}, nil
	}
	receiver := convs[idx].Other(self)

	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       self,
		ReceiverID:     receiver,
		Content:        content,
		Timestamp:      s.now().UnixMilli(),
		Read:           false,
		Type:           typ,
	}

	msgs := store.Load(s.store, nsMessages, []Message{})
	msgs = append(msgs, msg)
	if err := s.writeMessages(msgs); err != nil {
		return Message{}, err
	}

	if convs[idx].UnreadCounts == nil {
		convs[idx].UnreadCounts = map[string]int{}
	}
	convs[idx].UnreadCounts[receiver]++
	convs[idx].LastMessageAt = msg.Timestamp
	if err := s.store.Set(nsConversations, convs); err != nil {
		return Message{}, err
	}

	if s.bus != nil {
		s.bus.Publish("mailbox.message_sent", msg.ID)
	}
	return msg, nil
}

// writeMessages persists the message list, trimming the oldest quarter and
// retrying once when the store rejects the write for capacity.
func (s *Service) writeMessages(msgs []Message) error {
	err := s.store.Set(nsMessages, msgs)
	var qErr *store.QuotaExceededError
	if !errors.As(err, &qErr) {
		return err
	}

	drop := len(msgs)/4 + 1
	if drop >= len(msgs) {
		return err
	}
	s.logger.Warn("message store over quota, trimming oldest",
		zap.Int("dropped", drop), zap.Int("kept", len(msgs)-drop))
	return s.store.Set(nsMessages, msgs[drop:])
}

// MarkAsRead flips read on every message in the conversation addressed to
// the caller and zeroes the caller's unread counter. Idempotent; unknown
// conversation ids are a silent no-op.
func (s *Service) MarkAsRead(conversationID string) error {
	self, err := s.ids.Current()
	if err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	convs := store.Load(s.store, nsConversations, []Conversation{})
	idx := -1
	for i, c := range convs {
		if c.ID == conversationID && c.visibleTo(self) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	msgs := store.Load(s.store, nsMessages, []Message{})
	changed := false
	for i, m := range msgs {
		if m.ConversationID == conversationID && identity.Equal(m.ReceiverID, self) && !m.Read {
			msgs[i].Read = true
			changed = true
		}
	}
	if changed {
		if err := s.store.Set(nsMessages, msgs); err != nil {
			return err
		}
	}

	if convs[idx].UnreadCounts[self] != 0 {
		convs[idx].UnreadCounts[self] = 0
		if err := s.store.Set(nsConversations, convs); err != nil {
			return err
		}
	}
	return nil
}

// Conversations returns the caller's conversations, newest activity first.
// Conversations whose participant set does not contain exactly the caller
// and one other party are filtered out.
func (s *Service) Conversations() ([]Conversation, error) {
	self, err := s.ids.Current()
	if err != nil {
		return nil, err
	}
	convs := store.Load(s.store, nsConversations, []Conversation{})
	var visible []Conversation
	for _, c := range convs {
		if c.visibleTo(self) {
			visible = append(visible, c)
		}
	}
	sortByActivity(visible)
	return visible, nil
}

// Messages returns the messages of one conversation in delivery order.
// Unknown or foreign conversations yield an empty result.
func (s *Service) Messages(conversationID string) ([]Message, error) {
	self, err := s.ids.Current()
	if err != nil {
		return nil, err
	}
	convs := store.Load(s.store, nsConversations, []Conversation{})
	ok := false
	for _, c := range convs {
		if c.ID == conversationID && c.visibleTo(self) {
			ok = true
			break
		}
	}
	if !ok {
		return nil, nil
	}

	msgs := store.Load(s.store, nsMessages, []Message{})
	var out []Message
	for _, m := range msgs {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

// UnreadTotal sums the caller's unread counters across all visible
// conversations. It is always derived from the per-conversation counters,
// never stored, so it cannot drift from them.
func (s *Service) UnreadTotal() (int, error) {
	convs, err := s.Conversations()
	if err != nil {
		return 0, err
	}
	self, _ := s.ids.Current()
	total := 0
	for _, c := range convs {
		total += c.UnreadCounts[identity.Normalize(self)]
	}
	return total, nil
}

// latestIncoming returns the newest message addressed to the caller across
// all visible conversations.
func (s *Service) latestIncoming() (Message, bool) {
	self, err := s.ids.Current()
	if err != nil {
		return Message{}, false
	}
	visible := make(map[string]bool)
	for _, c := range store.Load(s.store, nsConversations, []Conversation{}) {
		if c.visibleTo(self) {
			visible[c.ID] = true
		}
	}

	var latest Message
	found := false
	for _, m := range store.Load(s.store, nsMessages, []Message{}) {
		if !visible[m.ConversationID] || !identity.Equal(m.ReceiverID, self) {
			continue
		}
		if !found || m.Timestamp > latest.Timestamp {
			latest = m
			found = true
		}
	}
	return latest, found
}

func sortByActivity(convs []Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].LastMessageAt > convs[j].LastMessageAt
	})
}
