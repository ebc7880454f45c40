package mailbox

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hfarah/noor/internal/identity"
	"github.com/hfarah/noor/internal/store"
)

const (
	aliceID = "alice@noor.app"
	bobID   = "bob@noor.app"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func service(s *store.Store, id string) *Service {
	return NewService(s, identity.NewStatic(id), nil, nil)
}

func TestOpenChatCreatesOnce(t *testing.T) {
	s := testStore(t)
	alice := service(s, aliceID)
	bob := service(s, bobID)

	c1, err := alice.OpenChat(bobID)
	if err != nil {
		t.Fatalf("OpenChat() error = %v", err)
	}
	if c1.ID == "" {
		t.Fatal("conversation has no id")
	}
	if c1.UnreadCounts[aliceID] != 0 || c1.UnreadCounts[bobID] != 0 {
		t.Errorf("fresh conversation has non-zero unread counts: %v", c1.UnreadCounts)
	}

	// Same pair, either direction, resolves to the same conversation.
	c2, err := alice.OpenChat(bobID)
	if err != nil {
		t.Fatal(err)
	}
	c3, err := bob.OpenChat(aliceID)
	if err != nil {
		t.Fatal(err)
	}
	if c2.ID != c1.ID || c3.ID != c1.ID {
		t.Errorf("conversation ids differ: %q, %q, %q", c1.ID, c2.ID, c3.ID)
	}
}

func TestOpenChatCaseInsensitiveLookup(t *testing.T) {
	s := testStore(t)
	alice := service(s, aliceID)

	c1, err := alice.OpenChat("Bob@Noor.App")
	if err != nil {
		t.Fatal(err)
	}
	c2, err := alice.OpenChat(bobID)
	if err != nil {
		t.Fatal(err)
	}
	if c1.ID != c2.ID {
		t.Errorf("case variants created distinct conversations: %q vs %q", c1.ID, c2.ID)
	}
}

func TestSendMessageUnreadAccounting(t *testing.T) {
	s := testStore(t)
	alice := service(s, aliceID)
	bob := service(s, bobID)

	conv, err := alice.OpenChat(bobID)
	if err != nil {
		t.Fatal(err)
	}

	msg, err := alice.SendMessage(conv.ID, "salaam", TypeText)
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if msg.ID == "" {
		t.Fatal("message not created")
	}
	if msg.Read {
		t.Error("new message must start unread")
	}
	if msg.ReceiverID != bobID {
		t.Errorf("receiver = %q, want %q", msg.ReceiverID, bobID)
	}

	convs, err := bob.Conversations()
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 1 {
		t.Fatalf("bob sees %d conversations, want 1", len(convs))
	}
	if convs[0].UnreadCounts[bobID] != 1 {
		t.Errorf("bob unread = %d, want 1", convs[0].UnreadCounts[bobID])
	}
	if convs[0].UnreadCounts[aliceID] != 0 {
		t.Errorf("alice unread = %d, want 0 (sender unchanged)", convs[0].UnreadCounts[aliceID])
	}
	if convs[0].LastMessageAt != msg.Timestamp {
		t.Errorf("lastMessageAt = %d, want %d", convs[0].LastMessageAt, msg.Timestamp)
	}
}

func TestMarkAsReadIdempotent(t *testing.T) {
	s := testStore(t)
	alice := service(s, aliceID)
	bob := service(s, bobID)

	conv, _ := alice.OpenChat(bobID)
	if _, err := alice.SendMessage(conv.ID, "one", TypeText); err != nil {
		t.Fatal(err)
	}
	if _, err := alice.SendMessage(conv.ID, "two", TypeText); err != nil {
		t.Fatal(err)
	}

	if err := bob.MarkAsRead(conv.ID); err != nil {
		t.Fatalf("MarkAsRead() error = %v", err)
	}

	check := func() {
		t.Helper()
		total, err := bob.UnreadTotal()
		if err != nil {
			t.Fatal(err)
		}
		if total != 0 {
			t.Errorf("unread total = %d, want 0", total)
		}
		msgs, err := bob.Messages(conv.ID)
		if err != nil {
			t.Fatal(err)
		}
		for _, m := range msgs {
			if m.ReceiverID == bobID && !m.Read {
				t.Errorf("message %s to bob still unread", m.ID)
			}
		}
	}
	check()

	// Second call produces the identical state.
	if err := bob.MarkAsRead(conv.ID); err != nil {
		t.Fatal(err)
	}
	check()
}

func TestMarkAsReadLeavesSenderSide(t *testing.T) {
	s := testStore(t)
	alice := service(s, aliceID)
	bob := service(s, bobID)

	conv, _ := alice.OpenChat(bobID)
	if _, err := alice.SendMessage(conv.ID, "to bob", TypeText); err != nil {
		t.Fatal(err)
	}
	if _, err := bob.SendMessage(conv.ID, "to alice", TypeText); err != nil {
		t.Fatal(err)
	}

	if err := bob.MarkAsRead(conv.ID); err != nil {
		t.Fatal(err)
	}

	// Alice's incoming message is untouched.
	total, err := alice.UnreadTotal()
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("alice unread total = %d, want 1", total)
	}
}

func TestSendUnknownConversationIsNoop(t *testing.T) {
	s := testStore(t)
	alice := service(s, aliceID)

	msg, err := alice.SendMessage("no-such-conversation", "hello", TypeText)
	if err != nil {
		t.Fatalf("SendMessage() error = %v, want silent no-op", err)
	}
	if msg.ID != "" {
		t.Error("no-op send produced a message")
	}
}

func TestSendWithoutIdentityIsNoop(t *testing.T) {
	s := testStore(t)
	anon := NewService(s, identity.NewStatic(""), nil, nil)

	msg, err := anon.SendMessage("any", "hello", TypeText)
	if err != nil {
		t.Fatalf("SendMessage() error = %v, want silent no-op", err)
	}
	if msg.ID != "" {
		t.Error("no-op send produced a message")
	}
}

func TestForeignConversationsFiltered(t *testing.T) {
	s := testStore(t)
	alice := service(s, aliceID)
	carol := service(s, "carol@noor.app")

	if _, err := carol.OpenChat("dave@noor.app"); err != nil {
		t.Fatal(err)
	}
	// Malformed participant set, written by a buggy external actor.
	if err := s.Set("conversations", append(
		store.Load(s, "conversations", []Conversation{}),
		Conversation{ID: "broken", Participants: []string{aliceID, bobID, "eve@noor.app"}},
	)); err != nil {
		t.Fatal(err)
	}

	convs, err := alice.Conversations()
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 0 {
		t.Errorf("alice sees %d conversations, want 0", len(convs))
	}
}

func TestMessagesForeignConversationEmpty(t *testing.T) {
	s := testStore(t)
	alice := service(s, aliceID)
	carol := service(s, "carol@noor.app")

	conv, _ := carol.OpenChat("dave@noor.app")
	if _, err := carol.SendMessage(conv.ID, "private", TypeText); err != nil {
		t.Fatal(err)
	}

	msgs, err := alice.Messages(conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("alice can read %d foreign messages", len(msgs))
	}
}

func TestUnreadTotalSumsConversations(t *testing.T) {
	s := testStore(t)
	alice := service(s, aliceID)
	bob := service(s, bobID)
	carol := service(s, "carol@noor.app")

	c1, _ := bob.OpenChat(aliceID)
	c2, _ := carol.OpenChat(aliceID)
	if _, err := bob.SendMessage(c1.ID, "one", TypeText); err != nil {
		t.Fatal(err)
	}
	if _, err := bob.SendMessage(c1.ID, "two", TypeText); err != nil {
		t.Fatal(err)
	}
	if _, err := carol.SendMessage(c2.ID, "three", TypeText); err != nil {
		t.Fatal(err)
	}

	total, err := alice.UnreadTotal()
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Errorf("unread total = %d, want 3", total)
	}
}

func TestConversationsSortedByActivity(t *testing.T) {
	s := testStore(t)
	alice := service(s, aliceID)
	bob := service(s, bobID)
	carol := service(s, "carol@noor.app")

	base := time.Now().UnixMilli()
	bob.now = func() time.Time { return time.UnixMilli(base + 100) }
	carol.now = func() time.Time { return time.UnixMilli(base + 200) }

	c1, _ := bob.OpenChat(aliceID)
	c2, _ := carol.OpenChat(aliceID)
	if _, err := bob.SendMessage(c1.ID, "earlier", TypeText); err != nil {
		t.Fatal(err)
	}
	if _, err := carol.SendMessage(c2.ID, "later", TypeText); err != nil {
		t.Fatal(err)
	}

	convs, err := alice.Conversations()
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 2 || convs[0].ID != c2.ID {
		t.Errorf("conversations not sorted by last activity: %v", convs)
	}
}

func TestSendTrimsOnQuota(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path, nil, 700)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })

	alice := service(s, aliceID)
	conv, err := alice.OpenChat(bobID)
	if err != nil {
		t.Fatal(err)
	}

	// Keep sending until the quota forces a trim; every send must succeed.
	var lastID string
	for i := 0; i < 6; i++ {
		msg, err := alice.SendMessage(conv.ID, "crossing the quota ceiling", TypeText)
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		if msg.ID == "" {
			t.Fatalf("send %d: dropped", i)
		}
		lastID = msg.ID
	}

	msgs := store.Load(s, "messages", []Message{})
	if len(msgs) == 0 || len(msgs) >= 6 {
		t.Fatalf("got %d persisted messages, want a trimmed non-empty list", len(msgs))
	}
	if msgs[len(msgs)-1].ID != lastID {
		t.Error("newest message lost during trim")
	}
}

func TestOpenChatWithoutIdentityFails(t *testing.T) {
	s := testStore(t)
	anon := NewService(s, identity.NewStatic(""), nil, nil)

	if _, err := anon.OpenChat(bobID); !errors.Is(err, identity.ErrNoIdentity) {
		t.Errorf("error = %v, want ErrNoIdentity", err)
	}
}
