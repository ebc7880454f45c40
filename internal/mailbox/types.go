package mailbox

import "github.com/hfarah/noor/internal/identity"

// Store namespaces owned by the mailbox. The store holds the canonical
// arrays; everything handed to consumers is a derived copy.
const (
	nsConversations = "conversations"
	nsMessages      = "messages"
)

// MessageType tags the message payload kind.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
	TypeFile  MessageType = "file"
)

// Message is one delivered message. It is created once and mutated only to
// flip Read from false to true; never deleted or edited.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	SenderID       string      `json:"senderId"`
	ReceiverID     string      `json:"receiverId"`
	Content        string      `json:"content"`
	Timestamp      int64       `json:"timestamp"`
	Read           bool        `json:"read"`
	Type           MessageType `json:"type"`
}

// Conversation pairs exactly two participants. It is created on first
// contact and never deleted, only marked read.
type Conversation struct {
	ID            string         `json:"id"`
	Participants  []string       `json:"participants"`
	UnreadCounts  map[string]int `json:"unreadCounts"`
	LastMessageAt int64          `json:"lastMessageAt"`
}

// Has reports whether the normalized id is one of the participants.
func (c Conversation) Has(id string) bool {
	id = identity.Normalize(id)
	for _, p := range c.Participants {
		if identity.Normalize(p) == id {
			return true
		}
	}
	return false
}

// Other returns the participant that is not id, or "" when id is not a
// participant or the participant set is malformed.
func (c Conversation) Other(id string) string {
	if len(c.Participants) != 2 || !c.Has(id) {
		return ""
	}
	id = identity.Normalize(id)
	for _, p := range c.Participants {
		if identity.Normalize(p) != id {
			return identity.Normalize(p)
		}
	}
	// Both participants are id (self-conversation); the other side is id too.
	return id
}

// visibleTo reports whether the conversation belongs in id's mailbox view.
// A participant set that is not exactly two entries including id is
// filtered out defensively rather than treated as an error.
func (c Conversation) visibleTo(id string) bool {
	return len(c.Participants) == 2 && c.Has(id)
}
