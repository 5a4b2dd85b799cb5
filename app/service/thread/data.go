package thread

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

type PartType string

const (
	PartText  PartType = "text"
	PartReset PartType = "reset"
	PartImage PartType = "image"
)

// ContentPart is one piece of a message body. Exactly one payload field is
// meaningful, discriminated by Type.
type ContentPart struct {
	Type     PartType `json:"type"`
	Text     string   `json:"text,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
}

type Message struct {
	ID        string        `json:"id"`
	Role      Role          `json:"role"`
	Parts     []ContentPart `json:"parts"`
	CreatedAt time.Time     `json:"created_at"`
}

func NewMessage(role Role, parts ...ContentPart) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Parts:     parts,
		CreatedAt: time.Now(),
	}
}

func TextMessage(role Role, text string) Message {
	return NewMessage(role, ContentPart{Type: PartText, Text: text})
}

// Text returns the concatenated text parts of the message.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}

// IsReset reports whether the message carries the reset marker.
func (m Message) IsReset() bool {
	for _, p := range m.Parts {
		if p.Type == PartReset {
			return true
		}
	}
	return false
}

type UserInfo struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Purpose  string `json:"purpose"`
	Interest string `json:"interest"`
}

// Conversation is the per-thread state threaded through every node of a turn.
type Conversation struct {
	ThreadID             string    `json:"thread_id"`
	Messages             []Message `json:"messages"`
	UserInfo             UserInfo  `json:"user_info"`
	AgentIntroduced      bool      `json:"agent_introduced"`
	IsScheduled          bool      `json:"is_scheduled"`
	ScheduledTime        string    `json:"scheduled_time,omitempty"`
	ProposedTime         string    `json:"proposed_time,omitempty"`
	AwaitingConfirmation bool      `json:"awaiting_confirmation"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Append adds messages to the history and prunes image attachments from
// superseded user turns: only the most recent user message keeps its
// attachments, everything older is text-only.
func (c *Conversation) Append(msgs ...Message) {
	c.Messages = append(c.Messages, msgs...)

	lastUser := -1
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			lastUser = i
			break
		}
	}

	for i := range c.Messages {
		if i >= lastUser || c.Messages[i].Role != RoleUser {
			continue
		}
		kept := c.Messages[i].Parts[:0:0]
		for _, p := range c.Messages[i].Parts {
			if p.Type != PartImage {
				kept = append(kept, p)
			}
		}
		c.Messages[i].Parts = kept
	}
}

// LastUserText returns the text of the most recent user message.
func (c *Conversation) LastUserText() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i].Text()
		}
	}
	return ""
}

// LastText returns the text of the most recent message of any role, which is
// what the gateway sends back to the user.
func (c *Conversation) LastText() string {
	if len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[len(c.Messages)-1].Text()
}

func (c *Conversation) UserMessageCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// Reset discards the whole thread memory: history, introduction and
// scheduling flags. The user profile snapshot is refetched next turn anyway.
func (c *Conversation) Reset() {
	c.Messages = nil
	c.AgentIntroduced = false
	c.IsScheduled = false
	c.ScheduledTime = ""
	c.ProposedTime = ""
	c.AwaitingConfirmation = false
}
