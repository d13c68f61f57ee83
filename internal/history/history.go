// Package history manages per-session conversation state. Messages
// are kept in groups — one user turn plus every assistant and tool
// message produced answering it — so trimming can never separate an
// assistant tool call from its results.
package history

import (
	"sync"
	"time"

	"github.com/parleyhq/parley/pkg/models"
)

// Flavor selects the message shape for a provider family.
type Flavor int

const (
	// FlavorSplit emits one tool message per tool result, the shape
	// openai and ollama expect.
	FlavorSplit Flavor = iota

	// FlavorBlocks emits a single tool message per exchange carrying
	// all results; the anthropic backend converts it into one user
	// message of tool_result content blocks.
	FlavorBlocks
)

// Manager holds one session's conversation. The system prompt lives
// outside the message list: it is never trimmed and travels to
// providers separately.
type Manager struct {
	mu        sync.Mutex
	system    string
	messages  []models.Message
	maxGroups int
}

func NewManager(systemPrompt string, maxGroups int) *Manager {
	if maxGroups < 1 {
		maxGroups = 10
	}
	return &Manager{
		system:    systemPrompt,
		maxGroups: maxGroups,
	}
}

// System returns the system prompt.
func (m *Manager) System() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.system
}

// Append adds a message and trims to the group budget.
func (m *Manager) Append(msg models.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	m.messages = append(m.messages, msg)
	m.trimLocked(m.maxGroups)
}

// Trim drops whole groups from the oldest end until at most maxGroups
// remain.
func (m *Manager) Trim(maxGroups int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trimLocked(maxGroups)
}

func (m *Manager) trimLocked(maxGroups int) {
	if maxGroups < 1 {
		return
	}
	starts := m.groupStartsLocked()
	if len(starts) <= maxGroups {
		return
	}
	cut := starts[len(starts)-maxGroups]
	m.messages = append([]models.Message(nil), m.messages[cut:]...)
}

// groupStartsLocked returns the index of each group's first message.
// A group starts at every user message; any leading non-user messages
// form a group of their own so they are trimmed first.
func (m *Manager) groupStartsLocked() []int {
	var starts []int
	for i, msg := range m.messages {
		if msg.Role == models.RoleUser || i == 0 {
			starts = append(starts, i)
		}
	}
	return starts
}

// Groups returns the current number of message groups.
func (m *Manager) Groups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.groupStartsLocked())
}

// Len returns the number of stored messages.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// Clear drops all messages but keeps the system prompt.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}

// DropLast removes the most recent message. The orchestrator uses it
// to retract a retry directive after the regenerated answer arrives.
func (m *Manager) DropLast() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) > 0 {
		m.messages = m.messages[:len(m.messages)-1]
	}
}

// Messages returns a copy of the conversation in the requested flavor.
func (m *Manager) Messages(flavor Flavor) []models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	if flavor == FlavorBlocks {
		return m.blocksLocked()
	}
	out := make([]models.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		if msg.Role == models.RoleTool && len(msg.ToolResults) > 1 {
			// Split shape: one tool message per result.
			for _, tr := range msg.ToolResults {
				out = append(out, models.Message{
					Role:        models.RoleTool,
					ToolResults: []models.ToolResult{tr},
					CreatedAt:   msg.CreatedAt,
				})
			}
			continue
		}
		out = append(out, msg)
	}
	return out
}

// blocksLocked merges consecutive tool messages into one, matching the
// content-block shape where all results of an exchange travel together.
func (m *Manager) blocksLocked() []models.Message {
	out := make([]models.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		if msg.Role == models.RoleTool && len(out) > 0 && out[len(out)-1].Role == models.RoleTool {
			last := &out[len(out)-1]
			merged := make([]models.ToolResult, 0, len(last.ToolResults)+len(msg.ToolResults))
			merged = append(merged, last.ToolResults...)
			merged = append(merged, msg.ToolResults...)
			last.ToolResults = merged
			continue
		}
		out = append(out, msg)
	}
	return out
}
