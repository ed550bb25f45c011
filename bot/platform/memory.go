package platform

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// MemoryClient is an in-memory Client implementation for tests and
// development. It records every send/edit/delete so tests can assert on
// the exact message traffic.
type MemoryClient struct {
	mu sync.Mutex

	nextWorkspaceID int64
	nextMessageID   int

	workspaces map[int64]*Workspace
	messages   map[int64][]*memoryMessage
	channel    map[int64][]Outgoing
	access     map[int64][]int64
	labels     map[int64]string

	// FailCreate forces CreateWorkspace to fail, for error-path tests.
	FailCreate error
	// FailLabel forces UpdateChannelLabel to fail.
	FailLabel error
}

type memoryMessage struct {
	ref     MessageRef
	out     Outgoing
	deleted bool
}

// NewMemoryClient returns an empty in-memory platform.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		nextWorkspaceID: 1,
		workspaces:      make(map[int64]*Workspace),
		messages:        make(map[int64][]*memoryMessage),
		channel:         make(map[int64][]Outgoing),
		access:          make(map[int64][]int64),
	}
}

// Workspaces lists workspaces whose category is in the given set.
func (m *MemoryClient) Workspaces(_ context.Context, categories []string) ([]*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	var out []*Workspace
	for _, ws := range m.workspaces {
		if _, ok := set[ws.Category]; ok || len(categories) == 0 {
			out = append(out, ws)
		}
	}
	return out, nil
}

// CreateWorkspace registers a new workspace container.
func (m *MemoryClient) CreateWorkspace(_ context.Context, name, category, topic string) (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		return nil, m.FailCreate
	}
	ws := &Workspace{
		ID:       m.nextWorkspaceID,
		Name:     name,
		Category: category,
		Topic:    topic,
	}
	m.nextWorkspaceID++
	m.workspaces[ws.ID] = ws
	return ws, nil
}

// DeleteWorkspace removes the workspace. The transcript is kept so
// tests can assert on messages sent right before destruction.
func (m *MemoryClient) DeleteWorkspace(_ context.Context, ws *Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workspaces[ws.ID]; !ok {
		return ErrWorkspaceGone
	}
	delete(m.workspaces, ws.ID)
	delete(m.access, ws.ID)
	return nil
}

// GrantAccess records read access for the user.
func (m *MemoryClient) GrantAccess(_ context.Context, ws *Workspace, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workspaces[ws.ID]; !ok {
		return ErrWorkspaceGone
	}
	m.access[ws.ID] = append(m.access[ws.ID], userID)
	return nil
}

// Send appends a message to the workspace transcript.
func (m *MemoryClient) Send(_ context.Context, ws *Workspace, out Outgoing) (MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workspaces[ws.ID]; !ok {
		return MessageRef{}, ErrWorkspaceGone
	}
	m.nextMessageID++
	msg := &memoryMessage{
		ref: MessageRef{
			ChatID:      ws.ID,
			MessageID:   strconv.Itoa(m.nextMessageID),
			WorkspaceID: ws.ID,
		},
		out: out,
	}
	m.messages[ws.ID] = append(m.messages[ws.ID], msg)
	return msg.ref, nil
}

// SendChannel appends a message to a plain channel transcript.
func (m *MemoryClient) SendChannel(_ context.Context, chatID int64, out Outgoing) (MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextMessageID++
	m.channel[chatID] = append(m.channel[chatID], out)
	return MessageRef{ChatID: chatID, MessageID: strconv.Itoa(m.nextMessageID)}, nil
}

// Edit replaces a previously sent message in place.
func (m *MemoryClient) Edit(_ context.Context, ref MessageRef, out Outgoing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := m.lookup(ref)
	if msg == nil || msg.deleted {
		return fmt.Errorf("memory: message %s not editable", ref.MessageID)
	}
	msg.out = out
	return nil
}

// Delete marks a previously sent message as gone.
func (m *MemoryClient) Delete(_ context.Context, ref MessageRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := m.lookup(ref)
	if msg == nil || msg.deleted {
		return fmt.Errorf("memory: message %s not found", ref.MessageID)
	}
	msg.deleted = true
	return nil
}

// History returns up to limit live messages, newest first.
func (m *MemoryClient) History(_ context.Context, ws *Workspace, limit int) ([]Posted, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.messages[ws.ID]
	var out []Posted
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		if msgs[i].deleted {
			continue
		}
		out = append(out, Posted{
			Ref:      msgs[i].ref,
			Embed:    msgs[i].out.Embed,
			FromSelf: true,
		})
	}
	return out, nil
}

// UpdateChannelLabel records the display label for assertions.
func (m *MemoryClient) UpdateChannelLabel(_ context.Context, chatID int64, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.labels == nil {
		m.labels = make(map[int64]string)
	}
	if m.FailLabel != nil {
		return m.FailLabel
	}
	m.labels[chatID] = label
	return nil
}

// ChannelLabel returns the last display label set for a channel.
func (m *MemoryClient) ChannelLabel(chatID int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.labels[chatID]
}

// WorkspaceLink renders a synthetic link usable in assertions.
func (m *MemoryClient) WorkspaceLink(ws *Workspace) string {
	return fmt.Sprintf("memory://workspace/%d", ws.ID)
}

// Mention renders the durable mention token.
func (m *MemoryClient) Mention(userID int64, _ string) string {
	return fmt.Sprintf("<@%d>", userID)
}

// Workspace returns the live workspace by id, for test assertions.
func (m *MemoryClient) Workspace(id int64) (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	return ws, ok
}

// Transcript returns the live (non-deleted) messages of a workspace in
// send order, for test assertions.
func (m *MemoryClient) Transcript(wsID int64) []Outgoing {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Outgoing
	for _, msg := range m.messages[wsID] {
		if !msg.deleted {
			out = append(out, msg.out)
		}
	}
	return out
}

// ChannelTranscript returns everything sent to a plain channel.
func (m *MemoryClient) ChannelTranscript(chatID int64) []Outgoing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Outgoing(nil), m.channel[chatID]...)
}

// AccessList returns the users granted access to a workspace.
func (m *MemoryClient) AccessList(wsID int64) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.access[wsID]...)
}

func (m *MemoryClient) lookup(ref MessageRef) *memoryMessage {
	for _, msg := range m.messages[ref.WorkspaceID] {
		if msg.ref.MessageID == ref.MessageID {
			return msg
		}
	}
	return nil
}
