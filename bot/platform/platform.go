// Package platform abstracts the chat platform underneath the transfer
// workflow: workspace CRUD, message delivery, and history scans. The
// engine only ever talks to Client, so the Telegram adapter and the
// in-memory test client are interchangeable.
package platform

import (
	"context"
	"errors"
)

// ErrWorkspaceGone reports that the workspace no longer exists on the
// platform. Deletion paths treat it as success.
var ErrWorkspaceGone = errors.New("platform: workspace gone")

// Workspace is a named, access-scoped container owned by one requester.
// Topic carries the owning requester's mention token, which is the only
// durable back-reference to the owner.
type Workspace struct {
	ID       int64
	Name     string
	Category string
	Topic    string
}

// Embed is platform-neutral rich message content. Author doubles as the
// sentinel marker for messages that must be found again later.
type Embed struct {
	Author string
	Title  string
	Body   string
	Footer string
}

// Button is a single inline control; Unique routes its callback.
type Button struct {
	Label  string
	Unique string
	Data   string
}

// Outgoing is one message to deliver: plain content, an optional embed,
// optional button rows, and an optional sticker id.
type Outgoing struct {
	Content string
	Embed   *Embed
	Buttons [][]Button
	Sticker string
}

// MessageRef identifies a delivered message for later edit/delete.
type MessageRef struct {
	ChatID      int64
	MessageID   string
	WorkspaceID int64
}

// Posted is a message recovered from a history scan.
type Posted struct {
	Ref      MessageRef
	Embed    *Embed
	FromSelf bool
}

// Client is the chat-platform boundary consumed by the workflow engine.
type Client interface {
	// Workspaces lists known workspaces restricted to the category set.
	Workspaces(ctx context.Context, categories []string) ([]*Workspace, error)
	CreateWorkspace(ctx context.Context, name, category, topic string) (*Workspace, error)
	DeleteWorkspace(ctx context.Context, ws *Workspace) error
	GrantAccess(ctx context.Context, ws *Workspace, userID int64) error

	// Send posts into a workspace; SendChannel posts into a plain channel
	// such as the worker or request channels.
	Send(ctx context.Context, ws *Workspace, out Outgoing) (MessageRef, error)
	SendChannel(ctx context.Context, chatID int64, out Outgoing) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, out Outgoing) error
	Delete(ctx context.Context, ref MessageRef) error

	// History returns up to limit recent messages in the workspace,
	// newest first. Only messages the client itself delivered are
	// guaranteed to be visible.
	History(ctx context.Context, ws *Workspace, limit int) ([]Posted, error)

	// UpdateChannelLabel renames a read-only display channel.
	UpdateChannelLabel(ctx context.Context, chatID int64, label string) error

	// WorkspaceLink renders a navigable link to the workspace.
	WorkspaceLink(ws *Workspace) string
	// Mention renders a user mention in the platform's message syntax.
	Mention(userID int64, label string) string
}
