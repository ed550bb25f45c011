package platform

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bluehax/soapbot/core/logger"
	"github.com/bluehax/soapbot/core/telegram/format"
	"github.com/bluehax/soapbot/core/telegram/keyboard"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// historyDepth bounds the per-workspace transcript the adapter retains.
// Telegram bots cannot fetch chat history, so the adapter remembers what
// it sent itself; sentinel scans only ever look at bot-authored messages.
const historyDepth = 50

// TelegramClient maps workspaces onto forum topics of a single home
// supergroup. Category is adapter-side metadata: Telegram has no topic
// categories, so the adapter tracks them in its own index.
type TelegramClient struct {
	bot  *tele.Bot
	home *tele.Chat

	mu      sync.Mutex
	index   map[int64]*Workspace
	history map[int64][]Posted
}

// NewTelegramClient builds an adapter rooted at the home supergroup.
func NewTelegramClient(bot *tele.Bot, homeChatID int64) *TelegramClient {
	return &TelegramClient{
		bot:     bot,
		home:    &tele.Chat{ID: homeChatID},
		index:   make(map[int64]*Workspace),
		history: make(map[int64][]Posted),
	}
}

// Workspaces lists indexed workspaces restricted to the category set.
func (t *TelegramClient) Workspaces(_ context.Context, categories []string) ([]*Workspace, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	var out []*Workspace
	for _, ws := range t.index {
		if _, ok := set[ws.Category]; ok || len(categories) == 0 {
			out = append(out, ws)
		}
	}
	return out, nil
}

// CreateWorkspace opens a forum topic and posts the topic string as the
// thread's first message, which is where the owner back-reference lives.
func (t *TelegramClient) CreateWorkspace(ctx context.Context, name, category, topic string) (*Workspace, error) {
	created, err := t.bot.CreateTopic(t.home, &tele.Topic{Name: name})
	if err != nil {
		return nil, fmt.Errorf("create topic %q: %w", name, err)
	}
	ws := &Workspace{
		ID:       int64(created.ThreadID),
		Name:     name,
		Category: category,
		Topic:    topic,
	}

	t.mu.Lock()
	t.index[ws.ID] = ws
	t.mu.Unlock()

	if topic != "" {
		if _, err := t.Send(ctx, ws, Outgoing{Content: topic}); err != nil {
			logger.Warn(ctx, "tg", "workspace.topic_post_failed",
				slog.String("workspace", name),
				slog.String("err", err.Error()),
			)
		}
	}
	return ws, nil
}

// DeleteWorkspace closes and removes the forum topic.
func (t *TelegramClient) DeleteWorkspace(_ context.Context, ws *Workspace) error {
	t.mu.Lock()
	_, known := t.index[ws.ID]
	delete(t.index, ws.ID)
	delete(t.history, ws.ID)
	t.mu.Unlock()

	err := t.bot.DeleteTopic(t.home, &tele.Topic{ThreadID: int(ws.ID)})
	if err != nil {
		if !known {
			return ErrWorkspaceGone
		}
		return fmt.Errorf("delete topic %q: %w", ws.Name, err)
	}
	return nil
}

// GrantAccess lifts any restriction keeping the user out of the home
// supergroup. Topic visibility itself follows group membership.
func (t *TelegramClient) GrantAccess(_ context.Context, _ *Workspace, userID int64) error {
	if err := t.bot.Unban(t.home, &tele.User{ID: userID}, true); err != nil {
		return fmt.Errorf("grant access for %d: %w", userID, err)
	}
	return nil
}

// Send delivers one outgoing message into the workspace thread.
func (t *TelegramClient) Send(_ context.Context, ws *Workspace, out Outgoing) (MessageRef, error) {
	opts := &tele.SendOptions{
		ThreadID:  int(ws.ID),
		ParseMode: tele.ModeMarkdown,
	}
	if len(out.Buttons) > 0 {
		opts.ReplyMarkup = buildMarkup(out.Buttons)
	}

	var (
		msg *tele.Message
		err error
	)
	if out.Sticker != "" {
		msg, err = t.bot.Send(t.home, &tele.Sticker{File: tele.File{FileID: out.Sticker}}, opts)
	} else {
		msg, err = t.bot.Send(t.home, renderOutgoing(out), opts)
	}
	if err != nil {
		return MessageRef{}, fmt.Errorf("send to %q: %w", ws.Name, err)
	}

	ref := MessageRef{
		ChatID:      t.home.ID,
		MessageID:   strconv.Itoa(msg.ID),
		WorkspaceID: ws.ID,
	}
	t.record(ws.ID, ref, out)
	return ref, nil
}

// SendChannel delivers into a plain chat outside the workspace index.
func (t *TelegramClient) SendChannel(_ context.Context, chatID int64, out Outgoing) (MessageRef, error) {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown}
	if len(out.Buttons) > 0 {
		opts.ReplyMarkup = buildMarkup(out.Buttons)
	}
	msg, err := t.bot.Send(&tele.Chat{ID: chatID}, renderOutgoing(out), opts)
	if err != nil {
		return MessageRef{}, fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return MessageRef{ChatID: chatID, MessageID: strconv.Itoa(msg.ID)}, nil
}

// Edit replaces a previously sent message in place.
func (t *TelegramClient) Edit(_ context.Context, ref MessageRef, out Outgoing) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown}
	if len(out.Buttons) > 0 {
		opts.ReplyMarkup = buildMarkup(out.Buttons)
	}
	stored := tele.StoredMessage{MessageID: ref.MessageID, ChatID: ref.ChatID}
	if _, err := t.bot.Edit(stored, renderOutgoing(out), opts); err != nil {
		return fmt.Errorf("edit message %s: %w", ref.MessageID, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	msgs := t.history[ref.WorkspaceID]
	for i := range msgs {
		if msgs[i].Ref.MessageID == ref.MessageID {
			msgs[i].Embed = cloneEmbed(out.Embed)
			break
		}
	}
	return nil
}

// Delete removes a previously sent message.
func (t *TelegramClient) Delete(_ context.Context, ref MessageRef) error {
	stored := tele.StoredMessage{MessageID: ref.MessageID, ChatID: ref.ChatID}
	if err := t.bot.Delete(stored); err != nil {
		return fmt.Errorf("delete message %s: %w", ref.MessageID, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	msgs := t.history[ref.WorkspaceID]
	for i := range msgs {
		if msgs[i].Ref.MessageID == ref.MessageID {
			t.history[ref.WorkspaceID] = append(msgs[:i], msgs[i+1:]...)
			break
		}
	}
	return nil
}

// History returns the retained bot-authored transcript, newest first.
func (t *TelegramClient) History(_ context.Context, ws *Workspace, limit int) ([]Posted, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msgs := t.history[ws.ID]
	var out []Posted
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

// UpdateChannelLabel renames the display chat.
func (t *TelegramClient) UpdateChannelLabel(_ context.Context, chatID int64, label string) error {
	if err := t.bot.SetGroupTitle(&tele.Chat{ID: chatID}, label); err != nil {
		return fmt.Errorf("set label for chat %d: %w", chatID, err)
	}
	return nil
}

// WorkspaceLink renders a t.me deep link into the workspace thread.
func (t *TelegramClient) WorkspaceLink(ws *Workspace) string {
	// private supergroup links drop the -100 prefix
	raw := strconv.FormatInt(t.home.ID, 10)
	raw = strings.TrimPrefix(raw, "-100")
	return fmt.Sprintf("https://t.me/c/%s/%d", raw, ws.ID)
}

// Mention renders an inline user mention. The label is escaped since it
// usually comes from a user-chosen handle.
func (t *TelegramClient) Mention(userID int64, label string) string {
	if label == "" {
		label = strconv.FormatInt(userID, 10)
	}
	return fmt.Sprintf("[%s](tg://user?id=%d)", format.EscapeV1(label), userID)
}

// WorkspaceByID looks up an indexed workspace by its thread id.
func (t *TelegramClient) WorkspaceByID(id int64) (*Workspace, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ws, ok := t.index[id]
	return ws, ok
}

// Adopt registers an existing workspace into the adapter index, used on
// startup to rebuild state from configuration or a prior run.
func (t *TelegramClient) Adopt(ws *Workspace) {
	if ws == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.index[ws.ID] = ws
}

func (t *TelegramClient) record(wsID int64, ref MessageRef, out Outgoing) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msgs := append(t.history[wsID], Posted{
		Ref:      ref,
		Embed:    cloneEmbed(out.Embed),
		FromSelf: true,
	})
	if len(msgs) > historyDepth {
		msgs = msgs[len(msgs)-historyDepth:]
	}
	t.history[wsID] = msgs
}

// RenderText flattens an outgoing message into the Markdown text the
// adapter would send, for callers replying through a tele.Context.
func RenderText(out Outgoing) string {
	return renderOutgoing(out)
}

// InlineMarkup builds the inline keyboard for an outgoing message, or
// nil when it has no buttons.
func InlineMarkup(out Outgoing) *tele.ReplyMarkup {
	if len(out.Buttons) == 0 {
		return nil
	}
	return buildMarkup(out.Buttons)
}

func buildMarkup(rows [][]Button) *tele.ReplyMarkup {
	kb := make([][]keyboard.InlineBtn, 0, len(rows))
	for _, row := range rows {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			r = append(r, keyboard.InlineBtn{Text: b.Label, Unique: b.Unique, Data: b.Data})
		}
		kb = append(kb, r)
	}
	return keyboard.InlineButtonsRows(kb...)
}

// renderOutgoing flattens an embed into Markdown text, since Telegram
// has no embed primitive.
func renderOutgoing(out Outgoing) string {
	var b strings.Builder
	if out.Content != "" {
		b.WriteString(out.Content)
	}
	if e := out.Embed; e != nil {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if e.Author != "" {
			fmt.Fprintf(&b, "_%s_\n", e.Author)
		}
		if e.Title != "" {
			fmt.Fprintf(&b, "*%s*\n\n", e.Title)
		}
		if e.Body != "" {
			b.WriteString(e.Body)
		}
		if e.Footer != "" {
			b.WriteString("\n\n_")
			b.WriteString(e.Footer)
			b.WriteString("_")
		}
	}
	return b.String()
}

func cloneEmbed(e *Embed) *Embed {
	if e == nil {
		return nil
	}
	cp := *e
	return &cp
}
