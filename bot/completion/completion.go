// Package completion runs the post-success decision tree: verify the
// reported outcome with the requester, branch into the help-topic menu
// or an auto-close timer, and destroy the workspace when done.
package completion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bluehax/soapbot/bot/platform"
	"github.com/bluehax/soapbot/bot/workspace"
	"github.com/bluehax/soapbot/core/logger"
	"log/slog"
)

// Callback namespaces and action tokens for the flow's buttons.
const (
	CallbackUnique = "completion"
	HelpUnique     = "soaphelp"

	ActionWorks  = "works"
	ActionBroken = "broken"
	ActionClose  = "close"
	ActionMore   = "more"
)

// Outcome is the terminal worker result that enters the flow.
type Outcome struct {
	Lottery bool
	// Serial is the worker-reported serial token; empty or SKIP means
	// none to show.
	Serial string
}

// Options configure a Flow.
type Options struct {
	Client      platform.Client
	Provisioner *workspace.Provisioner

	// ResponderMention is prepended to escalation messages.
	ResponderMention string
	// AutoClose defaults to 30 minutes.
	AutoClose time.Duration
}

// Flow owns the per-workspace auto-close timers.
type Flow struct {
	opts Options

	mu     sync.Mutex
	timers map[int64]*autoClose
}

type autoClose struct {
	cancel chan struct{}
	once   sync.Once
}

func (t *autoClose) stop() bool {
	stopped := false
	t.once.Do(func() {
		close(t.cancel)
		stopped = true
	})
	return stopped
}

// NewFlow builds a Flow, applying option defaults.
func NewFlow(opts Options) *Flow {
	if opts.AutoClose <= 0 {
		opts.AutoClose = 30 * time.Minute
	}
	return &Flow{
		opts:   opts,
		timers: make(map[int64]*autoClose),
	}
}

// Deliver posts the outcome message with the verification buttons.
func (f *Flow) Deliver(ctx context.Context, ws *platform.Workspace, requesterID int64, outcome Outcome) {
	out := renderOutcome(outcome)
	out.Content = f.opts.Client.Mention(requesterID, "")
	if _, err := f.opts.Client.Send(ctx, ws, out); err != nil {
		logger.Warn(ctx, "completion", "completion.deliver_failed",
			slog.String("workspace", ws.Name),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Info(ctx, "completion", "completion.delivered",
		slog.String("workspace", ws.Name),
		slog.Bool("lottery", outcome.Lottery),
	)
}

// OnWorks handles the "eShop works" button: offer close/more-questions
// and start the auto-close timer.
func (f *Flow) OnWorks(ctx context.Context, ws *platform.Workspace) {
	out := platform.Outgoing{
		Embed: &platform.Embed{
			Title: "🎉 Glad it works!",
			Body: "Do you have any further questions, or are we done here?\n\n" +
				fmt.Sprintf("This channel will close itself in %d minutes if you don't press anything.", int(f.opts.AutoClose.Minutes())),
		},
		Buttons: [][]platform.Button{{
			{Label: "✅ No further questions, close it", Unique: CallbackUnique, Data: ActionClose},
			{Label: "❓ I have more questions", Unique: CallbackUnique, Data: ActionMore},
		}},
	}
	if _, err := f.opts.Client.Send(ctx, ws, out); err != nil {
		logger.Warn(ctx, "completion", "completion.works_failed",
			slog.String("workspace", ws.Name),
			slog.String("err", err.Error()),
		)
	}
	f.startAutoClose(ws)
}

// OnClose handles the explicit close button: cancel the timer and
// destroy the workspace.
func (f *Flow) OnClose(ctx context.Context, ws *platform.Workspace) {
	f.CancelAutoClose(ws.ID)
	if err := f.opts.Provisioner.Destroy(ctx, ws); err != nil {
		logger.Warn(ctx, "completion", "completion.close_failed",
			slog.String("workspace", ws.Name),
			slog.String("err", err.Error()),
		)
	}
}

// OnMore handles the more-questions button: cancel the timer and show
// the help-topic menu.
func (f *Flow) OnMore(ctx context.Context, ws *platform.Workspace) {
	f.CancelAutoClose(ws.ID)
	f.sendHelpMenu(ctx, ws)
}

// OnBroken handles the "still broken" button: straight to the
// help-topic menu, no timer involved.
func (f *Flow) OnBroken(ctx context.Context, ws *platform.Workspace) {
	f.sendHelpMenu(ctx, ws)
}

// CancelAutoClose stops the workspace's auto-close timer if one is
// live. Cancelling a fired or already-cancelled timer is a no-op.
func (f *Flow) CancelAutoClose(wsID int64) {
	f.mu.Lock()
	t := f.timers[wsID]
	delete(f.timers, wsID)
	f.mu.Unlock()
	if t != nil && t.stop() {
		logger.Debug(context.Background(), "completion", "completion.autoclose_cancelled",
			slog.Int64("workspace_id", wsID),
		)
	}
}

// TimerActive reports whether an auto-close timer is live for the
// workspace.
func (f *Flow) TimerActive(wsID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.timers[wsID]
	return ok
}

func (f *Flow) startAutoClose(ws *platform.Workspace) {
	f.mu.Lock()
	if _, running := f.timers[ws.ID]; running {
		f.mu.Unlock()
		return
	}
	t := &autoClose{cancel: make(chan struct{})}
	f.timers[ws.ID] = t
	f.mu.Unlock()

	go func() {
		select {
		case <-time.After(f.opts.AutoClose):
		case <-t.cancel:
			return
		}
		// mark fired so a late cancel is a no-op
		if !t.stop() {
			return
		}
		f.mu.Lock()
		delete(f.timers, ws.ID)
		f.mu.Unlock()

		ctx := context.Background()
		logger.Info(ctx, "completion", "completion.autoclose_fired",
			slog.String("workspace", ws.Name),
		)
		if err := f.opts.Provisioner.Destroy(ctx, ws); err != nil {
			logger.Warn(ctx, "completion", "completion.autoclose_destroy_failed",
				slog.String("workspace", ws.Name),
				slog.String("err", err.Error()),
			)
		}
	}()
}

func (f *Flow) sendHelpMenu(ctx context.Context, ws *platform.Workspace) {
	if _, err := f.opts.Client.Send(ctx, ws, HelpMenu()); err != nil {
		logger.Warn(ctx, "completion", "completion.help_menu_failed",
			slog.String("workspace", ws.Name),
			slog.String("err", err.Error()),
		)
	}
}

func renderOutcome(outcome Outcome) platform.Outgoing {
	if outcome.Lottery {
		return platform.Outgoing{
			Embed: &platform.Embed{
				Title: "🎉 SOAP Lottery!",
				Body: "Your SOAP transfer completed **without needing a system transfer**, meaning you won the SOAP lottery!\n\n" +
					"You can system transfer right away, no 7-day wait required.\n\n" +
					"Please open the eShop and confirm it works:",
				Footer: "Let us know how it went with the buttons below.",
			},
			Buttons: outcomeButtons(),
		}
	}
	body := "Your SOAP transfer has completed successfully!\n\nPlease open the eShop and confirm it works:"
	if outcome.Serial != "" {
		body = fmt.Sprintf("Your SOAP transfer has completed successfully!\n\n**Serial:** `%s`\n\nPlease open the eShop and confirm it works:", outcome.Serial)
	}
	return platform.Outgoing{
		Embed: &platform.Embed{
			Title:  "🧼 SOAP Complete!",
			Body:   body,
			Footer: "Let us know how it went with the buttons below.",
		},
		Buttons: outcomeButtons(),
	}
}

func outcomeButtons() [][]platform.Button {
	return [][]platform.Button{{
		{Label: "✅ The eShop works!", Unique: CallbackUnique, Data: ActionWorks},
		{Label: "❕ It still doesn't work", Unique: CallbackUnique, Data: ActionBroken},
	}}
}
