// Package progress maintains the single in-progress status message per
// workspace. The message is located by scanning recent bot-authored
// history for a fixed embed author sentinel; no message id is stored.
package progress

import (
	"context"
	"fmt"
	"strings"

	"github.com/bluehax/soapbot/bot/platform"
	"github.com/bluehax/soapbot/bot/tasks"
	"github.com/bluehax/soapbot/core/logger"
	"log/slog"
)

// Sentinel is the embed author marker identifying the progress message.
const Sentinel = "SOAP Transfer Progress"

// scanDepth bounds how far back the history scan looks.
const scanDepth = 50

// Surface renders and maintains progress messages.
type Surface struct {
	client platform.Client
	tasks  *tasks.Registry
}

// NewSurface builds a Surface over the platform client. Detached
// removals are tracked in reg.
func NewSurface(client platform.Client, reg *tasks.Registry) *Surface {
	return &Surface{client: client, tasks: reg}
}

// Start sends a fresh progress message at 0%.
func (s *Surface) Start(ctx context.Context, ws *platform.Workspace, caption string) {
	if _, err := s.client.Send(ctx, ws, render(0, caption)); err != nil {
		logger.Warn(ctx, "progress", "progress.start_failed",
			slog.String("workspace", ws.Name),
			slog.String("err", err.Error()),
		)
	}
}

// Update edits the live progress message in place, or sends a new one
// when none is found or the edit fails. It never reports an error: a
// lost update only costs display fidelity.
func (s *Surface) Update(ctx context.Context, ws *platform.Workspace, percent int, caption string) {
	out := render(percent, caption)

	ref, found := s.find(ctx, ws)
	if found {
		if err := s.client.Edit(ctx, ref, out); err == nil {
			logger.Debug(ctx, "progress", "progress.updated",
				slog.String("workspace", ws.Name),
				slog.Int("percent", percent),
			)
			return
		} else {
			logger.Warn(ctx, "progress", "progress.edit_failed",
				slog.String("workspace", ws.Name),
				slog.String("err", err.Error()),
			)
		}
	}

	if _, err := s.client.Send(ctx, ws, out); err != nil {
		logger.Warn(ctx, "progress", "progress.send_failed",
			slog.String("workspace", ws.Name),
			slog.String("err", err.Error()),
		)
	}
}

// Remove deletes the live progress message if one exists. It runs
// detached so it never blocks delivery of the completion message.
func (s *Surface) Remove(ctx context.Context, ws *platform.Workspace) {
	s.tasks.Go(ws.ID, func() {
		ref, found := s.find(ctx, ws)
		if !found {
			return
		}
		if err := s.client.Delete(ctx, ref); err != nil {
			logger.Debug(ctx, "progress", "progress.remove_failed",
				slog.String("workspace", ws.Name),
				slog.String("err", err.Error()),
			)
		}
	})
}

func (s *Surface) find(ctx context.Context, ws *platform.Workspace) (platform.MessageRef, bool) {
	posted, err := s.client.History(ctx, ws, scanDepth)
	if err != nil {
		logger.Warn(ctx, "progress", "progress.scan_failed",
			slog.String("workspace", ws.Name),
			slog.String("err", err.Error()),
		)
		return platform.MessageRef{}, false
	}
	for _, p := range posted {
		if p.FromSelf && p.Embed != nil && p.Embed.Author == Sentinel {
			return p.Ref, true
		}
	}
	return platform.MessageRef{}, false
}

func render(percent int, caption string) platform.Outgoing {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return platform.Outgoing{
		Embed: &platform.Embed{
			Author: Sentinel,
			Title:  fmt.Sprintf("%s %d%%", bar(percent), percent),
			Body:   caption,
			Footer: "This message updates as your transfer progresses.",
		},
	}
}

func bar(percent int) string {
	filled := percent / 10
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", 10-filled) + "]"
}
