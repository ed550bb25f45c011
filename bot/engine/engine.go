// Package engine consumes worker status lines from the shared worker
// channel and routes the decoded events to the owning workspace:
// progress updates, error reports, and the completion hand-off.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bluehax/soapbot/bot/completion"
	"github.com/bluehax/soapbot/bot/platform"
	"github.com/bluehax/soapbot/bot/progress"
	"github.com/bluehax/soapbot/bot/protocol"
	"github.com/bluehax/soapbot/bot/tracker"
	"github.com/bluehax/soapbot/core/logger"
	"log/slog"
)

// Options configure an Engine.
type Options struct {
	Client     platform.Client
	Progress   *progress.Surface
	Completion *completion.Flow
	Tracker    *tracker.Store

	// WorkerChannelID is where status lines arrive and acks go back.
	WorkerChannelID int64
	// SoapCategories and NNIDCategories bound the workspace scan and
	// decide which counter a finished job increments.
	SoapCategories []string
	NNIDCategories []string
}

// Engine applies worker events in arrival order. It holds no per-job
// state: the workspace topic's mention token is the only linkage.
type Engine struct {
	opts Options
}

// New builds an Engine.
func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

// HandleWorkerLine processes one line from the worker channel. It
// reports whether the line was consumed as a status report; unparsable
// lines are left to other handlers.
func (e *Engine) HandleWorkerLine(ctx context.Context, line string) bool {
	ev, ok := protocol.Parse(line)
	if !ok {
		logger.Debug(ctx, "engine", "engine.line_ignored",
			slog.String("detail", logger.Sanitize(line)),
		)
		return false
	}

	e.ack(ctx, ev)

	ws := e.resolveWorkspace(ctx, ev.JobID)
	if ws == nil {
		logger.Warn(ctx, "engine", "engine.workspace_not_found",
			slog.String("job_id", ev.JobID),
			slog.String("phase", string(ev.Phase)),
		)
		return true
	}

	switch {
	case ev.Terminal():
		e.finish(ctx, ws, ev)
	case ev.Phase == protocol.PhaseError:
		e.reportError(ctx, ws, ev)
	default:
		e.advance(ctx, ws, ev)
	}
	return true
}

// ack is best-effort and at most once; a lost ack is not retried.
func (e *Engine) ack(ctx context.Context, ev protocol.StatusEvent) {
	if _, err := e.opts.Client.SendChannel(ctx, e.opts.WorkerChannelID, platform.Outgoing{Content: ev.Ack()}); err != nil {
		logger.Warn(ctx, "engine", "engine.ack_failed",
			slog.String("job_id", ev.JobID),
			slog.String("err", err.Error()),
		)
	}
}

func (e *Engine) advance(ctx context.Context, ws *platform.Workspace, ev protocol.StatusEvent) {
	percent, known := ev.Percent()
	if !known {
		logger.Debug(ctx, "engine", "engine.unknown_token",
			slog.String("job_id", ev.JobID),
			slog.String("phase", string(ev.Phase)),
			slog.String("detail", ev.Detail),
		)
		return
	}
	logger.Info(ctx, "engine", "engine.progress",
		slog.String("job_id", ev.JobID),
		slog.String("workspace", ws.Name),
		slog.Int("percent", percent),
	)
	e.opts.Progress.Update(ctx, ws, percent, ev.Caption())
}

func (e *Engine) finish(ctx context.Context, ws *platform.Workspace, ev protocol.StatusEvent) {
	e.opts.Progress.Remove(ctx, ws)

	category := tracker.CategorySoap
	if e.isNNID(ws.Category) {
		category = tracker.CategoryNNID
	}
	if err := e.opts.Tracker.Increment(category); err != nil {
		logger.Warn(ctx, "engine", "engine.counter_failed",
			slog.String("job_id", ev.JobID),
			slog.String("err", err.Error()),
		)
	}

	serial := ev.Detail
	if serial == protocol.DetailSkip {
		serial = ""
	}
	e.opts.Completion.Deliver(ctx, ws, ownerID(ws.Topic), completion.Outcome{
		Lottery: ev.Phase == protocol.PhaseLottery,
		Serial:  serial,
	})
	logger.Info(ctx, "engine", "engine.finished",
		slog.String("job_id", ev.JobID),
		slog.String("workspace", ws.Name),
		slog.String("phase", string(ev.Phase)),
	)
}

func (e *Engine) reportError(ctx context.Context, ws *platform.Workspace, ev protocol.StatusEvent) {
	body := "The transfer worker reported an error. A Soaper will take a look and follow up here."
	if strings.Contains(ev.Detail, protocol.DetailSerialMismatch) {
		body = "The serial number you provided does not match your console. " +
			"Please double-check the serial on the back of your console and post the corrected one here."
	}
	out := platform.Outgoing{
		Embed: &platform.Embed{
			Title: "❌ Transfer Error",
			Body:  body,
		},
	}
	if _, err := e.opts.Client.Send(ctx, ws, out); err != nil {
		logger.Warn(ctx, "engine", "engine.error_report_failed",
			slog.String("workspace", ws.Name),
			slog.String("err", err.Error()),
		)
	}
	logger.Warn(ctx, "engine", "engine.worker_error",
		slog.String("job_id", ev.JobID),
		slog.String("workspace", ws.Name),
		slog.String("detail", ev.Detail),
	)
}

// resolveWorkspace scans both category sets for a topic whose mention
// token carries the job id.
func (e *Engine) resolveWorkspace(ctx context.Context, jobID string) *platform.Workspace {
	categories := append(append([]string{}, e.opts.SoapCategories...), e.opts.NNIDCategories...)
	all, err := e.opts.Client.Workspaces(ctx, categories)
	if err != nil {
		logger.Warn(ctx, "engine", "engine.scan_failed",
			slog.String("job_id", jobID),
			slog.String("err", err.Error()),
		)
		return nil
	}
	token := fmt.Sprintf("<@%s>", jobID)
	for _, ws := range all {
		if strings.Contains(ws.Topic, token) {
			return ws
		}
	}
	return nil
}

func (e *Engine) isNNID(category string) bool {
	for _, c := range e.opts.NNIDCategories {
		if c == category {
			return true
		}
	}
	return false
}

// ownerID parses the requester id from the topic token, best-effort;
// ids wider than 63 bits degrade to 0 and lose only the mention.
func ownerID(topic string) int64 {
	start := strings.Index(topic, "<@")
	if start < 0 {
		return 0
	}
	end := strings.Index(topic[start:], ">")
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseInt(topic[start+2:start+end], 10, 64)
	if err != nil {
		return 0
	}
	return id
}
