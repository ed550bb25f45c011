// Package wizard implements the pre-request eligibility flows: a small
// directed graph of single-choice questions per job type. Answering a
// question either advances to the next one, ends in an explanatory
// terminal, or accepts the request and provisions a workspace.
package wizard

import (
	"context"
	"fmt"
	"strings"

	"github.com/bluehax/soapbot/bot/platform"
	"github.com/bluehax/soapbot/bot/workspace"
	"github.com/bluehax/soapbot/core/logger"
	"log/slog"
)

// CallbackUnique is the callback namespace for wizard buttons.
const CallbackUnique = "wizard"

// Choice is one selectable answer on a step.
type Choice struct {
	Label string
	Value string
}

// Kind classifies what answering a choice does.
type Kind int

const (
	// KindNext advances to another step.
	KindNext Kind = iota
	// KindReject ends the flow with a disqualification message.
	KindReject
	// KindUnsure ends the flow with explanatory text; the user must
	// re-invoke the entry point to retry.
	KindUnsure
	// KindAccept provisions the workspace.
	KindAccept
)

// Transition is the result of answering a step.
type Transition struct {
	Kind    Kind
	NextID  string
	Message platform.Outgoing
}

// Step is one question node. Steps are stateless; requester identity
// travels in the callback payload, not in the step.
type Step struct {
	ID      string
	Title   string
	Prompt  string
	Choices []Choice
	Answer  func(choice string) Transition
}

// Render builds the step's outgoing message with one button per choice.
func (s *Step) Render(job workspace.Kind) platform.Outgoing {
	rows := make([][]platform.Button, 0, len(s.Choices))
	for _, c := range s.Choices {
		rows = append(rows, []platform.Button{{
			Label:  c.Label,
			Unique: CallbackUnique,
			Data:   EncodeCallback(job, s.ID, c.Value),
		}})
	}
	return platform.Outgoing{
		Embed: &platform.Embed{
			Title:  "🔍 " + s.Title,
			Body:   s.Prompt,
			Footer: "Questions? Drop us a line in #soap-help",
		},
		Buttons: rows,
	}
}

// Flow is the full question graph for one job type.
type Flow struct {
	Job     workspace.Kind
	EntryID string
	steps   map[string]*Step
}

// Step looks a node up by id.
func (f *Flow) Step(id string) (*Step, bool) {
	s, ok := f.steps[id]
	return s, ok
}

// Entry returns the first question.
func (f *Flow) Entry() *Step {
	return f.steps[f.EntryID]
}

func newFlow(job workspace.Kind, entry string, steps ...*Step) *Flow {
	m := make(map[string]*Step, len(steps))
	for _, s := range steps {
		m[s.ID] = s
	}
	return &Flow{Job: job, EntryID: entry, steps: m}
}

// EncodeCallback packs (job, step, choice) into button callback data.
func EncodeCallback(job workspace.Kind, stepID, choice string) string {
	return fmt.Sprintf("%s:%s:%s", job, stepID, choice)
}

// DecodeCallback unpacks button callback data.
func DecodeCallback(data string) (job workspace.Kind, stepID, choice string, err error) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("wizard: malformed callback data %q", data)
	}
	return workspace.Kind(parts[0]), parts[1], parts[2], nil
}

// Wizard drives the flows and applies ACCEPT outcomes.
type Wizard struct {
	prov       *workspace.Provisioner
	client     platform.Client
	flows      map[workspace.Kind]*Flow
	restricted map[int64]struct{}
}

// New builds a Wizard over the provisioner. restrictedIDs lists
// requesters barred from starting new NNID transfers.
func New(prov *workspace.Provisioner, client platform.Client, restrictedIDs []int64) *Wizard {
	restricted := make(map[int64]struct{}, len(restrictedIDs))
	for _, id := range restrictedIDs {
		restricted[id] = struct{}{}
	}
	return &Wizard{
		prov:   prov,
		client: client,
		flows: map[workspace.Kind]*Flow{
			workspace.KindSoap: soapFlow(),
			workspace.KindNNID: nnidFlow(),
		},
		restricted: restricted,
	}
}

// Flow returns the graph for a job type.
func (w *Wizard) Flow(job workspace.Kind) *Flow {
	return w.flows[job]
}

// Begin starts the flow for a requester. An existing workspace or the
// restricted gate short-circuits into a terminal message; otherwise the
// first question is returned.
func (w *Wizard) Begin(ctx context.Context, req workspace.Requester, job workspace.Kind) platform.Outgoing {
	if ws := w.existingWorkspace(ctx, req, job); ws != nil {
		return alreadyExistsMessage(job, w.client.WorkspaceLink(ws))
	}
	if job == workspace.KindNNID {
		if _, barred := w.restricted[req.ID]; barred {
			logger.Info(ctx, "wizard", "wizard.restricted",
				slog.Int64("user_id", req.ID),
			)
			return restrictedMessage()
		}
	}
	logger.Info(ctx, "wizard", "wizard.started",
		slog.String("kind", string(job)),
		slog.Int64("user_id", req.ID),
	)
	return w.flows[job].Entry().Render(job)
}

// Answer applies one choice and returns the message that replaces the
// prompt: the next question, a terminal explanation, or the
// provisioning outcome.
func (w *Wizard) Answer(ctx context.Context, req workspace.Requester, data string) (platform.Outgoing, error) {
	job, stepID, choice, err := DecodeCallback(data)
	if err != nil {
		return platform.Outgoing{}, err
	}
	flow, ok := w.flows[job]
	if !ok {
		return platform.Outgoing{}, fmt.Errorf("wizard: unknown job type %q", job)
	}
	step, ok := flow.Step(stepID)
	if !ok {
		return platform.Outgoing{}, fmt.Errorf("wizard: unknown step %q", stepID)
	}

	tr := step.Answer(choice)
	logger.Debug(ctx, "wizard", "wizard.answer",
		slog.String("kind", string(job)),
		slog.String("step", stepID),
		slog.String("choice", choice),
		slog.Int64("user_id", req.ID),
	)

	switch tr.Kind {
	case KindNext:
		next, ok := flow.Step(tr.NextID)
		if !ok {
			return platform.Outgoing{}, fmt.Errorf("wizard: step %q transitions to unknown step %q", stepID, tr.NextID)
		}
		return next.Render(job), nil
	case KindAccept:
		return w.accept(ctx, req, job), nil
	default:
		return tr.Message, nil
	}
}

func (w *Wizard) accept(ctx context.Context, req workspace.Requester, job workspace.Kind) platform.Outgoing {
	res := w.prov.CreateOrGet(ctx, req, job)
	switch res.Status {
	case workspace.StatusCreated:
		return platform.Outgoing{
			Embed: &platform.Embed{
				Title: "✅ Ready to Proceed!",
				Body: fmt.Sprintf("We'll perform your %s transfer in %s.",
					job.Label(), w.client.WorkspaceLink(res.Workspace)),
				Footer: "Please go there and follow the instructions to get started.",
			},
		}
	case workspace.StatusAlreadyExists:
		return alreadyExistsMessage(job, w.client.WorkspaceLink(res.Workspace))
	default:
		return platform.Outgoing{
			Embed: &platform.Embed{Title: "❌ Error", Body: res.Message},
		}
	}
}

func (w *Wizard) existingWorkspace(ctx context.Context, req workspace.Requester, job workspace.Kind) *platform.Workspace {
	name := workspace.NameFor(req.Handle, job)
	existing, err := w.client.Workspaces(ctx, w.prov.Categories(job))
	if err != nil {
		return nil
	}
	for _, ws := range existing {
		if ws.Name == name {
			return ws
		}
	}
	return nil
}

func alreadyExistsMessage(job workspace.Kind, link string) platform.Outgoing {
	return platform.Outgoing{
		Embed: &platform.Embed{
			Title: "⚠️ Channel Already Exists",
			Body: fmt.Sprintf("You already have a %s channel!\n\nPlease go to: %s",
				job.Label(), link),
		},
	}
}

func restrictedMessage() platform.Outgoing {
	return platform.Outgoing{
		Embed: &platform.Embed{
			Title: "⛔ Restricted from Bluehax Services",
			Body: "You are unable to request a new NNID transfer. This restriction may be temporary or permanent, depending on the reason.\n\n" +
				"You may still receive help with previously completed NNID transfers in #soap-help.",
			Footer: "If you believe this is a mistake, please contact a Soaper or Staff Member.",
		},
	}
}
