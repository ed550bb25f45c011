// Package bot assembles the transfer workflow application: it owns the
// command/callback registry, builds the domain components around the
// Telegram adapter, and exposes the run options consumed by core/cmd.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bluehax/soapbot/bot/completion"
	"github.com/bluehax/soapbot/bot/engine"
	"github.com/bluehax/soapbot/bot/platform"
	"github.com/bluehax/soapbot/bot/progress"
	"github.com/bluehax/soapbot/bot/tasks"
	"github.com/bluehax/soapbot/bot/texts"
	"github.com/bluehax/soapbot/bot/tracker"
	"github.com/bluehax/soapbot/bot/wizard"
	"github.com/bluehax/soapbot/bot/workspace"
	coreconfig "github.com/bluehax/soapbot/core/config"
	"github.com/bluehax/soapbot/core/logger"
	tg "github.com/bluehax/soapbot/core/telegram"
	"github.com/bluehax/soapbot/core/telegram/callbacks"
	"github.com/bluehax/soapbot/core/telegram/commands"
	tghelpers "github.com/bluehax/soapbot/core/telegram/helpers"
	"github.com/bluehax/soapbot/core/telegram/router"
	"github.com/bluehax/soapbot/core/telegram/state"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// stateErrorCode awaits a typed eShop/Bank error code in a workspace.
const stateErrorCode state.State = "completion_error_code"

// App is the application context threaded through every handler.
type App struct {
	cfg   *coreconfig.Config
	store *tracker.Store
	reg   *tg.Registry
	fsm   state.Manager
	tasks *tasks.Registry

	// runtime components, built in onStart once the bot exists
	mu      sync.RWMutex
	client  *platform.TelegramClient
	prov    *workspace.Provisioner
	wiz     *wizard.Wizard
	surface *progress.Surface
	flow    *completion.Flow
	eng     *engine.Engine
	syncer  *tracker.Syncer
}

// New builds the App and registers all commands, callbacks and FSM
// handlers. The platform-bound components come later, in onStart.
func New(cfg *coreconfig.Config, store *tracker.Store) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}
	if store == nil {
		return nil, fmt.Errorf("bot: nil counter store")
	}
	a := &App{
		cfg:   cfg,
		store: store,
		reg:   tg.NewRegistry(),
		fsm:   state.NewMemoryManager(),
		tasks: tasks.NewRegistry(),
	}
	a.registerCommands()
	a.registerCallbacks()
	state.RegisterHandler(stateErrorCode, a.handleErrorCodeReply)
	return a, nil
}

// CoreConfig satisfies the cmd.ConfigCarrier interface.
func (a *App) CoreConfig() *coreconfig.Config { return a.cfg }

// TelegramRunOptions builds the transport run options for core/cmd.Run.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes: append(
			router.CommandRoutes(a.reg, router.CommandRouteOptions{
				ResolveRole: a.resolveRole,
				OnReject:    rejectCommand,
			}),
			append(
				router.TextRoutes(a.fsm, a.reg, router.TextOptions{
					Intercept: a.interceptWorkerLine,
				}),
				router.CallbackRoute(a.reg, router.CallbackOptions{}),
			)...,
		),
		OnStart: a.onStart,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	wf := a.cfg.Workflow

	client := platform.NewTelegramClient(rt.Bot, wf.HomeChatID)
	prov := workspace.NewProvisioner(workspace.Options{
		Client:         client,
		SoapCategories: wf.SoapCategories,
		NNIDCategories: wf.NNIDCategories,
		QuietStartHour: wf.QuietStartHour,
		QuietEndHour:   wf.QuietEndHour,
		QuietUTCOffset: wf.QuietUTCOffset,
		BoomSticker:    wf.BoomStickerID,
	})
	surface := progress.NewSurface(client, a.tasks)
	flow := completion.NewFlow(completion.Options{
		Client:           client,
		Provisioner:      prov,
		ResponderMention: wf.ResponderMention,
		AutoClose:        time.Duration(wf.AutoCloseMinutes) * time.Minute,
	})

	a.mu.Lock()
	a.client = client
	a.prov = prov
	a.wiz = wizard.New(prov, client, wf.RestrictedIDs)
	a.surface = surface
	a.flow = flow
	a.eng = engine.New(engine.Options{
		Client:          client,
		Progress:        surface,
		Completion:      flow,
		Tracker:         a.store,
		WorkerChannelID: wf.WorkerChannelID,
		SoapCategories:  wf.SoapCategories,
		NNIDCategories:  wf.NNIDCategories,
	})
	a.syncer = tracker.NewSyncer(a.store, client, wf.SoapTrackerID, wf.NNIDTrackerID)
	a.mu.Unlock()

	a.repostRequestEmbeds(ctx, client)

	if wf.SoapTrackerID != 0 || wf.NNIDTrackerID != 0 {
		go a.syncer.Run(ctx, time.Duration(wf.TrackerSyncMinutes)*time.Minute)
	}

	logger.Info(ctx, "app", "app.components_ready",
		slog.Int64("chat_id", wf.HomeChatID),
	)
	return nil
}

// repostRequestEmbeds refreshes the persistent request messages so the
// start buttons survive restarts.
func (a *App) repostRequestEmbeds(ctx context.Context, client *platform.TelegramClient) {
	wf := a.cfg.Workflow
	targets := []struct {
		chatID int64
		job    workspace.Kind
	}{
		{wf.RequestSoapChannelID, workspace.KindSoap},
		{wf.RequestNNIDChannelID, workspace.KindNNID},
	}
	for _, t := range targets {
		if t.chatID == 0 {
			continue
		}
		if _, err := client.SendChannel(ctx, t.chatID, wizard.RequestMessage(t.job)); err != nil {
			logger.Warn(ctx, "app", "app.request_embed_failed",
				slog.String("kind", string(t.job)),
				slog.String("err", err.Error()),
			)
		}
	}
}

func (a *App) registerCommands() {
	a.reg.RegisterCommand("/requestsoap", commands.Command{
		Handler:     a.repostRequestCommand(workspace.KindSoap),
		Description: "Reposts the SOAP request embed",
		MinRole:     commands.RoleSoaper,
	})
	a.reg.RegisterCommand("/requestnnid", commands.Command{
		Handler:     a.repostRequestCommand(workspace.KindNNID),
		Description: "Reposts the NNID request embed",
		MinRole:     commands.RoleSoaper,
	})
	a.reg.RegisterCommand("/sync", commands.Command{
		Handler:     a.syncCommand,
		Description: "Projects job counters onto the tracker displays",
		MinRole:     commands.RoleSoaper,
	})
	a.reg.RegisterCommand("/soaphelp", commands.Command{
		Handler:     a.helpMenuCommand,
		Description: "Shows the SOAP help topics",
		Aliases:     []string{"soaphelper", "helpsoap"},
	})
	a.reg.RegisterCommand("/createsoap", commands.Command{
		Handler:     a.createCommand(workspace.KindSoap),
		Description: "Manually opens a SOAP workspace for a user",
		MinRole:     commands.RoleSoaper,
	})
	a.reg.RegisterCommand("/creatennid", commands.Command{
		Handler:     a.createCommand(workspace.KindNNID),
		Description: "Manually opens an NNID workspace for a user",
		MinRole:     commands.RoleSoaper,
	})
	a.reg.RegisterCommand("/deletesoap", commands.Command{
		Handler:     a.destroyCommand,
		Description: "Destroys the current workspace",
		MinRole:     commands.RoleSoaper,
		Aliases:     []string{"deletennid"},
		Hidden:      true,
	})

	for _, entry := range texts.Catalog() {
		a.reg.RegisterCommand("/"+entry.Name, commands.Command{
			Handler:     a.textCommand(entry),
			Description: entry.Help,
			MinRole:     entry.MinRole,
			Aliases:     entry.Aliases,
		})
	}
}

func (a *App) registerCallbacks() {
	must := func(err error) {
		if err != nil {
			logger.Warn(context.Background(), "app", "app.callback_register_failed",
				slog.String("err", err.Error()),
			)
		}
	}
	must(a.reg.RegisterCallback(wizard.EntryUnique, a.wizardEntryCallback))
	must(a.reg.RegisterCallback(wizard.CallbackUnique, a.wizardStepCallback))
	must(a.reg.RegisterCallback(completion.CallbackUnique, a.completionCallback))
	must(a.reg.RegisterCallback(completion.HelpUnique, a.helpTopicCallback))
}

// --- command handlers ---

func (a *App) repostRequestCommand(job workspace.Kind) tele.HandlerFunc {
	return func(c tele.Context) error {
		out := wizard.RequestMessage(job)
		return tghelpers.SendMD(c, platform.RenderText(out), platform.InlineMarkup(out))
	}
}

func (a *App) syncCommand(c tele.Context) error {
	syncer := a.components().syncer
	if syncer == nil {
		return nil
	}
	soap, nnid := syncer.Sync(tghelpers.BuildContext(c))
	return tghelpers.SendMD(c, fmt.Sprintf("Counters synced: %d SOAPs, %d NNIDs.", soap, nnid))
}

func (a *App) helpMenuCommand(c tele.Context) error {
	out := completion.HelpMenu()
	return tghelpers.SendMD(c, platform.RenderText(out), platform.InlineMarkup(out))
}

// createCommand provisions a workspace for another user, resolved from a
// replied-to message or a numeric ID payload.
func (a *App) createCommand(job workspace.Kind) tele.HandlerFunc {
	return func(c tele.Context) error {
		cmp := a.components()
		if cmp.prov == nil {
			return nil
		}
		req, ok := targetRequester(c)
		if !ok {
			return tghelpers.SendMD(c, "Reply to a message from the user, or pass their numeric ID.")
		}
		res := cmp.prov.CreateOrGet(tghelpers.BuildContext(c), req, job)
		switch res.Status {
		case workspace.StatusCreated:
			return tghelpers.SendMD(c, fmt.Sprintf("Workspace created: %s", cmp.client.WorkspaceLink(res.Workspace)))
		case workspace.StatusAlreadyExists:
			return tghelpers.SendMD(c, fmt.Sprintf("Workspace already exists: %s", cmp.client.WorkspaceLink(res.Workspace)))
		default:
			return tghelpers.SendMD(c, res.Message)
		}
	}
}

func (a *App) destroyCommand(c tele.Context) error {
	cmp := a.components()
	ws := a.workspaceFor(c)
	if ws == nil {
		return tghelpers.SendMD(c, "This command can only be used in a transfer workspace.")
	}
	cmp.flow.CancelAutoClose(ws.ID)
	ctx := tghelpers.BuildContext(c)
	a.tasks.Go(ws.ID, func() {
		if err := cmp.prov.Destroy(context.WithoutCancel(ctx), ws); err != nil {
			logger.Warn(ctx, "app", "app.destroy_failed",
				slog.String("workspace", ws.Name),
				slog.String("err", err.Error()),
			)
		}
	})
	return nil
}

func (a *App) textCommand(entry texts.Entry) tele.HandlerFunc {
	return func(c tele.Context) error {
		cmp := a.components()
		ws := a.workspaceFor(c)
		if entry.WorkspaceOnly && ws == nil {
			return tghelpers.SendMD(c, "This command can only be used in a transfer workspace.")
		}
		out := entry.Render(ws, cmp.client)
		if ws != nil {
			_, err := cmp.client.Send(tghelpers.BuildContext(c), ws, out)
			return err
		}
		return tghelpers.SendMD(c, platform.RenderText(out), platform.InlineMarkup(out))
	}
}

// --- callback handlers ---

func (a *App) wizardEntryCallback(c tele.Context) error {
	cmp := a.components()
	if cmp.wiz == nil {
		return nil
	}
	job := workspace.Kind(callbacks.CallbackPayload(c))
	req := requesterOf(c)
	out := cmp.wiz.Begin(tghelpers.BuildContext(c), req, job)
	return tghelpers.SendMD(c, platform.RenderText(out), platform.InlineMarkup(out))
}

func (a *App) wizardStepCallback(c tele.Context) error {
	cmp := a.components()
	if cmp.wiz == nil {
		return nil
	}
	out, err := cmp.wiz.Answer(tghelpers.BuildContext(c), requesterOf(c), callbacks.CallbackPayload(c))
	if err != nil {
		return err
	}
	return tghelpers.EditOrSendMD(c, platform.RenderText(out), platform.InlineMarkup(out))
}

func (a *App) completionCallback(c tele.Context) error {
	cmp := a.components()
	ws := a.workspaceFor(c)
	if cmp.flow == nil || ws == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	switch callbacks.CallbackPayload(c) {
	case completion.ActionWorks:
		cmp.flow.OnWorks(ctx, ws)
	case completion.ActionBroken:
		cmp.flow.OnBroken(ctx, ws)
	case completion.ActionClose:
		a.tasks.Go(ws.ID, func() {
			cmp.flow.OnClose(context.WithoutCancel(ctx), ws)
		})
	case completion.ActionMore:
		cmp.flow.OnMore(ctx, ws)
	}
	return nil
}

func (a *App) helpTopicCallback(c tele.Context) error {
	cmp := a.components()
	ws := a.workspaceFor(c)
	if cmp.flow == nil || ws == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID
	topic := callbacks.CallbackPayload(c)

	switch topic {
	case completion.ResolutionYes, completion.ResolutionNo:
		cmp.flow.HandleResolution(ctx, ws, topic)
		return nil
	case completion.TopicEshop, completion.TopicBank:
		service := "eShop"
		if topic == completion.TopicBank {
			service = "Pokémon Bank"
		}
		a.fsm.SetState(userID, stateErrorCode)
		a.fsm.SetTemp(userID, "error_service", service)
		a.fsm.SetTemp(userID, "error_workspace", ws.ID)
	}
	cmp.flow.HandleTopic(ctx, ws, userID, topic)
	return nil
}

// handleErrorCodeReply consumes the typed error code while the user is
// in the error-report state.
func (a *App) handleErrorCodeReply(c tele.Context) error {
	cmp := a.components()
	userID := c.Sender().ID
	defer a.fsm.Clear(userID)

	wsID, ok := a.fsm.GetTempInt64(userID, "error_workspace")
	if !ok || cmp.client == nil {
		return nil
	}
	ws, ok := cmp.client.WorkspaceByID(wsID)
	if !ok {
		return nil
	}
	service := "eShop"
	if v, ok := a.fsm.GetTemp(userID, "error_service"); ok {
		if s, ok := v.(string); ok {
			service = s
		}
	}
	cmp.flow.ReportErrorCode(tghelpers.BuildContext(c), ws, userID, service, c.Text())
	return nil
}

// --- routing glue ---

// interceptWorkerLine claims text updates from the worker channel and
// feeds them through the status engine.
func (a *App) interceptWorkerLine(c tele.Context) (bool, error) {
	if c.Chat() == nil || c.Chat().ID != a.cfg.Workflow.WorkerChannelID {
		return false, nil
	}
	eng := a.components().eng
	if eng == nil {
		return false, nil
	}
	return eng.HandleWorkerLine(tghelpers.BuildContext(c), c.Text()), nil
}

func (a *App) resolveRole(userID int64) commands.Role {
	wf := a.cfg.Workflow
	for _, id := range wf.StaffIDs {
		if id == userID {
			return commands.RoleStaff
		}
	}
	if userID == a.cfg.Telegram.AdminID && userID != 0 {
		return commands.RoleStaff
	}
	for _, id := range wf.SoaperIDs {
		if id == userID {
			return commands.RoleSoaper
		}
	}
	for _, id := range wf.RestrictedIDs {
		if id == userID {
			return commands.RoleRestricted
		}
	}
	return commands.RoleDefault
}

// workspaceFor resolves the workspace a message or callback lives in,
// via the forum thread id.
func (a *App) workspaceFor(c tele.Context) *platform.Workspace {
	client := a.components().client
	if client == nil || c.Message() == nil || c.Message().ThreadID == 0 {
		return nil
	}
	ws, ok := client.WorkspaceByID(int64(c.Message().ThreadID))
	if !ok {
		return nil
	}
	return ws
}

type componentSet struct {
	client  *platform.TelegramClient
	prov    *workspace.Provisioner
	wiz     *wizard.Wizard
	surface *progress.Surface
	flow    *completion.Flow
	eng     *engine.Engine
	syncer  *tracker.Syncer
}

func (a *App) components() componentSet {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return componentSet{
		client:  a.client,
		prov:    a.prov,
		wiz:     a.wiz,
		surface: a.surface,
		flow:    a.flow,
		eng:     a.eng,
		syncer:  a.syncer,
	}
}

// targetRequester resolves the user a manual create command acts on.
func targetRequester(c tele.Context) (workspace.Requester, bool) {
	m := c.Message()
	if m == nil {
		return workspace.Requester{}, false
	}
	if m.ReplyTo != nil && m.ReplyTo.Sender != nil {
		s := m.ReplyTo.Sender
		handle := s.Username
		if handle == "" {
			handle = strconv.FormatInt(s.ID, 10)
		}
		return workspace.Requester{ID: s.ID, Handle: handle}, true
	}
	payload := strings.TrimSpace(m.Payload)
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil || id <= 0 {
		return workspace.Requester{}, false
	}
	return workspace.Requester{ID: id, Handle: payload}, true
}

func requesterOf(c tele.Context) workspace.Requester {
	sender := c.Sender()
	if sender == nil {
		return workspace.Requester{}
	}
	handle := sender.Username
	if handle == "" {
		handle = strconv.FormatInt(sender.ID, 10)
	}
	return workspace.Requester{ID: sender.ID, Handle: handle}
}

func rejectCommand(c tele.Context) error {
	return tghelpers.SendMD(c, "You don't have permission to use this command.")
}
