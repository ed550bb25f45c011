// Package workspace provisions and destroys the private per-requester
// workspaces where transfer jobs run.
package workspace

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bluehax/soapbot/bot/platform"
	"github.com/bluehax/soapbot/core/logger"
	"log/slog"
)

// Kind is the transfer job type a workspace belongs to.
type Kind string

const (
	KindSoap Kind = "soap"
	KindNNID Kind = "nnid"
)

// Suffix returns the workspace name suffix for the kind.
func (k Kind) Suffix() string {
	return "-" + string(k)
}

// Label returns the user-facing job-type name.
func (k Kind) Label() string {
	switch k {
	case KindNNID:
		return "NNID"
	default:
		return "SOAP"
	}
}

// Requester identifies the user asking for a transfer.
type Requester struct {
	ID     int64
	Handle string
}

// NameFor derives the deterministic workspace name: handle trimmed of
// leading/trailing periods, lowercased, inner periods to dashes, plus
// the job-type suffix.
func NameFor(handle string, kind Kind) string {
	safe := strings.Trim(handle, ".")
	safe = strings.ToLower(safe)
	safe = strings.ReplaceAll(safe, ".", "-")
	return safe + kind.Suffix()
}

// TopicFor renders the workspace topic string. The mention token inside
// it is the only durable back-reference to the owner.
func TopicFor(requesterID int64, kind Kind) string {
	return fmt.Sprintf("This is the %s channel for <@%d>, please follow all provided instructions.", kind.Label(), requesterID)
}

var mentionRE = regexp.MustCompile(`<@!?(\d+)>`)

// OwnerID extracts the owner id token from a workspace topic.
func OwnerID(topic string) (string, bool) {
	m := mentionRE.FindStringSubmatch(topic)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Status classifies a CreateOrGet outcome.
type Status int

const (
	// StatusCreated means a new workspace was provisioned.
	StatusCreated Status = iota
	// StatusAlreadyExists means the requester already has one; the
	// existing workspace is returned.
	StatusAlreadyExists
	// StatusError means provisioning failed; Message explains why.
	StatusError
)

// Result is the outcome of CreateOrGet.
type Result struct {
	Status    Status
	Workspace *platform.Workspace
	Message   string
}

// Options configure a Provisioner.
type Options struct {
	Client platform.Client

	// Category sets scanned per kind; a new workspace lands in the
	// first entry of its set.
	SoapCategories []string
	NNIDCategories []string

	// Quiet window for the after-hours notice, evaluated at a fixed
	// UTC offset.
	QuietStartHour int
	QuietEndHour   int
	QuietUTCOffset int

	// BoomSticker is sent during the destruction countdown.
	BoomSticker string
	// DestroyDelay defaults to 2.75s, shortened in tests.
	DestroyDelay time.Duration
	// Now defaults to time.Now, injected in tests.
	Now func() time.Time
}

// Provisioner creates and destroys workspaces. A per-(requester, kind)
// mutex narrows the concurrent-accept race; the existence scan stays
// authoritative at call time.
type Provisioner struct {
	opts Options

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewProvisioner builds a Provisioner, applying option defaults.
func NewProvisioner(opts Options) *Provisioner {
	if opts.DestroyDelay <= 0 {
		opts.DestroyDelay = 2750 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Provisioner{
		opts:  opts,
		locks: make(map[string]*sync.Mutex),
	}
}

// Categories returns the category scan set for a kind.
func (p *Provisioner) Categories(kind Kind) []string {
	if kind == KindNNID {
		return p.opts.NNIDCategories
	}
	return p.opts.SoapCategories
}

// CreateOrGet idempotently provisions the requester's workspace for the
// kind. It never returns a Go error: every failure is converted into a
// StatusError result with a user-facing message.
func (p *Provisioner) CreateOrGet(ctx context.Context, req Requester, kind Kind) Result {
	lock := p.requesterLock(req.ID, kind)
	lock.Lock()
	defer lock.Unlock()

	name := NameFor(req.Handle, kind)
	categories := p.Categories(kind)

	existing, err := p.opts.Client.Workspaces(ctx, categories)
	if err != nil {
		return p.errorResult(ctx, name, fmt.Sprintf("Error listing workspaces: %v", err))
	}
	for _, ws := range existing {
		if ws.Name == name {
			logger.Info(ctx, "workspace", "workspace.already_exists",
				slog.String("workspace", name),
				slog.Int64("user_id", req.ID),
			)
			return Result{
				Status:    StatusAlreadyExists,
				Workspace: ws,
				Message:   fmt.Sprintf("%s workspace already made for `%s`", kind.Label(), req.Handle),
			}
		}
	}

	if len(categories) == 0 {
		return p.errorResult(ctx, name, fmt.Sprintf("%s category not found", kind.Label()))
	}

	ws, err := p.opts.Client.CreateWorkspace(ctx, name, categories[0], TopicFor(req.ID, kind))
	if err != nil {
		return p.errorResult(ctx, name, fmt.Sprintf("Error creating workspace: %v", err))
	}
	if err := p.opts.Client.GrantAccess(ctx, ws, req.ID); err != nil {
		return p.errorResult(ctx, name, fmt.Sprintf("Error granting access: %v", err))
	}
	p.seedWelcome(ctx, ws, req, kind)

	logger.Info(ctx, "workspace", "workspace.created",
		slog.String("workspace", name),
		slog.String("kind", string(kind)),
		slog.Int64("user_id", req.ID),
	)
	return Result{Status: StatusCreated, Workspace: ws, Message: "Workspace created successfully"}
}

// Destroy runs the fixed destruction sequence: warning, sticker, delay,
// delete. The sequence is not cancellable once started. A workspace
// that is already gone is treated as success.
func (p *Provisioner) Destroy(ctx context.Context, ws *platform.Workspace) error {
	if _, err := p.opts.Client.Send(ctx, ws, platform.Outgoing{Content: "Self-destruct sequence initiated!"}); err != nil {
		if isGone(err) {
			return nil
		}
		logger.Warn(ctx, "workspace", "workspace.destroy_warning_failed",
			slog.String("workspace", ws.Name),
			slog.String("err", err.Error()),
		)
	}
	if p.opts.BoomSticker != "" {
		if _, err := p.opts.Client.Send(ctx, ws, platform.Outgoing{Sticker: p.opts.BoomSticker}); err != nil {
			logger.Debug(ctx, "workspace", "workspace.destroy_sticker_failed",
				slog.String("workspace", ws.Name),
				slog.String("err", err.Error()),
			)
		}
	}

	select {
	case <-time.After(p.opts.DestroyDelay):
	case <-ctx.Done():
	}

	if err := p.opts.Client.DeleteWorkspace(ctx, ws); err != nil {
		if isGone(err) {
			return nil
		}
		return fmt.Errorf("destroy workspace %q: %w", ws.Name, err)
	}
	logger.Info(ctx, "workspace", "workspace.destroyed",
		slog.String("workspace", ws.Name),
	)
	return nil
}

func (p *Provisioner) seedWelcome(ctx context.Context, ws *platform.Workspace, req Requester, kind Kind) {
	welcome := welcomeFor(kind)
	welcome.Content = p.opts.Client.Mention(req.ID, req.Handle)
	if _, err := p.opts.Client.Send(ctx, ws, welcome); err != nil {
		logger.Warn(ctx, "workspace", "workspace.welcome_failed",
			slog.String("workspace", ws.Name),
			slog.String("err", err.Error()),
		)
	}

	if p.inQuietWindow() {
		if _, err := p.opts.Client.Send(ctx, ws, afterHoursNotice()); err != nil {
			logger.Debug(ctx, "workspace", "workspace.notice_failed",
				slog.String("workspace", ws.Name),
				slog.String("err", err.Error()),
			)
		}
	}
}

func (p *Provisioner) errorResult(ctx context.Context, name, msg string) Result {
	logger.Warn(ctx, "workspace", "workspace.create_failed",
		slog.String("workspace", name),
		slog.String("err", msg),
	)
	return Result{Status: StatusError, Message: msg}
}

func (p *Provisioner) requesterLock(id int64, kind Kind) *sync.Mutex {
	key := fmt.Sprintf("%d/%s", id, kind)
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[key] = lock
	}
	return lock
}

func (p *Provisioner) inQuietWindow() bool {
	start, end := p.opts.QuietStartHour, p.opts.QuietEndHour
	if start == end {
		return false
	}
	zone := time.FixedZone("quiet", p.opts.QuietUTCOffset*3600)
	h := p.opts.Now().In(zone).Hour()
	if start < end {
		return h >= start && h < end
	}
	// window crosses midnight
	return h >= start || h < end
}

func isGone(err error) bool {
	return err != nil && (err == platform.ErrWorkspaceGone || strings.Contains(err.Error(), platform.ErrWorkspaceGone.Error()))
}
