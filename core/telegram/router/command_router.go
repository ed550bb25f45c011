package router

import (
	"github.com/bluehax/soapbot/core/logger"
	tg "github.com/bluehax/soapbot/core/telegram"
	"github.com/bluehax/soapbot/core/telegram/commands"
	"github.com/bluehax/soapbot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	ResolveRole middleware.ResolveRole
	OnReject    tele.HandlerFunc
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	roleOpts := middleware.RoleOptions{
		Resolve:  opts.ResolveRole,
		OnReject: opts.OnReject,
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		h := def.Handler
		h = middleware.RecoverMiddleware(h)
		h = middleware.LoggerMiddleware(h)
		if def.MinRole > commands.RoleDefault {
			h = middleware.RequireRole(def.MinRole, roleOpts)(h)
		}
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler:  h,
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)

	return routes
}
