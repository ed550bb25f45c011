package middleware

import (
	"github.com/bluehax/soapbot/core/logger"
	"github.com/bluehax/soapbot/core/telegram/commands"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// ResolveRole reports the access role for a user id.
type ResolveRole func(userID int64) commands.Role

// RoleOptions configures the role gate middleware.
type RoleOptions struct {
	Resolve  ResolveRole
	OnReject tele.HandlerFunc
}

// RequireRole returns a middleware that allows the update through only when
// the sender's resolved role is at least min.
func RequireRole(min commands.Role, opts RoleOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return nil
			}
			role := commands.RoleDefault
			if opts.Resolve != nil {
				role = opts.Resolve(user.ID)
			}
			if role >= min {
				return next(c)
			}
			logger.TG.Warn("role gate",
				slog.String("event", "tg.role_reject"),
				slog.Int64("user_id", user.ID),
				slog.String("role", role.String()),
				slog.String("required", min.String()),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
