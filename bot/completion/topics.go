package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/bluehax/soapbot/bot/platform"
	"github.com/bluehax/soapbot/core/logger"
	"github.com/bluehax/soapbot/core/telegram/format"
	"log/slog"
)

// Help-topic tokens carried in the menu's button data.
const (
	TopicEshop    = "eshop"
	TopicBank     = "bank"
	TopicPretendo = "pretendo"
	TopicLottery  = "lottery"
	TopicWait     = "wait7"
	TopicEscalate = "escalate"
)

// HelpMenu renders the help-topic selection message.
func HelpMenu() platform.Outgoing {
	return platform.Outgoing{
		Embed: &platform.Embed{
			Title: "🔍 SOAP Helper",
			Body: "Need help with your SOAP transfer? Select the issue you're having from the options below.\n\n" +
				"If you can't find what you're looking for, select **'My option is not listed here.'** to request assistance from a Soaper.",
			Footer: "Select an option below",
		},
		Buttons: [][]platform.Button{
			{{Label: "🛒 The eShop still doesn't work", Unique: HelpUnique, Data: TopicEshop}},
			{{Label: "📦 Pokémon Bank still doesn't work", Unique: HelpUnique, Data: TopicBank}},
			{{Label: "🌐 Switching between Pretendo & Nintendo Network?", Unique: HelpUnique, Data: TopicPretendo}},
			{{Label: "🎉 What is a SOAP lottery?", Unique: HelpUnique, Data: TopicLottery}},
			{{Label: "⏳ Do I have to wait 7 days?", Unique: HelpUnique, Data: TopicWait}},
			{{Label: "🆘 My option is not listed here.", Unique: HelpUnique, Data: TopicEscalate}},
		},
	}
}

// HandleTopic answers a help-topic selection. Error-code topics prompt
// for a typed code instead of answering directly; the engine routes the
// typed reply into ReportErrorCode.
func (f *Flow) HandleTopic(ctx context.Context, ws *platform.Workspace, requesterID int64, topic string) {
	logger.Info(ctx, "completion", "completion.help_topic",
		slog.String("workspace", ws.Name),
		slog.String("step", topic),
	)
	switch topic {
	case TopicEshop:
		f.send(ctx, ws, errorCodePrompt("eShop", "🛒"))
	case TopicBank:
		f.send(ctx, ws, errorCodePrompt("Pokémon Bank", "📦"))
	case TopicPretendo:
		f.sendWithFollowup(ctx, ws, requesterID, pretendoTopic())
	case TopicLottery:
		f.sendWithFollowup(ctx, ws, requesterID, lotteryTopic())
	case TopicWait:
		f.sendWithFollowup(ctx, ws, requesterID, waitTopic())
	case TopicEscalate:
		f.Escalate(ctx, ws, requesterID)
	default:
		logger.Warn(ctx, "completion", "completion.unknown_topic",
			slog.String("workspace", ws.Name),
			slog.String("step", topic),
		)
	}
}

// ReportErrorCode resolves a typed error code against the known-code
// table: known codes get resolution steps, unknown ones page a Soaper.
func (f *Flow) ReportErrorCode(ctx context.Context, ws *platform.Workspace, requesterID int64, service, code string) {
	code = strings.TrimSpace(code)
	info, ok := errorCodes[code]
	if ok && strings.EqualFold(info.Service, service) {
		steps := make([]string, 0, len(info.Steps))
		for i, s := range info.Steps {
			steps = append(steps, fmt.Sprintf("**%d.** %s", i+1, s))
		}
		f.send(ctx, ws, platform.Outgoing{
			Embed: &platform.Embed{
				Title:  fmt.Sprintf("%s - %s", code, info.Title),
				Body:   info.Description + "\n\n**Steps to resolve:**\n" + strings.Join(steps, "\n"),
				Footer: "Try these steps, try the eShop again, and let us know if the issue is resolved.",
			},
		})
		f.sendResolutionFollowup(ctx, ws, requesterID)
		return
	}

	out := platform.Outgoing{
		Content: f.opts.ResponderMention,
		Embed: &platform.Embed{
			Title: fmt.Sprintf("%s Error Report", service),
			Body: fmt.Sprintf("%s is experiencing issues with %s.\n\n**Error Code:** %s\n\n"+
				"This error code is not in our database. A Soaper will assist you shortly.",
				f.opts.Client.Mention(requesterID, ""), service, format.EscapeV1(code)),
			Footer: "Please wait for a Soaper to assist you.",
		},
	}
	f.send(ctx, ws, out)
}

// Escalate pings the responder role for manual assistance.
func (f *Flow) Escalate(ctx context.Context, ws *platform.Workspace, requesterID int64) {
	out := platform.Outgoing{
		Content: f.opts.ResponderMention,
		Embed: &platform.Embed{
			Title: "🆘 Assistance Requested",
			Body: fmt.Sprintf("%s has requested additional help. Please wait for a Soaper to assist you.",
				f.opts.Client.Mention(requesterID, "")),
			Footer: "Describe in detail what's happening and please include error codes if possible.",
		},
	}
	f.send(ctx, ws, out)
}

// HandleResolution answers the "did this resolve your issue?" buttons.
const (
	ResolutionYes = "resolved"
	ResolutionNo  = "unresolved"
)

func (f *Flow) HandleResolution(ctx context.Context, ws *platform.Workspace, answer string) {
	if answer == ResolutionNo {
		f.sendHelpMenu(ctx, ws)
	}
}

func (f *Flow) sendWithFollowup(ctx context.Context, ws *platform.Workspace, requesterID int64, out platform.Outgoing) {
	f.send(ctx, ws, out)
	f.sendResolutionFollowup(ctx, ws, requesterID)
}

func (f *Flow) sendResolutionFollowup(ctx context.Context, ws *platform.Workspace, requesterID int64) {
	f.send(ctx, ws, platform.Outgoing{
		Embed: &platform.Embed{
			Title: "❓ Did this resolve your issue?",
			Body: fmt.Sprintf("%s, please let us know if the steps above helped or if you still need help.",
				f.opts.Client.Mention(requesterID, "")),
		},
		Buttons: [][]platform.Button{{
			{Label: "✅ Yes, it's fixed!", Unique: HelpUnique, Data: ResolutionYes},
			{Label: "❕ No, I still need help", Unique: HelpUnique, Data: ResolutionNo},
		}},
	})
}

func (f *Flow) send(ctx context.Context, ws *platform.Workspace, out platform.Outgoing) {
	if _, err := f.opts.Client.Send(ctx, ws, out); err != nil {
		logger.Warn(ctx, "completion", "completion.send_failed",
			slog.String("workspace", ws.Name),
			slog.String("err", err.Error()),
		)
	}
}

func errorCodePrompt(service, emoji string) platform.Outgoing {
	return platform.Outgoing{
		Embed: &platform.Embed{
			Title:  fmt.Sprintf("%s %s Error Report", emoji, service),
			Body:   "What is the error code displayed? Reply with it in this channel (for example `001-1001`).",
			Footer: "Type the code exactly as shown on your console.",
		},
	}
}

func pretendoTopic() platform.Outgoing {
	return platform.Outgoing{
		Embed: &platform.Embed{
			Title: "🌐 Switching Between Pretendo and Nintendo Network",
			Body: "If you're using Pretendo and need to access Nintendo services:\n\n" +
				"**1.** Open the **Nimbus** app on your 3DS.\n" +
				"**2.** Select **Switch to Nintendo Network**.\n" +
				"**3.** Your console will reboot.\n" +
				"**4.** You can now access Nintendo services like the eShop.\n\n" +
				"To switch back to Pretendo, use Nimbus again and select **Switch to Pretendo**.",
			Footer: "You'll need to reboot each time you switch.",
		},
	}
}

func lotteryTopic() platform.Outgoing {
	return platform.Outgoing{
		Embed: &platform.Embed{
			Title: "🎉 What is a SOAP Lottery?",
			Body: "A **SOAP lottery** occurs when your SOAP transfer doesn't require a system transfer to complete.\n\n" +
				"**Normal SOAP:**\n" +
				"Most SOAP transfers require a system transfer from a donor console, which means you'll need to " +
				"wait **7 days** before you can do another system transfer from your old console to this one.\n\n" +
				"**SOAP Lottery:**\n" +
				"If you win the SOAP lottery, no system transfer was needed! This means:\n" +
				"• You can do a system transfer from another 3DS right away if you want\n" +
				"• No waiting period required\n" +
				"• Your SOAP transfer completed successfully without needing a donor console\n\n" +
				"You'll know if you won the lottery because the completion message will mention it!",
			Footer: "Winning the lottery is random and depends on your console's state.",
		},
	}
}

func waitTopic() platform.Outgoing {
	return platform.Outgoing{
		Embed: &platform.Embed{
			Title: "⏳ Do I Have to Wait 7 Days?",
			Body: "If you don't want to system transfer to or from another 3DS, you're free to use your newly SOAPed console as normal. If you do want to system transfer:\n\n" +
				"**After a normal SOAP transfer:**\n" +
				"If a system transfer was required for your SOAP, you must wait **7 days** before " +
				"you can do another system transfer from another 3DS to this console or vice versa.\n\n" +
				"**After a SOAP lottery:**\n" +
				"If you won the SOAP lottery, you can do a system transfer *right away* - no waiting required.\n\n" +
				"**To perform a system transfer:**\n" +
				"Use the System Transfer feature in System Settings -> Other Settings -> System Transfer. " +
				"Make sure both consoles are charged and connected to WiFi.",
			Footer: "Again, if you don't want to system transfer from your old console to this one, you're free to use your console as normal.",
		},
	}
}

type errorCodeInfo struct {
	Service     string
	Title       string
	Description string
	Steps       []string
}

// Known error codes surfaced after transfers. Codes not listed here
// fall through to a Soaper ping.
var errorCodes = map[string]errorCodeInfo{
	"001-0811": {
		Service:     "eShop",
		Title:       "eShop Service Unavailable",
		Description: "The eShop service is temporarily unavailable or under maintenance.",
		Steps: []string{
			"Wait a few minutes and try opening the eShop again",
			"Check your internet connection in System Settings",
			"If the error persists for more than an hour, let us know",
		},
	},
	"005-5964": {
		Service:     "eShop",
		Title:       "Account Banned from eShop",
		Description: "This error usually means the NNID linked to the console cannot access the eShop.",
		Steps: []string{
			"Open System Settings and check the linked Nintendo Network ID",
			"Unlink the NNID if it does not belong to this console",
			"Reboot and try the eShop again",
		},
	},
	"022-2452": {
		Service:     "eShop",
		Title:       "Region Mismatch",
		Description: "The console's region settings do not match the eShop region.",
		Steps: []string{
			"Go to System Settings -> Other Settings -> Profile -> Region Settings",
			"Make sure the country matches your SOAPed region",
			"Reboot and try the eShop again",
		},
	},
	"006-0502": {
		Service:     "Pokémon Bank",
		Title:       "Pokémon Bank Connection Error",
		Description: "Pokémon Bank could not reach its server.",
		Steps: []string{
			"Make sure the eShop itself works first",
			"Check that your system time and date are correct",
			"Try again after rebooting the console",
		},
	},
}
