// Package texts holds the canned informational replies Soapers and
// helpers post into workspaces. Each entry is a static message; some
// ping the workspace owner before the text so the requester gets
// notified.
package texts

import (
	"strconv"

	"github.com/bluehax/soapbot/bot/platform"
	"github.com/bluehax/soapbot/bot/workspace"
	"github.com/bluehax/soapbot/core/telegram/commands"
)

// Entry is one canned command.
type Entry struct {
	Name    string
	Aliases []string
	Help    string
	MinRole commands.Role
	// WorkspaceOnly restricts the command to SOAP/NNID workspaces.
	WorkspaceOnly bool
	// PingOwner prepends the workspace owner's mention to the reply.
	PingOwner bool
	Message   platform.Outgoing
}

// Render finalizes the entry's message for a workspace: when PingOwner
// is set and the owner can be resolved from the topic, the mention is
// prepended as content.
func (e Entry) Render(ws *platform.Workspace, client platform.Client) platform.Outgoing {
	out := e.Message
	if !e.PingOwner || ws == nil {
		return out
	}
	raw, ok := workspace.OwnerID(ws.Topic)
	if !ok {
		return out
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return out
	}
	mention := client.Mention(id, "")
	if out.Content != "" {
		out.Content = mention + "\n\n" + out.Content
	} else {
		out.Content = mention
	}
	return out
}

// Catalog returns every canned command.
func Catalog() []Entry {
	return []Entry{
		{
			Name:          "soapnormal",
			Aliases:       []string{"normalsoap", "normal"},
			Help:          "Displays normal SOAP completion message",
			MinRole:       commands.RoleSoaper,
			WorkspaceOnly: true,
			PingOwner:     true,
			Message: platform.Outgoing{
				Content: "The SOAP Transfer has completed! Please boot up your console normally with the SD card inserted. " +
					"Then go to `System Settings -> Other Settings -> Profile -> Region Settings` and ensure the desired country is selected. " +
					"If using Pretendo, you must first open the Nimbus app and switch to Nintendo.\n\n" +
					"Then try opening the eShop.\n\n" +
					"A system transfer was required to do this SOAP. If you want to do a system transfer from your old console to this one, you must wait a week.\n\n" +
					"Please let us know if the eshop functions or not.",
			},
		},
		{
			Name:          "soaplottery",
			Aliases:       []string{"lotterysoap", "lottery"},
			Help:          "Displays \"lottery\" SOAP completion message",
			MinRole:       commands.RoleSoaper,
			WorkspaceOnly: true,
			PingOwner:     true,
			Message: platform.Outgoing{
				Content: "The SOAP Transfer has completed! Please boot up your console normally with the SD card inserted. " +
					"Then go to `System Settings -> Other Settings -> Profile -> Region Settings` and ensure the desired country is selected. " +
					"If using Pretendo, you must first open the Nimbus app and switch to Nintendo.\n\n" +
					"Then try opening the eShop.\n\n" +
					"You hit the SOAP lottery! No system transfer was needed for this SOAP. If you want to do a system transfer from your old console to this one, you can do it right away.\n\n" +
					"Please let us know if the eshop functions or not.",
			},
		},
		{
			Name:      "findserial",
			Aliases:   []string{"serial", "serialmismatch"},
			Help:      "Explains how to find a serial number in GM9",
			MinRole:   commands.RoleSoaper,
			PingOwner: true,
			Message: platform.Outgoing{
				Embed: &platform.Embed{
					Title: "📂 Finding Your Serial Number",
					Body: "Follow these instructions to find your console's serial number.\n\n" +
						"**To find your console's serial number:**\n" +
						"- Hold START while powering on your console. This will boot you into GodMode9.\n" +
						"- Go to `SYSNAND TWLNAND` -> `sys` -> `log` -> `inspect.log`\n" +
						"- Select `Open in Textviewer`.\n\n" +
						"The correct serial number (three-letter prefix followed by nine numbers) should be in the file.",
					Footer: "You may also send us a picture if you're unsure.",
				},
			},
		},
		{
			Name:          "soapwait",
			Aliases:       []string{"wait"},
			Help:          "Claiming a soap channel, for soapers",
			MinRole:       commands.RoleSoaper,
			WorkspaceOnly: true,
			Message: platform.Outgoing{
				Content: "🧼 the SOAP process has begun and will take up to 5 minutes. Please wait. 🧼",
			},
		},
		{
			Name:          "nodonors",
			Help:          "Lets Helpee know they need to wait for a bit.",
			MinRole:       commands.RoleSoaper,
			WorkspaceOnly: true,
			PingOwner:     true,
			Message: platform.Outgoing{
				Embed: &platform.Embed{
					Title: "⏳ Donors on Cooldown",
					Body: "All of our donors are currently on cooldown. You have been added to the queue, " +
						"and we'll get back to you as soon as possible.",
					Footer: "Thank you for your patience!",
				},
			},
		},
		{
			Name:    "removennid",
			Aliases: []string{"nnidremove"},
			Help:    "NNID Removal instructions",
			Message: platform.Outgoing{
				Embed: &platform.Embed{
					Title: "🔧 Removing Previous Nintendo Network ID",
					Body: "You'll need to remove the old Nintendo Network ID from your system. \n\nTo do so, follow these steps:\n" +
						"**1.** [Make a new NAND backup](https://3ds.hacks.guide/godmode9-usage.html#creating-a-nand-backup) and save it somewhere safe.\n" +
						"**2.** Use GodMode9 to [remove your NNID](https://3ds.hacks.guide/godmode9-usage.html#removing-an-nnid-without-formatting-your-console) " +
						"without having to format your console.",
					Footer: "If you need help with any of these steps, feel free to ask!",
				},
			},
		},
		{
			Name:    "hacksguide",
			Aliases: []string{"guide"},
			Help:    "Modding and 3DS help link",
			Message: platform.Outgoing{
				Embed: &platform.Embed{
					Title:  "📚 3DS Hacks Guide",
					Body:   "For modding help and 3DS support, please visit the 3DS Hacks Guide:\n\nhttps://3ds.hacks.guide/",
					Footer: "This guide contains comprehensive instructions for modding your 3DS console.",
				},
			},
		},
		{
			Name: "regionchange",
			Help: "Directions on performing a region change on a 3DS console",
			Message: platform.Outgoing{
				Embed: &platform.Embed{
					Title:  "🌍 Region Changing Guide",
					Body:   "Learn how to perform a region change on your 3DS console:\n\nhttps://3ds.hacks.guide/region-changing.html",
					Footer: "Follow the guide carefully to change your console's region.",
				},
			},
		},
		{
			Name:    "nandbackup",
			Aliases: []string{"backupnand"},
			Help:    "Directions on creating a nand backup",
			Message: platform.Outgoing{
				Embed: &platform.Embed{
					Title:  "💾 Creating a NAND Backup",
					Body:   "Learn how to create a NAND backup using GodMode9:\n\nhttps://3ds.hacks.guide/godmode9-usage.html#creating-a-nand-backup",
					Footer: "Always create a NAND backup before making significant changes to your console.",
				},
			},
		},
		{
			Name: "cleaninty",
			Help: "Sends link to cleaninty article",
			Message: platform.Outgoing{
				Embed: &platform.Embed{
					Title:  "🧼 SOAP Transfers Overview",
					Body:   "Learn about how SOAP Transfers work:\n\nhttps://wiki.hacks.guide/wiki/3DS:Cleaninty",
					Footer: "This article provides an overview of the SOAP transfer process.",
				},
			},
		},
		{
			Name: "newsd",
			Help: "New SD guide",
			Message: platform.Outgoing{
				Content: "How to restore CFW on a new SD card:\n\nhttps://3ds.hacks.guide/restoring-updating-cfw.html",
			},
		},
		{
			Name:    "formatsd",
			Aliases: []string{"format", "sdformat"},
			Help:    "SD formatting guide",
			Message: platform.Outgoing{
				Embed: &platform.Embed{
					Title:  "💾 Formatting SD Card for 3DS",
					Body:   "Learn how to format an SD card correctly for your 3DS console:\n\nhttps://3ds.hacks.guide/formatting-sd-(windows).html",
					Footer: "Proper formatting ensures your SD card works correctly with your 3DS.",
				},
			},
		},
		{
			Name: "donors",
			Help: "How to donate consoles for SOAPs",
			Message: platform.Outgoing{
				Embed: &platform.Embed{
					Title: "🎁 Donating Consoles for SOAPs",
					Body: "**Ideal donor consoles should:**\n" +
						"• Be in a state where they won't be used anymore (won't turn on, bad screens, bad RAM, etc.), or\n" +
						"• Have a bad WiFi card, or\n" +
						"• Have had the eShop apps (`tiger`, `mint`) deleted off the NAND so it can't connect to the eShop\n\n" +
						"⚠️ **Note:** Connecting a console to the eShop while it is also being used as a donor is known to cause various issues.\n\n" +
						"**To donate a console for SOAPs, we need either:**\n" +
						"• `essential.exefs` + serial, or\n" +
						"• secinfo + OTP + serial\n\n" +
						"You can send this information to any Staff or Soaper. Thank you for your contribution! 🙏",
					Footer: "Donor consoles help make SOAP transfers possible for others.",
				},
			},
		},
	}
}
