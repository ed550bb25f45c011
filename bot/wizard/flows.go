package wizard

import (
	"github.com/bluehax/soapbot/bot/platform"
	"github.com/bluehax/soapbot/bot/workspace"
)

// Step ids shared by both flows.
const (
	StepFiles    = "files"
	StepAccess   = "access"
	StepFirmware = "firmware"
)

// Choice values shared by both flows.
const (
	ChoiceYes    = "yes"
	ChoiceNo     = "no"
	ChoiceUnsure = "unsure"
)

func soapFlow() *Flow {
	files := &Step{
		ID:    StepFiles,
		Title: "Pre-SOAP Check",
		Prompt: "Let's ensure your console is ready to be SOAPed.\n\n" +
			"**Question 1 of 3**\n" +
			"Can you get the `essential.exefs` file off your console?",
		Choices: []Choice{
			{Label: "✅ Yes, I can get files off my console", Value: ChoiceYes},
			{Label: "❌ No, I can't get files off my console", Value: ChoiceNo},
			{Label: "❓ I'm not sure", Value: ChoiceUnsure},
		},
		Answer: func(choice string) Transition {
			switch choice {
			case ChoiceNo:
				return reject("🔒 Unable to Request SOAP",
					"We need the `essential.exefs` file from your console to perform a SOAP transfer.\n\n"+
						"Please make sure you can access your SD card (directly or via FTPD) before requesting.")
			case ChoiceUnsure:
				return unsure("❓ How to Get Your Files",
					"The `essential.exefs` file is dumped with GodMode9:\n"+
						"• Hold START while powering on your console to boot GodMode9\n"+
						"• Navigate to `SysNAND Virtual` → `essential.exefs` → `Copy to 0:/gm9/out`\n"+
						"• The file ends up in `/gm9/out/` on your SD card\n\n"+
						"If GodMode9 is not installed, redo https://3ds.hacks.guide/finalizing-setup")
			default:
				return next(StepAccess)
			}
		},
	}

	access := &Step{
		ID:    StepAccess,
		Title: "Pre-SOAP Check",
		Prompt: "Great, one more thing to check:\n\n" +
			"**Question 2 of 3**\n" +
			"Is your console region-changed?",
		Choices: []Choice{
			{Label: "✅ Yes, it's region-changed", Value: ChoiceYes},
			{Label: "❌ No, it's not region-changed", Value: ChoiceNo},
			{Label: "❓ I'm not sure", Value: ChoiceUnsure},
		},
		Answer: func(choice string) Transition {
			switch choice {
			case ChoiceNo:
				return reject("🔒 Unable to Request SOAP",
					"Your console must be region-changed to use SOAP.\n\n"+
						"Please region-change your console first:\n"+
						"https://3ds.hacks.guide/region-changing.html")
			case ChoiceUnsure:
				return unsure("❓ How to Check Region Change",
					"To check if your console is region-changed:\n"+
						"• Go to System Settings\n"+
						"• Check if your region settings match a different region than original\n"+
						"• If your console was originally from one region (e.g., JPN) but now shows another (e.g., USA), it's region-changed\n\n"+
						"Need to region change? Visit https://3ds.hacks.guide/region-changing.html")
			default:
				return next(StepFirmware)
			}
		},
	}

	firmware := &Step{
		ID:    StepFirmware,
		Title: "Pre-SOAP Check",
		Prompt: "Great, one more thing to check:\n\n" +
			"**Question 3 of 3**\n" +
			"Is your console on custom firmware (CFW)?",
		Choices: []Choice{
			{Label: "✅ Yes, my console is modded", Value: ChoiceYes},
			{Label: "❌ No, my console is not modded", Value: ChoiceNo},
			{Label: "❓ I'm not sure", Value: ChoiceUnsure},
		},
		Answer: func(choice string) Transition {
			switch choice {
			case ChoiceNo:
				return reject("🔒 Unable to Request SOAP",
					"Your console must be on custom firmware to receive a SOAP transfer.\n\n"+
						"Please visit the guide below to mod your console:\n"+
						"https://3ds.hacks.guide/")
			case ChoiceUnsure:
				return unsure("❓ How to Check for CFW", cfwCheckSteps)
			default:
				return Transition{Kind: KindAccept}
			}
		},
	}

	return newFlow(workspace.KindSoap, StepFiles, files, access, firmware)
}

func nnidFlow() *Flow {
	files := &Step{
		ID:    StepFiles,
		Title: "Pre-NNID Transfer Check",
		Prompt: "Let's ensure you have everything ready for your NNID transfer.\n\n" +
			"**Question 1 of 3**\n" +
			"Do you have one of the required files (`essential.exefs`, a NAND backup, or `OTP.bin`) from your *source console*?",
		Choices: []Choice{
			{Label: "✅ Yes, I have one of the three files listed above", Value: ChoiceYes},
			{Label: "❌ No, I don't have any files", Value: ChoiceNo},
			{Label: "❓ I'm not sure", Value: ChoiceUnsure},
		},
		Answer: func(choice string) Transition {
			switch choice {
			case ChoiceNo:
				return reject("🔒 Unable to Request NNID Transfer",
					"We need to have one of the following files **from your source console** to perform a transfer.\n\n"+
						"- `essential.exefs`\n"+
						"- a NAND backup\n"+
						"- `OTP.bin`\n\n"+
						"Please locate one of these files from your previous console before requesting.")
			case ChoiceUnsure:
				return unsure("❓ What Files Do I Need?",
					"To perform a transfer, you need one of the following files **from your source console** "+
						"(the console you originally had the NNID on). You were asked to back up your NAND when you "+
						"originally modded your console, look at all of your backups to see if you can find one of these files.\n\n"+
						"You must have one of the following files from your source console:\n"+
						"- `essential.exefs`\n"+
						"- a NAND backup\n"+
						"- `OTP.bin`")
			default:
				return next(StepAccess)
			}
		},
	}

	access := &Step{
		ID:    StepAccess,
		Title: "Pre-NNID Transfer Check",
		Prompt: "Great, one more thing to check:\n\n" +
			"**Question 2 of 3**\n" +
			"Do either of the following apply to you?\n" +
			"• Your **source console** (the console where your NNID currently is) is broken or inaccessible\n" +
			"• Your source console is a New 3DS/2DS and you want to transfer to an Old 3DS/2DS",
		Choices: []Choice{
			{Label: "✅ My source console is broken/inaccessible", Value: "broken"},
			{Label: "✅ I'm transferring from a New 3DS/2DS to an Old 3DS/2DS", Value: "new_to_old"},
			{Label: "❌ No, neither applies to me", Value: ChoiceNo},
			{Label: "❓ I'm not sure", Value: ChoiceUnsure},
		},
		Answer: func(choice string) Transition {
			switch choice {
			case "broken", "new_to_old":
				return next(StepFirmware)
			case ChoiceNo:
				return reject("🔒 Unable to Request NNID Transfer",
					"For safety reasons, we only perform NNID transfers if:\n"+
						"• Your source console is broken or inaccessible, OR\n"+
						"• You're transferring from a New 3DS/2DS to an Old 3DS/2DS\n\n"+
						"If your source console still works and you're not doing a New 3DS/2DS to Old 3DS/2DS transfer, "+
						"you can perform a **system transfer** directly on your console to transfer your NNID. "+
						"This is the official method and doesn't require our assistance.\n\n"+
						"**To perform a system transfer:**\n"+
						"1. Go to System Settings -> Other Settings on both consoles\n"+
						"2. Select 'System Transfer'\n"+
						"3. Follow the on-screen instructions")
			default:
				return unsure("❓ What Applies to Me?",
					"We can help with NNID transfers if either of the following applies:\n\n"+
						"**Broken or Inaccessible Console**\n"+
						"Your source console is considered broken or inaccessible if:\n"+
						"• Won't power on\n"+
						"• Has a broken screen\n"+
						"• Has hardware damage preventing normal use\n"+
						"• Has a brick (software issue preventing boot)\n"+
						"• Lost or stolen\n"+
						"• Sold or given away\n"+
						"• No longer in your possession\n\n"+
						"**New 3DS/2DS to Old 3DS/2DS Transfer**\n"+
						"If your source console is a New 3DS or New 2DS and you want to transfer to an Old 3DS or Old 2DS, we can help with that transfer.\n\n"+
						"**Neither Applies?**\n"+
						"If your console still works normally and you're not doing a New 3DS/2DS to Old 3DS/2DS transfer, "+
						"you should perform a **system transfer** instead. This is the official method and doesn't require our assistance.")
			}
		},
	}

	firmware := &Step{
		ID:    StepFirmware,
		Title: "Pre-NNID Transfer Check",
		Prompt: "Great, one more thing to check:\n\n" +
			"**Question 3 of 3**\n" +
			"Is your **target console** (the console you want to transfer to) on custom firmware?",
		Choices: []Choice{
			{Label: "✅ Yes, my target console is on custom firmware", Value: ChoiceYes},
			{Label: "❌ No, my target console is not on custom firmware", Value: ChoiceNo},
			{Label: "❓ I'm not sure", Value: ChoiceUnsure},
		},
		Answer: func(choice string) Transition {
			switch choice {
			case ChoiceNo:
				return reject("🔒 Unable to Request NNID Transfer",
					"Your target console must be on custom firmware to receive a NNID transfer.\n\n"+
						"Please visit the guide below to mod your console:\n"+
						"https://3ds.hacks.guide/")
			case ChoiceUnsure:
				return unsure("❓ How to Check for CFW", cfwCheckSteps)
			default:
				return Transition{Kind: KindAccept}
			}
		},
	}

	return newFlow(workspace.KindNNID, StepFiles, files, access, firmware)
}

const cfwCheckSteps = "Follow these steps to check if your 3DS is modded:\n" +
	"• Hold SELECT while powering on your console\n" +
	"• If the Luma3DS configuration menu appears, you have CFW\n" +
	"• If it boots normally, you don't have CFW installed\n\n" +
	"No CFW? Visit https://3ds.hacks.guide/ to mod your console"

func next(id string) Transition {
	return Transition{Kind: KindNext, NextID: id}
}

func reject(title, body string) Transition {
	return Transition{
		Kind:    KindReject,
		Message: platform.Outgoing{Embed: &platform.Embed{Title: title, Body: body}},
	}
}

func unsure(title, body string) Transition {
	return Transition{
		Kind:    KindUnsure,
		Message: platform.Outgoing{Embed: &platform.Embed{Title: title, Body: body}},
	}
}

// EntryUnique is the callback namespace for the request-channel start
// buttons; data carries the job type.
const EntryUnique = "request"

// RequestMessage renders the persistent request embed posted in a
// request channel, with the start button attached.
func RequestMessage(job workspace.Kind) platform.Outgoing {
	if job == workspace.KindNNID {
		return platform.Outgoing{
			Embed: &platform.Embed{
				Title: "🔄 NNID Transfer Request",
				Body: "This is where you can request a NNID Transfer, which allows you to transfer your Nintendo Network ID from one console to another console.\n\n" +
					"**Before requesting:**\n" +
					"- Ensure you have one of the following files from your *source console* (where the NNID currently is):\n" +
					"  - `essential.exefs`\n" +
					"  - NAND backup\n" +
					"  - `OTP.bin`\n" +
					"- Be ready to get files off your *target console* (where you want to transfer to)\n" +
					"- Have both the serial numbers of your source and target consoles ready",
				Footer: "Click the button below to request a NNID transfer.",
			},
			Buttons: [][]platform.Button{{{
				Label:  "🔄 Request NNID Transfer",
				Unique: EntryUnique,
				Data:   string(workspace.KindNNID),
			}}},
		}
	}
	return platform.Outgoing{
		Embed: &platform.Embed{
			Title: "🧼 SOAP Request",
			Body: "SOAP Transfers allow region-changed consoles to access the eShop, Pokemon Bank, and more. This channel is where you can request one!\n\n" +
				"**Before requesting:**\n" +
				"• Ensure your 3DS is modded and region-changed\n" +
				"• Have your serial number ready\n" +
				"• Be ready to get files off your console",
			Footer: "Click the button below to request a SOAP transfer.",
		},
		Buttons: [][]platform.Button{{{
			Label:  "🧼 Request SOAP",
			Unique: EntryUnique,
			Data:   string(workspace.KindSoap),
		}}},
	}
}
