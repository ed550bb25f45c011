package workspace

import "github.com/bluehax/soapbot/bot/platform"

func welcomeFor(kind Kind) platform.Outgoing {
	if kind == KindNNID {
		return nnidWelcome()
	}
	return soapWelcome()
}

func soapWelcome() platform.Outgoing {
	return platform.Outgoing{
		Embed: &platform.Embed{
			Title: "🧼 Welcome to Your SOAP Channel!",
			Body: "This is where we'll perform your SOAP transfer. Please follow the instructions below.\n\n" +
				"**📋 Step-by-Step Instructions**\n" +
				"1. Ensure your SD card is in your console\n" +
				"2. Hold **START** while powering on → this will boot you into GodMode9\n" +
				"3. Navigate to `SysNAND Virtual`\n" +
				"4. Select `essential.exefs`\n" +
				"5. Select `Copy to 0:/gm9/out` (select Overwrite field(s) if prompted)\n" +
				"6. Power off your console\n" +
				"7. Insert your SD card into your PC or connect to your console via FTPD\n" +
				"8. Navigate to `/gm9/out/`, where essential.exefs should be located\n" +
				"9. Upload the `essential.exefs` file and provide your serial number below\n" +
				"10. Please wait for a Soaper to assist you",
		},
	}
}

func nnidWelcome() platform.Outgoing {
	return platform.Outgoing{
		Embed: &platform.Embed{
			Title: "🔄 Welcome to your NNID Channel!",
			Body: "This is where we'll perform your NNID transfer. To get started, please follow the instructions below:\n\n" +
				"**📋 Step-by-Step Instructions**\n" +
				"1. Ensure your SD card is in your target console (the console you want to transfer to)\n" +
				"2. Hold START while powering on the console. This should boot you into GodMode9.\n" +
				"   - If you reach the Luma3DS chainloader, select GodMode9 to continue (the red text is the selected option)\n" +
				"   - If you reach the HOME menu or GodMode9 is not listed in the chainloader, GodMode9 is not installed. Please redo [Finalizing Setup](https://3ds.hacks.guide/finalizing-setup)\n" +
				"3. Navigate to `[S:] SYSNAND Virtual` → `essential.exefs` → `Copy to 0:/gm9/out` (select `Overwrite file(s)` if prompted)\n" +
				"4. Power off your console\n" +
				"5. Insert your SD card into your PC or connect to your console via FTPD\n" +
				"6. Navigate to `/gm9/out/`, where `essential.exefs` should be located\n" +
				"7. Rename the `essential.exefs` file to `TARGET_essential.exefs` and upload it to this channel\n" +
				"8. Provide your source console's serial number below if possible\n" +
				"9. Provide your target console's serial number below\n" +
				"10. Locate your previous console's `essential.exefs`\n" +
				"    - If you only have a NAND backup or a `SecureInfo_A` or `SecureInfo_B` file with an OTP file, let us know and we will provide further instructions.\n" +
				"    - If you cannot find an essential.exefs, NAND backup, or SecureInfo file with an OTP file, we unfortunately cannot perform the NNID transfer. Please try your best to find one of these files, let us know if you need help.\n" +
				"11. Rename the file to `SOURCE_essential.exefs` and upload it to this channel\n" +
				"12. Please wait for someone to assist you",
		},
	}
}

func afterHoursNotice() platform.Outgoing {
	return platform.Outgoing{
		Embed: &platform.Embed{
			Title:  "🌕 After Hours Notice",
			Body:   "It's currently late at night in North America, so most of our Soapers are offline. Response times may be slower than usual. Please follow the instructions above and we'll assist you as soon as possible.",
			Footer: "Thank you for your patience!",
		},
	}
}
