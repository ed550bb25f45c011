package format

import "regexp"

var (
	mdV1Specials = regexp.MustCompile("([_*\\[`])")
	mdV2Specials = regexp.MustCompile(`([_*\[\]()~` + "`" + `>#+\-=|{}.!])`)
)

// EscapeV1 escapes special characters for Telegram Markdown (version 1).
func EscapeV1(text string) string {
	return mdV1Specials.ReplaceAllString(text, `\$1`)
}

// EscapeV2 escapes special characters for Telegram MarkdownV2.
func EscapeV2(text string) string {
	return mdV2Specials.ReplaceAllString(text, `\$1`)
}
