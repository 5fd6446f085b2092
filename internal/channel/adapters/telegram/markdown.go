package telegram

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/AssetStation/asset-station-library/internal/channel/adapters/adapterutil"
)

const inlineCodePlaceholder = "\x00IC"

var (
	reInlineCode = regexp.MustCompile("`([^`\\n]+?)`")
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic     = regexp.MustCompile(`\*([^*\n]+?)\*`)
)

// toTelegramHTML converts the Discord-flavoured markdown of status replies
// (bold, italic, inline code) to Telegram HTML. Everything else is escaped.
func toTelegramHTML(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	// Inline code spans are protected from the other rewrites.
	var codes []string
	text = reInlineCode.ReplaceAllStringFunc(text, func(match string) string {
		idx := len(codes)
		codes = append(codes, reInlineCode.FindStringSubmatch(match)[1])
		return fmt.Sprintf("%s%d\x00", inlineCodePlaceholder, idx)
	})

	text = escapeHTML(text)
	// Bold must run before italic.
	text = reBold.ReplaceAllString(text, "<b>$1</b>")
	text = reItalic.ReplaceAllString(text, "<i>$1</i>")

	for i, code := range codes {
		placeholder := fmt.Sprintf("%s%d\x00", inlineCodePlaceholder, i)
		text = strings.Replace(text, placeholder, "<code>"+escapeHTML(code)+"</code>", 1)
	}
	return text
}

func escapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}

// fitHTML converts text and shortens the markdown source, in proportion to
// the overflow, until the HTML output is at most limit runes.
func fitHTML(text string, limit int) string {
	out := toTelegramHTML(text)
	for limit > 0 {
		size := utf8.RuneCountInString(out)
		if size <= limit {
			return out
		}
		n := utf8.RuneCountInString(text)
		keep := n * limit / size
		if keep >= n {
			keep = n - 1
		}
		if keep <= 0 {
			return ""
		}
		text = adapterutil.Truncate(text, keep)
		out = toTelegramHTML(text)
	}
	return out
}
