package telegram

import (
	"fmt"
	"regexp"
	"strings"
)

// MarkdownToTelegramHTML converts standard Markdown to Telegram's HTML
// subset. Code fences become <pre><code> blocks; inline formatting becomes
// the matching HTML tags; everything else is HTML-escaped.
func MarkdownToTelegramHTML(md string) string {
	segments := strings.Split(md, "```")
	var out strings.Builder

	for i, seg := range segments {
		if i%2 == 0 {
			// Prose segment: inline formatting applies.
			out.WriteString(renderProse(seg))
			continue
		}
		// Code segment: the first line may name a language.
		lang, body := splitFence(seg)
		if lang != "" {
			fmt.Fprintf(&out, `<pre><code class="language-%s">`, escapeHTML(lang))
		} else {
			out.WriteString("<pre><code>")
		}
		out.WriteString(escapeHTML(body))
		out.WriteString("</code></pre>")
	}
	return out.String()
}

// splitFence separates the language tag on a fence's opening line from the
// code body.
func splitFence(seg string) (lang, body string) {
	nl := strings.Index(seg, "\n")
	if nl < 0 {
		return "", seg
	}
	lang = strings.TrimSpace(seg[:nl])
	body = strings.TrimSuffix(seg[nl+1:], "\n")
	return lang, body
}

var (
	// Inline code is protected before any other rewriting.
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic     = regexp.MustCompile(`\*(.+?)\*`)
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

func renderProse(text string) string {
	// Pull inline code spans out so emphasis markers inside them survive.
	var spans []string
	text = reInlineCode.ReplaceAllStringFunc(text, func(match string) string {
		inner := reInlineCode.FindStringSubmatch(match)[1]
		spans = append(spans, "<code>"+escapeHTML(inner)+"</code>")
		return fmt.Sprintf("\x00%d\x00", len(spans)-1)
	})

	text = escapeHTML(text)

	// Bold before italic: ** must win over *.
	text = reBold.ReplaceAllString(text, "<b>$1</b>")
	text = reItalic.ReplaceAllString(text, "<i>$1</i>")
	text = reLink.ReplaceAllString(text, `<a href="$2">$1</a>`)

	for i, span := range spans {
		text = strings.Replace(text, fmt.Sprintf("\x00%d\x00", i), span, 1)
	}
	return text
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// StripMarkdown removes all Markdown formatting, returning plain text. Used
// as the fallback when Telegram rejects the HTML rendering.
func StripMarkdown(md string) string {
	segments := strings.Split(md, "```")
	var out strings.Builder

	for i, seg := range segments {
		if i%2 == 1 {
			_, body := splitFence(seg)
			out.WriteString(body)
			continue
		}
		text := reInlineCode.ReplaceAllString(seg, "$1")
		text = reBold.ReplaceAllString(text, "$1")
		text = reItalic.ReplaceAllString(text, "$1")
		text = reLink.ReplaceAllString(text, "$1 ($2)")
		out.WriteString(text)
	}
	return out.String()
}
