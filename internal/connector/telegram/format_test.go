package telegram

import (
	"strings"
	"testing"
)

func TestInlineFormatting(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bold", "Task **buy milk** is due", "<b>buy milk</b>"},
		{"italic", "Meeting at *noon* today", "<i>noon</i>"},
		{"inline code", "Run `daykeeperd --config`", "<code>daykeeperd --config</code>"},
		{"link", "See [your calendar](https://calendar.google.com)", `<a href="https://calendar.google.com">your calendar</a>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkdownToTelegramHTML(tt.input)
			if !strings.Contains(got, tt.want) {
				t.Errorf("expected %q in %q", tt.want, got)
			}
		})
	}
}

func TestBoldBeforeItalic(t *testing.T) {
	got := MarkdownToTelegramHTML("**bold** and *italic*")
	if !strings.Contains(got, "<b>bold</b>") || !strings.Contains(got, "<i>italic</i>") {
		t.Errorf("expected both emphases, got %q", got)
	}
}

func TestCodeBlockWithLanguage(t *testing.T) {
	md := "```go\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n```"
	got := MarkdownToTelegramHTML(md)
	if !strings.Contains(got, `<pre><code class="language-go">`) {
		t.Errorf("expected language class, got %q", got)
	}
	if !strings.Contains(got, "</code></pre>") {
		t.Errorf("expected closing tags, got %q", got)
	}
}

func TestCodeBlockNoLanguage(t *testing.T) {
	got := MarkdownToTelegramHTML("```\nhello\n```")
	if !strings.Contains(got, "<pre><code>hello</code></pre>") {
		t.Errorf("expected bare pre/code, got %q", got)
	}
}

func TestHTMLEscaping(t *testing.T) {
	got := MarkdownToTelegramHTML("Use <script> & tags")
	if strings.Contains(got, "<script>") {
		t.Errorf("expected HTML escaped, got %q", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") || !strings.Contains(got, "&amp;") {
		t.Errorf("expected escaped entities, got %q", got)
	}
}

func TestCodeBlockContentEscaped(t *testing.T) {
	got := MarkdownToTelegramHTML("```html\n<div>test</div>\n```")
	if strings.Contains(got, "<div>") {
		t.Errorf("expected escaped code content, got %q", got)
	}
	if !strings.Contains(got, "&lt;div&gt;") {
		t.Errorf("expected escaped HTML in code block, got %q", got)
	}
}

func TestEmphasisInsideInlineCodeSurvives(t *testing.T) {
	got := MarkdownToTelegramHTML("literal `*stars*` here")
	if !strings.Contains(got, "<code>*stars*</code>") {
		t.Errorf("emphasis inside code must not be rewritten, got %q", got)
	}
}

func TestPlainTextUnchanged(t *testing.T) {
	input := "Just plain text, nothing special."
	if got := MarkdownToTelegramHTML(input); got != input {
		t.Errorf("expected unchanged text, got %q", got)
	}
}

func TestStripMarkdown(t *testing.T) {
	md := "**bold** and *italic* with `code` and [link](https://example.com)"
	got := StripMarkdown(md)
	if strings.ContainsAny(got, "*`[") {
		t.Errorf("expected stripped markdown, got %q", got)
	}
	if !strings.Contains(got, "link (https://example.com)") {
		t.Errorf("expected link converted, got %q", got)
	}
}

func TestStripMarkdownCodeBlock(t *testing.T) {
	got := StripMarkdown("before\n```go\ncode here\n```\nafter")
	if strings.Contains(got, "```") || strings.Contains(got, "go\n") {
		t.Errorf("expected fence and language removed, got %q", got)
	}
	if !strings.Contains(got, "code here") {
		t.Errorf("expected code body preserved, got %q", got)
	}
}
