package conv

import (
	"strings"
	"testing"
)

func TestMarkdownToTelegramHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text",
			input:    "好的，已经记下了。",
			expected: "好的，已经记下了。\n",
		},
		{
			name:     "bold text",
			input:    "**重要**",
			expected: "<strong>重要</strong>\n",
		},
		{
			name:     "inline code",
			input:    "`memobot`",
			expected: "<code>memobot</code>\n",
		},
		{
			name:     "blockquote",
			input:    "> 周五下午3点开会",
			expected: "<blockquote>\n周五下午3点开会\n</blockquote>\n",
		},
		{
			name:     "header tags stripped",
			input:    "# 记忆",
			expected: "记忆\n",
		},
		{
			name:     "script tags sanitized",
			input:    "<script>alert('xss')</script>",
			expected: "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkdownToTelegramHTML([]byte(tt.input))
			if got != tt.expected {
				t.Errorf("MarkdownToTelegramHTML(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMarkdownLinkKeepsHrefOnly(t *testing.T) {
	got := MarkdownToTelegramHTML([]byte("[链接](https://example.com)"))
	if !strings.Contains(got, `<a href="https://example.com">链接</a>`) {
		t.Errorf("link rendered as %q", got)
	}
	if strings.Contains(got, "target=") {
		t.Errorf("target attribute survived sanitization: %q", got)
	}
}
