package report

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
	codeRe   = regexp.MustCompile("`([^`]+)`")
	orderedRe = regexp.MustCompile(`^\d+\.\s+(.*)$`)
)

// markdownToHTML converts the subset of markdown agents actually
// produce: headings, bulleted and numbered lists, fenced code blocks
// and bold/italic/inline-code spans. Anything else passes through as a
// paragraph.
func markdownToHTML(text string) string {
	var sb strings.Builder
	lines := strings.Split(text, "\n")

	inFence := false
	listTag := ""

	closeList := func() {
		if listTag != "" {
			fmt.Fprintf(&sb, "</%s>\n", listTag)
			listTag = ""
		}
	}
	openList := func(tag string) {
		if listTag != tag {
			closeList()
			fmt.Fprintf(&sb, "<%s>\n", tag)
			listTag = tag
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				sb.WriteString("</code></pre>\n")
			} else {
				closeList()
				sb.WriteString("<pre><code>")
			}
			inFence = !inFence
			continue
		}
		if inFence {
			sb.WriteString(html.EscapeString(line))
			sb.WriteByte('\n')
			continue
		}

		switch {
		case trimmed == "":
			closeList()
		case strings.HasPrefix(trimmed, "#"):
			closeList()
			level := 0
			for level < len(trimmed) && trimmed[level] == '#' && level < 6 {
				level++
			}
			content := strings.TrimSpace(trimmed[level:])
			fmt.Fprintf(&sb, "<h%d>%s</h%d>\n", level, spans(content), level)
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			openList("ul")
			fmt.Fprintf(&sb, "<li>%s</li>\n", spans(trimmed[2:]))
		case orderedRe.MatchString(trimmed):
			openList("ol")
			m := orderedRe.FindStringSubmatch(trimmed)
			fmt.Fprintf(&sb, "<li>%s</li>\n", spans(m[1]))
		default:
			closeList()
			fmt.Fprintf(&sb, "<p>%s</p>\n", spans(trimmed))
		}
	}
	if inFence {
		sb.WriteString("</code></pre>\n")
	}
	closeList()
	return sb.String()
}

// spans escapes a line and applies inline markup. Inline code wins over
// bold and italic inside its span because it is substituted first.
func spans(text string) string {
	escaped := html.EscapeString(text)
	escaped = codeRe.ReplaceAllString(escaped, "<code>$1</code>")
	escaped = boldRe.ReplaceAllString(escaped, "<strong>$1</strong>")
	escaped = italicRe.ReplaceAllString(escaped, "<em>$1</em>")
	return escaped
}
