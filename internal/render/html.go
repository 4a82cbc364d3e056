// Package render turns judge data into terminal text.
package render

import (
	"strings"

	xhtml "golang.org/x/net/html"
)

const codeIndent = "    "

// Markers written around inline elements.
var inlineMarks = map[string]string{
	"i":      "*",
	"em":     "*",
	"b":      "**",
	"strong": "**",
}

// Elements that start a new paragraph.
var blockTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "ul": true, "ol": true,
}

// statementWriter accumulates the plain-text form of a statement.
type statementWriter struct {
	sb        strings.Builder
	pre       int
	href      string
	linkStart int
}

func (w *statementWriter) open(t xhtml.Token) {
	if mark, ok := inlineMarks[t.Data]; ok {
		w.sb.WriteString(mark)
		return
	}
	switch {
	case blockTags[t.Data]:
		if w.sb.Len() > 0 {
			w.sb.WriteString("\n\n")
		}
	case t.Data == "br":
		w.sb.WriteByte('\n')
	case t.Data == "li":
		w.sb.WriteString("\n  - ")
	case t.Data == "pre":
		w.pre++
		w.sb.WriteByte('\n')
	case t.Data == "code" && w.pre == 0:
		w.sb.WriteByte('`')
	case t.Data == "a":
		w.href, w.linkStart = "", w.sb.Len()
		for _, attr := range t.Attr {
			if attr.Key == "href" {
				w.href = attr.Val
			}
		}
	}
}

func (w *statementWriter) close(t xhtml.Token) {
	if mark, ok := inlineMarks[t.Data]; ok {
		w.sb.WriteString(mark)
		return
	}
	switch {
	case t.Data == "pre" && w.pre > 0:
		w.pre--
		w.sb.WriteByte('\n')
	case t.Data == "code" && w.pre == 0:
		w.sb.WriteByte('`')
	case t.Data == "a":
		label := strings.TrimSpace(w.sb.String()[w.linkStart:])
		if w.href != "" && label != w.href {
			w.sb.WriteString(" [" + w.href + "]")
		}
		w.href = ""
	}
}

func (w *statementWriter) text(s string) {
	if w.pre == 0 {
		w.sb.WriteString(s)
		return
	}
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			w.sb.WriteByte('\n')
		}
		if line != "" {
			w.sb.WriteString(codeIndent + line)
		}
	}
}

// StatementToText converts a problem statement to wrapped plain text.
// Statements are plain text or light HTML: paragraphs, line breaks, lists,
// headings, emphasis, inline code, preformatted blocks and links.
func StatementToText(raw string, width int) string {
	if raw == "" {
		return ""
	}

	var w statementWriter
	z := xhtml.NewTokenizer(strings.NewReader(raw))
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return wrapText(strings.TrimRight(strings.TrimLeft(w.sb.String(), "\n"), " \t\n"), width)
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			w.open(z.Token())
		case xhtml.EndTagToken:
			w.close(z.Token())
		case xhtml.TextToken:
			w.text(z.Token().Data)
		}
	}
}

// Block indents preformatted text such as sample input so it renders verbatim.
func Block(text string) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return codeIndent + "(empty)"
	}
	return codeIndent + strings.ReplaceAll(text, "\n", "\n"+codeIndent)
}

// wrapText word-wraps each line of text to width. Code lines are kept as is
// and list items wrap under their first word.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, codeIndent):
			out = append(out, line)
		case strings.HasPrefix(line, "  - "):
			out = append(out, wrapWords(strings.Fields(line[4:]), width, "  - ", codeIndent)...)
		default:
			out = append(out, wrapWords(strings.Fields(line), width, "", "")...)
		}
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}

// wrapWords fills lines up to width, starting the first with lead and the
// rest with hang.
func wrapWords(words []string, width int, lead, hang string) []string {
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	cur := lead + words[0]
	for _, word := range words[1:] {
		if len(cur)+1+len(word) > width {
			lines = append(lines, cur)
			cur = hang + word
			continue
		}
		cur += " " + word
	}
	return append(lines, cur)
}
