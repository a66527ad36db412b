package notestock

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

var (
	newlineRuns = regexp.MustCompile(`[\r\n]+`)
	spaceRuns   = regexp.MustCompile(`[ 　]+`)
)

// quoteLinePrefix marks an inline quote of another post.
const quoteLinePrefix = "RE:"

// htmlToLines converts post markup into trimmed, non-empty text lines.
// Links, code, preformatted blocks and block quotes are dropped with their
// content, and lines quoting another post are skipped.
func htmlToLines(content string) []string {
	text := norm.NFC.String(htmlToText(content))
	text = newlineRuns.ReplaceAllString(text, "\n")
	text = spaceRuns.ReplaceAllString(text, " ")

	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, quoteLinePrefix) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// htmlToText renders the text content of an HTML fragment. Line breaks and
// block elements become newlines.
func htmlToText(content string) string {
	nodes, err := html.ParseFragment(strings.NewReader(content), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		// The tokenizer only fails on reader errors, which a strings.Reader never returns.
		return ""
	}

	var sb strings.Builder
	for _, n := range nodes {
		writeText(&sb, n)
	}
	return sb.String()
}

func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.A, atom.Pre, atom.Code, atom.Blockquote, atom.Script, atom.Style:
			return
		case atom.Br:
			sb.WriteByte('\n')
			return
		}
	}

	block := n.Type == html.ElementNode && isBlock(n.DataAtom)
	if block {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
	if block {
		sb.WriteByte('\n')
	}
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.Ul, atom.Ol, atom.H1, atom.H2, atom.H3,
		atom.H4, atom.H5, atom.H6, atom.Hr, atom.Tr, atom.Table:
		return true
	}
	return false
}
