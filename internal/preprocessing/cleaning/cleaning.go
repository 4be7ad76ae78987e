// Package cleaning turns scraped HTML into plain text before it is parsed
// into graphs.
package cleaning

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/fairgraph/internal/fsutil"
)

var (
	blankLineRe  = regexp.MustCompile(`\n[ \t]+\n`)
	manyLinesRe  = regexp.MustCompile(`\n{3,}`)
	styleElemRe  = regexp.MustCompile(`(?i)<style[^>]*>[\s\S]*?</style>`)
	stylesheetRe = regexp.MustCompile(`(?i)<link[^>]*rel=["']stylesheet["'][^>]*>`)
	styleAttrDQ  = regexp.MustCompile(`(?i)\sstyle\s*=\s*"[^"]*"`)
	styleAttrSQ  = regexp.MustCompile(`(?i)\sstyle\s*=\s*'[^']*'`)
	cssBlockRe   = regexp.MustCompile(`[^{};\n]+\{[^{}]*\}`)
	trailingWSRe = regexp.MustCompile(`[ \t]+\n`)
	blankRunRe   = regexp.MustCompile(`\n\s*\n+`)
)

// StripHTML drops every tag and the body of <script> elements and keeps the
// remaining text as written, entities included. Line endings are normalised
// and runs of blank lines collapse to one.
func StripHTML(doc string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(doc))
	inScript := false

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF is the normal end; any other error still ends the text.
			return normalize(b.String())
		case html.StartTagToken:
			if name, _ := z.TagName(); atom.Lookup(name) == atom.Script {
				inScript = true
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); atom.Lookup(name) == atom.Script {
				inScript = false
			}
		case html.TextToken:
			if !inScript {
				b.Write(z.Raw())
			}
		}
	}
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r", "\n")
	text = blankLineRe.ReplaceAllString(text, "\n")
	text = manyLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// RemoveCSS strips stylesheets from text: <style> elements, stylesheet links,
// inline style attributes, at-rule blocks such as @media, and plain
// "selector { ... }" rules.
func RemoveCSS(text string) string {
	text = styleElemRe.ReplaceAllString(text, "")
	text = stylesheetRe.ReplaceAllString(text, "")
	text = styleAttrDQ.ReplaceAllString(text, "")
	text = styleAttrSQ.ReplaceAllString(text, "")
	text = removeCSSBlocks(text)

	text = trailingWSRe.ReplaceAllString(text, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// removeCSSBlocks removes at-rule blocks first, then peels one-level rules
// until nothing changes so that rules exposed by a removal are caught too.
// A rule's selector must sit on the line of its opening brace; otherwise the
// match would swallow all text before the rule.
func removeCSSBlocks(text string) string {
	text = RemoveAtRuleBlocks(text)
	for {
		next := cssBlockRe.ReplaceAllString(text, "")
		if next == text {
			return text
		}
		text = next
	}
}

// RemoveAtRuleBlocks removes "@name ... { ... }" blocks with balanced braces.
// An '@' with no following block, or whose braces never balance, is kept.
func RemoveAtRuleBlocks(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); {
		if text[i] != '@' {
			b.WriteByte(text[i])
			i++
			continue
		}
		open := strings.IndexByte(text[i:], '{')
		if open < 0 {
			b.WriteByte(text[i])
			i++
			continue
		}
		end := matchBrace(text, i+open)
		if end < 0 {
			b.WriteByte(text[i])
			i++
			continue
		}
		i = end + 1
	}
	return b.String()
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(text string, start int) int {
	depth := 0
	for j := start; j < len(text); j++ {
		switch text[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// Clean removes stylesheets and then markup.
func Clean(doc string) string {
	return StripHTML(RemoveCSS(doc))
}

// CleanFile reads in, cleans it and atomically replaces out with the result.
func CleanFile(in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}
	if err := fsutil.WriteString(out, Clean(string(data))); err != nil {
		return err
	}
	return nil
}

// CleanStream is Clean over a reader and writer.
func CleanStream(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if _, err := io.WriteString(w, Clean(string(data))); err != nil {
		return fmt.Errorf("failed to write cleaned text: %w", err)
	}
	return nil
}
