package quiz

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// labelStrategy returns raw label text for a control, or "" to defer to the
// next strategy.
type labelStrategy func(p *page, control *html.Node) string

// labelStrategies run in order; the first non-empty result wins.
var labelStrategies = []labelStrategy{
	labelByFor,
	labelWrapping,
	labelInParent,
	labelInEnclosingBlock,
	labelFromNextText,
}

var enclosingBlock = isTag("div", "span", "td", "li")

// resolveLabel finds the human-readable text for an input control.
func (p *page) resolveLabel(control *html.Node) (string, bool) {
	for _, strategy := range labelStrategies {
		raw := strategy(p, control)
		if raw == "" {
			continue
		}
		cleaned := cleanLabel(raw)
		return cleaned, cleaned != ""
	}
	return "", false
}

func labelByFor(p *page, control *html.Node) string {
	id, ok := attr(control, "id")
	if !ok || id == "" {
		return ""
	}
	return textOf(p.labelFor(id), "")
}

func labelWrapping(_ *page, control *html.Node) string {
	return textExcluding(closest(control, isLabel), "", isInput)
}

func labelInParent(_ *page, control *html.Node) string {
	return textOf(firstDescendant(control.Parent, isLabel), "")
}

func labelInEnclosingBlock(_ *page, control *html.Node) string {
	return textExcluding(closest(control, enclosingBlock), "", isInput)
}

func labelFromNextText(_ *page, control *html.Node) string {
	next := control.NextSibling
	if next == nil || next.Type != html.TextNode {
		return ""
	}
	return strings.TrimSpace(next.Data)
}

var (
	enumerationPrefixes = []*regexp.Regexp{
		regexp.MustCompile(`^[a-zA-Z0-9]\.\s*`),
		regexp.MustCompile(`^\([a-zA-Z0-9]\)\s*`),
		regexp.MustCompile(`^[a-zA-Z0-9]\)\s*`),
	}
	labelNotYetAnswered = regexp.MustCompile(`(?i)Not yet answered`)
	labelMarkedOutOf    = regexp.MustCompile(`(?i)Marked out of.*`)
)

// cleanLabel strips enumeration markers ("a.", "(b)", "c)") and grading noise.
func cleanLabel(text string) string {
	for _, re := range enumerationPrefixes {
		text = re.ReplaceAllString(text, "")
	}
	text = strings.TrimSpace(text)
	text = labelNotYetAnswered.ReplaceAllString(text, "")
	text = labelMarkedOutOf.ReplaceAllString(text, "")
	return norm.NFC.String(strings.TrimSpace(text))
}
