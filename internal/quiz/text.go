package quiz

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var nonContent = isTag("script", "style", "noscript", "iframe")

// Status and navigation text the quiz renderer mixes into the prompt. Applied
// in order to whitespace-collapsed text.
var promptNoise = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Question\s+\d+\s*`),
	regexp.MustCompile(`(?i)Not yet answered.*$`),
	regexp.MustCompile(`(?i)Marked? out of.*$`),
	regexp.MustCompile(`(?i)Flag question.*$`),
}

// The instruction clause is dropped from the prompt and not kept anywhere. A
// bare "Instructions:" with nothing after it stays.
var (
	instructionsRe    = regexp.MustCompile(`(?i)Instructions?:[^\n]*`)
	hasInstructionsRe = regexp.MustCompile(`(?i)Instructions?:\s*\S`)
)

// questionText returns the cleaned prompt of a container, or "" when the
// container has no question text block.
func questionText(container *html.Node) string {
	qtext := firstDescendant(container, func(n *html.Node) bool {
		return isTag("div")(n) && hasClass(n, "qtext")
	})
	if qtext == nil {
		return ""
	}
	return cleanPrompt(textExcluding(qtext, " ", nonContent))
}

func cleanPrompt(text string) string {
	text = collapseSpaces(text)
	for _, re := range promptNoise {
		text = re.ReplaceAllString(text, "")
	}
	if hasInstructionsRe.MatchString(text) {
		text = strings.TrimSpace(instructionsRe.ReplaceAllString(text, ""))
	}
	return norm.NFC.String(strings.TrimSpace(text))
}

// collapseSpaces folds every run of Unicode whitespace to one space and trims.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
