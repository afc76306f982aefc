package quiz

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// controlRule pairs a control query with the routine that consumes the answer
// area when the query finds anything.
type controlRule struct {
	name   string
	find   nodeFilter
	handle func(q *question, controls []*html.Node)
}

func inputOfType(kind string) nodeFilter {
	return func(n *html.Node) bool {
		if !isInput(n) {
			return false
		}
		t, _ := attr(n, "type")
		return t == kind
	}
}

// controlRules are evaluated in order; the first rule whose controls are
// present decides the question type and later rules are never consulted.
var controlRules = []controlRule{
	{name: "radio", find: inputOfType("radio"), handle: extractRadio},
	{name: "select", find: isSelect, handle: extractSelect},
	{name: "checkbox", find: inputOfType("checkbox"), handle: extractCheckbox},
	{name: "text", find: inputOfType("text"), handle: classifyTextInput},
	{name: "textarea", find: isTag("textarea"), handle: classifyEssay},
}

// classify dispatches the answer area to the first matching rule. It reports
// false when no rule applied and the type stays Unknown.
func classify(q *question) bool {
	for _, rule := range controlRules {
		controls := descendants(q.area, rule.find)
		if len(controls) == 0 {
			continue
		}
		rule.handle(q, controls)
		return true
	}
	return false
}

var trueFalsePairs = [][2]string{
	{"true", "false"},
	{"yes", "no"},
	{"correct", "incorrect"},
}

func extractRadio(q *question, radios []*html.Node) {
	var choices orderedSet
	for _, radio := range radios {
		if label, ok := q.page.resolveLabel(radio); ok {
			choices.add(label)
		}
	}
	q.record.Choices = choices.list()
	q.record.Type = TypeMultipleChoice
	if isTrueFalse(q.record.Choices) {
		q.record.Type = TypeTrueFalse
	}
}

func isTrueFalse(choices []string) bool {
	if len(choices) != 2 {
		return false
	}
	a, b := strings.ToLower(choices[0]), strings.ToLower(choices[1])
	for _, pair := range trueFalsePairs {
		if (a == pair[0] && b == pair[1]) || (a == pair[1] && b == pair[0]) {
			return true
		}
	}
	return false
}

// Checkbox labels that belong to the page chrome rather than the question.
var checkboxChrome = []string{"flag question", "select all"}

func extractCheckbox(q *question, boxes []*html.Node) {
	q.record.Type = TypeMultiSelect
	if strings.Contains(strings.ToLower(q.record.QuestionText), "blank") {
		var names orderedSet
		for _, box := range boxes {
			if name, ok := attr(box, "name"); ok && name != "" {
				names.add(name)
			}
		}
		q.record.Blanks = placeholders("Blank", len(names.items))
		q.record.Type = TypeClozeCheckbox
	}

	var choices orderedSet
	for _, box := range boxes {
		label, ok := q.page.resolveLabel(box)
		if !ok || contains(checkboxChrome, strings.ToLower(label)) {
			continue
		}
		choices.add(label)
	}
	q.record.Choices = choices.list()
}

var identificationKeywords = []string{
	"identify", "who is", "what is", "name the", "who are", "what are",
	"give the name", "state the name", "mention the name",
}

func classifyTextInput(q *question, _ []*html.Node) {
	prompt := strings.ToLower(q.record.QuestionText)
	for _, kw := range identificationKeywords {
		if strings.Contains(prompt, kw) {
			q.record.Type = TypeIdentification
			return
		}
	}
	q.record.Type = TypeShortAnswer
}

func classifyEssay(q *question, _ []*html.Node) {
	q.record.Type = TypeEssay
}

// placeholders returns "<prefix> 1" .. "<prefix> n".
func placeholders(prefix string, n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, prefix+" "+strconv.Itoa(i))
	}
	return out
}
