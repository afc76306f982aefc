package quiz

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// selectRule classifies a question built from selection lists. It reports
// whether it took the question.
type selectRule func(q *question, lists []*html.Node) bool

// selectRules run in order until one classifies the question.
var selectRules = []selectRule{
	singleDropdown,
	matchingByItems,
	matchingBySharedOptions,
	clozeFromLists,
}

func extractSelect(q *question, lists []*html.Node) {
	for _, rule := range selectRules {
		if rule(q, lists) {
			return
		}
	}
}

func singleDropdown(q *question, lists []*html.Node) bool {
	if len(lists) != 1 {
		return false
	}
	q.record.Type = TypeDropdownSelect
	q.record.Choices = listOptions(lists[0])
	return true
}

var matchingKeywords = []string{"match", "matching", "connect", "pair", "correspond"}

// matchingByItems takes the question when enough item terms sit next to the
// lists. Only tried for keyworded prompts or a modest number of lists.
func matchingByItems(q *question, lists []*html.Node) bool {
	if !hasMatchingKeyword(q.record.QuestionText) && len(lists) > q.opts.MatchingMaxLists {
		return false
	}
	choices := listOptions(lists[0])
	items := matchingItems(q.area, choices)
	if len(items) == 0 || len(items) < len(lists)-*q.opts.MatchingItemTolerance {
		return false
	}
	q.record.Type = TypeMatching
	q.record.Choices = choices
	q.record.Blanks = items
	return true
}

// matchingBySharedOptions takes the question when every list offers the same
// option set.
func matchingBySharedOptions(q *question, lists []*html.Node) bool {
	first := listOptions(lists[0])
	want := toSet(first)
	for _, list := range lists[1:] {
		if !sameSet(want, toSet(listOptions(list))) {
			return false
		}
	}
	q.record.Type = TypeMatching
	q.record.Choices = first
	q.record.Blanks = matchingItems(q.area, first)
	if len(q.record.Blanks) == 0 {
		q.record.Blanks = placeholders("Item", len(lists))
	}
	return true
}

func clozeFromLists(q *question, lists []*html.Node) bool {
	q.record.Type = TypeCloze
	q.record.Blanks = placeholders("Blank", len(lists))
	union := map[string]struct{}{}
	for _, list := range lists {
		for _, opt := range listOptions(list) {
			union[opt] = struct{}{}
		}
	}
	choices := make([]string, 0, len(union))
	for opt := range union {
		choices = append(choices, opt)
	}
	sort.Strings(choices)
	q.record.Choices = choices
	return true
}

func hasMatchingKeyword(prompt string) bool {
	prompt = strings.ToLower(prompt)
	for _, kw := range matchingKeywords {
		if strings.Contains(prompt, kw) {
			return true
		}
	}
	return false
}

// Option texts that only prompt the user to pick something.
var optionPlaceholders = []string{"choose...", "select...", "---", "please select"}

// listOptions returns the meaningful option texts of a selection list in
// document order.
func listOptions(list *html.Node) []string {
	var out orderedSet
	for _, opt := range descendants(list, isTag("option")) {
		text := textOf(opt, "")
		value, _ := attr(opt, "value")
		if text == "" || value == "" {
			continue
		}
		if contains(optionPlaceholders, strings.ToLower(text)) {
			continue
		}
		out.add(text)
	}
	return out.list()
}

func toSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, v := range list {
		set[v] = struct{}{}
	}
	return set
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
