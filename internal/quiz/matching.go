package quiz

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// itemStrategy recovers the terms to be matched from the answer area. The
// first strategy returning anything wins.
type itemStrategy func(area *html.Node, choices []string) []string

var itemStrategies = []itemStrategy{
	itemsFromTable,
	itemsFromBlocks,
	itemsFromPrecedingText,
}

var (
	ordinalPrefix = regexp.MustCompile(`^\d+\.\s*`)
	bulletPrefix  = regexp.MustCompile(`^[•\-]\s*`)
)

func matchingItems(area *html.Node, choices []string) []string {
	for _, strategy := range itemStrategies {
		if items := strategy(area, choices); len(items) > 0 {
			return items
		}
	}
	return []string{}
}

// itemsFromTable reads the first cell of every row of the first table.
func itemsFromTable(area *html.Node, choices []string) []string {
	table := firstDescendant(area, isTag("table"))
	if table == nil {
		return nil
	}
	var items []string
	for _, row := range descendants(table, isTag("tr")) {
		cells := descendants(row, isTag("td", "th"))
		if len(cells) < 2 {
			continue
		}
		term := textExcluding(cells[0], "", isSelect)
		if term == "" || contains(choices, term) || utf8.RuneCountInString(term) <= 1 {
			continue
		}
		term = strings.TrimSpace(ordinalPrefix.ReplaceAllString(term, ""))
		if term != "" {
			items = append(items, term)
		}
	}
	return items
}

// isChooseLabel matches "Choose..." labels that sit next to a selection list.
func isChooseLabel(n *html.Node) bool {
	return isLabel(n) && strings.Contains(rawText(n, isSelect), "Choose")
}

// itemsFromBlocks reads block containers holding a selection list. Divs are
// scanned first, then list items, then paragraphs.
func itemsFromBlocks(area *html.Node, choices []string) []string {
	var blocks []*html.Node
	for _, tag := range []string{"div", "li", "p"} {
		blocks = append(blocks, descendants(area, isTag(tag))...)
	}
	var items orderedSet
	for _, block := range blocks {
		if firstDescendant(block, isSelect) == nil {
			continue
		}
		text := textExcluding(block, "", anyOf(isSelect, isChooseLabel))
		text = stripItemPrefixes(text)
		if acceptItem(text, choices, &items) {
			items.add(text)
		}
	}
	return items.items
}

// itemsFromPrecedingText reads the siblings before each selection list.
func itemsFromPrecedingText(area *html.Node, choices []string) []string {
	var items orderedSet
	for _, list := range descendants(area, isSelect) {
		parent := list.Parent
		if parent == nil {
			continue
		}
		var parts []string
		for c := parent.FirstChild; c != nil && c != list; c = c.NextSibling {
			switch c.Type {
			case html.ElementNode:
				parts = append(parts, textOf(c, ""))
			case html.TextNode:
				parts = append(parts, strings.TrimSpace(c.Data))
			}
		}
		text := stripItemPrefixes(strings.TrimSpace(strings.Join(parts, " ")))
		if acceptItem(text, choices, &items) {
			items.add(text)
		}
	}
	return items.items
}

func stripItemPrefixes(text string) string {
	text = ordinalPrefix.ReplaceAllString(text, "")
	text = bulletPrefix.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func acceptItem(text string, choices []string, items *orderedSet) bool {
	if text == "" || utf8.RuneCountInString(text) <= 1 || contains(choices, text) {
		return false
	}
	if strings.HasPrefix(strings.ToLower(text), "choose") {
		return false
	}
	return !items.has(text)
}
