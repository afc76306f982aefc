package quiz

import "strings"

// normalizeChoices trims entries and drops empty, "none", "n/a" and duplicate
// entries, keeping first-seen order.
func normalizeChoices(choices []string) []string {
	out := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))
	for _, c := range choices {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		switch strings.ToLower(c) {
		case "none", "n/a":
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// orderedSet collects distinct strings in insertion order.
type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func (s *orderedSet) add(v string) bool {
	if s.seen == nil {
		s.seen = map[string]struct{}{}
	}
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

func (s *orderedSet) has(v string) bool {
	_, ok := s.seen[v]
	return ok
}

func (s *orderedSet) list() []string {
	if s.items == nil {
		return []string{}
	}
	return s.items
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
