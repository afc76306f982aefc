package quiz

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// Marker classes of the quiz renderer.
const (
	containerSelector = "div.que"
)

// answerAreaClasses are tried in priority order.
var answerAreaClasses = []string{"answer", "formulation", "ablock"}

// page is the read-only view of one parsed document shared by all containers.
type page struct {
	doc *goquery.Document
	// labels maps a "for" attribute to the first label carrying it.
	labels map[string]*html.Node
}

func newPage(doc *goquery.Document) *page {
	p := &page{doc: doc, labels: map[string]*html.Node{}}
	for _, n := range doc.Find("label[for]").Nodes {
		id, _ := attr(n, "for")
		if _, ok := p.labels[id]; !ok {
			p.labels[id] = n
		}
	}
	return p
}

func (p *page) labelFor(id string) *html.Node {
	return p.labels[id]
}

// FromHTML extracts questions with default options and no logging.
func FromHTML(markup string) []Record {
	return NewHeuristicExtractor(zerolog.Nop(), Options{Quiet: true}).Extract(markup)
}

// Extract parses one quiz review page and returns a record for every question
// container that yielded question text, in document order. It never fails:
// malformed markup degrades to fewer or emptier records.
func (e *HeuristicExtractor) Extract(markup string) []Record {
	opts := e.Options.withDefaults()
	if !opts.Quiet {
		e.Logger.Info().Msg("extracting questions from HTML")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		e.Logger.Error().Err(err).Msg("parse HTML")
		return []Record{}
	}
	containers := doc.Find(containerSelector).Nodes
	if len(containers) == 0 {
		e.Logger.Warn().Msg("no question containers found with class 'que'")
		return []Record{}
	}

	p := newPage(doc)
	parsed := make([]*Record, len(containers))
	if opts.Workers <= 1 || len(containers) == 1 {
		for i, c := range containers {
			parsed[i] = e.isolate(i+1, func() Record { return e.parseContainer(p, c, i+1, opts) })
		}
	} else {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i, c := range containers {
			i, c := i, c
			g.Go(func() error {
				parsed[i] = e.isolate(i+1, func() Record { return e.parseContainer(p, c, i+1, opts) })
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make([]Record, 0, len(parsed))
	for _, r := range parsed {
		if r != nil && r.QuestionText != "" {
			out = append(out, *r)
		}
	}
	if !opts.Quiet {
		e.Logger.Info().Int("count", len(out)).Msg("extracted questions")
	}
	return out
}

// isolate runs parse for one container and turns a panic into a logged skip.
func (e *HeuristicExtractor) isolate(number int, parse func() Record) (rec *Record) {
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error().Int("question", number).Err(fmt.Errorf("%v", r)).Msg("error parsing question")
			rec = nil
		}
	}()
	r := parse()
	return &r
}

// question is the state handed to the per-type extraction routines.
type question struct {
	page   *page
	area   *html.Node
	record *Record
	opts   Options
}

func (e *HeuristicExtractor) parseContainer(p *page, container *html.Node, number int, opts Options) Record {
	rec := newRecord(number)
	rec.QuestionText = questionText(container)

	q := &question{page: p, area: answerArea(container), record: &rec, opts: opts}
	if !classify(q) {
		e.Logger.Warn().Int("question", number).Msg("could not detect question type")
	}
	rec.Choices = normalizeChoices(rec.Choices)
	return rec
}

// answerArea returns the sub-node holding the input controls, or the
// container itself when no answer wrapper is marked.
func answerArea(container *html.Node) *html.Node {
	sel := goquery.NewDocumentFromNode(container).Selection
	for _, class := range answerAreaClasses {
		if found := sel.Find("div." + class).First(); found.Length() > 0 {
			return found.Nodes[0]
		}
	}
	return container
}
