package quiz

// Type names the kind of question detected from the answer controls.
// Values are the display names used in serialized output.
type Type string

const (
	TypeMultipleChoice Type = "Multiple Choice"
	TypeTrueFalse      Type = "True or False"
	TypeCloze          Type = "Fill in the Blank (Cloze)"
	TypeClozeCheckbox  Type = "Fill in the Blank (Checkbox)"
	TypeMatching       Type = "Matching Type"
	TypeMultiSelect    Type = "Multiple Select"
	TypeShortAnswer    Type = "Short Answer"
	TypeEssay          Type = "Essay"
	TypeIdentification Type = "Identification"
	TypeDropdownSelect Type = "Dropdown Select"
	TypeUnknown        Type = "Unknown"
)

// Record is one extracted question. Records are built once per container and
// never mutated after being returned.
type Record struct {
	// Number is the 1-based position of the container within the page.
	Number       int    `json:"number"`
	Type         Type   `json:"type"`
	QuestionText string `json:"question_text"`
	// Choices are distinct, non-empty and in first-seen order.
	Choices []string `json:"choices"`
	// Blanks holds matchable items or blank placeholders for Cloze and
	// Matching questions.
	Blanks   []string       `json:"blanks"`
	Metadata map[string]any `json:"metadata"`
}

func newRecord(number int) Record {
	return Record{
		Number:   number,
		Type:     TypeUnknown,
		Choices:  []string{},
		Blanks:   []string{},
		Metadata: map[string]any{},
	}
}

const (
	// DefaultMatchingMaxLists is the largest number of selection lists that is
	// still tried as a matching question without a matching keyword.
	DefaultMatchingMaxLists = 15
	// DefaultMatchingItemTolerance is how many selection lists may lack a
	// recovered item term while still classifying as matching.
	DefaultMatchingItemTolerance = 2
)

// Options tunes the extraction heuristics. Zero values select the defaults.
type Options struct {
	MatchingMaxLists int
	// MatchingItemTolerance nil selects the default; use ItemTolerance(0) to
	// require an item term next to every list.
	MatchingItemTolerance *int
	// Workers > 1 processes question containers in parallel. Output order
	// always follows document order.
	Workers int
	// Quiet suppresses the informational start/finish log lines.
	Quiet bool
}

func (o Options) withDefaults() Options {
	if o.MatchingMaxLists <= 0 {
		o.MatchingMaxLists = DefaultMatchingMaxLists
	}
	if o.MatchingItemTolerance == nil || *o.MatchingItemTolerance < 0 {
		o.MatchingItemTolerance = ItemTolerance(DefaultMatchingItemTolerance)
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return o
}

// ItemTolerance returns a value for Options.MatchingItemTolerance.
func ItemTolerance(n int) *int { return &n }
