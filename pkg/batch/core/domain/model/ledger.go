package model

import "fmt"

// Result strings returned by item processors.
const (
	// ResultUpdated is the only processor result classified as a success.
	ResultUpdated = "updated"
	// ResultIgnored is the conventional "nothing to do" result.
	ResultIgnored = "ignored"
)

// Outcome is the classification of one item's processing result.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeFailed    Outcome = "failed"
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string { return string(o) }

// ClassifyResult maps a processor result string to an Outcome.
// "updated" is a success and every other string, including unknown ones, is ignored.
func ClassifyResult(result string) Outcome {
	if result == ResultUpdated {
		return OutcomeSucceeded
	}
	return OutcomeIgnored
}

// OutcomeLedger accumulates, across all chunks of a job, the identifiers grouped by outcome
// plus a flat list of every identifier attempted.
//
// Every identifier recorded appears in exactly one of Succeeded, Ignored or Failed and
// once in AllProcessed, so the three group lengths always sum to len(AllProcessed).
type OutcomeLedger struct {
	Succeeded    []Identifier `json:"success"`
	Ignored      []Identifier `json:"ignored"`
	Failed       []Identifier `json:"failed"`
	AllProcessed []Identifier `json:"total"`
}

// LedgerCounts is a summary of an OutcomeLedger.
type LedgerCounts struct {
	Succeeded int `json:"success"`
	Ignored   int `json:"ignored"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// NewOutcomeLedger creates an empty ledger.
func NewOutcomeLedger() *OutcomeLedger {
	return &OutcomeLedger{
		Succeeded:    []Identifier{},
		Ignored:      []Identifier{},
		Failed:       []Identifier{},
		AllProcessed: []Identifier{},
	}
}

// Record appends id to the group for outcome and to AllProcessed.
func (l *OutcomeLedger) Record(id Identifier, outcome Outcome) error {
	switch outcome {
	case OutcomeSucceeded:
		l.Succeeded = append(l.Succeeded, id)
	case OutcomeIgnored:
		l.Ignored = append(l.Ignored, id)
	case OutcomeFailed:
		l.Failed = append(l.Failed, id)
	default:
		return fmt.Errorf("unknown outcome %q for item %s", outcome, id)
	}
	l.AllProcessed = append(l.AllProcessed, id)
	return nil
}

// Len returns the number of identifiers recorded.
func (l *OutcomeLedger) Len() int { return len(l.AllProcessed) }

// Counts returns the size of every group.
func (l *OutcomeLedger) Counts() LedgerCounts {
	return LedgerCounts{
		Succeeded: len(l.Succeeded),
		Ignored:   len(l.Ignored),
		Failed:    len(l.Failed),
		Total:     len(l.AllProcessed),
	}
}

// Consistent reports whether the group lengths add up to the number of processed identifiers.
func (l *OutcomeLedger) Consistent() bool {
	c := l.Counts()
	return c.Succeeded+c.Ignored+c.Failed == c.Total
}

// OutcomeOf returns the group an identifier was recorded in. An identifier recorded more
// than once reports the first group holding it, in Succeeded, Ignored, Failed order.
func (l *OutcomeLedger) OutcomeOf(id Identifier) (Outcome, bool) {
	for _, group := range []struct {
		ids     []Identifier
		outcome Outcome
	}{
		{l.Succeeded, OutcomeSucceeded},
		{l.Ignored, OutcomeIgnored},
		{l.Failed, OutcomeFailed},
	} {
		for _, v := range group.ids {
			if v == id {
				return group.outcome, true
			}
		}
	}
	return "", false
}

// Fields returns the ledger as plain data for structured log entries.
func (l *OutcomeLedger) Fields() map[string]interface{} {
	return map[string]interface{}{
		"success": identifierStrings(l.Succeeded),
		"ignored": identifierStrings(l.Ignored),
		"failed":  identifierStrings(l.Failed),
		"total":   identifierStrings(l.AllProcessed),
	}
}

// Clone returns an independent copy of the ledger.
func (l *OutcomeLedger) Clone() *OutcomeLedger {
	return &OutcomeLedger{
		Succeeded:    append([]Identifier{}, l.Succeeded...),
		Ignored:      append([]Identifier{}, l.Ignored...),
		Failed:       append([]Identifier{}, l.Failed...),
		AllProcessed: append([]Identifier{}, l.AllProcessed...),
	}
}
