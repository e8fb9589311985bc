package batch

import "github.com/samber/lo"

type Outcome int

const (
	OutcomeDelivered Outcome = iota + 1
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the last step an asset reached. Delivered, Skipped and Failed are
// terminal.
type State int

const (
	StatePending State = iota
	StateTagsResolved
	StateKeyResolved
	StateDownloaded
	StateUnprotected
	StateTranscoded
	StateTagged
	StateDelivered
	StateSkipped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateTagsResolved:
		return "tags_resolved"
	case StateKeyResolved:
		return "key_resolved"
	case StateDownloaded:
		return "downloaded"
	case StateUnprotected:
		return "unprotected"
	case StateTranscoded:
		return "transcoded"
	case StateTagged:
		return "tagged"
	case StateDelivered:
		return "delivered"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type ItemResult struct {
	ID      string
	Outcome Outcome
	// State is the last non-terminal state reached before a failure, or the
	// terminal state otherwise.
	State State
	Err   error
}

type Result struct {
	Items []ItemResult
}

// OK reports whether no item failed. Skipped items count as successes.
func (r Result) OK() bool {
	return !lo.ContainsBy(r.Items, func(it ItemResult) bool { return it.Outcome == OutcomeFailed })
}

func (r Result) Count(o Outcome) int {
	return lo.CountBy(r.Items, func(it ItemResult) bool { return it.Outcome == o })
}
