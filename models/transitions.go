package models

import "fmt"

// MatchEvent drives the match lifecycle.
type MatchEvent string

const (
	EventResultSubmitted MatchEvent = "result_submitted" // decisive result verified
	EventDrawRecorded    MatchEvent = "draw_recorded"    // draw verified, no appeal window
	EventAppealFiled     MatchEvent = "appeal_filed"
	EventAppealUpheld    MatchEvent = "appeal_upheld"
	EventAppealRejected  MatchEvent = "appeal_rejected"
	EventDisbursed       MatchEvent = "disbursed"
)

// matchTransitions is the full lifecycle. Anything not listed is invalid.
var matchTransitions = map[string]map[MatchEvent]string{
	MatchInProgress: {
		EventResultSubmitted: MatchAwaitingAppeal,
		EventDrawRecorded:    MatchDraw,
	},
	MatchAwaitingAppeal: {
		EventAppealFiled: MatchAppealed,
		EventDisbursed:   MatchDisbursed,
	},
	MatchAppealed: {
		EventAppealUpheld:   MatchDisputed,
		EventAppealRejected: MatchAwaitingAppeal,
	},
	MatchDraw: {
		EventDisbursed: MatchDisbursed,
	},
	// disputed and disbursed are terminal
}

// NextMatchStatus returns the status a match moves to when event fires, or an
// error if the pair is invalid (e.g. disbursing an already-disbursed match).
func NextMatchStatus(current string, event MatchEvent) (string, error) {
	if next, ok := matchTransitions[current][event]; ok {
		return next, nil
	}
	return "", fmt.Errorf("match in status %q cannot handle %s", current, event)
}
