package datefield

import "github.com/couchcryptid/drivers-report-service/internal/moment"

// Presentation carries flags the rendering layer consumes. They are passed
// through untouched.
type Presentation struct {
	ShowInput        *bool  `json:"show_input,omitempty"`
	ShowTodayButton  bool   `json:"show_today_button"`
	TodayButtonText  string `json:"today_button_text"`
	HeaderDateFormat string `json:"header_date_format"`
	IsDisabled       bool   `json:"is_disabled"`
	IsReadOnly       bool   `json:"is_read_only"`
	IsRequired       bool   `json:"is_required"`
	Label            string `json:"label,omitempty"`
}

func (p Presentation) withDefaults() Presentation {
	if p.ShowInput == nil {
		show := true
		p.ShowInput = &show
	}
	if p.TodayButtonText == "" {
		p.TodayButtonText = "Today"
	}
	if p.HeaderDateFormat == "" {
		p.HeaderDateFormat = "MMMM YYYY"
	}
	return p
}

// Window is the calendar month currently on display.
type Window struct {
	Start moment.TimePoint `json:"start"`
	End   moment.TimePoint `json:"end"`
}

func monthOf(tp moment.TimePoint) Window {
	return Window{Start: tp.StartOfMonth(), End: tp.EndOfMonth()}
}

// State is a snapshot of a field. Every transition produces a new State.
type State struct {
	Open         bool         `json:"open"`
	Value        string       `json:"value"`
	Window       Window       `json:"window"`
	Header       string       `json:"header"`
	Placeholder  string       `json:"placeholder"`
	Error        string       `json:"error"`
	Input        *string      `json:"input,omitempty"`
	Presentation Presentation `json:"presentation"`
}

// Outcome classifies what a commit did to the field value.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeReverted  Outcome = "reverted"
	OutcomeCleared   Outcome = "cleared"
)

// Observer receives commit outcomes and listener notifications.
type Observer interface {
	Committed(outcome Outcome)
	Notified()
}
