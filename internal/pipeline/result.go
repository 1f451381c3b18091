package pipeline

import "dailybrief/pkg/market"

// StageResult is the outcome of one stage. A failed stage never carries a
// data payload; a successful stage never carries an error message.
type StageResult struct {
	Stage   string         `json:"stage"`
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Output is the final aggregate of a run. The caller always receives one for
// a structurally valid request; Stages is the diagnostic surface and is
// populated regardless of overall success.
type Output struct {
	Summary   string        `json:"summary,omitempty"`
	Markdown  string        `json:"markdown,omitempty"`
	Analysis  string        `json:"analysis,omitempty"`
	FactCheck string        `json:"fact_check,omitempty"`
	Trends    string        `json:"trends,omitempty"`
	Quote     *market.Quote `json:"quote,omitempty"`
	AudioFile string        `json:"audio_file,omitempty"`
	Error     string        `json:"error,omitempty"`
	Stages    []StageResult `json:"stages"`
}

// StageByName returns the result for a named stage, or nil.
func (o *Output) StageByName(name string) *StageResult {
	for i := range o.Stages {
		if o.Stages[i].Stage == name {
			return &o.Stages[i]
		}
	}
	return nil
}
