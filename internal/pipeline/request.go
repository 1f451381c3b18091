package pipeline

import "fmt"

// Stage names, unique within a run. The fetch result is always first in the
// output list; write and audio are always last.
const (
	StageFetch     = "fetch"
	StageAnalysis  = "analysis"
	StageFactCheck = "factcheck"
	StageTrend     = "trend"
	StageQuote     = "quote"
	StageWrite     = "write"
	StageAudio     = "audio"
)

const (
	DefaultCategory      = "general"
	DefaultCount         = 5
	DefaultVoice         = "alloy"
	DefaultSummaryStyle  = "conversational"
	DefaultAnalysisDepth = "moderate"
	DefaultMaxClaims     = 5
)

// Request is the immutable input for one pipeline run.
type Request struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Query    string `json:"query,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Country  string `json:"country,omitempty"`
	Sources  string `json:"sources,omitempty"`

	// ModelOverrides maps a stage name to a model id; unset stages use the
	// pipeline default.
	ModelOverrides map[string]string `json:"model_overrides,omitempty"`

	GenerateAudio    bool   `json:"generate_audio"`
	Voice            string `json:"voice,omitempty"`
	SummaryStyle     string `json:"summary_style,omitempty"`
	AnalysisDepth    string `json:"analysis_depth,omitempty"`
	UseFactChecker   bool   `json:"use_fact_checker"`
	UseTrendAnalyzer bool   `json:"use_trend_analyzer"`
	MaxClaims        int    `json:"max_claims"`
}

// DefaultRequest returns a request with the standard defaults applied.
func DefaultRequest() Request {
	return Request{
		Category:         DefaultCategory,
		Count:            DefaultCount,
		Voice:            DefaultVoice,
		SummaryStyle:     DefaultSummaryStyle,
		AnalysisDepth:    DefaultAnalysisDepth,
		UseFactChecker:   true,
		UseTrendAnalyzer: true,
		MaxClaims:        DefaultMaxClaims,
	}
}

// Validate rejects structurally invalid requests before any stage runs.
func (r Request) Validate() error {
	if r.Count < 1 {
		return fmt.Errorf("article count must be at least 1, got %d", r.Count)
	}
	if r.MaxClaims < 0 {
		return fmt.Errorf("max claims must not be negative, got %d", r.MaxClaims)
	}
	return nil
}
