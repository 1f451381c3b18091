package handler

import (
	"encoding/json"
	"time"

	"dailybrief/internal/model"
	"dailybrief/internal/pipeline"
)

// CreateDigestRequest is the POST /digests body. Absent fields fall back to
// the pipeline defaults; numeric fields are pointers so that a supplied value
// always reaches validation, even an invalid one.
type CreateDigestRequest struct {
	Category         string            `json:"category"`
	Count            *int              `json:"count"`
	Query            string            `json:"query"`
	Symbol           string            `json:"symbol"`
	Country          string            `json:"country"`
	Sources          string            `json:"sources"`
	ModelOverrides   map[string]string `json:"model_overrides"`
	GenerateAudio    bool              `json:"generate_audio"`
	Voice            string            `json:"voice"`
	SummaryStyle     string            `json:"summary_style"`
	AnalysisDepth    string            `json:"analysis_depth"`
	UseFactChecker   *bool             `json:"use_fact_checker"`
	UseTrendAnalyzer *bool             `json:"use_trend_analyzer"`
	MaxClaims        *int              `json:"max_claims"`
}

func (r CreateDigestRequest) toPipelineRequest() pipeline.Request {
	req := pipeline.DefaultRequest()
	if r.Category != "" {
		req.Category = r.Category
	}
	if r.Count != nil {
		req.Count = *r.Count
	}
	req.Query = r.Query
	req.Symbol = r.Symbol
	req.Country = r.Country
	req.Sources = r.Sources
	req.ModelOverrides = r.ModelOverrides
	req.GenerateAudio = r.GenerateAudio
	if r.Voice != "" {
		req.Voice = r.Voice
	}
	if r.SummaryStyle != "" {
		req.SummaryStyle = r.SummaryStyle
	}
	if r.AnalysisDepth != "" {
		req.AnalysisDepth = r.AnalysisDepth
	}
	if r.UseFactChecker != nil {
		req.UseFactChecker = *r.UseFactChecker
	}
	if r.UseTrendAnalyzer != nil {
		req.UseTrendAnalyzer = *r.UseTrendAnalyzer
	}
	if r.MaxClaims != nil {
		req.MaxClaims = *r.MaxClaims
	}
	return req
}

type DigestResponse struct {
	ID          int64           `json:"id"`
	Category    string          `json:"category"`
	Summary     string          `json:"summary"`
	Markdown    string          `json:"markdown,omitempty"`
	Analysis    string          `json:"analysis,omitempty"`
	FactCheck   string          `json:"fact_check,omitempty"`
	Trends      string          `json:"trends,omitempty"`
	QuoteSymbol string          `json:"quote_symbol,omitempty"`
	AudioFile   string          `json:"audio_file,omitempty"`
	Status      string          `json:"status"`
	Error       string          `json:"error,omitempty"`
	Stages      json.RawMessage `json:"stages,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

type DigestsResponse struct {
	Digests []DigestResponse `json:"digests"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

func toDigestResponse(d model.Digest) DigestResponse {
	return DigestResponse{
		ID:          d.ID,
		Category:    d.Category,
		Summary:     d.Summary,
		Markdown:    d.Markdown,
		Analysis:    d.Analysis,
		FactCheck:   d.FactCheck,
		Trends:      d.Trends,
		QuoteSymbol: d.QuoteSymbol,
		AudioFile:   d.AudioFile,
		Status:      d.Status,
		Error:       d.Error,
		Stages:      d.Stages,
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
	}
}
