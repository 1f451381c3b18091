package pipeline

import (
	"encoding/json"
	"strings"
)

// Normalize converts a stage's raw textual output into a typed record using
// a three-tier cascade: strict JSON envelope parse, then pattern extraction,
// then a raw-text fallback. It is total: any input string yields a record.
func Normalize(kind StageKind, raw string) Record {
	if rec, ok := parseStrict(kind, raw); ok {
		return rec
	}

	if rec, ok := extractPatterns(kind, raw); ok {
		return rec
	}

	return rawFallback(kind, raw)
}

// cleanJSONResponse strips markdown fences and surrounding prose so that
// model output which is almost JSON still parses.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Some model responses include extra prose around JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

// parseStrict is tier 1: the raw output is treated as a single JSON envelope
// with the stage's required keys. Missing optional keys default to empty.
func parseStrict(kind StageKind, raw string) (Record, bool) {
	cleaned := cleanJSONResponse(raw)

	switch kind {
	case KindFetch:
		var env struct {
			Category string    `json:"category"`
			Articles []Article `json:"articles"`
			Summary  string    `json:"summary"`
		}
		if err := json.Unmarshal([]byte(cleaned), &env); err != nil || env.Articles == nil {
			return nil, false
		}
		summary := strings.TrimSpace(env.Summary)
		if summary == "" {
			summary = strings.TrimSpace(raw)
		}
		return &FetchRecord{
			ExtractionTier: TierStrict,
			Category:       env.Category,
			Articles:       dedupeArticles(env.Articles),
			SummaryText:    summary,
		}, true

	case KindAnalysis:
		var env struct {
			Insights     *string  `json:"insights"`
			Trends       []string `json:"trends"`
			Implications []string `json:"implications"`
		}
		if err := json.Unmarshal([]byte(cleaned), &env); err != nil || env.Insights == nil {
			return nil, false
		}
		return &AnalysisRecord{
			ExtractionTier: TierStrict,
			Insights:       strings.TrimSpace(*env.Insights),
			Trends:         emptyIfNil(env.Trends),
			Implications:   emptyIfNil(env.Implications),
		}, true

	case KindFactCheck:
		var env struct {
			Verifications []Verification `json:"verifications"`
			Summary       string         `json:"summary"`
		}
		if err := json.Unmarshal([]byte(cleaned), &env); err != nil || env.Verifications == nil {
			return nil, false
		}
		for i := range env.Verifications {
			env.Verifications[i].Sources = emptyIfNil(env.Verifications[i].Sources)
		}
		summary := strings.TrimSpace(env.Summary)
		if summary == "" {
			summary = strings.TrimSpace(raw)
		}
		return &FactCheckRecord{
			ExtractionTier: TierStrict,
			Verifications:  env.Verifications,
			SummaryText:    summary,
		}, true

	case KindTrend:
		var env struct {
			Trends     []Trend  `json:"trends"`
			MetaTrends []string `json:"meta_trends"`
			Summary    string   `json:"summary"`
		}
		if err := json.Unmarshal([]byte(cleaned), &env); err != nil || env.Trends == nil {
			return nil, false
		}
		for i := range env.Trends {
			env.Trends[i].SupportingArticles = emptyIfNil(env.Trends[i].SupportingArticles)
		}
		summary := strings.TrimSpace(env.Summary)
		if summary == "" {
			summary = strings.TrimSpace(raw)
		}
		return &TrendRecord{
			ExtractionTier: TierStrict,
			Trends:         env.Trends,
			MetaTrends:     emptyIfNil(env.MetaTrends),
			SummaryText:    summary,
		}, true

	case KindWrite:
		var env struct {
			Summary *string `json:"summary"`
		}
		if err := json.Unmarshal([]byte(cleaned), &env); err != nil || env.Summary == nil {
			return nil, false
		}
		return &WriteRecord{
			ExtractionTier: TierStrict,
			SummaryText:    strings.TrimSpace(*env.Summary),
		}, true
	}

	return nil, false
}

// extractPatterns is tier 2: shape-specific matchers are tried in a fixed
// priority order; the first matcher yielding at least one populated entry
// wins. The order is a tie-break policy, not an incidental detail.
func extractPatterns(kind StageKind, raw string) (Record, bool) {
	switch kind {
	case KindFetch:
		for _, m := range fetchMatchers {
			if articles := m.extract(raw); len(articles) > 0 {
				return &FetchRecord{
					ExtractionTier: TierPattern,
					Category:       extractCategory(raw),
					Articles:       dedupeArticles(articles),
					SummaryText:    extractSummarySection(raw),
				}, true
			}
		}

	case KindAnalysis:
		trends := extractLabeledList(raw, analysisTrendsRe)
		implications := extractLabeledList(raw, analysisImplicationsRe)
		if len(trends) > 0 || len(implications) > 0 {
			return &AnalysisRecord{
				ExtractionTier: TierPattern,
				Insights:       strings.TrimSpace(raw),
				Trends:         trends,
				Implications:   implications,
			}, true
		}

	case KindFactCheck:
		for _, m := range factCheckMatchers {
			if verifications := m.extract(raw); len(verifications) > 0 {
				return &FactCheckRecord{
					ExtractionTier: TierPattern,
					Verifications:  verifications,
					SummaryText:    extractSummarySection(raw),
				}, true
			}
		}

	case KindTrend:
		for _, m := range trendMatchers {
			if trends := m.extract(raw); len(trends) > 0 {
				return &TrendRecord{
					ExtractionTier: TierPattern,
					Trends:         trends,
					MetaTrends:     extractMetaTrends(raw),
					SummaryText:    extractSummarySection(raw),
				}, true
			}
		}

	case KindWrite:
		// No pattern tier: a write stage's prose is its summary.
	}

	return nil, false
}

// rawFallback is tier 3: empty collections, summary equal to the trimmed raw
// text. Guarantees the pipeline never fails on malformed model output.
func rawFallback(kind StageKind, raw string) Record {
	summary := strings.TrimSpace(raw)

	switch kind {
	case KindFetch:
		return &FetchRecord{ExtractionTier: TierRaw, Articles: []Article{}, SummaryText: summary}
	case KindAnalysis:
		return &AnalysisRecord{ExtractionTier: TierRaw, Insights: summary, Trends: []string{}, Implications: []string{}}
	case KindFactCheck:
		return &FactCheckRecord{ExtractionTier: TierRaw, Verifications: []Verification{}, SummaryText: summary}
	case KindTrend:
		return &TrendRecord{ExtractionTier: TierRaw, Trends: []Trend{}, MetaTrends: []string{}, SummaryText: summary}
	default:
		return &WriteRecord{ExtractionTier: TierRaw, SummaryText: summary}
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func dedupeArticles(articles []Article) []Article {
	seen := make(map[string]bool, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		key := a.URL
		if key == "" {
			key = a.Title
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}
