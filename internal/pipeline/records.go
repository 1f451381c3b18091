package pipeline

// StageKind selects which record shape and extraction rules the normalizer
// applies to a stage's raw output. Only LLM-backed stages have a kind; tool
// stages (quote, audio) produce typed payloads and skip the cascade.
type StageKind string

const (
	KindFetch     StageKind = "fetch"
	KindAnalysis  StageKind = "analysis"
	KindFactCheck StageKind = "factcheck"
	KindTrend     StageKind = "trend"
	KindWrite     StageKind = "write"
)

// Tier reports which level of the normalization cascade produced a record.
type Tier int

const (
	TierStrict Tier = iota + 1
	TierPattern
	TierRaw
)

func (t Tier) String() string {
	switch t {
	case TierStrict:
		return "strict"
	case TierPattern:
		return "pattern"
	case TierRaw:
		return "raw"
	}
	return "unknown"
}

// Record is the typed result of normalizing one stage's raw output. Every
// record carries a usable summary string even when structured extraction
// failed, and collection fields are always non-nil.
type Record interface {
	Kind() StageKind
	Tier() Tier
	Summary() string
	Data() map[string]any
}

// Article is the normalized article shape recovered from the fetch stage.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
}

type FetchRecord struct {
	ExtractionTier Tier
	Category       string
	Articles       []Article
	SummaryText    string
}

func (r *FetchRecord) Kind() StageKind { return KindFetch }
func (r *FetchRecord) Tier() Tier      { return r.ExtractionTier }
func (r *FetchRecord) Summary() string { return r.SummaryText }

func (r *FetchRecord) Data() map[string]any {
	return map[string]any{
		"category":      r.Category,
		"article_count": len(r.Articles),
		"articles":      r.Articles,
		"summary":       r.SummaryText,
		"tier":          r.ExtractionTier.String(),
	}
}

type AnalysisRecord struct {
	ExtractionTier Tier
	Insights       string
	Trends         []string
	Implications   []string
}

func (r *AnalysisRecord) Kind() StageKind { return KindAnalysis }
func (r *AnalysisRecord) Tier() Tier      { return r.ExtractionTier }
func (r *AnalysisRecord) Summary() string { return r.Insights }

func (r *AnalysisRecord) Data() map[string]any {
	return map[string]any{
		"insights":     r.Insights,
		"trends":       r.Trends,
		"implications": r.Implications,
		"summary":      r.Insights,
		"tier":         r.ExtractionTier.String(),
	}
}

// Verification is one fact-check outcome.
type Verification struct {
	Claim       string   `json:"claim"`
	Assessment  string   `json:"assessment"`
	Explanation string   `json:"explanation"`
	Confidence  string   `json:"confidence"`
	Sources     []string `json:"sources"`
}

type FactCheckRecord struct {
	ExtractionTier Tier
	Verifications  []Verification
	SummaryText    string
}

func (r *FactCheckRecord) Kind() StageKind { return KindFactCheck }
func (r *FactCheckRecord) Tier() Tier      { return r.ExtractionTier }
func (r *FactCheckRecord) Summary() string { return r.SummaryText }

func (r *FactCheckRecord) Data() map[string]any {
	return map[string]any{
		"verifications": r.Verifications,
		"summary":       r.SummaryText,
		"tier":          r.ExtractionTier.String(),
	}
}

// Trend is one identified news trend.
type Trend struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Strength           string   `json:"strength"`
	Timeframe          string   `json:"timeframe"`
	SupportingArticles []string `json:"supporting_articles"`
}

type TrendRecord struct {
	ExtractionTier Tier
	Trends         []Trend
	MetaTrends     []string
	SummaryText    string
}

func (r *TrendRecord) Kind() StageKind { return KindTrend }
func (r *TrendRecord) Tier() Tier      { return r.ExtractionTier }
func (r *TrendRecord) Summary() string { return r.SummaryText }

func (r *TrendRecord) Data() map[string]any {
	return map[string]any{
		"trends":      r.Trends,
		"meta_trends": r.MetaTrends,
		"summary":     r.SummaryText,
		"tier":        r.ExtractionTier.String(),
	}
}

type WriteRecord struct {
	ExtractionTier Tier
	SummaryText    string
}

func (r *WriteRecord) Kind() StageKind { return KindWrite }
func (r *WriteRecord) Tier() Tier      { return r.ExtractionTier }
func (r *WriteRecord) Summary() string { return r.SummaryText }

func (r *WriteRecord) Data() map[string]any {
	return map[string]any{
		"summary": r.SummaryText,
		"tier":    r.ExtractionTier.String(),
	}
}
