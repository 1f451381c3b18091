package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"dailybrief/pkg/llm"
	"dailybrief/pkg/market"
	"dailybrief/pkg/news"
)

// stageModels routes each stage to a distinct model id so the fake completer
// can tell stages apart; this also exercises per-stage override resolution.
var stageModels = map[string]string{
	StageFetch:     "model-fetch",
	StageAnalysis:  "model-analysis",
	StageFactCheck: "model-factcheck",
	StageTrend:     "model-trend",
	StageWrite:     "model-write",
}

const (
	fetchReply     = `{"category": "technology", "articles": [{"title": "Chipmaker expands", "url": "https://example.com/chips", "source": "Reuters"}, {"title": "Cloud outage resolved", "url": "https://example.com/cloud", "source": "AP"}], "summary": "Two stories dominate."}`
	analysisReply  = `{"insights": "Consolidation continues.", "trends": ["Vertical integration"], "implications": ["Fewer suppliers"]}`
	factCheckReply = `{"verifications": [{"claim": "Capacity doubled", "assessment": "Verified", "explanation": "Confirmed.", "confidence": "High", "sources": []}], "summary": "Material is reliable."}`
	trendReply     = `{"trends": [{"name": "AI capex surge", "description": "Budgets rising.", "strength": "Growing", "timeframe": "Medium-term", "supporting_articles": []}], "meta_trends": [], "summary": "One clear trend."}`
	writeReply     = `{"summary": "Final digest text."}`
)

type stageCompleter struct {
	mu       sync.Mutex
	replies  map[string]string
	failures map[string]error
	delays   map[string]time.Duration
	requests []llm.Request
}

func newStageCompleter() *stageCompleter {
	return &stageCompleter{
		replies: map[string]string{
			"model-fetch":     fetchReply,
			"model-analysis":  analysisReply,
			"model-factcheck": factCheckReply,
			"model-trend":     trendReply,
			"model-write":     writeReply,
		},
		failures: map[string]error{},
		delays:   map[string]time.Duration{},
	}
}

func (f *stageCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	delay := f.delays[req.Model]
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures[req.Model]; err != nil {
		return "", err
	}
	return f.replies[req.Model], nil
}

func (f *stageCompleter) requestFor(model string) (llm.Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.Model == model {
			return r, true
		}
	}
	return llm.Request{}, false
}

type fakeNews struct {
	articles []news.Article
	err      error
}

func (f *fakeNews) TopHeadlines(ctx context.Context, q news.Query) ([]news.Article, error) {
	return f.articles, f.err
}

type fakeQuotes struct {
	quote *market.Quote
	err   error
}

func (f *fakeQuotes) Lookup(ctx context.Context, symbol string) (*market.Quote, error) {
	return f.quote, f.err
}

type fakeSpeech struct {
	path string
	err  error
}

func (f *fakeSpeech) Synthesize(ctx context.Context, text, voice string) (string, error) {
	return f.path, f.err
}

func headlines() []news.Article {
	return []news.Article{
		{Title: "Chipmaker expands", URL: "https://example.com/chips", Source: "Reuters", PublishedAt: time.Now()},
		{Title: "Cloud outage resolved", URL: "https://example.com/cloud", Source: "AP"},
	}
}

func testRequest() Request {
	req := DefaultRequest()
	req.Category = "technology"
	req.ModelOverrides = stageModels
	return req
}

func newTestCoordinator(completer Completer, newsClient NewsFetcher, quotes QuoteLookup, speech SpeechSynthesizer) *Coordinator {
	return NewCoordinator(completer, newsClient, quotes, speech, CoordinatorConfig{
		DefaultModel: "model-default",
		Temperature:  0.4,
	})
}

func stageNames(out *Output) []string {
	names := make([]string, len(out.Stages))
	for i, s := range out.Stages {
		names[i] = s.Stage
	}
	return names
}

func TestRunHappyPath(t *testing.T) {
	completer := newStageCompleter()
	quotes := &fakeQuotes{quote: &market.Quote{Symbol: "ACME", Current: 101.5, PreviousClose: 100}}
	speech := &fakeSpeech{path: "output/2026-08-29/digest_093000.mp3"}
	c := newTestCoordinator(completer, &fakeNews{articles: headlines()}, quotes, speech)

	req := testRequest()
	req.Symbol = "ACME"
	req.GenerateAudio = true

	out, err := c.Run(context.Background(), req)
	assert.Equal(t, nil, err)
	assert.Equal(t, "", out.Error)

	assert.Equal(t, []string{StageFetch, StageAnalysis, StageFactCheck, StageTrend, StageQuote, StageWrite, StageAudio}, stageNames(out))
	for _, s := range out.Stages {
		assert.Equal(t, true, s.Success)
	}

	assert.Equal(t, "Final digest text.", out.Summary)
	assert.Equal(t, "Consolidation continues.", out.Analysis)
	assert.Equal(t, "Material is reliable.", out.FactCheck)
	assert.Equal(t, "One clear trend.", out.Trends)
	assert.Equal(t, "ACME", out.Quote.Symbol)
	assert.Equal(t, speech.path, out.AudioFile)

	assert.Equal(t, true, strings.Contains(out.Markdown, "# Daily Brief: Technology"))
	assert.Equal(t, true, strings.Contains(out.Markdown, "[Chipmaker expands](https://example.com/chips)"))
	assert.Equal(t, true, strings.Contains(out.Markdown, "## Fact Check"))

	// The writer sees the successful optional stages' summaries.
	writeReq, ok := completer.requestFor("model-write")
	assert.Equal(t, true, ok)
	assert.Equal(t, true, strings.Contains(writeReq.User, "Consolidation continues."))
	assert.Equal(t, true, strings.Contains(writeReq.User, "Material is reliable."))
}

func TestRunStageOrderIsDeterministic(t *testing.T) {
	completer := newStageCompleter()
	// Analysis finishes last; its result must still come first.
	completer.delays["model-analysis"] = 50 * time.Millisecond
	quotes := &fakeQuotes{quote: &market.Quote{Symbol: "ACME", Current: 1, PreviousClose: 1}}
	c := newTestCoordinator(completer, &fakeNews{articles: headlines()}, quotes, nil)

	req := testRequest()
	req.Symbol = "ACME"

	out, err := c.Run(context.Background(), req)
	assert.Equal(t, nil, err)
	assert.Equal(t, []string{StageFetch, StageAnalysis, StageFactCheck, StageTrend, StageQuote, StageWrite}, stageNames(out))
}

func TestRunOptionalStagesDisabled(t *testing.T) {
	completer := newStageCompleter()
	c := newTestCoordinator(completer, &fakeNews{articles: headlines()}, nil, nil)

	req := testRequest()
	req.UseFactChecker = false
	req.UseTrendAnalyzer = false

	out, err := c.Run(context.Background(), req)
	assert.Equal(t, nil, err)
	assert.Equal(t, []string{StageFetch, StageAnalysis, StageWrite}, stageNames(out))
	assert.Equal(t, "", out.FactCheck)
	assert.Equal(t, "", out.Trends)
}

func TestRunFetchErrorAborts(t *testing.T) {
	completer := newStageCompleter()
	c := newTestCoordinator(completer, &fakeNews{err: errors.New("provider down")}, nil, nil)

	out, err := c.Run(context.Background(), testRequest())
	assert.Equal(t, nil, err)

	assert.Equal(t, 1, len(out.Stages))
	assert.Equal(t, false, out.Stages[0].Success)
	assert.Equal(t, true, strings.HasPrefix(out.Error, "fetch failed:"))
	assert.Equal(t, "", out.Summary)
}

func TestRunZeroArticlesAborts(t *testing.T) {
	completer := newStageCompleter()
	// The fetch model produces prose with no recoverable articles, so the
	// normalizer lands on the raw tier with an empty list.
	completer.replies["model-fetch"] = "I could not find anything newsworthy today."
	c := newTestCoordinator(completer, &fakeNews{articles: headlines()}, nil, nil)

	out, err := c.Run(context.Background(), testRequest())
	assert.Equal(t, nil, err)

	assert.Equal(t, 1, len(out.Stages))
	assert.Equal(t, true, out.Stages[0].Success)
	assert.Equal(t, "no articles recovered from fetch output", out.Error)
}

func TestRunMiddleStageFailureIsIsolated(t *testing.T) {
	completer := newStageCompleter()
	completer.failures["model-trend"] = errors.New("rate limited")
	c := newTestCoordinator(completer, &fakeNews{articles: headlines()}, nil, nil)

	out, err := c.Run(context.Background(), testRequest())
	assert.Equal(t, nil, err)
	assert.Equal(t, "", out.Error)

	trendStage := out.StageByName(StageTrend)
	assert.Equal(t, false, trendStage.Success)
	assert.Equal(t, "rate limited", trendStage.Error)
	assert.Equal(t, "", out.Trends)

	// Siblings and the final write are untouched.
	assert.Equal(t, true, out.StageByName(StageAnalysis).Success)
	assert.Equal(t, true, out.StageByName(StageFactCheck).Success)
	assert.Equal(t, "Final digest text.", out.Summary)

	writeReq, _ := completer.requestFor("model-write")
	assert.Equal(t, false, strings.Contains(writeReq.User, "One clear trend."))
}

func TestRunQuoteFailureIsIsolated(t *testing.T) {
	completer := newStageCompleter()
	quotes := &fakeQuotes{err: errors.New("unknown symbol")}
	c := newTestCoordinator(completer, &fakeNews{articles: headlines()}, quotes, nil)

	req := testRequest()
	req.Symbol = "NOPE"

	out, err := c.Run(context.Background(), req)
	assert.Equal(t, nil, err)
	assert.Equal(t, "", out.Error)
	assert.Equal(t, false, out.StageByName(StageQuote).Success)
	assert.Equal(t, nil, out.Quote)
	assert.Equal(t, "Final digest text.", out.Summary)
}

func TestRunWriteFailureIsDegraded(t *testing.T) {
	completer := newStageCompleter()
	completer.failures["model-write"] = errors.New("context length exceeded")
	speech := &fakeSpeech{path: "unused.mp3"}
	c := newTestCoordinator(completer, &fakeNews{articles: headlines()}, nil, speech)

	req := testRequest()
	req.GenerateAudio = true

	out, err := c.Run(context.Background(), req)
	assert.Equal(t, nil, err)

	assert.Equal(t, "", out.Summary)
	assert.Equal(t, "", out.Markdown)
	assert.Equal(t, true, strings.HasPrefix(out.Error, "digest writing failed:"))

	// Earlier results are preserved, and no audio stage runs.
	assert.Equal(t, "Consolidation continues.", out.Analysis)
	assert.Equal(t, nil, out.StageByName(StageAudio))
	assert.Equal(t, "", out.AudioFile)
}

func TestRunAudioFailureIsBestEffort(t *testing.T) {
	completer := newStageCompleter()
	speech := &fakeSpeech{err: errors.New("voice unavailable")}
	c := newTestCoordinator(completer, &fakeNews{articles: headlines()}, nil, speech)

	req := testRequest()
	req.GenerateAudio = true

	out, err := c.Run(context.Background(), req)
	assert.Equal(t, nil, err)
	assert.Equal(t, "", out.Error)

	audioStage := out.StageByName(StageAudio)
	assert.Equal(t, false, audioStage.Success)
	assert.Equal(t, "", out.AudioFile)
	assert.Equal(t, "Final digest text.", out.Summary)
}

func TestRunAudioSkippedWhenNotRequested(t *testing.T) {
	completer := newStageCompleter()
	speech := &fakeSpeech{path: "should-not-run.mp3"}
	c := newTestCoordinator(completer, &fakeNews{articles: headlines()}, nil, speech)

	out, err := c.Run(context.Background(), testRequest())
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, out.StageByName(StageAudio))
	assert.Equal(t, "", out.AudioFile)
}

func TestRunInvalidRequest(t *testing.T) {
	completer := newStageCompleter()
	c := newTestCoordinator(completer, &fakeNews{articles: headlines()}, nil, nil)

	req := testRequest()
	req.Count = 0

	out, err := c.Run(context.Background(), req)
	assert.NotEqual(t, nil, err)
	assert.Equal(t, nil, out)
}

func TestRunPatternFetchStillCounts(t *testing.T) {
	completer := newStageCompleter()
	completer.replies["model-fetch"] = `## 1. [Chipmaker expands](https://example.com/chips)

**Source:** Reuters

## 2. [Cloud outage resolved](https://example.com/cloud)
`
	c := newTestCoordinator(completer, &fakeNews{articles: headlines()}, nil, nil)

	out, err := c.Run(context.Background(), testRequest())
	assert.Equal(t, nil, err)
	assert.Equal(t, "", out.Error)

	fetchStage := out.StageByName(StageFetch)
	assert.Equal(t, "pattern", fetchStage.Data["tier"])
	assert.Equal(t, 2, fetchStage.Data["article_count"])
	assert.Equal(t, "Final digest text.", out.Summary)
}
