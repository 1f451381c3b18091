package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"dailybrief/internal/trace"
	"dailybrief/pkg/llm"
	"dailybrief/pkg/market"
	"dailybrief/pkg/news"
)

// Completer is the LLM surface the coordinator needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// NewsFetcher supplies raw headlines for the fetch stage.
type NewsFetcher interface {
	TopHeadlines(ctx context.Context, q news.Query) ([]news.Article, error)
}

// QuoteLookup resolves a ticker symbol to a market quote.
type QuoteLookup interface {
	Lookup(ctx context.Context, symbol string) (*market.Quote, error)
}

// SpeechSynthesizer renders text to an audio file and returns its path.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (string, error)
}

// Coordinator drives one digest run end to end: fetch, the optional middle
// stages fanned out concurrently, the final write, and best-effort audio.
// A fetch failure aborts the run; a middle-stage failure only costs that
// stage's contribution.
type Coordinator struct {
	completer   Completer
	newsClient  NewsFetcher
	quotes      QuoteLookup
	tts         SpeechSynthesizer
	tracer      trace.Tracer
	executor    *Executor
	model       string
	temperature float64
}

type CoordinatorConfig struct {
	DefaultModel string
	Temperature  float64
	StageTimeout time.Duration
	Tracer       trace.Tracer
}

func NewCoordinator(completer Completer, newsClient NewsFetcher, quotes QuoteLookup, tts SpeechSynthesizer, cfg CoordinatorConfig) *Coordinator {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = trace.Nop()
	}
	return &Coordinator{
		completer:   completer,
		newsClient:  newsClient,
		quotes:      quotes,
		tts:         tts,
		tracer:      tracer,
		executor:    NewExecutor(cfg.StageTimeout),
		model:       cfg.DefaultModel,
		temperature: cfg.Temperature,
	}
}

// Run executes the pipeline for one request. The error return covers only
// structurally invalid requests; every runtime failure is reported through
// the Output instead.
func (c *Coordinator) Run(ctx context.Context, req Request) (*Output, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	run := c.tracer.StartSpan("pipeline_run", map[string]any{
		"category": req.Category,
		"count":    req.Count,
	})
	defer run.Close()

	resolver := NewModelResolver(req.ModelOverrides, c.model)
	out := &Output{}

	fetchResult, fetchRec := c.runFetch(ctx, run, req, resolver)
	out.Stages = append(out.Stages, fetchResult)

	fetch, ok := fetchRec.(*FetchRecord)
	if !fetchResult.Success || !ok || len(fetch.Articles) == 0 {
		out.Error = fetchFailureMessage(fetchResult, fetch)
		run.SetError(map[string]any{"message": out.Error})
		slog.Error("pipeline aborted", "category", req.Category, "error", out.Error)
		return out, nil
	}

	middle := c.runMiddleStages(ctx, run, req, resolver, fetch)
	sections := make([]contextSection, 0, len(middle))
	for _, m := range middle {
		out.Stages = append(out.Stages, m.result)
		if !m.result.Success {
			continue
		}
		switch m.stage {
		case StageAnalysis:
			out.Analysis = m.record.Summary()
			sections = append(sections, contextSection{Title: "Analysis", Body: m.record.Summary()})
		case StageFactCheck:
			out.FactCheck = m.record.Summary()
			sections = append(sections, contextSection{Title: "Fact check", Body: m.record.Summary()})
		case StageTrend:
			out.Trends = m.record.Summary()
			sections = append(sections, contextSection{Title: "Trends", Body: m.record.Summary()})
		case StageQuote:
			out.Quote = m.quote
			if m.quote != nil {
				sections = append(sections, contextSection{Title: "Market quote", Body: m.quote.Describe()})
			}
		}
	}

	writeResult, writeRec := c.runWrite(ctx, run, req, resolver, fetch, sections)
	out.Stages = append(out.Stages, writeResult)
	if !writeResult.Success {
		out.Error = fmt.Sprintf("digest writing failed: %s", writeResult.Error)
		run.SetData(map[string]any{"status": "degraded"})
		return out, nil
	}

	out.Summary = writeRec.Summary()
	out.Markdown = buildMarkdown(fetch, out)

	if req.GenerateAudio {
		audioResult := c.runAudio(ctx, run, req, out.Summary)
		out.Stages = append(out.Stages, audioResult)
		if audioResult.Success {
			if path, ok := audioResult.Data["audio_file"].(string); ok {
				out.AudioFile = path
			}
		}
	}

	run.SetData(map[string]any{"status": "success", "stages": len(out.Stages)})
	return out, nil
}

func (c *Coordinator) runFetch(ctx context.Context, run trace.Span, req Request, resolver ModelResolver) (StageResult, Record) {
	model := resolver.Resolve(StageFetch)
	return c.executor.Execute(ctx, run, StageFetch, Invocation{
		Kind: KindFetch,
		Meta: map[string]any{"category": req.Category, "model": model},
		Call: func(ctx context.Context) (string, error) {
			headlines, err := c.newsClient.TopHeadlines(ctx, news.Query{
				Category: req.Category,
				Query:    req.Query,
				Country:  req.Country,
				Sources:  req.Sources,
				PageSize: req.Count * 2,
			})
			if err != nil {
				return "", fmt.Errorf("fetching headlines: %w", err)
			}
			if len(headlines) == 0 {
				return "", fmt.Errorf("no headlines returned for category %q", req.Category)
			}
			return c.completer.Complete(ctx, llm.Request{
				System:      fetchSystemPrompt,
				User:        fetchUserPrompt(req, articlesFromHeadlines(headlines)),
				Model:       model,
				Temperature: c.temperature,
			})
		},
	})
}

// middleOutcome pairs a fanned-out stage's result with its typed payload.
type middleOutcome struct {
	stage  string
	result StageResult
	record Record
	quote  *market.Quote
}

// runMiddleStages fans the optional stages out concurrently and waits for all
// of them. Slot indices fix the output order to the scheduling order, so the
// result list is deterministic regardless of completion order.
func (c *Coordinator) runMiddleStages(ctx context.Context, run trace.Span, req Request, resolver ModelResolver, fetch *FetchRecord) []middleOutcome {
	type scheduled struct {
		stage string
		exec  func(ctx context.Context) middleOutcome
	}

	var plan []scheduled
	plan = append(plan, scheduled{StageAnalysis, func(ctx context.Context) middleOutcome {
		return c.runAnalysis(ctx, run, req, resolver, fetch)
	}})
	if req.UseFactChecker {
		plan = append(plan, scheduled{StageFactCheck, func(ctx context.Context) middleOutcome {
			return c.runFactCheck(ctx, run, req, resolver, fetch)
		}})
	}
	if req.UseTrendAnalyzer {
		plan = append(plan, scheduled{StageTrend, func(ctx context.Context) middleOutcome {
			return c.runTrend(ctx, run, req, resolver, fetch)
		}})
	}
	if req.Symbol != "" {
		plan = append(plan, scheduled{StageQuote, func(ctx context.Context) middleOutcome {
			return c.runQuote(ctx, run, req)
		}})
	}

	outcomes := make([]middleOutcome, len(plan))
	var wg sync.WaitGroup
	for i, s := range plan {
		wg.Add(1)
		go func(slot int, s scheduled) {
			defer wg.Done()
			outcomes[slot] = s.exec(ctx)
		}(i, s)
	}
	wg.Wait()

	return outcomes
}

func (c *Coordinator) runAnalysis(ctx context.Context, run trace.Span, req Request, resolver ModelResolver, fetch *FetchRecord) middleOutcome {
	model := resolver.Resolve(StageAnalysis)
	depth := req.AnalysisDepth
	if depth == "" {
		depth = DefaultAnalysisDepth
	}
	result, rec := c.executor.Execute(ctx, run, StageAnalysis, Invocation{
		Kind: KindAnalysis,
		Meta: map[string]any{"model": model, "depth": depth},
		Call: func(ctx context.Context) (string, error) {
			return c.completer.Complete(ctx, llm.Request{
				System:      fmt.Sprintf(analysisSystemPromptTemplate, depth),
				User:        analysisUserPrompt(fetch),
				Model:       model,
				Temperature: c.temperature,
			})
		},
	})
	return middleOutcome{stage: StageAnalysis, result: result, record: rec}
}

func (c *Coordinator) runFactCheck(ctx context.Context, run trace.Span, req Request, resolver ModelResolver, fetch *FetchRecord) middleOutcome {
	model := resolver.Resolve(StageFactCheck)
	maxClaims := req.MaxClaims
	if maxClaims == 0 {
		maxClaims = DefaultMaxClaims
	}
	result, rec := c.executor.Execute(ctx, run, StageFactCheck, Invocation{
		Kind: KindFactCheck,
		Meta: map[string]any{"model": model, "max_claims": maxClaims},
		Call: func(ctx context.Context) (string, error) {
			return c.completer.Complete(ctx, llm.Request{
				System:      fmt.Sprintf(factCheckSystemPromptTemplate, maxClaims),
				User:        factCheckUserPrompt(fetch),
				Model:       model,
				Temperature: c.temperature,
			})
		},
	})
	return middleOutcome{stage: StageFactCheck, result: result, record: rec}
}

func (c *Coordinator) runTrend(ctx context.Context, run trace.Span, req Request, resolver ModelResolver, fetch *FetchRecord) middleOutcome {
	model := resolver.Resolve(StageTrend)
	result, rec := c.executor.Execute(ctx, run, StageTrend, Invocation{
		Kind: KindTrend,
		Meta: map[string]any{"model": model},
		Call: func(ctx context.Context) (string, error) {
			return c.completer.Complete(ctx, llm.Request{
				System:      trendSystemPrompt,
				User:        trendUserPrompt(fetch),
				Model:       model,
				Temperature: c.temperature,
			})
		},
	})
	return middleOutcome{stage: StageTrend, result: result, record: rec}
}

func (c *Coordinator) runQuote(ctx context.Context, run trace.Span, req Request) middleOutcome {
	var quote *market.Quote
	result := c.executor.ExecuteTool(ctx, run, StageQuote, map[string]any{"symbol": req.Symbol}, func(ctx context.Context) (map[string]any, error) {
		if c.quotes == nil {
			return nil, fmt.Errorf("no quote client configured")
		}
		q, err := c.quotes.Lookup(ctx, req.Symbol)
		if err != nil {
			return nil, err
		}
		quote = q
		return map[string]any{"quote": q, "symbol": q.Symbol, "summary": q.Describe()}, nil
	})
	return middleOutcome{stage: StageQuote, result: result, quote: quote}
}

func (c *Coordinator) runWrite(ctx context.Context, run trace.Span, req Request, resolver ModelResolver, fetch *FetchRecord, sections []contextSection) (StageResult, Record) {
	model := resolver.Resolve(StageWrite)
	style := req.SummaryStyle
	if style == "" {
		style = DefaultSummaryStyle
	}
	return c.executor.Execute(ctx, run, StageWrite, Invocation{
		Kind: KindWrite,
		Meta: map[string]any{"model": model, "style": style},
		Call: func(ctx context.Context) (string, error) {
			return c.completer.Complete(ctx, llm.Request{
				System:      fmt.Sprintf(writeSystemPromptTemplate, style, defaultWriteMaxWords),
				User:        writeUserPrompt(fetch, sections),
				Model:       model,
				Temperature: c.temperature,
			})
		},
	})
}

func (c *Coordinator) runAudio(ctx context.Context, run trace.Span, req Request, text string) StageResult {
	voice := req.Voice
	if voice == "" {
		voice = DefaultVoice
	}
	return c.executor.ExecuteTool(ctx, run, StageAudio, map[string]any{"voice": voice}, func(ctx context.Context) (map[string]any, error) {
		if c.tts == nil {
			return nil, fmt.Errorf("no speech client configured")
		}
		path, err := c.tts.Synthesize(ctx, text, voice)
		if err != nil {
			return nil, err
		}
		return map[string]any{"audio_file": path, "voice": voice}, nil
	})
}

func fetchFailureMessage(result StageResult, fetch *FetchRecord) string {
	if !result.Success {
		return fmt.Sprintf("fetch failed: %s", result.Error)
	}
	if fetch == nil {
		return "fetch produced no usable result"
	}
	return "no articles recovered from fetch output"
}

func articlesFromHeadlines(headlines []news.Article) []Article {
	out := make([]Article, 0, len(headlines))
	for _, h := range headlines {
		published := ""
		if !h.PublishedAt.IsZero() {
			published = h.PublishedAt.Format(time.RFC3339)
		}
		out = append(out, Article{
			Title:       h.Title,
			Description: h.Description,
			URL:         h.URL,
			Source:      h.Source,
			PublishedAt: published,
		})
	}
	return out
}

// buildMarkdown renders the finished digest as a markdown document.
func buildMarkdown(fetch *FetchRecord, out *Output) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Daily Brief: %s\n\n", titleCase(fetch.Category)))
	sb.WriteString("## Summary\n\n")
	sb.WriteString(out.Summary)
	sb.WriteString("\n\n## Articles\n\n")
	for i, a := range fetch.Articles {
		sb.WriteString(fmt.Sprintf("### %d. [%s](%s)\n\n", i+1, a.Title, a.URL))
		if a.Source != "" {
			sb.WriteString(fmt.Sprintf("**Source:** %s\n\n", a.Source))
		}
		if a.PublishedAt != "" {
			sb.WriteString(fmt.Sprintf("**Published At:** %s\n\n", a.PublishedAt))
		}
		if a.Description != "" {
			sb.WriteString(a.Description)
			sb.WriteString("\n\n")
		}
	}
	if out.Analysis != "" {
		sb.WriteString("## Analysis\n\n")
		sb.WriteString(out.Analysis)
		sb.WriteString("\n\n")
	}
	if out.FactCheck != "" {
		sb.WriteString("## Fact Check\n\n")
		sb.WriteString(out.FactCheck)
		sb.WriteString("\n\n")
	}
	if out.Trends != "" {
		sb.WriteString("## Trends\n\n")
		sb.WriteString(out.Trends)
		sb.WriteString("\n\n")
	}
	if out.Quote != nil {
		sb.WriteString("## Market Quote\n\n")
		sb.WriteString(out.Quote.Describe())
		sb.WriteString("\n")
	}
	return sb.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
