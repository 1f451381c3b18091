package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"dailybrief/internal/config"
	"dailybrief/internal/pipeline"
	"dailybrief/internal/report"
	"dailybrief/internal/trace"
	"dailybrief/pkg/llm"
	"dailybrief/pkg/market"
	"dailybrief/pkg/news"
	"dailybrief/pkg/tts"
)

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	defaults := pipeline.DefaultRequest()

	category := flag.String("category", defaults.Category, "news category (business, technology, science, health, sports, entertainment, general)")
	count := flag.Int("count", defaults.Count, "number of articles to include")
	query := flag.String("query", "", "optional topic filter")
	symbol := flag.String("symbol", "", "optional ticker symbol for a market quote")
	country := flag.String("country", "", "optional two-letter country code")
	sources := flag.String("sources", "", "optional comma-separated source ids")
	model := flag.String("model", "", "model id for all stages (overrides DEFAULT_MODEL)")
	models := flag.String("models", "", "per-stage model overrides, comma-separated stage=model pairs")
	voice := flag.String("voice", defaults.Voice, "speech voice for audio output")
	style := flag.String("style", defaults.SummaryStyle, "summary style (formal, conversational, brief)")
	depth := flag.String("depth", defaults.AnalysisDepth, "analysis depth (basic, moderate, deep)")
	audio := flag.Bool("audio", false, "synthesize an mp3 of the digest")
	noFactCheck := flag.Bool("no-fact-check", false, "skip the fact check stage")
	noTrends := flag.Bool("no-trends", false, "skip the trend analysis stage")
	showTrace := flag.Bool("trace", false, "print the span tree after the run")
	flag.Parse()

	cfg := config.Load()
	if *model != "" {
		cfg.DefaultModel = *model
	}

	if cfg.NewsAPIKey == "" {
		log.Fatal("NEWSAPI_API_KEY is not set")
	}

	var openaiClient pipeline.Completer
	if cfg.OpenAIKey != "" {
		openaiClient = llm.NewOpenAIClient(cfg.OpenAIKey)
	}
	var anthropicClient pipeline.Completer
	if cfg.AnthropicKey != "" {
		anthropicClient = llm.NewAnthropicClient(cfg.AnthropicKey)
	}
	if openaiClient == nil && anthropicClient == nil {
		log.Fatal("no LLM API keys configured")
	}

	var quotes pipeline.QuoteLookup
	if cfg.FinnhubKey != "" {
		quotes = market.NewFinnHubClient(cfg.FinnhubKey)
	}

	var speech pipeline.SpeechSynthesizer
	if cfg.OpenAIKey != "" {
		speech = tts.NewOpenAIClient(cfg.OpenAIKey, cfg.OutputDir)
	}

	recorder := trace.NewRecorder()
	coordinator := pipeline.NewCoordinator(
		llm.NewRouter(openaiClient, anthropicClient),
		news.NewNewsAPIClient(cfg.NewsAPIKey),
		quotes,
		speech,
		pipeline.CoordinatorConfig{
			DefaultModel: cfg.DefaultModel,
			Temperature:  cfg.Temperature,
			StageTimeout: cfg.StageTimeout,
			Tracer:       recorder,
		},
	)

	req := pipeline.DefaultRequest()
	req.Category = *category
	req.Count = *count
	req.Query = *query
	req.Symbol = *symbol
	req.Country = *country
	req.Sources = *sources
	req.Voice = *voice
	req.SummaryStyle = *style
	req.AnalysisDepth = *depth
	req.GenerateAudio = *audio
	req.UseFactChecker = !*noFactCheck
	req.UseTrendAnalyzer = !*noTrends
	req.ModelOverrides = parseModelOverrides(*models)

	out, err := coordinator.Run(context.Background(), req)
	if err != nil {
		log.Fatalf("invalid request: %v", err)
	}

	if *showTrace {
		printSpans(recorder)
	}

	if out.Error != "" {
		fmt.Fprintf(os.Stderr, "digest failed: %s\n", out.Error)
		os.Exit(1)
	}

	reports := report.NewWriter(cfg.OutputDir)
	if path, err := reports.SaveMarkdown(out, req.Category); err != nil {
		slog.Error("error writing markdown report", "error", err)
	} else {
		fmt.Fprintf(os.Stderr, "report: %s\n", path)
	}
	if _, err := reports.SaveText(out, req.Category); err != nil {
		slog.Error("error writing text report", "error", err)
	}
	if out.AudioFile != "" {
		fmt.Fprintf(os.Stderr, "audio: %s\n", out.AudioFile)
	}

	fmt.Println(out.Summary)
}

func parseModelOverrides(arg string) map[string]string {
	if arg == "" {
		return nil
	}
	overrides := make(map[string]string)
	for _, pair := range strings.Split(arg, ",") {
		stage, model, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || stage == "" || model == "" {
			slog.Warn("ignoring malformed model override", "pair", pair)
			continue
		}
		overrides[stage] = model
	}
	return overrides
}

func printSpans(recorder *trace.Recorder) {
	for _, span := range recorder.Snapshot() {
		indent := ""
		if span.ParentID != 0 {
			indent = "  "
		}
		status := "ok"
		if span.Error != nil {
			status = "error"
		}
		fmt.Fprintf(os.Stderr, "%s%s [%s] %s\n", indent, span.Name, status, span.Ended.Sub(span.Started))
	}
}
