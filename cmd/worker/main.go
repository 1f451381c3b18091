package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"dailybrief/db"
	"dailybrief/internal/config"
	"dailybrief/internal/model"
	"dailybrief/internal/pipeline"
	"dailybrief/internal/report"
	"dailybrief/internal/repository"
	"dailybrief/internal/trace"
	"dailybrief/pkg/llm"
	"dailybrief/pkg/market"
	"dailybrief/pkg/news"
	"dailybrief/pkg/tts"
)

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()

	err := db.ConnectRedis()
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer db.CloseRedis()

	err = db.Connect()
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

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
	completer := llm.NewRouter(openaiClient, anthropicClient)

	newsClient := news.NewNewsAPIClient(cfg.NewsAPIKey)

	var quotes pipeline.QuoteLookup
	if cfg.FinnhubKey != "" {
		quotes = market.NewFinnHubClient(cfg.FinnhubKey)
	}

	var speech pipeline.SpeechSynthesizer
	if cfg.OpenAIKey != "" {
		speech = tts.NewOpenAIClient(cfg.OpenAIKey, cfg.OutputDir)
	}

	digestRepo := repository.NewDigestRepository(db.DB)
	reports := report.NewWriter(cfg.OutputDir)

	const maxRetries = 3

	slog.Info("worker started", "queue", db.DigestQueueKey, "model", cfg.DefaultModel)

	for {
		data, err := db.PopFromQueue(db.DigestQueueKey, 0)
		if err != nil {
			slog.Error("error popping from Redis queue", "error", err)
			break
		}

		var job model.DigestJob
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			slog.Error("invalid job in queue", "error", err)
			db.PushToQueue(db.DeadLetterKey, data)
			continue
		}

		var req pipeline.Request
		if err := json.Unmarshal(job.Request, &req); err != nil {
			slog.Error("invalid request in job", "job_id", job.ID, "error", err)
			db.PushToQueue(db.DeadLetterKey, data)
			continue
		}

		recorder := trace.NewRecorder()
		coordinator := pipeline.NewCoordinator(completer, newsClient, quotes, speech, pipeline.CoordinatorConfig{
			DefaultModel: cfg.DefaultModel,
			Temperature:  cfg.Temperature,
			StageTimeout: cfg.StageTimeout,
			Tracer:       recorder,
		})

		started := time.Now()
		out, err := coordinator.Run(context.Background(), req)
		if err != nil {
			slog.Error("rejected digest request", "job_id", job.ID, "error", err)
			db.PushToQueue(db.DeadLetterKey, data)
			continue
		}

		spans := recorder.Snapshot()
		slog.Info("digest run finished",
			"job_id", job.ID,
			"category", req.Category,
			"duration", time.Since(started).String(),
			"spans", len(spans),
			"degraded", out.Error != "",
		)

		digest := digestFromOutput(req, out)
		if err := digestRepo.Save(digest); err != nil {
			slog.Error("error saving digest", "job_id", job.ID, "error", err)
			db.PushToQueue(db.DeadLetterKey, data)
			continue
		}

		// Runs that produced no digest text get requeued a few times before
		// landing in the dead letter queue.
		if out.Summary == "" && out.Error != "" {
			job.Attempts++
			if job.Attempts >= maxRetries {
				slog.Warn("job exceeded max retries, dead-lettering", "job_id", job.ID, "attempts", job.Attempts)
				db.PushToQueue(db.DeadLetterKey, data)
			} else if retry, err := json.Marshal(job); err == nil {
				slog.Warn("requeueing failed job", "job_id", job.ID, "attempts", job.Attempts)
				db.PushToQueue(db.DigestQueueKey, string(retry))
			}
			continue
		}

		if out.Summary != "" {
			if path, err := reports.SaveMarkdown(out, req.Category); err != nil {
				slog.Error("error writing markdown report", "job_id", job.ID, "error", err)
			} else {
				slog.Info("markdown report written", "job_id", job.ID, "path", path)
			}
			if _, err := reports.SaveText(out, req.Category); err != nil {
				slog.Error("error writing text report", "job_id", job.ID, "error", err)
			}
		}

		slog.Info("digest saved", "job_id", job.ID, "digest_id", digest.ID, "status", digest.Status)
	}
}

func digestFromOutput(req pipeline.Request, out *pipeline.Output) *model.Digest {
	stages, err := json.Marshal(out.Stages)
	if err != nil {
		slog.Error("error serializing stage results", "error", err)
		stages = nil
	}

	status := model.StatusCompleted
	if out.Error != "" {
		status = model.StatusFailed
	}

	digest := &model.Digest{
		Category:  req.Category,
		Summary:   out.Summary,
		Markdown:  out.Markdown,
		Analysis:  out.Analysis,
		FactCheck: out.FactCheck,
		Trends:    out.Trends,
		AudioFile: out.AudioFile,
		Status:    status,
		Error:     out.Error,
		Stages:    stages,
	}
	if out.Quote != nil {
		digest.QuoteSymbol = out.Quote.Symbol
	}
	return digest
}
