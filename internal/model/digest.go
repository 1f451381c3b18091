package model

import (
	"encoding/json"
	"time"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Digest is one persisted pipeline run.
type Digest struct {
	ID          int64
	Category    string
	Summary     string
	Markdown    string
	Analysis    string
	FactCheck   string
	Trends      string
	QuoteSymbol string
	AudioFile   string
	Status      string
	Error       string
	Stages      json.RawMessage
	CreatedAt   time.Time
}

// DigestJob is one queued run request. Request is the serialized pipeline
// request; the worker owns its schema. Attempts counts failed runs so the
// worker can stop requeueing a hopeless job.
type DigestJob struct {
	ID         string          `json:"id"`
	Request    json.RawMessage `json:"request"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}
