package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dailybrief/internal/model"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

type DigestStore interface {
	GetByID(id int64) (*model.Digest, error)
	GetLatest(category string) (*model.Digest, error)
	List(limit, offset int) ([]model.Digest, error)
	Total() (int, error)
}

// JobQueue accepts serialized digest jobs for the worker.
type JobQueue interface {
	Push(data string) error
	Length() (int64, error)
}

type DigestHandler struct {
	repository DigestStore
	queue      JobQueue
}

func NewDigestHandler(repository DigestStore, queue JobQueue) *DigestHandler {
	return &DigestHandler{repository: repository, queue: queue}
}

// CreateDigest validates the request and enqueues it for the worker. The
// digest itself is produced asynchronously.
func (h *DigestHandler) CreateDigest(c *gin.Context) {
	var body CreateDigestRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req := body.toPipelineRequest()
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload, err := json.Marshal(req)
	if err != nil {
		slog.Error("error serializing digest request", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	job := model.DigestJob{
		ID:         uuid.NewString(),
		Request:    payload,
		EnqueuedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		slog.Error("error serializing digest job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	if err := h.queue.Push(string(data)); err != nil {
		slog.Error("error enqueueing digest job", "job_id", job.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Queue error"})
		return
	}

	slog.Info("digest job enqueued", "job_id", job.ID, "category", req.Category)
	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": model.StatusPending})
}

func (h *DigestHandler) GetDigests(c *gin.Context) {
	limit := getLimit(c)
	offset := getQueryInt("offset", 0, c)

	digests, err := h.repository.List(limit, offset)
	if err != nil {
		slog.Error("error fetching digests", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	total, err := h.repository.Total()
	if err != nil {
		slog.Error("error fetching digest total", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := DigestsResponse{
		Digests: []DigestResponse{},
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}
	for _, d := range digests {
		res.Digests = append(res.Digests, toDigestResponse(d))
	}

	c.JSON(http.StatusOK, res)
}

func (h *DigestHandler) GetDigest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid digest id"})
		return
	}

	digest, err := h.repository.GetByID(id)
	if err != nil {
		slog.Error("error fetching digest", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if digest == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Digest not found"})
		return
	}

	c.JSON(http.StatusOK, toDigestResponse(*digest))
}

func (h *DigestHandler) GetLatestDigest(c *gin.Context) {
	digest, err := h.repository.GetLatest(c.Query("category"))
	if err != nil {
		slog.Error("error fetching latest digest", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if digest == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No digest available"})
		return
	}

	c.JSON(http.StatusOK, toDigestResponse(*digest))
}

func (h *DigestHandler) GetHealth(c *gin.Context) {
	res := gin.H{"status": "ok"}

	if h.queue != nil {
		length, err := h.queue.Length()
		if err != nil {
			slog.Error("error reading queue length", "error", err)
			res["queue"] = "unavailable"
		} else {
			res["queue_length"] = length
		}
	}

	c.JSON(http.StatusOK, res)
}

func getQueryInt(name string, defaultValue int, c *gin.Context) int {
	param := c.Query(name)

	if param == "" {
		return defaultValue
	}

	parsedValue, err := strconv.Atoi(param)
	if err != nil {
		slog.Warn("invalid query parameter, using default", "param", name, "value", param, "error", err)
		return defaultValue
	}

	return parsedValue
}

func getLimit(c *gin.Context) int {
	limit := getQueryInt("limit", defaultLimit, c)
	if limit < 1 {
		slog.Warn("invalid query parameter, using default", "param", "limit", "value", limit, "default", defaultLimit)
		return defaultLimit
	}

	if limit > maxLimit {
		slog.Warn("query parameter exceeds max, clamping", "param", "limit", "value", limit, "max", maxLimit)
		return maxLimit
	}

	return limit
}
