package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/matricula/matricula/internal/response"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// QueueDepther reports how many audit events await persistence.
type QueueDepther interface {
	QueueDepth(ctx context.Context) (int64, error)
}

// SystemHandler serves liveness and runtime status.
type SystemHandler struct {
	db        Pinger
	queue     QueueDepther
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler. db and queue may be nil.
func NewSystemHandler(db Pinger, queue QueueDepther, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		queue:     queue,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// Health godoc
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type systemStatus struct {
	Uptime     string `json:"uptime"`
	Database   string `json:"database"`
	AuditQueue int64  `json:"audit_queue"`
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
}

// Status godoc
// GET /api/v1/system/status
// Reports dependency reachability and Go runtime figures.
func (h *SystemHandler) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	st := systemStatus{
		Uptime:    formatDuration(time.Since(h.startTime)),
		Database:  "ok",
		GoVersion: runtime.Version(),
	}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Database ping failed")
			st.Database = "unreachable"
		}
	}

	if h.queue != nil {
		depth, err := h.queue.QueueDepth(ctx)
		if err != nil {
			h.log.Warn().Err(err).Msg("Queue depth failed")
		}
		st.AuditQueue = depth
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	st.Goroutines = runtime.NumGoroutine()
	st.HeapAlloc = ms.HeapAlloc
	st.NumGC = ms.NumGC

	response.Success(c, http.StatusOK, st)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
