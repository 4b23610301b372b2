package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edumatrix/edumatrix-backend/internal/config"
	"github.com/edumatrix/edumatrix-backend/internal/middleware"
	"github.com/edumatrix/edumatrix-backend/internal/response"
	"github.com/edumatrix/edumatrix-backend/internal/service"
)

const (
	monitorRefreshEvery = 15 * time.Second
	monitorPingEvery    = 30 * time.Second
	snapshotTimeout     = 5 * time.Second // one slow query must not stall the stream
)

// MonitorHandler streams live quiz progress to the admin over SSE.
type MonitorHandler struct {
	rdb            *redis.Client
	examService    *service.ExamService
	monitorService *service.MonitorService
	log            zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(
	rdb *redis.Client,
	examService *service.ExamService,
	monitorService *service.MonitorService,
	log zerolog.Logger,
) *MonitorHandler {
	return &MonitorHandler{
		rdb:            rdb,
		examService:    examService,
		monitorService: monitorService,
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorExamSSE godoc
// GET /api/v1/admin/exams/:exam_id/monitor
// Long-lived SSE stream for a running quiz: one snapshot up front, raw
// student events relayed from the exam's Pub/Sub channel, and a periodic
// full re-query so the view self-heals after missed events.
func (h *MonitorHandler) MonitorExamSSE(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil || exam.InstitutionCode != claims.InstitutionCode {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	ctx := c.Request.Context()

	h.setStreamHeaders(c)
	h.pushSnapshot(c, ctx, examID, "snapshot")

	pubsub := h.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID.String()))
	defer pubsub.Close()
	events := pubsub.Channel()

	refresh := time.NewTicker(monitorRefreshEvery)
	defer refresh.Stop()
	ping := time.NewTicker(monitorPingEvery)
	defer ping.Stop()

	// Polling stays off until the first student event arrives, so idle
	// monitors of a not-yet-started quiz cost nothing.
	seenActivity := false

	log := h.log.With().Str("exam_id", examID.String()).Logger()
	log.Info().Msg("admin attached to live monitor SSE")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("admin disconnected from live monitor SSE")
			return

		case msg := <-events:
			// Relay the event as-is; the next refresh tick reconciles.
			writeRawEvent(c, msg.Payload)
			seenActivity = true

		case <-refresh.C:
			if seenActivity {
				h.pushSnapshot(c, ctx, examID, "refresh")
			}

		case <-ping.C:
			writeRawEvent(c, `{"type":"ping"}`)
		}
	}
}

func (h *MonitorHandler) setStreamHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
}

// pushSnapshot queries the current monitoring view and writes one SSE event,
// under its own timeout so the select loop cannot hang on Postgres.
func (h *MonitorHandler) pushSnapshot(c *gin.Context, parentCtx context.Context, examID uuid.UUID, eventType string) {
	ctx, cancel := context.WithTimeout(parentCtx, snapshotTimeout)
	defer cancel()

	snap, err := h.monitorService.Snapshot(ctx, examID)
	if err != nil {
		h.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("failed to build monitor snapshot")
		return
	}

	c.SSEvent("message", map[string]interface{}{
		"type": eventType,
		"data": snap,
	})
	c.Writer.Flush()
}

// writeRawEvent emits a pre-serialized JSON payload as an SSE data frame.
func writeRawEvent(c *gin.Context, payload string) {
	c.Writer.WriteString("data: ")
	c.Writer.WriteString(payload)
	c.Writer.WriteString("\n\n")
	c.Writer.Flush()
}
