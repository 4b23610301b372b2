package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/edumatrix/edumatrix-backend/internal/middleware"
	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/service"
	ws "github.com/edumatrix/edumatrix-backend/internal/websocket"
)

const tickInterval = time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler runs a quiz attempt over a WebSocket: server-side countdown,
// per-answer autosave, and exactly-once finalize when the student submits or
// the clock runs out.
type WSHandler struct {
	examService       *service.ExamService
	submissionService *service.SubmissionService
	grace             time.Duration
	log               zerolog.Logger
	upgrader          websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	examService *service.ExamService,
	submissionService *service.SubmissionService,
	grace time.Duration,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		examService:       examService,
		submissionService: submissionService,
		grace:             grace,
		log:               log.With().Str("component", "ws_handler").Logger(),
		upgrader:          buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/student/exams/:exam_id/attempt
// Starts or resumes the attempt, then streams ticks and saves until submit
// or expiry.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil || exam.InstitutionCode != claims.InstitutionCode || exam.Batch != claims.Batch {
		c.JSON(http.StatusNotFound, gin.H{"error": "exam not found"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	ctx := context.Background()

	state, err := h.submissionService.Start(ctx, exam, claims.StudentID)
	if err != nil {
		conn.WriteError(startErrorMessage(err))
		return
	}

	sub, err := h.submissionService.GetByID(ctx, state.SubmissionID)
	if err != nil {
		conn.WriteError("failed to load attempt")
		return
	}

	wsLog := h.log.With().
		Int("student_id", claims.StudentID).
		Str("exam_id", examID.String()).
		Str("submission_id", sub.ID.String()).
		Logger()
	wsLog.Info().Msg("student attached to attempt stream")

	conn.WriteTyped(ws.StateResponse{
		Event:            ws.EventState,
		SubmissionID:     state.SubmissionID.String(),
		Status:           string(state.Status),
		Answers:          state.Answers,
		RemainingSeconds: state.RemainingSeconds,
	})

	runner := &attemptRunner{
		handler: h,
		conn:    conn,
		log:     wsLog,
		exam:    exam,
		sub:     sub,
		answers: state.Answers,
		done:    make(chan struct{}),
	}
	if runner.answers == nil {
		runner.answers = map[string]int{}
	}

	go runner.countdown()
	runner.readLoop()
	close(runner.done)

	wsLog.Info().Msg("student detached from attempt stream")
}

func startErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrExamNotLive):
		return "exam is not live"
	case errors.Is(err, service.ErrNotAnOnlineQuiz):
		return "exam is not an online quiz"
	case errors.Is(err, service.ErrAlreadySubmitted):
		return "attempt already submitted"
	default:
		return "failed to start attempt"
	}
}

// attemptRunner owns one connection's attempt: the countdown goroutine, the
// read loop, and the finalize latch shared between them.
type attemptRunner struct {
	handler *WSHandler
	conn    *ws.Conn
	log     zerolog.Logger
	exam    *model.Exam
	sub     *model.Submission

	mu      sync.Mutex
	answers map[string]int

	finalizeOnce sync.Once
	done         chan struct{}
}

// countdown streams the server-authoritative clock and force-finalizes the
// attempt once the deadline plus grace passes.
func (r *attemptRunner) countdown() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	expireAt := service.Deadline(r.sub.StartedAt, r.exam.DurationMinutes).Add(r.handler.grace)

	for {
		select {
		case <-r.done:
			return
		case now := <-ticker.C:
			if now.After(expireAt) {
				r.expire()
				return
			}
			r.conn.WriteTyped(ws.TickResponse{
				Event:            ws.EventTick,
				RemainingSeconds: service.RemainingSeconds(r.sub.StartedAt, r.exam.DurationMinutes, now),
			})
		}
	}
}

func (r *attemptRunner) readLoop() {
	for {
		var msg ws.Request
		if err := r.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.log.Warn().Err(err).Msg("unexpected close")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			r.handleAnswer(&msg)
		case ws.ActionSync:
			r.handleSync(msg.Answers)
		case ws.ActionSubmit:
			r.finalize(msg.Answers, ws.EventSubmitted)
			return
		case ws.ActionPing:
			r.conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			r.conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

// handleAnswer folds a single answer into the connection's map and saves the
// whole map, keeping the last-writer-wins overwrite semantics.
func (r *attemptRunner) handleAnswer(msg *ws.Request) {
	if msg.QID == "" {
		r.conn.WriteError("q_id is required")
		return
	}
	if _, err := uuid.Parse(msg.QID); err != nil {
		r.conn.WriteError("invalid q_id format")
		return
	}

	r.mu.Lock()
	if msg.Option == nil {
		delete(r.answers, msg.QID)
	} else {
		r.answers[msg.QID] = *msg.Option
	}
	snapshot := copyAnswers(r.answers)
	r.mu.Unlock()

	r.save(snapshot)
}

// handleSync overwrites the connection's map with the client's full map.
func (r *attemptRunner) handleSync(answers map[string]int) {
	if answers == nil {
		r.conn.WriteError("answers are required")
		return
	}

	r.mu.Lock()
	r.answers = copyAnswers(answers)
	r.mu.Unlock()

	r.save(answers)
}

func (r *attemptRunner) save(answers map[string]int) {
	err := r.handler.submissionService.SaveProgress(context.Background(), r.exam, r.sub, answers)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadySubmitted):
			r.conn.WriteError("attempt already submitted")
		case errors.Is(err, service.ErrInvalidQuestion):
			r.conn.WriteError("answer references an unknown question or option")
		default:
			r.log.Error().Err(err).Msg("autosave failed")
			r.conn.WriteError("save failed")
		}
		return
	}
	r.conn.WriteTyped(ws.SavedResponse{Event: ws.EventSaved})
}

// finalize ends the attempt exactly once across the read loop and the
// countdown timer. A nil answer map finalizes with the last autosave.
func (r *attemptRunner) finalize(answers map[string]int, event ws.Event) {
	r.finalizeOnce.Do(func() {
		if answers == nil {
			r.mu.Lock()
			if len(r.answers) > 0 {
				answers = copyAnswers(r.answers)
			}
			r.mu.Unlock()
		}

		final, err := r.handler.submissionService.Finalize(context.Background(), r.exam, r.sub, answers)
		if err != nil {
			if errors.Is(err, service.ErrAlreadySubmitted) {
				// A parallel REST submit won; report it as submitted.
				r.conn.WriteTyped(ws.SubmittedResponse{Event: ws.EventSubmitted})
				return
			}
			r.log.Error().Err(err).Msg("finalize failed")
			r.conn.WriteError("submit failed")
			return
		}

		r.conn.WriteTyped(ws.SubmittedResponse{Event: event, Late: final.Late})
	})
}

// expire is the countdown path: finalize with the last autosaved answers and
// close the stream.
func (r *attemptRunner) expire() {
	r.log.Info().Msg("attempt clock expired, force finalizing")
	r.finalize(nil, ws.EventExpired)
	r.conn.Close()
}

func copyAnswers(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
