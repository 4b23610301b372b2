package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/edumatrix/edumatrix-backend/internal/config"
	"github.com/edumatrix/edumatrix-backend/internal/database"
	"github.com/edumatrix/edumatrix-backend/internal/fallback"
	"github.com/edumatrix/edumatrix-backend/internal/handler"
	"github.com/edumatrix/edumatrix-backend/internal/logger"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
	"github.com/edumatrix/edumatrix-backend/internal/router"
	"github.com/edumatrix/edumatrix-backend/internal/service"
	"github.com/edumatrix/edumatrix-backend/internal/validator"
	"github.com/edumatrix/edumatrix-backend/internal/worker"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting EduMatrix Backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Postgres and Redis are both hard requirements; refuse to start without
	// either one.
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// The SQLite mirror keeps finished attempts when Postgres is down. It is
	// best-effort: failing to open it degrades, not aborts.
	var fallbackStore *fallback.Store
	if cfg.FallbackDBPath != "" {
		fallbackStore, err = fallback.Open(ctx, cfg.FallbackDBPath)
		if err != nil {
			log.Warn().Err(err).Msg("Fallback store unavailable, continuing without it")
			fallbackStore = nil
		} else {
			defer fallbackStore.Close()
		}
	}

	// Repositories.
	institutionRepo := repository.NewInstitutionRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	monitorRepo := repository.NewMonitorRepository(pool, rdb)
	resultRepo := repository.NewResultRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	fileRepo := repository.NewFileRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)

	// Services.
	authService := service.NewAuthService(cfg, rdb)
	institutionService := service.NewInstitutionService(institutionRepo, authService)
	studentService := service.NewStudentService(studentRepo, authService)
	examService := service.NewExamService(examRepo, questionRepo, rdb, log)
	submissionService := service.NewSubmissionService(submissionRepo, questionRepo, monitorRepo, fallbackStore, rdb, cfg.SubmitGrace, log)
	monitorService := service.NewMonitorService(monitorRepo)
	resultService := service.NewResultService(resultRepo)
	attendanceService := service.NewAttendanceService(attendanceRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	mediaService := service.NewMediaService(cfg, fileRepo)
	feedbackService := service.NewFeedbackService(feedbackRepo)

	insightService, err := service.NewInsightService(ctx, resultRepo, cfg.GeminiAPIKey)
	if err != nil {
		log.Warn().Err(err).Msg("AI insights unavailable")
		insightService, _ = service.NewInsightService(ctx, resultRepo, "")
	}
	defer insightService.Close()

	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(institutionService, studentService, authService),
		StudentMgmt:  handler.NewStudentManagementHandler(studentService),
		Exam:         handler.NewExamHandler(examService, submissionService),
		Quiz:         handler.NewQuizHandler(examService, submissionService),
		WS:           handler.NewWSHandler(examService, submissionService, cfg.SubmitGrace, log, cfg.AllowedOrigins),
		Monitor:      handler.NewMonitorHandler(rdb, examService, monitorService, log),
		Result:       handler.NewResultHandler(resultService, studentService),
		Attendance:   handler.NewAttendanceHandler(attendanceService, studentService),
		Notification: handler.NewNotificationHandler(notificationService, studentService),
		File:         handler.NewFileHandler(mediaService, studentService),
		Feedback:     handler.NewFeedbackHandler(feedbackService),
		Insight:      handler.NewInsightHandler(insightService),
		System:       handler.NewSystemHandler(rdb, log),
	}

	// Workers run on their own context so HTTP shutdown and queue draining
	// can be ordered explicitly below.
	workerCtx, stopWorkers := context.WithCancel(context.Background())

	go worker.NewAutosaveWorker(submissionRepo, rdb, log).Start(workerCtx)
	go worker.NewScoreSyncWorker(rdb, submissionRepo, questionRepo, log).Start(workerCtx)
	go worker.NewDeadlineWorker(examRepo, submissionRepo, rdb, cfg.SweepInterval, cfg.SubmitGrace, log).Start(workerCtx)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router.SetupRouter(authService, handlers, cfg),
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// Drain HTTP first so no new queue jobs arrive, then let the workers
	// flush what is left.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	stopWorkers()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}
