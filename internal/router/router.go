package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/edumatrix/edumatrix-backend/internal/config"
	"github.com/edumatrix/edumatrix-backend/internal/handler"
	"github.com/edumatrix/edumatrix-backend/internal/middleware"
	"github.com/edumatrix/edumatrix-backend/internal/response"
	"github.com/edumatrix/edumatrix-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	StudentMgmt  *handler.StudentManagementHandler
	Exam         *handler.ExamHandler
	Quiz         *handler.QuizHandler
	WS           *handler.WSHandler
	Monitor      *handler.MonitorHandler
	Result       *handler.ResultHandler
	Attendance   *handler.AttendanceHandler
	Notification *handler.NotificationHandler
	File         *handler.FileHandler
	Feedback     *handler.FeedbackHandler
	Insight      *handler.InsightHandler
	System       *handler.SystemHandler
}

// SetupRouter wires every route group with its middleware chain.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	router.Use(
		cors.New(corsConfig(cfg)),
		response.RequestIDMiddleware(),
		middleware.Brotli(),
	)

	// Uploaded documents are immutable once stored, so cache for a year.
	uploads := router.Group("/uploads")
	uploads.Use(middleware.CacheControl(31536000))
	uploads.Static("/", cfg.UploadDir)

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Login endpoints are the brute-force surface; 30 req/min per IP.
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/institutions/register", handlers.Auth.RegisterInstitution)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/parent/login", handlers.Auth.ParentLogin)
	}

	router.GET("/api/v1/institutions/:code", authLimiter.Middleware(), handlers.Auth.LookupInstitution)
	router.GET("/api/v1/me", middleware.RequireReadOnlyJWT(authService), handlers.Auth.Me)

	// Quiz-taking routes require a student token AND an active single-device
	// session; a login on a second device invalidates the first.
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/exams", handlers.Quiz.ListExams)
		studentAPI.GET("/exams/:exam_id/paper", handlers.Quiz.GetPaper)
		studentAPI.POST("/exams/:exam_id/start", handlers.Quiz.Start)
		studentAPI.GET("/exams/:exam_id/state", handlers.Quiz.GetState)
		studentAPI.GET("/exams/:exam_id/submission", handlers.Quiz.MySubmission)
		studentAPI.PUT("/submissions/:submission_id/progress", handlers.Quiz.SaveProgress)
		studentAPI.POST("/submissions/:submission_id/submit", handlers.Quiz.Submit)

		studentAPI.POST("/feedback", handlers.Feedback.Send)
		studentAPI.POST("/logout", handlers.Auth.Logout)
	}

	// Read-only feeds accept parent tokens too; a parent sees exactly what
	// their linked student sees.
	readAPI := router.Group("/api/v1/student")
	readAPI.Use(middleware.RequireReadOnlyJWT(authService))
	{
		readAPI.GET("/results", handlers.Result.MyResults)
		readAPI.GET("/attendance", handlers.Attendance.MyAttendance)
		readAPI.GET("/notifications", handlers.Notification.Feed)
		readAPI.GET("/files", handlers.File.Feed)
	}

	// WebSocket upgrade carries the token in the query string.
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	ws.GET("/student/exams/:exam_id/attempt", handlers.WS.AttemptStream)

	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/profile", handlers.Auth.Profile)

		// Student management
		adminAPI.GET("/students", handlers.StudentMgmt.List)
		adminAPI.POST("/students", handlers.StudentMgmt.Create)
		adminAPI.GET("/students/:id", handlers.StudentMgmt.Get)
		adminAPI.PUT("/students/:id/password", handlers.StudentMgmt.UpdatePassword)
		adminAPI.DELETE("/students/:id", handlers.StudentMgmt.Delete)
		adminAPI.DELETE("/students/:id/session", handlers.Auth.ResetStudentSession)

		// Exam management & lifecycle
		adminAPI.GET("/exams", handlers.Exam.List)
		adminAPI.POST("/exams", handlers.Exam.Create)
		adminAPI.GET("/exams/:exam_id", handlers.Exam.Get)
		adminAPI.PUT("/exams/:exam_id/status", handlers.Exam.UpdateStatus)
		adminAPI.DELETE("/exams/:exam_id", handlers.Exam.Delete)
		adminAPI.GET("/exams/:exam_id/results", handlers.Exam.Results)
		adminAPI.GET("/exams/:exam_id/monitor", handlers.Monitor.MonitorExamSSE)

		// Published results
		adminAPI.POST("/results", handlers.Result.Publish)
		adminAPI.GET("/results", handlers.Result.List)
		adminAPI.GET("/results/averages", handlers.Result.SubjectAverages)

		// Attendance
		adminAPI.POST("/attendance", handlers.Attendance.Upsert)

		// Notifications
		adminAPI.POST("/notifications", handlers.Notification.Publish)
		adminAPI.GET("/notifications", handlers.Notification.List)
		adminAPI.DELETE("/notifications/:id", handlers.Notification.Delete)

		// Shared files
		adminAPI.POST("/files", handlers.File.Upload)
		adminAPI.GET("/files", handlers.File.List)
		adminAPI.DELETE("/files/:id", handlers.File.Delete)

		// Feedback inbox
		adminAPI.GET("/feedback", handlers.Feedback.List)

		// AI insights
		adminAPI.GET("/insights/performance", handlers.Insight.PerformanceSummary)

		// System Monitoring
		adminAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	return router
}

// corsConfig restricts origins when ALLOWED_ORIGINS is set and stays
// wide open otherwise so local development needs no extra setup.
func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		c.AllowOrigins = cfg.AllowedOrigins
	} else {
		c.AllowAllOrigins = true
	}
	c.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	c.ExposeHeaders = []string{"X-Request-ID"}
	c.MaxAge = 12 * time.Hour
	return c
}
