package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/smartexam/server/config"
	"github.com/smartexam/server/database"
	studentctrl "github.com/smartexam/server/internal/controller/student"
	teacherctrl "github.com/smartexam/server/internal/controller/teacher"
	"github.com/smartexam/server/internal/logger"
	"github.com/smartexam/server/internal/model"
	"github.com/smartexam/server/internal/repository"
	"github.com/smartexam/server/internal/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title SmartExam Session & Proctoring API
// @version 1.0
// @description Exam session lifecycle, proctoring and AI-assisted grading for the SmartExam platform.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		// Repositories
		fx.Provide(
			repository.NewExamRepository,
			repository.NewTicketRepository,
			repository.NewSessionRepository,
			repository.NewAnswerRepository,
			repository.NewQuestionRepository,
			repository.NewActivityRepository,
			repository.NewDirectoryRepository,
		),

		// Services
		fx.Provide(
			service.NewTicketAllocator,
			service.NewGeminiGrader,
			service.NewGradingService,
			service.NewSessionService,
			service.NewExamService,
			service.NewMonitorService,
			service.NewQuestionService,
			service.NewDeadlineSweeper,
		),

		// Controllers
		fx.Provide(
			teacherctrl.NewTeacherExamController,
			studentctrl.NewStudentExamController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(RunDeadlineSweeper),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer wires the API routes and manages the HTTP
// server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	teacherCtrl *teacherctrl.TeacherExamController,
	studentCtrl *studentctrl.StudentExamController,
) {
	api := router.Group("/api/v1")
	{
		teacherGroup := api.Group("/teacher")
		{
			teacherGroup.POST("/exams", teacherCtrl.CreateExam)
			teacherGroup.POST("/exams/:exam_id/end", teacherCtrl.EndExam)
			teacherGroup.POST("/exams/:exam_id/extend", teacherCtrl.ExtendTime)
			teacherGroup.GET("/exams/:exam_id/monitor", teacherCtrl.GetMonitorSnapshot)
			teacherGroup.PUT("/answers/:answer_id/score", teacherCtrl.OverrideScore)
		}

		api.POST("/questions", teacherCtrl.CreateQuestion)
		api.GET("/subjects/:subject_id/questions", teacherCtrl.ListQuestions)

		api.POST("/exams/:exam_id/sessions", studentCtrl.StartSession)
		api.GET("/sessions/:session_id", studentCtrl.GetSession)
		api.PUT("/sessions/:session_id/answers", studentCtrl.SaveAnswer)
		api.POST("/sessions/:session_id/violations", studentCtrl.RecordViolation)
		api.POST("/sessions/:session_id/submit", studentCtrl.SubmitSession)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("SmartExam API server starting on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

// RunDeadlineSweeper ties the background force-submit sweep to the app
// lifecycle.
func RunDeadlineSweeper(lc fx.Lifecycle, sweeper *service.DeadlineSweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sweeper.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			sweeper.Stop()
			return nil
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Group{},
		&model.Student{},
		&model.Question{},
		&model.Exam{},
		&model.Ticket{},
		&model.ExamSession{},
		&model.StudentAnswer{},
		&model.ActivityLog{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
