package main

import (
	"context"
	"errors"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/pblagro/config"
	"github.com/lshigami/pblagro/database"
	_ "github.com/lshigami/pblagro/docs" // Swagger docs - generated by swag init
	"github.com/lshigami/pblagro/internal/controller"
	adminctrl "github.com/lshigami/pblagro/internal/controller/admin"
	userctrl "github.com/lshigami/pblagro/internal/controller/user"
	"github.com/lshigami/pblagro/internal/events"
	"github.com/lshigami/pblagro/internal/guard"
	"github.com/lshigami/pblagro/internal/llm"
	"github.com/lshigami/pblagro/internal/logger"
	"github.com/lshigami/pblagro/internal/middleware"
	"github.com/lshigami/pblagro/internal/model"
	"github.com/lshigami/pblagro/internal/observability"
	"github.com/lshigami/pblagro/internal/release"
	"github.com/lshigami/pblagro/internal/repository"
	"github.com/lshigami/pblagro/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// @title PBL Agro API
// @version 1.0
// @description Personalized problem-based learning challenges for an agribusiness MBA: learner profiles, LLM-generated challenges, graded answers and scheduled content release.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		// Repositories Layer
		fx.Provide(
			repository.NewLearnerRepository,
			repository.NewContentRepository,
			repository.NewCurriculumRepository,
			repository.NewChallengeRepository,
			repository.NewAnswerRepository,
			repository.NewScheduleRepository,
		),

		// Infrastructure
		fx.Provide(
			NewLLMClient,
			llm.LoadPrompts,
			NewGuard,
			NewEventHub,
			NewReleaseScheduler,
			middleware.NewAuth,
		),

		// Services Layer
		fx.Provide(
			service.NewLearnerService,
			func(
				learnerRepo repository.LearnerRepository,
				contentRepo repository.ContentRepository,
				curriculumRepo repository.CurriculumRepository,
				challengeRepo repository.ChallengeRepository,
				scheduler *release.Scheduler,
				client llm.Client,
				prompts *llm.Prompts,
			) service.GenerationService {
				return service.NewGenerationService(learnerRepo, contentRepo, curriculumRepo, challengeRepo, scheduler, client, prompts)
			},
			NewJobRunner,
			func(learnerRepo repository.LearnerRepository, challengeRepo repository.ChallengeRepository, jobs *service.JobRunner) service.ChallengeService {
				return service.NewChallengeService(learnerRepo, challengeRepo, jobs)
			},
			func(challengeRepo repository.ChallengeRepository, answerRepo repository.AnswerRepository, client llm.Client, prompts *llm.Prompts, cfg *config.Config) service.AnswerService {
				return service.NewAnswerService(challengeRepo, answerRepo, client, prompts, cfg.Answers.MaxAttempts)
			},
			func(
				scheduleRepo repository.ScheduleRepository,
				contentRepo repository.ContentRepository,
				curriculumRepo repository.CurriculumRepository,
				learnerRepo repository.LearnerRepository,
				scheduler *release.Scheduler,
			) service.ScheduleService {
				return service.NewScheduleService(scheduleRepo, contentRepo, curriculumRepo, learnerRepo, scheduler)
			},
		),

		// API Controllers Layer
		fx.Provide(
			userctrl.NewAuthController,
			userctrl.NewLearnerController,
			userctrl.NewAnswerController,
			adminctrl.NewAdminController,
		),

		fx.Invoke(
			InitLogger,
			InitTracing,
			AutoMigrateDB,
			StartReleaseScheduler,
			RegisterRoutesAndStartServer,
		),
	)

	app.Run()
}

func InitLogger(cfg *config.Config) {
	logger.Init(cfg.Env, cfg.LogLevel)
}

func InitTracing(lc fx.Lifecycle, cfg *config.Config) error {
	shutdown, err := observability.InitTracing(context.Background(), cfg)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{OnStop: shutdown})
	return nil
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-CPF"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func NewLLMClient(lc fx.Lifecycle, cfg *config.Config) (llm.Client, error) {
	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("provider", client.Provider()).Msg("LLM client ready")
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return client.Close() },
	})
	return client, nil
}

// NewGuard uses a Redis lease when REDIS_ADDR is set, so several API instances share admissions.
func NewGuard(lc fx.Lifecycle, cfg *config.Config) (guard.Guard, error) {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("Using in-process generation guard")
		return guard.NewMemoryGuard(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rdb, err := guard.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return rdb.Close() },
	})
	log.Info().Str("addr", cfg.Redis.Addr).Dur("leaseTTL", cfg.Redis.LeaseTTL).Msg("Using Redis generation guard")
	return guard.NewRedisGuard(rdb, cfg.Redis.LeaseTTL), nil
}

func NewEventHub(lc fx.Lifecycle) *events.Hub {
	hub := events.NewHub()
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			hub.Close()
			return nil
		},
	})
	return hub
}

func NewReleaseScheduler(
	cfg *config.Config,
	schedules repository.ScheduleRepository,
	learners repository.LearnerRepository,
	challenges repository.ChallengeRepository,
	hub *events.Hub,
) *release.Scheduler {
	return release.NewScheduler(schedules, learners, challenges, cfg.Scheduler.Location(), hub)
}

func NewJobRunner(lc fx.Lifecycle, g guard.Guard, generator service.GenerationService, hub *events.Hub) *service.JobRunner {
	runner := service.NewJobRunner(g, generator, hub)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := runner.Shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("Generation jobs abandoned at shutdown")
			}
			return nil
		},
	})
	return runner
}

func StartReleaseScheduler(lc fx.Lifecycle, cfg *config.Config, scheduler *release.Scheduler) {
	if !cfg.Scheduler.Enabled {
		log.Info().Msg("Release sweep disabled")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				scheduler.Run(ctx, cfg.Scheduler.Interval)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	auth *middleware.Auth,
	authCtrl *userctrl.AuthController,
	learnerCtrl *userctrl.LearnerController,
	answerCtrl *userctrl.AnswerController,
	adminCtrl *adminctrl.AdminController,
	hub *events.Hub,
) {
	router.GET("/", controller.Health)
	router.Use(auth.Identify())

	api := router.Group("/api/v1")
	api.POST("/auth/login", authCtrl.Login)

	// Learner Routes (prefixed with /api/v1)
	learner := api.Group("", auth.RequireLearner())
	{
		learner.GET("/profile", learnerCtrl.GetProfile)
		learner.POST("/profile", learnerCtrl.SaveProfile)
		learner.GET("/challenges", learnerCtrl.ListChallenges)
		learner.GET("/challenges/status", learnerCtrl.ChallengeStatus)
		learner.GET("/challenges/:id/answers", answerCtrl.ListAttempts)
		learner.GET("/contents", learnerCtrl.ListContents)
		learner.GET("/releases", learnerCtrl.ListReleases)
		learner.POST("/answers/evaluate", answerCtrl.Evaluate)
		learner.POST("/answers", answerCtrl.Submit)
		learner.POST("/answers/finalize", answerCtrl.Finalize)
		learner.GET("/events", learnerCtrl.Events)
	}

	// Admin Routes (prefixed with /api/v1/admin)
	admin := api.Group("/admin", auth.RequireAdmin())
	{
		admin.GET("/contents", adminCtrl.ListContents)
		admin.GET("/cohorts", adminCtrl.ListCohorts)
		admin.GET("/cohorts/:cohort/curriculum", adminCtrl.GetCurriculum)
		admin.PUT("/cohorts/:cohort/curriculum", adminCtrl.SetCurriculum)
		admin.GET("/learners/total", adminCtrl.LearnerTotal)
		admin.POST("/learners/:national_id/generate", adminCtrl.GenerateForLearner)
		admin.GET("/schedules", adminCtrl.ListSchedules)
		admin.POST("/schedules", adminCtrl.CreateSchedule)
		admin.POST("/schedules/sweep", adminCtrl.Sweep)
		admin.POST("/schedules/:id/release", adminCtrl.ReleaseSchedule)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
	// Open event streams would otherwise hold Shutdown until its timeout.
	server.RegisterOnShutdown(hub.Close)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("PBL API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(cfg *config.Config, db *gorm.DB) error {
	if !cfg.Database.AutoMigrate {
		log.Info().Msg("Database auto-migration disabled")
		return nil
	}
	log.Info().Msg("Running database migrations...")
	if err := db.AutoMigrate(model.All()...); err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
