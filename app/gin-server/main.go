package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/prepforge/prepforge/config"
	"github.com/prepforge/prepforge/internal/api/handlers"
	"github.com/prepforge/prepforge/internal/api/middleware"
	"github.com/prepforge/prepforge/internal/api/routes"
	"github.com/prepforge/prepforge/internal/cache"
	"github.com/prepforge/prepforge/internal/logger"
	"github.com/prepforge/prepforge/internal/providers/analysis"
	mongorepo "github.com/prepforge/prepforge/internal/repositories/mongo"
	pgrepo "github.com/prepforge/prepforge/internal/repositories/postgres"
	"github.com/prepforge/prepforge/internal/services"
	"github.com/prepforge/prepforge/internal/workers"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()
	base := logger.Base(l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	base.Info("MongoDB connected")

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	base.Info("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	base.Info("Redis connected")

	db := config.MongoDatabase()
	transcriptRepo := mongorepo.NewTranscriptRepo(db)
	sessionRepo := mongorepo.NewSessionRepo(db)
	documentRepo := pgrepo.NewDocumentRepo(config.PostgresDB)
	profileRepo := pgrepo.NewProfileRepo(config.PostgresDB)

	provider, err := buildAnalysisProvider(ctx)
	if err != nil {
		log.Fatalf("analysis provider init error: %v", err)
	}
	defer provider.Close()

	ratingCache := cache.NewRedisCache(config.RedisClient, "prepforge")

	transcriptSvc := services.NewTranscriptService(transcriptRepo, envHours("TRANSCRIPT_TTL_HOURS", 24))
	aggregatorSvc := services.NewAggregatorService(documentRepo)
	ratingSvc := services.NewRatingService(
		transcriptRepo,
		aggregatorSvc,
		provider,
		ratingCache,
		envSeconds("ANALYSIS_TIMEOUT_SECONDS", 45),
		envInt("AGGREGATOR_TOKEN_BUDGET", services.DefaultTokenBudget),
	)
	sessionSvc := services.NewSessionService(sessionRepo, profileRepo, transcriptSvc, ratingSvc)
	profileSvc := services.NewProfileService(profileRepo)
	documentSvc := services.NewDocumentService(documentRepo)

	sweeper := &workers.ExpirySweeper{
		Transcripts: transcriptSvc,
		Interval:    time.Duration(envInt("EXPIRY_SWEEP_INTERVAL_MINUTES", 10)) * time.Minute,
		Logger:      l,
	}
	if err := sweeper.Start(ctx); err != nil {
		log.Fatalf("expiry sweeper start error: %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Transcript:  handlers.NewTranscriptHandler(transcriptSvc, ratingSvc),
		Session:     handlers.NewSessionHandler(sessionSvc),
		Profile:     handlers.NewProfileHandler(profileSvc),
		Document:    handlers.NewDocumentHandler(documentSvc),
		Maintenance: handlers.NewMaintenanceHandler(transcriptSvc),
		WS:          handlers.NewWSHandler(sessionSvc),

		GenerateLimiter: middleware.NewRateLimiter(nil),
		GenerateRule: middleware.RateLimitRule{
			Rate:  float64(envInt("GENERATE_RATE_PER_MINUTE", 6)) / 60.0,
			Burst: envInt("GENERATE_BURST", 3),
		},
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func buildAnalysisProvider(ctx context.Context) (analysis.Provider, error) {
	switch os.Getenv("ANALYSIS_PROVIDER") {
	case "vertex":
		return analysis.NewVertexGemini(ctx,
			os.Getenv("VERTEX_PROJECT_ID"),
			os.Getenv("VERTEX_LOCATION"),
			os.Getenv("VERTEX_MODEL"),
		)
	default:
		opts := []analysis.OpenAIOption{}
		if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
			opts = append(opts, analysis.WithOpenAIBaseURL(base))
		}
		return analysis.NewOpenAI(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_MODEL"), opts...)
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envHours(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Hour
}

func envSeconds(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Second
}
