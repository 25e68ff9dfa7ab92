package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizmaster-service/internal/app"
	"quizmaster-service/internal/config"
	"quizmaster-service/internal/domain"
	"quizmaster-service/internal/game"
	"quizmaster-service/internal/infra/memory"
	pgstore "quizmaster-service/internal/infra/postgres"
	redisinfra "quizmaster-service/internal/infra/redis"
	"quizmaster-service/internal/scoring"
	transport "quizmaster-service/internal/transport/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var quizStore app.QuizStore
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		quizStore = pgstore.NewQuizStore(pool)
	} else {
		store := memory.NewQuizStore()
		seedDemoQuiz(ctx, store)
		quizStore = store
	}
	if redisClient != nil {
		quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
		quizStore = redisinfra.NewQuizCache(redisClient, quizStore, quizTTL)
	}

	retention := config.TTLDuration(cfg.Game.FinishedRetention, 5*time.Minute)
	var archive game.Archive
	if redisClient != nil {
		archive = redisinfra.NewSessionArchive(redisClient, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	}
	directory := game.NewDirectory(game.Config{
		PinDigits:         cfg.Game.PinDigits,
		IdleTimeout:       config.TTLDuration(cfg.Game.IdleTimeout, 10*time.Minute),
		FinishedRetention: retention,
		Scoring: scoring.Config{
			BasePoints:  cfg.Game.BasePoints,
			BonusPoints: cfg.Game.BonusPoints,
		},
	}, archive)
	defer directory.Close()

	bounds := domain.TimeLimitBounds{
		MinSeconds: cfg.Quiz.MinTimeLimit,
		MaxSeconds: cfg.Quiz.MaxTimeLimit,
	}
	quizService := app.NewQuizService(quizStore, bounds)
	gameService := app.NewGameService(quizStore, directory)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	transport.NewRESTHandler(quizService, gameService).Register(router)
	router.HandleFunc("/ws", transport.NewWSHandler(gameService).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting game session service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedDemoQuiz gives the in-memory store one hostable quiz so the service is
// usable without Postgres.
func seedDemoQuiz(ctx context.Context, store *memory.QuizStore) {
	now := time.Now()
	err := store.Save(ctx, domain.Quiz{
		ID:          "demo-quiz",
		AuthorID:    "demo",
		Title:       "General Knowledge Warm-up",
		Description: "A short demo quiz",
		Questions: []domain.Question{
			{
				Text:             "What is 2 + 2?",
				Options:          []string{"3", "4", "5", "22"},
				CorrectOption:    1,
				TimeLimitSeconds: 20,
			},
			{
				Text:             "Which planet is known as the Red Planet?",
				Options:          []string{"Venus", "Jupiter", "Mars", "Saturn"},
				CorrectOption:    2,
				TimeLimitSeconds: 20,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		log.Printf("seed demo quiz: %v", err)
	}
}
