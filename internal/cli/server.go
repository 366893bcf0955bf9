package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"study-session-engine/internal/app"
	"study-session-engine/internal/auth"
	"study-session-engine/internal/config"
	"study-session-engine/internal/domain"
	memorystore "study-session-engine/internal/infra/memory"
	pgstore "study-session-engine/internal/infra/postgres"
	redisstore "study-session-engine/internal/infra/redis"
	"study-session-engine/internal/storage"
	transport "study-session-engine/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the study session server",
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	// Fallback order is fixed: redis is authoritative, postgres is only
	// consulted after a redis failure. Memory keeps dev builds working
	// with nothing configured.
	var backends []storage.Backend
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		backends = append(backends, redisstore.NewBackend(client, cfg.Redis.Prefix))
	}
	if pool != nil {
		backends = append(backends, pgstore.NewBackend(pool))
	}
	if len(backends) == 0 {
		backends = append(backends, memorystore.NewBackend())
	}
	gateway := storage.NewGateway(config.Duration(cfg.Storage.Timeout, 3*time.Second), backends...)

	var loader memorystore.QuestionLoader = memorystore.NewStaticQuestionSource(sampleQuestions())
	if pool != nil {
		loader = pgstore.NewQuestionLoader(pool)
	}
	cacheTTL := config.Duration(cfg.Quiz.CacheTTL, 10*time.Minute)
	questions := memorystore.NewQuestionRepository(loader, cacheTTL)

	identity := auth.NewAdapter()
	var verifier *auth.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewTokenVerifier(cfg.Auth.JWTSecret)
	}

	history := app.NewHistoryStore(gateway)
	timedLimit := config.Duration(cfg.Quiz.TimedLimit, 30*time.Minute)

	sessionHandler := transport.NewSessionHandler(questions, history, identity, timedLimit)
	historyHandler := transport.NewHistoryHandler(history, identity)
	authHandler := transport.NewAuthHandler(identity, verifier)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", sessionHandler.ServeWS)
	mux.HandleFunc("/history", historyHandler.ServeHistory)
	mux.HandleFunc("/history/stats", historyHandler.ServeStats)
	mux.HandleFunc("/signin", authHandler.ServeSignIn)
	mux.HandleFunc("/signout", authHandler.ServeSignOut)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting study session engine on :%s", finalPort)
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

// sampleQuestions seeds the catalog when no Postgres is configured; swap in
// the database-backed loader for real content.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:      "q1",
			Prompt:  "What is 2 + 2?",
			Options: []string{"3", "4", "5"},
			Correct: []int{1},
			Topic:   "arithmetic",
		},
		{
			ID:      "q2",
			Prompt:  "Which of these are prime?",
			Options: []string{"2", "4", "5", "9"},
			Correct: []int{0, 2},
			Topic:   "arithmetic",
		},
		{
			ID:          "q3",
			Prompt:      "What does HTTP stand for?",
			Options:     []string{"HyperText Transfer Protocol", "High Throughput Transport Protocol"},
			Correct:     []int{0},
			Topic:       "networking",
			Explanation: "HTTP is the application-layer protocol of the web.",
		},
	}
}
