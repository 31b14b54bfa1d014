package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"practice-quiz-service/internal/app"
	"practice-quiz-service/internal/codecheck"
	"practice-quiz-service/internal/config"
	"practice-quiz-service/internal/domain"
	"practice-quiz-service/internal/infra/memory"
	"practice-quiz-service/internal/infra/postgres"
	redisstore "practice-quiz-service/internal/infra/redis"
	"practice-quiz-service/internal/infra/remote"
	"practice-quiz-service/internal/infra/sqlite"
	"practice-quiz-service/internal/quizgen"
	transport "practice-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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
	setupLogging(cfg.Log.Level, cfg.Log.Format)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn().Err(err).Msg("shutdown close failed")
			}
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, redisClient.Close)
	}

	var pool *pgxpool.Pool
	var quizWriter quizgen.QuizWriter
	var resultStore app.ResultStore = memory.NewResultStore()
	if cfg.Postgres.URL != "" {
		db, err := openBun(cfg)
		if err != nil {
			return err
		}
		closers = append(closers, db.Close)
		if err := applyMigrations(ctx, db); err != nil {
			return err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		closers = append(closers, func() error { pool.Close(); return nil })
		resultStore = postgres.NewResultStore(db)
		quizWriter = postgres.NewQuizWriter(db)
	} else if cfg.SQLite.Path != "" {
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		closers = append(closers, store.Close)
		resultStore = store
	}

	var remoteClient *remote.Client
	if cfg.Remote.BaseURL != "" {
		remoteClient = remote.NewClient(cfg.Remote.BaseURL, config.TTLDuration(cfg.Remote.Timeout, 10*time.Second))
	}

	loader, err := quizLoader(cfg, pool, remoteClient)
	if err != nil {
		return err
	}

	if w, ok := loader.(quizgen.QuizWriter); ok && quizWriter == nil {
		quizWriter = w
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo interface {
		app.QuizRepository
		quizgen.Invalidator
	}
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour))
	} else {
		sessions = memory.NewSessionStore()
	}

	if sweeper, ok := sessions.(app.Sweeper); ok {
		retention := config.TTLDuration(cfg.Quiz.Retention, 30*time.Minute)
		stopSweep := app.StartSweeper(app.WallTicker{}, sweeper, time.Minute, retention, time.Now)
		closers = append(closers, func() error { stopSweep(); return nil })
	}

	results := app.NewResultService(resultStore)
	var sink app.ResultSink = results
	if remoteClient != nil {
		sink = remoteClient
	}
	reporter := app.NewReporter(sink, config.TTLDuration(cfg.Quiz.ReportTimeout, 10*time.Second))

	provider, err := codeProvider(ctx, cfg)
	if err != nil {
		return err
	}
	if c, ok := provider.(interface{ Close() error }); ok {
		closers = append(closers, c.Close)
	}

	opts := []app.ServiceOption{}
	oracle := resilient(provider)
	var generator *quizgen.Generator
	if finder, ok := loader.(app.QuizFinder); ok {
		opts = append(opts, app.WithQuizFinder(finder))
		if quizWriter != nil {
			generator = quizgen.NewGenerator(oracle, finder, quizWriter, quizRepo)
		}
	}
	service := app.NewQuizService(sessions, quizRepo, reporter, opts...)
	var submitResults *app.ResultService
	if remoteClient == nil {
		submitResults = results
	}
	router := transport.NewRouter(
		transport.NewSessionHandler(service),
		transport.NewQuizHandler(service, submitResults).WithGenerator(generator),
		transport.NewCodeHandler(codecheck.NewChecker(oracle)),
		transport.NewWSHandler(service),
	)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", finalPort).Msg("starting quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	reporter.Wait()
	return err
}

// quizLoader picks where quiz content comes from: the remote platform, Postgres, a seed
// file, or the built-in samples.
func quizLoader(cfg config.Config, pool *pgxpool.Pool, client *remote.Client) (memory.QuizLoader, error) {
	switch {
	case client != nil:
		return client, nil
	case pool != nil:
		return postgres.NewQuizLoader(pool), nil
	case cfg.Quiz.SeedFile != "":
		quizzes, err := loadQuizFile(cfg.Quiz.SeedFile)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]domain.Quiz, len(quizzes))
		for _, q := range quizzes {
			byID[q.ID] = q
		}
		return memory.NewStaticQuizLoader(byID), nil
	}
	log.Warn().Msg("no quiz source configured, serving sample quizzes")
	return memory.NewStaticQuizLoader(sampleQuizzes()), nil
}

func codeProvider(ctx context.Context, cfg config.Config) (codecheck.Provider, error) {
	switch cfg.AI.Provider {
	case "":
		log.Warn().Msg("no AI provider configured, code checking disabled")
		return nil, nil
	case "openai":
		return codecheck.NewOpenAIProvider(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model), nil
	case "gemini":
		return codecheck.NewGeminiProvider(ctx, cfg.AI.APIKey, cfg.AI.Model)
	}
	return nil, errors.New("unknown ai provider " + cfg.AI.Provider)
}

func resilient(p codecheck.Provider) codecheck.Provider {
	if p == nil {
		return nil
	}
	return codecheck.NewResilientProvider(p, codecheck.ResilienceConfig{})
}

// sampleQuizzes is served when no quiz source is configured.
func sampleQuizzes() map[string]domain.Quiz {
	limit := 5
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:               "quiz-1",
			Title:            "Go Basics",
			Description:      "A short warm-up on Go fundamentals",
			Difficulty:       domain.DifficultyEasy,
			TimeLimitMinutes: &limit,
			Category:         "programming",
			Topic:            "go",
			Subtopic:         "basics",
			Questions: []domain.Question{
				{
					ID:            1,
					Type:          domain.QuestionMCQ,
					Prompt:        "Which keyword starts a goroutine?",
					Options:       []string{"async", "go", "spawn", "thread"},
					CorrectAnswer: domain.OptionAnswer(1),
					Explanation:   "The go statement runs a function call in a new goroutine.",
					Points:        5,
				},
				{
					ID:            2,
					Type:          domain.QuestionTrueFalse,
					Prompt:        "A nil map can be written to.",
					CorrectAnswer: domain.BoolAnswer(false),
					Explanation:   "Writing to a nil map panics.",
					Points:        5,
				},
				{
					ID:            3,
					Type:          domain.QuestionFillBlank,
					Prompt:        "The zero value of an int is ___.",
					CorrectAnswer: domain.TextAnswer("0"),
					Points:        5,
				},
			},
		},
	}
}
