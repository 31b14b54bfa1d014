package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"practice-quiz-service/internal/config"
	"practice-quiz-service/internal/domain"
	"practice-quiz-service/internal/infra/postgres"
	redisstore "practice-quiz-service/internal/infra/redis"
	"practice-quiz-service/internal/quizgen"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads quizzes from a JSON file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert quizzes from a JSON file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			setupLogging(cfg.Log.Level, cfg.Log.Format)
			if file == "" {
				file = cfg.Quiz.SeedFile
			}
			quizzes, err := loadQuizFile(file)
			if err != nil {
				return err
			}
			db, err := openBun(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := applyMigrations(cmd.Context(), db); err != nil {
				return err
			}
			var caches []quizgen.Invalidator
			if cfg.Redis.Addr != "" {
				client := redis.NewClient(&redis.Options{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
				defer client.Close()
				caches = append(caches, redisstore.NewQuizRepository(client, nil, time.Minute))
			}
			if err := seedQuizzes(cmd.Context(), postgres.NewQuizWriter(db), caches, quizzes); err != nil {
				return err
			}
			log.Info().Int("count", len(quizzes)).Str("file", file).Msg("quizzes seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file holding an array of quizzes (defaults to quiz.seed_file)")
	return cmd
}

// seedQuizzes upserts each quiz and drops any cached copy so running servers pick up the
// new content. Cache failures are logged, not returned.
func seedQuizzes(ctx context.Context, writer quizgen.QuizWriter, caches []quizgen.Invalidator, quizzes []domain.Quiz) error {
	for _, quiz := range quizzes {
		if err := writer.UpsertQuiz(ctx, quiz); err != nil {
			return err
		}
		for _, cache := range caches {
			if err := cache.Invalidate(ctx, quiz.ID); err != nil {
				log.Warn().Err(err).Str("quiz_id", quiz.ID).Msg("quiz cache invalidation failed")
			}
		}
	}
	return nil
}

// loadQuizFile reads, normalizes and validates a JSON array of quizzes.
func loadQuizFile(path string) ([]domain.Quiz, error) {
	if path == "" {
		return nil, fmt.Errorf("no quiz file given")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var quizzes []domain.Quiz
	if err := json.Unmarshal(data, &quizzes); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, quiz := range quizzes {
		quiz = quiz.Normalize()
		if err := quiz.Validate(); err != nil {
			return nil, fmt.Errorf("quiz %q: %w", quiz.ID, err)
		}
		quizzes[i] = quiz
	}
	return quizzes, nil
}
