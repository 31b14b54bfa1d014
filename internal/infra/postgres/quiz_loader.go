package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"practice-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader reads quiz JSONB documents from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz %s: %w", quizID, err)
	}
	return decodeQuiz(quizID, raw)
}

// FindQuizzes lists quizzes at a catalog location. Empty filter fields match anything.
func (l *QuizLoader) FindQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.QuizSummary, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, data FROM quizzes
		WHERE ($1 = '' OR data->>'category' = $1)
		  AND ($2 = '' OR data->>'topic' = $2)
		  AND ($3 = '' OR data->>'subtopic' = $3)
		  AND ($4::int IS NULL OR COALESCE((data->>'sortOrder')::int, 0) = $4)
		ORDER BY COALESCE((data->>'sortOrder')::int, 0), id`, filter.Category, filter.Topic, filter.Subtopic, filter.SortOrder)
	if err != nil {
		return nil, fmt.Errorf("find quizzes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QuizSummary, 0)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quiz, err := decodeQuiz(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, quiz.Normalize().Summary())
	}
	return out, rows.Err()
}

func decodeQuiz(id string, raw []byte) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz %s: %w", id, err)
	}
	if quiz.ID == "" {
		quiz.ID = id
	}
	return quiz, nil
}
