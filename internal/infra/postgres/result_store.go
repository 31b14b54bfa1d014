package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"practice-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type quizResultRow struct {
	bun.BaseModel `bun:"table:quiz_results"`

	ID             int64     `bun:"id,pk,autoincrement"`
	QuizID         string    `bun:"quiz_id,notnull"`
	UserID         string    `bun:"user_id,notnull"`
	Score          int       `bun:"score"`
	Percentage     int       `bun:"percentage"`
	CorrectAnswers int       `bun:"correct_answers"`
	TotalQuestions int       `bun:"total_questions"`
	TimeSpent      int       `bun:"time_spent"`
	Category       string    `bun:"category"`
	Topic          string    `bun:"topic"`
	Subtopic       string    `bun:"subtopic"`
	CompletedAt    time.Time `bun:"completed_at,notnull"`
}

type quizUserAnswerRow struct {
	bun.BaseModel `bun:"table:quiz_user_answers"`

	ID         int64  `bun:"id,pk,autoincrement"`
	ResultID   int64  `bun:"result_id,notnull"`
	QuestionID int    `bun:"question_id,notnull"`
	UserAnswer string `bun:"user_answer,notnull"`
}

// ResultStore writes submitted results, one row per answer, and keeps per-quiz attempt
// statistics current.
type ResultStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db, now: time.Now}
}

func (s *ResultStore) SaveResult(ctx context.Context, submission domain.ResultSubmission) (int64, error) {
	userID := submission.UserID
	if userID == "" {
		userID = "guest"
	}
	row := &quizResultRow{
		QuizID:         submission.QuizID,
		UserID:         userID,
		Score:          submission.Score,
		Percentage:     submission.Percentage,
		CorrectAnswers: submission.CorrectAnswers,
		TotalQuestions: submission.TotalQuestions,
		TimeSpent:      submission.TimeTaken,
		Category:       submission.Category,
		Topic:          submission.Topic,
		Subtopic:       submission.Subtopic,
		CompletedAt:    s.now().UTC(),
	}

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}

		answers := answerRows(row.ID, submission.Answers)
		if len(answers) > 0 {
			if _, err := tx.NewInsert().Model(&answers).Exec(ctx); err != nil {
				return fmt.Errorf("insert answers: %w", err)
			}
		}

		_, err := tx.ExecContext(ctx, `UPDATE quizzes
			SET attempts = attempts + 1,
			    average_score = (SELECT AVG(percentage) FROM quiz_results WHERE quiz_id = ?)
			WHERE id = ?`, submission.QuizID, submission.QuizID)
		if err != nil {
			return fmt.Errorf("update quiz stats: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}

func answerRows(resultID int64, answers domain.Answers) []quizUserAnswerRow {
	ids := make([]int, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	rows := make([]quizUserAnswerRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, quizUserAnswerRow{
			ResultID:   resultID,
			QuestionID: id,
			UserAnswer: answers[id].String(),
		})
	}
	return rows
}

// Stats reads the attempt counters kept on the quizzes table.
func (s *ResultStore) Stats(ctx context.Context, quizID string) (domain.QuizStats, error) {
	var attempts int
	var average sql.NullFloat64
	err := s.db.NewSelect().
		Table("quizzes").
		Column("attempts", "average_score").
		Where("id = ?", quizID).
		Scan(ctx, &attempts, &average)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizStats{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizStats{}, fmt.Errorf("read quiz stats: %w", err)
	}
	return domain.QuizStats{QuizID: quizID, Attempts: attempts, AveragePercent: average.Float64}, nil
}
