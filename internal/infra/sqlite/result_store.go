package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"practice-quiz-service/internal/domain"

	_ "modernc.org/sqlite"
)

// ResultStore persists submitted results in a local SQLite file for single-node deployments.
type ResultStore struct {
	db  *sql.DB
	now func() time.Time
}

func Open(path string) (*ResultStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &ResultStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *ResultStore) Close() error {
	return s.db.Close()
}

func (s *ResultStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS quiz_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quiz_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		percentage INTEGER NOT NULL DEFAULT 0,
		correct_answers INTEGER NOT NULL DEFAULT 0,
		total_questions INTEGER NOT NULL DEFAULT 0,
		time_spent INTEGER NOT NULL DEFAULT 0,
		category TEXT NOT NULL DEFAULT '',
		topic TEXT NOT NULL DEFAULT '',
		subtopic TEXT NOT NULL DEFAULT '',
		completed_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quiz_user_answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		result_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		user_answer TEXT NOT NULL,
		FOREIGN KEY (result_id) REFERENCES quiz_results(id)
	);

	CREATE INDEX IF NOT EXISTS idx_quiz_results_quiz ON quiz_results(quiz_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *ResultStore) SaveResult(ctx context.Context, submission domain.ResultSubmission) (int64, error) {
	userID := submission.UserID
	if userID == "" {
		userID = "guest"
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO quiz_results
		(quiz_id, user_id, score, percentage, correct_answers, total_questions, time_spent, category, topic, subtopic, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		submission.QuizID, userID, submission.Score, submission.Percentage, submission.CorrectAnswers,
		submission.TotalQuestions, submission.TimeTaken, submission.Category, submission.Topic, submission.Subtopic,
		s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("result id: %w", err)
	}

	ids := make([]int, 0, len(submission.Answers))
	for qid := range submission.Answers {
		ids = append(ids, qid)
	}
	sort.Ints(ids)
	for _, qid := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quiz_user_answers (result_id, question_id, user_answer) VALUES (?, ?, ?)`,
			id, qid, submission.Answers[qid].String()); err != nil {
			return 0, fmt.Errorf("insert answer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Stats summarizes stored attempts of a quiz.
func (s *ResultStore) Stats(ctx context.Context, quizID string) (domain.QuizStats, error) {
	stats := domain.QuizStats{QuizID: quizID}
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(percentage) FROM quiz_results WHERE quiz_id = ?`, quizID).
		Scan(&stats.Attempts, &avg)
	if err != nil {
		return domain.QuizStats{}, fmt.Errorf("query stats: %w", err)
	}
	stats.AveragePercent = avg.Float64
	return stats, nil
}

// Answers returns the stored answers of a result keyed by question id.
func (s *ResultStore) Answers(ctx context.Context, resultID int64) (map[int]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, user_answer FROM quiz_user_answers WHERE result_id = ?`, resultID)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()
	out := make(map[int]string)
	for rows.Next() {
		var qid int
		var answer string
		if err := rows.Scan(&qid, &answer); err != nil {
			return nil, err
		}
		out[qid] = answer
	}
	return out, rows.Err()
}
