package migrations

import _ "embed"

//go:embed 0002_create_quiz_results.sql
var createQuizResultsSQL string

const dropQuizResultsSQL = `DROP TABLE IF EXISTS quiz_user_answers;
DROP TABLE IF EXISTS quiz_results;
ALTER TABLE quizzes DROP COLUMN IF EXISTS average_score;
ALTER TABLE quizzes DROP COLUMN IF EXISTS attempts;`

func init() {
	Migrations.MustRegister(execSQL(createQuizResultsSQL), execSQL(dropQuizResultsSQL))
}
