package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz attempt does not exist or was abandoned.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz indicates loaded quiz content breaks a load-time invariant.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrQuizExists is returned when a quiz already sits at the requested catalog location.
	ErrQuizExists = errors.New("quiz already exists")
	// ErrQuestionNotFound indicates a submitted question ID is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidAnswer indicates an answer value could not be decoded.
	ErrInvalidAnswer = errors.New("invalid answer value")
	// ErrResultNotReady is returned when a result is requested before the attempt completed.
	ErrResultNotReady = errors.New("quiz result not ready")
	// ErrInvalidSubmission indicates a result submission is missing required fields.
	ErrInvalidSubmission = errors.New("invalid result submission")
)
