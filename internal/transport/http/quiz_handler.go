package http

import (
	"fmt"
	"net/http"
	"strconv"

	"practice-quiz-service/internal/app"
	"practice-quiz-service/internal/domain"
	"practice-quiz-service/internal/quizgen"
	"github.com/go-chi/chi/v5"
)

// QuizHandler serves quiz content and accepts finished results from clients that score locally.
type QuizHandler struct {
	quizzes   *app.QuizService
	results   *app.ResultService
	generator *quizgen.Generator
}

func NewQuizHandler(quizzes *app.QuizService, results *app.ResultService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes, results: results}
}

// WithGenerator enables POST /quizzes/generate.
func (h *QuizHandler) WithGenerator(g *quizgen.Generator) *QuizHandler {
	h.generator = g
	return h
}

func (h *QuizHandler) Routes(r chi.Router) {
	r.Get("/quizzes", h.find)
	r.Get("/quizzes/{quizID}", h.get)
	r.Get("/quizzes/{category}/{topic}/{subtopic}/{sortOrder}", h.at)
	if h.results != nil {
		r.Post("/quizzes/submit", h.submit)
		r.Get("/quizzes/{quizID}/stats", h.stats)
	}
	if h.generator != nil {
		r.Post("/quizzes/generate", h.generate)
	}
}

type quizResponse struct {
	Success bool        `json:"success"`
	Quiz    domain.Quiz `json:"quiz"`
}

type catalogResponse struct {
	Success bool                 `json:"success"`
	Quizzes []domain.QuizSummary `json:"quizzes"`
}

type statsResponse struct {
	Success bool             `json:"success"`
	Stats   domain.QuizStats `json:"stats"`
}

type submitResponse struct {
	Success  bool  `json:"success"`
	ResultID int64 `json:"resultId"`
}

func (h *QuizHandler) get(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.LoadQuiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Success: true, Quiz: quiz})
}

func (h *QuizHandler) at(w http.ResponseWriter, r *http.Request) {
	order, err := strconv.Atoi(chi.URLParam(r, "sortOrder"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: sortOrder must be an integer", errBadRequest))
		return
	}
	quiz, err := h.quizzes.QuizAt(r.Context(), domain.QuizFilter{
		Category:  chi.URLParam(r, "category"),
		Topic:     chi.URLParam(r, "topic"),
		Subtopic:  chi.URLParam(r, "subtopic"),
		SortOrder: &order,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Success: true, Quiz: quiz})
}

func (h *QuizHandler) generate(w http.ResponseWriter, r *http.Request) {
	var req quizgen.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	quiz, err := h.generator.Generate(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quizResponse{Success: true, Quiz: quiz})
}

func (h *QuizHandler) submit(w http.ResponseWriter, r *http.Request) {
	var submission domain.ResultSubmission
	if err := decodeBody(w, r, &submission); err != nil {
		writeError(w, err)
		return
	}
	id, err := h.results.Record(r.Context(), submission)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Success: true, ResultID: id})
}

func (h *QuizHandler) find(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quizzes, err := h.quizzes.FindQuizzes(r.Context(), domain.QuizFilter{
		Category: q.Get("category"),
		Topic:    q.Get("topic"),
		Subtopic: q.Get("subtopic"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse{Success: true, Quizzes: quizzes})
}

func (h *QuizHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.results.Stats(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Success: true, Stats: stats})
}
