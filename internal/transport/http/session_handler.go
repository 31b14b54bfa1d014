package http

import (
	"net/http"
	"strconv"

	"practice-quiz-service/internal/app"
	"practice-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// SessionHandler exposes quiz attempts over REST.
type SessionHandler struct {
	service *app.QuizService
}

func NewSessionHandler(service *app.QuizService) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) Routes(r chi.Router) {
	r.Post("/sessions", h.create)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.snapshot)
		r.Delete("/", h.abandon)
		r.Post("/start", h.step(h.service.Start))
		r.Post("/next", h.step(h.service.Next))
		r.Post("/previous", h.step(h.service.Previous))
		r.Post("/submit", h.step(h.service.Submit))
		r.Post("/retake", h.retake)
		r.Put("/answers/{questionID}", h.answer)
		r.Get("/result", h.result)
	})
}

type createSessionRequest struct {
	QuizID string `json:"quizId"`
	UserID string `json:"userId"`
}

type sessionResponse struct {
	Success bool                   `json:"success"`
	Session domain.SessionSnapshot `json:"session"`
}

type answerRequest struct {
	Answer domain.Answer `json:"answer"`
}

type resultResponse struct {
	Success bool              `json:"success"`
	Result  domain.QuizResult `json:"result"`
}

func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.QuizID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "quizId is required"})
		return
	}
	snap, err := h.service.Begin(r.Context(), req.QuizID, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Success: true, Session: snap})
}

func (h *SessionHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: snap})
}

// step adapts a state transition. Calls made in the wrong state still answer 200 with
// the unchanged snapshot.
func (h *SessionHandler) step(op func(string) (domain.SessionSnapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := op(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: snap})
	}
}

func (h *SessionHandler) answer(w http.ResponseWriter, r *http.Request) {
	questionID, err := strconv.Atoi(chi.URLParam(r, "questionID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "questionId must be an integer"})
		return
	}
	var req answerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !req.Answer.IsSet() {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "answer is required"})
		return
	}
	snap, err := h.service.SelectAnswer(chi.URLParam(r, "sessionID"), questionID, req.Answer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: snap})
}

func (h *SessionHandler) retake(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Retake(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Success: true, Session: snap})
}

func (h *SessionHandler) result(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Result(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Success: true, Result: result})
}

func (h *SessionHandler) abandon(w http.ResponseWriter, r *http.Request) {
	h.service.Abandon(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}
