package http

import (
	"net/http"

	"practice-quiz-service/internal/codecheck"
	"github.com/go-chi/chi/v5"
)

type CodeHandler struct {
	checker *codecheck.Checker
}

func NewCodeHandler(checker *codecheck.Checker) *CodeHandler {
	return &CodeHandler{checker: checker}
}

func (h *CodeHandler) Routes(r chi.Router) {
	r.Post("/code/check", h.check)
	r.Post("/code/execute", h.execute)
}

type codeRequest struct {
	Code               string               `json:"code"`
	Language           string               `json:"language"`
	ProblemDescription string               `json:"problemDescription"`
	TestCases          []codecheck.TestCase `json:"testCases"`
}

type checkResponse struct {
	Success bool             `json:"success"`
	Result  codecheck.Result `json:"result"`
}

type executeResponse struct {
	Success       bool                      `json:"success"`
	Results       []codecheck.ExecutionCase `json:"results"`
	OverallStatus string                    `json:"overallStatus"`
	Error         string                    `json:"error,omitempty"`
}

func (h *CodeHandler) check(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.checker.Check(r.Context(), req.Code, req.Language, req.ProblemDescription, req.TestCases)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{Success: true, Result: result})
}

func (h *CodeHandler) execute(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.checker.Execute(r.Context(), req.Code, req.Language, req.TestCases)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, executeResponse{
		Success:       out.Success,
		Results:       out.Results,
		OverallStatus: out.OverallStatus,
		Error:         out.Error,
	})
}
