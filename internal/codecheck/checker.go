package codecheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	// ErrMissingInput is returned when code or language is empty.
	ErrMissingInput = errors.New("code and language are required")
	// ErrUnavailable is returned when no AI provider is configured.
	ErrUnavailable = errors.New("code checking is not configured")
)

var supportedLanguages = map[string]bool{
	"javascript": true, "python": true, "java": true,
	"cpp": true, "c++": true, "c": true, "csharp": true,
}

const reviewerRole = "You are an expert code reviewer and programming tutor. Respond with ONLY a JSON object."

// Checker grades code submissions using an AI oracle.
type Checker struct {
	provider Provider
}

// NewChecker accepts a nil provider; calls that need the oracle then fail with ErrUnavailable.
func NewChecker(provider Provider) *Checker {
	return &Checker{provider: provider}
}

// Check validates the submission locally and, when it passes, asks the oracle for a review.
// Oracle failures are reported inside the result with Success false.
func (c *Checker) Check(ctx context.Context, code, language, problem string, tests []TestCase) (Result, error) {
	if strings.TrimSpace(language) == "" || code == "" {
		return Result{}, ErrMissingInput
	}
	if strings.TrimSpace(code) == "" {
		return failedResult(
			fmt.Sprintf("Syntax errors detected in your %s code. Please fix these issues and try again.", language),
			[]string{"Code cannot be empty"},
			[]string{"Cannot analyze logic due to syntax errors"},
			[]string{"Check your syntax carefully"},
			[]string{},
		), nil
	}
	if issues := lint(code, language); len(issues) > 0 {
		return failedResult(
			fmt.Sprintf("Syntax errors detected in your %s code. Please fix these issues and try again.", language),
			issues,
			[]string{"Cannot analyze logic due to syntax errors"},
			[]string{"Check your syntax carefully", "Make sure you're using the correct programming language"},
			[]string{fmt.Sprintf("%s has specific syntax rules that must be followed", language)},
		), nil
	}
	if detected, mismatch := languageMismatch(code, language); mismatch {
		found := strings.Join(detected, " or ")
		return failedResult(
			fmt.Sprintf("Your code appears to be written in %s, but you selected %s. Please either rewrite your code in %s or select the correct language.", found, language, language),
			[]string{fmt.Sprintf("Code is written in %s, not %s", found, language)},
			[]string{"Cannot analyze logic due to language mismatch"},
			[]string{fmt.Sprintf("Rewrite your code using %s syntax", language)},
			[]string{"Language selection must match the code you write"},
		), nil
	}
	if c.provider == nil {
		return Result{}, ErrUnavailable
	}
	if problem == "" {
		problem = "General coding problem"
	}

	text, err := c.provider.Complete(ctx, reviewerRole, analysisPrompt(code, language, problem, tests))
	if err != nil {
		log.Error().Err(err).Str("provider", c.provider.Name()).Str("language", language).Msg("code analysis failed")
		return failedResult(
			fmt.Sprintf("Error during code analysis: %v", err),
			[]string{err.Error()},
			[]string{err.Error()},
			[]string{"Please check your code and try again"},
			[]string{},
		), nil
	}
	result, ok := parseAnalysis(text, len(tests))
	if !ok {
		log.Warn().Str("provider", c.provider.Name()).Str("raw", truncate(text, 500)).Msg("failed to parse code analysis")
	}
	log.Info().Str("language", language).Int("score", result.Score).Msg("code analysis completed")
	return result, nil
}

type traceResponse struct {
	Results []struct {
		Actual string `json:"actual"`
		Error  string `json:"error"`
	} `json:"results"`
}

// Execute asks the oracle to trace the program over each test case and compares the
// reported output with the expected one.
func (c *Checker) Execute(ctx context.Context, code, language string, tests []TestCase) (Execution, error) {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(language) == "" || tests == nil {
		return Execution{}, ErrMissingInput
	}
	if !supportedLanguages[strings.ToLower(language)] {
		return Execution{OverallStatus: "Error", Results: []ExecutionCase{}, Error: "Unsupported language: " + language}, nil
	}
	if c.provider == nil {
		return Execution{}, ErrUnavailable
	}

	text, err := c.provider.Complete(ctx, reviewerRole, tracePrompt(code, language, tests))
	var trace traceResponse
	if err == nil {
		err = json.Unmarshal([]byte(ExtractJSON(text)), &trace)
	}
	if err != nil {
		log.Error().Err(err).Str("language", language).Msg("code execution failed")
		return Execution{OverallStatus: "Error", Results: []ExecutionCase{}, Error: err.Error()}, nil
	}

	out := Execution{Results: make([]ExecutionCase, 0, len(tests))}
	passed := 0
	for i, tc := range tests {
		ec := ExecutionCase{TestCase: i + 1, Input: tc.Input, Expected: tc.Expected}
		if i < len(trace.Results) {
			ec.Actual = strings.TrimSpace(trace.Results[i].Actual)
			ec.Error = trace.Results[i].Error
			ec.Passed = ec.Error == "" && sameOutput(ec.Actual, tc.Expected)
		} else {
			ec.Error = "no output reported"
		}
		if ec.Passed {
			passed++
		}
		out.Results = append(out.Results, ec)
	}
	out.Success = passed == len(tests)
	if out.Success {
		out.OverallStatus = fmt.Sprintf("All %d tests passed!", len(tests))
	} else {
		out.OverallStatus = fmt.Sprintf("%d/%d tests passed", passed, len(tests))
	}
	return out, nil
}

func analysisPrompt(code, language, problem string, tests []TestCase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this %s code solution thoroughly and provide educational feedback.\n", language)
	fmt.Fprintf(&b, "The code MUST be valid %s. If it uses syntax from another language set isCorrect to false and score to 0.\n\n", language)
	fmt.Fprintf(&b, "PROBLEM DESCRIPTION:\n%s\n\nUSER'S CODE:\n```%s\n%s\n```\n\nTEST CASES:\n", problem, language, code)
	for i, tc := range tests {
		explanation := tc.Explanation
		if explanation == "" {
			explanation = "Test the function with given input"
		}
		fmt.Fprintf(&b, "Test Case %d:\n- Input: %s\n- Expected Output: %s\n- Explanation: %s\n", i+1, tc.Input, tc.Expected, explanation)
	}
	fmt.Fprintf(&b, `
Respond with this JSON object:
{"isCorrect": boolean, "score": number 0-100, "feedback": string,
 "syntax": {"isValid": boolean, "issues": [string]},
 "logic": {"isCorrect": boolean, "issues": [string], "suggestions": [string]},
 "efficiency": {"timeComplexity": string, "spaceComplexity": string, "rating": number 1-5, "improvements": [string]},
 "testCases": {"passed": number, "total": %d, "results": [{"input": string, "expectedOutput": string, "actualOutput": string, "passed": boolean, "explanation": string}]},
 "hints": [string], "learningPoints": [string]}
Scoring: wrong language 0, syntax errors at most 20, logic errors at most 50, correct but inefficient 60-80, perfect 90-100.
Trace the code execution for each test case.`, len(tests))
	return b.String()
}

func tracePrompt(code, language string, tests []TestCase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Act as a %s interpreter. Trace this program for each input and report exactly what it prints.\n\n```%s\n%s\n```\n\nINPUTS:\n", language, language, code)
	for i, tc := range tests {
		fmt.Fprintf(&b, "%d: %s\n", i+1, tc.Input)
	}
	b.WriteString(`
Respond with {"results": [{"actual": string, "error": string}]}, one entry per input in order.
Leave "error" empty unless the program would fail to compile or crash.`)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
