package codecheck

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var fence = regexp.MustCompile("```(?:json)?\\s*|\\s*```")

// ExtractJSON strips Markdown fences and narrows the text to its outermost object.
func ExtractJSON(text string) string {
	s := strings.TrimSpace(fence.ReplaceAllString(text, ""))
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

type rawAnalysis struct {
	IsCorrect bool    `json:"isCorrect"`
	Score     float64 `json:"score"`
	Feedback  string  `json:"feedback"`
	Syntax    *struct {
		IsValid bool     `json:"isValid"`
		Issues  []string `json:"issues"`
	} `json:"syntax"`
	Logic *struct {
		IsCorrect   bool     `json:"isCorrect"`
		Issues      []string `json:"issues"`
		Suggestions []string `json:"suggestions"`
	} `json:"logic"`
	Efficiency *struct {
		TimeComplexity  string   `json:"timeComplexity"`
		SpaceComplexity string   `json:"spaceComplexity"`
		Rating          int      `json:"rating"`
		Improvements    []string `json:"improvements"`
	} `json:"efficiency"`
	TestCases *struct {
		Passed  int               `json:"passed"`
		Total   int               `json:"total"`
		Results []TestCaseVerdict `json:"results"`
	} `json:"testCases"`
	Hints          []string `json:"hints"`
	LearningPoints []string `json:"learningPoints"`
}

// parseAnalysis turns oracle output into a Result, filling defaults for missing fields.
// Unparseable output yields a neutral fallback result rather than an error.
func parseAnalysis(text string, cases int) (Result, bool) {
	var raw rawAnalysis
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &raw); err != nil {
		return Result{
			Success:  true,
			Score:    50,
			Feedback: "Code received, but detailed analysis couldn't be parsed. Please check syntax and logic.",
			DetailedAnalysis: Analysis{
				Syntax:     SyntaxAnalysis{IsValid: true, Issues: []string{}},
				Logic:      LogicAnalysis{Issues: []string{"Analysis parsing failed"}, Suggestions: []string{}},
				Efficiency: EfficiencyAnalysis{TimeComplexity: "Unknown", SpaceComplexity: "Unknown", Rating: 3, Improvements: []string{}},
				TestCases:  TestCaseAnalysis{Total: cases, Results: []TestCaseVerdict{}},
			},
			Hints:          []string{"Check your code syntax and logic"},
			LearningPoints: []string{},
		}, false
	}

	res := Result{
		Success:        true,
		IsCorrect:      raw.IsCorrect,
		Score:          clampScore(raw.Score),
		Feedback:       orDefault(raw.Feedback, "Code analysis completed"),
		Hints:          nonNil(raw.Hints),
		LearningPoints: nonNil(raw.LearningPoints),
	}
	a := &res.DetailedAnalysis
	a.Syntax.Issues = []string{}
	if raw.Syntax != nil {
		a.Syntax = SyntaxAnalysis{IsValid: raw.Syntax.IsValid, Issues: nonNil(raw.Syntax.Issues)}
	}
	a.Logic = LogicAnalysis{Issues: []string{}, Suggestions: []string{}}
	if raw.Logic != nil {
		a.Logic = LogicAnalysis{IsCorrect: raw.Logic.IsCorrect, Issues: nonNil(raw.Logic.Issues), Suggestions: nonNil(raw.Logic.Suggestions)}
	}
	a.Efficiency = EfficiencyAnalysis{TimeComplexity: "Unknown", SpaceComplexity: "Unknown", Rating: 3, Improvements: []string{}}
	if e := raw.Efficiency; e != nil {
		a.Efficiency.TimeComplexity = orDefault(e.TimeComplexity, "Unknown")
		a.Efficiency.SpaceComplexity = orDefault(e.SpaceComplexity, "Unknown")
		if e.Rating >= 1 && e.Rating <= 5 {
			a.Efficiency.Rating = e.Rating
		}
		a.Efficiency.Improvements = nonNil(e.Improvements)
	}
	a.TestCases = TestCaseAnalysis{Total: cases, Results: []TestCaseVerdict{}}
	if tc := raw.TestCases; tc != nil {
		a.TestCases.Passed = tc.Passed
		if tc.Total > 0 {
			a.TestCases.Total = tc.Total
		}
		if tc.Results != nil {
			a.TestCases.Results = tc.Results
		}
	}
	return res, true
}

// sameOutput compares program outputs, treating JSON values as equal regardless of spacing.
func sameOutput(actual, expected string) bool {
	actual, expected = strings.TrimSpace(actual), strings.TrimSpace(expected)
	if actual == expected {
		return true
	}
	var a, e bytes.Buffer
	if json.Compact(&a, []byte(actual)) != nil || json.Compact(&e, []byte(expected)) != nil {
		return false
	}
	return a.String() == e.String()
}

func clampScore(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return int(v + 0.5)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
