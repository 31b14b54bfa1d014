package codecheck

// TestCase is one input/expected-output pair for a coding problem.
type TestCase struct {
	Input       string `json:"input"`
	Expected    string `json:"expected"`
	Explanation string `json:"explanation,omitempty"`
}

type SyntaxAnalysis struct {
	IsValid bool     `json:"isValid"`
	Issues  []string `json:"issues"`
}

type LogicAnalysis struct {
	IsCorrect   bool     `json:"isCorrect"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

type EfficiencyAnalysis struct {
	TimeComplexity  string   `json:"timeComplexity"`
	SpaceComplexity string   `json:"spaceComplexity"`
	Rating          int      `json:"rating"`
	Improvements    []string `json:"improvements"`
}

type TestCaseVerdict struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	ActualOutput   string `json:"actualOutput"`
	Passed         bool   `json:"passed"`
	Explanation    string `json:"explanation"`
}

type TestCaseAnalysis struct {
	Passed  int               `json:"passed"`
	Total   int               `json:"total"`
	Results []TestCaseVerdict `json:"results"`
}

type Analysis struct {
	Syntax     SyntaxAnalysis     `json:"syntax"`
	Logic      LogicAnalysis      `json:"logic"`
	Efficiency EfficiencyAnalysis `json:"efficiency"`
	TestCases  TestCaseAnalysis   `json:"testCases"`
}

// Result is the feedback returned for a code check. Score is 0-100.
type Result struct {
	Success          bool     `json:"success"`
	IsCorrect        bool     `json:"isCorrect"`
	Score            int      `json:"score"`
	Feedback         string   `json:"feedback"`
	DetailedAnalysis Analysis `json:"detailedAnalysis"`
	Hints            []string `json:"hints"`
	LearningPoints   []string `json:"learningPoints"`
}

// ExecutionCase is the outcome of running one test case.
type ExecutionCase struct {
	TestCase int    `json:"testCase"`
	Passed   bool   `json:"passed"`
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Error    string `json:"error,omitempty"`
}

type Execution struct {
	Success       bool            `json:"success"`
	Results       []ExecutionCase `json:"results"`
	OverallStatus string          `json:"overallStatus"`
	Error         string          `json:"error,omitempty"`
}

func failedResult(feedback string, syntaxIssues, logicIssues, hints, learning []string) Result {
	return Result{
		Feedback: feedback,
		DetailedAnalysis: Analysis{
			Syntax:     SyntaxAnalysis{Issues: syntaxIssues},
			Logic:      LogicAnalysis{Issues: logicIssues, Suggestions: []string{}},
			Efficiency: EfficiencyAnalysis{TimeComplexity: "Unknown", SpaceComplexity: "Unknown", Rating: 1, Improvements: []string{}},
			TestCases:  TestCaseAnalysis{Results: []TestCaseVerdict{}},
		},
		Hints:          hints,
		LearningPoints: learning,
	}
}
