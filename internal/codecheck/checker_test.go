package codecheck

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type fakeProvider struct {
	calls   atomic.Int32
	replies []string
	errs    []error
	prompt  string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, _, prompt string) (string, error) {
	n := int(f.calls.Add(1)) - 1
	f.prompt = prompt
	if n < len(f.errs) && f.errs[n] != nil {
		return "", f.errs[n]
	}
	if n < len(f.replies) {
		return f.replies[n], nil
	}
	return f.replies[len(f.replies)-1], nil
}

func TestCheckRequiresCodeAndLanguage(t *testing.T) {
	c := NewChecker(&fakeProvider{replies: []string{"{}"}})
	if _, err := c.Check(context.Background(), "", "python", "", nil); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput for empty code, got %v", err)
	}
	if _, err := c.Check(context.Background(), "print(1)", " ", "", nil); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput for empty language, got %v", err)
	}
}

func TestCheckRejectsWrongLanguageWithoutOracle(t *testing.T) {
	provider := &fakeProvider{replies: []string{"{}"}}
	c := NewChecker(provider)

	res, err := c.Check(context.Background(), "#include <stdio.h>\nint main(){printf(\"hi\");}", "python", "", nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Success || res.Score != 0 || res.DetailedAnalysis.Syntax.IsValid {
		t.Fatalf("expected syntax failure, got %+v", res)
	}
	if len(res.DetailedAnalysis.Syntax.Issues) == 0 || !strings.Contains(res.DetailedAnalysis.Syntax.Issues[0], "C/C++") {
		t.Fatalf("unexpected issues %v", res.DetailedAnalysis.Syntax.Issues)
	}
	if provider.calls.Load() != 0 {
		t.Fatalf("oracle should not be called")
	}
}

func TestCheckLanguageMismatch(t *testing.T) {
	c := NewChecker(&fakeProvider{replies: []string{"{}"}})
	res, err := c.Check(context.Background(), "using System;\nclass P { static void Main(){ Console.WriteLine(1); } }", "java", "", nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Success || !strings.Contains(res.Feedback, "csharp") {
		t.Fatalf("expected mismatch feedback, got %q", res.Feedback)
	}
}

func TestCheckParsesFencedResponse(t *testing.T) {
	provider := &fakeProvider{replies: []string{"Here you go:\n```json\n{\"isCorrect\": true, \"score\": 92.6, \"feedback\": \"Nice\", \"testCases\": {\"passed\": 2}}\n```"}}
	c := NewChecker(provider)
	tests := []TestCase{{Input: "1", Expected: "2"}, {Input: "2", Expected: "3"}}

	res, err := c.Check(context.Background(), "def inc(x):\n    return x + 1", "python", "", tests)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Success || !res.IsCorrect || res.Score != 93 || res.Feedback != "Nice" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.DetailedAnalysis.TestCases.Total != 2 || res.DetailedAnalysis.TestCases.Passed != 2 {
		t.Fatalf("unexpected test summary %+v", res.DetailedAnalysis.TestCases)
	}
	if res.DetailedAnalysis.Efficiency.Rating != 3 || res.DetailedAnalysis.Efficiency.TimeComplexity != "Unknown" {
		t.Fatalf("defaults not applied: %+v", res.DetailedAnalysis.Efficiency)
	}
	if !strings.Contains(provider.prompt, "General coding problem") {
		t.Fatalf("default problem description missing from prompt")
	}
}

func TestCheckFallsBackOnGarbage(t *testing.T) {
	c := NewChecker(&fakeProvider{replies: []string{"not json at all"}})
	res, err := c.Check(context.Background(), "x = 1", "python", "p", []TestCase{{Input: "a", Expected: "b"}})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Success || res.Score != 50 || res.DetailedAnalysis.TestCases.Total != 1 {
		t.Fatalf("unexpected fallback %+v", res)
	}
}

func TestCheckReportsOracleFailure(t *testing.T) {
	c := NewChecker(&fakeProvider{errs: []error{errors.New("boom")}, replies: []string{""}})
	res, err := c.Check(context.Background(), "x = 1", "python", "p", nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Success || !strings.Contains(res.Feedback, "boom") {
		t.Fatalf("expected error result, got %+v", res)
	}
}

func TestCheckWithoutProvider(t *testing.T) {
	if _, err := NewChecker(nil).Check(context.Background(), "x = 1", "python", "", nil); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestExecute(t *testing.T) {
	provider := &fakeProvider{replies: []string{`{"results":[{"actual":"[1, 2]"},{"actual":"5"},{"actual":"","error":"IndexError"}]}`}}
	c := NewChecker(provider)
	tests := []TestCase{{Input: "a", Expected: "[1,2]"}, {Input: "b", Expected: "6"}, {Input: "c", Expected: "0"}}

	out, err := c.Execute(context.Background(), "print(x)", "python", tests)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Success || out.OverallStatus != "1/3 tests passed" {
		t.Fatalf("unexpected execution %+v", out)
	}
	if !out.Results[0].Passed || out.Results[1].Passed || out.Results[2].Error != "IndexError" {
		t.Fatalf("unexpected cases %+v", out.Results)
	}
}

func TestExecuteUnsupportedLanguage(t *testing.T) {
	out, err := NewChecker(&fakeProvider{replies: []string{"{}"}}).Execute(context.Background(), "x", "cobol", []TestCase{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Success || out.OverallStatus != "Error" || !strings.Contains(out.Error, "cobol") {
		t.Fatalf("unexpected execution %+v", out)
	}
	if _, err := NewChecker(nil).Execute(context.Background(), "x", "python", nil); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput without test cases, got %v", err)
	}
}

func TestResilientProviderRetriesTransientErrors(t *testing.T) {
	provider := &fakeProvider{
		errs:    []error{StatusError(503, "busy"), StatusError(429, "slow down")},
		replies: []string{"", "", "ok"},
	}
	rp := NewResilientProvider(provider, ResilienceConfig{InitialDelay: time.Millisecond})

	got, err := rp.Complete(context.Background(), "s", "p")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "ok" || provider.calls.Load() != 3 {
		t.Fatalf("got %q after %d calls", got, provider.calls.Load())
	}
}

func TestResilientProviderDoesNotRetryClientErrors(t *testing.T) {
	provider := &fakeProvider{errs: []error{StatusError(400, "bad")}, replies: []string{""}}
	rp := NewResilientProvider(provider, ResilienceConfig{InitialDelay: time.Millisecond})

	if _, err := rp.Complete(context.Background(), "s", "p"); err == nil {
		t.Fatalf("expected error")
	}
	if provider.calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", provider.calls.Load())
	}
}
